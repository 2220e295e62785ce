package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/panelevent/backend/internal/mailer"
	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/pkg/queue"
)

const dequeueTimeout = 5 * time.Second

// JobSource is the queue the processor consumes.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Renderer turns a template name and data into subject, HTML and text bodies.
type Renderer interface {
	Render(name string, data any) (subject, html, text string, err error)
}

// LogStore records delivery attempts.
type LogStore interface {
	Create(ctx context.Context, el *models.EmailLog) error
}

// confirmationData is the template data for registration_confirmation.
type confirmationData struct {
	RecipientName string
	EventTitle    string
	EventStartsAt time.Time
	EventLocation string
	CheckinURL    string
}

// EmailProcessor renders and sends queued emails and records each attempt in email_logs.
type EmailProcessor struct {
	jobs       JobSource
	renderer   Renderer
	mailer     mailer.Mailer
	logs       LogStore
	checkinURL string
	backoff    time.Duration
	logger     *zap.Logger
}

// NewEmailProcessor creates an email processor. checkinURL is prefixed to check-in tokens.
func NewEmailProcessor(jobs JobSource, renderer Renderer, m mailer.Mailer, logs LogStore, checkinURL string, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{
		jobs:       jobs,
		renderer:   renderer,
		mailer:     m,
		logs:       logs,
		checkinURL: checkinURL,
		backoff:    queue.RetryBackoff,
		logger:     logger,
	}
}

// Process executes one email job. A send failure is logged in email_logs and returned so the
// job can be retried.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.EmailPayload()
	if err != nil {
		return err
	}
	if payload.EmailType != models.EmailTypeRegistrationConfirmation {
		return fmt.Errorf("unknown email type: %s", payload.EmailType)
	}

	data := confirmationData{
		RecipientName: payload.RecipientName,
		EventTitle:    payload.EventTitle,
		EventStartsAt: payload.EventStartsAt,
		EventLocation: payload.EventLocation,
	}
	if payload.CheckinToken != "" && p.checkinURL != "" {
		data.CheckinURL = p.checkinURL + payload.CheckinToken
	}
	subject, html, text, err := p.renderer.Render(payload.EmailType, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", payload.EmailType, err)
	}

	eventID := payload.EventID
	entry := &models.EmailLog{
		EventID:        &eventID,
		RegistrationID: payload.RegistrationID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        subject,
	}
	messageID, sendErr := p.mailer.Send(ctx, payload.RecipientEmail, subject, html, text)
	if sendErr != nil {
		entry.Status = models.EmailLogStatusFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now().UTC()
		entry.Status = models.EmailLogStatusSent
		entry.ProviderID = messageID
		entry.SentAt = &now
	}
	if err := p.logs.Create(ctx, entry); err != nil {
		p.logger.Error("record email log failed", zap.Error(err), zap.String("job_id", job.ID))
	}
	if sendErr != nil {
		return fmt.Errorf("send: %w", sendErr)
	}
	p.logger.Info("email sent", zap.String("job_id", job.ID), zap.String("email_type", payload.EmailType))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			p.logger.Info("email worker stopping")
			return
		}

		job, err := p.jobs.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
