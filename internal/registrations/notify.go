package registrations

import (
	"context"

	"github.com/panelevent/backend/internal/models"
	"github.com/panelevent/backend/pkg/queue"
)

// EmailTypeConfirmation is the email sent to every admitted registrant.
const EmailTypeConfirmation = models.EmailTypeRegistrationConfirmation

// EmailEnqueuer queues outbound email jobs.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// EmailNotifier queues a confirmation email for each admitted registration.
type EmailNotifier struct {
	queue EmailEnqueuer
}

// NewEmailNotifier creates a Notifier backed by the email queue.
func NewEmailNotifier(q EmailEnqueuer) *EmailNotifier {
	return &EmailNotifier{queue: q}
}

// RegistrationAdmitted implements Notifier.
func (n *EmailNotifier) RegistrationAdmitted(ctx context.Context, reg *models.Registration, e *models.Event) error {
	regID := reg.ID
	return n.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      EmailTypeConfirmation,
		EventID:        e.ID,
		RegistrationID: &regID,
		RecipientEmail: reg.Email,
		RecipientName:  reg.FullName(),
		EventTitle:     e.Title,
		EventStartsAt:  e.StartsAt,
		EventLocation:  e.Location,
		CheckinToken:   reg.CheckinToken,
	})
}
