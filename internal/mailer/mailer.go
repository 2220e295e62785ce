// Package mailer sends transactional email and renders it from embedded templates.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

// Mailer delivers one message and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) (string, error)
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Config selects and configures the provider.
type Config struct {
	Provider    string // "ses" or "noop"
	FromAddress string
	FromName    string
	SES         SESConfig
}

// New creates a mailer from config. Unknown providers fall back to noop with a warning.
func New(cfg Config, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "ses":
		awsCfg := aws.Config{
			Region: cfg.SES.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(cfg.SES.AccessKeyID, cfg.SES.SecretAccessKey, ""),
			),
			HTTPClient: &http.Client{
				Transport: &http.Transport{TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12}},
			},
		}
		return &sesMailer{
			client: ses.NewFromConfig(awsCfg),
			source: formatSource(cfg.FromName, cfg.FromAddress),
			logger: logger,
		}
	case "noop":
		return &noopMailer{logger: logger}
	default:
		logger.Warn("unknown email provider, using noop", zap.String("provider", cfg.Provider))
		return &noopMailer{logger: logger}
	}
}

func formatSource(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesMailer struct {
	client sesAPI
	source string
	logger *zap.Logger
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (m *sesMailer) Send(ctx context.Context, to, subject, html, text string) (string, error) {
	input := &ses.SendEmailInput{
		Source:      aws.String(m.source),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: utf8Content(subject),
			Body:    &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = utf8Content(html)
	}
	if text != "" {
		input.Message.Body.Text = utf8Content(text)
	}
	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("send email via SES: %w", err)
	}
	id := aws.ToString(out.MessageId)
	m.logger.Info("email sent via SES", zap.String("message_id", id))
	return id, nil
}

type noopMailer struct {
	logger *zap.Logger
}

func (n *noopMailer) Send(_ context.Context, to, subject, _, _ string) (string, error) {
	n.logger.Info("email would be sent (noop)", zap.String("to", to), zap.String("subject", subject))
	return "", nil
}
