package email

import (
	"context"
	"log/slog"

	"eventscheduler/internal/domain"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// SendGridConfig holds configuration for SendGrid. Host is only overridden in tests.
type SendGridConfig struct {
	APIKey string
	Host   string
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
	SendGrid    SendGridConfig
}

// NewMailer creates a mailer from config. Provider "ses" uses AWS SES, "sendgrid" uses
// SendGrid, and "noop" or anything unknown logs instead of sending.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch config.Provider {
	case "ses":
		return newSESMailer(config, logger), nil
	case "sendgrid":
		return newSendGridMailer(config, logger)
	case "noop", "":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

// fromHeader formats the sender as "Name <address>" when a name is configured.
func fromHeader(name, address string) string {
	if name == "" {
		return address
	}
	return name + " <" + address + ">"
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, to, subject, html, text string) error {
	n.logger.InfoContext(ctx, "email would be sent (noop)", "to", to, "subject", subject)
	return nil
}
