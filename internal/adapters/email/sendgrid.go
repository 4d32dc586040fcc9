package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultSendGridHost = "https://api.sendgrid.com"

type sendGridMailer struct {
	apiKey      string
	host        string
	fromAddress string
	fromName    string
	logger      *slog.Logger
}

func newSendGridMailer(config MailerConfig, logger *slog.Logger) (*sendGridMailer, error) {
	if config.SendGrid.APIKey == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if config.FromAddress == "" {
		return nil, fmt.Errorf("from address is empty")
	}
	host := config.SendGrid.Host
	if host == "" {
		host = defaultSendGridHost
	}
	return &sendGridMailer{
		apiKey:      config.SendGrid.APIKey,
		host:        host,
		fromAddress: config.FromAddress,
		fromName:    config.FromName,
		logger:      logger,
	}, nil
}

func (m *sendGridMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if to == "" {
		return fmt.Errorf("to address is empty")
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.fromAddress),
		subject,
		mail.NewEmail("", to),
		text,
		html,
	)
	request := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	m.logger.InfoContext(ctx, "email sent via sendgrid", "status", response.StatusCode, "to", to)
	return nil
}
