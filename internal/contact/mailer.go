package contact

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is an outgoing email.
type Message struct {
	To          string
	From        string
	FromName    string
	ReplyTo     string
	ReplyToName string
	Subject     string
	Text        string
	HTML        string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	// Name identifies the delivery backend in status reports.
	Name() string
}

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	logger *slog.Logger
}

// NewSendGridMailer returns a mailer authenticated with apiKey.
func NewSendGridMailer(apiKey string, logger *slog.Logger) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), logger: logger}
}

func (m *SendGridMailer) Name() string { return "sendgrid" }

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(msg.FromName, msg.From)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail(msg.ReplyToName, msg.ReplyTo))
	}
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("contact: sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		m.logger.Error("contact: sendgrid returned error status",
			slog.Int("status", response.StatusCode),
			slog.String("body", response.Body),
		)
		return fmt.Errorf("contact: sendgrid error: status %d", response.StatusCode)
	}
	return nil
}

// LogMailer records messages in the log instead of sending them. It is used
// when no SendGrid key is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer returns a mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Name() string { return "log" }

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("contact: email not sent, no mail provider configured",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("reply_to", msg.ReplyTo),
	)
	return nil
}
