package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"saludclara-server/internal/config"
)

// EmailSender is the outbound email transport. Implementations can be
// swapped (SendGrid, SMTP, stub) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// NewSender picks the configured transport. Without a SendGrid key the
// service keeps working and only logs what it would have sent.
func NewSender(cfg config.MailerConfig, log *zap.Logger) EmailSender {
	if cfg.SendGridAPIKey == "" {
		log.Info("SENDGRID_API_KEY not set, confirmation emails will be logged only")
		return &StubSender{log: log}
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log,
	}
}

// SendGridSender sends emails through the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	log       *zap.Logger
}

// Send delivers the message via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Subject, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	s.log.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("status", response.StatusCode))
	return nil
}

// StubSender logs instead of sending. Used when email is not configured.
type StubSender struct {
	log *zap.Logger
}

// Send logs the message and reports success.
func (s *StubSender) Send(ctx context.Context, msg EmailMessage) error {
	s.log.Info("stub mailer: would send email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
