package mailer

import (
	"context"
	"errors"
	"fmt"

	templates "github.com/linesmerrill/marketplace-api/templates/html"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no SendGrid key is present
var ErrNotConfigured = errors.New("email is not configured")

// Message is a single outbound email
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGrid delivers mail through the SendGrid v3 API
type SendGrid struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

// New returns a SendGrid mailer, or Noop when apiKey is empty
func New(apiKey, from string) Mailer {
	if apiKey == "" {
		zap.S().Warn("SENDGRID_API_KEY not set, emails will not be sent")
		return Noop{}
	}
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: "Marketplace",
		from:     from,
	}
}

// Body returns the HTML part of msg. Messages without one get the plain text
// wrapped in the branded layout.
func (msg Message) Body() string {
	if msg.HTML != "" {
		return msg.HTML
	}
	return templates.RenderGenericEmail(msg.Subject, msg.PlainText)
}

// Send sends msg
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainText, msg.Body())
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		zap.S().Errorw("failed to send email", "error", err, "to", msg.ToEmail)
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.ToEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("email sent successfully", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}

// Noop drops every message
type Noop struct{}

// Send logs and returns ErrNotConfigured
func (Noop) Send(_ context.Context, msg Message) error {
	zap.S().Debugw("email skipped", "to", msg.ToEmail, "subject", msg.Subject)
	return ErrNotConfigured
}
