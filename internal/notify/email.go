package notify

import (
    "context"
    "fmt"

    "github.com/sendgrid/sendgrid-go"
    "github.com/sendgrid/sendgrid-go/helpers/mail"
    "go.uber.org/zap"
)

// EmailSender sends a single email.
type EmailSender interface {
    Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
    To      string
    ToName  string
    Subject string
    Body    string // plain text
    HTML    string // optional
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
    APIKey    string
    FromEmail string
    FromName  string
}

// SendGridSender sends emails through the SendGrid v3 API.
type SendGridSender struct {
    client    *sendgrid.Client
    fromEmail string
    fromName  string
    log       *zap.Logger
}

// NewSendGridSender returns nil when no API key is configured; callers
// fall back to StubEmailSender.
func NewSendGridSender(cfg SendGridConfig, log *zap.Logger) *SendGridSender {
    if cfg.APIKey == "" {
        return nil
    }
    if log == nil {
        log = zap.NewNop()
    }
    if cfg.FromName == "" {
        cfg.FromName = "Sports Marketplace"
    }
    return &SendGridSender{
        client:    sendgrid.NewSendClient(cfg.APIKey),
        fromEmail: cfg.FromEmail,
        fromName:  cfg.FromName,
        log:       log,
    }
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
    from := mail.NewEmail(s.fromName, s.fromEmail)
    to := mail.NewEmail(msg.ToName, msg.To)
    html := msg.HTML
    if html == "" {
        html = msg.Body
    }
    message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)

    response, err := s.client.SendWithContext(ctx, message)
    if err != nil {
        return fmt.Errorf("sendgrid send: %w", err)
    }
    if response.StatusCode >= 400 {
        s.log.Error("sendgrid rejected email",
            zap.Int("status", response.StatusCode), zap.String("to", msg.To))
        return fmt.Errorf("sendgrid send: status %d", response.StatusCode)
    }
    return nil
}

// StubEmailSender only logs.  Used when SendGrid is not configured.
type StubEmailSender struct {
    log *zap.Logger
}

func NewStubEmailSender(log *zap.Logger) *StubEmailSender {
    if log == nil {
        log = zap.NewNop()
    }
    return &StubEmailSender{log: log}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
    s.log.Info("email (stub)", zap.String("to", msg.To), zap.String("subject", msg.Subject))
    return nil
}
