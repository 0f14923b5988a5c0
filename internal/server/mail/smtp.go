package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"github.com/sapatil2212/CMS-SYSTEM-sub003/internal/server/config"
)

// SMTPMailer sends mail through a plain SMTP relay using go-mail.
type SMTPMailer struct {
	client   *gomail.Client
	from     string
	fromName string
}

// NewSMTPMailer builds a mailer from the server configuration. When no SMTP
// user is configured (local dev relays such as MailHog), authentication is
// skipped entirely.
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client init error: %w", err)
	}

	return &SMTPMailer{
		client:   client,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
	}, nil
}

// Send delivers one HTML message and reports any dial or protocol failure.
func (m *SMTPMailer) Send(ctx context.Context, to, toName, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.AddToFormat(toName, to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}
	return nil
}
