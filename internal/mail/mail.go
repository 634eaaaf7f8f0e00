// Package mail delivers the rendered report over SMTP as a multipart
// message (plain text plus HTML alternative).
package mail

import (
	"context"
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"chievents/internal/config"
)

// Sender sends reports through a single configured SMTP account.
type Sender struct {
	cfg config.EmailConfig
	log *zap.Logger
}

// NewSender constructs a Sender.
func NewSender(cfg config.EmailConfig, log *zap.Logger) *Sender {
	return &Sender{cfg: cfg, log: log}
}

// Configured reports whether credentials and a recipient are present.
func (s *Sender) Configured() bool {
	return s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.Recipient != ""
}

// Send delivers one message. STARTTLS is mandatory; auth is SMTP PLAIN,
// which is what Gmail app passwords use.
func (s *Sender) Send(ctx context.Context, subject, textBody, htmlBody string) error {
	if !s.Configured() {
		return errors.New("mail: SMTP not configured (set GMAIL_ADDRESS, GMAIL_APP_PASSWORD, RECIPIENT_EMAIL)")
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("mail: invalid sender address: %w", err)
	}
	if err := msg.To(s.cfg.Recipient); err != nil {
		return fmt.Errorf("mail: invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textBody)
	msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("mail: client setup failed: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send failed: %w", err)
	}

	s.log.Info("email sent", zap.String("to", s.cfg.Recipient), zap.String("subject", subject))
	return nil
}
