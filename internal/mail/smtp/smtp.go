// Package smtp delivers mail.Email over SMTP.
package smtp

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/sakif/venturehub/internal/mail"
)

// Config describes the SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// RequireTLS refuses to send without STARTTLS.
	RequireTLS bool
}

// Sender sends each Email over its own SMTP connection.
type Sender struct {
	cfg Config
}

var _ mail.Sender = (*Sender)(nil)

// New creates a Sender.
func New(cfg Config) *Sender {
	return &Sender{cfg: cfg}
}

// Send delivers e.
func (s *Sender) Send(ctx context.Context, e mail.Email) error {
	msg, err := s.buildMsg(e)
	if err != nil {
		return err
	}

	policy := gomail.TLSOpportunistic
	if s.cfg.RequireTLS {
		policy = gomail.TLSMandatory
	}
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(policy),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}

	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp: creating client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp: sending %q: %w", e.Subject, err)
	}
	return nil
}

func (s *Sender) buildMsg(e mail.Email) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp: from address: %w", err)
	}
	if err := msg.To(e.To...); err != nil {
		return nil, fmt.Errorf("smtp: to address: %w", err)
	}
	if len(e.CC) > 0 {
		if err := msg.Cc(e.CC...); err != nil {
			return nil, fmt.Errorf("smtp: cc address: %w", err)
		}
	}
	if len(e.BCC) > 0 {
		if err := msg.Bcc(e.BCC...); err != nil {
			return nil, fmt.Errorf("smtp: bcc address: %w", err)
		}
	}
	msg.Subject(e.Subject)
	msg.SetBodyString(gomail.TypeTextHTML, e.HTML)
	return msg, nil
}
