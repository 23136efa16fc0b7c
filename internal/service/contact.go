package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/mail"
)

const (
	MsgContactSent   = "Thank you for reaching out. We'll get back to you shortly."
	MsgContactFailed = "Failed to send your message. Please try again later."
)

// ContactForm is the public contact form.
type ContactForm struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Message     string `json:"message"`
}

// ContactService forwards the contact form to the contact address.
type ContactService struct {
	notifier *mail.Notifier
	logger   *slog.Logger
}

func NewContactService(notifier *mail.Notifier, logger *slog.Logger) *ContactService {
	return &ContactService{notifier: notifier, logger: logger}
}

// Submit validates and delivers the form synchronously.
func (s *ContactService) Submit(ctx context.Context, f ContactForm) error {
	if err := firstErr(
		required("first_name", f.FirstName),
		required("last_name", f.LastName),
		validEmail("email", strings.TrimSpace(f.Email)),
		required("company_name", f.CompanyName),
		required("message", f.Message),
	); err != nil {
		return err
	}

	name := strings.TrimSpace(f.FirstName) + " " + strings.TrimSpace(f.LastName)
	err := s.notifier.Contact(ctx, name, strings.TrimSpace(f.Email), strings.TrimSpace(f.CompanyName), strings.TrimSpace(f.Message))
	if err != nil {
		s.logger.Error("contact form not delivered",
			slog.String("email", f.Email),
			slog.String("error", err.Error()),
		)
		return apperror.Upstream(MsgContactFailed, err)
	}
	return nil
}
