// Package mail renders and delivers transactional email.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names.
const (
	TplWelcome                 = "welcome"
	TplSubscriptionReminder    = "subscription_reminder"
	TplContact                 = "contact"
	TplProfileUpdated          = "profile_updated"
	TplKYCSubmitted            = "kyc_submitted"
	TplInvestorApplication     = "investor_application"
	TplInvesteeApplication     = "investee_application"
	TplListingCreated          = "listing_created"
	TplInvestmentRequest       = "investment_request"
	TplInvestmentApproved      = "investment_approved"
	TplInvestmentApprovedAdmin = "investment_approved_admin"
	TplInvestmentRejected      = "investment_rejected"
	TplMarketplacePayment      = "marketplace_payment"
	TplMarketplacePaymentAdmin = "marketplace_payment_admin"
	TplSpaceBookingRequest     = "space_booking_request"
	TplBookingStatus           = "booking_status"
	TplSpaceBookingConfirmed   = "space_booking_confirmed"
	TplSpaceBookingAdmin       = "space_booking_admin"
	TplServiceBookingRequest   = "service_booking_request"
	TplPaymentConfirmed        = "payment_confirmed"
	TplPaymentAdmin            = "payment_admin"
)

// Message is a mail before rendering.
type Message struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Template string
	Data     map[string]any
}

// Email is a rendered message ready for a Sender.
type Email struct {
	To      []string
	CC      []string
	BCC     []string
	Subject string
	HTML    string
}

// Sender delivers rendered email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"money": func(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) },
	"upper": strings.ToUpper,
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("mail").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("mail: parsing templates: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

// Render turns msg into an Email.
func (r *Renderer) Render(msg Message) (Email, error) {
	if len(msg.To) == 0 {
		return Email{}, fmt.Errorf("mail: %s: no recipient", msg.Template)
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, msg.Template, msg.Data); err != nil {
		return Email{}, fmt.Errorf("mail: rendering %s: %w", msg.Template, err)
	}
	return Email{
		To:      msg.To,
		CC:      msg.CC,
		BCC:     msg.BCC,
		Subject: msg.Subject,
		HTML:    buf.String(),
	}, nil
}

// LogSender writes mail to the log instead of delivering it. Used when no
// SMTP host is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, e Email) error {
	s.Logger.Info("mail not delivered, smtp disabled",
		slog.String("to", strings.Join(e.To, ",")),
		slog.String("cc", strings.Join(e.CC, ",")),
		slog.String("subject", e.Subject),
		slog.Int("bytes", len(e.HTML)),
	)
	return nil
}
