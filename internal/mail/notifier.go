package mail

import (
	"context"
	"strings"

	"github.com/sakif/venturehub/internal/model"
)

// Outbox is where the Notifier hands messages over. *Dispatcher is the
// production implementation.
type Outbox interface {
	Send(ctx context.Context, msg Message) error
	Enqueue(msg Message) bool
}

var _ Outbox = (*Dispatcher)(nil)

// NotifierConfig holds the fixed addresses used by notifications.
type NotifierConfig struct {
	Admin   string   // receives every admin notification
	AdminCC []string // copied on admin notifications
	Contact string   // receives the contact form
	BaseURL string   // used to build approval links
}

// Notifier builds the application's notifications.
type Notifier struct {
	out Outbox
	cfg NotifierConfig
}

// NewNotifier creates a Notifier.
func NewNotifier(out Outbox, cfg NotifierConfig) *Notifier {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Notifier{out: out, cfg: cfg}
}

func (n *Notifier) admin(subject, tpl string, data map[string]any, cc ...string) Message {
	return Message{
		To:       nonEmpty([]string{n.cfg.Admin}),
		CC:       append(append([]string{}, n.cfg.AdminCC...), nonEmpty(cc)...),
		Subject:  subject,
		Template: tpl,
		Data:     data,
	}
}

// bccAdmin returns the admin address as a BCC list when one is configured.
func (n *Notifier) bccAdmin() []string {
	if n.cfg.Admin == "" {
		return nil
	}
	return []string{n.cfg.Admin}
}

func nonEmpty(addrs []string) []string {
	out := addrs[:0:0]
	for _, a := range addrs {
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Welcome greets a new user. It is delivered synchronously so the caller
// only records it as sent when it went out.
func (n *Notifier) Welcome(ctx context.Context, to string) error {
	return n.out.Send(ctx, Message{
		To:       []string{to},
		BCC:      n.bccAdmin(),
		Subject:  "Welcome to VentureHub",
		Template: TplWelcome,
		Data:     map[string]any{"Email": to},
	})
}

// SubscriptionReminder warns that the investor subscription is about to
// expire, or already has when daysLeft is negative.
func (n *Notifier) SubscriptionReminder(to, name string, daysLeft int) bool {
	subject := "Your subscription expires soon"
	if daysLeft < 0 {
		subject = "Your subscription has expired"
	}
	return n.out.Enqueue(Message{
		To:       []string{to},
		Subject:  subject,
		Template: TplSubscriptionReminder,
		Data: map[string]any{
			"Name":     name,
			"DaysLeft": daysLeft,
			"Expired":  daysLeft < 0,
			"RenewURL": n.cfg.BaseURL + "/dashboard",
		},
	})
}

// Contact forwards the public contact form synchronously.
func (n *Notifier) Contact(ctx context.Context, name, email, subject, message string) error {
	return n.out.Send(ctx, Message{
		To:       []string{n.cfg.Contact},
		Subject:  "Contact Form: " + subject,
		Template: TplContact,
		Data: map[string]any{
			"Name":    name,
			"Email":   email,
			"Subject": subject,
			"Message": message,
		},
	})
}

// ProfileUpdated tells the admins a business profile changed.
func (n *Notifier) ProfileUpdated(email string, p *model.Profile) {
	n.out.Enqueue(n.admin("Business Profile Updated", TplProfileUpdated, map[string]any{
		"Email":      email,
		"UserID":     p.UserID,
		"Completion": p.Completion,
		"Verified":   p.BusinessVerified,
	}))
}

// KYCSubmitted tells the admins a KYC needs review.
func (n *Notifier) KYCSubmitted(email string, k *model.KYC) {
	n.out.Enqueue(n.admin("New KYC Submission", TplKYCSubmitted, map[string]any{
		"Email": email,
		"KYC":   k,
	}))
}

// InvestorApplication tells the admins an investor application was
// submitted or updated.
func (n *Notifier) InvestorApplication(a *model.InvestorApplication, updated bool) {
	subject := "New Investor Application Submitted"
	if updated {
		subject = "Investor Application Updated"
	}
	n.out.Enqueue(n.admin(subject, TplInvestorApplication, map[string]any{
		"App":     a,
		"Name":    a.FullName(),
		"Updated": updated,
	}))
}

// InvesteeApplication tells the admins an investee application was
// submitted or updated.
func (n *Notifier) InvesteeApplication(a *model.InvesteeApplication, updated bool) {
	subject := "New Investee Application Submitted"
	if updated {
		subject = "Investee Application Updated"
	}
	n.out.Enqueue(n.admin(subject, TplInvesteeApplication, map[string]any{
		"App":     a,
		"Name":    a.FullName(),
		"Updated": updated,
	}))
}

// ListingCreated tells the admins a listing awaits verification.
func (n *Notifier) ListingCreated(l *model.Listing) {
	n.out.Enqueue(n.admin("New Listing Created", TplListingCreated, map[string]any{
		"Listing": l,
	}))
}

// InvestmentRequest tells the listing owner about a new request.
func (n *Notifier) InvestmentRequest(ownerEmail string, l *model.Listing, r *model.InvestorRequest) {
	n.out.Enqueue(Message{
		To:       []string{ownerEmail},
		Subject:  "New Investment Request",
		Template: TplInvestmentRequest,
		Data: map[string]any{
			"Listing":      l,
			"Request":      r,
			"InvestorsURL": n.cfg.BaseURL + "/dashboard",
		},
	})
}

// InvestmentApproved tells the investor their request was approved and
// lets the admins schedule an introduction.
func (n *Notifier) InvestmentApproved(ownerEmail string, l *model.Listing, r *model.InvestorRequest) {
	data := map[string]any{
		"Listing":    l,
		"Request":    r,
		"OwnerEmail": ownerEmail,
	}
	n.out.Enqueue(Message{
		To:       []string{r.InvestorEmail},
		Subject:  "Your Investment Has Been Approved",
		Template: TplInvestmentApproved,
		Data:     data,
	})
	n.out.Enqueue(n.admin("Investment Approved - Schedule Introduction Meeting", TplInvestmentApprovedAdmin, data))
}

// InvestmentRejected tells the investor their request was declined.
func (n *Notifier) InvestmentRejected(l *model.Listing, r *model.InvestorRequest) {
	n.out.Enqueue(Message{
		To:       []string{r.InvestorEmail},
		Subject:  "Your Investment Request Was Not Approved",
		Template: TplInvestmentRejected,
		Data:     map[string]any{"Listing": l, "Request": r},
	})
}

// MarketplacePayment confirms a paid investment to the investor and the
// owner and notifies the admins.
func (n *Notifier) MarketplacePayment(investorEmail, ownerEmail string, l *model.Listing, rec *model.PaymentRecord, equity float64) {
	data := map[string]any{
		"Listing":   l,
		"Payment":   rec,
		"Equity":    equity,
		"Investor":  rec.CustomerName,
		"Reference": rec.Reference,
	}
	for _, to := range nonEmpty([]string{investorEmail, ownerEmail}) {
		n.out.Enqueue(Message{
			To:       []string{to},
			Subject:  "Investment Payment Confirmed",
			Template: TplMarketplacePayment,
			Data:     data,
		})
	}
	n.out.Enqueue(n.admin("New Marketplace Payment Received", TplMarketplacePaymentAdmin, data))
}

// SpaceBookingRequest asks the space owner to approve a booking.
func (n *Notifier) SpaceBookingRequest(ownerEmail string, b *model.SpaceBooking) {
	n.out.Enqueue(Message{
		To:       []string{ownerEmail},
		BCC:      n.bccAdmin(),
		Subject:  "New Interest in " + b.StudioName,
		Template: TplSpaceBookingRequest,
		Data: map[string]any{
			"Booking":    b,
			"ApproveURL": n.cfg.BaseURL + "/approve-booking/" + b.ID,
		},
	})
}

// BookingStatus tells a user whether a space or service booking was
// approved.
func (n *Notifier) BookingStatus(to, item string, approved bool) {
	n.out.Enqueue(Message{
		To:       []string{to},
		Subject:  "Booking Status Update",
		Template: TplBookingStatus,
		Data: map[string]any{
			"Item":     item,
			"Approved": approved,
			"PayURL":   n.cfg.BaseURL + "/dashboard",
		},
	})
}

// SpaceBookingPaid confirms a paid space booking to the user and notifies
// the admins with the owner copied.
func (n *Notifier) SpaceBookingPaid(ownerEmail string, b *model.SpaceBooking, reference string) {
	data := map[string]any{"Booking": b, "Reference": reference}
	n.out.Enqueue(Message{
		To:       []string{b.UserEmail},
		Subject:  "Collaborative Space Booking Confirmed",
		Template: TplSpaceBookingConfirmed,
		Data:     data,
	})
	n.out.Enqueue(n.admin("Collaborative Space Booked and Paid", TplSpaceBookingAdmin, data, ownerEmail))
}

// ServiceBookingRequest asks an advisory provider to approve a booking.
func (n *Notifier) ServiceBookingRequest(providerEmail string, b *model.ServiceBooking) {
	n.out.Enqueue(Message{
		To:       []string{providerEmail},
		BCC:      n.bccAdmin(),
		Subject:  "New " + b.ServiceType + " Booking Request",
		Template: TplServiceBookingRequest,
		Data: map[string]any{
			"Booking":    b,
			"ApproveURL": n.cfg.BaseURL + "/approve-service-booking/" + b.ID,
		},
	})
}

// ServiceBookingPaid confirms a paid advisory booking to the user and
// notifies the admins with the provider copied.
func (n *Notifier) ServiceBookingPaid(providerEmail string, b *model.ServiceBooking, reference string) {
	data := map[string]any{"Booking": b, "Reference": reference}
	n.out.Enqueue(Message{
		To:       []string{b.UserEmail},
		Subject:  "Payment Confirmation",
		Template: TplPaymentConfirmed,
		Data:     data,
	})
	n.out.Enqueue(n.admin("New Payment Received", TplPaymentAdmin, data, providerEmail))
}
