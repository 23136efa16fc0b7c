package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/mail"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/pricing"
	"github.com/sakif/venturehub/internal/repository"
)

// Booking messages.
const (
	MsgBookingApproved    = "Approval has been successful."
	MsgBookingRejected    = "Booking has been rejected."
	MsgBookingRequested   = "Your booking request has been sent for approval."
	MsgAwaitingApproval   = "Your booking is awaiting approval."
	MsgBookingNotApproved = "This booking has not been approved yet."
	MsgBookingPaid        = "This booking has already been paid."
	MsgNotYourBooking     = "This booking belongs to another user."

	spacePrefix   = "space_"
	servicePrefix = "service_"
)

// SpaceRequest is a user's booking request for a collaborative space.
type SpaceRequest struct {
	SpaceID        string
	Name           string
	StartDate      string // YYYY-MM-DD
	Days           int
	AdditionalInfo string
}

// ServiceRequest is a user's booking request for an advisory provider.
type ServiceRequest struct {
	ServiceType    string
	ProviderName   string
	Name           string
	Date           string
	Time           string
	AdditionalInfo string
}

// SpaceView is a space with the user's open booking on it.
type SpaceView struct {
	model.CollaborativeSpace
	Booking *model.SpaceBooking `json:"booking,omitempty"`
	// Amount is the price of the open booking, or one month without one.
	Amount float64 `json:"amount"`
}

// ProvidersView lists the providers of one service type with the user's
// open booking for that type.
type ProvidersView struct {
	Service model.AdvisoryService `json:"service"`
	Booking *model.ServiceBooking `json:"booking,omitempty"`
}

// BookingReceipt is what a booking payment callback reports.
type BookingReceipt struct {
	BookingID string  `json:"bookingId"`
	Item      string  `json:"item"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference"`
	Duplicate bool    `json:"duplicate"`
}

// BookingService books collaborative spaces and advisory services. Every
// booking goes through the owner's or provider's approval before payment.
type BookingService struct {
	spaces   repository.SpaceRepository
	advisory repository.AdvisoryRepository
	emails   EmailLookup
	checkout *Checkout
	notifier *mail.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewBookingService(
	spaces repository.SpaceRepository,
	advisory repository.AdvisoryRepository,
	emails EmailLookup,
	checkout *Checkout,
	notifier *mail.Notifier,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		spaces:   spaces,
		advisory: advisory,
		emails:   emails,
		checkout: checkout,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func decisionMessage(approve bool) string {
	if approve {
		return MsgBookingApproved
	}
	return MsgBookingRejected
}

// userEmail prefers the identity provider's current address.
func (s *BookingService) userEmail(ctx context.Context, userID, fallback string) string {
	if userID == "" {
		return fallback
	}
	email, err := s.emails.LookupEmail(ctx, userID)
	if err != nil || email == "" {
		if err != nil {
			s.logger.Warn("user email lookup failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return fallback
	}
	return email
}

// validDay checks a YYYY-MM-DD date that must not lie in the past.
func (s *BookingService) validDay(field, value string) error {
	if err := required(field, value); err != nil {
		return err
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return apperror.ValidationFailed(field, fmt.Sprintf("The %s field must be a valid date.", field))
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	if day.Before(today) {
		return apperror.ValidationFailed(field, fmt.Sprintf("The %s field must be a date after or equal to today.", field))
	}
	return nil
}

// ListSpaces returns every space matching search with the user's open
// booking on it.
func (s *BookingService) ListSpaces(ctx context.Context, userID, search string) ([]SpaceView, error) {
	spaces, err := s.spaces.ListSpaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/booking: listing spaces: %w", err)
	}
	bookings, err := s.spaces.BookingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/booking: bookings of %s: %w", userID, err)
	}

	open := make(map[string]*model.SpaceBooking)
	for i := range bookings {
		b := &bookings[i]
		if b.Complete || b.Decision == model.DecisionRejected {
			continue
		}
		// newest first; keep the latest
		if _, ok := open[b.SpaceID]; !ok {
			open[b.SpaceID] = b
		}
	}

	out := make([]SpaceView, 0, len(spaces))
	for _, sp := range spaces {
		if !matches(search, sp.Title, sp.Description, sp.Address) {
			continue
		}
		v := SpaceView{CollaborativeSpace: sp, Amount: sp.Cost}
		if b, ok := open[sp.ID]; ok {
			v.Booking = b
			v.Amount = b.Amount
		}
		out = append(out, v)
	}
	return out, nil
}

// RequestSpace creates a booking and asks the space owner to approve it.
func (s *BookingService) RequestSpace(ctx context.Context, userID, email string, in SpaceRequest) (*model.SpaceBooking, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := firstErr(required("name", in.Name), required("space", in.SpaceID), s.validDay("startDate", in.StartDate)); err != nil {
		return nil, err
	}
	if in.Days <= 0 {
		return nil, apperror.ValidationFailed("days", "The days field must be at least 1.")
	}

	sp, err := s.spaces.GetSpace(ctx, in.SpaceID)
	if err != nil {
		return nil, err
	}

	b := &model.SpaceBooking{
		UserID:         userID,
		UserName:       in.Name,
		UserEmail:      email,
		SpaceID:        sp.ID,
		StudioName:     sp.Title,
		StartDate:      in.StartDate,
		Days:           in.Days,
		Amount:         pricing.SpacePrice(sp.Cost, in.Days),
		AdditionalInfo: strings.TrimSpace(in.AdditionalInfo),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.spaces.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("service/booking: creating space booking: %w", err)
	}

	s.notifier.SpaceBookingRequest(sp.Email, b)
	s.logger.Info("space booking requested",
		slog.String("booking_id", b.ID),
		slog.String("space_id", sp.ID),
		slog.Int("days", b.Days),
	)
	return b, nil
}

// SpaceBooking returns a booking for the approval page.
func (s *BookingService) SpaceBooking(ctx context.Context, id string) (*model.SpaceBooking, error) {
	return s.spaces.GetBooking(ctx, id)
}

// DecideSpaceBooking records the owner's decision and tells the user. It
// returns the message to show the owner.
func (s *BookingService) DecideSpaceBooking(ctx context.Context, id string, approve bool) (string, error) {
	b, err := s.spaces.GetBooking(ctx, id)
	if err != nil {
		return "", err
	}
	if b.Complete {
		return "", apperror.ConflictMessage(MsgBookingPaid)
	}
	if err := s.spaces.DecideBooking(ctx, id, approve); err != nil {
		return "", err
	}

	s.notifier.BookingStatus(s.userEmail(ctx, b.UserID, b.UserEmail), b.StudioName, approve)
	s.logger.Info("space booking decided", slog.String("booking_id", id), slog.Bool("approved", approve))
	return decisionMessage(approve), nil
}

// StartSpacePayment opens the checkout of an approved space booking.
func (s *BookingService) StartSpacePayment(ctx context.Context, userID, email, bookingID string) (*payment.Checkout, error) {
	b, err := s.spaces.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := payable(b.UserID, userID, b.ManagerApproval, b.Complete); err != nil {
		return nil, err
	}

	payer := b.UserEmail
	if payer == "" {
		payer = email
	}
	return s.checkout.start(ctx, model.FlowSpace, spacePrefix, payer, b.Amount, map[string]any{
		"user_id":    userID,
		"booking_id": b.ID,
		"space_id":   b.SpaceID,
		"studio":     b.StudioName,
		"days":       b.Days,
	})
}

func payable(owner, userID string, approved, complete bool) error {
	switch {
	case owner != userID:
		return apperror.Forbidden(MsgNotYourBooking)
	case complete:
		return apperror.ConflictMessage(MsgBookingPaid)
	case !approved:
		return apperror.Forbidden(MsgBookingNotApproved)
	}
	return nil
}

// CompleteSpacePayment settles the callback of a space payment.
func (s *BookingService) CompleteSpacePayment(ctx context.Context, reference string) (*BookingReceipt, error) {
	st, err := s.checkout.settle(ctx, model.FlowSpace, reference, "Payment for collaborative space booking",
		func(tx *payment.Transaction) string { return tx.Meta("booking_id") })
	if err != nil {
		return nil, err
	}

	receipt := &BookingReceipt{
		BookingID: st.record.TargetID,
		Item:      st.tx.Meta("studio"),
		Amount:    st.record.Amount,
		Reference: st.record.Reference,
		Duplicate: !st.first,
	}
	if !st.first {
		return receipt, nil
	}

	if err := s.spaces.CompleteBooking(ctx, st.record.TargetID); err != nil {
		s.logger.Error("recorded payment could not complete space booking",
			slog.String("reference", st.record.Reference),
			slog.String("booking_id", st.record.TargetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/booking: completing space booking %s: %w", st.record.TargetID, err)
	}
	s.checkout.markApplied(ctx, st)

	b, err := s.spaces.GetBooking(ctx, st.record.TargetID)
	if err != nil {
		s.logger.Warn("booking mails skipped", slog.String("reference", reference), slog.String("error", err.Error()))
		return receipt, nil
	}
	receipt.Item = b.StudioName

	var ownerEmail string
	if sp, err := s.spaces.GetSpace(ctx, b.SpaceID); err == nil {
		ownerEmail = sp.Email
	} else {
		s.logger.Warn("space owner lookup failed", slog.String("space_id", b.SpaceID), slog.String("error", err.Error()))
	}
	s.notifier.SpaceBookingPaid(ownerEmail, b, st.record.Reference)
	return receipt, nil
}

// ListServices returns the advisory services matching search.
func (s *BookingService) ListServices(ctx context.Context, search string) ([]model.AdvisoryService, error) {
	all, err := s.advisory.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/booking: listing services: %w", err)
	}
	out := make([]model.AdvisoryService, 0, len(all))
	for _, svc := range all {
		texts := []string{svc.ID, svc.Title, svc.Description}
		for _, p := range svc.Providers {
			texts = append(texts, p.Name, p.Description)
		}
		if matches(search, texts...) {
			out = append(out, svc)
		}
	}
	return out, nil
}

// openServiceBooking returns the user's newest incomplete, unrejected
// booking of serviceType, or nil.
func (s *BookingService) openServiceBooking(ctx context.Context, userID, serviceType string) (*model.ServiceBooking, error) {
	bookings, err := s.advisory.BookingsByUser(ctx, userID, serviceType)
	if err != nil {
		return nil, fmt.Errorf("service/booking: bookings of %s: %w", userID, err)
	}
	for i := range bookings {
		if !bookings[i].Complete && bookings[i].Decision != model.DecisionRejected {
			return &bookings[i], nil
		}
	}
	return nil, nil
}

// Providers returns one service type with its providers.
func (s *BookingService) Providers(ctx context.Context, serviceType, userID string) (*ProvidersView, error) {
	svc, err := s.advisory.GetService(ctx, serviceType)
	if err != nil {
		return nil, err
	}
	for i := range svc.Providers {
		svc.Providers[i].Price = svc.Providers[i].EffectivePrice()
	}
	b, err := s.openServiceBooking(ctx, userID, serviceType)
	if err != nil {
		return nil, err
	}
	return &ProvidersView{Service: *svc, Booking: b}, nil
}

// RequestService books a provider. An open unapproved booking of the same
// type blocks a new one; an approved one is returned as is so the caller
// can move on to payment.
func (s *BookingService) RequestService(ctx context.Context, userID, email string, in ServiceRequest) (*model.ServiceBooking, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := firstErr(
		required("serviceType", in.ServiceType),
		required("serviceProvider", in.ProviderName),
		required("name", in.Name),
		required("serviceDate", in.Date),
		required("serviceTime", in.Time),
	); err != nil {
		return nil, err
	}

	existing, err := s.openServiceBooking(ctx, userID, in.ServiceType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.ServiceProviderApproval {
			return nil, apperror.ConflictMessage(MsgAwaitingApproval)
		}
		return existing, nil
	}

	svc, err := s.advisory.GetService(ctx, in.ServiceType)
	if err != nil {
		return nil, err
	}
	provider, ok := svc.ProviderByName(in.ProviderName)
	if !ok {
		return nil, apperror.ValidationFailed("serviceProvider", "The selected service provider is invalid.")
	}

	b := &model.ServiceBooking{
		UserID:              userID,
		UserName:            in.Name,
		UserEmail:           email,
		ServiceType:         svc.ID,
		ServiceProviderName: provider.Name,
		Amount:              provider.EffectivePrice(),
		AdditionalInfo:      strings.TrimSpace(in.AdditionalInfo),
		ServiceDate:         in.Date,
		ServiceTime:         in.Time,
		CreatedAt:           s.now().UTC(),
	}
	if err := s.advisory.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("service/booking: creating service booking: %w", err)
	}

	s.notifier.ServiceBookingRequest(provider.Contact, b)
	s.logger.Info("service booking requested",
		slog.String("booking_id", b.ID),
		slog.String("service_type", b.ServiceType),
		slog.String("provider", b.ServiceProviderName),
	)
	return b, nil
}

// ServiceBooking returns a booking for the approval page.
func (s *BookingService) ServiceBooking(ctx context.Context, id string) (*model.ServiceBooking, error) {
	return s.advisory.GetBooking(ctx, id)
}

// DecideServiceBooking records the provider's decision and tells the user.
func (s *BookingService) DecideServiceBooking(ctx context.Context, id string, approve bool) (string, error) {
	b, err := s.advisory.GetBooking(ctx, id)
	if err != nil {
		return "", err
	}
	if b.Complete {
		return "", apperror.ConflictMessage(MsgBookingPaid)
	}
	if err := s.advisory.DecideBooking(ctx, id, approve); err != nil {
		return "", err
	}

	item := b.ServiceType + " with " + b.ServiceProviderName
	s.notifier.BookingStatus(s.userEmail(ctx, b.UserID, b.UserEmail), item, approve)
	s.logger.Info("service booking decided", slog.String("booking_id", id), slog.Bool("approved", approve))
	return decisionMessage(approve), nil
}

// StartServicePayment opens the checkout of an approved service booking.
func (s *BookingService) StartServicePayment(ctx context.Context, userID, email, bookingID string) (*payment.Checkout, error) {
	b, err := s.advisory.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := payable(b.UserID, userID, b.ServiceProviderApproval, b.Complete); err != nil {
		return nil, err
	}

	payer := b.UserEmail
	if payer == "" {
		payer = email
	}
	return s.checkout.start(ctx, model.FlowService, servicePrefix, payer, b.Amount, map[string]any{
		"user_id":      userID,
		"booking_id":   b.ID,
		"service_type": b.ServiceType,
		"provider":     b.ServiceProviderName,
	})
}

// CompleteServicePayment settles the callback of an advisory payment.
func (s *BookingService) CompleteServicePayment(ctx context.Context, reference string) (*BookingReceipt, error) {
	st, err := s.checkout.settle(ctx, model.FlowService, reference, "Payment for advisory service booking",
		func(tx *payment.Transaction) string { return tx.Meta("booking_id") })
	if err != nil {
		return nil, err
	}

	receipt := &BookingReceipt{
		BookingID: st.record.TargetID,
		Item:      st.tx.Meta("service_type"),
		Amount:    st.record.Amount,
		Reference: st.record.Reference,
		Duplicate: !st.first,
	}
	if !st.first {
		return receipt, nil
	}

	if err := s.advisory.CompleteBooking(ctx, st.record.TargetID); err != nil {
		s.logger.Error("recorded payment could not complete service booking",
			slog.String("reference", st.record.Reference),
			slog.String("booking_id", st.record.TargetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/booking: completing service booking %s: %w", st.record.TargetID, err)
	}
	s.checkout.markApplied(ctx, st)

	b, err := s.advisory.GetBooking(ctx, st.record.TargetID)
	if err != nil {
		s.logger.Warn("booking mails skipped", slog.String("reference", reference), slog.String("error", err.Error()))
		return receipt, nil
	}
	receipt.Item = b.ServiceType

	var providerEmail string
	if svc, err := s.advisory.GetService(ctx, b.ServiceType); err == nil {
		if p, ok := svc.ProviderByName(b.ServiceProviderName); ok {
			providerEmail = p.Contact
		}
	}
	s.notifier.ServiceBookingPaid(providerEmail, b, st.record.Reference)
	return receipt, nil
}
