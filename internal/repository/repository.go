// Package repository declares the storage contracts used by the services.
//
// Lookups of a missing document return an error wrapping
// apperror.ErrNotFound; writes that would duplicate a unique key return one
// wrapping apperror.ErrConflict.
package repository

import (
	"context"
	"time"

	"github.com/sakif/venturehub/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type UserRepository interface {
	Get(ctx context.Context, id string) (*model.User, error)
	// Upsert creates the user or refreshes email, provider and last login,
	// keeping createdAt and welcomeEmailSent. It returns the stored document.
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
	MarkWelcomeSent(ctx context.Context, id string) error
}

type ApplicationRepository interface {
	GetInvestor(ctx context.Context, userID string) (*model.InvestorApplication, error)
	SaveInvestor(ctx context.Context, app *model.InvestorApplication) error
	ListInvestors(ctx context.Context) ([]model.InvestorApplication, error)
	SetInvestorExpiry(ctx context.Context, userID string, expiry time.Time) error
	SetInvestorApproved(ctx context.Context, userID string, approved bool) error

	GetInvestee(ctx context.Context, userID string) (*model.InvesteeApplication, error)
	SaveInvestee(ctx context.Context, app *model.InvesteeApplication) error
	SetInvesteeApproved(ctx context.Context, userID string, approved bool) error
}

type KYCRepository interface {
	Get(ctx context.Context, userID string) (*model.KYC, error)
	Save(ctx context.Context, kyc *model.KYC) error
	SetApproved(ctx context.Context, userID string, approved bool) error
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Save(ctx context.Context, profile *model.Profile) error
}

// ListingRepository stores the Marketplace collection. Array mutations on a
// listing are single atomic updates.
type ListingRepository interface {
	Get(ctx context.Context, id string) (*model.Listing, error)
	Create(ctx context.Context, listing *model.Listing) error
	// Update replaces the owner-editable fields.
	Update(ctx context.Context, listing *model.Listing) error
	ListVerified(ctx context.Context, limit int) ([]model.Listing, error)
	ListWithInvestor(ctx context.Context, investorID string) ([]model.Listing, error)

	// AddInvestor returns ErrConflict when the investor already has a request.
	AddInvestor(ctx context.Context, listingID string, req model.InvestorRequest) error
	// SetInvestorApproved only touches a pending request; ErrNotFound otherwise.
	SetInvestorApproved(ctx context.Context, listingID, investorID string) error
	RemoveInvestor(ctx context.Context, listingID, investorID string) error
	// CompleteInvestment marks an approved request paid and adds amount to
	// the listing totals. ErrNotFound when no approved, unpaid request exists.
	CompleteInvestment(ctx context.Context, listingID, investorID string, amount float64) error

	// ToggleInterest flips userID in the interested (or disinterested)
	// list and drops them from the other one. It reports whether the user
	// is in the clicked list afterwards.
	ToggleInterest(ctx context.Context, listingID, userID string, interested bool) (bool, error)
	// AddReview returns ErrConflict when the reviewer already reviewed.
	AddReview(ctx context.Context, listingID string, review model.Review) error
	UpdateSubscriptionExpiry(ctx context.Context, id string, expiry time.Time) error
	SetVerified(ctx context.Context, id string, verified bool) error
}

type SpaceRepository interface {
	GetSpace(ctx context.Context, id string) (*model.CollaborativeSpace, error)
	ListSpaces(ctx context.Context) ([]model.CollaborativeSpace, error)

	CreateBooking(ctx context.Context, booking *model.SpaceBooking) error
	GetBooking(ctx context.Context, id string) (*model.SpaceBooking, error)
	BookingsByUser(ctx context.Context, userID string) ([]model.SpaceBooking, error)
	DecideBooking(ctx context.Context, id string, approve bool) error
	CompleteBooking(ctx context.Context, id string) error
}

type AdvisoryRepository interface {
	GetService(ctx context.Context, id string) (*model.AdvisoryService, error)
	ListServices(ctx context.Context) ([]model.AdvisoryService, error)

	CreateBooking(ctx context.Context, booking *model.ServiceBooking) error
	GetBooking(ctx context.Context, id string) (*model.ServiceBooking, error)
	BookingsByUser(ctx context.Context, userID, serviceType string) ([]model.ServiceBooking, error)
	DecideBooking(ctx context.Context, id string, approve bool) error
	CompleteBooking(ctx context.Context, id string) error
}

type PaymentRepository interface {
	// Record stores rec keyed by its reference. A second call with the same
	// reference returns ErrConflict; the stored record's Applied flag then
	// tells whether the payment was fully processed.
	Record(ctx context.Context, rec *model.PaymentRecord) error
	Get(ctx context.Context, reference string) (*model.PaymentRecord, error)
	MarkApplied(ctx context.Context, reference string) error
}

type SubscriptionRepository interface {
	Get(ctx context.Context, userID string) (*model.Subscription, error)
	SetExpiry(ctx context.Context, userID, plan string, expiry time.Time) error
}

type JobRepository interface {
	Create(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, opts ListOptions) ([]model.Job, error)
	Update(ctx context.Context, job *model.Job) error
	Delete(ctx context.Context, id string) error
}

// ReminderLedger remembers which expiry reminders went out on which day.
type ReminderLedger interface {
	// MarkSent records a reminder for userID on day and reports whether it
	// is the first one that day.
	MarkSent(ctx context.Context, userID string, day time.Time) (bool, error)
	// Forget drops the entry for userID on day, for a reminder that was
	// claimed but never queued.
	Forget(ctx context.Context, userID string, day time.Time) error
	// Purge drops entries older than before and returns how many it removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}
