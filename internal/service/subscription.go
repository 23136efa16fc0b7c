package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/mail"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/pricing"
	"github.com/sakif/venturehub/internal/repository"
)

// DefaultReminderLeadDays is how close to expiry reminders start.
const DefaultReminderLeadDays = 5

const (
	MsgRenewed       = "Subscription renewed successfully."
	MsgRenewalFailed = "Payment failed. Please try again."
	renewalPrefix    = "renew_subscription_"
)

// SubscriptionConfig prices the renewal plans.
type SubscriptionConfig struct {
	InvestorPrice float64
	ListingPrice  float64
	LeadDays      int
}

// SubscriptionService reminds investors before their subscription runs out
// and renews investor and listing subscriptions through the gateway.
type SubscriptionService struct {
	apps     repository.ApplicationRepository
	listings repository.ListingRepository
	subs     repository.SubscriptionRepository
	ledger   repository.ReminderLedger
	checkout *Checkout
	notifier *mail.Notifier
	cfg      SubscriptionConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewSubscriptionService(
	apps repository.ApplicationRepository,
	listings repository.ListingRepository,
	subs repository.SubscriptionRepository,
	ledger repository.ReminderLedger,
	checkout *Checkout,
	notifier *mail.Notifier,
	cfg SubscriptionConfig,
	logger *slog.Logger,
) *SubscriptionService {
	if cfg.LeadDays <= 0 {
		cfg.LeadDays = DefaultReminderLeadDays
	}
	return &SubscriptionService{
		apps:     apps,
		listings: listings,
		subs:     subs,
		ledger:   ledger,
		checkout: checkout,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

var _ ExpiryChecker = (*SubscriptionService)(nil)

// CheckExpiry sends the expiry reminder for userID if it is due. It never
// fails the caller; problems are logged.
func (s *SubscriptionService) CheckExpiry(ctx context.Context, userID, email string) {
	app, err := s.apps.GetInvestor(ctx, userID)
	if err != nil {
		if !isNotFound(err) {
			s.logger.Warn("subscription check failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	if email == "" {
		email = app.Email
	}
	if _, err := s.remind(ctx, app, email); err != nil {
		s.logger.Warn("subscription reminder failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// remind reports whether a reminder went out.
func (s *SubscriptionService) remind(ctx context.Context, app *model.InvestorApplication, email string) (bool, error) {
	if app.SubscriptionExpiry.IsZero() || email == "" {
		return false, nil
	}
	now := s.now()
	days := pricing.DaysLeft(now, app.SubscriptionExpiry)
	if days >= s.cfg.LeadDays {
		return false, nil
	}

	first, err := s.ledger.MarkSent(ctx, app.UserID, now)
	if err != nil {
		return false, fmt.Errorf("service/subscription: ledger: %w", err)
	}
	if !first {
		s.logger.Debug("reminder already sent today", slog.String("user_id", app.UserID))
		return false, nil
	}

	name := app.FullName()
	if name == "" {
		name = "User"
	}
	if !s.notifier.SubscriptionReminder(email, name, days) {
		// Release the day so the next login or sweep tries again.
		if err := s.ledger.Forget(ctx, app.UserID, now); err != nil {
			s.logger.Warn("could not release reminder after a full mail queue",
				slog.String("user_id", app.UserID),
				slog.String("error", err.Error()),
			)
		}
		return false, nil
	}
	s.logger.Info("subscription reminder queued",
		slog.String("user_id", app.UserID),
		slog.Int("days_left", days),
	)
	return true, nil
}

// SweepExpiring checks every investor and returns how many reminders were
// queued.
func (s *SubscriptionService) SweepExpiring(ctx context.Context) (int, error) {
	apps, err := s.apps.ListInvestors(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/subscription: listing investors: %w", err)
	}

	sent := 0
	for i := range apps {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		ok, err := s.remind(ctx, &apps[i], apps[i].Email)
		if err != nil {
			s.logger.Warn("sweep: reminder failed",
				slog.String("user_id", apps[i].UserID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			sent++
		}
	}
	s.logger.Info("subscription sweep finished",
		slog.Int("investors", len(apps)),
		slog.Int("reminders", sent),
	)
	return sent, nil
}

// SubscriptionStatus summarizes both subscriptions of a user.
type SubscriptionStatus struct {
	InvestorExpiry *time.Time `json:"investorExpiry,omitempty"`
	InvestorDays   *int       `json:"investorDaysLeft,omitempty"`
	ListingExpiry  *time.Time `json:"listingExpiry,omitempty"`
	ListingDays    *int       `json:"listingDaysLeft,omitempty"`
	InvestorPrice  float64    `json:"investorPrice"`
	ListingPrice   float64    `json:"listingPrice"`
}

// Status returns the expiry dates the dashboard shows.
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	now := s.now()
	st := &SubscriptionStatus{InvestorPrice: s.cfg.InvestorPrice, ListingPrice: s.cfg.ListingPrice}

	app, err := s.apps.GetInvestor(ctx, userID)
	switch {
	case err == nil && !app.SubscriptionExpiry.IsZero():
		exp := app.SubscriptionExpiry
		days := pricing.DaysLeft(now, exp)
		st.InvestorExpiry, st.InvestorDays = &exp, &days
	case err != nil && !isNotFound(err):
		return nil, fmt.Errorf("service/subscription: investor %s: %w", userID, err)
	}

	l, err := s.listings.Get(ctx, userID)
	switch {
	case err == nil && !l.SubscriptionExpiry.IsZero():
		exp := l.SubscriptionExpiry
		days := pricing.DaysLeft(now, exp)
		st.ListingExpiry, st.ListingDays = &exp, &days
	case err != nil && !isNotFound(err):
		return nil, fmt.Errorf("service/subscription: listing %s: %w", userID, err)
	}
	return st, nil
}

func (s *SubscriptionService) price(plan string) (float64, error) {
	switch plan {
	case model.PlanInvestor:
		return s.cfg.InvestorPrice, nil
	case model.PlanListing:
		return s.cfg.ListingPrice, nil
	default:
		return 0, apperror.ValidationFailed("plan", fmt.Sprintf("Unknown subscription plan %q.", plan))
	}
}

// StartRenewal opens a renewal payment for plan.
func (s *SubscriptionService) StartRenewal(ctx context.Context, userID, email, plan string) (*payment.Checkout, error) {
	amount, err := s.price(plan)
	if err != nil {
		return nil, err
	}

	switch plan {
	case model.PlanInvestor:
		if _, err := s.apps.GetInvestor(ctx, userID); err != nil {
			if isNotFound(err) {
				return nil, apperror.ValidationFailed("plan", "Submit an investor application before renewing.")
			}
			return nil, fmt.Errorf("service/subscription: investor %s: %w", userID, err)
		}
	case model.PlanListing:
		if _, err := s.listings.Get(ctx, userID); err != nil {
			if isNotFound(err) {
				return nil, apperror.ValidationFailed("plan", "You have no listing to renew.")
			}
			return nil, fmt.Errorf("service/subscription: listing %s: %w", userID, err)
		}
	}

	return s.checkout.start(ctx, model.FlowSubscription, renewalPrefix, email, amount, map[string]any{
		"user_id": userID,
		"plan":    plan,
		"customizations": map[string]string{
			"title":       "Renew Subscription",
			"description": "Payment for renewing subscription",
		},
	})
}

// RenewalResult tells the callback page what happened.
type RenewalResult struct {
	Plan      string    `json:"plan"`
	Expiry    time.Time `json:"expiry"`
	Duplicate bool      `json:"duplicate"`
}

// CompleteRenewal verifies a renewal payment and pushes the plan's expiry a
// month from now.
func (s *SubscriptionService) CompleteRenewal(ctx context.Context, reference string) (*RenewalResult, error) {
	st, err := s.checkout.settle(ctx, model.FlowSubscription, reference, "Subscription renewal",
		func(tx *payment.Transaction) string { return tx.Meta("plan") })
	if err != nil {
		return nil, err
	}

	plan := st.record.TargetID
	if plan == "" {
		plan = model.PlanListing
	}
	res := &RenewalResult{Plan: plan, Duplicate: !st.first}
	if !st.first {
		return res, nil
	}

	uid := st.record.UserID
	if uid == "" {
		return nil, apperror.ValidationFailed("reference", "The payment carries no user.")
	}

	expiry := subscriptionPeriod(s.now()).UTC()
	res.Expiry = expiry
	if err := s.subs.SetExpiry(ctx, uid, plan, expiry); err != nil {
		return nil, fmt.Errorf("service/subscription: subscription %s: %w", uid, err)
	}

	switch plan {
	case model.PlanInvestor:
		err = s.apps.SetInvestorExpiry(ctx, uid, expiry)
	case model.PlanListing:
		err = s.listings.UpdateSubscriptionExpiry(ctx, uid, expiry)
	}
	if err != nil {
		return nil, fmt.Errorf("service/subscription: %s expiry for %s: %w", plan, uid, err)
	}
	s.checkout.markApplied(ctx, st)

	s.logger.Info("subscription renewed",
		slog.String("user_id", uid),
		slog.String("plan", plan),
		slog.Time("expiry", expiry),
	)
	return res, nil
}
