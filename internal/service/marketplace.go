package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/mail"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/pricing"
	"github.com/sakif/venturehub/internal/repository"
	"github.com/sakif/venturehub/internal/storage"
)

const (
	// MinListingCompletion is the business profile completion a user needs
	// before publishing a listing.
	MinListingCompletion = 95.0
	MaxTitleLength       = 255
	MarketplaceLimit     = 100
	investmentPrefix     = "tx_"
	requestDateLayout    = "02-01-2006"
)

// Marketplace messages.
const (
	MsgProfileIncomplete = "Please complete your profile first"
	MsgNeedInvestee      = "Please complete the investee application form"
	MsgNeedInvestor      = "Please complete the investor application form"
	MsgListingExists     = "You have already created a marketplace item"
	MsgListingExpired    = "Your marketplace subscription has expired. Please renew it to continue."
	MsgKYCRequired       = "Your KYC documents must be approved before you can invest."
	MsgPendingApproval   = "Your investment request is still pending approval"
	MsgAlreadyPaid       = "This investment has already been paid."
	MsgOwnListing        = "You cannot invest in your own listing."
	MsgNotOwner          = "Only the listing owner can do this."
)

// ListingInput is the owner-editable part of a listing.
type ListingInput struct {
	Title       string
	Description string
	Industry    string
	CompanyAsk  float64
	Earnings    float64
	Revenue     float64
	// MoreInfo is keyed by model.MoreInfoKeys.
	MoreInfo  map[string]string
	Images    []storage.File
	PitchDeck *storage.File
}

// InvestmentInput is an investor's offer.
type InvestmentInput struct {
	Equity        float64
	ValueAddition string
}

// ListingView is a listing as one user sees it.
type ListingView struct {
	model.Listing
	Valuation     float64                `json:"valuation"`
	MaxEquity     float64                `json:"maxEquity"`
	AverageRating float64                `json:"averageRating"`
	Own           bool                   `json:"own"`
	MyRequest     *model.InvestorRequest `json:"myRequest,omitempty"`
	RequestStatus string                 `json:"requestStatus,omitempty"`
	Interested    bool                   `json:"interested"`
	Disinterested bool                   `json:"disinterested"`
	Reviewed      bool                   `json:"reviewed"`
}

// InvestmentReceipt is what the payment callback reports.
type InvestmentReceipt struct {
	ListingID string  `json:"listingId"`
	Title     string  `json:"title"`
	Amount    float64 `json:"amount"`
	Equity    float64 `json:"equity"`
	Reference string  `json:"reference"`
	Duplicate bool    `json:"duplicate"`
}

// MarketplaceService runs listings and the investment workflow:
// request, owner approval, payment.
type MarketplaceService struct {
	listings repository.ListingRepository
	apps     repository.ApplicationRepository
	kyc      repository.KYCRepository
	profiles repository.ProfileRepository
	subs     repository.SubscriptionRepository
	store    storage.Store
	emails   EmailLookup
	checkout *Checkout
	notifier *mail.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewMarketplaceService(
	listings repository.ListingRepository,
	apps repository.ApplicationRepository,
	kyc repository.KYCRepository,
	profiles repository.ProfileRepository,
	subs repository.SubscriptionRepository,
	store storage.Store,
	emails EmailLookup,
	checkout *Checkout,
	notifier *mail.Notifier,
	logger *slog.Logger,
) *MarketplaceService {
	return &MarketplaceService{
		listings: listings,
		apps:     apps,
		kyc:      kyc,
		profiles: profiles,
		subs:     subs,
		store:    store,
		emails:   emails,
		checkout: checkout,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// CanCreateListing returns nil when userID may publish a listing.
func (s *MarketplaceService) CanCreateListing(ctx context.Context, userID string) error {
	p, err := s.profiles.Get(ctx, userID)
	switch {
	case isNotFound(err):
		return apperror.Forbidden(MsgProfileIncomplete)
	case err != nil:
		return fmt.Errorf("service/marketplace: profile %s: %w", userID, err)
	case p.Completion < MinListingCompletion:
		return apperror.Forbidden(MsgProfileIncomplete)
	}

	if _, err := s.apps.GetInvestee(ctx, userID); err != nil {
		if isNotFound(err) {
			return apperror.Forbidden(MsgNeedInvestee)
		}
		return fmt.Errorf("service/marketplace: investee %s: %w", userID, err)
	}

	if _, err := s.listings.Get(ctx, userID); err == nil {
		return apperror.ConflictMessage(MsgListingExists)
	} else if !isNotFound(err) {
		return fmt.Errorf("service/marketplace: listing %s: %w", userID, err)
	}

	sub, err := s.subs.Get(ctx, userID)
	switch {
	case err == nil && sub.Plan == model.PlanListing && !sub.ExpiryDate.IsZero() && sub.ExpiryDate.Before(s.now()):
		return apperror.PaymentRequired(MsgListingExpired)
	case err != nil && !isNotFound(err):
		return fmt.Errorf("service/marketplace: subscription %s: %w", userID, err)
	}
	return nil
}

func validateListing(in *ListingInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := firstErr(required("title", in.Title), required("description", in.Description)); err != nil {
		return err
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("The title field must not be greater than %d characters.", MaxTitleLength))
	}
	for field, v := range map[string]float64{"companyAsk": in.CompanyAsk, "earnings": in.Earnings, "revenue": in.Revenue} {
		if v < 0 {
			return apperror.ValidationFailed(field, fmt.Sprintf("The %s field must be at least 0.", field))
		}
	}
	for k := range in.MoreInfo {
		if !slices.Contains(model.MoreInfoKeys, k) {
			return apperror.ValidationFailed("moreInfo", fmt.Sprintf("Unknown section %q.", k))
		}
	}
	if err := validURL("website", in.MoreInfo["Website"]); err != nil {
		return err
	}
	for _, img := range in.Images {
		if err := img.Check(storage.MaxListingImage, storage.ImageExts); err != nil {
			return err
		}
	}
	if in.PitchDeck != nil && in.PitchDeck.Header != nil {
		if err := in.PitchDeck.Check(storage.MaxPitchDeck, storage.PDFExts); err != nil {
			return err
		}
	}
	return nil
}

// uploadListingFiles stores images and the pitch deck and returns their URLs.
func (s *MarketplaceService) uploadListingFiles(ctx context.Context, userID string, in *ListingInput, now time.Time) ([]string, string, error) {
	urls := make([]string, 0, len(in.Images))
	for i, img := range in.Images {
		url, err := storage.Put(ctx, s.store, img, storage.ListingImageKey(userID, now, i, img.Ext()))
		if err != nil {
			return nil, "", apperror.Upstream("Failed to upload images. Please try again.", err)
		}
		urls = append(urls, url)
	}
	var deck string
	if in.PitchDeck != nil && in.PitchDeck.Header != nil {
		url, err := storage.Put(ctx, s.store, *in.PitchDeck, storage.PitchDeckKey(userID, now))
		if err != nil {
			return nil, "", apperror.Upstream("Failed to upload the pitch deck. Please try again.", err)
		}
		deck = url
	}
	return urls, deck, nil
}

func cleanMoreInfo(in map[string]string) map[string]string {
	out := make(map[string]string, len(model.MoreInfoKeys))
	for _, k := range model.MoreInfoKeys {
		out[k] = strings.TrimSpace(in[k])
	}
	return out
}

// CreateListing publishes the listing of userID. It starts unverified with
// a one-month subscription.
func (s *MarketplaceService) CreateListing(ctx context.Context, userID string, in ListingInput) (*model.Listing, error) {
	if err := s.CanCreateListing(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateListing(&in); err != nil {
		return nil, err
	}

	investee, err := s.apps.GetInvestee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/marketplace: investee %s: %w", userID, err)
	}

	now := s.now().UTC()
	images, deck, err := s.uploadListingFiles(ctx, userID, &in, now)
	if err != nil {
		return nil, err
	}

	l := &model.Listing{
		ID:                 userID,
		Creator:            userID,
		CreatorName:        investee.FullName(),
		CreatorEmail:       investee.Email,
		Title:              in.Title,
		Description:        in.Description,
		Industry:           in.Industry,
		CompanyAsk:         in.CompanyAsk,
		Earnings:           in.Earnings,
		Revenue:            in.Revenue,
		ImageURLs:          images,
		PitchDeck:          deck,
		MoreInfo:           cleanMoreInfo(in.MoreInfo),
		SubscriptionExpiry: subscriptionPeriod(now),
		Verified:           false,
		CreatedAt:          now,
	}
	if l.Industry == "" {
		l.Industry = investee.Industry
	}
	if err := s.listings.Create(ctx, l); err != nil {
		if isConflict(err) {
			return nil, apperror.ConflictMessage(MsgListingExists)
		}
		return nil, fmt.Errorf("service/marketplace: creating listing %s: %w", userID, err)
	}

	s.notifier.ListingCreated(l)
	s.logger.Info("listing created", slog.String("listing_id", l.ID), slog.String("title", l.Title))
	return l, nil
}

// UpdateListing edits the owner's listing. New uploads replace the old ones;
// without uploads the stored files stay.
func (s *MarketplaceService) UpdateListing(ctx context.Context, userID, listingID string, in ListingInput) (*model.Listing, error) {
	l, err := s.ownedListing(ctx, userID, listingID)
	if err != nil {
		return nil, err
	}
	if err := validateListing(&in); err != nil {
		return nil, err
	}

	images, deck, err := s.uploadListingFiles(ctx, userID, &in, s.now().UTC())
	if err != nil {
		return nil, err
	}

	l.Title, l.Description, l.CompanyAsk = in.Title, in.Description, in.CompanyAsk
	l.Earnings, l.Revenue = in.Earnings, in.Revenue
	if in.Industry != "" {
		l.Industry = in.Industry
	}
	l.MoreInfo = cleanMoreInfo(in.MoreInfo)
	if len(images) > 0 {
		l.ImageURLs = images
	}
	if deck != "" {
		l.PitchDeck = deck
	}

	if err := s.listings.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("service/marketplace: updating listing %s: %w", listingID, err)
	}
	s.logger.Info("listing updated", slog.String("listing_id", l.ID))
	return l, nil
}

func (s *MarketplaceService) ownedListing(ctx context.Context, userID, listingID string) (*model.Listing, error) {
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Creator != userID {
		return nil, apperror.Forbidden(MsgNotOwner)
	}
	return l, nil
}

// view derives the per-user fields. Other investors' requests are only
// shown to the owner.
func (s *MarketplaceService) view(l model.Listing, userID string) ListingView {
	valuation := pricing.Valuation(l.Earnings)
	v := ListingView{
		Listing:       l,
		Valuation:     valuation,
		MaxEquity:     pricing.MaxEquity(l.CompanyAsk, valuation),
		AverageRating: l.AverageRating(),
		Own:           l.Creator == userID,
		Interested:    slices.Contains(l.ShowedInterestUsers, userID),
		Disinterested: slices.Contains(l.ShowedDisinterestUsers, userID),
		Reviewed:      l.ReviewBy(userID) != nil,
	}
	if r := l.RequestBy(userID); r != nil {
		req := *r
		v.MyRequest = &req
		v.RequestStatus = req.Status()
	}
	if !v.Own {
		v.Investors = nil
	}
	return v
}

// ListListings returns the verified listings userID can browse, their own
// first. Listings with a lapsed subscription are hidden from everybody but
// the owner, as are listings userID already paid into.
func (s *MarketplaceService) ListListings(ctx context.Context, userID, search string) ([]ListingView, error) {
	all, err := s.listings.ListVerified(ctx, MarketplaceLimit)
	if err != nil {
		return nil, fmt.Errorf("service/marketplace: listing verified: %w", err)
	}

	now := s.now()
	out := make([]ListingView, 0, len(all))
	for _, l := range all {
		own := l.Creator == userID
		if !own && !l.SubscriptionActive(now) {
			continue
		}
		if r := l.RequestBy(userID); r != nil && r.InvestmentComplete {
			continue
		}
		texts := []string{l.Title, l.Description, l.Industry}
		for _, v := range l.MoreInfo {
			texts = append(texts, v)
		}
		if !matches(search, texts...) {
			continue
		}
		out = append(out, s.view(l, userID))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Own && !out[j].Own })
	return out, nil
}

// GetListing returns one listing. An unverified listing only exists for
// its owner.
func (s *MarketplaceService) GetListing(ctx context.Context, userID, listingID string) (*ListingView, error) {
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !l.Verified && l.Creator != userID {
		return nil, apperror.NotFound("listing", listingID)
	}
	v := s.view(*l, userID)
	return &v, nil
}

func (s *MarketplaceService) requireApprovedKYC(ctx context.Context, userID string) error {
	k, err := s.kyc.Get(ctx, userID)
	switch {
	case isNotFound(err):
		return apperror.Forbidden(MsgKYCRequired)
	case err != nil:
		return fmt.Errorf("service/marketplace: kyc %s: %w", userID, err)
	case !k.Approved:
		return apperror.Forbidden(MsgKYCRequired)
	}
	return nil
}

func (s *MarketplaceService) investorApplication(ctx context.Context, userID string) (*model.InvestorApplication, error) {
	app, err := s.apps.GetInvestor(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Forbidden(MsgNeedInvestor)
		}
		return nil, fmt.Errorf("service/marketplace: investor %s: %w", userID, err)
	}
	return app, nil
}

// RequestInvestment records an offer by userID on a listing. The amount is
// derived from the equity at the listing's valuation.
func (s *MarketplaceService) RequestInvestment(ctx context.Context, userID, email, listingID string, in InvestmentInput) (*model.InvestorRequest, error) {
	if err := s.requireApprovedKYC(ctx, userID); err != nil {
		return nil, err
	}
	app, err := s.investorApplication(ctx, userID)
	if err != nil {
		return nil, err
	}

	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.Creator == userID {
		return nil, apperror.Forbidden(MsgOwnListing)
	}
	if !l.Verified || !l.SubscriptionActive(s.now()) {
		return nil, apperror.NotFound("listing", listingID)
	}

	if err := required("valueAddition", in.ValueAddition); err != nil {
		return nil, err
	}
	valuation := pricing.Valuation(l.Earnings)
	maxEquity := pricing.MaxEquity(l.CompanyAsk, valuation)
	if in.Equity < 0 || in.Equity > maxEquity {
		return nil, apperror.ValidationFailed("equityPercentage",
			fmt.Sprintf("The equity must be between 0 and %.2f.", maxEquity))
	}

	investorEmail := app.Email
	if investorEmail == "" {
		investorEmail = email
	}
	req := model.InvestorRequest{
		InvestorID:       userID,
		InvestorName:     app.FullName(),
		InvestorEmail:    investorEmail,
		CompanyName:      app.Company,
		Country:          app.Country,
		Age:              app.Age,
		Equity:           in.Equity,
		InvestmentAmount: pricing.AmountForEquity(in.Equity, valuation, l.CompanyAsk),
		ExtraOfferings:   strings.TrimSpace(in.ValueAddition),
		Date:             s.now().Format(requestDateLayout),
	}
	if err := s.listings.AddInvestor(ctx, listingID, req); err != nil {
		return nil, err
	}

	s.notifier.InvestmentRequest(s.ownerEmail(ctx, l), l, &req)
	s.logger.Info("investment requested",
		slog.String("listing_id", listingID),
		slog.String("investor_id", userID),
		slog.Float64("equity", req.Equity),
	)
	return &req, nil
}

// ownerEmail prefers the listing's creator email and falls back to the
// identity provider.
func (s *MarketplaceService) ownerEmail(ctx context.Context, l *model.Listing) string {
	if l.CreatorEmail != "" {
		return l.CreatorEmail
	}
	email, err := s.emails.LookupEmail(ctx, l.Creator)
	if err != nil {
		s.logger.Warn("owner email lookup failed",
			slog.String("listing_id", l.ID),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return email
}

// ApproveInvestment is the owner accepting a pending request.
func (s *MarketplaceService) ApproveInvestment(ctx context.Context, ownerID, listingID, investorID string) error {
	l, err := s.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return err
	}
	req := l.RequestBy(investorID)
	if req == nil {
		return apperror.NotFound("investment request", investorID)
	}
	if err := s.listings.SetInvestorApproved(ctx, listingID, investorID); err != nil {
		return err
	}

	req.Approved = true
	s.notifier.InvestmentApproved(s.ownerEmail(ctx, l), l, req)
	s.logger.Info("investment approved",
		slog.String("listing_id", listingID),
		slog.String("investor_id", investorID),
	)
	return nil
}

// RejectInvestment is the owner declining a request; it is removed.
func (s *MarketplaceService) RejectInvestment(ctx context.Context, ownerID, listingID, investorID string) error {
	l, err := s.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return err
	}
	req := l.RequestBy(investorID)
	if req == nil {
		return apperror.NotFound("investment request", investorID)
	}
	if req.InvestmentComplete {
		return apperror.ConflictMessage(MsgAlreadyPaid)
	}
	if err := s.listings.RemoveInvestor(ctx, listingID, investorID); err != nil {
		return err
	}

	s.notifier.InvestmentRejected(l, req)
	s.logger.Info("investment rejected",
		slog.String("listing_id", listingID),
		slog.String("investor_id", investorID),
	)
	return nil
}

// StartInvestmentPayment opens the gateway checkout for an approved request.
func (s *MarketplaceService) StartInvestmentPayment(ctx context.Context, userID, email, listingID string) (*payment.Checkout, error) {
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	req := l.RequestBy(userID)
	switch {
	case req == nil:
		return nil, apperror.NotFound("investment request", userID)
	case req.InvestmentComplete:
		return nil, apperror.ConflictMessage(MsgAlreadyPaid)
	case !req.Approved:
		return nil, apperror.Forbidden(MsgPendingApproval)
	}

	payer := req.InvestorEmail
	if payer == "" {
		payer = email
	}
	return s.checkout.start(ctx, model.FlowMarketplace, investmentPrefix, payer, req.InvestmentAmount, map[string]any{
		"user_id":       userID,
		"listing_id":    l.ID,
		"title":         l.Title,
		"creator":       l.CreatorName,
		"creator_email": l.CreatorEmail,
		"equity":        req.Equity,
		"customizations": map[string]string{
			"title":       "Investment Payment",
			"description": "Payment for investment in marketplace item",
		},
	})
}

// CompleteInvestmentPayment settles the callback of an investment payment.
func (s *MarketplaceService) CompleteInvestmentPayment(ctx context.Context, reference string) (*InvestmentReceipt, error) {
	st, err := s.checkout.settle(ctx, model.FlowMarketplace, reference, "Payment for investment in marketplace item",
		func(tx *payment.Transaction) string { return tx.Meta("listing_id") })
	if err != nil {
		return nil, err
	}

	rec := st.record
	receipt := &InvestmentReceipt{
		ListingID: rec.TargetID,
		Title:     st.tx.Meta("title"),
		Amount:    rec.Amount,
		Equity:    st.tx.MetaFloat("equity"),
		Reference: rec.Reference,
		Duplicate: !st.first,
	}
	if !st.first {
		return receipt, nil
	}
	if rec.UserID == "" || rec.TargetID == "" {
		return nil, apperror.ValidationFailed("reference", "The payment carries no listing.")
	}

	// The amount is added with $inc, so a resumed payment whose change
	// already landed must not run it twice.
	if !st.resumed || !s.investmentComplete(ctx, rec.TargetID, rec.UserID) {
		if err := s.listings.CompleteInvestment(ctx, rec.TargetID, rec.UserID, rec.Amount); err != nil {
			s.logger.Error("recorded payment could not complete investment",
				slog.String("reference", rec.Reference),
				slog.String("listing_id", rec.TargetID),
				slog.String("investor_id", rec.UserID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("service/marketplace: completing investment %s: %w", rec.Reference, err)
		}
	}
	s.checkout.markApplied(ctx, st)

	l, err := s.listings.Get(ctx, rec.TargetID)
	if err != nil {
		s.logger.Warn("payment mails skipped",
			slog.String("reference", rec.Reference),
			slog.String("error", err.Error()),
		)
		return receipt, nil
	}
	receipt.Title = l.Title

	investorEmail := rec.CustomerEmail
	if r := l.RequestBy(rec.UserID); r != nil && r.InvestorEmail != "" {
		investorEmail = r.InvestorEmail
	}
	s.notifier.MarketplacePayment(investorEmail, s.ownerEmail(ctx, l), l, rec, receipt.Equity)
	return receipt, nil
}

func (s *MarketplaceService) investmentComplete(ctx context.Context, listingID, investorID string) bool {
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return false
	}
	r := l.RequestBy(investorID)
	return r != nil && r.InvestmentComplete
}

// ToggleInterest flips the caller's interested (or disinterested) mark on
// a listing; the two marks exclude each other. Clicking a set mark clears
// it. It reports whether the clicked mark is set afterwards.
func (s *MarketplaceService) ToggleInterest(ctx context.Context, userID, listingID string, interested bool) (bool, error) {
	if _, err := s.investorApplication(ctx, userID); err != nil {
		return false, err
	}
	return s.listings.ToggleInterest(ctx, listingID, userID, interested)
}

// AddReview adds the one review userID may write on a listing.
func (s *MarketplaceService) AddReview(ctx context.Context, userID, email, listingID string, rating int, text string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.ValidationFailed("rating", "The rating must be between 1 and 5.")
	}
	if err := required("reviewText", text); err != nil {
		return nil, err
	}

	reviewer := email
	if app, err := s.apps.GetInvestor(ctx, userID); err == nil && app.FullName() != "" {
		reviewer = app.FullName()
	}
	r := model.Review{
		ReviewerID: userID,
		Reviewer:   reviewer,
		Rating:     rating,
		ReviewText: strings.TrimSpace(text),
		Date:       s.now().UTC(),
	}
	if err := s.listings.AddReview(ctx, listingID, r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Wishlist lists the listings userID requested and has not paid yet.
func (s *MarketplaceService) Wishlist(ctx context.Context, userID string) ([]ListingView, error) {
	return s.withInvestor(ctx, userID, func(l *model.Listing, r *model.InvestorRequest) bool {
		return !r.InvestmentComplete
	})
}

// Portfolio lists the verified listings userID has paid into.
func (s *MarketplaceService) Portfolio(ctx context.Context, userID string) ([]ListingView, error) {
	return s.withInvestor(ctx, userID, func(l *model.Listing, r *model.InvestorRequest) bool {
		return l.Verified && r.InvestmentComplete
	})
}

func (s *MarketplaceService) withInvestor(ctx context.Context, userID string, keep func(*model.Listing, *model.InvestorRequest) bool) ([]ListingView, error) {
	all, err := s.listings.ListWithInvestor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/marketplace: listings of %s: %w", userID, err)
	}
	out := make([]ListingView, 0, len(all))
	for i := range all {
		if r := all[i].RequestBy(userID); r != nil && keep(&all[i], r) {
			out = append(out, s.view(all[i], userID))
		}
	}
	return out, nil
}

// Investors returns the owner's listing with every request on it.
func (s *MarketplaceService) Investors(ctx context.Context, ownerID string) (*model.Listing, error) {
	return s.listings.Get(ctx, ownerID)
}

// VerifyListing is an operator action that publishes or hides a listing.
func (s *MarketplaceService) VerifyListing(ctx context.Context, listingID string, verified bool) error {
	if err := s.listings.SetVerified(ctx, listingID, verified); err != nil {
		return fmt.Errorf("service/marketplace: verifying %s: %w", listingID, err)
	}
	s.logger.Info("listing reviewed", slog.String("listing_id", listingID), slog.Bool("verified", verified))
	return nil
}
