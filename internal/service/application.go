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
	"github.com/sakif/venturehub/internal/pricing"
	"github.com/sakif/venturehub/internal/repository"
	"github.com/sakif/venturehub/internal/storage"
)

// BusinessVerifiedAbove is the profile completion past which a business
// counts as verified.
const BusinessVerifiedAbove = 70.0

// Industry and field codes sent by the investor form, mapped to the labels
// stored on the application.
var (
	industryLabels = map[string]string{
		"agriTech":               "Agri-Tech",
		"aiMl":                   "AI/ML",
		"arVr":                   "Augmented Reality/Virtual Reality",
		"blockchain":             "Blockchain",
		"crypto":                 "Crypto",
		"developerTools":         "Developer Tools",
		"biotech":                "Biotech",
		"deepTech":               "DeepTech",
		"d2cBrands":              "Direct-To-Consumer-Brands",
		"eCommerce":              "E-commerce",
		"education":              "Education",
		"energy":                 "Energy",
		"enterpriseTech":         "Enterprise and Tech",
		"fintech":                "Fintech/Financial Services",
		"gamingEntertainment":    "Gaming/Entertainment",
		"government":             "Government",
		"hardware":               "Hardware",
		"healthMedTech":          "Health/MedTech/Healthcare",
		"lifeScience":            "Life Science",
		"marketplace":            "Marketplace",
		"mediaSocialMedia":       "Media/Social Media",
		"mobilityTransportation": "Mobility/Transportation",
		"other":                  "Other",
	}
	fieldLabels = map[string]string{
		"entrepreneur":            "Entrepreneur",
		"investor":                "Investor",
		"epso":                    "Entrepreneurial Support Organization",
		"developmentProfessional": "Development Professional",
		"government":              "Government",
		"potentialInvestor":       "Potential Investor",
		"noneOfTheAbove":          "None of the above",
	}
)

func label(labels map[string]string, code string) string {
	if l, ok := labels[code]; ok {
		return l
	}
	return code
}

// InvestorFiles are the optional investor application uploads.
type InvestorFiles struct {
	SourceOfFunds    *storage.File
	ProofOfResidence *storage.File
}

// KYCFiles are both required KYC photos.
type KYCFiles struct {
	IDPhoto      *storage.File
	ProfilePhoto *storage.File
}

// ApplicationService takes in the investor and investee applications, KYC
// documents and the business profile.
type ApplicationService struct {
	apps     repository.ApplicationRepository
	kyc      repository.KYCRepository
	profiles repository.ProfileRepository
	store    storage.Store
	notifier *mail.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewApplicationService(
	apps repository.ApplicationRepository,
	kyc repository.KYCRepository,
	profiles repository.ProfileRepository,
	store storage.Store,
	notifier *mail.Notifier,
	logger *slog.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:     apps,
		kyc:      kyc,
		profiles: profiles,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func validateInvestor(in *model.InvestorApplication) error {
	if err := firstErr(
		required("firstName", in.FirstName),
		required("secondName", in.SecondName),
		validEmail("email", in.Email),
		required("phone", in.Phone),
		required("country", in.Country),
		validURL("website", in.Website),
		required("field", in.Field),
		required("workTitle", in.WorkTitle),
		required("referral", in.Referral),
	); err != nil {
		return err
	}
	for field, v := range map[string][]string{
		"industryToInvest": in.IndustryToInvest,
		"level":            in.Level,
		"amount":           in.Amount,
	} {
		if len(v) == 0 {
			return apperror.ValidationFailed(field, fmt.Sprintf("The %s field is required.", field))
		}
	}
	if in.Age < 0 {
		return apperror.ValidationFailed("age", "The age field must be at least 0.")
	}
	return nil
}

func (s *ApplicationService) upload(ctx context.Context, f *storage.File, maxBytes int64, exts []string, key func(ext string) string) (string, error) {
	if f == nil || f.Header == nil {
		return "", nil
	}
	if err := f.Check(maxBytes, exts); err != nil {
		return "", err
	}
	url, err := storage.Put(ctx, s.store, *f, key(f.Ext()))
	if err != nil {
		return "", apperror.Upstream("Failed to upload "+f.Field+". Please try again.", err)
	}
	return url, nil
}

// SubmitInvestor validates and saves the investor application of userID.
// Review state and the subscription survive a resubmission; a first
// submission starts a one-month subscription.
func (s *ApplicationService) SubmitInvestor(ctx context.Context, userID string, in *model.InvestorApplication, files InvestorFiles) (*model.InvestorApplication, error) {
	if err := validateInvestor(in); err != nil {
		return nil, err
	}
	for _, f := range []*storage.File{files.SourceOfFunds, files.ProofOfResidence} {
		if f != nil && f.Header != nil {
			if err := f.Check(storage.MaxApplication, storage.ApplicationExts); err != nil {
				return nil, err
			}
		}
	}

	existing, err := s.apps.GetInvestor(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("service/application: investor %s: %w", userID, err)
	}
	updated := existing != nil

	now := s.now().UTC()
	app := *in
	app.ID, app.UserID = userID, userID
	app.Industry = label(industryLabels, in.Industry)
	app.Field = label(fieldLabels, in.Field)
	app.IndustryToInvest = make([]string, len(in.IndustryToInvest))
	for i, code := range in.IndustryToInvest {
		app.IndustryToInvest[i] = label(industryLabels, code)
	}
	app.UpdatedAt = now
	if updated {
		app.Approved = existing.Approved
		app.Verified = existing.Verified
		app.SubscriptionExpiry = existing.SubscriptionExpiry
		app.CreatedAt = existing.CreatedAt
		app.SourceOfFundsURL = existing.SourceOfFundsURL
		app.ProofOfResidenceURL = existing.ProofOfResidenceURL
	} else {
		app.Approved, app.Verified = false, false
		app.CreatedAt = now
	}
	if app.SubscriptionExpiry.IsZero() {
		app.SubscriptionExpiry = subscriptionPeriod(now)
	}

	if url, err := s.upload(ctx, files.SourceOfFunds, storage.MaxApplication, storage.ApplicationExts,
		func(ext string) string { return storage.ApplicationDocKey(userID, "source_of_funds", now, ext) }); err != nil {
		return nil, err
	} else if url != "" {
		app.SourceOfFundsURL = url
	}
	if url, err := s.upload(ctx, files.ProofOfResidence, storage.MaxApplication, storage.ApplicationExts,
		func(ext string) string { return storage.ApplicationDocKey(userID, "proof_of_residence", now, ext) }); err != nil {
		return nil, err
	} else if url != "" {
		app.ProofOfResidenceURL = url
	}

	if err := s.apps.SaveInvestor(ctx, &app); err != nil {
		return nil, fmt.Errorf("service/application: saving investor %s: %w", userID, err)
	}

	s.notifier.InvestorApplication(&app, updated)
	s.logger.Info("investor application saved",
		slog.String("user_id", userID),
		slog.Bool("updated", updated),
	)
	return &app, nil
}

func validateInvestee(in *model.InvesteeApplication, today time.Time) error {
	if err := firstErr(
		required("firstName", in.FirstName),
		required("secondName", in.SecondName),
		validEmail("email", in.Email),
		required("phone", in.Phone),
		required("country", in.Country),
		required("ventureName", in.VentureName),
		validURL("website", in.Website),
		required("industry", in.Industry),
		required("businessModel", in.BusinessModel),
		required("level", in.Level),
		required("companySolution", in.CompanySolution),
		required("africanLed", in.AfricanLed),
		required("femaleFounder", in.FemaleFounder),
		required("countryHeadquarters", in.CountryHeadquarters),
		required("city", in.City),
		required("date", in.Date),
		required("lifecycle", in.Lifecycle),
		required("makeMoney", in.MakeMoney),
		required("generatingRevenue", in.GeneratingRevenue),
		required("externalFunding", in.ExternalFunding),
		required("referral", in.Referral),
		required("mailing", in.Mailing),
		validURL("documentUrl", in.DocumentURL),
	); err != nil {
		return err
	}
	if len(in.SelectedChallenges) == 0 {
		return apperror.ValidationFailed("selectedChallenges", "The selectedChallenges field is required.")
	}
	for field, v := range map[string]float64{
		"africanPercentage": in.AfricanPercentage,
		"femalePercentage":  in.FemalePercentage,
		"monthsRunway":      in.MonthsRunway,
	} {
		if v < 0 || v > 100 {
			return apperror.ValidationFailed(field, fmt.Sprintf("The %s field must be between 0 and 100.", field))
		}
	}
	if in.AmountRaising < 0 {
		return apperror.ValidationFailed("amountRaising", "The amountRaising field must be at least 0.")
	}
	founded, err := time.Parse(time.DateOnly, in.Date)
	if err != nil {
		return apperror.ValidationFailed("date", "The date field must be a valid date.")
	}
	if founded.After(today) {
		return apperror.ValidationFailed("date", "The date field must be a date before or equal to today.")
	}
	return nil
}

// SubmitInvestee validates and saves the investee application of userID,
// keeping review state on resubmission.
func (s *ApplicationService) SubmitInvestee(ctx context.Context, userID string, in *model.InvesteeApplication) (*model.InvesteeApplication, error) {
	now := s.now().UTC()
	if err := validateInvestee(in, now.Truncate(24*time.Hour)); err != nil {
		return nil, err
	}

	existing, err := s.apps.GetInvestee(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("service/application: investee %s: %w", userID, err)
	}
	updated := existing != nil

	app := *in
	app.ID, app.UserID = userID, userID
	app.UpdatedAt = now
	if updated {
		app.Approved = existing.Approved
		app.Verified = existing.Verified
		app.CreatedAt = existing.CreatedAt
	} else {
		app.Approved, app.Verified = false, false
		app.CreatedAt = now
	}

	if err := s.apps.SaveInvestee(ctx, &app); err != nil {
		return nil, fmt.Errorf("service/application: saving investee %s: %w", userID, err)
	}

	s.notifier.InvesteeApplication(&app, updated)
	s.logger.Info("investee application saved",
		slog.String("user_id", userID),
		slog.Bool("updated", updated),
	)
	return &app, nil
}

func (s *ApplicationService) GetInvestor(ctx context.Context, userID string) (*model.InvestorApplication, error) {
	return s.apps.GetInvestor(ctx, userID)
}

func (s *ApplicationService) GetInvestee(ctx context.Context, userID string) (*model.InvesteeApplication, error) {
	return s.apps.GetInvestee(ctx, userID)
}

// SubmitKYC uploads both photos and resets approval.
func (s *ApplicationService) SubmitKYC(ctx context.Context, userID, email string, files KYCFiles) (*model.KYC, error) {
	for field, f := range map[string]*storage.File{"idPhoto": files.IDPhoto, "profilePhoto": files.ProfilePhoto} {
		if f == nil || f.Header == nil {
			return nil, apperror.ValidationFailed(field, fmt.Sprintf("The %s field is required.", field))
		}
		if err := f.Check(storage.MaxKYCPhoto, storage.ImageExts); err != nil {
			return nil, err
		}
	}

	idURL, err := s.upload(ctx, files.IDPhoto, storage.MaxKYCPhoto, storage.ImageExts,
		func(ext string) string { return storage.KYCKey(userID, "id", ext) })
	if err != nil {
		return nil, err
	}
	profileURL, err := s.upload(ctx, files.ProfilePhoto, storage.MaxKYCPhoto, storage.ImageExts,
		func(ext string) string { return storage.KYCKey(userID, "profile", ext) })
	if err != nil {
		return nil, err
	}

	k := &model.KYC{
		ID:              userID,
		UserID:          userID,
		IDImageURL:      idURL,
		ProfileImageURL: profileURL,
		Approved:        false,
		SubmittedAt:     s.now().UTC(),
	}
	if err := s.kyc.Save(ctx, k); err != nil {
		return nil, fmt.Errorf("service/application: saving kyc %s: %w", userID, err)
	}

	s.notifier.KYCSubmitted(email, k)
	s.logger.Info("kyc submitted", slog.String("user_id", userID))
	return k, nil
}

// KYCStatus is one of the model.KYCStatus values.
func (s *ApplicationService) KYCStatus(ctx context.Context, userID string) (string, error) {
	k, err := s.kyc.Get(ctx, userID)
	switch {
	case isNotFound(err):
		return model.KYCStatusMissing, nil
	case err != nil:
		return "", fmt.Errorf("service/application: kyc %s: %w", userID, err)
	case k.Approved:
		return model.KYCStatusApproved, nil
	default:
		return model.KYCStatusPending, nil
	}
}

// GetProfile returns the business profile, or an empty one.
func (s *ApplicationService) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if isNotFound(err) {
		return &model.Profile{ID: userID, UserID: userID, Sections: map[string]map[string]any{}}, nil
	}
	return p, err
}

// SaveProfile merges sections into the stored profile and recomputes the
// completion and verification flag.
func (s *ApplicationService) SaveProfile(ctx context.Context, userID, email string, sections map[string]map[string]any) (*model.Profile, error) {
	known := map[string]bool{}
	for _, sec := range model.ProfileSchema {
		known[sec.Section] = true
	}
	for name := range sections {
		if !known[name] {
			return nil, apperror.ValidationFailed("sections", fmt.Sprintf("Unknown profile section %q.", name))
		}
	}

	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/application: profile %s: %w", userID, err)
	}
	if p.Sections == nil {
		p.Sections = map[string]map[string]any{}
	}
	for name, answers := range sections {
		merged := p.Sections[name]
		if merged == nil {
			merged = map[string]any{}
		}
		for k, v := range answers {
			if str, ok := v.(string); ok {
				v = strings.TrimSpace(str)
			}
			merged[k] = v
		}
		p.Sections[name] = merged
	}

	p.ID, p.UserID = userID, userID
	p.Completion = pricing.ProfileCompletion(p.Sections)
	p.BusinessVerified = p.Completion > BusinessVerifiedAbove
	p.UpdatedAt = s.now().UTC()

	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("service/application: saving profile %s: %w", userID, err)
	}

	s.notifier.ProfileUpdated(email, p)
	s.logger.Info("profile saved",
		slog.String("user_id", userID),
		slog.Float64("completion", p.Completion),
	)
	return p, nil
}

// ApproveKYC is an operator action.
func (s *ApplicationService) ApproveKYC(ctx context.Context, userID string, approved bool) error {
	if err := s.kyc.SetApproved(ctx, userID, approved); err != nil {
		return fmt.Errorf("service/application: approving kyc %s: %w", userID, err)
	}
	s.logger.Info("kyc reviewed", slog.String("user_id", userID), slog.Bool("approved", approved))
	return nil
}

// ApproveInvestor is an operator action.
func (s *ApplicationService) ApproveInvestor(ctx context.Context, userID string, approved bool) error {
	if err := s.apps.SetInvestorApproved(ctx, userID, approved); err != nil {
		return fmt.Errorf("service/application: approving investor %s: %w", userID, err)
	}
	s.logger.Info("investor reviewed", slog.String("user_id", userID), slog.Bool("approved", approved))
	return nil
}

// ApproveInvestee is an operator action.
func (s *ApplicationService) ApproveInvestee(ctx context.Context, userID string, approved bool) error {
	if err := s.apps.SetInvesteeApproved(ctx, userID, approved); err != nil {
		return fmt.Errorf("service/application: approving investee %s: %w", userID, err)
	}
	s.logger.Info("investee reviewed", slog.String("user_id", userID), slog.Bool("approved", approved))
	return nil
}
