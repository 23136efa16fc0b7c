package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/identity"
	"github.com/sakif/venturehub/internal/mail"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/pricing"
	"github.com/sakif/venturehub/internal/repository"
	"github.com/sakif/venturehub/internal/storage"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

var errDB = errors.New("database is on fire")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedNow is the clock every service test runs on.
var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// ---- mail ---------------------------------------------------------------

// outbox captures messages instead of rendering them.
type outbox struct {
	mu      sync.Mutex
	sent    []mail.Message
	queued  []mail.Message
	sendErr error
	full    bool
}

var _ mail.Outbox = (*outbox)(nil)

func (o *outbox) Send(ctx context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sendErr != nil {
		return o.sendErr
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) Enqueue(msg mail.Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.full {
		return false
	}
	o.queued = append(o.queued, msg)
	return true
}

// templates lists the templates of every queued message in order.
func (o *outbox) templates() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.queued))
	for i, m := range o.queued {
		out[i] = m.Template
	}
	return out
}

func (o *outbox) find(tpl string) (mail.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.queued {
		if m.Template == tpl {
			return m, true
		}
	}
	return mail.Message{}, false
}

func newNotifier(o *outbox) *mail.Notifier {
	return mail.NewNotifier(o, mail.NotifierConfig{
		Admin:   "admin@venturehub.test",
		Contact: "hello@venturehub.test",
		BaseURL: "https://venturehub.test",
	})
}

// ---- identity -----------------------------------------------------------

type fakeIdentity struct {
	users      map[string]*identity.User // by id
	passwords  map[string]string         // by email
	createErr  error
	signInErr  error
	resetErr   error
	getUserErr error
	lookupErr  error
	resets     []string
}

var _ identity.Provider = (*fakeIdentity)(nil)

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{users: map[string]*identity.User{}, passwords: map[string]string{}}
}

func (f *fakeIdentity) add(id, email, password string) {
	f.users[id] = &identity.User{ID: id, Email: email, Enabled: true}
	f.passwords[email] = password
}

func (f *fakeIdentity) CreateUser(ctx context.Context, email, password string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if _, ok := f.passwords[email]; ok {
		return "", identity.ErrUserExists
	}
	id := "uid-" + email
	f.add(id, email, password)
	return id, nil
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	want, ok := f.passwords[email]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	if want != password {
		return nil, identity.ErrInvalidCredentials
	}
	for id, u := range f.users {
		if u.Email == email {
			return &identity.Session{UserID: id, Email: email, AccessToken: "at", ExpiresIn: 300}, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeIdentity) SendPasswordReset(ctx context.Context, email string) error {
	if f.resetErr != nil {
		return f.resetErr
	}
	if _, ok := f.passwords[email]; !ok {
		return identity.ErrUserNotFound
	}
	f.resets = append(f.resets, email)
	return nil
}

func (f *fakeIdentity) GetUser(ctx context.Context, id string) (*identity.User, error) {
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeIdentity) LookupEmail(ctx context.Context, id string) (string, error) {
	if f.lookupErr != nil {
		return "", f.lookupErr
	}
	u, ok := f.users[id]
	if !ok {
		return "", identity.ErrUserNotFound
	}
	return u.Email, nil
}

// ---- users --------------------------------------------------------------

type fakeUserRepo struct {
	users     map[string]*model.User
	upsertErr error
	markErr   error
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) Get(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	c := *u
	return &c, nil
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if existing, ok := f.users[user.ID]; ok {
		existing.Email = user.Email
		existing.Provider = user.Provider
		existing.LastLoginAt = user.LastLoginAt
		c := *existing
		return &c, nil
	}
	c := *user
	f.users[user.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeUserRepo) MarkWelcomeSent(ctx context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.WelcomeEmailSent = true
	return nil
}

// ---- applications, kyc, profiles ----------------------------------------

type fakeAppRepo struct {
	investors map[string]*model.InvestorApplication
	investees map[string]*model.InvesteeApplication
	getErr    error
	saveErr   error
}

var _ repository.ApplicationRepository = (*fakeAppRepo)(nil)

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{
		investors: map[string]*model.InvestorApplication{},
		investees: map[string]*model.InvesteeApplication{},
	}
}

func (f *fakeAppRepo) GetInvestor(ctx context.Context, userID string) (*model.InvestorApplication, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.investors[userID]
	if !ok {
		return nil, apperror.NotFound("investor application", userID)
	}
	c := *a
	return &c, nil
}

func (f *fakeAppRepo) SaveInvestor(ctx context.Context, app *model.InvestorApplication) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *app
	f.investors[app.UserID] = &c
	return nil
}

func (f *fakeAppRepo) ListInvestors(ctx context.Context) ([]model.InvestorApplication, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	ids := make([]string, 0, len(f.investors))
	for id := range f.investors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]model.InvestorApplication, 0, len(ids))
	for _, id := range ids {
		out = append(out, *f.investors[id])
	}
	return out, nil
}

func (f *fakeAppRepo) SetInvestorExpiry(ctx context.Context, userID string, expiry time.Time) error {
	a, ok := f.investors[userID]
	if !ok {
		return apperror.NotFound("investor application", userID)
	}
	a.SubscriptionExpiry = expiry
	return nil
}

func (f *fakeAppRepo) SetInvestorApproved(ctx context.Context, userID string, approved bool) error {
	a, ok := f.investors[userID]
	if !ok {
		return apperror.NotFound("investor application", userID)
	}
	a.Approved = approved
	return nil
}

func (f *fakeAppRepo) GetInvestee(ctx context.Context, userID string) (*model.InvesteeApplication, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.investees[userID]
	if !ok {
		return nil, apperror.NotFound("investee application", userID)
	}
	c := *a
	return &c, nil
}

func (f *fakeAppRepo) SaveInvestee(ctx context.Context, app *model.InvesteeApplication) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *app
	f.investees[app.UserID] = &c
	return nil
}

func (f *fakeAppRepo) SetInvesteeApproved(ctx context.Context, userID string, approved bool) error {
	a, ok := f.investees[userID]
	if !ok {
		return apperror.NotFound("investee application", userID)
	}
	a.Approved = approved
	return nil
}

type fakeKYCRepo struct {
	docs    map[string]*model.KYC
	saveErr error
}

var _ repository.KYCRepository = (*fakeKYCRepo)(nil)

func newFakeKYCRepo() *fakeKYCRepo { return &fakeKYCRepo{docs: map[string]*model.KYC{}} }

func (f *fakeKYCRepo) Get(ctx context.Context, userID string) (*model.KYC, error) {
	k, ok := f.docs[userID]
	if !ok {
		return nil, apperror.NotFound("kyc", userID)
	}
	c := *k
	return &c, nil
}

func (f *fakeKYCRepo) Save(ctx context.Context, kyc *model.KYC) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *kyc
	f.docs[kyc.UserID] = &c
	return nil
}

func (f *fakeKYCRepo) SetApproved(ctx context.Context, userID string, approved bool) error {
	k, ok := f.docs[userID]
	if !ok {
		return apperror.NotFound("kyc", userID)
	}
	k.Approved = approved
	return nil
}

type fakeProfileRepo struct {
	docs    map[string]*model.Profile
	getErr  error
	saveErr error
}

var _ repository.ProfileRepository = (*fakeProfileRepo)(nil)

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{docs: map[string]*model.Profile{}}
}

func (f *fakeProfileRepo) Get(ctx context.Context, userID string) (*model.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.docs[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	c := *p
	return &c, nil
}

func (f *fakeProfileRepo) Save(ctx context.Context, p *model.Profile) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *p
	f.docs[p.UserID] = &c
	return nil
}

// ---- listings -----------------------------------------------------------

// fakeListingRepo mirrors the conditional updates of the Mongo store.
type fakeListingRepo struct {
	docs        map[string]*model.Listing
	order       []string
	createErr   error
	completeErr error
}

var _ repository.ListingRepository = (*fakeListingRepo)(nil)

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{docs: map[string]*model.Listing{}}
}

func cloneListing(l *model.Listing) *model.Listing {
	c := *l
	c.Investors = append([]model.InvestorRequest(nil), l.Investors...)
	c.Reviews = append([]model.Review(nil), l.Reviews...)
	c.ShowedInterestUsers = append([]string(nil), l.ShowedInterestUsers...)
	c.ShowedDisinterestUsers = append([]string(nil), l.ShowedDisinterestUsers...)
	return &c
}

func (f *fakeListingRepo) put(l *model.Listing) {
	if _, ok := f.docs[l.ID]; !ok {
		f.order = append(f.order, l.ID)
	}
	f.docs[l.ID] = cloneListing(l)
}

func (f *fakeListingRepo) Get(ctx context.Context, id string) (*model.Listing, error) {
	l, ok := f.docs[id]
	if !ok {
		return nil, apperror.NotFound("listing", id)
	}
	return cloneListing(l), nil
}

func (f *fakeListingRepo) Create(ctx context.Context, l *model.Listing) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.docs[l.ID]; ok {
		return apperror.Conflict("listing", l.ID)
	}
	f.put(l)
	return nil
}

func (f *fakeListingRepo) Update(ctx context.Context, l *model.Listing) error {
	if _, ok := f.docs[l.ID]; !ok {
		return apperror.NotFound("listing", l.ID)
	}
	f.docs[l.ID] = cloneListing(l)
	return nil
}

func (f *fakeListingRepo) ListVerified(ctx context.Context, limit int) ([]model.Listing, error) {
	var out []model.Listing
	for _, id := range f.order {
		if l := f.docs[id]; l.Verified && len(out) < limit {
			out = append(out, *cloneListing(l))
		}
	}
	return out, nil
}

func (f *fakeListingRepo) ListWithInvestor(ctx context.Context, investorID string) ([]model.Listing, error) {
	var out []model.Listing
	for _, id := range f.order {
		if l := f.docs[id]; l.RequestBy(investorID) != nil {
			out = append(out, *cloneListing(l))
		}
	}
	return out, nil
}

func (f *fakeListingRepo) AddInvestor(ctx context.Context, listingID string, req model.InvestorRequest) error {
	l, ok := f.docs[listingID]
	if !ok {
		return apperror.NotFound("listing", listingID)
	}
	if l.RequestBy(req.InvestorID) != nil {
		return apperror.ConflictMessage("You have already requested to invest in this listing.")
	}
	l.Investors = append(l.Investors, req)
	return nil
}

func (f *fakeListingRepo) SetInvestorApproved(ctx context.Context, listingID, investorID string) error {
	l, ok := f.docs[listingID]
	if !ok {
		return apperror.NotFound("listing", listingID)
	}
	r := l.RequestBy(investorID)
	if r == nil || r.Approved {
		return apperror.NotFound("pending investment request", investorID)
	}
	r.Approved = true
	return nil
}

func (f *fakeListingRepo) RemoveInvestor(ctx context.Context, listingID, investorID string) error {
	l, ok := f.docs[listingID]
	if !ok {
		return apperror.NotFound("listing", listingID)
	}
	for i := range l.Investors {
		if l.Investors[i].InvestorID == investorID {
			l.Investors = append(l.Investors[:i], l.Investors[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("investment request", investorID)
}

func (f *fakeListingRepo) CompleteInvestment(ctx context.Context, listingID, investorID string, amount float64) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	l, ok := f.docs[listingID]
	if !ok {
		return apperror.NotFound("listing", listingID)
	}
	r := l.RequestBy(investorID)
	if r == nil || !r.Approved || r.InvestmentComplete {
		return apperror.NotFound("approved investment request", investorID)
	}
	r.InvestmentComplete = true
	l.AmountInvested += amount
	l.NoOfInvestors++
	return nil
}

func (f *fakeListingRepo) ToggleInterest(ctx context.Context, listingID, userID string, interested bool) (bool, error) {
	l, ok := f.docs[listingID]
	if !ok {
		return false, apperror.NotFound("listing", listingID)
	}
	drop := func(list []string) []string {
		out := list[:0]
		for _, u := range list {
			if u != userID {
				out = append(out, u)
			}
		}
		return out
	}
	clicked, other := &l.ShowedInterestUsers, &l.ShowedDisinterestUsers
	if !interested {
		clicked, other = other, clicked
	}
	if contains(*clicked, userID) {
		*clicked = drop(*clicked)
		return false, nil
	}
	*clicked = append(*clicked, userID)
	*other = drop(*other)
	return true, nil
}

func (f *fakeListingRepo) AddReview(ctx context.Context, listingID string, r model.Review) error {
	l, ok := f.docs[listingID]
	if !ok {
		return apperror.NotFound("listing", listingID)
	}
	if l.ReviewBy(r.ReviewerID) != nil {
		return apperror.ConflictMessage("You have already reviewed this listing.")
	}
	l.Reviews = append(l.Reviews, r)
	return nil
}

func (f *fakeListingRepo) UpdateSubscriptionExpiry(ctx context.Context, id string, expiry time.Time) error {
	l, ok := f.docs[id]
	if !ok {
		return apperror.NotFound("listing", id)
	}
	l.SubscriptionExpiry = expiry
	return nil
}

func (f *fakeListingRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	l, ok := f.docs[id]
	if !ok {
		return apperror.NotFound("listing", id)
	}
	l.Verified = verified
	return nil
}

// ---- bookings -----------------------------------------------------------

type fakeSpaceRepo struct {
	spaces   map[string]*model.CollaborativeSpace
	bookings map[string]*model.SpaceBooking
	seq      int
}

var _ repository.SpaceRepository = (*fakeSpaceRepo)(nil)

func newFakeSpaceRepo() *fakeSpaceRepo {
	return &fakeSpaceRepo{
		spaces:   map[string]*model.CollaborativeSpace{},
		bookings: map[string]*model.SpaceBooking{},
	}
}

func (f *fakeSpaceRepo) GetSpace(ctx context.Context, id string) (*model.CollaborativeSpace, error) {
	s, ok := f.spaces[id]
	if !ok {
		return nil, apperror.NotFound("collaborative space", id)
	}
	c := *s
	return &c, nil
}

func (f *fakeSpaceRepo) ListSpaces(ctx context.Context) ([]model.CollaborativeSpace, error) {
	out := make([]model.CollaborativeSpace, 0, len(f.spaces))
	for _, s := range f.spaces {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeSpaceRepo) CreateBooking(ctx context.Context, b *model.SpaceBooking) error {
	if b.ID == "" {
		f.seq++
		b.ID = "sb" + string(rune('0'+f.seq))
	}
	c := *b
	f.bookings[b.ID] = &c
	return nil
}

func (f *fakeSpaceRepo) GetBooking(ctx context.Context, id string) (*model.SpaceBooking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperror.NotFound("space booking", id)
	}
	c := *b
	return &c, nil
}

func (f *fakeSpaceRepo) BookingsByUser(ctx context.Context, userID string) ([]model.SpaceBooking, error) {
	var out []model.SpaceBooking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeSpaceRepo) DecideBooking(ctx context.Context, id string, approve bool) error {
	b, ok := f.bookings[id]
	if !ok {
		return apperror.NotFound("space booking", id)
	}
	b.ManagerApproval = approve
	b.Decision = model.DecisionRejected
	if approve {
		b.Decision = model.DecisionApproved
	}
	return nil
}

func (f *fakeSpaceRepo) CompleteBooking(ctx context.Context, id string) error {
	b, ok := f.bookings[id]
	if !ok {
		return apperror.NotFound("space booking", id)
	}
	b.Complete = true
	return nil
}

type fakeAdvisoryRepo struct {
	services map[string]*model.AdvisoryService
	bookings map[string]*model.ServiceBooking
	seq      int
}

var _ repository.AdvisoryRepository = (*fakeAdvisoryRepo)(nil)

func newFakeAdvisoryRepo() *fakeAdvisoryRepo {
	return &fakeAdvisoryRepo{
		services: map[string]*model.AdvisoryService{},
		bookings: map[string]*model.ServiceBooking{},
	}
}

func (f *fakeAdvisoryRepo) GetService(ctx context.Context, id string) (*model.AdvisoryService, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, apperror.NotFound("advisory service", id)
	}
	c := *s
	c.Providers = append([]model.Provider(nil), s.Providers...)
	return &c, nil
}

func (f *fakeAdvisoryRepo) ListServices(ctx context.Context) ([]model.AdvisoryService, error) {
	out := make([]model.AdvisoryService, 0, len(f.services))
	for _, s := range f.services {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (f *fakeAdvisoryRepo) CreateBooking(ctx context.Context, b *model.ServiceBooking) error {
	if b.ID == "" {
		f.seq++
		b.ID = "vb" + string(rune('0'+f.seq))
	}
	c := *b
	f.bookings[b.ID] = &c
	return nil
}

func (f *fakeAdvisoryRepo) GetBooking(ctx context.Context, id string) (*model.ServiceBooking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, apperror.NotFound("service booking", id)
	}
	c := *b
	return &c, nil
}

func (f *fakeAdvisoryRepo) BookingsByUser(ctx context.Context, userID, serviceType string) ([]model.ServiceBooking, error) {
	var out []model.ServiceBooking
	for _, b := range f.bookings {
		if b.UserID == userID && (serviceType == "" || b.ServiceType == serviceType) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeAdvisoryRepo) DecideBooking(ctx context.Context, id string, approve bool) error {
	b, ok := f.bookings[id]
	if !ok {
		return apperror.NotFound("service booking", id)
	}
	b.ServiceProviderApproval = approve
	b.Decision = model.DecisionRejected
	if approve {
		b.Decision = model.DecisionApproved
	}
	return nil
}

func (f *fakeAdvisoryRepo) CompleteBooking(ctx context.Context, id string) error {
	b, ok := f.bookings[id]
	if !ok {
		return apperror.NotFound("service booking", id)
	}
	b.PaymentComplete, b.Complete = true, true
	return nil
}

// ---- payments and subscriptions -----------------------------------------

type fakePaymentRepo struct {
	records   map[string]*model.PaymentRecord
	recordErr error
	markErr   error
}

var _ repository.PaymentRepository = (*fakePaymentRepo)(nil)

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{records: map[string]*model.PaymentRecord{}}
}

func (f *fakePaymentRepo) Record(ctx context.Context, rec *model.PaymentRecord) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	if _, ok := f.records[rec.Reference]; ok {
		return apperror.Conflict("payment", rec.Reference)
	}
	c := *rec
	f.records[rec.Reference] = &c
	return nil
}

func (f *fakePaymentRepo) Get(ctx context.Context, reference string) (*model.PaymentRecord, error) {
	r, ok := f.records[reference]
	if !ok {
		return nil, apperror.NotFound("payment", reference)
	}
	c := *r
	return &c, nil
}

func (f *fakePaymentRepo) MarkApplied(ctx context.Context, reference string) error {
	if f.markErr != nil {
		return f.markErr
	}
	r, ok := f.records[reference]
	if !ok {
		return apperror.NotFound("payment", reference)
	}
	r.Applied = true
	return nil
}

type fakeSubRepo struct {
	docs   map[string]*model.Subscription
	setErr error
}

var _ repository.SubscriptionRepository = (*fakeSubRepo)(nil)

func newFakeSubRepo() *fakeSubRepo { return &fakeSubRepo{docs: map[string]*model.Subscription{}} }

func (f *fakeSubRepo) Get(ctx context.Context, userID string) (*model.Subscription, error) {
	s, ok := f.docs[userID]
	if !ok {
		return nil, apperror.NotFound("subscription", userID)
	}
	c := *s
	return &c, nil
}

func (f *fakeSubRepo) SetExpiry(ctx context.Context, userID, plan string, expiry time.Time) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.docs[userID] = &model.Subscription{ID: userID, UserID: userID, Plan: plan, ExpiryDate: expiry}
	return nil
}

// fakeLedger remembers user/day pairs like the sqlite ledger.
type fakeLedger struct {
	sent    map[string]bool
	markErr error
}

var _ repository.ReminderLedger = (*fakeLedger)(nil)

func newFakeLedger() *fakeLedger { return &fakeLedger{sent: map[string]bool{}} }

func (f *fakeLedger) MarkSent(ctx context.Context, userID string, day time.Time) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	key := userID + "|" + day.Format(time.DateOnly)
	if f.sent[key] {
		return false, nil
	}
	f.sent[key] = true
	return true, nil
}

func (f *fakeLedger) Forget(ctx context.Context, userID string, day time.Time) error {
	delete(f.sent, userID+"|"+day.Format(time.DateOnly))
	return nil
}

func (f *fakeLedger) Purge(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fakeJobRepo struct {
	jobs map[string]*model.Job
	seq  int
}

var _ repository.JobRepository = (*fakeJobRepo)(nil)

func newFakeJobRepo() *fakeJobRepo { return &fakeJobRepo{jobs: map[string]*model.Job{}} }

func (f *fakeJobRepo) Create(ctx context.Context, job *model.Job) error {
	f.seq++
	job.ID = "job" + string(rune('0'+f.seq))
	c := *job
	f.jobs[job.ID] = &c
	return nil
}

func (f *fakeJobRepo) Get(ctx context.Context, id string) (*model.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, apperror.NotFound("job", id)
	}
	c := *j
	return &c, nil
}

func (f *fakeJobRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Job, error) {
	out := make([]model.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if opts.Offset >= len(out) {
		return []model.Job{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeJobRepo) Update(ctx context.Context, job *model.Job) error {
	if _, ok := f.jobs[job.ID]; !ok {
		return apperror.NotFound("job", job.ID)
	}
	c := *job
	f.jobs[job.ID] = &c
	return nil
}

func (f *fakeJobRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.jobs[id]; !ok {
		return apperror.NotFound("job", id)
	}
	delete(f.jobs, id)
	return nil
}

// ---- gateway and storage ------------------------------------------------

// fakeGateway records initializations and serves verifications from txs.
type fakeGateway struct {
	inits     []payment.InitRequest
	txs       map[string]*payment.Transaction
	initErr   error
	verifyErr error
}

var _ payment.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{txs: map[string]*payment.Transaction{}}
}

func (f *fakeGateway) Initialize(ctx context.Context, req payment.InitRequest) (*payment.Checkout, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	f.inits = append(f.inits, req)
	return &payment.Checkout{
		AuthorizationURL: "https://checkout.test/" + req.Reference,
		AccessCode:       "code",
		Reference:        req.Reference,
	}, nil
}

func (f *fakeGateway) Verify(ctx context.Context, reference string) (*payment.Transaction, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	tx, ok := f.txs[reference]
	if !ok {
		return nil, errors.New("transaction not found")
	}
	return tx, nil
}

// settleLast turns the last initialized checkout into a successful
// transaction and returns its reference.
func (f *fakeGateway) settleLast(t *testing.T, status string) string {
	t.Helper()
	if len(f.inits) == 0 {
		t.Fatal("no checkout was initialized")
	}
	req := f.inits[len(f.inits)-1]
	meta, err := json.Marshal(req.Metadata)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	f.txs[req.Reference] = &payment.Transaction{
		Reference:     req.Reference,
		Status:        status,
		Amount:        pricing.ToMinor(req.Amount),
		Currency:      req.Currency,
		CustomerEmail: req.Email,
		Metadata:      meta,
	}
	return req.Reference
}

type fakeStore struct {
	objects   map[string][]byte
	uploadErr error
}

var _ storage.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Upload(ctx context.Context, obj storage.Object) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	b, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	f.objects[obj.Key] = b
	return "https://cdn.test/" + obj.Key, nil
}

// upload builds a storage.File backed by a real multipart header.
func upload(t *testing.T, field, name string, size int) *storage.File {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{'x'}, size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return &storage.File{Header: req.MultipartForm.File[field][0], Field: field}
}

func newTestCheckout(gw payment.Gateway, records repository.PaymentRepository) *Checkout {
	c := NewCheckout(gw, records, nil, "https://venturehub.test/", "NGN", quietLogger())
	c.now = clock
	return c
}

// wantKind fails the test unless err wraps sentinel.
func wantKind(t *testing.T, err, sentinel error) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want %v", sentinel)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want it to wrap %v", err, sentinel)
	}
}
