package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/mail"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/storage"
)

type marketFixture struct {
	svc      *MarketplaceService
	listings *fakeListingRepo
	apps     *fakeAppRepo
	kyc      *fakeKYCRepo
	profiles *fakeProfileRepo
	subs     *fakeSubRepo
	store    *fakeStore
	idp      *fakeIdentity
	gateway  *fakeGateway
	payments *fakePaymentRepo
	out      *outbox
}

func newMarketFixture(t *testing.T) *marketFixture {
	t.Helper()
	f := &marketFixture{
		listings: newFakeListingRepo(),
		apps:     newFakeAppRepo(),
		kyc:      newFakeKYCRepo(),
		profiles: newFakeProfileRepo(),
		subs:     newFakeSubRepo(),
		store:    newFakeStore(),
		idp:      newFakeIdentity(),
		gateway:  newFakeGateway(),
		payments: newFakePaymentRepo(),
		out:      &outbox{},
	}
	f.svc = NewMarketplaceService(f.listings, f.apps, f.kyc, f.profiles, f.subs, f.store, f.idp,
		newTestCheckout(f.gateway, f.payments), newNotifier(f.out), quietLogger())
	f.svc.now = clock
	return f
}

// founder makes owner ready to publish a listing.
func (f *marketFixture) founder(owner string) {
	f.profiles.docs[owner] = &model.Profile{ID: owner, UserID: owner, Completion: 100}
	f.apps.investees[owner] = &model.InvesteeApplication{
		ID: owner, UserID: owner, FirstName: "Grace", SecondName: "Hopper",
		Email: owner + "@example.com", Industry: "Fintech",
	}
}

// investor makes uid an approved investor with an approved KYC.
func (f *marketFixture) investor(uid string) {
	f.kyc.docs[uid] = &model.KYC{ID: uid, UserID: uid, Approved: true}
	f.apps.investors[uid] = &model.InvestorApplication{
		ID: uid, UserID: uid, FirstName: "Ada", SecondName: "Lovelace",
		Email: uid + "@example.com", Country: "Kenya", Company: "Analytical Ltd", Age: 36,
	}
}

// liveListing stores a verified listing valued at 700,000 asking 70,000.
func (f *marketFixture) liveListing(owner string) {
	f.listings.put(&model.Listing{
		ID: owner, Creator: owner, CreatorName: "Grace Hopper", CreatorEmail: owner + "@example.com",
		Title: "Solar Kiosks", Description: "Pay as you go power", Industry: "Energy",
		CompanyAsk: 70000, Earnings: 100000, Verified: true,
		SubscriptionExpiry: fixedNow.AddDate(0, 1, 0),
		MoreInfo:           map[string]string{"Location": "Nairobi"},
	})
}

func validListingInput() ListingInput {
	return ListingInput{
		Title:       "Solar Kiosks",
		Description: "Pay as you go power",
		CompanyAsk:  50000,
		Earnings:    20000,
		MoreInfo:    map[string]string{"Website": "https://solar.example", "Founder": " Grace "},
	}
}

// =========================================================================
// Listing creation gates
// =========================================================================

func TestCanCreateListing(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *marketFixture)
		want    error
		message string
	}{
		{
			name:  "ready",
			setup: func(f *marketFixture) { f.founder("o1") },
		},
		{
			name:    "no profile",
			setup:   func(f *marketFixture) { f.founder("o1"); delete(f.profiles.docs, "o1") },
			want:    apperror.ErrForbidden,
			message: MsgProfileIncomplete,
		},
		{
			name:    "profile incomplete",
			setup:   func(f *marketFixture) { f.founder("o1"); f.profiles.docs["o1"].Completion = 94.9 },
			want:    apperror.ErrForbidden,
			message: MsgProfileIncomplete,
		},
		{
			name:    "no investee application",
			setup:   func(f *marketFixture) { f.founder("o1"); delete(f.apps.investees, "o1") },
			want:    apperror.ErrForbidden,
			message: MsgNeedInvestee,
		},
		{
			name:    "listing exists",
			setup:   func(f *marketFixture) { f.founder("o1"); f.liveListing("o1") },
			want:    apperror.ErrConflict,
			message: MsgListingExists,
		},
		{
			name: "subscription lapsed",
			setup: func(f *marketFixture) {
				f.founder("o1")
				f.subs.docs["o1"] = &model.Subscription{UserID: "o1", Plan: model.PlanListing, ExpiryDate: fixedNow.AddDate(0, 0, -1)}
			},
			want:    apperror.ErrPaymentRequired,
			message: MsgListingExpired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMarketFixture(t)
			tt.setup(f)
			err := f.svc.CanCreateListing(context.Background(), "o1")
			if tt.want == nil {
				if err != nil {
					t.Fatalf("CanCreateListing() error = %v", err)
				}
				return
			}
			wantKind(t, err, tt.want)
			if got := apperror.MessageOf(err, ""); got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestCreateListing(t *testing.T) {
	f := newMarketFixture(t)
	f.founder("o1")

	in := validListingInput()
	in.Images = []storage.File{*upload(t, "images", "front.png", 1024)}
	in.PitchDeck = upload(t, "pitchDeck", "deck.pdf", 2048)

	l, err := f.svc.CreateListing(context.Background(), "o1", in)
	if err != nil {
		t.Fatalf("CreateListing() error = %v", err)
	}
	if l.ID != "o1" || l.Creator != "o1" {
		t.Errorf("ids = %q/%q, want o1", l.ID, l.Creator)
	}
	if l.CreatorName != "Grace Hopper" || l.CreatorEmail != "o1@example.com" {
		t.Errorf("creator = %q <%q>, want the investee's", l.CreatorName, l.CreatorEmail)
	}
	if l.Industry != "Fintech" {
		t.Errorf("Industry = %q, want the investee's industry", l.Industry)
	}
	if l.Verified {
		t.Error("a new listing must start unverified")
	}
	if want := fixedNow.AddDate(0, 1, 0); !l.SubscriptionExpiry.Equal(want) {
		t.Errorf("SubscriptionExpiry = %v, want %v", l.SubscriptionExpiry, want)
	}
	if len(l.ImageURLs) != 1 || !strings.HasPrefix(l.ImageURLs[0], "https://cdn.test/images/o1_") {
		t.Errorf("ImageURLs = %v", l.ImageURLs)
	}
	if !strings.HasSuffix(l.PitchDeck, ".pdf") {
		t.Errorf("PitchDeck = %q", l.PitchDeck)
	}
	if l.MoreInfo["Founder"] != "Grace" || len(l.MoreInfo) != len(model.MoreInfoKeys) {
		t.Errorf("MoreInfo = %v", l.MoreInfo)
	}
	if _, ok := f.out.find(mail.TplListingCreated); !ok {
		t.Error("admins should be told about the new listing")
	}
	if _, err := f.listings.Get(context.Background(), "o1"); err != nil {
		t.Errorf("listing not stored: %v", err)
	}
}

func TestCreateListing_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, in *ListingInput)
		field  string
	}{
		{"no title", func(t *testing.T, in *ListingInput) { in.Title = " " }, "title"},
		{"long title", func(t *testing.T, in *ListingInput) { in.Title = strings.Repeat("a", 256) }, "title"},
		{"no description", func(t *testing.T, in *ListingInput) { in.Description = "" }, "description"},
		{"negative ask", func(t *testing.T, in *ListingInput) { in.CompanyAsk = -1 }, "companyAsk"},
		{"bad website", func(t *testing.T, in *ListingInput) { in.MoreInfo["Website"] = "solar" }, "website"},
		{"unknown section", func(t *testing.T, in *ListingInput) { in.MoreInfo["Hobbies"] = "golf" }, "moreInfo"},
		{"image too large", func(t *testing.T, in *ListingInput) {
			in.Images = []storage.File{*upload(t, "images", "big.png", storage.MaxListingImage+1)}
		}, "images"},
		{"deck not pdf", func(t *testing.T, in *ListingInput) {
			in.PitchDeck = upload(t, "pitchDeck", "deck.pptx", 10)
		}, "pitchDeck"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMarketFixture(t)
			f.founder("o1")
			in := validListingInput()
			tt.mutate(t, &in)

			_, err := f.svc.CreateListing(context.Background(), "o1", in)
			wantKind(t, err, apperror.ErrValidation)
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Field != tt.field {
				t.Errorf("error = %v, want field %q", err, tt.field)
			}
			if len(f.store.objects) != 0 {
				t.Error("nothing should be uploaded when validation fails")
			}
		})
	}
}

func TestUpdateListing_OwnerOnly(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")

	_, err := f.svc.UpdateListing(context.Background(), "intruder", "o1", validListingInput())
	wantKind(t, err, apperror.ErrForbidden)

	in := validListingInput()
	in.Title = "Solar Kiosks v2"
	l, err := f.svc.UpdateListing(context.Background(), "o1", "o1", in)
	if err != nil {
		t.Fatalf("UpdateListing() error = %v", err)
	}
	if l.Title != "Solar Kiosks v2" || !l.Verified {
		t.Errorf("updated listing = %+v", l)
	}
	if l.CreatorName != "Grace Hopper" {
		t.Error("creator fields must survive an update")
	}
}

// =========================================================================
// Browsing
// =========================================================================

func TestListListings(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("a")
	f.liveListing("mine")
	f.liveListing("expired")
	f.listings.docs["expired"].SubscriptionExpiry = fixedNow.AddDate(0, 0, -1)
	f.liveListing("hidden")
	f.listings.docs["hidden"].Verified = false
	f.liveListing("paid")
	f.listings.docs["paid"].Investors = []model.InvestorRequest{{InvestorID: "mine", Approved: true, InvestmentComplete: true}}

	views, err := f.svc.ListListings(context.Background(), "mine", "")
	if err != nil {
		t.Fatalf("ListListings() error = %v", err)
	}
	var ids []string
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	if strings.Join(ids, ",") != "mine,a" {
		t.Fatalf("ids = %v, want [mine a]", ids)
	}
	if !views[0].Own || views[1].Own {
		t.Error("only the first view should be the user's own")
	}
	if views[1].Valuation != 700000 || views[1].MaxEquity != 10 {
		t.Errorf("valuation/maxEquity = %v/%v, want 700000/10", views[1].Valuation, views[1].MaxEquity)
	}
}

func TestListListings_OwnerSeesOwnExpiredListing(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.listings.docs["o1"].SubscriptionExpiry = fixedNow.AddDate(0, 0, -3)

	views, _ := f.svc.ListListings(context.Background(), "o1", "")
	if len(views) != 1 {
		t.Errorf("owner views = %d, want 1", len(views))
	}
	views, _ = f.svc.ListListings(context.Background(), "someone", "")
	if len(views) != 0 {
		t.Errorf("visitor views = %d, want 0", len(views))
	}
}

func TestListListings_Search(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")

	for query, want := range map[string]int{
		"":              1,
		"SOLAR":         1,
		"nairobi power": 1,
		"lagos":         0,
	} {
		views, err := f.svc.ListListings(context.Background(), "u", query)
		if err != nil {
			t.Fatalf("ListListings(%q) error = %v", query, err)
		}
		if len(views) != want {
			t.Errorf("ListListings(%q) = %d results, want %d", query, len(views), want)
		}
	}
}

func TestGetListing_HidesOtherRequests(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.listings.docs["o1"].Investors = []model.InvestorRequest{
		{InvestorID: "i1", Approved: true},
		{InvestorID: "i2"},
	}

	v, err := f.svc.GetListing(context.Background(), "i1", "o1")
	if err != nil {
		t.Fatalf("GetListing() error = %v", err)
	}
	if v.Investors != nil {
		t.Error("a visitor must not see other investors")
	}
	if v.RequestStatus != model.InvestmentApproved || v.MyRequest == nil {
		t.Errorf("request state = %q/%v", v.RequestStatus, v.MyRequest)
	}

	owner, _ := f.svc.GetListing(context.Background(), "o1", "o1")
	if len(owner.Investors) != 2 {
		t.Errorf("owner sees %d requests, want 2", len(owner.Investors))
	}
}

func TestGetListing_UnverifiedOnlyForOwner(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.listings.docs["o1"].Verified = false

	_, err := f.svc.GetListing(context.Background(), "u", "o1")
	wantKind(t, err, apperror.ErrNotFound)
	if _, err := f.svc.GetListing(context.Background(), "o1", "o1"); err != nil {
		t.Errorf("owner GetListing() error = %v", err)
	}
}

// =========================================================================
// Investment workflow
// =========================================================================

func TestRequestInvestment(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.investor("i1")

	req, err := f.svc.RequestInvestment(context.Background(), "i1", "", "o1",
		InvestmentInput{Equity: 5, ValueAddition: "Distribution network"})
	if err != nil {
		t.Fatalf("RequestInvestment() error = %v", err)
	}
	if req.InvestmentAmount != 35000 {
		t.Errorf("InvestmentAmount = %v, want 35000", req.InvestmentAmount)
	}
	if req.InvestorName != "Ada Lovelace" || req.CompanyName != "Analytical Ltd" || req.Date != "15-06-2024" {
		t.Errorf("request = %+v", req)
	}
	if req.Approved || req.InvestmentComplete {
		t.Error("a new request starts pending")
	}
	msg, ok := f.out.find(mail.TplInvestmentRequest)
	if !ok || msg.To[0] != "o1@example.com" {
		t.Errorf("owner mail = %+v, %v", msg, ok)
	}

	_, err = f.svc.RequestInvestment(context.Background(), "i1", "", "o1",
		InvestmentInput{Equity: 1, ValueAddition: "again"})
	wantKind(t, err, apperror.ErrConflict)
}

func TestRequestInvestment_MaxEquitySnapsToAsk(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.investor("i1")

	req, err := f.svc.RequestInvestment(context.Background(), "i1", "", "o1",
		InvestmentInput{Equity: 10, ValueAddition: "All in"})
	if err != nil {
		t.Fatalf("RequestInvestment() error = %v", err)
	}
	if req.InvestmentAmount != 70000 {
		t.Errorf("InvestmentAmount = %v, want the full ask", req.InvestmentAmount)
	}
}

func TestRequestInvestment_Gates(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *marketFixture)
		in    InvestmentInput
		want  error
	}{
		{
			name:  "no kyc",
			setup: func(f *marketFixture) { delete(f.kyc.docs, "i1") },
			in:    InvestmentInput{Equity: 1, ValueAddition: "x"},
			want:  apperror.ErrForbidden,
		},
		{
			name:  "kyc pending",
			setup: func(f *marketFixture) { f.kyc.docs["i1"].Approved = false },
			in:    InvestmentInput{Equity: 1, ValueAddition: "x"},
			want:  apperror.ErrForbidden,
		},
		{
			name:  "no investor application",
			setup: func(f *marketFixture) { delete(f.apps.investors, "i1") },
			in:    InvestmentInput{Equity: 1, ValueAddition: "x"},
			want:  apperror.ErrForbidden,
		},
		{
			name: "equity above max",
			in:   InvestmentInput{Equity: 10.01, ValueAddition: "x"},
			want: apperror.ErrValidation,
		},
		{
			name: "negative equity",
			in:   InvestmentInput{Equity: -1, ValueAddition: "x"},
			want: apperror.ErrValidation,
		},
		{
			name: "no value addition",
			in:   InvestmentInput{Equity: 1},
			want: apperror.ErrValidation,
		},
		{
			name:  "expired listing",
			setup: func(f *marketFixture) { f.listings.docs["o1"].SubscriptionExpiry = fixedNow.AddDate(0, 0, -1) },
			in:    InvestmentInput{Equity: 1, ValueAddition: "x"},
			want:  apperror.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMarketFixture(t)
			f.liveListing("o1")
			f.investor("i1")
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.RequestInvestment(context.Background(), "i1", "", "o1", tt.in)
			wantKind(t, err, tt.want)
			if len(f.listings.docs["o1"].Investors) != 0 {
				t.Error("no request should be stored")
			}
		})
	}
}

func TestRequestInvestment_OwnListing(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.investor("o1")

	_, err := f.svc.RequestInvestment(context.Background(), "o1", "", "o1", InvestmentInput{Equity: 1, ValueAddition: "x"})
	wantKind(t, err, apperror.ErrForbidden)
}

// requested sets up a listing with a pending request by i1.
func requested(t *testing.T) *marketFixture {
	t.Helper()
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.investor("i1")
	if _, err := f.svc.RequestInvestment(context.Background(), "i1", "", "o1",
		InvestmentInput{Equity: 5, ValueAddition: "Network"}); err != nil {
		t.Fatalf("RequestInvestment() error = %v", err)
	}
	f.out.queued = nil
	return f
}

func TestApproveInvestment(t *testing.T) {
	f := requested(t)

	err := f.svc.ApproveInvestment(context.Background(), "i1", "o1", "i1")
	wantKind(t, err, apperror.ErrForbidden)

	if err := f.svc.ApproveInvestment(context.Background(), "o1", "o1", "i1"); err != nil {
		t.Fatalf("ApproveInvestment() error = %v", err)
	}
	if !f.listings.docs["o1"].RequestBy("i1").Approved {
		t.Error("request should be approved")
	}
	got := f.out.templates()
	if len(got) != 2 || got[0] != mail.TplInvestmentApproved || got[1] != mail.TplInvestmentApprovedAdmin {
		t.Errorf("mails = %v", got)
	}

	err = f.svc.ApproveInvestment(context.Background(), "o1", "o1", "nobody")
	wantKind(t, err, apperror.ErrNotFound)
}

func TestApproveInvestment_OwnerEmailFallsBackToProvider(t *testing.T) {
	f := requested(t)
	f.listings.docs["o1"].CreatorEmail = ""
	f.idp.add("o1", "owner@idp.test", "pw")

	if err := f.svc.ApproveInvestment(context.Background(), "o1", "o1", "i1"); err != nil {
		t.Fatalf("ApproveInvestment() error = %v", err)
	}
	msg, _ := f.out.find(mail.TplInvestmentApproved)
	if msg.Data["OwnerEmail"] != "owner@idp.test" {
		t.Errorf("OwnerEmail = %v, want the provider's address", msg.Data["OwnerEmail"])
	}
}

func TestRejectInvestment(t *testing.T) {
	f := requested(t)

	if err := f.svc.RejectInvestment(context.Background(), "o1", "o1", "i1"); err != nil {
		t.Fatalf("RejectInvestment() error = %v", err)
	}
	if f.listings.docs["o1"].RequestBy("i1") != nil {
		t.Error("a rejected request is removed")
	}
	msg, ok := f.out.find(mail.TplInvestmentRejected)
	if !ok || msg.To[0] != "i1@example.com" {
		t.Errorf("rejection mail = %+v, %v", msg, ok)
	}
}

func TestStartInvestmentPayment(t *testing.T) {
	f := requested(t)

	_, err := f.svc.StartInvestmentPayment(context.Background(), "i1", "", "o1")
	wantKind(t, err, apperror.ErrForbidden)
	if apperror.MessageOf(err, "") != MsgPendingApproval {
		t.Errorf("message = %q", apperror.MessageOf(err, ""))
	}

	if err := f.svc.ApproveInvestment(context.Background(), "o1", "o1", "i1"); err != nil {
		t.Fatal(err)
	}
	co, err := f.svc.StartInvestmentPayment(context.Background(), "i1", "", "o1")
	if err != nil {
		t.Fatalf("StartInvestmentPayment() error = %v", err)
	}
	if !strings.HasPrefix(co.Reference, "tx_") {
		t.Errorf("reference = %q, want tx_ prefix", co.Reference)
	}
	init := f.gateway.inits[0]
	if init.Amount != 35000 || init.Email != "i1@example.com" || init.Currency != "NGN" {
		t.Errorf("init = %+v", init)
	}
	if init.CallbackURL != "https://venturehub.test/marketplace/callback" {
		t.Errorf("CallbackURL = %q", init.CallbackURL)
	}
	for key, want := range map[string]any{"flow": model.FlowMarketplace, "user_id": "i1", "listing_id": "o1", "equity": 5.0} {
		if init.Metadata[key] != want {
			t.Errorf("metadata[%s] = %v, want %v", key, init.Metadata[key], want)
		}
	}
}

func TestStartInvestmentPayment_GatewayDown(t *testing.T) {
	f := requested(t)
	_ = f.svc.ApproveInvestment(context.Background(), "o1", "o1", "i1")
	f.gateway.initErr = errDB

	_, err := f.svc.StartInvestmentPayment(context.Background(), "i1", "", "o1")
	wantKind(t, err, apperror.ErrUpstream)
	if apperror.MessageOf(err, "") != MsgPaymentStart {
		t.Errorf("message = %q", apperror.MessageOf(err, ""))
	}
}

// approvedCheckout returns a fixture with an initialized investment payment.
func approvedCheckout(t *testing.T) (*marketFixture, string) {
	t.Helper()
	f := requested(t)
	if err := f.svc.ApproveInvestment(context.Background(), "o1", "o1", "i1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartInvestmentPayment(context.Background(), "i1", "", "o1"); err != nil {
		t.Fatal(err)
	}
	f.out.queued = nil
	return f, f.gateway.settleLast(t, payment.StatusSuccess)
}

func TestCompleteInvestmentPayment(t *testing.T) {
	f, ref := approvedCheckout(t)

	rc, err := f.svc.CompleteInvestmentPayment(context.Background(), ref)
	if err != nil {
		t.Fatalf("CompleteInvestmentPayment() error = %v", err)
	}
	if rc.Duplicate || rc.ListingID != "o1" || rc.Amount != 35000 || rc.Equity != 5 {
		t.Errorf("receipt = %+v", rc)
	}

	l := f.listings.docs["o1"]
	if !l.RequestBy("i1").InvestmentComplete {
		t.Error("investment should be complete")
	}
	if l.AmountInvested != 35000 || l.NoOfInvestors != 1 {
		t.Errorf("totals = %v/%d, want 35000/1", l.AmountInvested, l.NoOfInvestors)
	}
	rec := f.payments.records[ref]
	if rec == nil || rec.Flow != model.FlowMarketplace || rec.UserID != "i1" || rec.TargetID != "o1" {
		t.Errorf("record = %+v", rec)
	}
	got := f.out.templates()
	if len(got) != 3 || got[2] != mail.TplMarketplacePaymentAdmin {
		t.Errorf("mails = %v, want investor, owner and admin", got)
	}
}

func TestCompleteInvestmentPayment_ReplayIsIdempotent(t *testing.T) {
	f, ref := approvedCheckout(t)

	if _, err := f.svc.CompleteInvestmentPayment(context.Background(), ref); err != nil {
		t.Fatal(err)
	}
	f.out.queued = nil

	rc, err := f.svc.CompleteInvestmentPayment(context.Background(), ref)
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	if !rc.Duplicate {
		t.Error("replay should be reported as duplicate")
	}
	l := f.listings.docs["o1"]
	if l.AmountInvested != 35000 || l.NoOfInvestors != 1 {
		t.Errorf("totals after replay = %v/%d, want 35000/1", l.AmountInvested, l.NoOfInvestors)
	}
	if len(f.out.queued) != 0 {
		t.Errorf("replay sent mails: %v", f.out.templates())
	}
}

func TestCompleteInvestmentPayment_RetryAfterFailedUpdate(t *testing.T) {
	f, ref := approvedCheckout(t)

	f.listings.completeErr = errDB
	if _, err := f.svc.CompleteInvestmentPayment(context.Background(), ref); err == nil {
		t.Fatal("CompleteInvestmentPayment() error = nil, want the update failure")
	}
	if f.payments.records[ref].Applied {
		t.Fatal("record must stay unapplied when the investment did not complete")
	}

	f.listings.completeErr = nil
	rc, err := f.svc.CompleteInvestmentPayment(context.Background(), ref)
	if err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if rc.Duplicate {
		t.Error("retry of an unapplied payment is not a duplicate")
	}
	l := f.listings.docs["o1"]
	if !l.RequestBy("i1").InvestmentComplete || l.AmountInvested != 35000 || l.NoOfInvestors != 1 {
		t.Errorf("after retry complete=%v totals=%v/%d", l.RequestBy("i1").InvestmentComplete, l.AmountInvested, l.NoOfInvestors)
	}
	if !f.payments.records[ref].Applied {
		t.Error("record should be applied after the retry")
	}
	if len(f.out.queued) != 3 {
		t.Errorf("mails = %v, want investor, owner and admin", f.out.templates())
	}

	rc, err = f.svc.CompleteInvestmentPayment(context.Background(), ref)
	if err != nil || !rc.Duplicate {
		t.Errorf("third callback = %+v, %v; want duplicate", rc, err)
	}
}

func TestCompleteInvestmentPayment_RetryAfterUnmarkedRecord(t *testing.T) {
	f, ref := approvedCheckout(t)

	f.payments.markErr = errDB
	if _, err := f.svc.CompleteInvestmentPayment(context.Background(), ref); err != nil {
		t.Fatalf("CompleteInvestmentPayment() error = %v", err)
	}
	f.payments.markErr = nil

	if _, err := f.svc.CompleteInvestmentPayment(context.Background(), ref); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	l := f.listings.docs["o1"]
	if l.AmountInvested != 35000 || l.NoOfInvestors != 1 {
		t.Errorf("totals = %v/%d, want the investment counted once", l.AmountInvested, l.NoOfInvestors)
	}
	if !f.payments.records[ref].Applied {
		t.Error("record should be applied after the retry")
	}
}

func TestCompleteInvestmentPayment_Failures(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		f := requested(t)
		_ = f.svc.ApproveInvestment(context.Background(), "o1", "o1", "i1")
		_, _ = f.svc.StartInvestmentPayment(context.Background(), "i1", "", "o1")
		ref := f.gateway.settleLast(t, "failed")

		_, err := f.svc.CompleteInvestmentPayment(context.Background(), ref)
		wantKind(t, err, apperror.ErrPaymentRequired)
		if len(f.payments.records) != 0 {
			t.Error("a failed payment must not be recorded")
		}
		if f.listings.docs["o1"].RequestBy("i1").InvestmentComplete {
			t.Error("investment must stay incomplete")
		}
	})

	t.Run("verify error", func(t *testing.T) {
		f, ref := approvedCheckout(t)
		f.gateway.verifyErr = errDB
		_, err := f.svc.CompleteInvestmentPayment(context.Background(), ref)
		wantKind(t, err, apperror.ErrUpstream)
	})

	t.Run("missing reference", func(t *testing.T) {
		f := newMarketFixture(t)
		_, err := f.svc.CompleteInvestmentPayment(context.Background(), "")
		wantKind(t, err, apperror.ErrValidation)
	})

	t.Run("wrong flow", func(t *testing.T) {
		f, ref := approvedCheckout(t)
		f.gateway.txs[ref].Metadata = []byte(`{"flow":"subscription","user_id":"i1"}`)
		_, err := f.svc.CompleteInvestmentPayment(context.Background(), ref)
		wantKind(t, err, apperror.ErrValidation)
	})
}

// =========================================================================
// Interest, reviews, wishlist, portfolio
// =========================================================================

func TestToggleInterest(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")

	_, err := f.svc.ToggleInterest(context.Background(), "i1", "o1", true)
	wantKind(t, err, apperror.ErrForbidden)

	f.investor("i1")
	steps := []struct {
		interested      bool
		wantMarked      bool
		wantInterest    bool
		wantDisinterest bool
	}{
		{interested: true, wantMarked: true, wantInterest: true},
		{interested: false, wantMarked: true, wantDisinterest: true},
		{interested: false, wantMarked: false},
		{interested: true, wantMarked: true, wantInterest: true},
		{interested: true, wantMarked: false},
	}
	for i, st := range steps {
		marked, err := f.svc.ToggleInterest(context.Background(), "i1", "o1", st.interested)
		if err != nil {
			t.Fatalf("step %d: ToggleInterest() error = %v", i, err)
		}
		if marked != st.wantMarked {
			t.Errorf("step %d: marked = %v, want %v", i, marked, st.wantMarked)
		}
		v, err := f.svc.GetListing(context.Background(), "i1", "o1")
		if err != nil {
			t.Fatalf("step %d: GetListing() error = %v", i, err)
		}
		if v.Interested != st.wantInterest || v.Disinterested != st.wantDisinterest {
			t.Errorf("step %d: interest = %v/%v, want %v/%v", i, v.Interested, v.Disinterested, st.wantInterest, st.wantDisinterest)
		}
	}
}

func TestAddReview(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.investor("i1")

	for _, rating := range []int{0, 6} {
		_, err := f.svc.AddReview(context.Background(), "i1", "i1@example.com", "o1", rating, "ok")
		wantKind(t, err, apperror.ErrValidation)
	}
	_, err := f.svc.AddReview(context.Background(), "i1", "i1@example.com", "o1", 4, " ")
	wantKind(t, err, apperror.ErrValidation)

	r, err := f.svc.AddReview(context.Background(), "i1", "i1@example.com", "o1", 4, "Solid team")
	if err != nil {
		t.Fatalf("AddReview() error = %v", err)
	}
	if r.Reviewer != "Ada Lovelace" {
		t.Errorf("Reviewer = %q", r.Reviewer)
	}
	_, err = f.svc.AddReview(context.Background(), "i1", "i1@example.com", "o1", 5, "again")
	wantKind(t, err, apperror.ErrConflict)

	v, _ := f.svc.GetListing(context.Background(), "i1", "o1")
	if v.AverageRating != 4 || !v.Reviewed {
		t.Errorf("AverageRating/Reviewed = %v/%v", v.AverageRating, v.Reviewed)
	}
}

func TestWishlistAndPortfolio(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("pending")
	f.liveListing("paid")
	f.liveListing("unverified")
	f.listings.docs["pending"].Investors = []model.InvestorRequest{{InvestorID: "i1"}}
	f.listings.docs["paid"].Investors = []model.InvestorRequest{{InvestorID: "i1", Approved: true, InvestmentComplete: true}}
	f.listings.docs["unverified"].Verified = false
	f.listings.docs["unverified"].Investors = []model.InvestorRequest{{InvestorID: "i1", Approved: true, InvestmentComplete: true}}

	wish, err := f.svc.Wishlist(context.Background(), "i1")
	if err != nil {
		t.Fatalf("Wishlist() error = %v", err)
	}
	if len(wish) != 1 || wish[0].ID != "pending" {
		t.Errorf("wishlist = %v", wish)
	}

	port, err := f.svc.Portfolio(context.Background(), "i1")
	if err != nil {
		t.Fatalf("Portfolio() error = %v", err)
	}
	if len(port) != 1 || port[0].ID != "paid" {
		t.Errorf("portfolio = %v", port)
	}
}

func TestVerifyListing(t *testing.T) {
	f := newMarketFixture(t)
	f.liveListing("o1")
	f.listings.docs["o1"].Verified = false

	if err := f.svc.VerifyListing(context.Background(), "o1", true); err != nil {
		t.Fatalf("VerifyListing() error = %v", err)
	}
	if !f.listings.docs["o1"].Verified {
		t.Error("listing should be verified")
	}
	err := f.svc.VerifyListing(context.Background(), "ghost", true)
	wantKind(t, err, apperror.ErrNotFound)
}
