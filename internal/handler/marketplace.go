package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/service"
)

// MarketplaceService is the listing and investment workflow.
type MarketplaceService interface {
	CanCreateListing(ctx context.Context, userID string) error
	CreateListing(ctx context.Context, userID string, in service.ListingInput) (*model.Listing, error)
	UpdateListing(ctx context.Context, userID, listingID string, in service.ListingInput) (*model.Listing, error)
	ListListings(ctx context.Context, userID, search string) ([]service.ListingView, error)
	GetListing(ctx context.Context, userID, listingID string) (*service.ListingView, error)
	RequestInvestment(ctx context.Context, userID, email, listingID string, in service.InvestmentInput) (*model.InvestorRequest, error)
	ApproveInvestment(ctx context.Context, ownerID, listingID, investorID string) error
	RejectInvestment(ctx context.Context, ownerID, listingID, investorID string) error
	StartInvestmentPayment(ctx context.Context, userID, email, listingID string) (*payment.Checkout, error)
	ToggleInterest(ctx context.Context, userID, listingID string, interested bool) (bool, error)
	AddReview(ctx context.Context, userID, email, listingID string, rating int, text string) (*model.Review, error)
	Wishlist(ctx context.Context, userID string) ([]service.ListingView, error)
	Portfolio(ctx context.Context, userID string) ([]service.ListingView, error)
	Investors(ctx context.Context, ownerID string) (*model.Listing, error)
}

// MarketplaceHandler serves the listing and investment actions.
//
//   - GET  /api/listings, GET /api/listings/eligibility, POST /api/listings
//   - GET  /api/listings/{id}, PUT /api/listings/{id}
//   - POST /api/listings/{id}/investments
//   - POST /api/listings/{id}/investments/{investorID}/approve|reject
//   - POST /api/listings/{id}/payment
//   - PUT  /api/listings/{id}/interest, POST /api/listings/{id}/reviews
//   - GET  /api/wishlist, /api/portfolio, /api/investors
type MarketplaceHandler struct {
	svc    MarketplaceService
	logger *slog.Logger
}

func NewMarketplaceHandler(svc MarketplaceService, logger *slog.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{svc: svc, logger: logger}
}

// CheckoutResponse tells the browser where to complete a payment.
type CheckoutResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"`
}

func checkoutResponse(c *payment.Checkout) CheckoutResponse {
	return CheckoutResponse{AuthorizationURL: c.AuthorizationURL, Reference: c.Reference}
}

func formFloat(r *http.Request, field string) (float64, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, apperror.ValidationFailed(field, fmt.Sprintf("The %s field must be a number.", field))
	}
	return f, nil
}

// listingInput reads the multipart listing form. More-info answers come as
// moreInfo[<key>] fields.
func listingInput(r *http.Request) (service.ListingInput, error) {
	var in service.ListingInput
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return in, apperror.ValidationFailed("body", "Invalid multipart form.")
	}

	in.Title = r.FormValue("title")
	in.Description = r.FormValue("description")
	in.Industry = r.FormValue("industry")

	var err error
	if in.CompanyAsk, err = formFloat(r, "companyAsk"); err != nil {
		return in, err
	}
	if in.Earnings, err = formFloat(r, "earnings"); err != nil {
		return in, err
	}
	if in.Revenue, err = formFloat(r, "revenue"); err != nil {
		return in, err
	}

	in.MoreInfo = map[string]string{}
	for _, key := range model.MoreInfoKeys {
		if v := r.FormValue("moreInfo[" + key + "]"); v != "" {
			in.MoreInfo[key] = v
		}
	}
	in.Images = formFiles(r, "images")
	in.PitchDeck = formFile(r, "pitchDeck")
	return in, nil
}

func (h *MarketplaceHandler) respond(w http.ResponseWriter, r *http.Request, msg string, status int, v any, err error) {
	if err != nil {
		logError(h.logger, msg, r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, status, v)
}

// HandleList returns the visible listings, the caller's own first.
func (h *MarketplaceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListListings(r.Context(), session(r).UserID, r.URL.Query().Get("search"))
	h.respond(w, r, "listing marketplace failed", http.StatusOK, views, err)
}

// HandleEligibility answers 200 when the caller may create a listing and
// otherwise the gate that blocks them.
func (h *MarketplaceHandler) HandleEligibility(w http.ResponseWriter, r *http.Request) {
	err := h.svc.CanCreateListing(r.Context(), session(r).UserID)
	h.respond(w, r, "listing eligibility failed", http.StatusOK, map[string]bool{"allowed": true}, err)
}

func (h *MarketplaceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := listingInput(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := h.svc.CreateListing(r.Context(), session(r).UserID, in)
	h.respond(w, r, "creating listing failed", http.StatusCreated, l, err)
}

func (h *MarketplaceHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := listingInput(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := h.svc.UpdateListing(r.Context(), session(r).UserID, r.PathValue("id"), in)
	h.respond(w, r, "updating listing failed", http.StatusOK, l, err)
}

func (h *MarketplaceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetListing(r.Context(), session(r).UserID, r.PathValue("id"))
	h.respond(w, r, "loading listing failed", http.StatusOK, view, err)
}

// HandleRequestInvestment takes {"equity": 5, "valueAddition": "..."}.
func (h *MarketplaceHandler) HandleRequestInvestment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Equity        float64 `json:"equity"`
		ValueAddition string  `json:"valueAddition"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess := session(r)
	ir, err := h.svc.RequestInvestment(r.Context(), sess.UserID, sess.Email, r.PathValue("id"), service.InvestmentInput{
		Equity:        req.Equity,
		ValueAddition: req.ValueAddition,
	})
	h.respond(w, r, "investment request failed", http.StatusCreated, ir, err)
}

func (h *MarketplaceHandler) HandleApproveInvestment(w http.ResponseWriter, r *http.Request) {
	err := h.svc.ApproveInvestment(r.Context(), session(r).UserID, r.PathValue("id"), r.PathValue("investorID"))
	h.respond(w, r, "approving investment failed", http.StatusOK, MessageResponse{Message: "Investment request approved."}, err)
}

func (h *MarketplaceHandler) HandleRejectInvestment(w http.ResponseWriter, r *http.Request) {
	err := h.svc.RejectInvestment(r.Context(), session(r).UserID, r.PathValue("id"), r.PathValue("investorID"))
	h.respond(w, r, "rejecting investment failed", http.StatusOK, MessageResponse{Message: "Investment request rejected."}, err)
}

// HandleStartPayment opens the checkout for the caller's approved request.
func (h *MarketplaceHandler) HandleStartPayment(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	co, err := h.svc.StartInvestmentPayment(r.Context(), sess.UserID, sess.Email, r.PathValue("id"))
	if err != nil {
		logError(h.logger, "starting investment payment failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse(co))
}

// HandleInterest takes {"interested": true|false} naming the button that
// was clicked and answers whether that mark is now set.
func (h *MarketplaceHandler) HandleInterest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Interested bool `json:"interested"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	marked, err := h.svc.ToggleInterest(r.Context(), session(r).UserID, r.PathValue("id"), req.Interested)
	h.respond(w, r, "toggling interest failed", http.StatusOK, map[string]bool{"interested": req.Interested, "marked": marked}, err)
}

// HandleReview takes {"rating": 1-5, "text": "..."}.
func (h *MarketplaceHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rating int    `json:"rating"`
		Text   string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess := session(r)
	rev, err := h.svc.AddReview(r.Context(), sess.UserID, sess.Email, r.PathValue("id"), req.Rating, req.Text)
	h.respond(w, r, "adding review failed", http.StatusCreated, rev, err)
}

func (h *MarketplaceHandler) HandleWishlist(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Wishlist(r.Context(), session(r).UserID)
	h.respond(w, r, "loading wishlist failed", http.StatusOK, views, err)
}

func (h *MarketplaceHandler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.Portfolio(r.Context(), session(r).UserID)
	h.respond(w, r, "loading portfolio failed", http.StatusOK, views, err)
}

// HandleInvestors returns the caller's own listing with every request on it.
func (h *MarketplaceHandler) HandleInvestors(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Investors(r.Context(), session(r).UserID)
	h.respond(w, r, "loading investors failed", http.StatusOK, l, err)
}
