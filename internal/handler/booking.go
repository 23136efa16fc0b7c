package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/service"
)

// BookingService is the user side of space and advisory bookings.
type BookingService interface {
	ListSpaces(ctx context.Context, userID, search string) ([]service.SpaceView, error)
	RequestSpace(ctx context.Context, userID, email string, in service.SpaceRequest) (*model.SpaceBooking, error)
	StartSpacePayment(ctx context.Context, userID, email, bookingID string) (*payment.Checkout, error)
	ListServices(ctx context.Context, search string) ([]model.AdvisoryService, error)
	Providers(ctx context.Context, serviceType, userID string) (*service.ProvidersView, error)
	RequestService(ctx context.Context, userID, email string, in service.ServiceRequest) (*model.ServiceBooking, error)
	StartServicePayment(ctx context.Context, userID, email, bookingID string) (*payment.Checkout, error)
}

// BookingHandler serves the collaborative space and advisory service
// actions.
//
//   - GET  /api/spaces, POST /api/spaces/bookings
//   - POST /api/spaces/bookings/{id}/payment
//   - GET  /api/services, GET /api/services/{type}/providers
//   - POST /api/services/bookings, POST /api/services/bookings/{id}/payment
type BookingHandler struct {
	svc    BookingService
	logger *slog.Logger
}

func NewBookingHandler(svc BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

// BookingResponse carries the booking and, once it is payable, the
// checkout to complete.
type BookingResponse struct {
	Message  string            `json:"message"`
	Booking  any               `json:"booking"`
	Checkout *CheckoutResponse `json:"checkout,omitempty"`
}

func (h *BookingHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logError(h.logger, msg, r, err)
	writeError(w, err)
}

func (h *BookingHandler) HandleListSpaces(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListSpaces(r.Context(), session(r).UserID, r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, "listing spaces failed", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleRequestSpace takes {"spaceId", "name", "startDate", "days",
// "additionalInfo"} and mails the owner an approval link.
func (h *BookingHandler) HandleRequestSpace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SpaceID        string `json:"spaceId"`
		Name           string `json:"name"`
		StartDate      string `json:"startDate"`
		Days           int    `json:"days"`
		AdditionalInfo string `json:"additionalInfo"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess := session(r)
	b, err := h.svc.RequestSpace(r.Context(), sess.UserID, sess.Email, service.SpaceRequest{
		SpaceID:        req.SpaceID,
		Name:           req.Name,
		StartDate:      req.StartDate,
		Days:           req.Days,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		h.fail(w, r, "space booking failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, BookingResponse{Message: service.MsgBookingRequested, Booking: b})
}

func (h *BookingHandler) HandleSpacePayment(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	co, err := h.svc.StartSpacePayment(r.Context(), sess.UserID, sess.Email, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "starting space payment failed", err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse(co))
}

func (h *BookingHandler) HandleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.ListServices(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, "listing services failed", err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *BookingHandler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Providers(r.Context(), r.PathValue("type"), session(r).UserID)
	if err != nil {
		h.fail(w, r, "listing providers failed", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRequestService books a provider. When the caller already holds an
// approved booking for the service type, the checkout opens straight away.
func (h *BookingHandler) HandleRequestService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServiceType    string `json:"serviceType"`
		ProviderName   string `json:"providerName"`
		Name           string `json:"name"`
		Date           string `json:"date"`
		Time           string `json:"time"`
		AdditionalInfo string `json:"additionalInfo"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess := session(r)
	b, err := h.svc.RequestService(r.Context(), sess.UserID, sess.Email, service.ServiceRequest{
		ServiceType:    req.ServiceType,
		ProviderName:   req.ProviderName,
		Name:           req.Name,
		Date:           req.Date,
		Time:           req.Time,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		h.fail(w, r, "service booking failed", err)
		return
	}

	if !b.ServiceProviderApproval {
		writeJSON(w, http.StatusCreated, BookingResponse{Message: service.MsgBookingRequested, Booking: b})
		return
	}

	co, err := h.svc.StartServicePayment(r.Context(), sess.UserID, sess.Email, b.ID)
	if err != nil {
		h.fail(w, r, "starting service payment failed", err)
		return
	}
	resp := checkoutResponse(co)
	writeJSON(w, http.StatusOK, BookingResponse{Message: "Redirecting to payment.", Booking: b, Checkout: &resp})
}

func (h *BookingHandler) HandleServicePayment(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	co, err := h.svc.StartServicePayment(r.Context(), sess.UserID, sess.Email, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "starting service payment failed", err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse(co))
}
