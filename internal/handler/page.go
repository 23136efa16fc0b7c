package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/flash"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/service"
)

// DashboardSource provides what the dashboard page summarizes.
type DashboardSource interface {
	KYCStatus(ctx context.Context, userID string) (string, error)
	Status(ctx context.Context, userID string) (*service.SubscriptionStatus, error)
}

type dashboardSource struct {
	apps *service.ApplicationService
	subs *service.SubscriptionService
}

func (d dashboardSource) KYCStatus(ctx context.Context, userID string) (string, error) {
	return d.apps.KYCStatus(ctx, userID)
}

func (d dashboardSource) Status(ctx context.Context, userID string) (*service.SubscriptionStatus, error) {
	return d.subs.Status(ctx, userID)
}

// NewDashboardSource joins the two services the dashboard reads from.
func NewDashboardSource(apps *service.ApplicationService, subs *service.SubscriptionService) DashboardSource {
	return dashboardSource{apps: apps, subs: subs}
}

// PageHandler serves the home page and the signed-in dashboard.
type PageHandler struct {
	dashboard DashboardSource
	pages     *Renderer
	logger    *slog.Logger
}

func NewPageHandler(dashboard DashboardSource, pages *Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{dashboard: dashboard, pages: pages, logger: logger}
}

// HandleHome renders the landing page.
//
// HTTP: GET /
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, "home", Page{Title: "VentureHub"})
}

// HandleDashboard renders the dashboard. A failing source only blanks its
// panel.
//
// HTTP: GET /dashboard
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	data := map[string]any{"KYCStatus": model.KYCStatusMissing}

	if status, err := h.dashboard.KYCStatus(r.Context(), sess.UserID); err != nil {
		h.logger.Warn("dashboard: kyc status", slog.String("user_id", sess.UserID), slog.String("error", err.Error()))
	} else {
		data["KYCStatus"] = status
	}
	if sub, err := h.dashboard.Status(r.Context(), sess.UserID); err != nil {
		h.logger.Warn("dashboard: subscription status", slog.String("user_id", sess.UserID), slog.String("error", err.Error()))
	} else {
		data["Subscription"] = sub
	}

	h.pages.Render(w, r, http.StatusOK, "dashboard", Page{Title: "Dashboard", Data: data})
}

// BookingDecider is the operator side of the booking workflow.
type BookingDecider interface {
	SpaceBooking(ctx context.Context, id string) (*model.SpaceBooking, error)
	DecideSpaceBooking(ctx context.Context, id string, approve bool) (string, error)
	ServiceBooking(ctx context.Context, id string) (*model.ServiceBooking, error)
	DecideServiceBooking(ctx context.Context, id string, approve bool) (string, error)
}

const msgDecisionFailed = "Action failed. Please try again."

// ApprovalHandler serves the basic-auth approval pages that space owners
// and service providers reach from the booking request mail.
//
//   - GET/POST /approve-booking/{id}
//   - GET/POST /approve-service-booking/{id}
type ApprovalHandler struct {
	bookings BookingDecider
	pages    *Renderer
	logger   *slog.Logger
}

func NewApprovalHandler(bookings BookingDecider, pages *Renderer, logger *slog.Logger) *ApprovalHandler {
	return &ApprovalHandler{bookings: bookings, pages: pages, logger: logger}
}

// HandleSpaceForm renders the approve/reject form of a space booking.
func (h *ApprovalHandler) HandleSpaceForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := h.bookings.SpaceBooking(r.Context(), id)
	if err != nil {
		h.renderMissing(w, r, "approve-booking", id, err)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "approve-booking", Page{
		Title: "Approve booking",
		Data:  map[string]any{"ID": id, "Booking": b},
	})
}

// HandleSpaceDecision records the owner's decision. The form posts
// status=approve or status=reject.
func (h *ApprovalHandler) HandleSpaceDecision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	msg, err := h.bookings.DecideSpaceBooking(r.Context(), id, r.PostFormValue("status") == "approve")
	h.afterDecision(w, r, "/approve-booking/"+id, msg, err)
}

// HandleServiceForm renders the approve/reject form of a service booking.
func (h *ApprovalHandler) HandleServiceForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b, err := h.bookings.ServiceBooking(r.Context(), id)
	if err != nil {
		h.renderMissing(w, r, "approve-service-booking", id, err)
		return
	}
	h.pages.Render(w, r, http.StatusOK, "approve-service-booking", Page{
		Title: "Approve service booking",
		Data:  map[string]any{"ID": id, "Booking": b},
	})
}

// HandleServiceDecision records the provider's decision.
func (h *ApprovalHandler) HandleServiceDecision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	msg, err := h.bookings.DecideServiceBooking(r.Context(), id, r.PostFormValue("status") == "approve")
	h.afterDecision(w, r, "/approve-service-booking/"+id, msg, err)
}

func (h *ApprovalHandler) afterDecision(w http.ResponseWriter, r *http.Request, back, msg string, err error) {
	if err != nil {
		h.logger.Error("booking decision failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		text := msgDecisionFailed
		if errors.Is(err, apperror.ErrNotFound) {
			text = apperror.MessageOf(err, msgDecisionFailed)
		}
		redirectWith(w, r, back, flash.KindError, text)
		return
	}
	redirectWith(w, r, back, flash.KindSuccess, msg)
}

func (h *ApprovalHandler) renderMissing(w http.ResponseWriter, r *http.Request, page, id string, err error) {
	status, _ := statusOf(err)
	logError(h.logger, "loading booking failed", r, err)
	h.pages.Render(w, r, status, page, Page{
		Title: "Booking not found",
		Flash: &flash.Message{Kind: flash.KindError, Text: apperror.MessageOf(err, msgDecisionFailed)},
		Data:  map[string]any{"ID": id},
	})
}
