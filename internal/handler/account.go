package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/service"
)

// SubscriptionService reports and renews the two subscriptions.
type SubscriptionService interface {
	Status(ctx context.Context, userID string) (*service.SubscriptionStatus, error)
	StartRenewal(ctx context.Context, userID, email, plan string) (*payment.Checkout, error)
}

// SubscriptionHandler serves GET /api/subscriptions and
// POST /api/subscriptions/renew.
type SubscriptionHandler struct {
	svc    SubscriptionService
	logger *slog.Logger
}

func NewSubscriptionHandler(svc SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger}
}

func (h *SubscriptionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Status(r.Context(), session(r).UserID)
	if err != nil {
		logError(h.logger, "subscription status failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleRenew takes {"plan": "investor"|"listing"}.
func (h *SubscriptionHandler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan string `json:"plan"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess := session(r)
	co, err := h.svc.StartRenewal(r.Context(), sess.UserID, sess.Email, req.Plan)
	if err != nil {
		logError(h.logger, "starting renewal failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse(co))
}

// PaymentService is the generic checkout.
type PaymentService interface {
	Initialize(ctx context.Context, userID, email string, amount float64, metadata map[string]any) (*payment.Checkout, error)
}

// PaymentHandler serves POST /api/payment/initialize.
type PaymentHandler struct {
	svc    PaymentService
	logger *slog.Logger
}

func NewPaymentHandler(svc PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, logger: logger}
}

// HandleInitialize takes {"amount", "email", "metadata"}. The email
// defaults to the session's.
func (h *PaymentHandler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount   float64        `json:"amount"`
		Email    string         `json:"email"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess := session(r)
	if req.Email == "" {
		req.Email = sess.Email
	}
	co, err := h.svc.Initialize(r.Context(), sess.UserID, req.Email, req.Amount, req.Metadata)
	if err != nil {
		logError(h.logger, "payment initialization failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkoutResponse(co))
}

// CareerService manages job postings.
type CareerService interface {
	Create(ctx context.Context, userID string, in service.JobInput) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	List(ctx context.Context, limit, offset int) ([]model.Job, error)
	Update(ctx context.Context, userID, id string, in service.JobInput) (*model.Job, error)
	Delete(ctx context.Context, userID, id string) error
}

// CareerHandler serves /api/careers.
type CareerHandler struct {
	svc    CareerService
	logger *slog.Logger
}

func NewCareerHandler(svc CareerService, logger *slog.Logger) *CareerHandler {
	return &CareerHandler{svc: svc, logger: logger}
}

func (h *CareerHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logError(h.logger, "careers action failed", r, err)
	writeError(w, err)
}

// HandleList supports ?limit=&offset= paging.
func (h *CareerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.List(r.Context(), queryInt(r, "limit", service.DefaultJobLimit), queryInt(r, "offset", 0))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *CareerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *CareerHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.JobInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	job, err := h.svc.Create(r.Context(), session(r).UserID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (h *CareerHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in service.JobInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	job, err := h.svc.Update(r.Context(), session(r).UserID, r.PathValue("id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *CareerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), session(r).UserID, r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
