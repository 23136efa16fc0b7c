package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// AdminService groups the operator actions. Every method is idempotent.
type AdminService interface {
	VerifyListing(ctx context.Context, listingID string, verified bool) error
	ApproveKYC(ctx context.Context, userID string, approved bool) error
	ApproveInvestor(ctx context.Context, userID string, approved bool) error
	ApproveInvestee(ctx context.Context, userID string, approved bool) error
	SweepExpiring(ctx context.Context) (int, error)
}

// AdminHandler serves the basic-auth JSON actions under /admin.
//
//   - POST /admin/listings/{id}/verify
//   - POST /admin/kyc/{uid}/approve
//   - POST /admin/investors/{uid}/approve
//   - POST /admin/investees/{uid}/approve
//   - POST /admin/reminders/sweep
type AdminHandler struct {
	svc    AdminService
	logger *slog.Logger
}

func NewAdminHandler(svc AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

// decision reads an optional {"approved": bool} body. No body approves.
func decision(w http.ResponseWriter, r *http.Request) (bool, error) {
	if r.ContentLength == 0 {
		return true, nil
	}
	req := struct {
		Approved *bool `json:"approved"`
	}{}
	if err := decodeJSON(w, r, &req); err != nil {
		return false, err
	}
	if req.Approved == nil {
		return true, nil
	}
	return *req.Approved, nil
}

func (h *AdminHandler) apply(w http.ResponseWriter, r *http.Request, key string, fn func(ctx context.Context, id string, ok bool) error) {
	approved, err := decision(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue(key)
	if err := fn(r.Context(), id, approved); err != nil {
		logError(h.logger, "admin action failed", r, err)
		writeError(w, err)
		return
	}
	h.logger.Info("admin action",
		slog.String("path", r.URL.Path),
		slog.String("id", id),
		slog.Bool("approved", approved),
	)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "approved": approved})
}

func (h *AdminHandler) HandleVerifyListing(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "id", h.svc.VerifyListing)
}

func (h *AdminHandler) HandleApproveKYC(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "uid", h.svc.ApproveKYC)
}

func (h *AdminHandler) HandleApproveInvestor(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "uid", h.svc.ApproveInvestor)
}

func (h *AdminHandler) HandleApproveInvestee(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "uid", h.svc.ApproveInvestee)
}

// HandleSweep runs the reminder sweep now instead of waiting for cron.
func (h *AdminHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	sent, err := h.svc.SweepExpiring(r.Context())
	if err != nil {
		logError(h.logger, "reminder sweep failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
