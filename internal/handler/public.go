package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/venturehub/internal/service"
)

// ContactSubmitter delivers the contact form.
type ContactSubmitter interface {
	Submit(ctx context.Context, f service.ContactForm) error
}

// PublicHandler serves the unauthenticated JSON actions.
//
//   - POST /api/contact
//   - POST /api/log-checkpoint
type PublicHandler struct {
	contact ContactSubmitter
	logger  *slog.Logger
}

func NewPublicHandler(contact ContactSubmitter, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{contact: contact, logger: logger}
}

// HandleContact takes the contact form as JSON.
func (h *PublicHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var f service.ContactForm
	if err := decodeJSON(w, r, &f); err != nil {
		writeError(w, err)
		return
	}
	if err := h.contact.Submit(r.Context(), f); err != nil {
		logError(h.logger, "contact form failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: service.MsgContactSent})
}

// maxCheckpointLength bounds what a client can write into the log.
const maxCheckpointLength = 200

// HandleLogCheckpoint records a client-side progress marker, e.g. a step
// reached in a long form, in the server log.
func (h *PublicHandler) HandleLogCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Checkpoint string         `json:"checkpoint"`
		Data       map[string]any `json:"data"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Checkpoint == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "The checkpoint field is required.",
			Field:   "checkpoint",
		})
		return
	}
	if len(req.Checkpoint) > maxCheckpointLength {
		req.Checkpoint = req.Checkpoint[:maxCheckpointLength]
	}

	h.logger.Info("client checkpoint",
		slog.String("checkpoint", req.Checkpoint),
		slog.Any("data", req.Data),
		slog.String("remote", r.RemoteAddr),
	)
	w.WriteHeader(http.StatusNoContent)
}
