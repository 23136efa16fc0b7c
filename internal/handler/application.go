package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/service"
	"github.com/sakif/venturehub/internal/storage"
)

// maxMultipartMemory is kept in memory per upload request; the rest
// spills to temporary files.
const maxMultipartMemory = 32 << 20

// ApplicationService covers the investor, investee, KYC and business
// profile forms.
type ApplicationService interface {
	SubmitInvestor(ctx context.Context, userID string, in *model.InvestorApplication, files service.InvestorFiles) (*model.InvestorApplication, error)
	SubmitInvestee(ctx context.Context, userID string, in *model.InvesteeApplication) (*model.InvesteeApplication, error)
	GetInvestor(ctx context.Context, userID string) (*model.InvestorApplication, error)
	GetInvestee(ctx context.Context, userID string) (*model.InvesteeApplication, error)
	SubmitKYC(ctx context.Context, userID, email string, files service.KYCFiles) (*model.KYC, error)
	KYCStatus(ctx context.Context, userID string) (string, error)
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	SaveProfile(ctx context.Context, userID, email string, sections map[string]map[string]any) (*model.Profile, error)
}

// ApplicationHandler serves the application, KYC and profile actions.
//
//   - GET/POST /api/applications/investor
//   - GET/POST /api/applications/investee
//   - GET/POST /api/kyc
//   - GET/PUT  /api/profile
type ApplicationHandler struct {
	svc    ApplicationService
	logger *slog.Logger
}

func NewApplicationHandler(svc ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, logger: logger}
}

// formFile returns the upload under field, or nil when none was sent.
func formFile(r *http.Request, field string) *storage.File {
	if r.MultipartForm == nil {
		return nil
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil
	}
	return &storage.File{Header: headers[0], Field: field}
}

// formFiles returns every upload under field.
func formFiles(r *http.Request, field string) []storage.File {
	if r.MultipartForm == nil {
		return nil
	}
	var out []storage.File
	for _, fh := range r.MultipartForm.File[field] {
		out = append(out, storage.File{Header: fh, Field: field})
	}
	return out
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// decodeForm reads a JSON document either from the body or, on multipart
// requests, from the "data" form value next to the uploads.
func decodeForm(w http.ResponseWriter, r *http.Request, v any) error {
	if !isMultipart(r) {
		return decodeJSON(w, r, v)
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return apperror.ValidationFailed("body", "Invalid multipart form.")
	}
	if err := json.Unmarshal([]byte(r.FormValue("data")), v); err != nil {
		return apperror.ValidationFailed("data", "The data field must be a JSON document.")
	}
	return nil
}

func (h *ApplicationHandler) HandleGetInvestor(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.GetInvestor(r.Context(), session(r).UserID)
	if err != nil {
		logError(h.logger, "loading investor application failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleSubmitInvestor accepts the investor form with its two optional
// documents, sourceOfFunds and proofOfResidence.
func (h *ApplicationHandler) HandleSubmitInvestor(w http.ResponseWriter, r *http.Request) {
	var in model.InvestorApplication
	if err := decodeForm(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	app, err := h.svc.SubmitInvestor(r.Context(), session(r).UserID, &in, service.InvestorFiles{
		SourceOfFunds:    formFile(r, "sourceOfFunds"),
		ProofOfResidence: formFile(r, "proofOfResidence"),
	})
	if err != nil {
		logError(h.logger, "investor application failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) HandleGetInvestee(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.GetInvestee(r.Context(), session(r).UserID)
	if err != nil {
		logError(h.logger, "loading investee application failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) HandleSubmitInvestee(w http.ResponseWriter, r *http.Request) {
	var in model.InvesteeApplication
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	app, err := h.svc.SubmitInvestee(r.Context(), session(r).UserID, &in)
	if err != nil {
		logError(h.logger, "investee application failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// HandleKYCStatus answers {"status": "not_submitted"|"pending"|"approved"}.
func (h *ApplicationHandler) HandleKYCStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.KYCStatus(r.Context(), session(r).UserID)
	if err != nil {
		logError(h.logger, "kyc status failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// HandleSubmitKYC takes the multipart idPhoto and profilePhoto uploads.
func (h *ApplicationHandler) HandleSubmitKYC(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, apperror.ValidationFailed("idPhoto", "The idPhoto field is required."))
		return
	}

	sess := session(r)
	k, err := h.svc.SubmitKYC(r.Context(), sess.UserID, sess.Email, service.KYCFiles{
		IDPhoto:      formFile(r, "idPhoto"),
		ProfilePhoto: formFile(r, "profilePhoto"),
	})
	if err != nil {
		logError(h.logger, "kyc submission failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, k)
}

// HandleGetProfile returns the business profile with its question schema.
func (h *ApplicationHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProfile(r.Context(), session(r).UserID)
	if err != nil {
		logError(h.logger, "loading profile failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile": p,
		"schema":  model.ProfileSchema,
	})
}

// HandleSaveProfile merges {"sections": {...}} into the stored profile.
func (h *ApplicationHandler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sections map[string]map[string]any `json:"sections"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	sess := session(r)
	p, err := h.svc.SaveProfile(r.Context(), sess.UserID, sess.Email, req.Sections)
	if err != nil {
		logError(h.logger, "saving profile failed", r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
