package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/auth"
	"github.com/sakif/venturehub/internal/flash"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/service"
)

const stateCookie = "oauth_state"

// AuthService is what the login, register and social pages need.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	SocialLogin(ctx context.Context, su *auth.SocialUser) (*model.Session, error)
}

// SocialProvider runs the social login code flow.
type SocialProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.SocialUser, error)
}

// AuthHandler manages the email/password pages, the social login flow and
// the session cookie.
//
//   - GET/POST /login, GET/POST /register
//   - POST /password/reset, POST /logout
//   - GET /auth/social/login, GET /auth/social/callback
type AuthHandler struct {
	svc      AuthService
	social   SocialProvider // nil disables social login
	sessions *auth.Sessions
	pages    *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(svc AuthService, social SocialProvider, sessions *auth.Sessions, pages *Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:      svc,
		social:   social,
		sessions: sessions,
		pages:    pages,
		logger:   logger,
	}
}

// HandleLoginPage renders the login form.
//
// HTTP: GET /login
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, "login", Page{
		Title: "Log in",
		Data:  map[string]any{"Social": h.social != nil},
	})
}

// HandleRegisterPage renders the register form.
//
// HTTP: GET /register
func (h *AuthHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, r, http.StatusOK, "register", Page{Title: "Register"})
}

// HandleRegister creates the account and sends the user to the login page.
// Validation errors re-render the form with the offending field marked.
//
// HTTP: POST /register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")

	_, err := h.svc.Register(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		var appErr *apperror.AppError
		if errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr) {
			h.pages.Render(w, r, http.StatusUnprocessableEntity, "register", Page{
				Title:  "Register",
				Errors: map[string]string{appErr.Field: appErr.Message},
				Form:   map[string]string{"email": email},
			})
			return
		}
		logError(h.logger, "register failed", r, err)
		redirectWith(w, r, "/register", flash.KindError,
			apperror.MessageOf(err, "An error occurred during registration. Please try again later."))
		return
	}

	redirectWith(w, r, "/login", flash.KindSuccess, service.MsgRegistered)
}

// HandleLogin signs in, starts the session cookie and goes to the dashboard.
//
// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Login(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		logError(h.logger, "login failed", r, err)
		redirectWith(w, r, "/login", flash.KindError, apperror.MessageOf(err, service.MsgAuthUnavailable))
		return
	}

	if err := h.sessions.Start(w, *sess); err != nil {
		h.logger.Error("issuing session failed",
			slog.String("user_id", sess.UserID),
			slog.String("error", err.Error()),
		)
		redirectWith(w, r, "/login", flash.KindError, service.MsgAuthUnavailable)
		return
	}

	redirectWith(w, r, "/dashboard", flash.KindSuccess, service.MsgLoggedIn)
}

// HandlePasswordReset mails a reset link through the identity provider.
//
// HTTP: POST /password/reset
func (h *AuthHandler) HandlePasswordReset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.SendPasswordReset(r.Context(), r.PostFormValue("email")); err != nil {
		logError(h.logger, "password reset failed", r, err)
		redirectWith(w, r, "/login", flash.KindError, apperror.MessageOf(err, service.MsgAuthUnavailable))
		return
	}
	redirectWith(w, r, "/login", flash.KindSuccess, service.MsgResetSent)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	redirectWith(w, r, "/login", flash.KindSuccess, service.MsgLoggedOut)
}

// HandleSocialLogin redirects to the identity provider. A random state is
// kept in a short-lived cookie and checked on the callback.
//
// HTTP: GET /auth/social/login
func (h *AuthHandler) HandleSocialLogin(w http.ResponseWriter, r *http.Request) {
	if h.social == nil {
		http.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.social.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleSocialCallback completes the social login.
//
// HTTP: GET /auth/social/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter against the cookie
//  2. Exchange the code for a verified identity
//  3. Upsert the user and start the session
func (h *AuthHandler) HandleSocialCallback(w http.ResponseWriter, r *http.Request) {
	if h.social == nil {
		http.NotFound(w, r)
		return
	}

	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || r.URL.Query().Get("state") != c.Value {
		h.logger.Warn("social callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if denied := r.URL.Query().Get("error"); denied != "" {
		h.logger.Info("social callback: authorization denied", slog.String("error", denied))
		redirectWith(w, r, "/login", flash.KindError, "Social login was cancelled.")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	su, err := h.social.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("social callback: exchange failed", slog.String("error", err.Error()))
		redirectWith(w, r, "/login", flash.KindError, service.MsgAuthUnavailable)
		return
	}

	sess, err := h.svc.SocialLogin(r.Context(), su)
	if err == nil {
		err = h.sessions.Start(w, *sess)
	}
	if err != nil {
		logError(h.logger, "social login failed", r, err)
		redirectWith(w, r, "/login", flash.KindError, apperror.MessageOf(err, service.MsgAuthUnavailable))
		return
	}

	redirectWith(w, r, "/dashboard", flash.KindSuccess, service.MsgLoggedIn)
}
