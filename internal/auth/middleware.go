package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/venturehub/internal/flash"
	"github.com/sakif/venturehub/internal/model"
)

// DefaultCookieName holds the session token.
const DefaultCookieName = "session"

// Flash messages shown on the login page.
const (
	MsgLoginRequired  = "Please log in to continue."
	MsgInvalidSession = "Invalid session, please log in again."
)

type contextKey string

const sessionKey contextKey = "session"

// UserChecker confirms that the user behind a valid token still exists.
type UserChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Sessions reads and writes the session cookie and provides the
// middleware that depends on it.
type Sessions struct {
	tokens *TokenService
	cookie string
	secure bool
	logger *slog.Logger
}

func NewSessions(tokens *TokenService, cookieName string, secure bool, logger *slog.Logger) *Sessions {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Sessions{tokens: tokens, cookie: cookieName, secure: secure, logger: logger}
}

// Start issues a token for sess and sets the cookie.
func (s *Sessions) Start(w http.ResponseWriter, sess model.Session) error {
	token, err := s.tokens.Issue(sess)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the cookie.
func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session carried by the request cookie.
func (s *Sessions) Read(r *http.Request) (*model.Session, error) {
	c, err := r.Cookie(s.cookie)
	if err != nil {
		return nil, err
	}
	return s.tokens.Validate(c.Value)
}

// RequireAuth answers 401 JSON when there is no valid session.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Read(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "unauthorized",
				"message": "valid authentication required",
			})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// RequirePage redirects to /login with a flash message when there is no
// valid session. With a non-nil checker, a session whose user is gone is
// cleared. A failing checker lets the request through so a provider outage
// does not sign everybody out.
func (s *Sessions) RequirePage(checker UserChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/login" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := s.Read(r)
			if err != nil {
				flash.Error(w, MsgLoginRequired)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if checker != nil {
				exists, err := checker.UserExists(r.Context(), sess.UserID)
				switch {
				case err != nil:
					s.logger.Warn("could not confirm session user",
						slog.String("user_id", sess.UserID),
						slog.String("error", err.Error()),
					)
				case !exists:
					s.Clear(w)
					flash.Error(w, MsgInvalidSession)
					http.Redirect(w, r, "/login", http.StatusSeeOther)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// OptionalAuth attaches the session when one is present and never blocks.
func (s *Sessions) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess, err := s.Read(r); err == nil {
			r = r.WithContext(WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

// WithSession stores sess in ctx.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the session set by the middleware.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*model.Session)
	return sess, ok && sess != nil && sess.UserID != ""
}

// UserIDFromContext returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return "", false
	}
	return sess.UserID, true
}

// BasicAuth guards operator routes. hash is the bcrypt hash of the
// configured password.
func BasicAuth(user, hash string, passwords *PasswordService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if ok && subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1 && passwords.Verify(hash, p) == nil {
				next.ServeHTTP(w, r)
				return
			}
			if ok {
				logger.Warn("basic auth rejected",
					slog.String("user", u),
					slog.String("path", r.URL.Path),
				)
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted Area"`)
			http.Error(w, "Unauthorized Access", http.StatusUnauthorized)
		})
	}
}
