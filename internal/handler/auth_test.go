package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/auth"
	"github.com/sakif/venturehub/internal/flash"
	"github.com/sakif/venturehub/internal/handler"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/service"
)

// MockAuthService captures credentials and returns canned results.
type MockAuthService struct {
	CapturedEmail    string
	CapturedPassword string
	CapturedSocial   *auth.SocialUser

	ReturnSession *model.Session
	ReturnErr     error
}

func (m *MockAuthService) Register(_ context.Context, email, password string) (*model.User, error) {
	m.CapturedEmail, m.CapturedPassword = email, password
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return &model.User{ID: "user1", Email: email}, nil
}

func (m *MockAuthService) Login(_ context.Context, email, password string) (*model.Session, error) {
	m.CapturedEmail, m.CapturedPassword = email, password
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnSession, nil
}

func (m *MockAuthService) SendPasswordReset(_ context.Context, email string) error {
	m.CapturedEmail = email
	return m.ReturnErr
}

func (m *MockAuthService) SocialLogin(_ context.Context, su *auth.SocialUser) (*model.Session, error) {
	m.CapturedSocial = su
	if m.ReturnErr != nil {
		return nil, m.ReturnErr
	}
	return m.ReturnSession, nil
}

type MockSocial struct {
	CapturedState string
	CapturedCode  string
	ReturnUser    *auth.SocialUser
	ReturnErr     error
}

func (m *MockSocial) AuthURL(state string) string {
	m.CapturedState = state
	return "https://id.venturehub.test/auth?state=" + state
}

func (m *MockSocial) Exchange(_ context.Context, code string) (*auth.SocialUser, error) {
	m.CapturedCode = code
	return m.ReturnUser, m.ReturnErr
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func newAuthHandler(t *testing.T, svc *MockAuthService, social handler.SocialProvider) (*handler.AuthHandler, *auth.TokenService) {
	t.Helper()
	sessions, tokens := testSessions(t)
	return handler.NewAuthHandler(svc, social, sessions, testPages(t), testLogger()), tokens
}

func TestAuthHandler_Pages(t *testing.T) {
	t.Run("login without social", func(t *testing.T) {
		h, _ := newAuthHandler(t, &MockAuthService{}, nil)
		rr := httptest.NewRecorder()

		h.HandleLoginPage(rr, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "login", rr.Body.String())
		assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	})

	t.Run("login with social", func(t *testing.T) {
		h, _ := newAuthHandler(t, &MockAuthService{}, &MockSocial{})
		rr := httptest.NewRecorder()

		h.HandleLoginPage(rr, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, "login social", rr.Body.String())
	})

	t.Run("register shows pending flash once", func(t *testing.T) {
		h, _ := newAuthHandler(t, &MockAuthService{}, nil)
		seed := httptest.NewRecorder()
		flash.Error(seed, "Something went wrong")

		req := httptest.NewRequest(http.MethodGet, "/register", nil)
		req.AddCookie(cookieNamed(seed, "flash"))
		rr := httptest.NewRecorder()
		h.HandleRegisterPage(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "[error: Something went wrong]")
		cleared := cookieNamed(rr, "flash")
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
	})
}

func TestAuthHandler_HandleRegister(t *testing.T) {
	t.Run("success redirects to login", func(t *testing.T) {
		svc := &MockAuthService{}
		h, _ := newAuthHandler(t, svc, nil)
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, postForm("/register", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}}))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
		assert.Equal(t, &flash.Message{Kind: flash.KindSuccess, Text: service.MsgRegistered}, flashOf(t, rr))
		assert.Equal(t, "ada@example.com", svc.CapturedEmail)
		assert.Equal(t, "secret1", svc.CapturedPassword)
	})

	t.Run("validation error re-renders the form", func(t *testing.T) {
		svc := &MockAuthService{ReturnErr: apperror.ValidationFailed("password", "The password field must be at least 6 characters.")}
		h, _ := newAuthHandler(t, svc, nil)
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, postForm("/register", url.Values{"email": {"ada@example.com"}, "password": {"abc"}}))

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "register email=ada@example.com error=The password field must be at least 6 characters.", rr.Body.String())
	})

	t.Run("taken email flashes and returns to register", func(t *testing.T) {
		svc := &MockAuthService{ReturnErr: apperror.ConflictMessage(service.MsgEmailTaken)}
		h, _ := newAuthHandler(t, svc, nil)
		rr := httptest.NewRecorder()

		h.HandleRegister(rr, postForm("/register", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}}))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/register", rr.Header().Get("Location"))
		assert.Equal(t, service.MsgEmailTaken, flashOf(t, rr).Text)
	})
}

func TestAuthHandler_HandleLogin(t *testing.T) {
	t.Run("success sets the session cookie", func(t *testing.T) {
		svc := &MockAuthService{ReturnSession: &model.Session{UserID: "user1", Email: "ada@example.com", Provider: "password"}}
		h, tokens := newAuthHandler(t, svc, nil)
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, postForm("/login", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}}))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
		assert.Equal(t, service.MsgLoggedIn, flashOf(t, rr).Text)

		c := cookieNamed(rr, "session")
		require.NotNil(t, c)
		assert.True(t, c.HttpOnly)
		sess, err := tokens.Validate(c.Value)
		require.NoError(t, err)
		assert.Equal(t, "user1", sess.UserID)
		assert.Equal(t, "ada@example.com", sess.Email)
	})

	t.Run("bad credentials flash the reason", func(t *testing.T) {
		svc := &MockAuthService{ReturnErr: apperror.Unauthorized(service.MsgInvalidLogin)}
		h, _ := newAuthHandler(t, svc, nil)
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, postForm("/login", url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}))

		assert.Equal(t, "/login", rr.Header().Get("Location"))
		assert.Equal(t, &flash.Message{Kind: flash.KindError, Text: service.MsgInvalidLogin}, flashOf(t, rr))
		assert.Nil(t, cookieNamed(rr, "session"))
	})

	t.Run("unexpected failure uses the generic message", func(t *testing.T) {
		svc := &MockAuthService{ReturnErr: errors.New("dial tcp: connection refused")}
		h, _ := newAuthHandler(t, svc, nil)
		rr := httptest.NewRecorder()

		h.HandleLogin(rr, postForm("/login", url.Values{"email": {"ada@example.com"}, "password": {"secret1"}}))

		assert.Equal(t, service.MsgAuthUnavailable, flashOf(t, rr).Text)
	})
}

func TestAuthHandler_HandlePasswordReset(t *testing.T) {
	t.Run("sent", func(t *testing.T) {
		svc := &MockAuthService{}
		h, _ := newAuthHandler(t, svc, nil)
		rr := httptest.NewRecorder()

		h.HandlePasswordReset(rr, postForm("/password/reset", url.Values{"email": {"ada@example.com"}}))

		assert.Equal(t, "/login", rr.Header().Get("Location"))
		assert.Equal(t, &flash.Message{Kind: flash.KindSuccess, Text: service.MsgResetSent}, flashOf(t, rr))
		assert.Equal(t, "ada@example.com", svc.CapturedEmail)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc := &MockAuthService{ReturnErr: apperror.NotFoundMessage(service.MsgNoAccount)}
		h, _ := newAuthHandler(t, svc, nil)
		rr := httptest.NewRecorder()

		h.HandlePasswordReset(rr, postForm("/password/reset", url.Values{"email": {"nobody@example.com"}}))

		assert.Equal(t, &flash.Message{Kind: flash.KindError, Text: service.MsgNoAccount}, flashOf(t, rr))
	})
}

func TestAuthHandler_HandleLogout(t *testing.T) {
	h, _ := newAuthHandler(t, &MockAuthService{}, nil)
	rr := httptest.NewRecorder()

	h.HandleLogout(rr, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	assert.Equal(t, service.MsgLoggedOut, flashOf(t, rr).Text)
	c := cookieNamed(rr, "session")
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
	assert.Empty(t, c.Value)
}

func TestAuthHandler_Social(t *testing.T) {
	t.Run("disabled answers 404", func(t *testing.T) {
		h, _ := newAuthHandler(t, &MockAuthService{}, nil)

		rr := httptest.NewRecorder()
		h.HandleSocialLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/social/login", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleSocialCallback(rr, httptest.NewRequest(http.MethodGet, "/auth/social/callback?code=x&state=y", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("login redirects with state cookie", func(t *testing.T) {
		social := &MockSocial{}
		h, _ := newAuthHandler(t, &MockAuthService{}, social)
		rr := httptest.NewRecorder()

		h.HandleSocialLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/social/login", nil))

		assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		state := cookieNamed(rr, "oauth_state")
		require.NotNil(t, state)
		assert.NotEmpty(t, state.Value)
		assert.Equal(t, state.Value, social.CapturedState)
		assert.Equal(t, "https://id.venturehub.test/auth?state="+state.Value, rr.Header().Get("Location"))
	})

	t.Run("state mismatch is rejected", func(t *testing.T) {
		social := &MockSocial{}
		h, _ := newAuthHandler(t, &MockAuthService{}, social)
		req := httptest.NewRequest(http.MethodGet, "/auth/social/callback?code=abc&state=forged", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})
		rr := httptest.NewRecorder()

		h.HandleSocialCallback(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, social.CapturedCode)
	})

	t.Run("callback starts the session", func(t *testing.T) {
		social := &MockSocial{ReturnUser: &auth.SocialUser{Subject: "g-1", Email: "ada@example.com", Provider: "google"}}
		svc := &MockAuthService{ReturnSession: &model.Session{UserID: "g-1", Email: "ada@example.com", Provider: "social"}}
		h, tokens := newAuthHandler(t, svc, social)
		req := httptest.NewRequest(http.MethodGet, "/auth/social/callback?code=abc&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
		rr := httptest.NewRecorder()

		h.HandleSocialCallback(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/dashboard", rr.Header().Get("Location"))
		assert.Equal(t, "abc", social.CapturedCode)
		assert.Equal(t, "g-1", svc.CapturedSocial.Subject)

		c := cookieNamed(rr, "session")
		require.NotNil(t, c)
		sess, err := tokens.Validate(c.Value)
		require.NoError(t, err)
		assert.Equal(t, "g-1", sess.UserID)
	})

	t.Run("denied consent", func(t *testing.T) {
		social := &MockSocial{}
		h, _ := newAuthHandler(t, &MockAuthService{}, social)
		req := httptest.NewRequest(http.MethodGet, "/auth/social/callback?error=access_denied&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
		rr := httptest.NewRecorder()

		h.HandleSocialCallback(rr, req)

		assert.Equal(t, "/login", rr.Header().Get("Location"))
		assert.Equal(t, "Social login was cancelled.", flashOf(t, rr).Text)
		assert.Empty(t, social.CapturedCode)
	})
}
