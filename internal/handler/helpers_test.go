package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sakif/venturehub/internal/auth"
	"github.com/sakif/venturehub/internal/flash"
	"github.com/sakif/venturehub/internal/handler"
	"github.com/sakif/venturehub/internal/model"
)

const testSecret = "handler-test-secret-0123456789"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testTemplates are minimal pages that print just enough to assert on.
var testTemplates = fstest.MapFS{
	"layout.html": {Data: []byte(`{{define "layout"}}{{with .Flash}}[{{.Kind}}: {{.Text}}]{{end}}{{template "content" .}}{{end}}`)},
	"home.html":   {Data: []byte(`{{define "content"}}home{{end}}`)},
	"login.html":  {Data: []byte(`{{define "content"}}login{{if .Data.Social}} social{{end}}{{end}}`)},
	"register.html": {Data: []byte(
		`{{define "content"}}register email={{index .Form "email"}} error={{index .Errors "password"}}{{end}}`)},
	"dashboard.html": {Data: []byte(
		`{{define "content"}}kyc={{.Data.KYCStatus}}{{with .Data.Subscription}} renewal={{money .InvestorPrice}}{{end}}{{end}}`)},
	"approve-booking.html": {Data: []byte(
		`{{define "content"}}{{with .Data.Booking}}space {{.StudioName}}{{else}}missing {{.Data.ID}}{{end}}{{end}}`)},
	"approve-service-booking.html": {Data: []byte(
		`{{define "content"}}{{with .Data.Booking}}service {{.ServiceProviderName}}{{else}}missing {{.Data.ID}}{{end}}{{end}}`)},
}

func testPages(t *testing.T) *handler.Renderer {
	t.Helper()
	pages, err := handler.NewRenderer(testTemplates, testLogger())
	require.NoError(t, err)
	return pages
}

func testSessions(t *testing.T) (*auth.Sessions, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)
	return auth.NewSessions(tokens, "session", false, testLogger()), tokens
}

func withSession(r *http.Request, userID, email string) *http.Request {
	sess := &model.Session{UserID: userID, Email: email, Provider: "password"}
	return r.WithContext(auth.WithSession(r.Context(), sess))
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// flashOf replays the flash cookie the response set.
func flashOf(t *testing.T, rr *httptest.ResponseRecorder) *flash.Message {
	t.Helper()
	c := cookieNamed(rr, "flash")
	require.NotNil(t, c, "response set no flash message")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	msg := flash.Pop(httptest.NewRecorder(), req)
	require.NotNil(t, msg, "flash cookie unreadable")
	return msg
}

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }
