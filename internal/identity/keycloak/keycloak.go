// Package keycloak implements identity.Provider on a Keycloak realm.
//
// User-facing calls (sign-in) use the realm's confidential client with the
// direct password grant. Account management (create, lookup, reset mail)
// uses an admin token from the admin realm, cached and re-acquired shortly
// before it expires.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Nerzal/gocloak/v13"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/venturehub/internal/identity"
)

// tokenExpirySafeGuard renews the admin token this long before it expires.
const tokenExpirySafeGuard = 10 * time.Second

// cloak is the subset of *gocloak.GoCloak used here.
type cloak interface {
	LoginAdmin(ctx context.Context, username, password, realm string) (*gocloak.JWT, error)
	Login(ctx context.Context, clientID, clientSecret, realm, username, password string) (*gocloak.JWT, error)
	CreateUser(ctx context.Context, token, realm string, user gocloak.User) (string, error)
	SetPassword(ctx context.Context, token, userID, realm, password string, temporary bool) error
	DeleteUser(ctx context.Context, accessToken, realm, userID string) error
	GetUserByID(ctx context.Context, accessToken, realm, userID string) (*gocloak.User, error)
	GetUsers(ctx context.Context, accessToken, realm string, params gocloak.GetUsersParams) ([]*gocloak.User, error)
	ExecuteActionsEmail(ctx context.Context, token, realm string, params gocloak.ExecuteActionsEmail) error
}

// Config holds the realm and credentials.
type Config struct {
	URL           string
	Realm         string
	ClientID      string
	ClientSecret  string
	AdminRealm    string
	AdminUser     string
	AdminPassword string
	// ResetRedirectURI is where the password-reset mail returns the user.
	ResetRedirectURI string
}

// Client talks to Keycloak.
type Client struct {
	kc     cloak
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	tokenMu     sync.Mutex
	adminToken  string
	tokenExpiry time.Time
}

var _ identity.Provider = (*Client)(nil)

// New creates a client for the configured server. No request is made until
// the first call.
func New(cfg Config, logger *slog.Logger) *Client {
	return newWithCloak(gocloak.NewClient(cfg.URL), cfg, logger)
}

func newWithCloak(kc cloak, cfg Config, logger *slog.Logger) *Client {
	if cfg.AdminRealm == "" {
		cfg.AdminRealm = "master"
	}
	return &Client{kc: kc, cfg: cfg, logger: logger, now: time.Now}
}

// token returns a valid admin access token.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.adminToken != "" && c.now().Before(c.tokenExpiry) {
		return c.adminToken, nil
	}

	jwtToken, err := c.kc.LoginAdmin(ctx, c.cfg.AdminUser, c.cfg.AdminPassword, c.cfg.AdminRealm)
	if err != nil {
		return "", fmt.Errorf("keycloak: admin login: %w", err)
	}
	c.adminToken = jwtToken.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(jwtToken.ExpiresIn)*time.Second - tokenExpirySafeGuard)
	return c.adminToken, nil
}

// CreateUser registers email with password and returns the new user id.
func (c *Client) CreateUser(ctx context.Context, email, password string) (string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	userID, err := c.kc.CreateUser(ctx, token, c.cfg.Realm, gocloak.User{
		Username: gocloak.StringP(email),
		Email:    gocloak.StringP(email),
		Enabled:  gocloak.BoolP(true),
	})
	if err != nil {
		if hasStatus(err, http.StatusConflict) {
			return "", identity.ErrUserExists
		}
		return "", fmt.Errorf("keycloak: creating user: %w", err)
	}

	if err := c.kc.SetPassword(ctx, token, userID, c.cfg.Realm, password, false); err != nil {
		// Leave no password-less account behind.
		if delErr := c.kc.DeleteUser(ctx, token, c.cfg.Realm, userID); delErr != nil {
			c.logger.Error("keycloak: removing half-created user",
				slog.String("userID", userID),
				slog.String("error", delErr.Error()),
			)
		}
		return "", fmt.Errorf("keycloak: setting password: %w", err)
	}

	return userID, nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	tok, err := c.kc.Login(ctx, c.cfg.ClientID, c.cfg.ClientSecret, c.cfg.Realm, email, password)
	if err != nil {
		if hasStatus(err, http.StatusUnauthorized) || hasStatus(err, http.StatusBadRequest) {
			return nil, identity.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("keycloak: login: %w", err)
	}

	// The token comes straight from the realm over the client's own
	// connection, so only the subject is read from it here.
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("keycloak: reading access token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("keycloak: access token has no subject")
	}

	return &identity.Session{
		UserID:      sub,
		Email:       email,
		AccessToken: tok.AccessToken,
		ExpiresIn:   tok.ExpiresIn,
	}, nil
}

// SendPasswordReset mails an UPDATE_PASSWORD action link to the account.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	users, err := c.kc.GetUsers(ctx, token, c.cfg.Realm, gocloak.GetUsersParams{
		Email: gocloak.StringP(email),
		Exact: gocloak.BoolP(true),
	})
	if err != nil {
		return fmt.Errorf("keycloak: looking up %s: %w", email, err)
	}
	if len(users) == 0 || users[0].ID == nil {
		return identity.ErrUserNotFound
	}

	params := gocloak.ExecuteActionsEmail{
		UserID:   users[0].ID,
		ClientID: gocloak.StringP(c.cfg.ClientID),
		Actions:  &[]string{"UPDATE_PASSWORD"},
	}
	if c.cfg.ResetRedirectURI != "" {
		params.RedirectURI = gocloak.StringP(c.cfg.ResetRedirectURI)
	}
	if err := c.kc.ExecuteActionsEmail(ctx, token, c.cfg.Realm, params); err != nil {
		return fmt.Errorf("keycloak: sending reset mail: %w", err)
	}
	return nil
}

// GetUser fetches an account by id.
func (c *Client) GetUser(ctx context.Context, id string) (*identity.User, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	u, err := c.kc.GetUserByID(ctx, token, c.cfg.Realm, id)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("keycloak: getting user %s: %w", id, err)
	}

	return &identity.User{
		ID:            gocloak.PString(u.ID),
		Email:         gocloak.PString(u.Email),
		FirstName:     gocloak.PString(u.FirstName),
		LastName:      gocloak.PString(u.LastName),
		Enabled:       gocloak.PBool(u.Enabled),
		EmailVerified: gocloak.PBool(u.EmailVerified),
	}, nil
}

// LookupEmail returns the email on file for id.
func (c *Client) LookupEmail(ctx context.Context, id string) (string, error) {
	u, err := c.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

func hasStatus(err error, code int) bool {
	var apiErr *gocloak.APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
