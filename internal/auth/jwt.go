// Package auth issues and checks the session cookie, guards routes with
// session or basic authentication, and runs the social login code flow.
//
// Accounts live in the identity provider. After a successful sign-in the
// server issues its own short HS256 JWT (subject = provider user id) and
// stores it in an HttpOnly cookie; no session state is kept server side.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/venturehub/internal/model"
)

const issuer = "venturehub"

// DefaultSessionTTL applies when the configuration leaves the TTL unset.
const DefaultSessionTTL = 24 * time.Hour

// ErrTokenExpired is returned by Validate for an expired session.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService needs a secret of at least 16 characters.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type claims struct {
	Email    string `json:"email"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for sess.
func (s *TokenService) Issue(sess model.Session) (string, error) {
	if sess.UserID == "" {
		return "", errors.New("auth: session has no user id")
	}
	now := s.now()
	c := claims{
		Email:    sess.Email,
		Provider: sess.Provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry and returns the
// session the token carries.
func (s *TokenService) Validate(tokenStr string) (*model.Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &claims{},
		func(token *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}
	return &model.Session{UserID: c.Subject, Email: c.Email, Provider: c.Provider}, nil
}
