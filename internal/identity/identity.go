// Package identity defines the contract with the remote authentication
// provider. Accounts, passwords and password-reset mail all live there; this
// application only keeps the provider's user id.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned by SignIn for a wrong email/password pair.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrUserNotFound is returned when no account matches.
	ErrUserNotFound = errors.New("identity: user not found")
	// ErrUserExists is returned by CreateUser for a taken email.
	ErrUserExists = errors.New("identity: user already exists")
)

// User is the provider's view of an account.
type User struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	Enabled       bool
	EmailVerified bool
}

// Session is the result of a successful sign-in.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
	ExpiresIn   int // seconds
}

// Provider is implemented by the auth provider client.
type Provider interface {
	CreateUser(ctx context.Context, email, password string) (string, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	GetUser(ctx context.Context, id string) (*User, error)
	LookupEmail(ctx context.Context, id string) (string, error)
}
