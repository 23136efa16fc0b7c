package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/auth"
	"github.com/sakif/venturehub/internal/identity"
	"github.com/sakif/venturehub/internal/mail"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/repository"
)

// Messages shown on the login and register pages.
const (
	MsgRegistered      = "Registration successful! You can now log in."
	MsgLoggedIn        = "Login successful!"
	MsgLoggedOut       = "Logged out successfully."
	MsgInvalidLogin    = "Invalid login credentials. Please try again"
	MsgNoAccount       = "No account found with this email. Please check the email and try again."
	MsgResetSent       = "Password reset link sent to your email."
	MsgEmailTaken      = "An account with this email already exists."
	MsgAuthUnavailable = "An unexpected error occurred during login. Please try again later."
)

const (
	MinPasswordLength = 6

	// ProviderPassword marks users who sign in with email and password.
	ProviderPassword = "password"
	providerSocial   = "social"
)

// ExpiryChecker runs the subscription reminder after a login.
type ExpiryChecker interface {
	CheckExpiry(ctx context.Context, userID, email string)
}

// AuthService signs users up and in against the identity provider and
// keeps the Users collection in step.
type AuthService struct {
	idp      identity.Provider
	users    repository.UserRepository
	notifier *mail.Notifier
	expiry   ExpiryChecker
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates an AuthService. expiry may be nil.
func NewAuthService(idp identity.Provider, users repository.UserRepository, notifier *mail.Notifier, expiry ExpiryChecker, logger *slog.Logger) *AuthService {
	return &AuthService{
		idp:      idp,
		users:    users,
		notifier: notifier,
		expiry:   expiry,
		logger:   logger,
		now:      time.Now,
	}
}

var _ auth.UserChecker = (*AuthService)(nil)

func validateCredentials(email, password string) error {
	if err := validEmail("email", email); err != nil {
		return err
	}
	if err := required("password", password); err != nil {
		return err
	}
	if len(password) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("The password field must be at least %d characters.", MinPasswordLength))
	}
	return nil
}

// Register creates the account with the provider, records the user and
// sends the welcome mail once.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	uid, err := s.idp.CreateUser(ctx, email, password)
	if err != nil {
		if errors.Is(err, identity.ErrUserExists) {
			return nil, apperror.ConflictMessage(MsgEmailTaken)
		}
		s.logger.Error("registration failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("An error occurred during registration. Please try again later.", err)
	}

	user, err := s.users.Upsert(ctx, &model.User{
		ID:        uid,
		Email:     email,
		Provider:  ProviderPassword,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: saving user %s: %w", uid, err)
	}

	s.welcome(ctx, user)
	s.logger.Info("user registered", slog.String("user_id", uid), slog.String("email", email))
	return user, nil
}

// Login signs in with the provider and returns the session to issue.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	res, err := s.idp.SignIn(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			s.logger.Warn("invalid login", slog.String("email", email))
			return nil, apperror.Unauthorized(MsgInvalidLogin)
		case errors.Is(err, identity.ErrUserNotFound):
			return nil, apperror.NotFoundMessage(MsgNoAccount)
		}
		s.logger.Error("login failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream(MsgAuthUnavailable, err)
	}

	now := s.now().UTC()
	if _, err := s.users.Upsert(ctx, &model.User{
		ID:          res.UserID,
		Email:       email,
		Provider:    ProviderPassword,
		CreatedAt:   now,
		LastLoginAt: now,
	}); err != nil {
		s.logger.Warn("could not record login",
			slog.String("user_id", res.UserID),
			slog.String("error", err.Error()),
		)
	}

	if s.expiry != nil {
		s.expiry.CheckExpiry(ctx, res.UserID, email)
	}

	s.logger.Info("user logged in", slog.String("user_id", res.UserID))
	return &model.Session{UserID: res.UserID, Email: email, Provider: ProviderPassword}, nil
}

// SendPasswordReset asks the provider to mail a reset link.
func (s *AuthService) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validEmail("email", email); err != nil {
		return err
	}
	if err := s.idp.SendPasswordReset(ctx, email); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return apperror.NotFoundMessage(MsgNoAccount)
		}
		s.logger.Error("password reset failed",
			slog.String("email", email),
			slog.String("error", err.Error()),
		)
		return apperror.Upstream("An error occurred while sending the password reset link. Please try again later.", err)
	}
	return nil
}

// SocialLogin records a user who came back from the social login flow.
func (s *AuthService) SocialLogin(ctx context.Context, su *auth.SocialUser) (*model.Session, error) {
	if su == nil || su.Subject == "" {
		return nil, apperror.ValidationFailed("user", "Invalid user data")
	}
	provider := su.Provider
	if provider == "" {
		provider = providerSocial
	}

	now := s.now().UTC()
	user, err := s.users.Upsert(ctx, &model.User{
		ID:          su.Subject,
		Email:       su.Email,
		Provider:    provider,
		CreatedAt:   now,
		LastLoginAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: saving social user %s: %w", su.Subject, err)
	}

	s.welcome(ctx, user)
	if s.expiry != nil && su.Email != "" {
		s.expiry.CheckExpiry(ctx, su.Subject, su.Email)
	}

	s.logger.Info("social login",
		slog.String("user_id", su.Subject),
		slog.String("provider", provider),
	)
	return &model.Session{UserID: su.Subject, Email: su.Email, Provider: provider}, nil
}

// UserExists backs the page middleware's session check.
func (s *AuthService) UserExists(ctx context.Context, userID string) (bool, error) {
	_, err := s.idp.GetUser(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, identity.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// welcome sends the welcome mail the first time a user is seen. A failed
// send leaves the flag unset so the next login retries.
func (s *AuthService) welcome(ctx context.Context, user *model.User) {
	if user.WelcomeEmailSent || user.Email == "" {
		return
	}
	if err := s.notifier.Welcome(ctx, user.Email); err != nil {
		s.logger.Error("welcome mail failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.users.MarkWelcomeSent(ctx, user.ID); err != nil {
		s.logger.Warn("could not flag welcome mail",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
