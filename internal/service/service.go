// Package service holds the business rules of the marketplace.
//
// Handlers parse HTTP and call into a service; a service validates,
// enforces ownership and gates, talks to the repositories and remote
// collaborators, and returns domain errors from internal/apperror. Nothing
// here knows about HTTP.
//
// Mail is fire-and-forget unless a method says otherwise: a notification
// that cannot be delivered is logged by the mail dispatcher and never fails
// the action that triggered it.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
)

// Messages shown to users by more than one service.
const (
	MsgUnexpected     = "An unexpected error occurred. Please try again later."
	MsgPaymentStart   = "Failed to initiate payment. Please try again."
	MsgPaymentFailed  = "Payment verification failed. Please try again."
	MsgPaymentSuccess = "Payment verified successfully."
)

// subscriptionPeriod is how long a subscription or renewal lasts.
func subscriptionPeriod(from time.Time) time.Time {
	return from.AddDate(0, 1, 0)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.ValidationFailed(field, fmt.Sprintf("The %s field is required.", field))
	}
	return nil
}

func validEmail(field, value string) error {
	if err := required(field, value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) {
		return apperror.ValidationFailed(field, fmt.Sprintf("The %s field must be a valid email address.", field))
	}
	return nil
}

func validURL(field, value string) error {
	if value == "" {
		return nil
	}
	u, err := url.ParseRequestURI(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.ValidationFailed(field, fmt.Sprintf("The %s field must be a valid URL.", field))
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, apperror.ErrConflict)
}

// matches reports whether every word of query occurs in one of the texts,
// ignoring case. An empty query matches everything.
func matches(query string, texts ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	hay := strings.ToLower(strings.Join(texts, " "))
	for _, w := range strings.Fields(query) {
		if !strings.Contains(hay, w) {
			return false
		}
	}
	return true
}

// EmailLookup resolves a user id to the address the identity provider holds.
type EmailLookup interface {
	LookupEmail(ctx context.Context, userID string) (string, error)
}
