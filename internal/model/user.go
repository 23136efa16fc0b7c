// Package model defines the documents stored in the marketplace database.
//
// Every struct carries both bson tags (document field names, which keep the
// camelCase names used by existing data) and json tags (API responses).
// Document ids are strings: user-owned singletons are keyed by the identity
// provider's user id, everything else by an xid.
package model

import "time"

// User is the Users document, keyed by the identity provider's user id.
type User struct {
	ID               string    `bson:"_id"                   json:"id"`
	Email            string    `bson:"email"                 json:"email"`
	Provider         string    `bson:"provider,omitempty"    json:"provider,omitempty"` // "password" or the social provider alias
	WelcomeEmailSent bool      `bson:"welcomeEmailSent"      json:"welcomeEmailSent"`
	CreatedAt        time.Time `bson:"createdAt"             json:"createdAt"`
	LastLoginAt      time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt,omitempty"`
}

// Session is what a logged-in request knows about its user.
type Session struct {
	UserID   string
	Email    string
	Provider string
}
