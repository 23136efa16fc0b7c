package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// SocialUser is the identity returned by a completed social login.
type SocialUser struct {
	Subject  string
	Email    string
	Name     string
	Provider string
}

// OIDCConfig configures the code flow against the identity provider realm.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// IDPHint is passed as kc_idp_hint so the realm forwards straight to
	// the brokered social provider (for example "google").
	IDPHint string
}

// OIDCProvider runs the authorization code flow and verifies the ID token.
type OIDCProvider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
	hint     string
}

// NewOIDCProvider fetches the issuer's discovery document.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("auth: oidc discovery for %s: %w", cfg.IssuerURL, err)
	}
	return &OIDCProvider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		hint:     cfg.IDPHint,
	}, nil
}

// AuthURL is where the browser is sent to start the flow.
func (p *OIDCProvider) AuthURL(state string) string {
	var opts []oauth2.AuthCodeOption
	if p.hint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("kc_idp_hint", p.hint))
	}
	return p.oauth.AuthCodeURL(state, opts...)
}

// Exchange trades the callback code for a verified identity.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*SocialUser, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging code: %w", err)
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("auth: token response has no id_token")
	}
	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("auth: verifying id_token: %w", err)
	}

	var c struct {
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
		IdentityProvider  string `json:"identity_provider"`
	}
	if err := idToken.Claims(&c); err != nil {
		return nil, fmt.Errorf("auth: decoding claims: %w", err)
	}
	if c.Email == "" {
		return nil, errors.New("auth: provider returned no email")
	}

	user := &SocialUser{
		Subject:  idToken.Subject,
		Email:    c.Email,
		Name:     c.Name,
		Provider: c.IdentityProvider,
	}
	if user.Name == "" {
		user.Name = c.PreferredUsername
	}
	if user.Provider == "" {
		user.Provider = p.hint
	}
	return user, nil
}
