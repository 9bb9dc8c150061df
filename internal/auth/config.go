package auth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// SimpliSafe's Auth0 tenant, as used by the mobile app.
const (
	DefaultAuthURL     = "https://auth.simplisafe.com/authorize"
	DefaultTokenURL    = "https://auth.simplisafe.com/oauth/token"
	DefaultClientID    = "42aBZ5lYrVW12jfOuu3CQROitwxg9sN5"
	DefaultRedirectURL = "com.simplisafe.mobile://auth.simplisafe.com/ios/com.simplisafe.mobile/callback"
	DefaultAudience    = "https://api.simplisafe.com/"
	// base64 of {"version":"2.3.2","name":"Auth0.swift","env":{"swift":"5.x","iOS":"16.3"}}
	DefaultAuth0Client = "eyJ2ZXJzaW9uIjoiMi4zLjIiLCJuYW1lIjoiQXV0aDAuc3dpZnQiLCJlbnYiOnsic3dpZnQiOiI1LngiLCJpT1MiOiIxNi4zIn19"
)

var defaultScopes = []string{
	"offline_access",
	"email",
	"openid",
	"https://api.simplisafe.com/scopes/user:platform",
}

// Config describes the OAuth provider.
type Config struct {
	AuthURL     string
	TokenURL    string
	ClientID    string
	RedirectURL string
	Audience    string
	Auth0Client string
	Scopes      []string

	HTTPClient *http.Client
	Timeout    time.Duration
}

// DefaultConfig returns the SimpliSafe provider configuration.
func DefaultConfig() Config {
	return Config{
		AuthURL:     DefaultAuthURL,
		TokenURL:    DefaultTokenURL,
		ClientID:    DefaultClientID,
		RedirectURL: DefaultRedirectURL,
		Audience:    DefaultAudience,
		Auth0Client: DefaultAuth0Client,
		Scopes:      append([]string(nil), defaultScopes...),
		HTTPClient:  http.DefaultClient,
		Timeout:     defaultTimeout,
	}
}

// OAuth2 returns the oauth2 configuration for this provider. The client is
// public, so credentials travel in the request body.
func (c Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURL,
		Scopes:      c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// WithHTTPClient attaches the configured HTTP client to ctx for oauth2.
func (c Config) WithHTTPClient(ctx context.Context) context.Context {
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}

// RequestTimeout is the per-request deadline for calls to the provider.
func (c Config) RequestTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}
