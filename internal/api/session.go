package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"simplirtc/native/internal/domain"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"
)

// Session is an authenticated handle to the SimpliSafe API. It is safe for
// concurrent use; refreshes are serialized and every refresh token rotation
// is handed to the registered listeners before the triggering call goes on.
type Session struct {
	cfg      Config
	oauth    *oauth2.Config
	validate *validator.Validate

	mu        sync.Mutex
	token     *oauth2.Token
	persisted domain.RefreshToken
	listeners []domain.RotationListener

	userID string
}

// NewSession returns a session for refreshToken without contacting the
// API. Most callers want Open.
func NewSession(cfg Config, refreshToken domain.RefreshToken) *Session {
	return &Session{
		cfg:       cfg,
		oauth:     cfg.Auth.OAuth2(),
		validate:  validator.New(),
		token:     &oauth2.Token{RefreshToken: string(refreshToken)},
		persisted: refreshToken,
	}
}

// Open loads the refresh token from store, establishes a session with it and
// registers store so that rotated tokens are written back.
func Open(ctx context.Context, cfg Config, store domain.TokenStore) (*Session, error) {
	refreshToken, err := store.Load()
	if err != nil {
		return nil, err
	}

	s := NewSession(cfg, refreshToken)
	s.AddRotationListener(domain.ListenerFunc(store.Save))

	if err := s.Establish(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// AddRotationListener registers l for refresh token rotations.
func (s *Session) AddRotationListener(l domain.RotationListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Establish obtains an access token and resolves the account's user id.
func (s *Session) Establish(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	if _, err := s.accessToken(ctx); err != nil {
		return fmt.Errorf("establish session: %w", err)
	}

	var check authCheckResponse
	if err := s.getJSON(ctx, s.cfg.APIBaseURL+"/api/authCheck", &check); err != nil {
		return fmt.Errorf("establish session: %w", domain.Classify(err, domain.ErrAuthentication))
	}
	if err := s.validate.Struct(&check); err != nil {
		return fmt.Errorf("establish session: %w: %w", domain.ErrSchemaValidation, err)
	}

	s.mu.Lock()
	s.userID = check.UserID.String()
	s.mu.Unlock()

	slog.Info("session established", "component", "api", "user_id", check.UserID.String())
	return nil
}

// RefreshToken returns the newest refresh token known to the session.
func (s *Session) RefreshToken() domain.RefreshToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.RefreshToken(s.token.RefreshToken)
}

// accessToken returns a valid access token, refreshing it first if needed.
func (s *Session) accessToken(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.token.Valid() {
		src := s.oauth.TokenSource(s.cfg.Auth.WithHTTPClient(ctx), &oauth2.Token{RefreshToken: s.token.RefreshToken})
		token, err := src.Token()
		if err != nil {
			return nil, domain.Classify(fmt.Errorf("refresh access token: %w", err), domain.ErrAuthentication)
		}
		s.token = token
		slog.Debug("access token refreshed", "component", "api", "expiry", token.Expiry)
	}

	// A rotation stays pending until every listener accepted it, so a failed
	// save is retried on the next call.
	if rotated := domain.RefreshToken(s.token.RefreshToken); rotated != s.persisted {
		for _, l := range s.listeners {
			if err := l.OnRefreshTokenRotated(rotated); err != nil {
				return nil, fmt.Errorf("persist rotated refresh token: %w", err)
			}
		}
		s.persisted = rotated
		slog.Info("refresh token rotated", "component", "api")
	}

	return s.token, nil
}
