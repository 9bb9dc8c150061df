package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"simplirtc/native/internal/auth"
	"simplirtc/native/internal/domain"
)

const (
	// DefaultAPIBaseURL serves account and system metadata.
	DefaultAPIBaseURL = "https://api.simplisafe.com/v1"
	// DefaultHubBaseURL serves camera live views.
	DefaultHubBaseURL = "https://app-hub.prd.aser.simplisafe.com/v2"

	userAgent      = "simplirtc"
	maxBodySize    = 1 << 20
	defaultTimeout = 30 * time.Second
)

// Config holds the endpoints and transport settings of the vendor API.
type Config struct {
	APIBaseURL string
	HubBaseURL string
	Auth       auth.Config
	HTTPClient *http.Client
	Timeout    time.Duration
}

// DefaultConfig returns the production SimpliSafe endpoints.
func DefaultConfig() Config {
	return Config{
		APIBaseURL: DefaultAPIBaseURL,
		HubBaseURL: DefaultHubBaseURL,
		Auth:       auth.DefaultConfig(),
		HTTPClient: http.DefaultClient,
		Timeout:    defaultTimeout,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// getJSON issues one authenticated GET and decodes the JSON body into out.
// It never retries.
func (s *Session) getJSON(ctx context.Context, endpoint string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.timeout())
	defer cancel()

	token, err := s.accessToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.cfg.httpClient().Do(req)
	if err != nil {
		return domain.Classify(fmt.Errorf("http request: %w", err), domain.ErrUpstream)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return domain.Classify(fmt.Errorf("read response: %w", err), domain.ErrUpstream)
	}

	if err := checkStatus(endpoint, resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSchemaValidation, err)
	}
	return nil
}

func checkStatus(endpoint string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	upstream := &domain.UpstreamError{
		Endpoint:   endpoint,
		StatusCode: status,
		Body:       strings.TrimSpace(string(body)),
	}
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, endpoint)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrAuthentication, upstream)
	default:
		return upstream
	}
}

