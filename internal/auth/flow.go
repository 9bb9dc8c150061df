package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"simplirtc/native/internal/domain"

	"github.com/segmentio/ksuid"
	"golang.org/x/oauth2"
)

// SimpliSafe authorization codes are 45 characters long.
const codeLength = 45

const defaultTimeout = 30 * time.Second

// ErrFlowState is returned when Begin or Exchange is called out of order.
var ErrFlowState = errors.New("auth flow: invalid state")

type flowState int

const (
	stateNew flowState = iota
	stateInitiated
	stateCodeSubmitted
	stateExchanged
)

func (s flowState) String() string {
	switch s {
	case stateNew:
		return "new"
	case stateInitiated:
		return "initiated"
	case stateCodeSubmitted:
		return "code-submitted"
	case stateExchanged:
		return "exchanged"
	default:
		return "unknown"
	}
}

// Flow is one PKCE authorization attempt: Begin produces the URL the user
// visits, Exchange trades the code they bring back for a refresh token.
// A flow is single-use.
type Flow struct {
	cfg    Config
	oauth  *oauth2.Config
	mu     sync.Mutex
	state  flowState
	verify string
	nonce  string
}

// NewFlow creates a flow for the given provider.
func NewFlow(cfg Config) *Flow {
	return &Flow{
		cfg:   cfg,
		oauth: cfg.OAuth2(),
	}
}

// Begin generates the code verifier and returns the authorization URL.
// It makes no network call.
func (f *Flow) Begin() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != stateNew {
		return "", fmt.Errorf("%w: begin in state %s", ErrFlowState, f.state)
	}

	f.verify = oauth2.GenerateVerifier()
	f.nonce = ksuid.New().String()
	f.state = stateInitiated

	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(f.verify)}
	if f.cfg.Audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", f.cfg.Audience))
	}
	if f.cfg.Auth0Client != "" {
		opts = append(opts, oauth2.SetAuthURLParam("auth0Client", f.cfg.Auth0Client))
	}
	return f.oauth.AuthCodeURL(f.nonce, opts...), nil
}

// Exchange normalizes code and exchanges it for a refresh token. Malformed
// codes are rejected before any request is made and leave the flow usable;
// once the exchange is attempted the flow is spent.
func (f *Flow) Exchange(ctx context.Context, code string) (domain.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != stateInitiated {
		return "", fmt.Errorf("%w: exchange in state %s", ErrFlowState, f.state)
	}

	normalized, err := NormalizeCode(code, f.nonce)
	if err != nil {
		return "", err
	}
	f.state = stateCodeSubmitted

	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout())
	defer cancel()
	ctx = f.cfg.WithHTTPClient(ctx)

	slog.Debug("exchanging authorization code", "component", "auth", "token_url", f.oauth.Endpoint.TokenURL)
	token, err := f.oauth.Exchange(ctx, normalized, oauth2.VerifierOption(f.verify))
	f.state = stateExchanged
	f.verify = ""
	if err != nil {
		return "", domain.Classify(describeRetrieveError(err), domain.ErrAuthExchange)
	}
	if token.RefreshToken == "" {
		return "", fmt.Errorf("%w: provider granted no refresh token", domain.ErrAuthExchange)
	}
	return domain.RefreshToken(token.RefreshToken), nil
}

// NormalizeCode accepts a raw code, a code with the leading "=" left over
// from copying the query string, or the full redirect URL. When state is not
// empty and the redirect URL carries one, they must match.
func NormalizeCode(input, state string) (string, error) {
	code := strings.TrimSpace(input)

	if strings.Contains(code, "://") {
		u, err := url.Parse(code)
		if err != nil {
			return "", fmt.Errorf("%w: unparseable redirect URL: %w", domain.ErrInvalidCode, err)
		}
		query := u.Query()
		code = query.Get("code")
		if code == "" {
			return "", fmt.Errorf("%w: redirect URL has no code parameter", domain.ErrInvalidCode)
		}
		if got := query.Get("state"); state != "" && got != "" && got != state {
			return "", fmt.Errorf("%w: state mismatch", domain.ErrInvalidCode)
		}
	}

	code = strings.TrimPrefix(code, "=")

	if n := utf8.RuneCountInString(code); n != codeLength {
		return "", fmt.Errorf("%w: expected %d characters, got %d", domain.ErrInvalidCode, codeLength, n)
	}
	return code, nil
}

// describeRetrieveError keeps the provider's error code and description,
// which Auth0 returns as JSON.
func describeRetrieveError(err error) error {
	var rErr *oauth2.RetrieveError
	if !errors.As(err, &rErr) || rErr.Response == nil {
		return err
	}
	if rErr.ErrorCode != "" {
		return fmt.Errorf("%s (http %d): %s", rErr.ErrorCode, rErr.Response.StatusCode, rErr.ErrorDescription)
	}
	return fmt.Errorf("http %d: %s", rErr.Response.StatusCode, strings.TrimSpace(string(rErr.Body)))
}
