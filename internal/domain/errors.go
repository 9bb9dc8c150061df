package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error taxonomy. Components wrap one of these so callers can classify
// failures with errors.Is regardless of which external system failed.
var (
	ErrCredentialIO       = errors.New("credential io")
	ErrCredentialNotFound = fmt.Errorf("%w: credential file not found", ErrCredentialIO)
	ErrCorruptCredential  = fmt.Errorf("%w: credential file is corrupt", ErrCredentialIO)

	ErrInvalidCode    = errors.New("invalid authorization code")
	ErrAuthExchange   = errors.New("authorization code exchange failed")
	ErrAuthentication = errors.New("authentication failed")

	ErrSchemaValidation = errors.New("unexpected response shape")
	ErrNotFound         = errors.New("not found")
	ErrUpstream         = errors.New("upstream error")

	ErrUpstreamSignaling = errors.New("signaling backend error")
	ErrInvalidChannel    = errors.New("invalid channel")
	ErrMissingOffer      = fmt.Errorf("%w: missing SDP offer", ErrInvalidChannel)

	ErrTimeout = errors.New("timeout")
)

// UpstreamError is a non-success HTTP status from the vendor API.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: http %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}

// IsTimeout reports whether err came from an expired deadline, either a
// context deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Classify wraps err with ErrTimeout when it is a timeout, otherwise with
// fallback. A nil err stays nil.
func Classify(err, fallback error) error {
	if err == nil {
		return nil
	}
	if IsTimeout(err) {
		if errors.Is(err, ErrTimeout) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if errors.Is(err, fallback) {
		return err
	}
	return fmt.Errorf("%w: %w", fallback, err)
}
