package domain

import "context"

// TokenStore persists the single refresh token of this process.
type TokenStore interface {
	Load() (RefreshToken, error)
	Save(token RefreshToken) error
}

// RotationListener is notified synchronously whenever the session receives a
// new refresh token. The request that triggered the rotation does not proceed
// until every listener has returned.
type RotationListener interface {
	OnRefreshTokenRotated(token RefreshToken) error
}

// ListenerFunc adapts a function to RotationListener.
type ListenerFunc func(token RefreshToken) error

func (f ListenerFunc) OnRefreshTokenRotated(token RefreshToken) error {
	return f(token)
}

// LiveViewFetcher resolves the live-view descriptor of a camera.
type LiveViewFetcher interface {
	LiveView(ctx context.Context, locationID, cameraID string) (*LiveViewDescriptor, error)
}

// SystemLister lists the alarm systems and cameras on the account.
type SystemLister interface {
	Systems(ctx context.Context) ([]System, error)
}

// SDPExchanger submits an SDP offer for a live view and returns the answer.
type SDPExchanger interface {
	Exchange(ctx context.Context, desc *LiveViewDescriptor, offer string) (string, error)
}

// Signaler performs the offer/answer round trip against one signaling
// backend once the region is known.
type Signaler interface {
	SendOffer(ctx context.Context, region string, desc *LiveViewDescriptor, offer string) (string, error)
}
