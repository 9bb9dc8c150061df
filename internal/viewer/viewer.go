package viewer

import (
	"context"
	"fmt"
	"log/slog"

	"simplirtc/native/internal/domain"
	"simplirtc/native/internal/signal"
)

// Viewer coordinates one camera request: it resolves the live view and hands
// it to the signaling side.
type Viewer struct {
	liveViews domain.LiveViewFetcher
	exchanger domain.SDPExchanger
}

// New creates a Viewer. exchanger may be nil when only StreamURI is used.
func New(liveViews domain.LiveViewFetcher, exchanger domain.SDPExchanger) *Viewer {
	return &Viewer{
		liveViews: liveViews,
		exchanger: exchanger,
	}
}

// Answer returns the camera's SDP answer for offer. An empty offer is
// rejected before anything is resolved.
func (v *Viewer) Answer(ctx context.Context, locationID, deviceID, offer string) (string, error) {
	if offer == "" {
		return "", domain.ErrMissingOffer
	}

	desc, err := v.liveViews.LiveView(ctx, locationID, deviceID)
	if err != nil {
		return "", fmt.Errorf("resolve live view: %w", err)
	}

	slog.Debug("live view resolved, exchanging offer", "component", "viewer", "location", locationID, "device", deviceID)

	answer, err := v.exchanger.Exchange(ctx, desc, offer)
	if err != nil {
		return "", fmt.Errorf("sdp exchange: %w", err)
	}
	return answer, nil
}

// StreamURI returns the go2rtc source URI for a camera.
func (v *Viewer) StreamURI(ctx context.Context, locationID, cameraID string) (string, error) {
	desc, err := v.liveViews.LiveView(ctx, locationID, cameraID)
	if err != nil {
		return "", fmt.Errorf("resolve live view: %w", err)
	}
	return signal.ConnectionURI(desc)
}
