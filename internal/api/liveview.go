package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"simplirtc/native/internal/domain"
)

// LiveView fetches and validates the live-view descriptor of a camera. The
// request is made once; retrying is left to the caller.
func (s *Session) LiveView(ctx context.Context, locationID, cameraID string) (*domain.LiveViewDescriptor, error) {
	endpoint := fmt.Sprintf("%s/cameras/%s/%s/live-view", s.cfg.HubBaseURL, url.PathEscape(cameraID), url.PathEscape(locationID))

	var desc domain.LiveViewDescriptor
	if err := s.getJSON(ctx, endpoint, &desc); err != nil {
		return nil, fmt.Errorf("get live view: %w", err)
	}
	if err := s.validate.Struct(&desc); err != nil {
		return nil, fmt.Errorf("get live view: %w: %w", domain.ErrSchemaValidation, err)
	}

	slog.Debug("live view resolved", "component", "api", "camera", cameraID, "location", locationID, "ice_servers", len(desc.ICEServers))
	return &desc, nil
}
