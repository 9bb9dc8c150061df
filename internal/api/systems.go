package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"simplirtc/native/internal/domain"
)

// Only V3 systems expose cameras through the live-view hub.
const cameraSystemVersion = 3

type authCheckResponse struct {
	UserID json.Number `json:"userId" validate:"required"`
}

type subscriptionsResponse struct {
	Subscriptions []subscription `json:"subscriptions"`
}

type subscription struct {
	SID      json.Number `json:"sid"`
	Location struct {
		Street1 string `json:"street1"`
		System  struct {
			Version int `json:"version"`
			Cameras []struct {
				UUID           string `json:"uuid"`
				CameraSettings struct {
					CameraName string `json:"cameraName"`
				} `json:"cameraSettings"`
			} `json:"cameras"`
		} `json:"system"`
	} `json:"location"`
}

// Systems lists the account's active V3 systems with their cameras.
func (s *Session) Systems(ctx context.Context) ([]domain.System, error) {
	s.mu.Lock()
	userID := s.userID
	s.mu.Unlock()
	if userID == "" {
		return nil, fmt.Errorf("list systems: %w: session not established", domain.ErrAuthentication)
	}

	endpoint := fmt.Sprintf("%s/users/%s/subscriptions?activeOnly=true", s.cfg.APIBaseURL, url.PathEscape(userID))

	var resp subscriptionsResponse
	if err := s.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}

	var systems []domain.System
	for _, sub := range resp.Subscriptions {
		if sub.Location.System.Version != cameraSystemVersion {
			continue
		}
		system := domain.System{
			ID:      sub.SID.String(),
			Address: sub.Location.Street1,
			Version: sub.Location.System.Version,
		}
		for _, cam := range sub.Location.System.Cameras {
			system.Cameras = append(system.Cameras, domain.Camera{
				ID:   cam.UUID,
				Name: cam.CameraSettings.CameraName,
			})
		}
		systems = append(systems, system)
	}
	return systems, nil
}
