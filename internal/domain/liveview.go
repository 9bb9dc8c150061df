package domain

import "encoding/json"

// RefreshToken is the opaque credential that keeps a SimpliSafe session alive.
// It rotates on use; only the newest value is valid.
type RefreshToken string

// LiveViewDescriptor is the live-view response for one camera. It is
// session-scoped and never persisted.
type LiveViewDescriptor struct {
	SignalingEndpoint string            `json:"signedChannelEndpoint" validate:"required"`
	ClientID          string            `json:"clientId" validate:"required"`
	ICEServers        []json.RawMessage `json:"iceServers" validate:"required"`
}
