package webrtc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	pion "github.com/pion/webrtc/v4"
)

// EncodeOffer wraps a raw SDP offer into the signaling message payload:
// base64 of the JSON session description.
func EncodeOffer(sdp string) (string, error) {
	payload, err := json.Marshal(pion.SessionDescription{
		Type: pion.SDPTypeOffer,
		SDP:  sdp,
	})
	if err != nil {
		return "", fmt.Errorf("marshal offer: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeAnswer unwraps a signaling answer payload and returns the raw SDP.
// Backends that send the bare SDP instead of a JSON session description are
// accepted as well. An empty payload is an empty answer.
func DecodeAnswer(payload string) (string, error) {
	if payload == "" {
		return "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode answer payload: %w", err)
	}

	trimmed := bytes.TrimSpace(decoded)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(decoded), nil
	}

	var desc pion.SessionDescription
	if err := json.Unmarshal(trimmed, &desc); err != nil {
		return "", fmt.Errorf("unmarshal answer payload: %w", err)
	}
	if desc.Type != pion.SDPTypeAnswer {
		return "", fmt.Errorf("unexpected session description type %q", desc.Type.String())
	}
	return desc.SDP, nil
}
