package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"simplirtc/native/internal/domain"
	"simplirtc/native/internal/webrtc"

	"github.com/gorilla/websocket"
	"github.com/segmentio/ksuid"
)

const (
	actionSDPOffer = "SDP_OFFER"

	typeSDPAnswer      = "SDP_ANSWER"
	typeICECandidate   = "ICE_CANDIDATE"
	typeStatusResponse = "STATUS_RESPONSE"

	handshakeTimeout = 10 * time.Second
)

// outbound is the message a viewer sends to the signaling channel.
type outbound struct {
	Action            string `json:"action"`
	RecipientClientID string `json:"recipientClientId,omitempty"`
	MessagePayload    string `json:"messagePayload"`
	CorrelationID     string `json:"correlationId,omitempty"`
}

// inbound is an event pushed by the signaling channel.
type inbound struct {
	SenderClientID string          `json:"senderClientId"`
	MessageType    string          `json:"messageType"`
	MessagePayload string          `json:"messagePayload"`
	StatusResponse *statusResponse `json:"statusResponse,omitempty"`
}

type statusResponse struct {
	CorrelationID string `json:"correlationId"`
	ErrorType     string `json:"errorType"`
	StatusCode    string `json:"statusCode"`
	Description   string `json:"description"`
}

// WebSocketSignaler exchanges offers over a presigned Kinesis Video
// WebSocket endpoint. Each exchange opens its own connection.
type WebSocketSignaler struct {
	dialer *websocket.Dialer
}

// NewWebSocketSignaler returns a signaler whose handshakes give up after 10
// seconds.
func NewWebSocketSignaler() *WebSocketSignaler {
	return &WebSocketSignaler{
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

// SendOffer implements domain.Signaler.
func (s *WebSocketSignaler) SendOffer(ctx context.Context, region string, desc *domain.LiveViewDescriptor, offer string) (string, error) {
	conn, resp, err := s.dialer.DialContext(ctx, desc.SignalingEndpoint, nil)
	if err != nil {
		if resp != nil {
			return "", fmt.Errorf("websocket dial: http %d: %w", resp.StatusCode, err)
		}
		return "", fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Unblocks ReadMessage when ctx is cancelled without a deadline.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	payload, err := webrtc.EncodeOffer(offer)
	if err != nil {
		return "", err
	}

	correlationID := ksuid.New().String()
	slog.Debug("sending offer over websocket", "component", "signal", "region", region, "correlation_id", correlationID)

	if err := conn.WriteJSON(outbound{
		Action:         actionSDPOffer,
		MessagePayload: payload,
		CorrelationID:  correlationID,
	}); err != nil {
		return "", s.failure(ctx, "write offer", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return "", s.failure(ctx, "read answer", err)
		}
		// The channel sends empty frames as keepalives.
		if len(data) == 0 {
			continue
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("ignoring malformed signaling message", "component", "signal", "err", err)
			continue
		}

		switch msg.MessageType {
		case typeSDPAnswer:
			answer, err := webrtc.DecodeAnswer(msg.MessagePayload)
			if err != nil {
				return "", fmt.Errorf("%w: %w", domain.ErrUpstreamSignaling, err)
			}
			slog.Debug("received answer", "component", "signal", "sender", msg.SenderClientID)
			return answer, nil

		case typeICECandidate:
			// No trickle ICE through this boundary.

		case typeStatusResponse:
			status := msg.StatusResponse
			if status == nil {
				return "", fmt.Errorf("%w: status response without details", domain.ErrUpstreamSignaling)
			}
			return "", fmt.Errorf("%w: %s (%s): %s", domain.ErrUpstreamSignaling, status.ErrorType, status.StatusCode, status.Description)

		default:
			slog.Debug("unhandled signaling message", "component", "signal", "type", msg.MessageType)
		}
	}
}

// failure reports cancellation through ctx so a closed connection after a
// deadline reads as a timeout.
func (s *WebSocketSignaler) failure(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w: %w", op, ctxErr, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
