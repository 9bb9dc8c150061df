// Package signal exchanges SDP offers and answers with Kinesis Video
// signaling, either through the SendAlexaOfferToMaster API or over a
// presigned WebSocket endpoint.
//
// SendAlexaOfferToMaster is built by hand with aws/signer/v4. The generated
// client in github.com/aws/aws-sdk-go-v2/service/kinesisvideosignaling
// exposes the same operation and can replace sendAlexaOffer as a drop-in.
package signal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"simplirtc/native/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Translator turns a live view and an SDP offer into an SDP answer by picking
// the signaling backend the endpoint calls for.
type Translator struct {
	api       domain.Signaler
	websocket domain.Signaler
	timeout   time.Duration
}

// NewTranslator uses api for channel ARNs and websocket for presigned wss://
// endpoints. A zero timeout means 30 seconds.
func NewTranslator(api, websocket domain.Signaler, timeout time.Duration) *Translator {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Translator{api: api, websocket: websocket, timeout: timeout}
}

// Exchange implements domain.SDPExchanger. It is never retried.
func (t *Translator) Exchange(ctx context.Context, desc *domain.LiveViewDescriptor, offer string) (string, error) {
	if offer == "" {
		return "", domain.ErrMissingOffer
	}
	if desc == nil || desc.SignalingEndpoint == "" {
		return "", fmt.Errorf("%w: empty signaling endpoint", domain.ErrInvalidChannel)
	}

	region, ok := ExtractRegion(desc.SignalingEndpoint)
	if !ok {
		return "", fmt.Errorf("%w: no region in %q", domain.ErrInvalidChannel, desc.SignalingEndpoint)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	signaler, kind := t.api, "api"
	if isWebSocket(desc.SignalingEndpoint) {
		signaler, kind = t.websocket, "websocket"
	}

	slog.Debug("exchanging sdp", "component", "signal", "region", region, "backend", kind)

	answer, err := signaler.SendOffer(ctx, region, desc, offer)
	if err != nil {
		return "", domain.Classify(err, domain.ErrUpstreamSignaling)
	}
	return answer, nil
}

func isWebSocket(endpoint string) bool {
	lower := strings.ToLower(endpoint)
	return strings.HasPrefix(lower, "wss://") || strings.HasPrefix(lower, "ws://")
}
