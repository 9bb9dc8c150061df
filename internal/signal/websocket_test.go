package signal

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"simplirtc/native/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const channelQuery = "?X-Amz-ChannelARN=arn%3Aaws%3Akinesisvideo%3Aus-west-2%3A123%3Achannel%2Fcam"

// newChannelServer runs a signaling channel that hands every received
// message to respond.
func newChannelServer(t *testing.T, respond func(conn *websocket.Conn, msg outbound)) (*httptest.Server, chan outbound) {
	t.Helper()
	received := make(chan outbound, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var msg outbound
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		received <- msg
		respond(conn, msg)

		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

func wsEndpoint(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + channelQuery
}

func TestWebSocketSignaler_Answer(t *testing.T) {
	srv, received := newChannelServer(t, func(conn *websocket.Conn, msg outbound) {
		_ = conn.WriteJSON(inbound{MessageType: typeICECandidate, MessagePayload: "ignored"})
		_ = conn.WriteMessage(websocket.TextMessage, nil)
		_ = conn.WriteJSON(inbound{SenderClientID: "master", MessageType: typeSDPAnswer, MessagePayload: encodedAnswer("v=0\r\nanswer")})
	})

	tr := NewTranslator(nil, NewWebSocketSignaler(), time.Second)
	answer, err := tr.Exchange(context.Background(), &domain.LiveViewDescriptor{SignalingEndpoint: wsEndpoint(srv), ClientID: "C"}, "v=0\r\noffer")
	require.NoError(t, err)
	assert.Equal(t, "v=0\r\nanswer", answer)

	msg := <-received
	assert.Equal(t, actionSDPOffer, msg.Action)
	assert.NotEmpty(t, msg.CorrelationID)

	raw, err := base64.StdEncoding.DecodeString(msg.MessagePayload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"offer","sdp":"v=0\r\noffer"}`, string(raw))
}

func TestWebSocketSignaler_StatusResponse(t *testing.T) {
	srv, _ := newChannelServer(t, func(conn *websocket.Conn, msg outbound) {
		_ = conn.WriteJSON(inbound{
			MessageType: typeStatusResponse,
			StatusResponse: &statusResponse{
				CorrelationID: msg.CorrelationID,
				ErrorType:     "InvalidArgumentException",
				StatusCode:    "400",
				Description:   "bad payload",
			},
		})
	})

	_, err := NewTranslator(nil, NewWebSocketSignaler(), time.Second).
		Exchange(context.Background(), &domain.LiveViewDescriptor{SignalingEndpoint: wsEndpoint(srv)}, "offer")
	assert.ErrorIs(t, err, domain.ErrUpstreamSignaling)
	assert.Contains(t, err.Error(), "bad payload")
}

func TestWebSocketSignaler_NoAnswerTimesOut(t *testing.T) {
	srv, _ := newChannelServer(t, func(conn *websocket.Conn, msg outbound) {})

	start := time.Now()
	_, err := NewTranslator(nil, NewWebSocketSignaler(), 100*time.Millisecond).
		Exchange(context.Background(), &domain.LiveViewDescriptor{SignalingEndpoint: wsEndpoint(srv)}, "offer")
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWebSocketSignaler_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewTranslator(nil, NewWebSocketSignaler(), time.Second).
		Exchange(context.Background(), &domain.LiveViewDescriptor{SignalingEndpoint: wsEndpoint(srv)}, "offer")
	assert.ErrorIs(t, err, domain.ErrUpstreamSignaling)
	assert.Contains(t, err.Error(), "403")
}
