package signal

import (
	"bytes"
	"encoding/json"
	"fmt"

	"simplirtc/native/internal/domain"
)

const uriTemplate = "webrtc:%s#format=kinesis#client_id=%s#ice_servers=%s"

// ConnectionURI renders the go2rtc kinesis source for a live view. ICE
// servers are written as compact JSON in their original order.
func ConnectionURI(desc *domain.LiveViewDescriptor) (string, error) {
	servers, err := compactICEServers(desc.ICEServers)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(uriTemplate, desc.SignalingEndpoint, desc.ClientID, servers), nil
}

// compactICEServers avoids json.Marshal, which would HTML-escape the
// opaque server entries.
func compactICEServers(servers []json.RawMessage) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, server := range servers {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := json.Compact(&buf, server); err != nil {
			return "", fmt.Errorf("%w: ice server %d: %w", domain.ErrSchemaValidation, i, err)
		}
	}
	buf.WriteByte(']')
	return buf.String(), nil
}
