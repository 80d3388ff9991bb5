// Package wire defines the stream convention shared by the coach server and
// the client consumer: the reply body is plain UTF-8 prose, and if a tool
// fired, the final chunk is Marker followed by a JSON ToolBlock. Both ends
// must import this package rather than re-declaring the marker.
package wire

import (
	"encoding/json"
	"strings"
)

// Marker prefixes the serialized tool result at the tail of a reply stream.
// Versioned so a future envelope change can bump it without ambiguity.
const Marker = "\n\n⟦aura:tool:v1⟧"

// ToolBlock is the envelope appended after Marker.
type ToolBlock struct {
	Tool string         `json:"tool"`
	Data map[string]any `json:"data"`
}

// EncodeToolBlock renders the final stream chunk for a tool result.
func EncodeToolBlock(block ToolBlock) (string, error) {
	raw, err := json.Marshal(block)
	if err != nil {
		return "", err
	}
	return Marker + string(raw), nil
}

// Split separates a fully reassembled reply body into its prose part and,
// when present and valid, the decoded tool block. If the marker is absent or
// the JSON after it does not parse, the entire body is prose. That fallback
// is part of the contract, not an error.
func Split(body string) (prose string, block *ToolBlock) {
	idx := strings.Index(body, Marker)
	if idx < 0 {
		return body, nil
	}

	prose = body[:idx]
	tail := body[idx+len(Marker):]

	var decoded ToolBlock
	if err := json.Unmarshal([]byte(tail), &decoded); err != nil {
		return body, nil
	}
	if decoded.Tool == "" {
		return body, nil
	}
	return prose, &decoded
}
