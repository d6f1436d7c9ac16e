package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingMessage is returned for a room payload without a "message" field.
var ErrMissingMessage = errors.New("missing message field")

// Inbound is the payload a client sends to a room.
type Inbound struct {
	Message *string `json:"message"`
}

// Outbound is the payload broadcast to every room subscriber.
type Outbound struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// DecodeInbound parses a room frame and returns the message text.
func DecodeInbound(data []byte) (string, error) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return "", fmt.Errorf("decode inbound: %w", err)
	}
	if in.Message == nil {
		return "", ErrMissingMessage
	}
	return *in.Message, nil
}
