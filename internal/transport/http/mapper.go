package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vovakirdan/birdroom/internal/core"
	"github.com/vovakirdan/birdroom/internal/proto"
)

func inboundToMessage(user string, data []byte, maxChars int) (core.Message, error) {
	text, err := proto.DecodeInbound(data)
	if err != nil {
		return core.Message{}, err
	}
	if err := core.ValidateText(text, maxChars); err != nil {
		return core.Message{}, err
	}
	return core.Message{
		From:      user,
		Text:      text,
		CreatedAt: time.Now(),
	}, nil
}

func outboundFromMessage(msg core.Message) ([]byte, error) {
	data, err := json.Marshal(proto.Outbound{
		User:    msg.From,
		Message: msg.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("encode outbound: %w", err)
	}
	return data, nil
}
