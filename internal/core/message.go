package core

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// DefaultMaxMessageChars is the longest message text accepted from a client.
const DefaultMaxMessageChars = 128

// Message is the domain model for a chat message.
type Message struct {
	Room      RoomID
	From      string
	Text      string
	CreatedAt time.Time
}

// ValidateText checks text against the character limit. Text is never truncated.
func ValidateText(text string, maxChars int) error {
	if n := utf8.RuneCountInString(text); n > maxChars {
		return fmt.Errorf("%w: %d characters, limit %d", ErrMessageTooLong, n, maxChars)
	}
	return nil
}
