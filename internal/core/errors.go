package core

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by a broadcast or subscription that no longer delivers values.
	ErrClosed = errors.New("broadcast closed")
	// ErrMessageTooLong is returned for message text over the configured character limit.
	ErrMessageTooLong = errors.New("message too long")
)

// LaggedError reports values a subscriber never saw because it fell behind.
type LaggedError struct {
	Missed uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("subscriber lagged, %d messages skipped", e.Missed)
}

// IsLagged reports whether err is a *LaggedError and returns it.
func IsLagged(err error) (*LaggedError, bool) {
	var lagged *LaggedError
	if errors.As(err, &lagged) {
		return lagged, true
	}
	return nil, false
}
