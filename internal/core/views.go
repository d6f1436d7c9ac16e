package core

import "go.uber.org/atomic"

// ViewCounter counts messages delivered to outbound sessions across all rooms.
type ViewCounter struct {
	n atomic.Uint64
}

// Inc records one delivery.
func (v *ViewCounter) Inc() {
	v.n.Inc()
}

// Load returns the current count.
func (v *ViewCounter) Load() uint64 {
	return v.n.Load()
}

// Reset sets the count to zero and returns the previous value.
func (v *ViewCounter) Reset() uint64 {
	return v.n.Swap(0)
}
