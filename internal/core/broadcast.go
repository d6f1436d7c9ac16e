package core

import (
	"context"
	"sync"
)

// DefaultBroadcastCapacity is the number of values a room keeps for slow subscribers.
const DefaultBroadcastCapacity = 100

// Broadcast is a bounded multi-subscriber fan-out buffer.
//
// Every published value is stored once in a ring shared by all subscribers; each
// subscription keeps its own cursor into the ring. Publishing never waits for
// subscribers: a subscriber that falls more than capacity values behind loses the
// overwritten values and is told so by a *LaggedError.
type Broadcast[T any] struct {
	mu          sync.Mutex
	buf         []T
	head        uint64 // sequence number of the next value to be written
	subscribers int
	closed      bool

	// notify is closed and replaced on every publish and on close.
	notify chan struct{}
}

// NewBroadcast creates a broadcast buffer holding up to capacity values.
func NewBroadcast[T any](capacity int) *Broadcast[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Broadcast[T]{
		buf:    make([]T, capacity),
		notify: make(chan struct{}),
	}
}

// Publish appends v and wakes all waiting subscribers.
// It returns the number of subscribers attached at the time of the call.
func (b *Broadcast[T]) Publish(v T) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	b.buf[b.head%uint64(len(b.buf))] = v
	b.head++

	close(b.notify)
	b.notify = make(chan struct{})

	return b.subscribers, nil
}

// Subscribe registers a receiver that observes values published from now on.
func (b *Broadcast[T]) Subscribe() *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers++
	return &Subscription[T]{b: b, next: b.head}
}

// Subscribers returns the number of open subscriptions.
func (b *Broadcast[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscribers
}

// Cap returns the ring capacity.
func (b *Broadcast[T]) Cap() int {
	return len(b.buf)
}

// Close stops accepting values. Subscribers drain what is buffered and then get ErrClosed.
func (b *Broadcast[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.notify)
}

// Subscription is one receiver's cursor into a Broadcast.
type Subscription[T any] struct {
	b      *Broadcast[T]
	next   uint64
	closed bool
	once   sync.Once
}

// Next blocks until the next value is available.
//
// It returns a *LaggedError when values were overwritten before this subscriber
// read them; the following call resumes at the oldest retained value. ErrClosed is
// returned once the broadcast is closed and drained, or after Close.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	b := s.b

	for {
		b.mu.Lock()
		if s.closed {
			b.mu.Unlock()
			return zero, ErrClosed
		}

		capacity := uint64(len(b.buf))
		var oldest uint64
		if b.head > capacity {
			oldest = b.head - capacity
		}
		if s.next < oldest {
			missed := oldest - s.next
			s.next = oldest
			b.mu.Unlock()
			return zero, &LaggedError{Missed: missed}
		}
		if s.next < b.head {
			v := b.buf[s.next%capacity]
			s.next++
			b.mu.Unlock()
			return v, nil
		}
		if b.closed {
			b.mu.Unlock()
			return zero, ErrClosed
		}
		wait := b.notify
		b.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.b.mu.Lock()
		s.closed = true
		s.b.subscribers--
		s.b.mu.Unlock()
	})
}
