package core

import (
	"context"
	"time"
)

// Hub owns the state shared by all sessions: the room registry and the view counter.
type Hub struct {
	rooms *Registry
	views *ViewCounter
}

// Stats is a point-in-time summary of the hub.
type Stats struct {
	Rooms       int
	Subscribers map[RoomID]int
	Views       uint64
}

// NewHub creates a hub whose rooms buffer roomCapacity messages.
func NewHub(roomCapacity int) *Hub {
	return &Hub{
		rooms: NewRegistry(roomCapacity),
		views: &ViewCounter{},
	}
}

// Room returns the room for id, creating it on first use.
func (h *Hub) Room(id RoomID) *Room {
	return h.rooms.GetOrCreate(id)
}

// Rooms exposes the registry.
func (h *Hub) Rooms() *Registry {
	return h.rooms
}

// Views exposes the global view counter.
func (h *Hub) Views() *ViewCounter {
	return h.views
}

// Stats collects room and subscriber counts.
func (h *Hub) Stats() Stats {
	st := Stats{
		Subscribers: make(map[RoomID]int),
		Views:       h.views.Load(),
	}
	h.rooms.Range(func(room *Room) bool {
		st.Subscribers[room.ID] = room.Subscribers()
		return true
	})
	st.Rooms = len(st.Subscribers)
	return st
}

// Run blocks until ctx is done and then closes every room.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.rooms.Close()
}

// Drain closes every room and waits until all subscriptions have been released
// or ctx is done.
func (h *Hub) Drain(ctx context.Context) error {
	h.rooms.Close()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if h.subscribers() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (h *Hub) subscribers() int {
	total := 0
	h.rooms.Range(func(room *Room) bool {
		total += room.Subscribers()
		return true
	})
	return total
}
