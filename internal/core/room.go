package core

import (
	"strconv"

	"github.com/puzpuzpuz/xsync/v3"
)

// RoomID identifies a room. Any integer is a valid room.
type RoomID int64

// ParseRoomID parses a decimal room identifier.
func ParseRoomID(s string) (RoomID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return RoomID(id), nil
}

func (id RoomID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Room groups sessions that see each other's messages.
type Room struct {
	ID   RoomID
	feed *Broadcast[Message]
}

// NewRoom constructs a room whose feed buffers up to capacity messages.
func NewRoom(id RoomID, capacity int) *Room {
	return &Room{
		ID:   id,
		feed: NewBroadcast[Message](capacity),
	}
}

// Publish hands msg to every current subscriber of the room.
// It returns the number of subscribers the message was handed to.
func (r *Room) Publish(msg Message) (int, error) {
	msg.Room = r.ID
	return r.feed.Publish(msg)
}

// Subscribe returns a fresh subscription that starts at the next published message.
func (r *Room) Subscribe() *Subscription[Message] {
	return r.feed.Subscribe()
}

// Subscribers returns the number of open subscriptions.
func (r *Room) Subscribers() int {
	return r.feed.Subscribers()
}

func (r *Room) close() {
	r.feed.Close()
}

// Registry maps room identifiers to rooms, creating them on first use.
// Rooms are never removed.
type Registry struct {
	rooms    *xsync.MapOf[RoomID, *Room]
	capacity int
}

// NewRegistry creates an empty registry whose rooms buffer capacity messages.
func NewRegistry(capacity int) *Registry {
	if capacity < 1 {
		capacity = DefaultBroadcastCapacity
	}
	return &Registry{
		rooms:    xsync.NewMapOf[RoomID, *Room](),
		capacity: capacity,
	}
}

// GetOrCreate returns the room for id, creating it atomically if absent.
func (r *Registry) GetOrCreate(id RoomID) *Room {
	room, _ := r.rooms.LoadOrCompute(id, func() *Room {
		return NewRoom(id, r.capacity)
	})
	return room
}

// Get returns the room for id if it exists.
func (r *Registry) Get(id RoomID) (*Room, bool) {
	return r.rooms.Load(id)
}

// Len returns the number of rooms created so far.
func (r *Registry) Len() int {
	return r.rooms.Size()
}

// Range calls fn for every room until fn returns false.
func (r *Registry) Range(fn func(room *Room) bool) {
	r.rooms.Range(func(_ RoomID, room *Room) bool {
		return fn(room)
	})
}

// Close closes every room's feed so subscribers stop receiving.
func (r *Registry) Close() {
	r.Range(func(room *Room) bool {
		room.close()
		return true
	})
}
