package http

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/birdroom/internal/core"
)

// ViewsHandlers exposes the view counter and room statistics.
type ViewsHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewViewsHandlers creates a new views handlers instance.
func NewViewsHandlers(hub *core.Hub, logger *zerolog.Logger) *ViewsHandlers {
	return &ViewsHandlers{hub: hub, log: logger}
}

// RoomStats is one room in the stats response.
type RoomStats struct {
	ID          int64 `json:"id"`
	Subscribers int   `json:"subscribers"`
}

// StatsResponse represents the room stats response body.
type StatsResponse struct {
	Rooms []RoomStats `json:"rooms"`
	Views uint64      `json:"views"`
}

// Reset zeroes the view counter.
// POST /reset
func (h *ViewsHandlers) Reset(c *gin.Context) {
	prev := h.hub.Views().Reset()
	h.log.Info().Uint64("previous", prev).Msg("views reset")
	c.Status(http.StatusOK)
}

// Views returns the view counter as plain text.
// GET /views
func (h *ViewsHandlers) Views(c *gin.Context) {
	c.String(http.StatusOK, strconv.FormatUint(h.hub.Views().Load(), 10))
}

// Rooms lists rooms with their current subscriber counts.
// GET /rooms
func (h *ViewsHandlers) Rooms(c *gin.Context) {
	st := h.hub.Stats()

	rooms := make([]RoomStats, 0, len(st.Subscribers))
	for id, n := range st.Subscribers {
		rooms = append(rooms, RoomStats{ID: int64(id), Subscribers: n})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	c.JSON(http.StatusOK, StatsResponse{Rooms: rooms, Views: st.Views})
}
