package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/birdroom/internal/config"
	"github.com/vovakirdan/birdroom/internal/core"
	"github.com/vovakirdan/birdroom/internal/utils"
)

// frameConn is the part of *websocket.Conn a session needs.
type frameConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// RoomHandler upgrades room requests and relays frames through the room's broadcast.
type RoomHandler struct {
	hub           *core.Hub
	maxChars      int
	maxFrameBytes int64
	log           *zerolog.Logger
}

// NewRoomHandler builds a room WebSocket handler.
func NewRoomHandler(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		hub:           hub,
		maxChars:      cfg.MaxMessageChars,
		maxFrameBytes: cfg.MaxFrameBytes,
		log:           logger,
	}
}

// ServeRoom handles GET {base}/ws/room/{room_id}/user/{user}.
func (h *RoomHandler) ServeRoom(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	roomID, err := core.ParseRoomID(r.PathValue("room_id"))
	if err != nil {
		h.log.Debug().Err(err).Str("room_id", r.PathValue("room_id")).Msg("invalid room id")
		writeJSON(w, stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.maxFrameBytes)

	start := time.Now()
	sess := newSession(h.hub.Room(roomID), h.hub.Views(), r.PathValue("user"), h.maxChars, h.log)
	err = sess.run(r.Context(), conn)
	sess.log.Info().Err(err).Dur("duration", time.Since(start)).Msg("ws session closed")
}

type session struct {
	id       string
	user     string
	room     *core.Room
	views    *core.ViewCounter
	maxChars int
	log      *zerolog.Logger
}

func newSession(room *core.Room, views *core.ViewCounter, user string, maxChars int, logger *zerolog.Logger) *session {
	id := utils.NewID()
	l := logger.With().
		Str("session_id", id).
		Stringer("room", room.ID).
		Str("user", user).
		Logger()

	return &session{
		id:       id,
		user:     user,
		room:     room,
		views:    views,
		maxChars: maxChars,
		log:      &l,
	}
}

// run relays frames until either direction stops and closes conn.
//
// A writer that stops on its own (room closed, write failure) closes conn while
// the reader is still blocked, so the peer sees the writer's close status; the
// reader then fails and the group cancels. A reader that stops first cancels the
// writer through the group context. run returns after both loops have exited and
// the subscription has been released.
func (s *session) run(ctx context.Context, conn frameConn) error {
	sub := s.room.Subscribe()
	defer sub.Close()

	s.log.Debug().Int("subscribers", s.room.Subscribers()).Msg("session started")

	var cause error
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.readLoop(ctx, conn)
	})
	g.Go(func() error {
		err := s.writeLoop(ctx, conn, sub)
		if ctx.Err() == nil {
			cause = err
			closeConn(conn, err, s.log)
		}
		return err
	})

	err := g.Wait()
	if cause != nil {
		err = cause
	} else {
		closeConn(conn, err, s.log)
	}
	s.log.Debug().Err(err).Msg("session ended")
	return err
}

func (s *session) readLoop(ctx context.Context, conn frameConn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			s.log.Debug().Msg("ignoring non-text frame")
			continue
		}

		msg, err := inboundToMessage(s.user, data, s.maxChars)
		if err != nil {
			s.log.Warn().Err(err).Msg("dropping inbound message")
			continue
		}

		n, err := s.room.Publish(msg)
		if err != nil {
			return err
		}
		s.log.Debug().Int("receivers", n).Msg("message published")
	}
}

func (s *session) writeLoop(ctx context.Context, conn frameConn, sub *core.Subscription[core.Message]) error {
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if lagged, ok := core.IsLagged(err); ok {
				s.log.Warn().Uint64("missed", lagged.Missed).Msg("subscriber lagged")
				continue
			}
			return err
		}

		s.views.Inc()

		data, err := outboundFromMessage(msg)
		if err != nil {
			return err
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			return err
		}
	}
}

// closeConn closes conn with a status derived from the error that ended the session.
func closeConn(conn frameConn, err error, logger *zerolog.Logger) {
	status, reason, abnormal := closeStatus(err)
	if abnormal {
		logger.Warn().Err(err).Msg("ws connection closed with error")
	}
	_ = conn.Close(status, reason)
}

func closeStatus(err error) (websocket.StatusCode, string, bool) {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		return websocket.StatusNormalClosure, "closing", false
	case errors.Is(err, core.ErrClosed):
		return websocket.StatusGoingAway, "server shutting down", false
	}

	switch s := websocket.CloseStatus(err); s {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway, websocket.StatusNoStatusRcvd:
		return websocket.StatusNormalClosure, "closing", false
	}
	return websocket.StatusInternalError, "internal error", true
}
