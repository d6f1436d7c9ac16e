package http

import (
	"context"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/birdroom/internal/core"
)

// PingHandler serves the liveness probe protocol. It is independent of rooms.
type PingHandler struct {
	log *zerolog.Logger
}

// NewPingHandler builds a liveness WebSocket handler.
func NewPingHandler(logger *zerolog.Logger) *PingHandler {
	return &PingHandler{log: logger}
}

// ServePing handles GET {base}/ws/ping.
func (h *PingHandler) ServePing(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	err = runProbe(r.Context(), conn)
	closeConn(conn, err, h.log)
}

// runProbe answers pings until the connection fails.
func runProbe(ctx context.Context, conn frameConn) error {
	var probe core.Probe
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		reply, ok := probe.Handle(string(data))
		if !ok {
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
			return err
		}
	}
}
