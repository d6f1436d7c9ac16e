package app

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/birdroom/internal/config"
	"github.com/vovakirdan/birdroom/internal/core"
	transporthttp "github.com/vovakirdan/birdroom/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hub := core.NewHub(cfg.RoomBuffer)
	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	// Hijacked WebSocket connections outlive Shutdown; they end when the hub
	// drains or, for probes, when sessions is canceled.
	sessions, stopSessions := context.WithCancel(context.Background())
	defer stopSessions()
	a.server.BaseContext = func(net.Listener) context.Context { return sessions }

	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}

		if err := a.hub.Drain(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("room sessions still open at shutdown deadline")
		}
		stopSessions()

		st := a.hub.Stats()
		a.log.Info().Int("rooms", st.Rooms).Uint64("views", st.Views).Msg("hub stopped")
		return <-serverErr
	}
}
