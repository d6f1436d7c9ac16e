package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/birdroom/internal/config"
	"github.com/vovakirdan/birdroom/internal/core"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds an HTTP server with the relay routes.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers the relay routes under cfg.BasePath.
//
// WebSocket upgrades are served straight from the ServeMux: gin's response
// writer refuses to hijack a connection it has already marked as written.
// Everything else goes through the gin engine.
func NewRouter(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	rooms := NewRoomHandler(hub, cfg, logger)
	ping := NewPingHandler(logger)

	mux := stdhttp.NewServeMux()
	mux.HandleFunc("GET "+cfg.BasePath+"/ws/ping", ping.ServePing)
	mux.HandleFunc("GET "+cfg.BasePath+"/ws/room/{room_id}/user/{user}", rooms.ServeRoom)
	mux.Handle("/", newEngine(hub, cfg, logger))

	return mux
}

func newEngine(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	views := NewViewsHandlers(hub, logger)

	router.GET("/health", healthHandler)

	base := router.Group(cfg.BasePath)
	base.POST("/reset", views.Reset)
	base.GET("/views", views.Views)
	base.GET("/rooms", views.Rooms)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// writeJSON renders v with gin's JSON renderer outside of a gin context.
func writeJSON(w stdhttp.ResponseWriter, status int, v any) {
	r := render.JSON{Data: v}
	r.WriteContentType(w)
	w.WriteHeader(status)
	_ = r.Render(w)
}
