package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voicespaces-server/internal/auth"
	"github.com/vovakirdan/voicespaces-server/internal/config"
	"github.com/vovakirdan/voicespaces-server/internal/core"
	"github.com/vovakirdan/voicespaces-server/internal/media"
	"github.com/vovakirdan/voicespaces-server/internal/state"
)

// Dependencies are the services the HTTP layer routes to.
// Media and Metrics may be nil.
type Dependencies struct {
	Hub     *core.Hub
	State   *state.Coordinator
	Auth    *auth.Service
	Media   media.Issuer
	Metrics stdhttp.Handler
}

// NewServer builds the HTTP server with REST, websocket and health routes.
func NewServer(cfg *config.Config, deps Dependencies, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.CORSOrigins))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(deps.Hub, cfg, logger)))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	apiHandlers := NewAPIHandlers(deps.Auth, logger)
	roomHandlers := NewRoomHandlers(deps.State, deps.Media, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.GET("/rooms", roomHandlers.ListRooms)
	}

	protected := api.Group("")
	protected.Use(AuthMiddleware(deps.Auth, logger))
	{
		protected.GET("/rooms/:id/media-token", roomHandlers.MediaToken)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
