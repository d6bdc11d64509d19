package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/textchat-relay/internal/config"
	"github.com/vovakirdan/textchat-relay/internal/core"
	"github.com/vovakirdan/textchat-relay/internal/users"
)

// NewServer builds the chat relay HTTP server: a health route and the
// websocket endpoint.
func NewServer(manager *core.Manager, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/stats", statsHandler(manager))
	router.GET("/ws", gin.WrapH(NewWSHandler(manager, WSOptions{
		MaxMessageBytes:      cfg.MaxMessageBytes,
		MaxMessagesPerMinute: cfg.MaxMessagesPerMinute,
	}, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewUsersServer builds the users service HTTP server.
func NewUsersServer(svc *users.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	api := NewAPIHandlers(svc, logger)
	userHandlers := NewUserHandlers(svc, logger)

	router.GET("/healthz", api.Health)
	router.POST("/users", api.Register)
	router.POST("/users/login", api.Login)
	router.GET("/users", userHandlers.GetUser)

	protected := router.Group("/users")
	protected.Use(AuthMiddleware(svc, logger))
	protected.PUT("", userHandlers.ChangePassword)
	protected.DELETE("", userHandlers.DeleteUser)

	return &stdhttp.Server{
		Addr:              cfg.UsersAddr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Rooms   int `json:"rooms"`
	Clients int `json:"clients"`
}

func statsHandler(manager *core.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := manager.Stats(c.Request.Context())
		if err != nil {
			c.JSON(stdhttp.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(stdhttp.StatusOK, StatsResponse{Rooms: stats.Rooms, Clients: stats.Clients})
	}
}
