package http

import (
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/sync"
)

// NewServer builds the view server: the HTTP surface the rendering layer
// consumes in place of direct access to the synchronization controller.
func NewServer(ctrl *sync.Controller, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", healthHandler)

	handlers := NewViewHandlers(ctrl, logger)
	api := router.Group("/api")
	{
		api.GET("/view", handlers.GetView)
		api.PUT("/scope", handlers.SetScope)
		api.POST("/messages", handlers.SendMessage)
		api.POST("/refresh", handlers.Refresh)
		api.POST("/signout", handlers.SignOut)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	_, _ = fmt.Fprint(c.Writer, "ok")
}
