package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/annix-labs/fieldflow/internal/interfaces/http/handlers"
	"github.com/annix-labs/fieldflow/internal/interfaces/http/middleware"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// RouterConfig holds everything needed to build the HTTP router.
type RouterConfig struct {
	Mode           string
	AllowedOrigins []string

	PlatformHandler *handlers.PlatformHandler
	WebhookHandler  *handlers.WebhookHandler
	AuthMiddleware  *middleware.AuthMiddleware

	Logger logger.Interface
}

// SetupRouter builds the Gin engine with all routes and middleware.
func SetupRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	SetupPlatformRoutes(api, PlatformRouteConfig{
		Handler:        cfg.PlatformHandler,
		AuthMiddleware: cfg.AuthMiddleware,
	})
	SetupWebhookRoutes(api, WebhookRouteConfig{
		Handler: cfg.WebhookHandler,
	})

	return router
}
