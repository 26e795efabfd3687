package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/annix-labs/fieldflow/internal/interfaces/http/handlers"
)

// WebhookRouteConfig holds dependencies for the webhook ingestion routes.
type WebhookRouteConfig struct {
	Handler *handlers.WebhookHandler
}

// SetupWebhookRoutes registers the provider push endpoints. These are
// authenticated by provider-specific mechanisms, not by user tokens.
func SetupWebhookRoutes(router *gin.RouterGroup, cfg WebhookRouteConfig) {
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/zoom", cfg.Handler.HandleZoom)
		webhooks.POST("/teams", cfg.Handler.HandleTeams)
		webhooks.POST("/google-calendar", cfg.Handler.HandleGoogleCalendar)
		// Some deployments configured the channel under this name.
		webhooks.POST("/google-meet", cfg.Handler.HandleGoogleCalendar)
	}
}
