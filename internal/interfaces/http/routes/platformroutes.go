// Package routes wires handlers into the Gin router.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/annix-labs/fieldflow/internal/interfaces/http/handlers"
	"github.com/annix-labs/fieldflow/internal/interfaces/http/middleware"
)

// PlatformRouteConfig holds dependencies for platform management routes.
type PlatformRouteConfig struct {
	Handler        *handlers.PlatformHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// SetupPlatformRoutes registers the connection management and sync API.
func SetupPlatformRoutes(router *gin.RouterGroup, cfg PlatformRouteConfig) {
	platforms := router.Group("/platforms")
	platforms.Use(cfg.AuthMiddleware.RequireAuth())
	{
		oauth := platforms.Group("/oauth")
		{
			oauth.GET("/:platform/url", cfg.Handler.GetOAuthURL)
			oauth.POST("/:platform/callback", cfg.Handler.OAuthCallback)
		}

		connections := platforms.Group("/connections")
		{
			connections.GET("", cfg.Handler.ListConnections)
			connections.GET("/:id", cfg.Handler.GetConnection)
			connections.PATCH("/:id", cfg.Handler.UpdateConnection)
			connections.DELETE("/:id", cfg.Handler.Disconnect)
			connections.POST("/:id/sync", cfg.Handler.SyncConnection)
			connections.GET("/:id/records", cfg.Handler.ListRecords)
		}

		platforms.GET("/records/:id", cfg.Handler.GetRecord)
	}
}
