package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/Fitsum-Berhane/price-comparison-app/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/v1")
	{
		// Observation ingestion (requires API key)
		v1.POST("/observations", middleware.APIKeyAuth(authCfg), handler.IngestObservation)

		// Product endpoints (public read access)
		v1.GET("/products/:id", handler.GetProduct)
		v1.GET("/products/:id/observations", handler.GetProductObservations)
		v1.GET("/products/:id/history", handler.GetPriceHistory)

		// Manual stat recompute (requires API key)
		v1.POST("/products/:id/reconcile", middleware.APIKeyAuth(authCfg), handler.ReconcileProduct)

		// Scraper source endpoints
		v1.GET("/sources", handler.ListSources)
		v1.POST("/sources/:id/runs", middleware.APIKeyAuth(authCfg), handler.TriggerRun)

		// Run endpoints (public read access)
		v1.GET("/runs/:id", handler.GetRun)
	}
}
