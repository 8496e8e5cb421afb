package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up the API routes
func SetupRoutes(handler *Handler) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(Recovery())
	router.Use(CORS())
	router.Use(gin.Logger())

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)

	// Dashboard metrics
	router.GET("/metrics/locations/map", handler.GetLocationMap)
	router.GET("/metrics/locations/compare", handler.CompareLocations)
	router.GET("/metrics/languages", handler.GetLanguages)
	router.GET("/locations/:location/repos", handler.GetReposByLocation)

	// Cache administration
	router.GET("/cache/stats", handler.CacheStats)
	router.POST("/cache/clear", handler.ClearCache)
	router.GET("/cache/keys", handler.ListCacheKeys)

	// Grafana JSON datasource plugin
	router.GET("/search", handler.GrafanaSearch)
	router.POST("/query", handler.GrafanaQuery)

	return router
}
