package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/repobox/repobox/internal/errors"
	"github.com/repobox/repobox/internal/storage"
)

const (
	// longCacheTTL covers the aggregate endpoints whose backing queries
	// only change when a collection or aggregation run finishes.
	longCacheTTL = 10 * time.Minute

	defaultRepoLimit = 10
	maxCacheKeysPage = 50
)

// countryCoordinates maps the countries the map endpoint knows how to plot.
// Rows for any other location are filtered out of the map response.
var countryCoordinates = map[string]struct{ Lat, Lon float64 }{
	"Tunisia":   {33.8869, 9.5375},
	"France":    {46.2276, 2.2137},
	"USA":       {37.0902, -95.7129},
	"Germany":   {51.1657, 10.4515},
	"Japan":     {36.2048, 138.2529},
	"UK":        {55.3781, -3.4360},
	"Canada":    {56.1304, -106.3468},
	"India":     {20.5937, 78.9629},
	"Brazil":    {-14.2350, -51.9253},
	"Australia": {-25.2744, 133.7751},
}

// Handler handles API requests
type Handler struct {
	graph    storage.GraphStore
	docs     storage.DocumentStore
	cache    storage.CacheStore
	cacheTTL time.Duration
}

// NewHandler creates a new API handler. cacheTTL is the response cache TTL
// for the short-lived endpoints.
func NewHandler(graph storage.GraphStore, docs storage.DocumentStore, cache storage.CacheStore, cacheTTL time.Duration) *Handler {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Handler{
		graph:    graph,
		docs:     docs,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Root returns API metadata and the endpoint catalogue
// GET /
func (h *Handler) Root(c *gin.Context) {
	keys, err := h.cache.DBSize(c.Request.Context())
	if err != nil {
		keys = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Repobox Insights API",
		"version": "1.0.0",
		"cache": gin.H{
			"enabled": true,
			"keys":    keys,
			"ttl":     h.cacheTTL.String(),
		},
		"endpoints": []string{
			"/metrics/locations/map",
			"/locations/:location/repos",
			"/metrics/languages",
			"/metrics/locations/compare",
			"/cache/stats",
			"/cache/clear",
		},
	})
}

// HealthCheck returns the health status
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// locationMapRow is one location of the world-map response.
type locationMapRow struct {
	Location   string  `json:"location"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Repos      int     `json:"repos"`
	AvgStars   float64 `json:"avg_stars"`
	TotalStars int     `json:"total_stars"`
}

// GetLocationMap returns location aggregates with map coordinates
// GET /metrics/locations/map
func (h *Handler) GetLocationMap(c *gin.Context) {
	h.respondCached(c, "locations_map", longCacheTTL, func(ctx context.Context) (any, error) {
		aggs, err := h.graph.LocationAggregates(ctx)
		if err != nil {
			return nil, err
		}

		rows := []locationMapRow{}
		for _, agg := range aggs {
			coords, ok := countryCoordinates[agg.Location]
			if !ok {
				continue
			}
			rows = append(rows, locationMapRow{
				Location:   agg.Location,
				Latitude:   coords.Lat,
				Longitude:  coords.Lon,
				Repos:      agg.Repos,
				AvgStars:   math.Round(agg.AvgStars*100) / 100,
				TotalStars: agg.TotalStars,
			})
		}
		return rows, nil
	})
}

// GetReposByLocation returns the top repositories for a location
// GET /locations/:location/repos?limit=10
func (h *Handler) GetReposByLocation(c *gin.Context) {
	location := c.Param("location")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultRepoLimit)))
	if err != nil || limit <= 0 {
		respondError(c, apperrors.NewBadRequestError("limit must be a positive integer"))
		return
	}

	key := fmt.Sprintf("repos_by_location:%s:%d", location, limit)
	h.respondCached(c, key, h.cacheTTL, func(ctx context.Context) (any, error) {
		return h.docs.ListRepositoriesByLocation(ctx, location, limit)
	})
}

// GetLanguages returns per-language aggregates from the graph store
// GET /metrics/languages
func (h *Handler) GetLanguages(c *gin.Context) {
	h.respondCached(c, "languages", longCacheTTL, func(ctx context.Context) (any, error) {
		return h.graph.LanguageAggregates(ctx)
	})
}

// CompareLocations returns per-location aggregates for side-by-side panels
// GET /metrics/locations/compare
func (h *Handler) CompareLocations(c *gin.Context) {
	h.respondCached(c, "locations_compare", longCacheTTL, func(ctx context.Context) (any, error) {
		return h.graph.LocationAggregates(ctx)
	})
}

// CacheStats returns cache store statistics
// GET /cache/stats
func (h *Handler) CacheStats(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.cache.Ping(ctx); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	keys, err := h.cache.DBSize(ctx)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "connected",
		"total_keys": keys,
	})
}

// ClearCache drops all API response cache entries
// POST /cache/clear
func (h *Handler) ClearCache(c *gin.Context) {
	ctx := c.Request.Context()
	keys, err := h.cache.Keys(ctx, cacheKeyPrefix+"*")
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if len(keys) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "success", "cleared_keys": 0})
		return
	}

	cleared, err := h.cache.Del(ctx, keys...)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "cleared_keys": cleared})
}

// ListCacheKeys lists API response cache keys with their TTLs
// GET /cache/keys
func (h *Handler) ListCacheKeys(c *gin.Context) {
	ctx := c.Request.Context()
	keys, err := h.cache.Keys(ctx, cacheKeyPrefix+"*")
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}

	page := keys
	if len(page) > maxCacheKeysPage {
		page = page[:maxCacheKeysPage]
	}

	info := make([]gin.H, 0, len(page))
	for _, key := range page {
		ttl, err := h.cache.TTL(ctx, key)
		if err != nil {
			continue
		}
		info = append(info, gin.H{
			"key":         key,
			"ttl_seconds": int64(ttl.Seconds()),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"total_keys": len(keys),
		"showing":    len(info),
		"keys":       info,
	})
}

// GrafanaSearch returns the metric names available to the Grafana JSON
// datasource plugin
// GET /search
func (h *Handler) GrafanaSearch(c *gin.Context) {
	c.JSON(http.StatusOK, []string{
		"languages",
		"locations_map",
		"locations_compare",
	})
}

type grafanaQueryRequest struct {
	Targets []struct {
		Target string `json:"target"`
	} `json:"targets"`
}

type grafanaColumn struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type grafanaTable struct {
	Target  string          `json:"target"`
	Type    string          `json:"type"`
	Columns []grafanaColumn `json:"columns"`
	Rows    [][]any         `json:"rows"`
}

// GrafanaQuery answers Grafana table queries
// POST /query
func (h *Handler) GrafanaQuery(c *gin.Context) {
	var req grafanaQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid query request body"))
		return
	}

	results := []grafanaTable{}
	for _, target := range req.Targets {
		if target.Target != "languages" && target.Target != "/metrics/languages" {
			continue
		}

		aggs, err := h.graph.LanguageAggregates(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		rows := make([][]any, 0, len(aggs))
		for _, agg := range aggs {
			rows = append(rows, []any{agg.Language, agg.Repos, agg.AvgStars})
		}
		results = append(results, grafanaTable{
			Target: "languages",
			Type:   "table",
			Columns: []grafanaColumn{
				{Text: "language", Type: "string"},
				{Text: "repos", Type: "number"},
				{Text: "avg_stars", Type: "number"},
			},
			Rows: rows,
		})
	}

	c.JSON(http.StatusOK, results)
}

func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
