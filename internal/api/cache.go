package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/repobox/repobox/internal/errors"
	"github.com/repobox/repobox/internal/storage"
)

// cacheKeyPrefix namespaces API response cache entries so /cache/clear can
// drop them without touching the leaderboard and counter keys.
const cacheKeyPrefix = "api:"

// respondCached serves the response for key from the cache when present,
// otherwise computes it, caches the marshaled body for ttl, and serves it.
// Cache failures are logged and ignored: a broken cache degrades to
// recomputing, never to an error response.
func (h *Handler) respondCached(c *gin.Context, key string, ttl time.Duration, compute func(ctx context.Context) (any, error)) {
	ctx := c.Request.Context()
	cacheKey := cacheKeyPrefix + key

	if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
		return
	} else if err != storage.ErrCacheMiss {
		fmt.Printf("Cache read error: %v\n", err)
	}

	result, err := compute(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := json.Marshal(result)
	if err != nil {
		respondError(c, apperrors.NewInternalError("failed to encode response", err))
		return
	}

	if err := h.cache.SetEx(ctx, cacheKey, string(body), ttl); err != nil {
		fmt.Printf("Cache write error: %v\n", err)
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
