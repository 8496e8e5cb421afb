package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
	"github.com/repobox/repobox/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	graph  *memory.GraphStore
	docs   *memory.DocumentStore
	cache  *memory.CacheStore
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	graph := memory.NewGraphStore()
	docs := memory.NewDocumentStore()
	cache := memory.NewCacheStore()
	handler := NewHandler(graph, docs, cache, time.Minute)
	return &testEnv{
		graph:  graph,
		docs:   docs,
		cache:  cache,
		router: SetupRoutes(handler),
	}
}

func (e *testEnv) do(method, target string, body []byte) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeJSON(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestRootListsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string   `json:"status"`
		Endpoints []string `json:"endpoints"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Contains(t, body.Endpoints, "/metrics/languages")
	assert.Contains(t, body.Endpoints, "/metrics/locations/map")
}

func TestGetLanguagesCachesResponse(t *testing.T) {
	env := newTestEnv(t)
	env.graph.LanguageRows = []*storage.LanguageAggregate{
		{Language: "Go", Repos: 10, AvgStars: 25.5},
		{Language: "Rust", Repos: 4, AvgStars: 12},
	}

	rec := env.do(http.MethodGet, "/metrics/languages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []*storage.LanguageAggregate
	decodeJSON(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "Go", rows[0].Language)

	// The cached body keeps serving even after the backing data changes.
	env.graph.LanguageRows = nil
	rec = env.do(http.MethodGet, "/metrics/languages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &rows)
	assert.Len(t, rows, 2)

	cached, err := env.cache.Get(context.Background(), "api:languages")
	require.NoError(t, err)
	assert.Contains(t, cached, "Rust")
}

func TestGetLocationMapFiltersUnknownCountries(t *testing.T) {
	env := newTestEnv(t)
	env.graph.LocationRows = []*storage.LocationAggregate{
		{Location: "France", Repos: 12, AvgStars: 33.333, TotalStars: 400},
		{Location: "Atlantis", Repos: 9, AvgStars: 1, TotalStars: 9},
	}

	rec := env.do(http.MethodGet, "/metrics/locations/map", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []locationMapRow
	decodeJSON(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "France", rows[0].Location)
	assert.Equal(t, 46.2276, rows[0].Latitude)
	assert.Equal(t, 33.33, rows[0].AvgStars)
	assert.Equal(t, 400, rows[0].TotalStars)
}

func TestCompareLocationsReturnsAllRows(t *testing.T) {
	env := newTestEnv(t)
	env.graph.LocationRows = []*storage.LocationAggregate{
		{Location: "France", Repos: 12, AvgStars: 30, TotalStars: 360},
		{Location: "Atlantis", Repos: 9, AvgStars: 1, TotalStars: 9},
	}

	rec := env.do(http.MethodGet, "/metrics/locations/compare", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Unlike the map endpoint, compare keeps every location.
	var rows []*storage.LocationAggregate
	decodeJSON(t, rec, &rows)
	assert.Len(t, rows, 2)
}

func TestGetReposByLocation(t *testing.T) {
	env := newTestEnv(t)
	for i, stars := range []int{5, 50, 20} {
		id := string(rune('a' + i))
		env.docs.Repositories[id] = &domain.RepositoryDocument{
			ID: id, FullName: "o/" + id, OwnerLogin: "o",
			Location: "France", Language: "Go", Stars: stars,
		}
	}
	env.docs.Repositories["x"] = &domain.RepositoryDocument{
		ID: "x", FullName: "o/x", OwnerLogin: "o", Location: "Japan", Stars: 999,
	}

	rec := env.do(http.MethodGet, "/locations/France/repos?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var repos []*domain.RepositoryDocument
	decodeJSON(t, rec, &repos)
	require.Len(t, repos, 2)
	assert.Equal(t, 50, repos[0].Stars)
	assert.Equal(t, 20, repos[1].Stars)
}

func TestGetReposByLocationRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{
		"/locations/France/repos?limit=abc",
		"/locations/France/repos?limit=0",
		"/locations/France/repos?limit=-3",
	} {
		rec := env.do(http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		decodeJSON(t, rec, &body)
		assert.Equal(t, "BAD_REQUEST", body.Error.Code)
	}
}

func TestCacheStats(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.cache.SetEx(context.Background(), "api:languages", "[]", time.Minute))

	rec := env.do(http.MethodGet, "/cache/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string `json:"status"`
		TotalKeys int64  `json:"total_keys"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, "connected", body.Status)
	assert.Equal(t, int64(1), body.TotalKeys)
}

func TestClearCacheOnlyDropsAPIKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.cache.SetEx(ctx, "api:languages", "[]", time.Minute))
	require.NoError(t, env.cache.SetEx(ctx, "api:locations_map", "[]", time.Minute))
	require.NoError(t, env.cache.ZAdd(ctx, "leaderboard:global:stars", "o/r", 10))

	rec := env.do(http.MethodPost, "/cache/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status      string `json:"status"`
		ClearedKeys int64  `json:"cleared_keys"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, int64(2), body.ClearedKeys)

	// The pipeline's leaderboard keys survive a response-cache clear.
	card, err := env.cache.ZCard(ctx, "leaderboard:global:stars")
	require.NoError(t, err)
	assert.Equal(t, int64(1), card)
}

func TestListCacheKeys(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.cache.SetEx(ctx, "api:languages", "[]", time.Minute))
	require.NoError(t, env.cache.SetEx(ctx, "api:locations_map", "[]", time.Minute))

	rec := env.do(http.MethodGet, "/cache/keys", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalKeys int `json:"total_keys"`
		Showing   int `json:"showing"`
		Keys      []struct {
			Key        string `json:"key"`
			TTLSeconds int64  `json:"ttl_seconds"`
		} `json:"keys"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, 2, body.TotalKeys)
	assert.Equal(t, 2, body.Showing)
	for _, info := range body.Keys {
		assert.Greater(t, info.TTLSeconds, int64(0), info.Key)
	}
}

func TestGrafanaSearch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/search", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var metrics []string
	decodeJSON(t, rec, &metrics)
	assert.Equal(t, []string{"languages", "locations_map", "locations_compare"}, metrics)
}

func TestGrafanaQueryLanguagesTable(t *testing.T) {
	env := newTestEnv(t)
	env.graph.LanguageRows = []*storage.LanguageAggregate{
		{Language: "Go", Repos: 3, AvgStars: 15},
	}

	body := []byte(`{"targets":[{"target":"languages"},{"target":"ignored"}]}`)
	rec := env.do(http.MethodPost, "/query", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var tables []grafanaTable
	decodeJSON(t, rec, &tables)
	require.Len(t, tables, 1)
	assert.Equal(t, "languages", tables[0].Target)
	assert.Equal(t, "table", tables[0].Type)
	require.Len(t, tables[0].Columns, 3)
	require.Len(t, tables[0].Rows, 1)
	assert.Equal(t, "Go", tables[0].Rows[0][0])
}

func TestGrafanaQueryRejectsBadBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/query", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondCachedUnencodableResult(t *testing.T) {
	env := newTestEnv(t)
	handler := NewHandler(env.graph, env.docs, env.cache, time.Minute)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/languages", nil)

	// NaN has no JSON encoding, so marshaling the result fails.
	handler.respondCached(c, "languages", time.Minute, func(ctx context.Context) (any, error) {
		return math.NaN(), nil
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]map[string]string
	decodeJSON(t, rec, &body)
	assert.Equal(t, "INTERNAL_ERROR", body["error"]["code"])

	// A response that never made it out must not be cached either.
	_, err := env.cache.Get(context.Background(), "api:languages")
	assert.Equal(t, storage.ErrCacheMiss, err)
}
