package client

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetLocationMap(t *testing.T) {
	server := newStubServer(t, map[string]string{
		"/metrics/locations/map": `[{"location":"France","latitude":46.2276,"longitude":2.2137,"repos":12,"avg_stars":33.33,"total_stars":400}]`,
	})

	points, err := NewClient(server.URL).GetLocationMap()
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "France", points[0].Location)
	assert.Equal(t, 46.2276, points[0].Latitude)
	assert.Equal(t, 12, points[0].Repos)
	assert.Equal(t, 400, points[0].TotalStars)
}

func TestGetReposByLocation(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/locations/France/repos", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"alice_api","full_name":"alice/api","stars":50,"language":"Go","location":"France"}]`))
	}))
	defer server.Close()

	repos, err := NewClient(server.URL).GetReposByLocation("France", 5)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "alice/api", repos[0].FullName)
	assert.Equal(t, 50, repos[0].Stars)
	assert.Equal(t, "limit=5", gotQuery)
}

func TestGetLanguages(t *testing.T) {
	server := newStubServer(t, map[string]string{
		"/metrics/languages": `[{"language":"Go","repos":10,"avg_stars":25.5},{"language":"Rust","repos":4,"avg_stars":12}]`,
	})

	aggs, err := NewClient(server.URL).GetLanguages()
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	assert.Equal(t, "Go", aggs[0].Language)
	assert.Equal(t, 25.5, aggs[0].AvgStars)
}

func TestCompareLocations(t *testing.T) {
	server := newStubServer(t, map[string]string{
		"/metrics/locations/compare": `[{"location":"France","repos":12,"avg_stars":30,"total_stars":360}]`,
	})

	aggs, err := NewClient(server.URL).CompareLocations()
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, 360, aggs[0].TotalStars)
}

func TestGetCacheStats(t *testing.T) {
	server := newStubServer(t, map[string]string{
		"/cache/stats": `{"status":"connected","total_keys":7}`,
	})

	stats, err := NewClient(server.URL).GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, "connected", stats.Status)
	assert.Equal(t, int64(7), stats.TotalKeys)
}

func TestClearCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/cache/clear", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","cleared_keys":3}`))
	}))
	defer server.Close()

	cleared, err := NewClient(server.URL).ClearCache()
	require.NoError(t, err)
	assert.Equal(t, int64(3), cleared)
}

func TestClearCacheReportsFailure(t *testing.T) {
	server := newStubServer(t, map[string]string{
		"/cache/clear": `{"status":"error","message":"cache unreachable"}`,
	})

	_, err := NewClient(server.URL).ClearCache()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache unreachable")
}

func TestHealthCheck(t *testing.T) {
	server := newStubServer(t, map[string]string{
		"/health": `{"status":"healthy"}`,
	})
	require.NoError(t, NewClient(server.URL).HealthCheck())
}

func TestHealthCheckUnhealthy(t *testing.T) {
	server := newStubServer(t, map[string]string{
		"/health": `{"status":"degraded"}`,
	})
	err := NewClient(server.URL).HealthCheck()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "degraded")
}

func TestErrorStatusSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST","message":"limit must be a positive integer"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetReposByLocation("France", -1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit must be a positive integer")
}
