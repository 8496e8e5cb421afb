package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
)

// Client is the API client for the repobox read API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LocationMapPoint is one location of the world-map response.
type LocationMapPoint struct {
	Location   string  `json:"location"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Repos      int     `json:"repos"`
	AvgStars   float64 `json:"avg_stars"`
	TotalStars int     `json:"total_stars"`
}

// GetLocationMap retrieves location aggregates with map coordinates
func (c *Client) GetLocationMap() ([]LocationMapPoint, error) {
	var points []LocationMapPoint
	if err := c.get("/metrics/locations/map", nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// GetReposByLocation retrieves the top repositories for a location
func (c *Client) GetReposByLocation(location string, limit int) ([]*domain.RepositoryDocument, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var repos []*domain.RepositoryDocument
	if err := c.get("/locations/"+url.PathEscape(location)+"/repos", params, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// GetLanguages retrieves per-language aggregates
func (c *Client) GetLanguages() ([]*storage.LanguageAggregate, error) {
	var aggs []*storage.LanguageAggregate
	if err := c.get("/metrics/languages", nil, &aggs); err != nil {
		return nil, err
	}
	return aggs, nil
}

// CompareLocations retrieves per-location aggregates
func (c *Client) CompareLocations() ([]*storage.LocationAggregate, error) {
	var aggs []*storage.LocationAggregate
	if err := c.get("/metrics/locations/compare", nil, &aggs); err != nil {
		return nil, err
	}
	return aggs, nil
}

// CacheStats holds the response of the cache statistics endpoint.
type CacheStats struct {
	Status    string `json:"status"`
	TotalKeys int64  `json:"total_keys"`
	Message   string `json:"message,omitempty"`
}

// GetCacheStats retrieves cache store statistics
func (c *Client) GetCacheStats() (*CacheStats, error) {
	var stats CacheStats
	if err := c.get("/cache/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClearCache drops all API response cache entries and returns how many
// keys were removed.
func (c *Client) ClearCache() (int64, error) {
	var response struct {
		Status      string `json:"status"`
		ClearedKeys int64  `json:"cleared_keys"`
		Message     string `json:"message,omitempty"`
	}
	if err := c.post("/cache/clear", nil, &response); err != nil {
		return 0, err
	}
	if response.Status != "success" {
		return 0, fmt.Errorf("cache clear failed: %s", response.Message)
	}
	return response.ClearedKeys, nil
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck() error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.get("/health", nil, &response); err != nil {
		return err
	}
	if response.Status != "healthy" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) get(path string, params url.Values, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, result)
}

func (c *Client) post(path string, body interface{}, result interface{}) error {
	payload := []byte("{}")
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, result)
}

func decodeResponse(resp *http.Response, result interface{}) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
