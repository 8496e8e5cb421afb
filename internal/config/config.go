package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken string

	// Memgraph (graph store, Bolt protocol)
	MemgraphHost string
	MemgraphPort string

	// MongoDB (document store)
	MongoHost string
	MongoPort string
	MongoDB   string

	// Dragonfly (fast cache store, Redis protocol)
	DragonflyHost string
	DragonflyPort string

	// Relational mirror for BI tools
	RelationalType string // "postgres" or "sqlite"
	PostgresURL    string
	SQLitePath     string

	// Collection settings
	Languages        []string
	ReposPerLanguage int
	FilterByCountry  string

	// API Server
	APIHost     string
	APIPort     string
	APICacheTTL int // seconds
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return &Config{
		GitHubToken: getEnv("GITHUB_TOKEN", ""),

		MemgraphHost: getEnv("MEMGRAPH_HOST", "localhost"),
		MemgraphPort: getEnv("MEMGRAPH_PORT", "7687"),

		MongoHost: getEnv("MONGODB_HOST", "localhost"),
		MongoPort: getEnv("MONGODB_PORT", "27018"),
		MongoDB:   getEnv("MONGODB_DB", "repobox"),

		DragonflyHost: getEnv("DRAGONFLY_HOST", "localhost"),
		DragonflyPort: getEnv("DRAGONFLY_PORT", "6379"),

		RelationalType: getEnv("RELATIONAL_TYPE", "postgres"),
		PostgresURL:    getEnv("POSTGRES_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "./repobox.db"),

		Languages:        splitList(getEnv("LANGUAGES", "python")),
		ReposPerLanguage: getEnvInt("REPOS_PER_LANGUAGE", 500),
		FilterByCountry:  getEnv("FILTER_BY_COUNTRY", ""),

		APIHost:     getEnv("API_HOST", "0.0.0.0"),
		APIPort:     getEnv("API_PORT", "8000"),
		APICacheTTL: getEnvInt("API_CACHE_TTL", 300),
	}, nil
}

// MemgraphURI returns the Bolt URI for the graph store.
func (c *Config) MemgraphURI() string {
	return "bolt://" + c.MemgraphHost + ":" + c.MemgraphPort
}

// MongoURI returns the connection URI for the document store.
func (c *Config) MongoURI() string {
	return "mongodb://" + c.MongoHost + ":" + c.MongoPort + "/"
}

// DragonflyAddr returns the host:port address of the cache store.
func (c *Config) DragonflyAddr() string {
	return c.DragonflyHost + ":" + c.DragonflyPort
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// splitList splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate validates the collection configuration
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return &ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token is required"}
	}
	if len(c.Languages) == 0 {
		return &ConfigError{Field: "LANGUAGES", Message: "at least one language is required"}
	}
	if c.ReposPerLanguage <= 0 {
		return &ConfigError{Field: "REPOS_PER_LANGUAGE", Message: "must be positive"}
	}
	return nil
}

// ValidateRelational validates the relational mirror configuration
func (c *Config) ValidateRelational() error {
	if c.RelationalType != "postgres" && c.RelationalType != "sqlite" {
		return &ConfigError{Field: "RELATIONAL_TYPE", Message: "must be 'postgres' or 'sqlite'"}
	}
	if c.RelationalType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when RELATIONAL_TYPE is 'postgres'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
