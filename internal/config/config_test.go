package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GITHUB_TOKEN", "MEMGRAPH_HOST", "MEMGRAPH_PORT",
		"MONGODB_HOST", "MONGODB_PORT", "MONGODB_DB",
		"DRAGONFLY_HOST", "DRAGONFLY_PORT",
		"RELATIONAL_TYPE", "POSTGRES_URL", "SQLITE_PATH",
		"LANGUAGES", "REPOS_PER_LANGUAGE", "FILTER_BY_COUNTRY",
		"API_HOST", "API_PORT", "API_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.MemgraphHost)
	assert.Equal(t, "7687", cfg.MemgraphPort)
	assert.Equal(t, "27018", cfg.MongoPort)
	assert.Equal(t, "repobox", cfg.MongoDB)
	assert.Equal(t, "6379", cfg.DragonflyPort)
	assert.Equal(t, "postgres", cfg.RelationalType)
	assert.Equal(t, "./repobox.db", cfg.SQLitePath)
	assert.Equal(t, []string{"python"}, cfg.Languages)
	assert.Equal(t, 500, cfg.ReposPerLanguage)
	assert.Equal(t, "", cfg.FilterByCountry)
	assert.Equal(t, "8000", cfg.APIPort)
	assert.Equal(t, 300, cfg.APICacheTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("LANGUAGES", "go, rust,python")
	t.Setenv("REPOS_PER_LANGUAGE", "50")
	t.Setenv("FILTER_BY_COUNTRY", "France")
	t.Setenv("API_CACHE_TTL", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.GitHubToken)
	assert.Equal(t, []string{"go", "rust", "python"}, cfg.Languages)
	assert.Equal(t, 50, cfg.ReposPerLanguage)
	assert.Equal(t, "France", cfg.FilterByCountry)
	assert.Equal(t, 60, cfg.APICacheTTL)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPOS_PER_LANGUAGE", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.ReposPerLanguage)
}

func TestConnectionURIs(t *testing.T) {
	cfg := &Config{
		MemgraphHost:  "graph.internal",
		MemgraphPort:  "7687",
		MongoHost:     "docs.internal",
		MongoPort:     "27017",
		DragonflyHost: "cache.internal",
		DragonflyPort: "6380",
	}

	assert.Equal(t, "bolt://graph.internal:7687", cfg.MemgraphURI())
	assert.Equal(t, "mongodb://docs.internal:27017/", cfg.MongoURI())
	assert.Equal(t, "cache.internal:6380", cfg.DragonflyAddr())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GitHubToken:      "token",
			Languages:        []string{"go"},
			ReposPerLanguage: 100,
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.GitHubToken = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")

	cfg = base()
	cfg.Languages = nil
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LANGUAGES")

	cfg = base()
	cfg.ReposPerLanguage = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPOS_PER_LANGUAGE")
}

func TestValidateRelational(t *testing.T) {
	cfg := &Config{RelationalType: "postgres", PostgresURL: "postgres://localhost/repobox"}
	assert.NoError(t, cfg.ValidateRelational())

	cfg = &Config{RelationalType: "sqlite"}
	assert.NoError(t, cfg.ValidateRelational())

	cfg = &Config{RelationalType: "postgres"}
	err := cfg.ValidateRelational()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_URL")

	cfg = &Config{RelationalType: "mysql"}
	err = cfg.ValidateRelational()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RELATIONAL_TYPE")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"go", "rust"}, splitList("go,rust"))
	assert.Equal(t, []string{"go", "rust"}, splitList(" go , rust "))
	assert.Equal(t, []string{"go"}, splitList("go,,"))
	assert.Nil(t, splitList(""))
}
