package storage

import (
	"context"
	"time"

	"github.com/repobox/repobox/internal/domain"
)

// GraphStore is the abstract interface for the property-graph store. All
// write operations have merge (match-or-create) semantics keyed on the
// node's identity property, so repeated writes are idempotent.
type GraphStore interface {
	// Node merges
	MergeRepository(ctx context.Context, repo *domain.Repository) error
	MergeOwner(ctx context.Context, owner *domain.Owner) error
	MergeLocation(ctx context.Context, country string) error
	MergeCity(ctx context.Context, city, country string) error
	MergeLanguage(ctx context.Context, language string) error
	MergeTopic(ctx context.Context, topic string) error
	MergeFramework(ctx context.Context, name, language string) error
	MergeDependency(ctx context.Context, name, language string) error
	MergeContributor(ctx context.Context, login, repoFullName string, ownerType domain.OwnerType, contributions int) error

	// Relationship merges
	MergeOwnership(ctx context.Context, repoFullName string, owner *domain.Owner) error
	MergeRepositoryLocation(ctx context.Context, repoFullName, country string) error
	MergeCityInCountry(ctx context.Context, city, country string) error
	MergeOwnerInCity(ctx context.Context, owner *domain.Owner, city string) error
	MergeRepositoryLanguage(ctx context.Context, repoFullName, language string) error
	MergeRepositoryTopic(ctx context.Context, repoFullName, topic string) error
	MergeRepositoryFramework(ctx context.Context, repoFullName, framework string) error
	MergeRepositoryDependency(ctx context.Context, repoFullName, dependency string) error

	// Aggregate read queries for the API layer
	LocationAggregates(ctx context.Context) ([]*LocationAggregate, error)
	LanguageAggregates(ctx context.Context) ([]*LanguageAggregate, error)

	// ClearAll removes every node and relationship (init only).
	ClearAll(ctx context.Context) error
	// EnsureIndexes creates the label/property indexes used by queries.
	EnsureIndexes(ctx context.Context) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// LocationAggregate is one row of the per-location graph aggregate query.
type LocationAggregate struct {
	Location   string  `json:"location"`
	Repos      int     `json:"repos"`
	AvgStars   float64 `json:"avg_stars"`
	TotalStars int     `json:"total_stars"`
}

// LanguageAggregate is one row of the per-language graph aggregate query.
type LanguageAggregate struct {
	Language string  `json:"language"`
	Repos    int     `json:"repos"`
	AvgStars float64 `json:"avg_stars"`
}

// DocumentStore is the abstract interface for the document store. Replace
// operations are replace-upserts keyed on each record's ID.
type DocumentStore interface {
	// Raw repository collection
	ReplaceRepository(ctx context.Context, doc *domain.RepositoryDocument) error
	GetRepository(ctx context.Context, id string) (*domain.RepositoryDocument, error)
	ListRepositories(ctx context.Context) ([]*domain.RepositoryDocument, error)
	ListRepositoriesByLocation(ctx context.Context, location string, limit int) ([]*domain.RepositoryDocument, error)
	ListRepositoriesByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.RepositoryDocument, error)

	// Derived summary collections
	ReplaceOwnerStats(ctx context.Context, stats *domain.OwnerStats) error
	ListOwnerStats(ctx context.Context) ([]*domain.OwnerStats, error)
	ReplaceLanguageStats(ctx context.Context, stats *domain.LanguageStats) error
	ListLanguageStats(ctx context.Context) ([]*domain.LanguageStats, error)
	ReplaceLocationStats(ctx context.Context, stats *domain.LocationStats) error
	ListLocationStats(ctx context.Context) ([]*domain.LocationStats, error)
	ReplaceTopicStats(ctx context.Context, stats *domain.TopicStats) error
	ListTopicStats(ctx context.Context) ([]*domain.TopicStats, error)
	ReplaceFrameworkStats(ctx context.Context, stats *domain.FrameworkStats) error
	ListFrameworkStats(ctx context.Context) ([]*domain.FrameworkStats, error)

	// Enrichment collections
	ReplaceLicenseStats(ctx context.Context, stats *domain.LicenseStats) error
	ReplaceOrganizationStats(ctx context.Context, stats *domain.OrganizationStats) error
	ReplaceCityStats(ctx context.Context, stats *domain.CityStats) error
	ReplaceContributorStats(ctx context.Context, stats *domain.ContributorStats) error

	// Run and profile records
	SaveRun(ctx context.Context, run *domain.CollectionRun) error
	ReplaceUserProfile(ctx context.Context, profile *domain.UserProfile) error

	// EnsureIndexes creates the collection indexes used by queries.
	EnsureIndexes(ctx context.Context) error

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ScoredMember is one (member, score) entry of a ranked set.
type ScoredMember struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// CacheStore is the abstract interface for the fast key-value store. The
// operations mirror the small slice of the Redis command set the pipeline
// uses: ranked sets for leaderboards, hashes for counters and snapshots,
// and plain TTL keys for the API response cache.
type CacheStore interface {
	// Ranked sets
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZIncrBy(ctx context.Context, key string, increment float64, member string) error
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) error
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)
	ZCard(ctx context.Context, key string) (int64, error)

	// Hashes
	HIncrBy(ctx context.Context, key, field string, increment int64) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// Plain keys with TTL (API response cache)
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Keys(ctx context.Context, pattern string) ([]string, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error

	DBSize(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// ErrCacheMiss is returned by CacheStore.Get when the key does not exist.
var ErrCacheMiss = cacheMissError{}

type cacheMissError struct{}

func (cacheMissError) Error() string { return "cache miss" }

// RelationalStore is the abstract interface for the BI mirror. Sync is a
// full rebuild: Migrate drops and recreates the tables, the Insert methods
// bulk-load rows, CreateIndexes finishes the load.
type RelationalStore interface {
	Migrate(ctx context.Context) error
	InsertRepositories(ctx context.Context, docs []*domain.RepositoryDocument) error
	InsertOwners(ctx context.Context, stats []*domain.OwnerStats) error
	InsertLanguages(ctx context.Context, stats []*domain.LanguageStats) error
	InsertTopics(ctx context.Context, stats []*domain.TopicStats) error
	InsertFrameworks(ctx context.Context, stats []*domain.FrameworkStats) error
	CreateIndexes(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
}
