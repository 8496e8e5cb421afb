package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/repobox/repobox/internal/detect"
	"github.com/repobox/repobox/internal/domain"
	apperrors "github.com/repobox/repobox/internal/errors"
	"github.com/repobox/repobox/internal/storage"
)

const (
	maxGraphTopics = 5
	repoCacheTTL   = time.Hour
	recentReposCap = 100
)

// Writer fans one repository record out to the three stores.
type Writer interface {
	Store(ctx context.Context, repo *domain.Repository, country string) error
}

type multiStoreWriter struct {
	graph storage.GraphStore
	docs  storage.DocumentStore
	cache storage.CacheStore
	now   func() time.Time
}

// NewMultiStoreWriter creates a writer over the three store clients.
func NewMultiStoreWriter(graph storage.GraphStore, docs storage.DocumentStore, cache storage.CacheStore) Writer {
	return &multiStoreWriter{
		graph: graph,
		docs:  docs,
		cache: cache,
		now:   time.Now,
	}
}

// Store writes the repository to the graph, document, and cache stores.
// Each store is attempted even when an earlier one fails; the failures are
// joined into a single store error so one slow or down store never hides
// the record from the others.
func (w *multiStoreWriter) Store(ctx context.Context, repo *domain.Repository, country string) error {
	text := repo.SearchText()
	frameworks := detect.Frameworks(text)
	dependencies := detect.Dependencies(text)

	var errs []error
	if err := w.storeGraph(ctx, repo, country, frameworks, dependencies); err != nil {
		errs = append(errs, fmt.Errorf("graph: %w", err))
	}
	if err := w.storeDocument(ctx, repo, country, frameworks); err != nil {
		errs = append(errs, fmt.Errorf("document: %w", err))
	}
	if err := w.storeCache(ctx, repo, country, frameworks); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if len(errs) > 0 {
		return apperrors.NewStoreError("multi-store", fmt.Sprintf("failed to store %s", repo.FullName), errors.Join(errs...))
	}
	return nil
}

func (w *multiStoreWriter) storeGraph(ctx context.Context, repo *domain.Repository, country string, frameworks, dependencies []detect.Match) error {
	if err := w.graph.MergeRepository(ctx, repo); err != nil {
		return err
	}
	if err := w.graph.MergeOwner(ctx, &repo.Owner); err != nil {
		return err
	}
	if err := w.graph.MergeOwnership(ctx, repo.FullName, &repo.Owner); err != nil {
		return err
	}

	if country != "" {
		if err := w.graph.MergeLocation(ctx, country); err != nil {
			return err
		}
		if err := w.graph.MergeRepositoryLocation(ctx, repo.FullName, country); err != nil {
			return err
		}
		if city := detect.City(repo.Owner.Location); city != "" {
			if err := w.graph.MergeCity(ctx, city, country); err != nil {
				return err
			}
			if err := w.graph.MergeCityInCountry(ctx, city, country); err != nil {
				return err
			}
			if err := w.graph.MergeOwnerInCity(ctx, &repo.Owner, city); err != nil {
				return err
			}
		}
	}

	if repo.Language != "" {
		if err := w.graph.MergeLanguage(ctx, repo.Language); err != nil {
			return err
		}
		if err := w.graph.MergeRepositoryLanguage(ctx, repo.FullName, repo.Language); err != nil {
			return err
		}
	}

	for _, topic := range limitTopics(repo.Topics) {
		if err := w.graph.MergeTopic(ctx, topic); err != nil {
			return err
		}
		if err := w.graph.MergeRepositoryTopic(ctx, repo.FullName, topic); err != nil {
			return err
		}
	}

	for _, fw := range frameworks {
		if err := w.graph.MergeFramework(ctx, fw.Name, fw.Language); err != nil {
			return err
		}
		if err := w.graph.MergeRepositoryFramework(ctx, repo.FullName, fw.Name); err != nil {
			return err
		}
	}

	for _, dep := range dependencies {
		if err := w.graph.MergeDependency(ctx, dep.Name, dep.Language); err != nil {
			return err
		}
		if err := w.graph.MergeRepositoryDependency(ctx, repo.FullName, dep.Name); err != nil {
			return err
		}
	}

	// The owner stands in as the repository's main contributor: the search
	// API does not return per-contributor data.
	return w.graph.MergeContributor(ctx, repo.Owner.Login, repo.FullName, repo.Owner.Type, repo.Stars)
}

func (w *multiStoreWriter) storeDocument(ctx context.Context, repo *domain.Repository, country string, frameworks []detect.Match) error {
	location := country
	if location == "" {
		location = domain.LocationGlobal
	}
	language := repo.Language
	if language == "" {
		language = "Unknown"
	}

	doc := &domain.RepositoryDocument{
		ID:            repo.DocumentID(),
		Name:          repo.Name,
		FullName:      repo.FullName,
		Stars:         repo.Stars,
		Forks:         repo.Forks,
		Watchers:      repo.Watchers,
		OpenIssues:    repo.OpenIssues,
		Size:          repo.Size,
		Language:      language,
		Topics:        repo.Topics,
		Frameworks:    detect.Names(frameworks),
		Location:      location,
		OwnerLogin:    repo.Owner.Login,
		OwnerType:     repo.Owner.Type,
		Description:   repo.Description,
		URL:           repo.URL,
		CreatedAt:     repo.CreatedAt,
		UpdatedAt:     repo.UpdatedAt,
		IsFork:        repo.IsFork,
		DefaultBranch: repo.DefaultBranch,
		CollectedAt:   w.now().UTC(),
	}
	return w.docs.ReplaceRepository(ctx, doc)
}

func (w *multiStoreWriter) storeCache(ctx context.Context, repo *domain.Repository, country string, frameworks []detect.Match) error {
	if err := w.cache.ZAdd(ctx, "leaderboard:global:stars", repo.FullName, float64(repo.Stars)); err != nil {
		return err
	}
	if err := w.cache.ZAdd(ctx, "leaderboard:global:forks", repo.FullName, float64(repo.Forks)); err != nil {
		return err
	}
	if repo.Language != "" {
		if err := w.cache.ZAdd(ctx, "leaderboard:language:"+repo.Language, repo.FullName, float64(repo.Stars)); err != nil {
			return err
		}
	}

	// Owner counters are increments, not replacements: re-ingesting the
	// same repository inflates them. Totals that must stay exact come from
	// the aggregation pass instead.
	ownerKey := "owner:" + repo.Owner.Login + ":stats"
	if err := w.cache.HIncrBy(ctx, ownerKey, "total_repos", 1); err != nil {
		return err
	}
	if err := w.cache.HIncrBy(ctx, ownerKey, "total_stars", int64(repo.Stars)); err != nil {
		return err
	}
	if err := w.cache.HIncrBy(ctx, ownerKey, "total_forks", int64(repo.Forks)); err != nil {
		return err
	}

	if repo.Language != "" {
		if err := w.cache.HIncrBy(ctx, "stats:languages", repo.Language, 1); err != nil {
			return err
		}
		if err := w.cache.ZIncrBy(ctx, "trending:languages", 1, repo.Language); err != nil {
			return err
		}
	}
	for _, topic := range limitTopics(repo.Topics) {
		if err := w.cache.ZIncrBy(ctx, "trending:topics", 1, topic); err != nil {
			return err
		}
	}
	for _, fw := range frameworks {
		if err := w.cache.ZIncrBy(ctx, "trending:frameworks", 1, fw.Name); err != nil {
			return err
		}
	}

	language := repo.Language
	if language == "" {
		language = "Unknown"
	}
	repoKey := "repo:" + repo.FullName
	if err := w.cache.HSet(ctx, repoKey, map[string]string{
		"name":     repo.Name,
		"stars":    fmt.Sprintf("%d", repo.Stars),
		"forks":    fmt.Sprintf("%d", repo.Forks),
		"language": language,
		"owner":    repo.Owner.Login,
		"url":      repo.URL,
	}); err != nil {
		return err
	}
	if err := w.cache.Expire(ctx, repoKey, repoCacheTTL); err != nil {
		return err
	}

	if country != "" {
		if err := w.cache.ZAdd(ctx, "leaderboard:location:"+country, repo.FullName, float64(repo.Stars)); err != nil {
			return err
		}
		locKey := "stats:location:" + country
		if err := w.cache.HIncrBy(ctx, locKey, "total_repos", 1); err != nil {
			return err
		}
		if err := w.cache.HIncrBy(ctx, locKey, "total_stars", int64(repo.Stars)); err != nil {
			return err
		}
		if repo.Language != "" {
			if err := w.cache.ZIncrBy(ctx, "location:"+country+":languages", 1, repo.Language); err != nil {
				return err
			}
		}
	}

	if err := w.cache.ZAdd(ctx, "recent:repos", repo.FullName, float64(w.now().Unix())); err != nil {
		return err
	}
	// Trim to the newest recentReposCap entries after every insert.
	return w.cache.ZRemRangeByRank(ctx, "recent:repos", 0, int64(-recentReposCap-1))
}

func limitTopics(topics []string) []string {
	if len(topics) > maxGraphTopics {
		return topics[:maxGraphTopics]
	}
	return topics
}
