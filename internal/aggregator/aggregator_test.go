package aggregator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage/memory"
)

func seedRepo(docs *memory.DocumentStore, doc *domain.RepositoryDocument) {
	if doc.ID == "" {
		doc.ID = doc.FullName
	}
	docs.Repositories[doc.ID] = doc
}

func TestAggregateLocationsFranceScenario(t *testing.T) {
	docs := memory.NewDocumentStore()
	stars := []int{10, 50, 30}
	for i, s := range stars {
		seedRepo(docs, &domain.RepositoryDocument{
			ID:         string(rune('a' + i)),
			FullName:   "owner/repo" + string(rune('a'+i)),
			OwnerLogin: "owner",
			Language:   "Go",
			Location:   "France",
			Stars:      s,
		})
	}

	agg := NewAggregator(docs)
	count, err := agg.AggregateLocations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	loc := docs.Locations["France"]
	require.NotNil(t, loc)
	assert.Equal(t, 3, loc.TotalRepos)
	assert.Equal(t, 90, loc.TotalStars)
	assert.Equal(t, 30.0, loc.AvgStars)
	assert.Equal(t, []string{"Go"}, loc.TopLanguages)
	assert.Equal(t, 1, loc.UniqueOwners)
}

func TestAggregateLocationsTopLanguagesTieBreak(t *testing.T) {
	docs := memory.NewDocumentStore()
	// Two Python, two Go, one Rust, one Zig: the tie between Go and
	// Python resolves lexicographically, and only three languages fit.
	langs := []string{"Python", "Python", "Go", "Go", "Rust", "Zig"}
	for i, lang := range langs {
		seedRepo(docs, &domain.RepositoryDocument{
			ID:         string(rune('a' + i)),
			FullName:   "o/r" + string(rune('a'+i)),
			OwnerLogin: "o",
			Language:   lang,
			Location:   "Global",
		})
	}

	_, err := NewAggregator(docs).AggregateLocations(context.Background())
	require.NoError(t, err)

	loc := docs.Locations["Global"]
	require.NotNil(t, loc)
	assert.Equal(t, []string{"Go", "Python", "Rust"}, loc.TopLanguages)
}

func TestAggregateOwnersStarSums(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepo(docs, &domain.RepositoryDocument{ID: "1", Name: "one", FullName: "alice/one", OwnerLogin: "alice", Language: "Go", Stars: 10, Forks: 2})
	seedRepo(docs, &domain.RepositoryDocument{ID: "2", Name: "two", FullName: "alice/two", OwnerLogin: "alice", Language: "Rust", Stars: 5, Forks: 1})
	seedRepo(docs, &domain.RepositoryDocument{ID: "3", Name: "three", FullName: "bob/three", OwnerLogin: "bob", Language: "Go", Stars: 7, Forks: 0})

	count, err := NewAggregator(docs).AggregateOwners(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	alice := docs.Owners["alice"]
	require.NotNil(t, alice)
	assert.Equal(t, 2, alice.TotalRepos)
	assert.Equal(t, 15, alice.TotalStars)
	assert.Equal(t, 3, alice.TotalForks)
	assert.ElementsMatch(t, []string{"one", "two"}, alice.Repos)
	assert.Equal(t, []string{"Go", "Rust"}, alice.Languages)

	// The owner star totals partition the repository star total.
	total := 0
	for _, owner := range docs.Owners {
		total += owner.TotalStars
	}
	assert.Equal(t, 22, total)
}

func TestAggregateLanguages(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepo(docs, &domain.RepositoryDocument{ID: "1", FullName: "a/1", OwnerLogin: "a", Language: "Go", Stars: 10, Forks: 1})
	seedRepo(docs, &domain.RepositoryDocument{ID: "2", FullName: "b/2", OwnerLogin: "b", Language: "Go", Stars: 5, Forks: 2})
	seedRepo(docs, &domain.RepositoryDocument{ID: "3", FullName: "c/3", OwnerLogin: "c", Language: "", Stars: 1, Forks: 0})

	count, err := NewAggregator(docs).AggregateLanguages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	golang := docs.Languages["Go"]
	require.NotNil(t, golang)
	assert.Equal(t, 2, golang.TotalRepos)
	assert.Equal(t, 15, golang.TotalStars)
	assert.Equal(t, 7.5, golang.AvgStars)
	assert.Equal(t, 2, golang.UniqueOwners)

	// Missing language buckets under Unknown.
	unknown := docs.Languages["Unknown"]
	require.NotNil(t, unknown)
	assert.Equal(t, 1, unknown.TotalRepos)
}

func TestAggregateLanguagesAvgRounding(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepo(docs, &domain.RepositoryDocument{ID: "1", FullName: "a/1", OwnerLogin: "a", Language: "Go", Stars: 10})
	seedRepo(docs, &domain.RepositoryDocument{ID: "2", FullName: "b/2", OwnerLogin: "b", Language: "Go", Stars: 10})
	seedRepo(docs, &domain.RepositoryDocument{ID: "3", FullName: "c/3", OwnerLogin: "c", Language: "Go", Stars: 11})

	_, err := NewAggregator(docs).AggregateLanguages(context.Background())
	require.NoError(t, err)

	// 31/3 = 10.333... rounds to two decimals.
	assert.Equal(t, 10.33, docs.Languages["Go"].AvgStars)
}

func TestAggregateTopicsCountsEveryTopic(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepo(docs, &domain.RepositoryDocument{
		ID: "1", FullName: "a/1", OwnerLogin: "a", Language: "Go", Stars: 3,
		Topics: []string{"cli", "tools", "infra", "devops", "linux", "shell", "terminal"},
	})
	seedRepo(docs, &domain.RepositoryDocument{
		ID: "2", FullName: "b/2", OwnerLogin: "b", Language: "Rust", Stars: 4,
		Topics: []string{"cli"},
	})

	count, err := NewAggregator(docs).AggregateTopics(context.Background())
	require.NoError(t, err)

	// All seven topics of the first repo count, not just the first five.
	assert.Equal(t, 7, count)

	cli := docs.Topics["cli"]
	require.NotNil(t, cli)
	assert.Equal(t, 2, cli.TotalRepos)
	assert.Equal(t, 7, cli.TotalStars)
	assert.Equal(t, []string{"Go", "Rust"}, cli.RelatedLanguages)
}

func TestAggregateFrameworks(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepo(docs, &domain.RepositoryDocument{
		ID: "1", FullName: "a/1", OwnerLogin: "a", Language: "Go", Stars: 8,
		Frameworks: []string{"Gin"},
	})
	seedRepo(docs, &domain.RepositoryDocument{
		ID: "2", FullName: "b/2", OwnerLogin: "b", Language: "JavaScript", Stars: 2,
		Frameworks: []string{"React", "Gin"},
	})

	count, err := NewAggregator(docs).AggregateFrameworks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	gin := docs.Frameworks["Gin"]
	require.NotNil(t, gin)
	assert.Equal(t, 2, gin.TotalRepos)
	assert.Equal(t, 10, gin.TotalStars)
	// Representative language: lexicographically first of the observed set.
	assert.Equal(t, "Go", gin.Language)
}

func TestAggregateAllRunsEveryPass(t *testing.T) {
	docs := memory.NewDocumentStore()
	seedRepo(docs, &domain.RepositoryDocument{
		ID: "1", FullName: "a/1", Name: "1", OwnerLogin: "a", Language: "Go",
		Location: "Global", Stars: 1, Topics: []string{"cli"}, Frameworks: []string{"Gin"},
	})

	require.NoError(t, NewAggregator(docs).AggregateAll(context.Background()))

	assert.Len(t, docs.Owners, 1)
	assert.Len(t, docs.Languages, 1)
	assert.Len(t, docs.Locations, 1)
	assert.Len(t, docs.Topics, 1)
	assert.Len(t, docs.Frameworks, 1)
}
