package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repobox/repobox/internal/domain"
	apperrors "github.com/repobox/repobox/internal/errors"
	"github.com/repobox/repobox/internal/storage/memory"
	"github.com/repobox/repobox/internal/writer"
)

// stubFetcher returns canned repositories per language and fails the
// languages listed in failing.
type stubFetcher struct {
	reposByLanguage map[string][]*domain.Repository
	failing         map[string]bool
	calls           []string
}

func (s *stubFetcher) SearchRepositories(ctx context.Context, language string, targetCount int, country string) ([]*domain.Repository, error) {
	s.calls = append(s.calls, language)
	if s.failing[language] {
		return nil, apperrors.NewFetchError("search failed for "+language, nil)
	}
	return s.reposByLanguage[language], nil
}

func (s *stubFetcher) GetUserProfile(ctx context.Context, username string) (*domain.UserProfile, []*domain.Repository, error) {
	return nil, nil, apperrors.NewNotFoundError("user " + username)
}

func makeRepos(language string, n int) []*domain.Repository {
	repos := make([]*domain.Repository, 0, n)
	for i := 0; i < n; i++ {
		repos = append(repos, &domain.Repository{
			Name:     fmt.Sprintf("%s-repo%d", language, i),
			FullName: fmt.Sprintf("owner/%s-repo%d", language, i),
			Owner:    domain.Owner{Login: "owner", Type: domain.OwnerTypeUser},
			Language: language,
			Stars:    i,
		})
	}
	return repos
}

func newTestDriver(fetcher *stubFetcher, docs *memory.DocumentStore, opts Options) Driver {
	w := writer.NewMultiStoreWriter(memory.NewGraphStore(), docs, memory.NewCacheStore())
	return NewDriver(fetcher, w, docs, opts)
}

func TestRunCollectsAllLanguages(t *testing.T) {
	fetcher := &stubFetcher{
		reposByLanguage: map[string][]*domain.Repository{
			"Go":   makeRepos("Go", 3),
			"Rust": makeRepos("Rust", 2),
		},
	}
	docs := memory.NewDocumentStore()
	driver := newTestDriver(fetcher, docs, Options{
		Languages:        []string{"Go", "Rust"},
		ReposPerLanguage: 10,
	})

	run, err := driver.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, 5, run.TotalRepos)
	assert.Empty(t, run.FailedLanguages)
	assert.Equal(t, []string{"Go", "Rust"}, fetcher.calls)

	repos, err := docs.ListRepositories(context.Background())
	require.NoError(t, err)
	assert.Len(t, repos, 5)
}

func TestRunIsolatesFailingLanguage(t *testing.T) {
	fetcher := &stubFetcher{
		reposByLanguage: map[string][]*domain.Repository{
			"Go":     makeRepos("Go", 2),
			"Python": makeRepos("Python", 4),
		},
		failing: map[string]bool{"Rust": true},
	}
	docs := memory.NewDocumentStore()
	driver := newTestDriver(fetcher, docs, Options{
		Languages:        []string{"Go", "Rust", "Python"},
		ReposPerLanguage: 10,
	})

	run, err := driver.Run(context.Background())
	require.NoError(t, err)

	// The failing language is recorded, the rest still complete.
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, []string{"Rust"}, run.FailedLanguages)
	assert.Equal(t, 6, run.TotalRepos)
	assert.Equal(t, []string{"Go", "Rust", "Python"}, fetcher.calls)
}

func TestRunSavesRunRecord(t *testing.T) {
	fetcher := &stubFetcher{
		reposByLanguage: map[string][]*domain.Repository{"Go": makeRepos("Go", 1)},
	}
	docs := memory.NewDocumentStore()
	driver := newTestDriver(fetcher, docs, Options{
		Languages:        []string{"Go"},
		ReposPerLanguage: 5,
		Country:          "France",
	})

	run, err := driver.Run(context.Background())
	require.NoError(t, err)

	saved, ok := docs.Runs[run.ID]
	require.True(t, ok)
	assert.Equal(t, "completed", saved.Status)
	assert.Equal(t, "France", saved.Country)
	assert.Equal(t, []string{"Go"}, saved.Languages)
	assert.False(t, saved.FinishedAt.IsZero())
	assert.NotEmpty(t, run.ID)
}
