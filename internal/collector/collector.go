package collector

import (
	"context"

	"github.com/repobox/repobox/internal/domain"
)

// Fetcher defines the interface for fetching GitHub repository metadata
type Fetcher interface {
	// SearchRepositories returns up to targetCount repositories for a
	// language, ranked by star count descending. country optionally narrows
	// the search to owners in that country. A page-level failure aborts the
	// remaining pagination and returns whatever was accumulated so far.
	SearchRepositories(ctx context.Context, language string, targetCount int, country string) ([]*domain.Repository, error)

	// GetUserProfile returns a single user's profile and their owned
	// repositories sorted by stars.
	GetUserProfile(ctx context.Context, username string) (*domain.UserProfile, []*domain.Repository, error)
}
