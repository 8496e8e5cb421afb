package collector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/repobox/repobox/internal/domain"
	apperrors "github.com/repobox/repobox/internal/errors"
)

const (
	searchPageSize = 100
	// rateLimitLowWater is the remaining-request threshold below which a
	// warning is printed. Pagination is never blocked on the rate limit;
	// the fixed pageDelay between pages keeps usage well under the search
	// API quota.
	rateLimitLowWater = 10
	pageDelay         = time.Second
)

// githubFetcher implements Fetcher using the GitHub search API
type githubFetcher struct {
	client *github.Client
}

// NewGitHubFetcher creates a new GitHub fetcher authenticated with a
// personal access token.
func NewGitHubFetcher(token string) Fetcher {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	return &githubFetcher{client: client}
}

// NewFetcherWithClient creates a fetcher around an existing GitHub client.
// Used by tests to point the fetcher at a stub server.
func NewFetcherWithClient(client *github.Client) Fetcher {
	return &githubFetcher{client: client}
}

// SearchRepositories pages through the search API until targetCount
// repositories are collected or results run out. Results arrive sorted by
// stars descending; the order is preserved in the returned slice.
func (f *githubFetcher) SearchRepositories(ctx context.Context, language string, targetCount int, country string) ([]*domain.Repository, error) {
	query := fmt.Sprintf("language:%s", language)
	if country != "" {
		query = fmt.Sprintf("%s location:%s", query, country)
	}

	pages := (targetCount + searchPageSize - 1) / searchPageSize
	var allRepos []*domain.Repository

	for page := 1; page <= pages; page++ {
		opts := &github.SearchOptions{
			Sort:  "stars",
			Order: "desc",
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: searchPageSize,
			},
		}

		result, resp, err := f.client.Search.Repositories(ctx, query, opts)
		if err != nil {
			if ctx.Err() != nil {
				return allRepos, ctx.Err()
			}
			// A failed page aborts the remaining pagination but keeps
			// what was already collected.
			fmt.Printf("Warning: search page %d for %s failed: %v\n", page, language, err)
			break
		}

		f.warnLowRateLimit(resp)

		for _, repo := range result.Repositories {
			allRepos = append(allRepos, convertRepository(repo))
		}

		if len(allRepos) >= targetCount || resp.NextPage == 0 {
			break
		}

		select {
		case <-ctx.Done():
			return allRepos, ctx.Err()
		case <-time.After(pageDelay):
		}
	}

	if len(allRepos) > targetCount {
		allRepos = allRepos[:targetCount]
	}
	return allRepos, nil
}

// GetUserProfile fetches a single user and all of their owned repositories,
// folding repository totals into the profile.
func (f *githubFetcher) GetUserProfile(ctx context.Context, username string) (*domain.UserProfile, []*domain.Repository, error) {
	user, resp, err := f.client.Users.Get(ctx, username)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("user %s", username))
		}
		return nil, nil, apperrors.NewFetchError(fmt.Sprintf("failed to fetch user %s", username), err)
	}

	profile := &domain.UserProfile{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		Type:        domain.OwnerType(user.GetType()),
		AvatarURL:   user.GetAvatarURL(),
		Bio:         user.GetBio(),
		Company:     user.GetCompany(),
		Location:    user.GetLocation(),
		Blog:        user.GetBlog(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
		PublicRepos: user.GetPublicRepos(),
		CreatedAt:   user.GetCreatedAt().Time,
		UpdatedAt:   time.Now().UTC(),
	}

	var allRepos []*domain.Repository
	opts := &github.RepositoryListOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: searchPageSize},
	}

	for {
		repos, resp, err := f.client.Repositories.List(ctx, username, opts)
		if err != nil {
			return nil, nil, apperrors.NewFetchError(fmt.Sprintf("failed to list repositories for %s", username), err)
		}
		f.warnLowRateLimit(resp)

		for _, repo := range repos {
			allRepos = append(allRepos, convertRepository(repo))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	languages := map[string]bool{}
	for _, repo := range allRepos {
		profile.TotalRepos++
		profile.TotalStars += repo.Stars
		profile.TotalForks += repo.Forks
		if repo.Language != "" {
			languages[repo.Language] = true
		}
	}
	for lang := range languages {
		profile.Languages = append(profile.Languages, lang)
	}
	sort.Strings(profile.Languages)

	sort.Slice(allRepos, func(i, j int) bool {
		return allRepos[i].Stars > allRepos[j].Stars
	})

	return profile, allRepos, nil
}

func (f *githubFetcher) warnLowRateLimit(resp *github.Response) {
	if resp != nil && resp.Rate.Limit > 0 && resp.Rate.Remaining < rateLimitLowWater {
		fmt.Printf("Warning: GitHub rate limit low: %d requests remaining, resets at %s\n",
			resp.Rate.Remaining, resp.Rate.Reset.Format(time.RFC3339))
	}
}

// convertRepository maps an API repository onto the domain type.
func convertRepository(repo *github.Repository) *domain.Repository {
	owner := domain.Owner{}
	if repo.Owner != nil {
		owner = domain.Owner{
			Login:     repo.Owner.GetLogin(),
			Type:      domain.OwnerType(repo.Owner.GetType()),
			AvatarURL: repo.Owner.GetAvatarURL(),
			URL:       repo.Owner.GetHTMLURL(),
			Location:  repo.Owner.GetLocation(),
		}
	}
	if owner.Type == "" {
		owner.Type = domain.OwnerTypeUser
	}

	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}

	return &domain.Repository{
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		Owner:         owner,
		Description:   repo.GetDescription(),
		Language:      repo.GetLanguage(),
		Topics:        repo.Topics,
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		Watchers:      repo.GetWatchersCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		Size:          repo.GetSize(),
		URL:           repo.GetHTMLURL(),
		CreatedAt:     repo.GetCreatedAt().Time,
		UpdatedAt:     repo.GetUpdatedAt().Time,
		IsFork:        repo.GetFork(),
		DefaultBranch: branch,
		HasWiki:       repo.GetHasWiki(),
		HasIssues:     repo.GetHasIssues(),
	}
}
