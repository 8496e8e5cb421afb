package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/repobox/repobox/internal/domain"
	apperrors "github.com/repobox/repobox/internal/errors"
)

// DocumentStore is an in-memory DocumentStore implementation.
type DocumentStore struct {
	mu            sync.Mutex
	Repositories  map[string]*domain.RepositoryDocument
	Owners        map[string]*domain.OwnerStats
	Languages     map[string]*domain.LanguageStats
	Locations     map[string]*domain.LocationStats
	Topics        map[string]*domain.TopicStats
	Frameworks    map[string]*domain.FrameworkStats
	Licenses      map[string]*domain.LicenseStats
	Organizations map[string]*domain.OrganizationStats
	Cities        map[string]*domain.CityStats
	Contributors  map[string]*domain.ContributorStats
	Runs          map[string]*domain.CollectionRun
	UserProfiles  map[string]*domain.UserProfile
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		Repositories:  make(map[string]*domain.RepositoryDocument),
		Owners:        make(map[string]*domain.OwnerStats),
		Languages:     make(map[string]*domain.LanguageStats),
		Locations:     make(map[string]*domain.LocationStats),
		Topics:        make(map[string]*domain.TopicStats),
		Frameworks:    make(map[string]*domain.FrameworkStats),
		Licenses:      make(map[string]*domain.LicenseStats),
		Organizations: make(map[string]*domain.OrganizationStats),
		Cities:        make(map[string]*domain.CityStats),
		Contributors:  make(map[string]*domain.ContributorStats),
		Runs:          make(map[string]*domain.CollectionRun),
		UserProfiles:  make(map[string]*domain.UserProfile),
	}
}

func (s *DocumentStore) ReplaceRepository(ctx context.Context, doc *domain.RepositoryDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.Repositories[doc.ID] = &copied
	return nil
}

func (s *DocumentStore) GetRepository(ctx context.Context, id string) (*domain.RepositoryDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.Repositories[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("repository " + id)
	}
	copied := *doc
	return &copied, nil
}

func (s *DocumentStore) ListRepositories(ctx context.Context) ([]*domain.RepositoryDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]*domain.RepositoryDocument, 0, len(s.Repositories))
	for _, doc := range s.Repositories {
		copied := *doc
		docs = append(docs, &copied)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *DocumentStore) ListRepositoriesByLocation(ctx context.Context, location string, limit int) ([]*domain.RepositoryDocument, error) {
	all, _ := s.ListRepositories(ctx)
	var docs []*domain.RepositoryDocument
	for _, doc := range all {
		if doc.Location == location {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Stars > docs[j].Stars })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *DocumentStore) ListRepositoriesByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.RepositoryDocument, error) {
	all, _ := s.ListRepositories(ctx)
	var docs []*domain.RepositoryDocument
	for _, doc := range all {
		if doc.OwnerType == ownerType {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (s *DocumentStore) ReplaceOwnerStats(ctx context.Context, stats *domain.OwnerStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Owners[stats.Login] = stats
	return nil
}

func (s *DocumentStore) ListOwnerStats(ctx context.Context) ([]*domain.OwnerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.OwnerStats, 0, len(s.Owners))
	for _, o := range s.Owners {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

func (s *DocumentStore) ReplaceLanguageStats(ctx context.Context, stats *domain.LanguageStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Languages[stats.Name] = stats
	return nil
}

func (s *DocumentStore) ListLanguageStats(ctx context.Context) ([]*domain.LanguageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.LanguageStats, 0, len(s.Languages))
	for _, l := range s.Languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DocumentStore) ReplaceLocationStats(ctx context.Context, stats *domain.LocationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Locations[stats.Name] = stats
	return nil
}

func (s *DocumentStore) ListLocationStats(ctx context.Context) ([]*domain.LocationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.LocationStats, 0, len(s.Locations))
	for _, l := range s.Locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DocumentStore) ReplaceTopicStats(ctx context.Context, stats *domain.TopicStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Topics[stats.Name] = stats
	return nil
}

func (s *DocumentStore) ListTopicStats(ctx context.Context) ([]*domain.TopicStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.TopicStats, 0, len(s.Topics))
	for _, t := range s.Topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DocumentStore) ReplaceFrameworkStats(ctx context.Context, stats *domain.FrameworkStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Frameworks[stats.Name] = stats
	return nil
}

func (s *DocumentStore) ListFrameworkStats(ctx context.Context) ([]*domain.FrameworkStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.FrameworkStats, 0, len(s.Frameworks))
	for _, f := range s.Frameworks {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DocumentStore) ReplaceLicenseStats(ctx context.Context, stats *domain.LicenseStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Licenses[stats.Name] = stats
	return nil
}

func (s *DocumentStore) ReplaceOrganizationStats(ctx context.Context, stats *domain.OrganizationStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Organizations[stats.Name] = stats
	return nil
}

func (s *DocumentStore) ReplaceCityStats(ctx context.Context, stats *domain.CityStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cities[stats.Name] = stats
	return nil
}

func (s *DocumentStore) ReplaceContributorStats(ctx context.Context, stats *domain.ContributorStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Contributors[stats.Login] = stats
	return nil
}

func (s *DocumentStore) SaveRun(ctx context.Context, run *domain.CollectionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *run
	s.Runs[run.ID] = &copied
	return nil
}

func (s *DocumentStore) ReplaceUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserProfiles[profile.Login] = profile
	return nil
}

func (s *DocumentStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *DocumentStore) Ping(ctx context.Context) error { return nil }

func (s *DocumentStore) Close(ctx context.Context) error { return nil }
