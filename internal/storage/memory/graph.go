package memory

import (
	"context"
	"sync"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
)

// GraphStore is an in-memory GraphStore implementation. Nodes are tracked
// by label and key so merge idempotence can be asserted; relationships are
// kept as (from, type, to) triples.
type GraphStore struct {
	mu    sync.Mutex
	Nodes map[string]map[string]map[string]any // label -> key -> properties
	Rels  map[Relationship]bool

	// Canned aggregate query results, settable by tests.
	LocationRows []*storage.LocationAggregate
	LanguageRows []*storage.LanguageAggregate
}

// Relationship is one (from, type, to) edge.
type Relationship struct {
	From string
	Type string
	To   string
}

// NewGraphStore creates an empty in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		Nodes: make(map[string]map[string]map[string]any),
		Rels:  make(map[Relationship]bool),
	}
}

// NodeCount returns how many nodes carry the given label.
func (g *GraphStore) NodeCount(label string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Nodes[label])
}

// HasRelationship reports whether the given edge was merged.
func (g *GraphStore) HasRelationship(from, relType, to string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Rels[Relationship{From: from, Type: relType, To: to}]
}

func (g *GraphStore) mergeNode(label, key string, props map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Nodes[label] == nil {
		g.Nodes[label] = make(map[string]map[string]any)
	}
	g.Nodes[label][key] = props
}

func (g *GraphStore) mergeRel(from, relType, to string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Rels[Relationship{From: from, Type: relType, To: to}] = true
}

func (g *GraphStore) MergeRepository(ctx context.Context, repo *domain.Repository) error {
	g.mergeNode("Repository", repo.FullName, map[string]any{
		"name":  repo.Name,
		"stars": repo.Stars,
		"forks": repo.Forks,
	})
	return nil
}

func (g *GraphStore) MergeOwner(ctx context.Context, owner *domain.Owner) error {
	g.mergeNode(string(owner.Type), owner.Login, map[string]any{
		"avatar_url": owner.AvatarURL,
	})
	return nil
}

func (g *GraphStore) MergeLocation(ctx context.Context, country string) error {
	g.mergeNode("Location", country, nil)
	return nil
}

func (g *GraphStore) MergeCity(ctx context.Context, city, country string) error {
	g.mergeNode("City", city, map[string]any{"country": country})
	return nil
}

func (g *GraphStore) MergeLanguage(ctx context.Context, language string) error {
	g.mergeNode("Language", language, nil)
	return nil
}

func (g *GraphStore) MergeTopic(ctx context.Context, topic string) error {
	g.mergeNode("Topic", topic, nil)
	return nil
}

func (g *GraphStore) MergeFramework(ctx context.Context, name, language string) error {
	g.mergeNode("Framework", name, map[string]any{"language": language})
	return nil
}

func (g *GraphStore) MergeDependency(ctx context.Context, name, language string) error {
	g.mergeNode("Dependency", name, map[string]any{"language": language})
	return nil
}

func (g *GraphStore) MergeContributor(ctx context.Context, login, repoFullName string, ownerType domain.OwnerType, contributions int) error {
	id := login + "_" + repoFullName
	g.mergeNode("Contributor", id, map[string]any{"contributions": contributions})
	g.mergeRel(id, "CONTRIBUTES_TO", repoFullName)
	g.mergeRel(login, "HAS_CONTRIBUTOR", id)
	return nil
}

func (g *GraphStore) MergeOwnership(ctx context.Context, repoFullName string, owner *domain.Owner) error {
	g.mergeRel(repoFullName, "OWNED_BY", owner.Login)
	return nil
}

func (g *GraphStore) MergeRepositoryLocation(ctx context.Context, repoFullName, country string) error {
	g.mergeRel(repoFullName, "LOCATED_IN", country)
	return nil
}

func (g *GraphStore) MergeCityInCountry(ctx context.Context, city, country string) error {
	g.mergeRel(city, "PART_OF", country)
	return nil
}

func (g *GraphStore) MergeOwnerInCity(ctx context.Context, owner *domain.Owner, city string) error {
	g.mergeRel(owner.Login, "LOCATED_IN", city)
	return nil
}

func (g *GraphStore) MergeRepositoryLanguage(ctx context.Context, repoFullName, language string) error {
	g.mergeRel(repoFullName, "USES", language)
	return nil
}

func (g *GraphStore) MergeRepositoryTopic(ctx context.Context, repoFullName, topic string) error {
	g.mergeRel(repoFullName, "HAS_TOPIC", topic)
	return nil
}

func (g *GraphStore) MergeRepositoryFramework(ctx context.Context, repoFullName, framework string) error {
	g.mergeRel(repoFullName, "USES_FRAMEWORK", framework)
	return nil
}

func (g *GraphStore) MergeRepositoryDependency(ctx context.Context, repoFullName, dependency string) error {
	g.mergeRel(repoFullName, "DEPENDS_ON", dependency)
	return nil
}

func (g *GraphStore) LocationAggregates(ctx context.Context) ([]*storage.LocationAggregate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.LocationRows, nil
}

func (g *GraphStore) LanguageAggregates(ctx context.Context) ([]*storage.LanguageAggregate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.LanguageRows, nil
}

func (g *GraphStore) ClearAll(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Nodes = make(map[string]map[string]map[string]any)
	g.Rels = make(map[Relationship]bool)
	return nil
}

func (g *GraphStore) EnsureIndexes(ctx context.Context) error { return nil }

func (g *GraphStore) Ping(ctx context.Context) error { return nil }

func (g *GraphStore) Close(ctx context.Context) error { return nil }
