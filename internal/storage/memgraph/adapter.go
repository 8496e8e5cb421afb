// Package memgraph implements the GraphStore interface on top of Memgraph
// via the Bolt protocol. Every query is parameterized; property values are
// never interpolated into Cypher text.
package memgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
)

// languageColors maps well-known languages to their display color.
var languageColors = map[string]string{
	"Python":     "#3572A5",
	"JavaScript": "#f1e05a",
	"TypeScript": "#2b7489",
	"Go":         "#00ADD8",
	"Rust":       "#dea584",
	"Java":       "#b07219",
	"C++":        "#f34b7d",
	"C#":         "#178600",
	"C":          "#555555",
}

const defaultLanguageColor = "#cccccc"

// graphStore implements the GraphStore interface for Memgraph
type graphStore struct {
	driver neo4j.DriverWithContext
}

// NewGraphStore creates a new Memgraph store instance and verifies the
// connection.
func NewGraphStore(ctx context.Context, uri string) (storage.GraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.NoAuth())
	if err != nil {
		return nil, fmt.Errorf("failed to create bolt driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to memgraph: %w", err)
	}

	return &graphStore{driver: driver}, nil
}

// run executes a single write query with parameters.
func (g *graphStore) run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, g.driver, cypher, params, neo4j.EagerResultTransformer)
	return err
}

func (g *graphStore) MergeRepository(ctx context.Context, repo *domain.Repository) error {
	desc := repo.Description
	if len(desc) > 200 {
		desc = desc[:200]
	}
	return g.run(ctx, `
		MERGE (r:Repository {full_name: $full_name})
		SET r.name = $name,
		    r.stars = $stars,
		    r.forks = $forks,
		    r.open_issues = $open_issues,
		    r.watchers = $watchers,
		    r.size = $size,
		    r.description = $description,
		    r.url = $url,
		    r.created_at = $created_at,
		    r.updated_at = $updated_at,
		    r.is_fork = $is_fork,
		    r.default_branch = $default_branch,
		    r.has_wiki = $has_wiki,
		    r.has_issues = $has_issues
	`, map[string]any{
		"full_name":      repo.FullName,
		"name":           repo.Name,
		"stars":          repo.Stars,
		"forks":          repo.Forks,
		"open_issues":    repo.OpenIssues,
		"watchers":       repo.Watchers,
		"size":           repo.Size,
		"description":    desc,
		"url":            repo.URL,
		"created_at":     repo.CreatedAt.Format("2006-01-02T15:04:05Z"),
		"updated_at":     repo.UpdatedAt.Format("2006-01-02T15:04:05Z"),
		"is_fork":        repo.IsFork,
		"default_branch": repo.DefaultBranch,
		"has_wiki":       repo.HasWiki,
		"has_issues":     repo.HasIssues,
	})
}

// MergeOwner creates or updates the owner node. User and Organization are
// mutually exclusive labels, so the label is chosen here rather than stored
// as a property alone.
func (g *graphStore) MergeOwner(ctx context.Context, owner *domain.Owner) error {
	cypher := `
		MERGE (u:User {login: $login})
		SET u.avatar_url = $avatar_url,
		    u.url = $url,
		    u.type = 'User'
	`
	if owner.Type == domain.OwnerTypeOrganization {
		cypher = `
			MERGE (org:Organization {login: $login})
			SET org.avatar_url = $avatar_url,
			    org.url = $url,
			    org.type = 'Organization'
		`
	}
	return g.run(ctx, cypher, map[string]any{
		"login":      owner.Login,
		"avatar_url": owner.AvatarURL,
		"url":        owner.URL,
	})
}

func (g *graphStore) MergeLocation(ctx context.Context, country string) error {
	return g.run(ctx, `
		MERGE (loc:Location {name: $name})
		SET loc.code = $code,
		    loc.type = 'country'
	`, map[string]any{
		"name": country,
		"code": countryCode(country),
	})
}

// countryCode derives the two-letter display code from a country name.
// Slices runes, not bytes, so names like "Österreich" stay valid UTF-8.
func countryCode(country string) string {
	runes := []rune(country)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

func (g *graphStore) MergeCity(ctx context.Context, city, country string) error {
	return g.run(ctx, `
		MERGE (city:City {name: $name})
		SET city.country = $country
	`, map[string]any{"name": city, "country": country})
}

func (g *graphStore) MergeLanguage(ctx context.Context, language string) error {
	color, ok := languageColors[language]
	if !ok {
		color = defaultLanguageColor
	}
	return g.run(ctx, `
		MERGE (l:Language {name: $name})
		SET l.color = $color,
		    l.type = 'programming'
	`, map[string]any{"name": language, "color": color})
}

func (g *graphStore) MergeTopic(ctx context.Context, topic string) error {
	return g.run(ctx, `
		MERGE (t:Topic {name: $name})
		SET t.display_name = $display_name
	`, map[string]any{"name": topic, "display_name": displayName(topic)})
}

func (g *graphStore) MergeFramework(ctx context.Context, name, language string) error {
	return g.run(ctx, `
		MERGE (fw:Framework {name: $name})
		SET fw.language = $language,
		    fw.category = 'web'
	`, map[string]any{"name": name, "language": language})
}

func (g *graphStore) MergeDependency(ctx context.Context, name, language string) error {
	return g.run(ctx, `
		MERGE (dep:Dependency {name: $name})
		SET dep.language = $language,
		    dep.type = 'library'
	`, map[string]any{"name": name, "language": language})
}

// MergeContributor creates the synthetic contributor node representing the
// owner's relationship to one repository, plus its CONTRIBUTES_TO and
// HAS_CONTRIBUTOR edges.
func (g *graphStore) MergeContributor(ctx context.Context, login, repoFullName string, ownerType domain.OwnerType, contributions int) error {
	contributorID := login + "_" + repoFullName
	if err := g.run(ctx, `
		MERGE (c:Contributor {id: $id})
		SET c.user_login = $login,
		    c.repo_full_name = $full_name,
		    c.role = 'owner',
		    c.contributions = $contributions
	`, map[string]any{
		"id":            contributorID,
		"login":         login,
		"full_name":     repoFullName,
		"contributions": contributions,
	}); err != nil {
		return err
	}

	if err := g.run(ctx, `
		MATCH (c:Contributor {id: $id})
		MATCH (r:Repository {full_name: $full_name})
		MERGE (c)-[:CONTRIBUTES_TO]->(r)
	`, map[string]any{"id": contributorID, "full_name": repoFullName}); err != nil {
		return err
	}

	ownerLabel := "User"
	if ownerType == domain.OwnerTypeOrganization {
		ownerLabel = "Organization"
	}
	return g.run(ctx, `
		MATCH (o:`+ownerLabel+` {login: $login})
		MATCH (c:Contributor {id: $id})
		MERGE (o)-[:HAS_CONTRIBUTOR]->(c)
	`, map[string]any{"login": login, "id": contributorID})
}

func (g *graphStore) MergeOwnership(ctx context.Context, repoFullName string, owner *domain.Owner) error {
	ownerLabel := "User"
	if owner.Type == domain.OwnerTypeOrganization {
		ownerLabel = "Organization"
	}
	return g.run(ctx, `
		MATCH (r:Repository {full_name: $full_name})
		MATCH (o:`+ownerLabel+` {login: $login})
		MERGE (r)-[:OWNED_BY]->(o)
	`, map[string]any{"full_name": repoFullName, "login": owner.Login})
}

func (g *graphStore) MergeRepositoryLocation(ctx context.Context, repoFullName, country string) error {
	return g.run(ctx, `
		MATCH (r:Repository {full_name: $full_name})
		MATCH (loc:Location {name: $country})
		MERGE (r)-[:LOCATED_IN]->(loc)
	`, map[string]any{"full_name": repoFullName, "country": country})
}

func (g *graphStore) MergeCityInCountry(ctx context.Context, city, country string) error {
	return g.run(ctx, `
		MATCH (city:City {name: $city})
		MATCH (loc:Location {name: $country})
		MERGE (city)-[:PART_OF]->(loc)
	`, map[string]any{"city": city, "country": country})
}

func (g *graphStore) MergeOwnerInCity(ctx context.Context, owner *domain.Owner, city string) error {
	ownerLabel := "User"
	if owner.Type == domain.OwnerTypeOrganization {
		ownerLabel = "Organization"
	}
	return g.run(ctx, `
		MATCH (o:`+ownerLabel+` {login: $login})
		MATCH (city:City {name: $city})
		MERGE (o)-[:LOCATED_IN]->(city)
	`, map[string]any{"login": owner.Login, "city": city})
}

func (g *graphStore) MergeRepositoryLanguage(ctx context.Context, repoFullName, language string) error {
	return g.run(ctx, `
		MATCH (r:Repository {full_name: $full_name})
		MATCH (l:Language {name: $language})
		MERGE (r)-[:USES]->(l)
	`, map[string]any{"full_name": repoFullName, "language": language})
}

func (g *graphStore) MergeRepositoryTopic(ctx context.Context, repoFullName, topic string) error {
	return g.run(ctx, `
		MATCH (r:Repository {full_name: $full_name})
		MATCH (t:Topic {name: $topic})
		MERGE (r)-[:HAS_TOPIC]->(t)
	`, map[string]any{"full_name": repoFullName, "topic": topic})
}

func (g *graphStore) MergeRepositoryFramework(ctx context.Context, repoFullName, framework string) error {
	return g.run(ctx, `
		MATCH (r:Repository {full_name: $full_name})
		MATCH (fw:Framework {name: $framework})
		MERGE (r)-[:USES_FRAMEWORK]->(fw)
	`, map[string]any{"full_name": repoFullName, "framework": framework})
}

func (g *graphStore) MergeRepositoryDependency(ctx context.Context, repoFullName, dependency string) error {
	return g.run(ctx, `
		MATCH (r:Repository {full_name: $full_name})
		MATCH (dep:Dependency {name: $dependency})
		MERGE (r)-[:DEPENDS_ON]->(dep)
	`, map[string]any{"full_name": repoFullName, "dependency": dependency})
}

// LocationAggregates returns per-location repository counts and star totals.
func (g *graphStore) LocationAggregates(ctx context.Context) ([]*storage.LocationAggregate, error) {
	result, err := neo4j.ExecuteQuery(ctx, g.driver, `
		MATCH (loc:Location)
		MATCH (r:Repository)-[:LOCATED_IN]->(loc)
		RETURN loc.name AS location,
		       count(r) AS repos,
		       avg(r.stars) AS avg_stars,
		       sum(r.stars) AS total_stars
		ORDER BY repos DESC
	`, nil, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, err
	}

	rows := make([]*storage.LocationAggregate, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, &storage.LocationAggregate{
			Location:   recordString(record, "location"),
			Repos:      int(recordInt(record, "repos")),
			AvgStars:   recordFloat(record, "avg_stars"),
			TotalStars: int(recordInt(record, "total_stars")),
		})
	}
	return rows, nil
}

// LanguageAggregates returns per-language repository counts and star averages.
func (g *graphStore) LanguageAggregates(ctx context.Context) ([]*storage.LanguageAggregate, error) {
	result, err := neo4j.ExecuteQuery(ctx, g.driver, `
		MATCH (r:Repository)-[:USES]->(l:Language)
		RETURN l.name AS language,
		       count(r) AS repos,
		       avg(r.stars) AS avg_stars
		ORDER BY repos DESC
	`, nil, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, err
	}

	rows := make([]*storage.LanguageAggregate, 0, len(result.Records))
	for _, record := range result.Records {
		rows = append(rows, &storage.LanguageAggregate{
			Language: recordString(record, "language"),
			Repos:    int(recordInt(record, "repos")),
			AvgStars: recordFloat(record, "avg_stars"),
		})
	}
	return rows, nil
}

func (g *graphStore) ClearAll(ctx context.Context) error {
	return g.run(ctx, "MATCH (n) DETACH DELETE n", nil)
}

func (g *graphStore) EnsureIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX ON :Repository(full_name)",
		"CREATE INDEX ON :Language(name)",
		"CREATE INDEX ON :Location(name)",
		"CREATE INDEX ON :User(login)",
		"CREATE INDEX ON :Organization(login)",
	}
	for _, stmt := range indexes {
		// Memgraph errors on duplicate index creation; that is fine here.
		_ = g.run(ctx, stmt, nil)
	}
	return nil
}

func (g *graphStore) Ping(ctx context.Context) error {
	return g.run(ctx, "RETURN 1", nil)
}

func (g *graphStore) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func recordString(record *neo4j.Record, key string) string {
	if v, ok := record.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func recordInt(record *neo4j.Record, key string) int64 {
	if v, ok := record.Get(key); ok {
		switch n := v.(type) {
		case int64:
			return n
		case float64:
			return int64(n)
		}
	}
	return 0
}

func recordFloat(record *neo4j.Record, key string) float64 {
	if v, ok := record.Get(key); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		}
	}
	return 0
}

// displayName turns a hyphenated topic slug into a title-cased label.
func displayName(topic string) string {
	words := strings.Split(strings.ReplaceAll(topic, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
