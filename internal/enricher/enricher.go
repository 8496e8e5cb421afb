package enricher

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
)

// licenseNames is the pool the simulated license assignment draws from.
// Real license data is not available from the search API response, so the
// enrichment pass samples one per repository to give the dashboards a
// populated licenses panel.
var licenseNames = []string{
	"MIT License",
	"Apache License 2.0",
	"GNU General Public License",
	"BSD License",
	"Mozilla Public License",
	"GNU Lesser General Public License",
	"GNU Affero General Public License",
	"The Unlicense",
	"ISC License",
	"Creative Commons Zero",
}

type cityInfo struct {
	country string
	lat     float64
	lon     float64
}

// techCities is the fixed set of cities the simulated city pass populates.
var techCities = map[string]cityInfo{
	"San Francisco": {"USA", 37.7749, -122.4194},
	"New York":      {"USA", 40.7128, -74.0060},
	"London":        {"UK", 51.5074, -0.1278},
	"Berlin":        {"Germany", 52.5200, 13.4050},
	"Paris":         {"France", 48.8566, 2.3522},
	"Tokyo":         {"Japan", 35.6762, 139.6503},
	"Beijing":       {"China", 39.9042, 116.4074},
	"Bangalore":     {"India", 12.9716, 77.5946},
	"Toronto":       {"Canada", 43.6532, -79.3832},
	"Sydney":        {"Australia", -33.8688, 151.2093},
	"Seattle":       {"USA", 47.6062, -122.3321},
	"Amsterdam":     {"Netherlands", 52.3676, 4.9041},
	"Singapore":     {"Singapore", 1.3521, 103.8198},
	"Tel Aviv":      {"Israel", 32.0853, 34.7818},
	"Stockholm":     {"Sweden", 59.3293, 18.0686},
}

// Enricher populates the demo-grade enrichment collections. Licenses,
// cities, and contributors are simulated by sampling; organizations are a
// real fold over organization-owned repositories.
type Enricher interface {
	EnrichAll(ctx context.Context) error
	EnrichLicenses(ctx context.Context) (int, error)
	EnrichOrganizations(ctx context.Context) (int, error)
	EnrichCities(ctx context.Context) (int, error)
	EnrichContributors(ctx context.Context) (int, error)
}

type enricher struct {
	docs storage.DocumentStore
	rng  *rand.Rand
}

// NewEnricher creates an enricher over the document store.
func NewEnricher(docs storage.DocumentStore) Enricher {
	return NewEnricherWithSeed(docs, rand.Int63())
}

// NewEnricherWithSeed creates an enricher with a fixed random seed so the
// simulated passes are reproducible.
func NewEnricherWithSeed(docs storage.DocumentStore, seed int64) Enricher {
	return &enricher{
		docs: docs,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// EnrichAll runs the four enrichment passes in order.
func (e *enricher) EnrichAll(ctx context.Context) error {
	banner := strings.Repeat("=", 60)
	fmt.Println(banner)
	fmt.Println(" Enriching Data for Dashboards")
	fmt.Println(banner + "\n")

	passes := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{"licenses", e.EnrichLicenses},
		{"organizations", e.EnrichOrganizations},
		{"cities", e.EnrichCities},
		{"contributors", e.EnrichContributors},
	}

	for i, pass := range passes {
		fmt.Printf("%d. Enriching %s...\n", i+1, pass.name)
		count, err := pass.run(ctx)
		if err != nil {
			return fmt.Errorf("enrich %s: %w", pass.name, err)
		}
		fmt.Printf("   Inserted %d %s\n\n", count, pass.name)
	}

	fmt.Println(banner)
	fmt.Println(" All enrichments complete!")
	fmt.Println(banner)
	return nil
}

// EnrichLicenses assigns each repository a random license from the pool and
// folds the assignments into per-license rows.
func (e *enricher) EnrichLicenses(ctx context.Context) (int, error) {
	repos, err := e.docs.ListRepositories(ctx)
	if err != nil {
		return 0, err
	}

	type licAcc struct {
		repos      int
		totalStars int
		languages  map[string]bool
	}
	licenses := map[string]*licAcc{}

	for _, repo := range repos {
		name := licenseNames[e.rng.Intn(len(licenseNames))]
		acc, ok := licenses[name]
		if !ok {
			acc = &licAcc{languages: map[string]bool{}}
			licenses[name] = acc
		}
		acc.repos++
		acc.totalStars += repo.Stars
		if repo.Language != "" {
			acc.languages[repo.Language] = true
		}
	}

	for name, acc := range licenses {
		stats := &domain.LicenseStats{
			Name:           name,
			TotalRepos:     acc.repos,
			TotalStars:     acc.totalStars,
			Languages:      sortedKeys(acc.languages),
			PopularityRank: acc.repos,
		}
		if err := e.docs.ReplaceLicenseStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(licenses), nil
}

// EnrichOrganizations folds organization-owned repositories into
// per-organization rows. Unlike the other passes this one uses real data.
func (e *enricher) EnrichOrganizations(ctx context.Context) (int, error) {
	repos, err := e.docs.ListRepositoriesByOwnerType(ctx, domain.OwnerTypeOrganization)
	if err != nil {
		return 0, err
	}

	type orgAcc struct {
		repos      []string
		totalStars int
		totalForks int
		languages  map[string]bool
		topics     map[string]bool
	}
	orgs := map[string]*orgAcc{}

	for _, repo := range repos {
		acc, ok := orgs[repo.OwnerLogin]
		if !ok {
			acc = &orgAcc{languages: map[string]bool{}, topics: map[string]bool{}}
			orgs[repo.OwnerLogin] = acc
		}
		acc.repos = append(acc.repos, repo.Name)
		acc.totalStars += repo.Stars
		acc.totalForks += repo.Forks
		if repo.Language != "" {
			acc.languages[repo.Language] = true
		}
		for _, topic := range repo.Topics {
			acc.topics[topic] = true
		}
	}

	for name, acc := range orgs {
		topTopics := sortedKeys(acc.topics)
		if len(topTopics) > 10 {
			topTopics = topTopics[:10]
		}
		repoNames := acc.repos
		if len(repoNames) > 20 {
			repoNames = repoNames[:20]
		}
		stats := &domain.OrganizationStats{
			Name:       name,
			TotalRepos: len(acc.repos),
			TotalStars: acc.totalStars,
			TotalForks: acc.totalForks,
			AvgStars:   round2(float64(acc.totalStars) / float64(len(acc.repos))),
			Languages:  sortedKeys(acc.languages),
			TopTopics:  topTopics,
			Repos:      repoNames,
		}
		if err := e.docs.ReplaceOrganizationStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(orgs), nil
}

// EnrichCities distributes a random sample of repositories across a fixed
// set of tech cities so the map panels have coordinates to plot.
func (e *enricher) EnrichCities(ctx context.Context) (int, error) {
	repos, err := e.docs.ListRepositories(ctx)
	if err != nil {
		return 0, err
	}
	if len(repos) == 0 {
		return 0, nil
	}

	for _, name := range sortedCityNames() {
		info := techCities[name]
		sample := e.sampleRepos(repos, 5+e.rng.Intn(26))

		totalStars := 0
		languages := map[string]int{}
		for _, repo := range sample {
			totalStars += repo.Stars
			lang := repo.Language
			if lang == "" {
				lang = "Unknown"
			}
			languages[lang]++
		}

		stats := &domain.CityStats{
			Name:        name,
			Country:     info.country,
			Latitude:    info.lat,
			Longitude:   info.lon,
			TotalRepos:  len(sample),
			TotalStars:  totalStars,
			AvgStars:    round2(float64(totalStars) / float64(len(sample))),
			TopLanguage: topLanguage(languages),
			Languages:   topN(languages, 5),
		}
		if err := e.docs.ReplaceCityStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(techCities), nil
}

// EnrichContributors turns each owner row into a simulated contributor row.
func (e *enricher) EnrichContributors(ctx context.Context) (int, error) {
	repos, err := e.docs.ListRepositories(ctx)
	if err != nil {
		return 0, err
	}
	owners, err := e.docs.ListOwnerStats(ctx)
	if err != nil {
		return 0, err
	}

	for _, owner := range owners {
		contributions := 1 + e.rng.Intn(100)
		var contributed []string
		if len(repos) > 0 {
			for _, repo := range e.sampleRepos(repos, 1+e.rng.Intn(10)) {
				contributed = append(contributed, repo.FullName)
			}
		}

		stats := &domain.ContributorStats{
			Login:              owner.Login,
			TotalContributions: contributions,
			ReposContributed:   len(contributed),
			Repos:              contributed,
			Languages:          owner.Languages,
			ContributionScore:  contributions * len(contributed),
		}
		if err := e.docs.ReplaceContributorStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(owners), nil
}

// sampleRepos picks up to n distinct repositories at random.
func (e *enricher) sampleRepos(repos []*domain.RepositoryDocument, n int) []*domain.RepositoryDocument {
	if n > len(repos) {
		n = len(repos)
	}
	perm := e.rng.Perm(len(repos))
	sample := make([]*domain.RepositoryDocument, 0, n)
	for _, idx := range perm[:n] {
		sample = append(sample, repos[idx])
	}
	return sample
}

func sortedCityNames() []string {
	names := make([]string, 0, len(techCities))
	for name := range techCities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func topLanguage(counts map[string]int) string {
	best := "Unknown"
	bestCount := -1
	for _, name := range sortedCountKeys(counts) {
		if counts[name] > bestCount {
			best = name
			bestCount = counts[name]
		}
	}
	return best
}

func topN(counts map[string]int, n int) map[string]int {
	names := sortedCountKeys(counts)
	sort.SliceStable(names, func(i, j int) bool {
		return counts[names[i]] > counts[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	out := make(map[string]int, len(names))
	for _, name := range names {
		out[name] = counts[name]
	}
	return out
}

func sortedCountKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
