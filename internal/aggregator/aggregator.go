package aggregator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
)

const topLanguagesPerLocation = 3

// Aggregator recomputes the derived summary collections from the raw
// repositories collection.
type Aggregator interface {
	AggregateAll(ctx context.Context) error
	AggregateOwners(ctx context.Context) (int, error)
	AggregateLanguages(ctx context.Context) (int, error)
	AggregateLocations(ctx context.Context) (int, error)
	AggregateTopics(ctx context.Context) (int, error)
	AggregateFrameworks(ctx context.Context) (int, error)
}

type aggregator struct {
	docs storage.DocumentStore
}

// NewAggregator creates an aggregator over the document store.
func NewAggregator(docs storage.DocumentStore) Aggregator {
	return &aggregator{docs: docs}
}

// AggregateAll runs the five aggregation passes in order. Each pass is a
// full recompute: every summary document is replaced from scratch, so the
// passes are safe to re-run at any time.
func (a *aggregator) AggregateAll(ctx context.Context) error {
	banner := strings.Repeat("=", 60)
	fmt.Println(banner)
	fmt.Println(" Aggregating Data into Summary Collections")
	fmt.Println(banner + "\n")

	passes := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{"owners", a.AggregateOwners},
		{"languages", a.AggregateLanguages},
		{"locations", a.AggregateLocations},
		{"topics", a.AggregateTopics},
		{"frameworks", a.AggregateFrameworks},
	}

	for i, pass := range passes {
		fmt.Printf("%d. Aggregating %s...\n", i+1, pass.name)
		count, err := pass.run(ctx)
		if err != nil {
			return fmt.Errorf("aggregate %s: %w", pass.name, err)
		}
		fmt.Printf("   Inserted %d %s\n\n", count, pass.name)
	}

	fmt.Println(banner)
	fmt.Println(" All aggregations complete!")
	fmt.Println(banner)
	return nil
}

// AggregateOwners groups repositories by owner login.
func (a *aggregator) AggregateOwners(ctx context.Context) (int, error) {
	repos, err := a.docs.ListRepositories(ctx)
	if err != nil {
		return 0, err
	}

	type ownerAcc struct {
		repos      []string
		totalStars int
		totalForks int
		languages  map[string]bool
	}
	owners := map[string]*ownerAcc{}

	for _, repo := range repos {
		acc, ok := owners[repo.OwnerLogin]
		if !ok {
			acc = &ownerAcc{languages: map[string]bool{}}
			owners[repo.OwnerLogin] = acc
		}
		acc.repos = append(acc.repos, repo.Name)
		acc.totalStars += repo.Stars
		acc.totalForks += repo.Forks
		if repo.Language != "" {
			acc.languages[repo.Language] = true
		}
	}

	for login, acc := range owners {
		stats := &domain.OwnerStats{
			Login:      login,
			TotalRepos: len(acc.repos),
			TotalStars: acc.totalStars,
			TotalForks: acc.totalForks,
			Repos:      acc.repos,
			Languages:  sortedKeys(acc.languages),
		}
		if err := a.docs.ReplaceOwnerStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(owners), nil
}

// AggregateLanguages groups repositories by primary language. Repositories
// without a language land under "Unknown".
func (a *aggregator) AggregateLanguages(ctx context.Context) (int, error) {
	repos, err := a.docs.ListRepositories(ctx)
	if err != nil {
		return 0, err
	}

	type langAcc struct {
		repos      int
		totalStars int
		totalForks int
		owners     map[string]bool
	}
	langs := map[string]*langAcc{}

	for _, repo := range repos {
		name := repo.Language
		if name == "" {
			name = "Unknown"
		}
		acc, ok := langs[name]
		if !ok {
			acc = &langAcc{owners: map[string]bool{}}
			langs[name] = acc
		}
		acc.repos++
		acc.totalStars += repo.Stars
		acc.totalForks += repo.Forks
		acc.owners[repo.OwnerLogin] = true
	}

	for name, acc := range langs {
		stats := &domain.LanguageStats{
			Name:         name,
			TotalRepos:   acc.repos,
			TotalStars:   acc.totalStars,
			TotalForks:   acc.totalForks,
			AvgStars:     round2(safeDiv(acc.totalStars, acc.repos)),
			UniqueOwners: len(acc.owners),
		}
		if err := a.docs.ReplaceLanguageStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(langs), nil
}

// AggregateLocations groups repositories by their stored location label.
func (a *aggregator) AggregateLocations(ctx context.Context) (int, error) {
	repos, err := a.docs.ListRepositories(ctx)
	if err != nil {
		return 0, err
	}

	type locAcc struct {
		repos      int
		totalStars int
		languages  map[string]int
		owners     map[string]bool
	}
	locs := map[string]*locAcc{}

	for _, repo := range repos {
		name := repo.Location
		if name == "" {
			name = domain.LocationGlobal
		}
		acc, ok := locs[name]
		if !ok {
			acc = &locAcc{languages: map[string]int{}, owners: map[string]bool{}}
			locs[name] = acc
		}
		acc.repos++
		acc.totalStars += repo.Stars
		if repo.Language != "" {
			acc.languages[repo.Language]++
		}
		acc.owners[repo.OwnerLogin] = true
	}

	for name, acc := range locs {
		stats := &domain.LocationStats{
			Name:         name,
			TotalRepos:   acc.repos,
			TotalStars:   acc.totalStars,
			AvgStars:     round2(safeDiv(acc.totalStars, acc.repos)),
			TopLanguages: topLanguages(acc.languages, topLanguagesPerLocation),
			UniqueOwners: len(acc.owners),
		}
		if err := a.docs.ReplaceLocationStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(locs), nil
}

// AggregateTopics groups repositories by each topic they carry. All topics
// count here, not just the ones mirrored into the graph.
func (a *aggregator) AggregateTopics(ctx context.Context) (int, error) {
	repos, err := a.docs.ListRepositories(ctx)
	if err != nil {
		return 0, err
	}

	type topicAcc struct {
		repos      int
		totalStars int
		languages  map[string]bool
	}
	topics := map[string]*topicAcc{}

	for _, repo := range repos {
		for _, topic := range repo.Topics {
			acc, ok := topics[topic]
			if !ok {
				acc = &topicAcc{languages: map[string]bool{}}
				topics[topic] = acc
			}
			acc.repos++
			acc.totalStars += repo.Stars
			if repo.Language != "" {
				acc.languages[repo.Language] = true
			}
		}
	}

	for name, acc := range topics {
		stats := &domain.TopicStats{
			Name:             name,
			TotalRepos:       acc.repos,
			TotalStars:       acc.totalStars,
			RelatedLanguages: sortedKeys(acc.languages),
		}
		if err := a.docs.ReplaceTopicStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(topics), nil
}

// AggregateFrameworks groups repositories by each detected framework.
func (a *aggregator) AggregateFrameworks(ctx context.Context) (int, error) {
	repos, err := a.docs.ListRepositories(ctx)
	if err != nil {
		return 0, err
	}

	type fwAcc struct {
		repos      int
		totalStars int
		languages  map[string]bool
	}
	frameworks := map[string]*fwAcc{}

	for _, repo := range repos {
		for _, fw := range repo.Frameworks {
			acc, ok := frameworks[fw]
			if !ok {
				acc = &fwAcc{languages: map[string]bool{}}
				frameworks[fw] = acc
			}
			acc.repos++
			acc.totalStars += repo.Stars
			if repo.Language != "" {
				acc.languages[repo.Language] = true
			}
		}
	}

	for name, acc := range frameworks {
		language := "Unknown"
		if langs := sortedKeys(acc.languages); len(langs) > 0 {
			language = langs[0]
		}
		stats := &domain.FrameworkStats{
			Name:       name,
			Language:   language,
			TotalRepos: acc.repos,
			TotalStars: acc.totalStars,
		}
		if err := a.docs.ReplaceFrameworkStats(ctx, stats); err != nil {
			return 0, err
		}
	}
	return len(frameworks), nil
}

// topLanguages returns the n most common languages, count descending with
// lexicographic tie-break so re-runs produce identical documents.
func topLanguages(counts map[string]int, n int) []string {
	names := sortedKeysInt(counts)
	sort.SliceStable(names, func(i, j int) bool {
		return counts[names[i]] > counts[names[j]]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysInt(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func safeDiv(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
