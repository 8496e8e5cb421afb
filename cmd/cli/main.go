package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/repobox/repobox/internal/aggregator"
	"github.com/repobox/repobox/internal/collector"
	"github.com/repobox/repobox/internal/config"
	"github.com/repobox/repobox/internal/enricher"
	apperrors "github.com/repobox/repobox/internal/errors"
	"github.com/repobox/repobox/internal/ingest"
	"github.com/repobox/repobox/internal/storage"
	"github.com/repobox/repobox/internal/storage/dragonfly"
	"github.com/repobox/repobox/internal/storage/memgraph"
	"github.com/repobox/repobox/internal/storage/mongo"
	"github.com/repobox/repobox/internal/storage/postgres"
	"github.com/repobox/repobox/internal/storage/sqlite"
	"github.com/repobox/repobox/internal/syncer"
	"github.com/repobox/repobox/internal/writer"
)

var (
	outputJSON  bool
	topLimit    int
	topLanguage string
	topLocation string
)

var rootCmd = &cobra.Command{
	Use:   "repobox",
	Short: "GitHub repository metadata pipeline",
	Long: `A pipeline for harvesting GitHub repository metadata.

It searches GitHub per programming language, derives framework, dependency,
and city signals from the results, fans the records out to a graph store, a
document store, and a leaderboard cache, and recomputes summary collections
for the dashboards.`,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect repositories from GitHub",
	Long:  `Search GitHub for the configured languages and store every result in the three stores.`,
	Args:  cobra.NoArgs,
	RunE:  runCollect,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute the summary collections",
	Long:  `Recompute the owner, language, location, topic, and framework summary collections from the raw repositories.`,
	Args:  cobra.NoArgs,
	RunE:  runAggregate,
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Populate the enrichment collections",
	Long:  `Populate the license, organization, city, and contributor collections. License, city, and contributor data is simulated.`,
	Args:  cobra.NoArgs,
	RunE:  runEnrich,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror the document collections into the relational store",
	Long:  `Rebuild the relational BI tables from the document store collections.`,
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Reset the stores and create indexes",
	Long:  `Clear the graph store and create the indexes every store needs. Run once before the first collection.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to every store",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

var profileCmd = &cobra.Command{
	Use:   "profile [username]",
	Short: "Collect a single user's profile and repositories",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

var topCmd = &cobra.Command{
	Use:   "top [stars|forks]",
	Short: "Show a repository leaderboard",
	Long:  `Show the top repositories by stars or forks from the leaderboard cache.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTop,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	topCmd.Flags().IntVar(&topLimit, "limit", 10, "number of entries to show")
	topCmd.Flags().StringVar(&topLanguage, "language", "", "show the per-language leaderboard")
	topCmd.Flags().StringVar(&topLocation, "location", "", "show the per-location leaderboard")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(topCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type stores struct {
	graph storage.GraphStore
	docs  storage.DocumentStore
	cache storage.CacheStore
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	graph, err := memgraph.NewGraphStore(ctx, cfg.MemgraphURI())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graph store: %w", err)
	}
	docs, err := mongo.NewDocumentStore(ctx, cfg.MongoURI(), cfg.MongoDB)
	if err != nil {
		graph.Close(ctx)
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	cache, err := dragonfly.NewCacheStore(ctx, cfg.DragonflyAddr())
	if err != nil {
		graph.Close(ctx)
		docs.Close(ctx)
		return nil, fmt.Errorf("failed to connect to cache store: %w", err)
	}
	return &stores{graph: graph, docs: docs, cache: cache}, nil
}

func (s *stores) close(ctx context.Context) {
	s.graph.Close(ctx)
	s.docs.Close(ctx)
	s.cache.Close()
}

func getRelational(cfg *config.Config) (storage.RelationalStore, error) {
	switch cfg.RelationalType {
	case "postgres":
		return postgres.NewRelationalStore(cfg.PostgresURL)
	default:
		return sqlite.NewRelationalStore(cfg.SQLitePath)
	}
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close(ctx)

	fetcher := collector.NewGitHubFetcher(cfg.GitHubToken)
	w := writer.NewMultiStoreWriter(st.graph, st.docs, st.cache)
	driver := ingest.NewDriver(fetcher, w, st.docs, ingest.Options{
		Languages:        cfg.Languages,
		ReposPerLanguage: cfg.ReposPerLanguage,
		Country:          cfg.FilterByCountry,
	})

	_, err = driver.Run(ctx)
	return err
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()
	docs, err := mongo.NewDocumentStore(ctx, cfg.MongoURI(), cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer docs.Close(ctx)

	return aggregator.NewAggregator(docs).AggregateAll(ctx)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()
	docs, err := mongo.NewDocumentStore(ctx, cfg.MongoURI(), cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer docs.Close(ctx)

	return enricher.NewEnricher(docs).EnrichAll(ctx)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ValidateRelational(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx := context.Background()
	docs, err := mongo.NewDocumentStore(ctx, cfg.MongoURI(), cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	defer docs.Close(ctx)

	relational, err := getRelational(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to relational store: %w", err)
	}
	defer relational.Close()

	return syncer.NewSyncer(docs, relational).Sync(ctx)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close(ctx)

	fmt.Println("Clearing graph store...")
	if err := st.graph.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear graph store: %w", err)
	}

	fmt.Println("Creating graph indexes...")
	if err := st.graph.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create graph indexes: %w", err)
	}

	fmt.Println("Creating document indexes...")
	if err := st.docs.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create document indexes: %w", err)
	}

	fmt.Println("Initialization complete!")
	return nil
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	failed := false
	check := func(name string, ping func() error) {
		if err := ping(); err != nil {
			fmt.Printf("  %s: FAILED (%v)\n", name, err)
			failed = true
			return
		}
		fmt.Printf("  %s: ok\n", name)
	}

	fmt.Println("Checking store connectivity...")

	if graph, err := memgraph.NewGraphStore(ctx, cfg.MemgraphURI()); err != nil {
		fmt.Printf("  graph (%s): FAILED (%v)\n", cfg.MemgraphURI(), err)
		failed = true
	} else {
		check("graph ("+cfg.MemgraphURI()+")", func() error { return graph.Ping(ctx) })
		graph.Close(ctx)
	}

	if docs, err := mongo.NewDocumentStore(ctx, cfg.MongoURI(), cfg.MongoDB); err != nil {
		fmt.Printf("  document (%s): FAILED (%v)\n", cfg.MongoURI(), err)
		failed = true
	} else {
		check("document ("+cfg.MongoURI()+")", func() error { return docs.Ping(ctx) })
		docs.Close(ctx)
	}

	if cache, err := dragonfly.NewCacheStore(ctx, cfg.DragonflyAddr()); err != nil {
		fmt.Printf("  cache (%s): FAILED (%v)\n", cfg.DragonflyAddr(), err)
		failed = true
	} else {
		check("cache ("+cfg.DragonflyAddr()+")", func() error { return cache.Ping(ctx) })
		cache.Close()
	}

	if relational, err := getRelational(cfg); err != nil {
		fmt.Printf("  relational (%s): FAILED (%v)\n", cfg.RelationalType, err)
		failed = true
	} else {
		check("relational ("+cfg.RelationalType+")", func() error { return relational.Ping(ctx) })
		relational.Close()
	}

	if failed {
		return fmt.Errorf("one or more stores are unreachable")
	}
	fmt.Println("All stores reachable.")
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	username := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.GitHubToken == "" {
		return fmt.Errorf("GITHUB_TOKEN is required")
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close(ctx)

	fetcher := collector.NewGitHubFetcher(cfg.GitHubToken)

	fmt.Printf("Fetching profile for %s...\n", username)
	profile, repos, err := fetcher.GetUserProfile(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return fmt.Errorf("user %s does not exist on GitHub", username)
		}
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if err := st.docs.ReplaceUserProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("Storing %d repositories...\n", len(repos))
	w := writer.NewMultiStoreWriter(st.graph, st.docs, st.cache)
	for _, repo := range repos {
		if err := w.Store(ctx, repo, ""); err != nil {
			fmt.Printf("Warning: error storing %s: %v\n", repo.FullName, err)
		}
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(profile)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Login", "Type", "Location", "Repos", "Stars", "Forks", "Followers"})
	table.Append([]string{
		profile.Login,
		string(profile.Type),
		profile.Location,
		strconv.Itoa(profile.TotalRepos),
		strconv.Itoa(profile.TotalStars),
		strconv.Itoa(profile.TotalForks),
		strconv.Itoa(profile.Followers),
	})
	table.Render()
	return nil
}

func runTop(cmd *cobra.Command, args []string) error {
	metric := "stars"
	if len(args) == 1 {
		metric = args[0]
	}
	if metric != "stars" && metric != "forks" {
		return fmt.Errorf("metric must be 'stars' or 'forks'")
	}

	key := "leaderboard:global:" + metric
	switch {
	case topLanguage != "":
		if metric != "stars" {
			return fmt.Errorf("per-language leaderboards are ranked by stars only")
		}
		key = "leaderboard:language:" + topLanguage
	case topLocation != "":
		if metric != "stars" {
			return fmt.Errorf("per-location leaderboards are ranked by stars only")
		}
		key = "leaderboard:location:" + topLocation
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()
	cache, err := dragonfly.NewCacheStore(ctx, cfg.DragonflyAddr())
	if err != nil {
		return fmt.Errorf("failed to connect to cache store: %w", err)
	}
	defer cache.Close()

	entries, err := cache.ZRevRangeWithScores(ctx, key, 0, int64(topLimit-1))
	if err != nil {
		return fmt.Errorf("failed to read leaderboard: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Rank", "Repository", metric})
	for i, entry := range entries {
		table.Append([]string{
			strconv.Itoa(i + 1),
			entry.Member,
			strconv.FormatInt(int64(entry.Score), 10),
		})
	}
	table.Render()
	return nil
}
