package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/repobox/repobox/internal/collector"
	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
	"github.com/repobox/repobox/internal/writer"
)

const progressInterval = 50

// Driver runs one end-to-end collection pass over the configured languages.
type Driver interface {
	Run(ctx context.Context) (*domain.CollectionRun, error)
}

// Options configures a collection run.
type Options struct {
	Languages        []string
	ReposPerLanguage int
	Country          string
}

type driver struct {
	fetcher collector.Fetcher
	writer  writer.Writer
	docs    storage.DocumentStore
	opts    Options
	now     func() time.Time
}

// NewDriver creates a collection driver.
func NewDriver(fetcher collector.Fetcher, w writer.Writer, docs storage.DocumentStore, opts Options) Driver {
	return &driver{
		fetcher: fetcher,
		writer:  w,
		docs:    docs,
		opts:    opts,
		now:     time.Now,
	}
}

// Run fetches and stores repositories for every configured language. A
// failing language is recorded and skipped; the run continues with the
// remaining languages.
func (d *driver) Run(ctx context.Context) (*domain.CollectionRun, error) {
	run := &domain.CollectionRun{
		ID:               uuid.New().String(),
		Languages:        d.opts.Languages,
		Country:          d.opts.Country,
		ReposPerLanguage: d.opts.ReposPerLanguage,
		Status:           "in_progress",
		StartedAt:        d.now().UTC(),
	}
	if err := d.docs.SaveRun(ctx, run); err != nil {
		return nil, err
	}

	locationLabel := d.opts.Country
	if locationLabel == "" {
		locationLabel = "Global (all countries)"
	}
	banner := strings.Repeat("=", 60)
	fmt.Println(banner)
	fmt.Println(" Repobox - Data Collection")
	fmt.Println(banner)
	fmt.Printf(" Location Filter: %s\n", locationLabel)
	fmt.Printf(" Repos per language: %d\n", d.opts.ReposPerLanguage)
	fmt.Printf(" Languages: %s\n", strings.Join(d.opts.Languages, ", "))
	fmt.Printf(" Total expected: %d repos\n", d.opts.ReposPerLanguage*len(d.opts.Languages))
	fmt.Println(banner + "\n")

	start := d.now()
	for idx, language := range d.opts.Languages {
		fmt.Printf("[%d/%d] Collecting %s repositories...\n", idx+1, len(d.opts.Languages), language)

		if err := d.collectLanguage(ctx, run, language); err != nil {
			if ctx.Err() != nil {
				return run, ctx.Err()
			}
			fmt.Printf("  Error collecting %s: %v\n\n", language, err)
			run.FailedLanguages = append(run.FailedLanguages, language)
			continue
		}
	}
	elapsed := d.now().Sub(start)

	run.Status = "completed"
	run.FinishedAt = d.now().UTC()
	if err := d.docs.SaveRun(ctx, run); err != nil {
		return run, err
	}

	fmt.Println(banner)
	fmt.Println(" Collection Complete!")
	fmt.Println(banner)
	fmt.Printf(" Total repositories: %d\n", run.TotalRepos)
	fmt.Printf(" Total time: %.1f minutes\n", elapsed.Minutes())
	if run.TotalRepos > 0 {
		fmt.Printf(" Average: %.2f seconds per repo\n", elapsed.Seconds()/float64(run.TotalRepos))
	}
	fmt.Println(banner)

	return run, nil
}

func (d *driver) collectLanguage(ctx context.Context, run *domain.CollectionRun, language string) error {
	repos, err := d.fetcher.SearchRepositories(ctx, language, d.opts.ReposPerLanguage, d.opts.Country)
	if err != nil {
		return err
	}

	fmt.Printf("  Fetched %d repos\n", len(repos))
	fmt.Println("  Storing in databases...")

	for i, repo := range repos {
		if err := d.writer.Store(ctx, repo, d.opts.Country); err != nil {
			// A bad record is logged and skipped, never fatal for the
			// language.
			fmt.Printf("    Warning: error storing %s: %v\n", repo.FullName, err)
			continue
		}
		run.TotalRepos++

		if (i+1)%progressInterval == 0 {
			fmt.Printf("    Progress: %d/%d repos stored\n", i+1, len(repos))
		}
	}

	fmt.Printf("  Completed %s: %d repos\n\n", language, len(repos))
	return nil
}
