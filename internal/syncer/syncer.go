package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/repobox/repobox/internal/storage"
)

// Syncer mirrors the document collections into the relational store for BI
// dashboarding. Every sync is a full rebuild.
type Syncer interface {
	Sync(ctx context.Context) error
}

type syncer struct {
	docs       storage.DocumentStore
	relational storage.RelationalStore
}

// NewSyncer creates a syncer from the document store into the relational
// store.
func NewSyncer(docs storage.DocumentStore, relational storage.RelationalStore) Syncer {
	return &syncer{docs: docs, relational: relational}
}

// Sync drops and recreates the relational tables, bulk-loads every synced
// collection, and finishes with the query indexes.
func (s *syncer) Sync(ctx context.Context) error {
	banner := strings.Repeat("=", 60)
	fmt.Println(banner)
	fmt.Println(" Syncing Document Store to Relational Store")
	fmt.Println(banner)

	fmt.Println("\n1. Creating tables...")
	if err := s.relational.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Println("   Tables created")

	fmt.Println("\n2. Syncing repositories...")
	repos, err := s.docs.ListRepositories(ctx)
	if err != nil {
		return fmt.Errorf("list repositories: %w", err)
	}
	if err := s.relational.InsertRepositories(ctx, repos); err != nil {
		return fmt.Errorf("insert repositories: %w", err)
	}
	fmt.Printf("   Synced %d repositories\n", len(repos))

	fmt.Println("\n3. Syncing owners...")
	owners, err := s.docs.ListOwnerStats(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}
	if err := s.relational.InsertOwners(ctx, owners); err != nil {
		return fmt.Errorf("insert owners: %w", err)
	}
	fmt.Printf("   Synced %d owners\n", len(owners))

	fmt.Println("\n4. Syncing languages...")
	languages, err := s.docs.ListLanguageStats(ctx)
	if err != nil {
		return fmt.Errorf("list languages: %w", err)
	}
	if err := s.relational.InsertLanguages(ctx, languages); err != nil {
		return fmt.Errorf("insert languages: %w", err)
	}
	fmt.Printf("   Synced %d languages\n", len(languages))

	fmt.Println("\n5. Syncing topics...")
	topics, err := s.docs.ListTopicStats(ctx)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if err := s.relational.InsertTopics(ctx, topics); err != nil {
		return fmt.Errorf("insert topics: %w", err)
	}
	fmt.Printf("   Synced %d topics\n", len(topics))

	fmt.Println("\n6. Syncing frameworks...")
	frameworks, err := s.docs.ListFrameworkStats(ctx)
	if err != nil {
		return fmt.Errorf("list frameworks: %w", err)
	}
	if err := s.relational.InsertFrameworks(ctx, frameworks); err != nil {
		return fmt.Errorf("insert frameworks: %w", err)
	}
	fmt.Printf("   Synced %d frameworks\n", len(frameworks))

	fmt.Println("\n7. Creating indexes...")
	if err := s.relational.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	fmt.Println("   Indexes created")

	fmt.Println("\n" + banner)
	fmt.Println(" Sync complete!")
	fmt.Println(banner)
	return nil
}
