// Package sqlite implements the RelationalStore interface for SQLite, a
// local alternative to the PostgreSQL mirror for development setups.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
)

// relationalStore implements the RelationalStore interface for SQLite
type relationalStore struct {
	db *sql.DB
}

// NewRelationalStore creates a new SQLite store instance.
func NewRelationalStore(dbPath string) (storage.RelationalStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &relationalStore{db: db}, nil
}

// Migrate drops and recreates the mirror tables.
func (s *relationalStore) Migrate(ctx context.Context) error {
	schema := `
	DROP TABLE IF EXISTS repositories;
	CREATE TABLE repositories (
		id TEXT PRIMARY KEY,
		name TEXT,
		full_name TEXT,
		owner_login TEXT,
		owner_type TEXT,
		description TEXT,
		language TEXT,
		stars INTEGER,
		forks INTEGER,
		watchers INTEGER,
		open_issues INTEGER,
		size_kb INTEGER,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		url TEXT,
		is_fork INTEGER,
		topics TEXT,
		frameworks TEXT,
		location TEXT
	);

	DROP TABLE IF EXISTS owners;
	CREATE TABLE owners (
		id TEXT PRIMARY KEY,
		login TEXT,
		total_repos INTEGER,
		total_stars INTEGER,
		total_forks INTEGER,
		repos TEXT,
		languages TEXT
	);

	DROP TABLE IF EXISTS languages;
	CREATE TABLE languages (
		id TEXT PRIMARY KEY,
		name TEXT,
		total_repos INTEGER,
		total_stars INTEGER,
		avg_stars REAL,
		total_forks INTEGER
	);

	DROP TABLE IF EXISTS topics;
	CREATE TABLE topics (
		id TEXT PRIMARY KEY,
		name TEXT,
		repo_count INTEGER,
		total_stars INTEGER
	);

	DROP TABLE IF EXISTS frameworks;
	CREATE TABLE frameworks (
		id TEXT PRIMARY KEY,
		name TEXT,
		language TEXT,
		repo_count INTEGER,
		total_stars INTEGER
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *relationalStore) InsertRepositories(ctx context.Context, docs []*domain.RepositoryDocument) error {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO repositories (
			id, name, full_name, owner_login, owner_type, description,
			language, stars, forks, watchers, open_issues, size_kb,
			created_at, updated_at, url, is_fork, topics, frameworks, location
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, doc := range docs {
		_, err := stmt.ExecContext(ctx,
			doc.ID, doc.Name, doc.FullName, doc.OwnerLogin, string(doc.OwnerType),
			doc.Description, doc.Language, doc.Stars, doc.Forks, doc.Watchers,
			doc.OpenIssues, doc.Size, doc.CreatedAt, doc.UpdatedAt, doc.URL,
			doc.IsFork, strings.Join(doc.Topics, ","), strings.Join(doc.Frameworks, ","),
			doc.Location,
		)
		if err != nil {
			return fmt.Errorf("failed to insert repository %s: %w", doc.FullName, err)
		}
	}
	return nil
}

func (s *relationalStore) InsertOwners(ctx context.Context, stats []*domain.OwnerStats) error {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO owners (id, login, total_repos, total_stars, total_forks, repos, languages)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range stats {
		_, err := stmt.ExecContext(ctx,
			o.Login, o.Login, o.TotalRepos, o.TotalStars, o.TotalForks,
			strings.Join(o.Repos, ","), strings.Join(o.Languages, ","),
		)
		if err != nil {
			return fmt.Errorf("failed to insert owner %s: %w", o.Login, err)
		}
	}
	return nil
}

func (s *relationalStore) InsertLanguages(ctx context.Context, stats []*domain.LanguageStats) error {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO languages (id, name, total_repos, total_stars, avg_stars, total_forks)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range stats {
		_, err := stmt.ExecContext(ctx, l.Name, l.Name, l.TotalRepos, l.TotalStars, l.AvgStars, l.TotalForks)
		if err != nil {
			return fmt.Errorf("failed to insert language %s: %w", l.Name, err)
		}
	}
	return nil
}

func (s *relationalStore) InsertTopics(ctx context.Context, stats []*domain.TopicStats) error {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO topics (id, name, repo_count, total_stars)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range stats {
		_, err := stmt.ExecContext(ctx, t.Name, t.Name, t.TotalRepos, t.TotalStars)
		if err != nil {
			return fmt.Errorf("failed to insert topic %s: %w", t.Name, err)
		}
	}
	return nil
}

func (s *relationalStore) InsertFrameworks(ctx context.Context, stats []*domain.FrameworkStats) error {
	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO frameworks (id, name, language, repo_count, total_stars)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range stats {
		_, err := stmt.ExecContext(ctx, f.Name, f.Name, f.Language, f.TotalRepos, f.TotalStars)
		if err != nil {
			return fmt.Errorf("failed to insert framework %s: %w", f.Name, err)
		}
	}
	return nil
}

func (s *relationalStore) CreateIndexes(ctx context.Context) error {
	indexes := `
	CREATE INDEX IF NOT EXISTS idx_repos_language ON repositories(language);
	CREATE INDEX IF NOT EXISTS idx_repos_stars ON repositories(stars DESC);
	CREATE INDEX IF NOT EXISTS idx_repos_owner ON repositories(owner_login);
	CREATE INDEX IF NOT EXISTS idx_owners_stars ON owners(total_stars DESC);
	CREATE INDEX IF NOT EXISTS idx_topics_count ON topics(repo_count DESC);
	`
	_, err := s.db.ExecContext(ctx, indexes)
	return err
}

func (s *relationalStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *relationalStore) Close() error {
	return s.db.Close()
}
