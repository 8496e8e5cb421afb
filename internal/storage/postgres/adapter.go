// Package postgres implements the RelationalStore interface for PostgreSQL,
// the mirror Superset dashboards read from.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/repobox/repobox/internal/domain"
	"github.com/repobox/repobox/internal/storage"
)

// relationalStore implements the RelationalStore interface for PostgreSQL
type relationalStore struct {
	db *sql.DB
}

// NewRelationalStore creates a new PostgreSQL store instance and verifies
// the connection.
func NewRelationalStore(connStr string) (storage.RelationalStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &relationalStore{db: db}, nil
}

// Migrate drops and recreates the mirror tables. The sync is a full
// rebuild, not an incremental update.
func (s *relationalStore) Migrate(ctx context.Context) error {
	schema := `
	DROP TABLE IF EXISTS repositories CASCADE;
	CREATE TABLE repositories (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255),
		full_name VARCHAR(255),
		owner_login VARCHAR(255),
		owner_type VARCHAR(50),
		description TEXT,
		language VARCHAR(100),
		stars INTEGER,
		forks INTEGER,
		watchers INTEGER,
		open_issues INTEGER,
		size_kb INTEGER,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		url TEXT,
		is_fork BOOLEAN,
		topics TEXT,
		frameworks TEXT,
		location VARCHAR(255)
	);

	DROP TABLE IF EXISTS owners CASCADE;
	CREATE TABLE owners (
		id VARCHAR(255) PRIMARY KEY,
		login VARCHAR(255),
		total_repos INTEGER,
		total_stars INTEGER,
		total_forks INTEGER,
		repos TEXT,
		languages TEXT
	);

	DROP TABLE IF EXISTS languages CASCADE;
	CREATE TABLE languages (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(100),
		total_repos INTEGER,
		total_stars INTEGER,
		avg_stars FLOAT,
		total_forks INTEGER
	);

	DROP TABLE IF EXISTS topics CASCADE;
	CREATE TABLE topics (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255),
		repo_count INTEGER,
		total_stars INTEGER
	);

	DROP TABLE IF EXISTS frameworks CASCADE;
	CREATE TABLE frameworks (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(100),
		language VARCHAR(100),
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
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
		VALUES ($1, $2, $3, $4, $5, $6)
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
		VALUES ($1, $2, $3, $4)
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
		VALUES ($1, $2, $3, $4, $5)
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
	CREATE INDEX idx_repos_language ON repositories(language);
	CREATE INDEX idx_repos_stars ON repositories(stars DESC);
	CREATE INDEX idx_repos_owner ON repositories(owner_login);
	CREATE INDEX idx_owners_stars ON owners(total_stars DESC);
	CREATE INDEX idx_topics_count ON topics(repo_count DESC);
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
