// Package mongo implements the DocumentStore interface on top of MongoDB.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/repobox/repobox/internal/domain"
	apperrors "github.com/repobox/repobox/internal/errors"
	"github.com/repobox/repobox/internal/storage"
)

// Collection names.
const (
	collRepositories  = "repositories"
	collOwners        = "owners"
	collLanguages     = "languages"
	collLocations     = "locations"
	collTopics        = "topics"
	collFrameworks    = "frameworks"
	collLicenses      = "licenses"
	collOrganizations = "organizations"
	collCities        = "cities"
	collContributors  = "contributors"
	collRuns          = "runs"
	collUserProfiles  = "user_profiles"
)

// documentStore implements the DocumentStore interface for MongoDB
type documentStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewDocumentStore creates a new MongoDB store instance and verifies the
// connection.
func NewDocumentStore(ctx context.Context, uri, database string) (storage.DocumentStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	return &documentStore{
		client: client,
		db:     client.Database(database),
	}, nil
}

// replaceByID performs a replace-upsert keyed on the document's _id field.
func (s *documentStore) replaceByID(ctx context.Context, collection, id string, doc any) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	return err
}

func (s *documentStore) ReplaceRepository(ctx context.Context, doc *domain.RepositoryDocument) error {
	return s.replaceByID(ctx, collRepositories, doc.ID, doc)
}

func (s *documentStore) GetRepository(ctx context.Context, id string) (*domain.RepositoryDocument, error) {
	var doc domain.RepositoryDocument
	err := s.db.Collection(collRepositories).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, apperrors.NewNotFoundError("repository " + id)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *documentStore) ListRepositories(ctx context.Context) ([]*domain.RepositoryDocument, error) {
	return listRepos(ctx, s.db.Collection(collRepositories), bson.M{}, nil)
}

func (s *documentStore) ListRepositoriesByLocation(ctx context.Context, location string, limit int) ([]*domain.RepositoryDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "stars", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return listRepos(ctx, s.db.Collection(collRepositories), bson.M{"location": location}, opts)
}

func (s *documentStore) ListRepositoriesByOwnerType(ctx context.Context, ownerType domain.OwnerType) ([]*domain.RepositoryDocument, error) {
	return listRepos(ctx, s.db.Collection(collRepositories), bson.M{"owner_type": ownerType}, nil)
}

func listRepos(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]*domain.RepositoryDocument, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = coll.Find(ctx, filter, opts)
	} else {
		cursor, err = coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*domain.RepositoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *documentStore) ReplaceOwnerStats(ctx context.Context, stats *domain.OwnerStats) error {
	return s.replaceByID(ctx, collOwners, stats.Login, stats)
}

func (s *documentStore) ListOwnerStats(ctx context.Context) ([]*domain.OwnerStats, error) {
	cursor, err := s.db.Collection(collOwners).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []*domain.OwnerStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *documentStore) ReplaceLanguageStats(ctx context.Context, stats *domain.LanguageStats) error {
	return s.replaceByID(ctx, collLanguages, stats.Name, stats)
}

func (s *documentStore) ListLanguageStats(ctx context.Context) ([]*domain.LanguageStats, error) {
	cursor, err := s.db.Collection(collLanguages).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []*domain.LanguageStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *documentStore) ReplaceLocationStats(ctx context.Context, stats *domain.LocationStats) error {
	return s.replaceByID(ctx, collLocations, stats.Name, stats)
}

func (s *documentStore) ListLocationStats(ctx context.Context) ([]*domain.LocationStats, error) {
	cursor, err := s.db.Collection(collLocations).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []*domain.LocationStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *documentStore) ReplaceTopicStats(ctx context.Context, stats *domain.TopicStats) error {
	return s.replaceByID(ctx, collTopics, stats.Name, stats)
}

func (s *documentStore) ListTopicStats(ctx context.Context) ([]*domain.TopicStats, error) {
	cursor, err := s.db.Collection(collTopics).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []*domain.TopicStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *documentStore) ReplaceFrameworkStats(ctx context.Context, stats *domain.FrameworkStats) error {
	return s.replaceByID(ctx, collFrameworks, stats.Name, stats)
}

func (s *documentStore) ListFrameworkStats(ctx context.Context) ([]*domain.FrameworkStats, error) {
	cursor, err := s.db.Collection(collFrameworks).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []*domain.FrameworkStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *documentStore) ReplaceLicenseStats(ctx context.Context, stats *domain.LicenseStats) error {
	return s.replaceByID(ctx, collLicenses, stats.Name, stats)
}

func (s *documentStore) ReplaceOrganizationStats(ctx context.Context, stats *domain.OrganizationStats) error {
	return s.replaceByID(ctx, collOrganizations, stats.Name, stats)
}

func (s *documentStore) ReplaceCityStats(ctx context.Context, stats *domain.CityStats) error {
	return s.replaceByID(ctx, collCities, stats.Name, stats)
}

func (s *documentStore) ReplaceContributorStats(ctx context.Context, stats *domain.ContributorStats) error {
	return s.replaceByID(ctx, collContributors, stats.Login, stats)
}

func (s *documentStore) SaveRun(ctx context.Context, run *domain.CollectionRun) error {
	return s.replaceByID(ctx, collRuns, run.ID, run)
}

func (s *documentStore) ReplaceUserProfile(ctx context.Context, profile *domain.UserProfile) error {
	return s.replaceByID(ctx, collUserProfiles, profile.Login, profile)
}

// EnsureIndexes creates the indexes the read paths rely on. Collections
// themselves are created implicitly on first write.
func (s *documentStore) EnsureIndexes(ctx context.Context) error {
	repoIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "full_name", Value: 1}}},
		{Keys: bson.D{{Key: "language", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: 1}}},
		{Keys: bson.D{{Key: "stars", Value: -1}}},
	}
	if _, err := s.db.Collection(collRepositories).Indexes().CreateMany(ctx, repoIndexes); err != nil {
		return fmt.Errorf("failed to create repository indexes: %w", err)
	}

	if _, err := s.db.Collection(collOwners).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "total_stars", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create owner indexes: %w", err)
	}

	return nil
}

func (s *documentStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *documentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
