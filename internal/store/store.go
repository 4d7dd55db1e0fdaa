// Package store implements the document store on MongoDB. One database holds
// per-site collections named {site}_{entity}.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Store bundles the Mongo client and database handles. It is constructed
// once at startup and injected; there is no lazy global connection state.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect establishes the Mongo connection, verifies it with a ping and
// returns a Store. The caller owns the lifecycle and must Close it.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return &Store{
		client: client,
		db:     client.Database(database),
	}, nil
}

// Ping verifies store connectivity, used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Articles returns the article collection accessor for a site.
func (s *Store) Articles(site string) *ArticleStore {
	return &ArticleStore{coll: s.db.Collection(site + "_articles")}
}

// Sections returns the section collection accessor for a site.
func (s *Store) Sections(site string) *SectionStore {
	return &SectionStore{coll: s.db.Collection(site + "_sections")}
}

// Documents returns the accessor for a secondary collection (features,
// opinions, graphics, charts) of a site.
func (s *Store) Documents(site, entity string) *DocumentStore {
	return &DocumentStore{coll: s.db.Collection(site + "_" + entity)}
}

// EnsureIndexes creates the unique slug indexes for a site's collections.
// Safe to call repeatedly.
func (s *Store) EnsureIndexes(ctx context.Context, site string, entities []string) error {
	unique := options.Index().SetUnique(true)

	if _, err := s.db.Collection(site+"_articles").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: unique,
	}); err != nil {
		return fmt.Errorf("create article slug index: %w", err)
	}

	for _, entity := range entities {
		if _, err := s.db.Collection(site+"_"+entity).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: unique,
		}); err != nil {
			return fmt.Errorf("create %s slug index: %w", entity, err)
		}
	}

	return nil
}
