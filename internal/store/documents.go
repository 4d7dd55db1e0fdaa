package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/latifiss/oak/internal/models"
)

// DocumentStore accesses one secondary collection of a site.
type DocumentStore struct {
	coll *mongo.Collection
}

// Insert adds a new document and fills in its assigned id.
func (s *DocumentStore) Insert(ctx context.Context, d *models.Document) error {
	res, err := s.coll.InsertOne(ctx, d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("insert document: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		d.ID = id
	}
	return nil
}

// FindByID fetches a document by id.
func (s *DocumentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindBySlug fetches a document by slug.
func (s *DocumentStore) FindBySlug(ctx context.Context, slug string) (*models.Document, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *DocumentStore) findOne(ctx context.Context, filter bson.M) (*models.Document, error) {
	var d models.Document
	err := s.coll.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &d, nil
}

// SlugExists reports whether any document already uses slug.
func (s *DocumentStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

// List returns a page of documents, newest first, plus the total count.
func (s *DocumentStore) List(ctx context.Context, category string, page, limit int) ([]models.Document, int64, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := []models.Document{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode documents: %w", err)
	}
	return docs, total, nil
}

// Replace overwrites the full document.
func (s *DocumentStore) Replace(ctx context.Context, d *models.Document) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("replace document: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a document by id.
func (s *DocumentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
