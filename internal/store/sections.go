package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/latifiss/oak/internal/models"
)

// SectionStore accesses one site's section collection.
type SectionStore struct {
	coll *mongo.Collection
}

// Insert adds a new section and fills in its assigned id.
func (s *SectionStore) Insert(ctx context.Context, sec *models.Section) error {
	res, err := s.coll.InsertOne(ctx, sec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("insert section: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		sec.ID = id
	}
	return nil
}

// FindByID fetches a section by id.
func (s *SectionStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Section, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindBySlug fetches a section by slug.
func (s *SectionStore) FindBySlug(ctx context.Context, slug string) (*models.Section, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *SectionStore) findOne(ctx context.Context, filter bson.M) (*models.Section, error) {
	var sec models.Section
	err := s.coll.FindOne(ctx, filter).Decode(&sec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find section: %w", err)
	}
	return &sec, nil
}

// CodeOrSlugExists reports whether a different section already claims the
// code or slug. exclude skips the section being updated.
func (s *SectionStore) CodeOrSlugExists(ctx context.Context, code, slug string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"code": code},
		bson.M{"slug": slug},
	}}
	if exclude != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": exclude}
	}

	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check section code/slug: %w", err)
	}
	return n > 0, nil
}

// List returns all sections, optionally only those active at now.
func (s *SectionStore) List(ctx context.Context, activeOnly bool, now time.Time) ([]models.Section, error) {
	filter := bson.M{}
	if activeOnly {
		filter["$or"] = bson.A{
			bson.M{"expires_at": bson.M{"$exists": false}},
			bson.M{"expires_at": nil},
			bson.M{"expires_at": bson.M{"$gt": now}},
		}
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer cursor.Close(ctx)

	sections := []models.Section{}
	if err := cursor.All(ctx, &sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	return sections, nil
}

// Replace overwrites the full section document.
func (s *SectionStore) Replace(ctx context.Context, sec *models.Section) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sec.ID}, sec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("replace section: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a section by id.
func (s *SectionStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetArticlesCount persists a corrected denormalized count.
func (s *SectionStore) SetArticlesCount(ctx context.Context, id primitive.ObjectID, count int64) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"articles_count": count, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("set articles count: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// IncArticlesCount adjusts the denormalized count by delta, flooring at zero
// on the read side; drift self-heals at the next recount.
func (s *SectionStore) IncArticlesCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"articles_count": delta},
	})
	if err != nil {
		return fmt.Errorf("adjust articles count: %w", err)
	}
	return nil
}
