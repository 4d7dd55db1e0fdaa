package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/latifiss/oak/internal/models"
)

// ArticleStore accesses one site's article collection.
type ArticleStore struct {
	coll *mongo.Collection
}

// Insert adds a new article and fills in its assigned id.
func (s *ArticleStore) Insert(ctx context.Context, a *models.Article) error {
	res, err := s.coll.InsertOne(ctx, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("insert article: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = id
	}
	return nil
}

// FindByID fetches an article by store-assigned id.
func (s *ArticleStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindBySlug fetches an article by slug.
func (s *ArticleStore) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *ArticleStore) findOne(ctx context.Context, filter bson.M) (*models.Article, error) {
	var a models.Article
	err := s.coll.FindOne(ctx, filter).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find article: %w", err)
	}
	return &a, nil
}

// Replace overwrites the full document. Last write wins; there is no
// concurrency token.
func (s *ArticleStore) Replace(ctx context.Context, a *models.Article) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("replace article: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes an article by id.
func (s *ArticleStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SlugExists reports whether any article already uses slug.
func (s *ArticleStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}

// List returns a page of articles matching the filter, newest first, plus the
// total match count.
func (s *ArticleStore) List(ctx context.Context, f models.ArticleFilter, page, limit int) ([]models.Article, int64, error) {
	filter := filterQuery(f)

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer cursor.Close(ctx)

	articles := []models.Article{}
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, 0, fmt.Errorf("decode articles: %w", err)
	}
	return articles, total, nil
}

func filterQuery(f models.ArticleFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.SectionSlug != "" {
		filter["section_slug"] = f.SectionSlug
	}
	if f.Tag != "" {
		filter["tags"] = f.Tag
	}
	switch f.Status {
	case models.StatusBreaking:
		filter["is_breaking"] = true
	case models.StatusTopstory:
		filter["is_topstory"] = true
	case models.StatusHeadline:
		filter["is_headline"] = true
	case models.StatusLive:
		filter["is_live"] = true
	}
	return filter
}

// FindHeadline returns the currently headlined article.
func (s *ArticleStore) FindHeadline(ctx context.Context) (*models.Article, error) {
	return s.findOne(ctx, bson.M{"is_headline": true})
}

// DemoteHeadlines clears is_headline on every article except the given one,
// in a single bulk update. Pass primitive.NilObjectID to demote all.
func (s *ArticleStore) DemoteHeadlines(ctx context.Context, except primitive.ObjectID) (int64, error) {
	filter := bson.M{"is_headline": true}
	if except != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": except}
	}

	res, err := s.coll.UpdateMany(ctx, filter, bson.M{
		"$set": bson.M{"is_headline": false},
	})
	if err != nil {
		return 0, fmt.Errorf("demote headlines: %w", err)
	}
	return res.ModifiedCount, nil
}

// ClearExpiredBreaking flips is_breaking off on every article whose expiry
// is strictly in the past, clearing the expiry field. Conditional and
// idempotent, so concurrent invocations are safe.
func (s *ArticleStore) ClearExpiredBreaking(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{
			"is_breaking":         true,
			"breaking_expires_at": bson.M{"$lt": now},
		},
		bson.M{
			"$set":   bson.M{"is_breaking": false},
			"$unset": bson.M{"breaking_expires_at": ""},
		})
	if err != nil {
		return 0, fmt.Errorf("clear expired breaking: %w", err)
	}
	return res.ModifiedCount, nil
}

// ClearExpiredTopstory is the top-story analogue of ClearExpiredBreaking.
// The expiry field is cleared along with the flag, matching the breaking
// behavior.
func (s *ArticleStore) ClearExpiredTopstory(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{
			"is_topstory":         true,
			"topstory_expires_at": bson.M{"$lt": now},
		},
		bson.M{
			"$set":   bson.M{"is_topstory": false},
			"$unset": bson.M{"topstory_expires_at": ""},
		})
	if err != nil {
		return 0, fmt.Errorf("clear expired topstory: %w", err)
	}
	return res.ModifiedCount, nil
}

// CountBySection counts articles assigned to the given section slug. The
// section_name check mirrors Article.HasSection.
func (s *ArticleStore) CountBySection(ctx context.Context, sectionSlug string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"section_slug": sectionSlug,
		"section_name": bson.M{"$ne": ""},
	})
	if err != nil {
		return 0, fmt.Errorf("count section articles: %w", err)
	}
	return n, nil
}

// ClearSectionLinkage detaches every article of a section, used when the
// section itself is deleted.
func (s *ArticleStore) ClearSectionLinkage(ctx context.Context, sectionSlug string) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"section_slug": sectionSlug},
		bson.M{"$unset": bson.M{
			"section_id":   "",
			"section_name": "",
			"section_code": "",
			"section_slug": "",
		}})
	if err != nil {
		return 0, fmt.Errorf("clear section linkage: %w", err)
	}
	return res.ModifiedCount, nil
}

// Search performs a case-insensitive substring match over title and
// description. Regex-based by design; this is not a search engine.
func (s *ArticleStore) Search(ctx context.Context, q string, limit int) ([]models.Article, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"description": pattern},
	}}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	defer cursor.Close(ctx)

	articles := []models.Article{}
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return articles, nil
}

// FindSimilar returns recent articles sharing the category or any tag with
// the given article, excluding the article itself.
func (s *ArticleStore) FindSimilar(ctx context.Context, category string, tags []string, excludeSlug string, limit int) ([]models.Article, error) {
	or := bson.A{bson.M{"category": category}}
	if len(tags) > 0 {
		or = append(or, bson.M{"tags": bson.M{"$in": tags}})
	}
	filter := bson.M{
		"$or":  or,
		"slug": bson.M{"$ne": excludeSlug},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find similar articles: %w", err)
	}
	defer cursor.Close(ctx)

	articles := []models.Article{}
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("decode similar articles: %w", err)
	}
	return articles, nil
}
