// Package content implements the orchestration layer: cache-aside reads, the
// status-flag state machine, expiry reconciliation and section count
// synchronization.
package content

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/latifiss/oak/internal/models"
)

// ArticleStore is the article persistence capability the services depend on.
// *store.ArticleStore implements it; tests substitute an in-memory fake.
type ArticleStore interface {
	Insert(ctx context.Context, a *models.Article) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	Replace(ctx context.Context, a *models.Article) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f models.ArticleFilter, page, limit int) ([]models.Article, int64, error)
	FindHeadline(ctx context.Context) (*models.Article, error)
	DemoteHeadlines(ctx context.Context, except primitive.ObjectID) (int64, error)
	ClearExpiredBreaking(ctx context.Context, now time.Time) (int64, error)
	ClearExpiredTopstory(ctx context.Context, now time.Time) (int64, error)
	CountBySection(ctx context.Context, sectionSlug string) (int64, error)
	ClearSectionLinkage(ctx context.Context, sectionSlug string) (int64, error)
	Search(ctx context.Context, q string, limit int) ([]models.Article, error)
	FindSimilar(ctx context.Context, category string, tags []string, excludeSlug string, limit int) ([]models.Article, error)
}

// SectionStore is the section persistence capability.
type SectionStore interface {
	Insert(ctx context.Context, sec *models.Section) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Section, error)
	FindBySlug(ctx context.Context, slug string) (*models.Section, error)
	CodeOrSlugExists(ctx context.Context, code, slug string, exclude primitive.ObjectID) (bool, error)
	List(ctx context.Context, activeOnly bool, now time.Time) ([]models.Section, error)
	Replace(ctx context.Context, sec *models.Section) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetArticlesCount(ctx context.Context, id primitive.ObjectID, count int64) error
	IncArticlesCount(ctx context.Context, id primitive.ObjectID, delta int64) error
}

// DocumentStore is the persistence capability for the secondary collections.
type DocumentStore interface {
	Insert(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error)
	FindBySlug(ctx context.Context, slug string) (*models.Document, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, category string, page, limit int) ([]models.Document, int64, error)
	Replace(ctx context.Context, d *models.Document) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ParseID validates a 24-hex-character identifier before it reaches the
// store.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidID
	}
	return oid, nil
}
