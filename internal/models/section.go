package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxFeaturedArticles caps the featured list on a section.
const MaxFeaturedArticles = 10

// FeaturedArticle is a lightweight reference kept on a section.
type FeaturedArticle struct {
	ArticleID primitive.ObjectID `bson:"article_id" json:"article_id"`
	Slug      string             `bson:"slug"       json:"slug"`
	Title     string             `bson:"title"      json:"title"`
	AddedAt   time.Time          `bson:"added_at"   json:"added_at"`
}

// Section groups politics-site articles. ArticlesCount is denormalized and
// corrected lazily; it must eventually equal the number of articles whose
// section_slug matches.
type Section struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name"          json:"name"`
	Code        string             `bson:"code"          json:"code"`
	Slug        string             `bson:"slug"          json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Tags        []string           `bson:"tags,omitempty"        json:"tags,omitempty"`

	ArticlesCount    int64             `bson:"articles_count"              json:"articles_count"`
	FeaturedArticles []FeaturedArticle `bson:"featured_articles,omitempty" json:"featured_articles,omitempty"`

	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt time.Time  `bson:"created_at"           json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"           json:"updated_at"`
}

// IsActive reports whether the section is active at the given instant:
// active iff it has no expiry or the expiry is still in the future.
func (s *Section) IsActive(now time.Time) bool {
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// AddFeatured prepends a featured reference, keeping only the most recent
// MaxFeaturedArticles entries. Re-featuring an article moves it to the front.
func (s *Section) AddFeatured(ref FeaturedArticle) {
	kept := make([]FeaturedArticle, 0, len(s.FeaturedArticles)+1)
	kept = append(kept, ref)
	for _, f := range s.FeaturedArticles {
		if f.ArticleID != ref.ArticleID {
			kept = append(kept, f)
		}
	}
	if len(kept) > MaxFeaturedArticles {
		kept = kept[:MaxFeaturedArticles]
	}
	s.FeaturedArticles = kept
}

// RemoveFeatured drops an article from the featured list, if present.
func (s *Section) RemoveFeatured(articleID primitive.ObjectID) {
	for i, f := range s.FeaturedArticles {
		if f.ArticleID == articleID {
			s.FeaturedArticles = append(s.FeaturedArticles[:i], s.FeaturedArticles[i+1:]...)
			return
		}
	}
}
