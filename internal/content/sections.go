package content

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/latifiss/oak/internal/cache"
	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/metrics"
	"github.com/latifiss/oak/internal/models"
	"github.com/latifiss/oak/internal/slug"
)

// SectionService manages politics-site sections: CRUD, featured articles and
// the denormalized article counts, which are corrected lazily on every
// section read.
type SectionService struct {
	site     string
	sections SectionStore
	articles ArticleStore
	cache    *cache.Cache
	metrics  *metrics.Metrics
	logger   logger.Logger
	now      func() time.Time
}

// NewSectionService creates the section service for a site. metrics may be
// nil.
func NewSectionService(site string, sections SectionStore, articles ArticleStore, c *cache.Cache, m *metrics.Metrics, log logger.Logger) *SectionService {
	return &SectionService{
		site:     site,
		sections: sections,
		articles: articles,
		cache:    c,
		metrics:  m,
		logger:   log.With(logger.String("site", site)),
		now:      time.Now,
	}
}

// Create validates and persists a new section. The slug derives from the
// name; the code is stored uppercase. Both must be unique.
func (s *SectionService) Create(ctx context.Context, req *models.SectionCreateRequest) (*models.Section, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sec := &models.Section{
		Name:        req.Name,
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Slug:        slug.Make(req.Name),
		Description: req.Description,
		Tags:        req.Tags,
		ExpiresAt:   req.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taken, err := s.sections.CodeOrSlugExists(ctx, sec.Code, sec.Slug, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrAlreadyExists
	}

	if err := s.sections.Insert(ctx, sec); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("section created", logger.String("slug", sec.Slug))
	return sec, nil
}

// GetBySlug fetches a section, cache-aside. On a cache miss the article count
// is recounted from the article collection before the section is served, so
// drift never outlives one cache cycle.
func (s *SectionService) GetBySlug(ctx context.Context, slugStr string) (*models.Section, bool, error) {
	key := cache.Key(s.site, "sections", "slug", slugStr)
	var cached models.Section
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	sec, err := s.sections.FindBySlug(ctx, slugStr)
	if err != nil {
		return nil, false, err
	}

	s.syncCount(ctx, sec)
	s.cache.Set(ctx, key, sec, cache.TTLItem)
	return sec, false, nil
}

// GetByID fetches a section by id, cache-aside, with the same lazy recount
// as GetBySlug.
func (s *SectionService) GetByID(ctx context.Context, id string) (*models.Section, bool, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, false, err
	}

	key := cache.Key(s.site, "sections", "id", id)
	var cached models.Section
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	sec, err := s.sections.FindByID(ctx, oid)
	if err != nil {
		return nil, false, err
	}

	s.syncCount(ctx, sec)
	s.cache.Set(ctx, key, sec, cache.TTLItem)
	return sec, false, nil
}

// List returns sections, optionally only those currently active, cache-aside.
func (s *SectionService) List(ctx context.Context, activeOnly bool) ([]models.Section, bool, error) {
	kind := "list"
	if activeOnly {
		kind = "list:active"
	}

	key := cache.Key(s.site, "sections", kind)
	var cached []models.Section
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	sections, err := s.sections.List(ctx, activeOnly, s.now().UTC())
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, sections, cache.TTLListing)
	return sections, false, nil
}

// Update applies a partial update. A name change regenerates the slug;
// articles keep their denormalized copies until reassigned, so lookups stay
// id-based internally.
func (s *SectionService) Update(ctx context.Context, id string, req *models.SectionUpdateRequest) (*models.Section, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if err = req.Validate(); err != nil {
		return nil, err
	}

	sec, err := s.sections.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != sec.Name {
		sec.Name = *req.Name
		sec.Slug = slug.Make(*req.Name)
	}
	if req.Code != nil {
		sec.Code = strings.ToUpper(strings.TrimSpace(*req.Code))
	}
	if req.Description != nil {
		sec.Description = *req.Description
	}
	if req.Tags != nil {
		sec.Tags = req.Tags
	}
	if req.ExpiresAt != nil {
		sec.ExpiresAt = req.ExpiresAt
	}

	taken, err := s.sections.CodeOrSlugExists(ctx, sec.Code, sec.Slug, sec.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrAlreadyExists
	}

	sec.UpdatedAt = s.now().UTC()
	if err = s.sections.Replace(ctx, sec); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return sec, nil
}

// Delete removes a section and detaches every article that belonged to it.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	sec, err := s.sections.FindByID(ctx, oid)
	if err != nil {
		return err
	}

	if err = s.sections.Delete(ctx, oid); err != nil {
		return err
	}

	detached, err := s.articles.ClearSectionLinkage(ctx, sec.Slug)
	if err != nil {
		s.logger.Error("section linkage cleanup failed",
			logger.String("slug", sec.Slug), logger.Error(err))
	}

	s.invalidate(ctx)
	s.cache.Invalidate(ctx, cache.Namespace(s.site, "articles"))

	s.logger.Info("section deleted",
		logger.String("slug", sec.Slug),
		logger.Int64("articles_detached", detached))
	return nil
}

// Feature adds an article to the section's featured list, newest first,
// capped at models.MaxFeaturedArticles.
func (s *SectionService) Feature(ctx context.Context, sectionID, articleID string) (*models.Section, error) {
	secID, err := ParseID(sectionID)
	if err != nil {
		return nil, err
	}
	artID, err := ParseID(articleID)
	if err != nil {
		return nil, err
	}

	sec, err := s.sections.FindByID(ctx, secID)
	if err != nil {
		return nil, err
	}
	a, err := s.articles.FindByID(ctx, artID)
	if err != nil {
		return nil, err
	}

	sec.AddFeatured(models.FeaturedArticle{
		ArticleID: a.ID,
		Slug:      a.Slug,
		Title:     a.Title,
		AddedAt:   s.now().UTC(),
	})
	sec.UpdatedAt = s.now().UTC()

	if err = s.sections.Replace(ctx, sec); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return sec, nil
}

// Unfeature removes an article from the section's featured list.
func (s *SectionService) Unfeature(ctx context.Context, sectionID, articleID string) (*models.Section, error) {
	secID, err := ParseID(sectionID)
	if err != nil {
		return nil, err
	}
	artID, err := ParseID(articleID)
	if err != nil {
		return nil, err
	}

	sec, err := s.sections.FindByID(ctx, secID)
	if err != nil {
		return nil, err
	}

	sec.RemoveFeatured(artID)
	sec.UpdatedAt = s.now().UTC()

	if err = s.sections.Replace(ctx, sec); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return sec, nil
}

// Recount forces a count correction for one section and returns the
// authoritative number.
func (s *SectionService) Recount(ctx context.Context, slugStr string) (int64, error) {
	sec, err := s.sections.FindBySlug(ctx, slugStr)
	if err != nil {
		return 0, err
	}

	actual, err := s.articles.CountBySection(ctx, sec.Slug)
	if err != nil {
		return 0, err
	}
	if actual != sec.ArticlesCount {
		if err := s.sections.SetArticlesCount(ctx, sec.ID, actual); err != nil {
			return 0, err
		}
		s.countCorrected(sec.Slug, sec.ArticlesCount, actual)
		s.invalidate(ctx)
	}
	return actual, nil
}

// RecountAll corrects the counts of every section, used by the periodic
// worker as a backstop for sections that are never read.
func (s *SectionService) RecountAll(ctx context.Context) error {
	sections, err := s.sections.List(ctx, false, s.now().UTC())
	if err != nil {
		return err
	}

	corrected := false
	for i := range sections {
		sec := &sections[i]
		actual, err := s.articles.CountBySection(ctx, sec.Slug)
		if err != nil {
			return err
		}
		if actual == sec.ArticlesCount {
			continue
		}
		if err := s.sections.SetArticlesCount(ctx, sec.ID, actual); err != nil {
			return err
		}
		s.countCorrected(sec.Slug, sec.ArticlesCount, actual)
		corrected = true
	}

	if corrected {
		s.invalidate(ctx)
	}
	return nil
}

// syncCount recomputes a freshly loaded section's count. Failures leave the
// stored value in place; the next read retries.
func (s *SectionService) syncCount(ctx context.Context, sec *models.Section) {
	actual, err := s.articles.CountBySection(ctx, sec.Slug)
	if err != nil {
		s.logger.Warn("section recount failed",
			logger.String("slug", sec.Slug), logger.Error(err))
		return
	}
	if actual == sec.ArticlesCount {
		return
	}
	if err := s.sections.SetArticlesCount(ctx, sec.ID, actual); err != nil {
		s.logger.Warn("section count write failed",
			logger.String("slug", sec.Slug), logger.Error(err))
		return
	}
	s.countCorrected(sec.Slug, sec.ArticlesCount, actual)
	sec.ArticlesCount = actual
}

func (s *SectionService) countCorrected(slug string, stored, actual int64) {
	if s.metrics != nil {
		s.metrics.CountsCorrected.WithLabelValues(s.site).Inc()
	}
	s.logger.Info("section count corrected",
		logger.String("slug", slug),
		logger.Int64("stored", stored),
		logger.Int64("actual", actual))
}

func (s *SectionService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.Namespace(s.site, "sections"))
}
