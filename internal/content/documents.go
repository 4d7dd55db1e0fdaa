package content

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/latifiss/oak/internal/cache"
	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/models"
	"github.com/latifiss/oak/internal/slug"
	"github.com/latifiss/oak/internal/storage"
)

// DocumentPage is one page of a secondary-collection listing.
type DocumentPage struct {
	Results    []models.Document `json:"results"`
	Total      int64             `json:"total"`
	TotalPages int               `json:"total_pages"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// DocumentService serves one secondary collection of a site (features,
// opinions, graphics or charts). All four share this implementation; only
// the entity name differs.
type DocumentService struct {
	site   string
	entity string
	docs   DocumentStore
	cache  *cache.Cache
	blobs  storage.BlobStore
	logger logger.Logger
	now    func() time.Time

	slugSuffix bool
}

// NewDocumentService creates the service for one site/entity pair.
func NewDocumentService(site, entity string, docs DocumentStore, c *cache.Cache, blobs storage.BlobStore, log logger.Logger, slugSuffix bool) *DocumentService {
	return &DocumentService{
		site:       site,
		entity:     entity,
		docs:       docs,
		cache:      c,
		blobs:      blobs,
		logger:     log.With(logger.String("site", site), logger.String("entity", entity)),
		now:        time.Now,
		slugSuffix: slugSuffix,
	}
}

// Entity returns the collection name this service serves.
func (s *DocumentService) Entity() string {
	return s.entity
}

// Create validates and persists a new document.
func (s *DocumentService) Create(ctx context.Context, req *models.DocumentCreateRequest, image *storage.Upload) (*models.Document, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	d := &models.Document{
		Slug:        s.makeSlug(req.Title, now),
		Title:       req.Title,
		Description: req.Description,
		Body:        req.Body,
		Category:    req.Category,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taken, err := s.docs.SlugExists(ctx, d.Slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrAlreadyExists
	}

	if image != nil {
		url, storeErr := s.blobs.Store(ctx, image.Data, image.MimeType, s.site+"/"+s.entity)
		if storeErr != nil {
			return nil, fmt.Errorf("store image: %w", storeErr)
		}
		d.ImageURL = url
	}

	if err = s.docs.Insert(ctx, d); err != nil {
		s.releaseBlob(ctx, d.ImageURL)
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("document created", logger.String("slug", d.Slug))
	return d, nil
}

// GetByID fetches a document by its 24-hex id, cache-aside.
func (s *DocumentService) GetByID(ctx context.Context, id string) (*models.Document, bool, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, false, err
	}

	key := cache.Key(s.site, s.entity, "id", id)
	var cached models.Document
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	d, err := s.docs.FindByID(ctx, oid)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, d, cache.TTLItem)
	return d, false, nil
}

// GetBySlug fetches a document by slug, cache-aside.
func (s *DocumentService) GetBySlug(ctx context.Context, slugStr string) (*models.Document, bool, error) {
	key := cache.Key(s.site, s.entity, "slug", slugStr)
	var cached models.Document
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	d, err := s.docs.FindBySlug(ctx, slugStr)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, d, cache.TTLItem)
	return d, false, nil
}

// List returns a page of documents, optionally filtered by category.
func (s *DocumentService) List(ctx context.Context, category string, page, limit int) (*DocumentPage, bool, error) {
	page, limit = clampPage(page, limit)

	key := cache.Key(s.site, s.entity, "list", strconv.Itoa(page), strconv.Itoa(limit), category)
	var cached DocumentPage
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	results, total, err := s.docs.List(ctx, category, page, limit)
	if err != nil {
		return nil, false, err
	}

	p := &DocumentPage{
		Results:    results,
		Total:      total,
		TotalPages: totalPages(total, limit),
		Page:       page,
		Limit:      limit,
	}
	s.cache.Set(ctx, key, p, cache.TTLListing)
	return p, false, nil
}

// Update applies a partial update, regenerating the slug on a title change.
func (s *DocumentService) Update(ctx context.Context, id string, req *models.DocumentUpdateRequest, image *storage.Upload) (*models.Document, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if err = req.Validate(); err != nil {
		return nil, err
	}

	d, err := s.docs.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if req.Title != nil && *req.Title != d.Title {
		newSlug := s.makeSlug(*req.Title, now)
		if newSlug != d.Slug {
			taken, slugErr := s.docs.SlugExists(ctx, newSlug)
			if slugErr != nil {
				return nil, slugErr
			}
			if taken {
				return nil, models.ErrAlreadyExists
			}
			d.Slug = newSlug
		}
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.Body != nil {
		d.Body = *req.Body
	}
	if req.Category != nil {
		d.Category = *req.Category
	}
	if req.Tags != nil {
		d.Tags = req.Tags
	}

	oldImage, newImage := "", ""
	if image != nil {
		url, storeErr := s.blobs.Store(ctx, image.Data, image.MimeType, s.site+"/"+s.entity)
		if storeErr != nil {
			return nil, fmt.Errorf("store image: %w", storeErr)
		}
		oldImage, newImage = d.ImageURL, url
		d.ImageURL = url
	}

	d.UpdatedAt = now
	if err = s.docs.Replace(ctx, d); err != nil {
		s.releaseBlob(ctx, newImage)
		return nil, err
	}
	s.releaseBlob(ctx, oldImage)

	s.invalidate(ctx)
	return d, nil
}

// Delete removes a document and releases its image blob.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	d, err := s.docs.FindByID(ctx, oid)
	if err != nil {
		return err
	}

	if err = s.docs.Delete(ctx, oid); err != nil {
		return err
	}

	s.releaseBlob(ctx, d.ImageURL)
	s.invalidate(ctx)
	s.logger.Info("document deleted", logger.String("slug", d.Slug))
	return nil
}

func (s *DocumentService) makeSlug(title string, now time.Time) string {
	if s.slugSuffix {
		return slug.MakeUnique(title, now)
	}
	return slug.Make(title)
}

func (s *DocumentService) releaseBlob(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		s.logger.Warn("blob release failed", logger.String("url", url), logger.Error(err))
	}
}

func (s *DocumentService) invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.Namespace(s.site, s.entity))
}
