package content

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/latifiss/oak/internal/cache"
	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/metrics"
	"github.com/latifiss/oak/internal/models"
	"github.com/latifiss/oak/internal/slug"
	"github.com/latifiss/oak/internal/storage"
)

const (
	searchLimit  = 20
	similarLimit = 5
)

// ArticlePage is one page of a listing read.
type ArticlePage struct {
	Results    []models.Article `json:"results"`
	Total      int64            `json:"total"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
}

// ArticleService orchestrates article operations for one site: validation,
// slug generation, the status-flag state machine, cache-aside reads and
// conservative invalidation on writes.
type ArticleService struct {
	site       string
	articles   ArticleStore
	sections   SectionStore // nil for sites without sections
	cache      *cache.Cache
	blobs      storage.BlobStore
	reconciler *Reconciler
	logger     logger.Logger
	now        func() time.Time

	slugSuffix    bool
	allowComments bool
}

// ArticleOption configures site-specific service behavior.
type ArticleOption func(*ArticleService)

// WithSections enables section linkage (politics site).
func WithSections(sections SectionStore) ArticleOption {
	return func(s *ArticleService) { s.sections = sections }
}

// WithComments enables nested comments (politics site).
func WithComments() ArticleOption {
	return func(s *ArticleService) { s.allowComments = true }
}

// WithSlugSuffix enables the time-suffixed slug variant (music site).
func WithSlugSuffix() ArticleOption {
	return func(s *ArticleService) { s.slugSuffix = true }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ArticleOption {
	return func(s *ArticleService) {
		s.now = now
		s.reconciler.now = now
	}
}

// NewArticleService creates the article service for a site. metrics may be
// nil.
func NewArticleService(site string, articles ArticleStore, c *cache.Cache, blobs storage.BlobStore, m *metrics.Metrics, log logger.Logger, opts ...ArticleOption) *ArticleService {
	s := &ArticleService{
		site:       site,
		articles:   articles,
		cache:      c,
		blobs:      blobs,
		reconciler: NewReconciler(site, articles, c, m, log),
		logger:     log.With(logger.String("site", site)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reconciler exposes the expiry reconciler, used by the periodic worker.
func (s *ArticleService) Reconciler() *Reconciler {
	return s.reconciler
}

// Site returns the site this service serves.
func (s *ArticleService) Site() string {
	return s.site
}

// AllowsComments reports whether the site carries reader comments.
func (s *ArticleService) AllowsComments() bool {
	return s.allowComments
}

// Create validates and persists a new article. The optional image is stored
// first so the document persists with its final URL; on any later failure
// the blob is released again, leaving no partial state.
func (s *ArticleService) Create(ctx context.Context, req *models.ArticleCreateRequest, image *storage.Upload) (*models.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &models.Article{
		Slug:        s.makeSlug(req.Title, now),
		Title:       req.Title,
		Description: req.Description,
		Content:     models.PlainContent(req.Content),
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	taken, err := s.articles.SlugExists(ctx, a.Slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.ErrAlreadyExists
	}

	if req.IsLive {
		a.IsLive = true
		a.Content = a.Content.ToLive(now)
	}
	if req.IsBreaking {
		s.setBreaking(a, true, now)
	}
	if req.IsTopstory {
		s.setTopstory(a, true, now)
	}

	var section *models.Section
	if req.SectionID != "" {
		if section, err = s.resolveSection(ctx, req.SectionID); err != nil {
			return nil, err
		}
		a.AssignSection(section)
	}

	if image != nil {
		url, storeErr := s.blobs.Store(ctx, image.Data, image.MimeType, s.site+"/articles")
		if storeErr != nil {
			return nil, fmt.Errorf("store image: %w", storeErr)
		}
		a.ImageURL = url
	}

	// Demote any current headline before this one goes in, keeping the
	// single-headline invariant across the insert.
	if req.IsHeadline {
		if _, err = s.articles.DemoteHeadlines(ctx, primitive.NilObjectID); err != nil {
			s.releaseBlob(ctx, a.ImageURL)
			return nil, err
		}
		a.IsHeadline = true
	}

	if err = s.articles.Insert(ctx, a); err != nil {
		s.releaseBlob(ctx, a.ImageURL)
		return nil, err
	}

	if section != nil {
		s.adjustSectionCount(ctx, section.ID, +1)
	}

	s.invalidateArticles(ctx)
	if section != nil {
		s.invalidateSections(ctx)
	}

	s.logger.Info("article created",
		logger.String("slug", a.Slug),
		logger.Bool("breaking", a.IsBreaking),
		logger.Bool("headline", a.IsHeadline))
	return a, nil
}

// GetByID fetches an article by its 24-hex id, cache-aside. The second
// return reports whether the cache served it.
func (s *ArticleService) GetByID(ctx context.Context, id string) (*models.Article, bool, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, false, err
	}

	s.reconciler.Reconcile(ctx)

	key := cache.Key(s.site, "articles", "id", id)
	var cached models.Article
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	a, err := s.articles.FindByID(ctx, oid)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, a, cache.TTLItem)
	return a, false, nil
}

// GetBySlug fetches an article by slug, cache-aside.
func (s *ArticleService) GetBySlug(ctx context.Context, slugStr string) (*models.Article, bool, error) {
	s.reconciler.Reconcile(ctx)

	key := cache.Key(s.site, "articles", "slug", slugStr)
	var cached models.Article
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	a, err := s.articles.FindBySlug(ctx, slugStr)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, a, cache.TTLItem)
	return a, false, nil
}

// List returns a page of articles matching the filter, cache-aside.
func (s *ArticleService) List(ctx context.Context, f models.ArticleFilter, page, limit int) (*ArticlePage, bool, error) {
	page, limit = clampPage(page, limit)

	s.reconciler.Reconcile(ctx)

	key := s.listKey("list", f, page, limit)
	ttl := cache.TTLListing
	if f.Status == models.StatusBreaking || f.Status == models.StatusLive || f.Status == models.StatusTopstory {
		ttl = cache.TTLVolatile
	}

	var cached ArticlePage
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	results, total, err := s.articles.List(ctx, f, page, limit)
	if err != nil {
		return nil, false, err
	}

	p := &ArticlePage{
		Results:    results,
		Total:      total,
		TotalPages: totalPages(total, limit),
		Page:       page,
		Limit:      limit,
	}
	s.cache.Set(ctx, key, p, ttl)
	return p, false, nil
}

// ByStatus lists articles carrying one of the canonical status flags:
// breaking, topstory, headline or live.
func (s *ArticleService) ByStatus(ctx context.Context, status string, page, limit int) (*ArticlePage, bool, error) {
	if !models.ValidStatus(status) {
		return nil, false, models.Invalid("status", "unknown status "+strconv.Quote(status))
	}
	return s.List(ctx, models.ArticleFilter{Status: models.ArticleStatus(status)}, page, limit)
}

// Headline returns the current headlined article. The cache entry has no
// TTL; it is invalidated whenever any write touches the article namespace.
func (s *ArticleService) Headline(ctx context.Context) (*models.Article, bool, error) {
	s.reconciler.Reconcile(ctx)

	key := cache.Key(s.site, "articles", "headline")
	var cached models.Article
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	a, err := s.articles.FindHeadline(ctx)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, a, cache.TTLIndefinite)
	return a, false, nil
}

// Search performs a substring search over title and description.
func (s *ArticleService) Search(ctx context.Context, q string) ([]models.Article, bool, error) {
	if q == "" {
		return nil, false, models.Invalid("q", "query is required")
	}

	s.reconciler.Reconcile(ctx)

	key := cache.Key(s.site, "articles", "search", q)
	var cached []models.Article
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	results, err := s.articles.Search(ctx, q, searchLimit)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, results, cache.TTLListing)
	return results, false, nil
}

// Similar returns recent articles sharing the category or a tag with the
// article at slug.
func (s *ArticleService) Similar(ctx context.Context, slugStr string) ([]models.Article, bool, error) {
	s.reconciler.Reconcile(ctx)

	key := cache.Key(s.site, "articles", "similar", slugStr)
	var cached []models.Article
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	a, err := s.articles.FindBySlug(ctx, slugStr)
	if err != nil {
		return nil, false, err
	}

	results, err := s.articles.FindSimilar(ctx, a.Category, a.Tags, a.Slug, similarLimit)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, results, cache.TTLListing)
	return results, false, nil
}

// Update applies a partial update: field changes, slug regeneration on a
// title change, the flag state machine and section reassignment. The full
// document is replaced at the end; last write wins.
func (s *ArticleService) Update(ctx context.Context, id string, req *models.ArticleUpdateRequest, image *storage.Upload) (*models.Article, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if err = req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.articles.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if req.Title != nil && *req.Title != a.Title {
		newSlug := s.makeSlug(*req.Title, now)
		if newSlug != a.Slug {
			taken, slugErr := s.articles.SlugExists(ctx, newSlug)
			if slugErr != nil {
				return nil, slugErr
			}
			if taken {
				return nil, models.ErrAlreadyExists
			}
			a.Slug = newSlug
		}
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.Content != nil {
		if a.IsLive {
			// Live content is append-only through live blocks.
			return nil, models.ErrArticleLive
		}
		a.Content = models.PlainContent(*req.Content)
	}
	if req.Category != nil {
		a.Category = *req.Category
	}
	if req.Subcategory != nil {
		a.Subcategory = req.Subcategory
	}
	if req.Tags != nil {
		a.Tags = req.Tags
	}

	if err = s.applyFlags(ctx, a, req, now); err != nil {
		return nil, err
	}

	oldSection, newSection, err := s.reassignSection(ctx, a, req)
	if err != nil {
		return nil, err
	}

	oldImage, newImage := "", ""
	if image != nil {
		url, storeErr := s.blobs.Store(ctx, image.Data, image.MimeType, s.site+"/articles")
		if storeErr != nil {
			return nil, fmt.Errorf("store image: %w", storeErr)
		}
		oldImage, newImage = a.ImageURL, url
		a.ImageURL = url
	}

	a.UpdatedAt = now
	if err = s.articles.Replace(ctx, a); err != nil {
		s.releaseBlob(ctx, newImage)
		return nil, err
	}

	// The replaced image is only released once the new document is
	// committed.
	s.releaseBlob(ctx, oldImage)

	if oldSection != primitive.NilObjectID {
		s.adjustSectionCount(ctx, oldSection, -1)
	}
	if newSection != primitive.NilObjectID {
		s.adjustSectionCount(ctx, newSection, +1)
	}

	s.invalidateArticles(ctx)
	if oldSection != primitive.NilObjectID || newSection != primitive.NilObjectID {
		s.invalidateSections(ctx)
	}

	return a, nil
}

// Delete removes an article, releases its image blob, corrects the owning
// section's count and invalidates the affected namespaces.
func (s *ArticleService) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	a, err := s.articles.FindByID(ctx, oid)
	if err != nil {
		return err
	}

	if err = s.articles.Delete(ctx, oid); err != nil {
		return err
	}

	s.releaseBlob(ctx, a.ImageURL)

	if a.HasSection() && s.sections != nil {
		s.adjustSectionCount(ctx, a.SectionID, -1)
	}

	s.invalidateArticles(ctx)
	if a.HasSection() {
		s.invalidateSections(ctx)
	}

	s.logger.Info("article deleted", logger.String("slug", a.Slug))
	return nil
}

// AppendLiveBlock appends a timestamped block to a live article.
func (s *ArticleService) AppendLiveBlock(ctx context.Context, slugStr string, req *models.LiveBlockRequest) (*models.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.articles.FindBySlug(ctx, slugStr)
	if err != nil {
		return nil, err
	}
	if !a.IsLive {
		return nil, models.Invalid("is_live", "article is not live")
	}

	now := s.now().UTC()
	a.Content.Append(req.Body, req.Pinned, now)
	a.UpdatedAt = now

	if err := s.articles.Replace(ctx, a); err != nil {
		return nil, err
	}

	s.invalidateArticles(ctx)
	return a, nil
}

// applyFlags walks the status-flag transitions of an update request.
func (s *ArticleService) applyFlags(ctx context.Context, a *models.Article, req *models.ArticleUpdateRequest, now time.Time) error {
	if req.IsBreaking != nil && *req.IsBreaking != a.IsBreaking {
		s.setBreaking(a, *req.IsBreaking, now)
	}
	if req.IsTopstory != nil && *req.IsTopstory != a.IsTopstory {
		s.setTopstory(a, *req.IsTopstory, now)
	}

	if req.WasLive != nil {
		if !*req.WasLive && a.WasLive {
			return models.Invalid("was_live", "was_live cannot be unset")
		}
		if *req.WasLive && !a.WasLive {
			// One-way marker; ends the live phase as a side effect.
			a.WasLive = true
			a.IsLive = false
		}
	}
	if req.IsLive != nil && *req.IsLive != a.IsLive {
		if !*req.IsLive {
			return models.Invalid("is_live", "set was_live to end live coverage")
		}
		if a.WasLive {
			return models.ErrWasLive
		}
		a.IsLive = true
		a.Content = a.Content.ToLive(now)
	}

	if req.IsHeadline != nil && *req.IsHeadline != a.IsHeadline {
		if *req.IsHeadline {
			// Demote the incumbent first so at most one headline exists.
			if _, err := s.articles.DemoteHeadlines(ctx, a.ID); err != nil {
				return err
			}
		}
		a.IsHeadline = *req.IsHeadline
	}
	return nil
}

func (s *ArticleService) setBreaking(a *models.Article, on bool, now time.Time) {
	a.IsBreaking = on
	if on {
		expiry := now.Add(models.BreakingWindow)
		a.BreakingExpiresAt = &expiry
	} else {
		a.BreakingExpiresAt = nil
	}
}

func (s *ArticleService) setTopstory(a *models.Article, on bool, now time.Time) {
	a.IsTopstory = on
	if on {
		expiry := now.Add(models.TopstoryWindow)
		a.TopstoryExpiresAt = &expiry
	} else {
		a.TopstoryExpiresAt = nil
	}
}

// reassignSection applies a section move and returns the old and new section
// ids needing count adjustment (NilObjectID where none).
func (s *ArticleService) reassignSection(ctx context.Context, a *models.Article, req *models.ArticleUpdateRequest) (oldID, newID primitive.ObjectID, err error) {
	if req.SectionID == nil || s.sections == nil {
		return primitive.NilObjectID, primitive.NilObjectID, nil
	}

	if *req.SectionID == "" {
		if !a.HasSection() {
			return primitive.NilObjectID, primitive.NilObjectID, nil
		}
		oldID = a.SectionID
		a.ClearSection()
		return oldID, primitive.NilObjectID, nil
	}

	section, err := s.resolveSection(ctx, *req.SectionID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, err
	}
	if a.SectionID == section.ID {
		return primitive.NilObjectID, primitive.NilObjectID, nil
	}

	if a.HasSection() {
		oldID = a.SectionID
	}
	a.AssignSection(section)
	return oldID, section.ID, nil
}

func (s *ArticleService) resolveSection(ctx context.Context, id string) (*models.Section, error) {
	if s.sections == nil {
		return nil, models.Invalid("section_id", "site has no sections")
	}
	oid, err := ParseID(id)
	if err != nil {
		return nil, models.Invalid("section_id", "invalid section id")
	}
	section, err := s.sections.FindByID(ctx, oid)
	if err != nil {
		return nil, models.Invalid("section_id", "unknown section")
	}
	return section, nil
}

// adjustSectionCount nudges a denormalized count. Failures are logged only:
// the count self-heals at the section's next read.
func (s *ArticleService) adjustSectionCount(ctx context.Context, sectionID primitive.ObjectID, delta int64) {
	if s.sections == nil || sectionID == primitive.NilObjectID {
		return
	}
	if err := s.sections.IncArticlesCount(ctx, sectionID, delta); err != nil {
		s.logger.Warn("section count adjustment failed",
			logger.String("section_id", sectionID.Hex()),
			logger.Int64("delta", delta),
			logger.Error(err))
	}
}

func (s *ArticleService) releaseBlob(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.blobs.Delete(ctx, url); err != nil {
		s.logger.Warn("blob release failed", logger.String("url", url), logger.Error(err))
	}
}

func (s *ArticleService) makeSlug(title string, now time.Time) string {
	if s.slugSuffix {
		return slug.MakeUnique(title, now)
	}
	return slug.Make(title)
}

func (s *ArticleService) invalidateArticles(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.Namespace(s.site, "articles"))
}

func (s *ArticleService) invalidateSections(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.Namespace(s.site, "sections"))
}

func (s *ArticleService) listKey(kind string, f models.ArticleFilter, page, limit int) string {
	return cache.Key(s.site, "articles", kind,
		strconv.Itoa(page), strconv.Itoa(limit),
		f.Category, f.SectionSlug, f.Tag, string(f.Status))
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = models.DefaultPage
	}
	if limit < 1 {
		limit = models.DefaultLimit
	}
	if limit > models.MaxLimit {
		limit = models.MaxLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
