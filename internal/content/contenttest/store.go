// Package contenttest provides in-memory store implementations for testing
// the content services and the HTTP handlers without a database.
package contenttest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/latifiss/oak/internal/models"
)

// ArticleStore is an in-memory article store mirroring the semantics the
// services rely on: slug uniqueness, conditional bulk updates, newest-first
// listings.
type ArticleStore struct {
	mu       sync.Mutex
	articles map[primitive.ObjectID]models.Article
}

// NewArticleStore creates an empty in-memory article store.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{articles: make(map[primitive.ObjectID]models.Article)}
}

func (f *ArticleStore) Insert(_ context.Context, a *models.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.articles {
		if existing.Slug == a.Slug {
			return models.ErrAlreadyExists
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	f.articles[a.ID] = *a
	return nil
}

func (f *ArticleStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

func (f *ArticleStore) FindBySlug(_ context.Context, slug string) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.Slug == slug {
			a := a
			return &a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *ArticleStore) Replace(_ context.Context, a *models.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[a.ID]; !ok {
		return models.ErrNotFound
	}
	f.articles[a.ID] = *a
	return nil
}

func (f *ArticleStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.articles, id)
	return nil
}

func (f *ArticleStore) SlugExists(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *ArticleStore) List(_ context.Context, filter models.ArticleFilter, page, limit int) ([]models.Article, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := []models.Article{}
	for _, a := range f.articles {
		if matchesFilter(a, filter) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Article{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchesFilter(a models.Article, f models.ArticleFilter) bool {
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if f.SectionSlug != "" && a.SectionSlug != f.SectionSlug {
		return false
	}
	if f.Tag != "" && !contains(a.Tags, f.Tag) {
		return false
	}
	switch f.Status {
	case models.StatusBreaking:
		return a.IsBreaking
	case models.StatusTopstory:
		return a.IsTopstory
	case models.StatusHeadline:
		return a.IsHeadline
	case models.StatusLive:
		return a.IsLive
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (f *ArticleStore) FindHeadline(_ context.Context) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.IsHeadline {
			a := a
			return &a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *ArticleStore) DemoteHeadlines(_ context.Context, except primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, a := range f.articles {
		if a.IsHeadline && id != except {
			a.IsHeadline = false
			f.articles[id] = a
			n++
		}
	}
	return n, nil
}

func (f *ArticleStore) ClearExpiredBreaking(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, a := range f.articles {
		if a.IsBreaking && a.BreakingExpiresAt != nil && a.BreakingExpiresAt.Before(now) {
			a.IsBreaking = false
			a.BreakingExpiresAt = nil
			f.articles[id] = a
			n++
		}
	}
	return n, nil
}

func (f *ArticleStore) ClearExpiredTopstory(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, a := range f.articles {
		if a.IsTopstory && a.TopstoryExpiresAt != nil && a.TopstoryExpiresAt.Before(now) {
			a.IsTopstory = false
			a.TopstoryExpiresAt = nil
			f.articles[id] = a
			n++
		}
	}
	return n, nil
}

func (f *ArticleStore) CountBySection(_ context.Context, sectionSlug string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, a := range f.articles {
		if a.SectionSlug == sectionSlug && a.SectionName != "" {
			n++
		}
	}
	return n, nil
}

func (f *ArticleStore) ClearSectionLinkage(_ context.Context, sectionSlug string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, a := range f.articles {
		if a.SectionSlug == sectionSlug {
			a.ClearSection()
			f.articles[id] = a
			n++
		}
	}
	return n, nil
}

func (f *ArticleStore) Search(_ context.Context, q string, limit int) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	needle := strings.ToLower(q)
	matched := []models.Article{}
	for _, a := range f.articles {
		if strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Description), needle) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *ArticleStore) FindSimilar(_ context.Context, category string, tags []string, excludeSlug string, limit int) ([]models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []models.Article{}
	for _, a := range f.articles {
		if a.Slug == excludeSlug {
			continue
		}
		related := a.Category == category
		for _, t := range tags {
			if contains(a.Tags, t) {
				related = true
			}
		}
		if related {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// SectionStore is an in-memory section store.
type SectionStore struct {
	mu       sync.Mutex
	sections map[primitive.ObjectID]models.Section
}

// NewSectionStore creates an empty in-memory section store.
func NewSectionStore() *SectionStore {
	return &SectionStore{sections: make(map[primitive.ObjectID]models.Section)}
}

func (f *SectionStore) Insert(_ context.Context, sec *models.Section) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sec.ID.IsZero() {
		sec.ID = primitive.NewObjectID()
	}
	f.sections[sec.ID] = *sec
	return nil
}

func (f *SectionStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sec, ok := f.sections[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &sec, nil
}

func (f *SectionStore) FindBySlug(_ context.Context, slug string) (*models.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sec := range f.sections {
		if sec.Slug == slug {
			sec := sec
			return &sec, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *SectionStore) CodeOrSlugExists(_ context.Context, code, slug string, exclude primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sec := range f.sections {
		if id == exclude {
			continue
		}
		if sec.Code == code || sec.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *SectionStore) List(_ context.Context, activeOnly bool, now time.Time) ([]models.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Section{}
	for _, sec := range f.sections {
		if activeOnly && !sec.IsActive(now) {
			continue
		}
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *SectionStore) Replace(_ context.Context, sec *models.Section) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sections[sec.ID]; !ok {
		return models.ErrNotFound
	}
	f.sections[sec.ID] = *sec
	return nil
}

func (f *SectionStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sections[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.sections, id)
	return nil
}

func (f *SectionStore) SetArticlesCount(_ context.Context, id primitive.ObjectID, count int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sec, ok := f.sections[id]
	if !ok {
		return models.ErrNotFound
	}
	sec.ArticlesCount = count
	f.sections[id] = sec
	return nil
}

func (f *SectionStore) IncArticlesCount(_ context.Context, id primitive.ObjectID, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sec, ok := f.sections[id]
	if !ok {
		return models.ErrNotFound
	}
	sec.ArticlesCount += delta
	f.sections[id] = sec
	return nil
}

// DocumentStore is an in-memory document store.
type DocumentStore struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]models.Document
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[primitive.ObjectID]models.Document)}
}

func (f *DocumentStore) Insert(_ context.Context, d *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.docs {
		if existing.Slug == d.Slug {
			return models.ErrAlreadyExists
		}
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	f.docs[d.ID] = *d
	return nil
}

func (f *DocumentStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &d, nil
}

func (f *DocumentStore) FindBySlug(_ context.Context, slug string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.Slug == slug {
			d := d
			return &d, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *DocumentStore) SlugExists(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *DocumentStore) List(_ context.Context, category string, page, limit int) ([]models.Document, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := []models.Document{}
	for _, d := range f.docs {
		if category == "" || d.Category == category {
			matched = append(matched, d)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Document{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *DocumentStore) Replace(_ context.Context, d *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[d.ID]; !ok {
		return models.ErrNotFound
	}
	f.docs[d.ID] = *d
	return nil
}

func (f *DocumentStore) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}
