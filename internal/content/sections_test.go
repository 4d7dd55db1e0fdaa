package content

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latifiss/oak/internal/cache"
	"github.com/latifiss/oak/internal/content/contenttest"
	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/models"
)

type sectionHarness struct {
	svc      *SectionService
	sections *contenttest.SectionStore
	articles *contenttest.ArticleStore
	now      time.Time
}

func newSectionHarness(t *testing.T) *sectionHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := &sectionHarness{
		sections: contenttest.NewSectionStore(),
		articles: contenttest.NewArticleStore(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	c := cache.New(client, nil, logger.NewNopLogger())
	h.svc = NewSectionService("politics", h.sections, h.articles, c, nil, logger.NewNopLogger())
	h.svc.now = func() time.Time { return h.now }
	return h
}

func (h *sectionHarness) mustCreate(t *testing.T, req *models.SectionCreateRequest) *models.Section {
	t.Helper()
	sec, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)
	return sec
}

func (h *sectionHarness) addArticle(t *testing.T, slug string, sec *models.Section) {
	t.Helper()
	a := &models.Article{Slug: slug, Title: slug, CreatedAt: h.now}
	if sec != nil {
		a.AssignSection(sec)
	}
	require.NoError(t, h.articles.Insert(context.Background(), a))
}

func TestSectionCreate(t *testing.T) {
	h := newSectionHarness(t)

	sec := h.mustCreate(t, &models.SectionCreateRequest{Name: "Home Affairs", Code: "ha"})
	assert.Equal(t, "home-affairs", sec.Slug)
	assert.Equal(t, "HA", sec.Code)
	assert.Zero(t, sec.ArticlesCount)
}

func TestSectionCreateConflicts(t *testing.T) {
	h := newSectionHarness(t)

	h.mustCreate(t, &models.SectionCreateRequest{Name: "World", Code: "WD"})

	testCases := []struct {
		name string
		req  models.SectionCreateRequest
	}{
		{name: "duplicate slug", req: models.SectionCreateRequest{Name: "World!", Code: "XX"}},
		{name: "duplicate code", req: models.SectionCreateRequest{Name: "Elsewhere", Code: "wd"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Create(context.Background(), &tc.req)
			assert.ErrorIs(t, err, models.ErrAlreadyExists)
		})
	}
}

func TestSectionLazyRecount(t *testing.T) {
	h := newSectionHarness(t)
	ctx := context.Background()

	sec := h.mustCreate(t, &models.SectionCreateRequest{Name: "Economy", Code: "EC"})

	// Articles appear without the count being maintained.
	h.addArticle(t, "gdp-up", sec)
	h.addArticle(t, "rates-hold", sec)
	h.addArticle(t, "unrelated", nil)

	got, cached, err := h.svc.GetBySlug(ctx, "economy")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int64(2), got.ArticlesCount)

	// The corrected count was persisted, not just served.
	stored, err := h.sections.FindByID(ctx, sec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.ArticlesCount)
}

func TestSectionRecountAll(t *testing.T) {
	h := newSectionHarness(t)
	ctx := context.Background()

	a := h.mustCreate(t, &models.SectionCreateRequest{Name: "Alpha", Code: "AA"})
	h.mustCreate(t, &models.SectionCreateRequest{Name: "Beta", Code: "BB"})
	h.addArticle(t, "only-story", a)

	require.NoError(t, h.svc.RecountAll(ctx))

	stored, _ := h.sections.FindByID(ctx, a.ID)
	assert.Equal(t, int64(1), stored.ArticlesCount)
}

func TestSectionActiveListing(t *testing.T) {
	h := newSectionHarness(t)
	ctx := context.Background()

	past := h.now.Add(-time.Hour)
	future := h.now.Add(time.Hour)
	h.mustCreate(t, &models.SectionCreateRequest{Name: "Expired", Code: "EX", ExpiresAt: &past})
	h.mustCreate(t, &models.SectionCreateRequest{Name: "Running", Code: "RU", ExpiresAt: &future})
	h.mustCreate(t, &models.SectionCreateRequest{Name: "Timeless", Code: "TL"})

	all, _, err := h.svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, _, err := h.svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, sec := range active {
		assert.NotEqual(t, "expired", sec.Slug)
	}
}

func TestSectionUpdate(t *testing.T) {
	h := newSectionHarness(t)
	ctx := context.Background()

	sec := h.mustCreate(t, &models.SectionCreateRequest{Name: "Culture", Code: "CU"})
	h.mustCreate(t, &models.SectionCreateRequest{Name: "Sport", Code: "SP"})

	name := "Arts & Culture"
	got, err := h.svc.Update(ctx, sec.ID.Hex(), &models.SectionUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "arts-culture", got.Slug)

	// Renaming into an existing slug is rejected.
	clash := "Sport"
	_, err = h.svc.Update(ctx, sec.ID.Hex(), &models.SectionUpdateRequest{Name: &clash})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	_, err = h.svc.Update(ctx, sec.ID.Hex(), &models.SectionUpdateRequest{})
	assert.ErrorIs(t, err, models.ErrNoFieldsToUpdate)
}

func TestSectionDeleteDetachesArticles(t *testing.T) {
	h := newSectionHarness(t)
	ctx := context.Background()

	sec := h.mustCreate(t, &models.SectionCreateRequest{Name: "Doomed", Code: "DM"})
	h.addArticle(t, "orphan-to-be", sec)

	require.NoError(t, h.svc.Delete(ctx, sec.ID.Hex()))

	_, _, err := h.svc.GetBySlug(ctx, "doomed")
	assert.ErrorIs(t, err, models.ErrNotFound)

	a, err := h.articles.FindBySlug(ctx, "orphan-to-be")
	require.NoError(t, err)
	assert.False(t, a.HasSection())
}

func TestSectionFeaturedArticles(t *testing.T) {
	h := newSectionHarness(t)
	ctx := context.Background()

	sec := h.mustCreate(t, &models.SectionCreateRequest{Name: "Front", Code: "FR"})
	h.addArticle(t, "star-story", sec)
	a, err := h.articles.FindBySlug(ctx, "star-story")
	require.NoError(t, err)

	got, err := h.svc.Feature(ctx, sec.ID.Hex(), a.ID.Hex())
	require.NoError(t, err)
	require.Len(t, got.FeaturedArticles, 1)
	assert.Equal(t, "star-story", got.FeaturedArticles[0].Slug)

	// Re-featuring does not duplicate.
	got, err = h.svc.Feature(ctx, sec.ID.Hex(), a.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, got.FeaturedArticles, 1)

	got, err = h.svc.Unfeature(ctx, sec.ID.Hex(), a.ID.Hex())
	require.NoError(t, err)
	assert.Empty(t, got.FeaturedArticles)
}

func TestSectionFeaturedCap(t *testing.T) {
	h := newSectionHarness(t)
	ctx := context.Background()

	sec := h.mustCreate(t, &models.SectionCreateRequest{Name: "Crowded", Code: "CR"})

	var last string
	for i := 0; i < models.MaxFeaturedArticles+2; i++ {
		slug := string(rune('a'+i)) + "-story"
		h.addArticle(t, slug, sec)
		a, err := h.articles.FindBySlug(ctx, slug)
		require.NoError(t, err)
		_, err = h.svc.Feature(ctx, sec.ID.Hex(), a.ID.Hex())
		require.NoError(t, err)
		last = slug
	}

	got, _, err := h.svc.GetBySlug(ctx, "crowded")
	require.NoError(t, err)
	assert.Len(t, got.FeaturedArticles, models.MaxFeaturedArticles)
	assert.Equal(t, last, got.FeaturedArticles[0].Slug)
}

func TestSectionCaching(t *testing.T) {
	h := newSectionHarness(t)
	ctx := context.Background()

	h.mustCreate(t, &models.SectionCreateRequest{Name: "Cached", Code: "CA"})

	_, cached, err := h.svc.GetBySlug(ctx, "cached")
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = h.svc.GetBySlug(ctx, "cached")
	require.NoError(t, err)
	assert.True(t, cached)

	// A write drops the section namespace.
	desc := "refreshed"
	sec, _, err := h.svc.GetBySlug(ctx, "cached")
	require.NoError(t, err)
	_, err = h.svc.Update(ctx, sec.ID.Hex(), &models.SectionUpdateRequest{Description: &desc})
	require.NoError(t, err)

	got, cached, err := h.svc.GetBySlug(ctx, "cached")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "refreshed", got.Description)
}
