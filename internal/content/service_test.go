package content

import (
	"context"
	"errors"
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
	"github.com/latifiss/oak/internal/storage"
)

type articleHarness struct {
	svc      *ArticleService
	articles *contenttest.ArticleStore
	sections *contenttest.SectionStore
	blobs    *storage.MemStore
	now      time.Time
}

func newArticleHarness(t *testing.T, opts ...ArticleOption) *articleHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	h := &articleHarness{
		articles: contenttest.NewArticleStore(),
		sections: contenttest.NewSectionStore(),
		blobs:    storage.NewMemStore(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	c := cache.New(client, nil, logger.NewNopLogger())
	opts = append(opts, WithSections(h.sections), WithClock(func() time.Time { return h.now }))
	h.svc = NewArticleService("politics", h.articles, c, h.blobs, nil, logger.NewNopLogger(), opts...)
	return h
}

func (h *articleHarness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *articleHarness) mustCreate(t *testing.T, req *models.ArticleCreateRequest) *models.Article {
	t.Helper()
	a, err := h.svc.Create(context.Background(), req, nil)
	require.NoError(t, err)
	return a
}

func TestArticleCreate(t *testing.T) {
	h := newArticleHarness(t)

	a := h.mustCreate(t, &models.ArticleCreateRequest{
		Title:    " Budget Vote Delayed! ",
		Category: "parliament",
		Content:  "The vote slipped a week.",
	})

	assert.Equal(t, "budget-vote-delayed", a.Slug)
	assert.False(t, a.ID.IsZero())
	assert.Equal(t, models.ContentPlain, a.Content.Kind)
	assert.Equal(t, h.now, a.CreatedAt)
}

func TestArticleCreateValidation(t *testing.T) {
	h := newArticleHarness(t)

	testCases := []struct {
		name string
		req  models.ArticleCreateRequest
	}{
		{name: "missing title", req: models.ArticleCreateRequest{Category: "x"}},
		{name: "missing category", req: models.ArticleCreateRequest{Title: "x"}},
		{name: "blank title", req: models.ArticleCreateRequest{Title: "   ", Category: "x"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Create(context.Background(), &tc.req, nil)
			assert.True(t, models.IsValidation(err))
		})
	}
}

func TestArticleCreateDuplicateSlug(t *testing.T) {
	h := newArticleHarness(t)

	h.mustCreate(t, &models.ArticleCreateRequest{Title: "Same Title", Category: "x"})
	_, err := h.svc.Create(context.Background(), &models.ArticleCreateRequest{Title: "Same, Title!", Category: "x"}, nil)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestHeadlineUniqueness(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	first := h.mustCreate(t, &models.ArticleCreateRequest{
		Title: "First Headline", Category: "x", IsHeadline: true,
	})
	second := h.mustCreate(t, &models.ArticleCreateRequest{
		Title: "Second Headline", Category: "x", IsHeadline: true,
	})

	got, _, err := h.svc.Headline(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	demoted, err := h.articles.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, demoted.IsHeadline)

	// Promoting via update demotes the current holder too.
	yes := true
	_, err = h.svc.Update(ctx, first.ID.Hex(), &models.ArticleUpdateRequest{IsHeadline: &yes}, nil)
	require.NoError(t, err)

	got, _, err = h.svc.Headline(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestBreakingExpiry(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{
		Title: "Explosion Downtown", Category: "x", IsBreaking: true,
	})
	require.NotNil(t, a.BreakingExpiresAt)
	assert.Equal(t, h.now.Add(models.BreakingWindow), *a.BreakingExpiresAt)

	// Still breaking just inside the window.
	h.advance(29 * time.Minute)
	got, _, err := h.svc.GetBySlug(ctx, a.Slug)
	require.NoError(t, err)
	assert.True(t, got.IsBreaking)

	// The read past the window reconciles before serving.
	h.advance(2 * time.Minute)
	got, _, err = h.svc.GetBySlug(ctx, a.Slug)
	require.NoError(t, err)
	assert.False(t, got.IsBreaking)
	assert.Nil(t, got.BreakingExpiresAt)
}

func TestTopstoryExpiry(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{
		Title: "Election Deep Dive", Category: "x", IsTopstory: true,
	})
	require.NotNil(t, a.TopstoryExpiresAt)
	assert.Equal(t, h.now.Add(models.TopstoryWindow), *a.TopstoryExpiresAt)

	h.advance(49 * time.Hour)
	cleared, err := h.svc.Reconciler().ReconcileTopstory(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	// A second pass finds nothing left to clear.
	cleared, err = h.svc.Reconciler().ReconcileTopstory(ctx)
	require.NoError(t, err)
	assert.Zero(t, cleared)
}

func TestLiveTransitions(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{
		Title: "Debate Night", Category: "x", Content: "Opening summary.",
	})

	yes, no := true, false

	// Going live converts the plain text into the first block.
	a, err := h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{IsLive: &yes}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ContentLive, a.Content.Kind)
	require.Len(t, a.Content.Blocks, 1)
	assert.Equal(t, "Opening summary.", a.Content.Blocks[0].Body)

	// Plain content updates are rejected while live.
	body := "rewritten"
	_, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{Content: &body}, nil)
	assert.ErrorIs(t, err, models.ErrArticleLive)

	// Blocks append through the dedicated path.
	a, err = h.svc.AppendLiveBlock(ctx, a.Slug, &models.LiveBlockRequest{Body: "First question."})
	require.NoError(t, err)
	assert.Len(t, a.Content.Blocks, 2)

	// isLive cannot simply be switched off.
	_, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{IsLive: &no}, nil)
	assert.True(t, models.IsValidation(err))

	// Ending coverage sets wasLive and drops isLive.
	a, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{WasLive: &yes}, nil)
	require.NoError(t, err)
	assert.True(t, a.WasLive)
	assert.False(t, a.IsLive)

	// wasLive is one-way and blocks going live again.
	_, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{WasLive: &no}, nil)
	assert.True(t, models.IsValidation(err))
	_, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{IsLive: &yes}, nil)
	assert.ErrorIs(t, err, models.ErrWasLive)
}

func TestSectionAssignmentCounts(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	home := &models.Section{Name: "Home Affairs", Code: "HA", Slug: "home-affairs"}
	world := &models.Section{Name: "World", Code: "WD", Slug: "world"}
	require.NoError(t, h.sections.Insert(ctx, home))
	require.NoError(t, h.sections.Insert(ctx, world))

	a := h.mustCreate(t, &models.ArticleCreateRequest{
		Title: "Border Policy Shift", Category: "x", SectionID: home.ID.Hex(),
	})
	assert.True(t, a.HasSection())
	assert.Equal(t, "home-affairs", a.SectionSlug)

	sec, err := h.sections.FindByID(ctx, home.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sec.ArticlesCount)

	// Moving the article adjusts both counts.
	target := world.ID.Hex()
	a, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{SectionID: &target}, nil)
	require.NoError(t, err)
	assert.Equal(t, "world", a.SectionSlug)

	sec, _ = h.sections.FindByID(ctx, home.ID)
	assert.Zero(t, sec.ArticlesCount)
	sec, _ = h.sections.FindByID(ctx, world.ID)
	assert.Equal(t, int64(1), sec.ArticlesCount)

	// Clearing with the empty string detaches and decrements.
	none := ""
	a, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{SectionID: &none}, nil)
	require.NoError(t, err)
	assert.False(t, a.HasSection())

	sec, _ = h.sections.FindByID(ctx, world.ID)
	assert.Zero(t, sec.ArticlesCount)
}

func TestUnknownSectionRejected(t *testing.T) {
	h := newArticleHarness(t)

	_, err := h.svc.Create(context.Background(), &models.ArticleCreateRequest{
		Title: "Orphan", Category: "x", SectionID: "64b0c8f2a1d3e4f5a6b7c8d9",
	}, nil)
	assert.True(t, models.IsValidation(err))
}

func TestArticleReadCaching(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{Title: "Cached Story", Category: "x"})

	_, cached, err := h.svc.GetBySlug(ctx, a.Slug)
	require.NoError(t, err)
	assert.False(t, cached)

	got, cached, err := h.svc.GetBySlug(ctx, a.Slug)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, a.Slug, got.Slug)

	// Any write invalidates the article namespace.
	desc := "updated"
	_, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{Description: &desc}, nil)
	require.NoError(t, err)

	got, cached, err = h.svc.GetBySlug(ctx, a.Slug)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "updated", got.Description)
}

func TestArticleUpdateSlugRegeneration(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	a := h.mustCreate(t, &models.ArticleCreateRequest{Title: "Old Title", Category: "x"})
	h.mustCreate(t, &models.ArticleCreateRequest{Title: "Taken Title", Category: "x"})

	title := "New Title"
	a, err := h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{Title: &title}, nil)
	require.NoError(t, err)
	assert.Equal(t, "new-title", a.Slug)

	clash := "Taken! Title"
	_, err = h.svc.Update(ctx, a.ID.Hex(), &models.ArticleUpdateRequest{Title: &clash}, nil)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestArticleUpdateNoFields(t *testing.T) {
	h := newArticleHarness(t)

	a := h.mustCreate(t, &models.ArticleCreateRequest{Title: "Untouched", Category: "x"})
	_, err := h.svc.Update(context.Background(), a.ID.Hex(), &models.ArticleUpdateRequest{}, nil)
	assert.ErrorIs(t, err, models.ErrNoFieldsToUpdate)
}

func TestArticleDeleteReleasesBlob(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	a, err := h.svc.Create(ctx, &models.ArticleCreateRequest{Title: "With Image", Category: "x"},
		&storage.Upload{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"})
	require.NoError(t, err)
	require.NotEmpty(t, a.ImageURL)
	assert.True(t, h.blobs.Has(a.ImageURL))

	require.NoError(t, h.svc.Delete(ctx, a.ID.Hex()))
	assert.Zero(t, h.blobs.Len())

	_, _, err = h.svc.GetByID(ctx, a.ID.Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestArticleInvalidID(t *testing.T) {
	h := newArticleHarness(t)

	_, _, err := h.svc.GetByID(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, models.ErrInvalidID)

	err = h.svc.Delete(context.Background(), "123")
	assert.ErrorIs(t, err, models.ErrInvalidID)
}

func TestByStatusVocabulary(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	h.mustCreate(t, &models.ArticleCreateRequest{Title: "Flash", Category: "x", IsBreaking: true})

	page, _, err := h.svc.ByStatus(ctx, "breaking", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, _, err = h.svc.ByStatus(ctx, "breaking-news", 1, 10)
	assert.True(t, models.IsValidation(err))
}

func TestSearchAndSimilar(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	h.mustCreate(t, &models.ArticleCreateRequest{Title: "Tax Reform Passes", Category: "economy", Tags: []string{"tax"}})
	h.advance(time.Minute)
	h.mustCreate(t, &models.ArticleCreateRequest{Title: "Tax Credits Explained", Category: "economy", Tags: []string{"tax"}})
	h.advance(time.Minute)
	h.mustCreate(t, &models.ArticleCreateRequest{Title: "Stadium Opens", Category: "city"})

	results, _, err := h.svc.Search(ctx, "tax")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, _, err = h.svc.Search(ctx, "")
	assert.True(t, models.IsValidation(err))

	similar, _, err := h.svc.Similar(ctx, "tax-reform-passes")
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, "tax-credits-explained", similar[0].Slug)
}

func TestListPagination(t *testing.T) {
	h := newArticleHarness(t)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		h.mustCreate(t, &models.ArticleCreateRequest{Title: title, Category: "x"})
		h.advance(time.Second)
	}

	page, _, err := h.svc.List(ctx, models.ArticleFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "five", page.Results[0].Slug)

	// Out-of-range pages come back empty, not as errors.
	page, _, err = h.svc.List(ctx, models.ArticleFilter{}, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Results)

	// Limits clamp instead of failing.
	page, _, err = h.svc.List(ctx, models.ArticleFilter{}, 0, 500)
	require.NoError(t, err)
	assert.Len(t, page.Results, 5)
	assert.Equal(t, models.MaxLimit, page.Limit)
}

func TestHeadlineNotFound(t *testing.T) {
	h := newArticleHarness(t)

	_, _, err := h.svc.Headline(context.Background())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
