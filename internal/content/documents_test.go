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
	"github.com/latifiss/oak/internal/storage"
)

func newDocumentService(t *testing.T, slugSuffix bool) (*DocumentService, *contenttest.DocumentStore, *storage.MemStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	docs := contenttest.NewDocumentStore()
	blobs := storage.NewMemStore()
	c := cache.New(client, nil, logger.NewNopLogger())
	svc := NewDocumentService("music", "features", docs, c, blobs, logger.NewNopLogger(), slugSuffix)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 15, 9, 26, 0, time.UTC) }
	return svc, docs, blobs
}

func TestDocumentCreate(t *testing.T) {
	svc, _, _ := newDocumentService(t, false)

	d, err := svc.Create(context.Background(), &models.DocumentCreateRequest{
		Title: "Festival Season Preview", Category: "festivals",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "festival-season-preview", d.Slug)
	assert.False(t, d.ID.IsZero())

	_, err = svc.Create(context.Background(), &models.DocumentCreateRequest{Title: ""}, nil)
	assert.True(t, models.IsValidation(err))
}

func TestDocumentSlugSuffix(t *testing.T) {
	svc, _, _ := newDocumentService(t, true)

	d, err := svc.Create(context.Background(), &models.DocumentCreateRequest{Title: "Album Review"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "album-review-150926", d.Slug)
}

func TestDocumentCRUDRoundTrip(t *testing.T) {
	svc, _, blobs := newDocumentService(t, false)
	ctx := context.Background()

	d, err := svc.Create(ctx, &models.DocumentCreateRequest{Title: "Chart Watch", Category: "charts"},
		&storage.Upload{Data: []byte{0x89, 0x50}, MimeType: "image/png"})
	require.NoError(t, err)
	require.NotEmpty(t, d.ImageURL)

	got, cached, err := svc.GetBySlug(ctx, "chart-watch")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, d.ID, got.ID)

	_, cached, err = svc.GetBySlug(ctx, "chart-watch")
	require.NoError(t, err)
	assert.True(t, cached)

	body := "Week 23 movers."
	got, err = svc.Update(ctx, d.ID.Hex(), &models.DocumentUpdateRequest{Body: &body}, nil)
	require.NoError(t, err)
	assert.Equal(t, body, got.Body)

	// The update invalidated the cached entry.
	got, cached, err = svc.GetBySlug(ctx, "chart-watch")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, body, got.Body)

	require.NoError(t, svc.Delete(ctx, d.ID.Hex()))
	assert.Zero(t, blobs.Len())

	_, _, err = svc.GetByID(ctx, d.ID.Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDocumentList(t *testing.T) {
	svc, docs, _ := newDocumentService(t, false)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, title := range []string{"one", "two", "three"} {
		require.NoError(t, docs.Insert(ctx, &models.Document{
			Slug: title, Title: title, Category: "festivals",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, docs.Insert(ctx, &models.Document{
		Slug: "other", Title: "other", Category: "gear", CreatedAt: base,
	}))

	page, _, err := svc.List(ctx, "festivals", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "three", page.Results[0].Slug)

	all, _, err := svc.List(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all.Total)
}
