package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latifiss/oak/internal/cache"
	"github.com/latifiss/oak/internal/logger"
)

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return cache.New(client, nil, logger.NewNopLogger()), mr
}

type payload struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Count int      `json:"count"`
}

func TestSetGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	want := payload{Title: "Budget vote tonight", Tags: []string{"politics", "budget"}, Count: 3}
	c.Set(ctx, "politics:articles:slug:budget-vote-tonight", want, cache.TTLItem)

	var got payload
	require.True(t, c.Get(ctx, "politics:articles:slug:budget-vote-tonight", &got))
	assert.Equal(t, want, got)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)

	var got payload
	assert.False(t, c.Get(context.Background(), "politics:articles:slug:nope", &got))
}

func TestTTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "sports:articles:breaking", payload{Title: "late goal"}, cache.TTLVolatile)

	mr.FastForward(cache.TTLVolatile + time.Second)

	var got payload
	assert.False(t, c.Get(ctx, "sports:articles:breaking", &got))
}

func TestIndefiniteTTLSurvives(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "politics:articles:headline", payload{Title: "still here"}, cache.TTLIndefinite)

	mr.FastForward(72 * time.Hour)

	var got payload
	assert.True(t, c.Get(ctx, "politics:articles:headline", &got))
}

func TestInvalidatePattern(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "politics:articles:list:1:10", payload{Count: 1}, cache.TTLListing)
	c.Set(ctx, "politics:articles:slug:one", payload{Count: 2}, cache.TTLItem)
	c.Set(ctx, "politics:sections:slug:elections", payload{Count: 3}, cache.TTLItem)

	c.Invalidate(ctx, cache.Namespace("politics", "articles"))

	var got payload
	assert.False(t, c.Get(ctx, "politics:articles:list:1:10", &got))
	assert.False(t, c.Get(ctx, "politics:articles:slug:one", &got))
	// Other namespaces untouched
	assert.True(t, c.Get(ctx, "politics:sections:slug:elections", &got))
}

func TestFailOpenWhenBackendDown(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "music:articles:slug:x", payload{Count: 1}, cache.TTLItem)
	mr.Close()

	// All operations degrade silently: Get reports a miss, Set and
	// Invalidate are no-ops.
	var got payload
	assert.False(t, c.Get(ctx, "music:articles:slug:x", &got))
	assert.NotPanics(t, func() {
		c.Set(ctx, "music:articles:slug:y", payload{Count: 2}, cache.TTLItem)
		c.Invalidate(ctx, cache.Namespace("music", "articles"))
	})
}

func TestCorruptEntryTreatedAsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("politics:articles:slug:bad", "{not json"))

	var got payload
	assert.False(t, c.Get(ctx, "politics:articles:slug:bad", &got))
}

func TestKeyComposition(t *testing.T) {
	assert.Equal(t, "politics:articles:list:2:20:elections",
		cache.Key("politics", "articles", "list", "2", "20", "elections"))
	assert.Equal(t, "politics:articles:*", cache.Namespace("politics", "articles"))
	assert.Equal(t, "politics:articles:list:*", cache.KindNamespace("politics", "articles", "list"))

	// Identical queries must yield identical keys.
	assert.Equal(t,
		cache.Key("sports", "articles", "list", "1", "10"),
		cache.Key("sports", "articles", "list", "1", "10"))
}
