package content

import (
	"context"
	"time"

	"github.com/latifiss/oak/internal/cache"
	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/metrics"
)

// Reconciler clears time-bound status flags whose expiry has passed and
// invalidates the cache namespaces that could still serve them. Both passes
// are conditional bulk updates: concurrent invocations re-check an already
// satisfied condition and modify nothing, so no locking is needed.
type Reconciler struct {
	site     string
	articles ArticleStore
	cache    *cache.Cache
	metrics  *metrics.Metrics
	logger   logger.Logger
	now      func() time.Time
}

// NewReconciler creates a reconciler for one site. metrics may be nil.
func NewReconciler(site string, articles ArticleStore, c *cache.Cache, m *metrics.Metrics, log logger.Logger) *Reconciler {
	return &Reconciler{
		site:     site,
		articles: articles,
		cache:    c,
		metrics:  m,
		logger:   log.With(logger.String("site", site)),
		now:      time.Now,
	}
}

// ReconcileBreaking clears expired breaking flags and returns how many
// documents changed.
func (r *Reconciler) ReconcileBreaking(ctx context.Context) (int64, error) {
	cleared, err := r.articles.ClearExpiredBreaking(ctx, r.now())
	if err != nil {
		return 0, err
	}
	r.afterClear(ctx, "breaking", cleared)
	return cleared, nil
}

// ReconcileTopstory clears expired top-story flags and returns how many
// documents changed.
func (r *Reconciler) ReconcileTopstory(ctx context.Context) (int64, error) {
	cleared, err := r.articles.ClearExpiredTopstory(ctx, r.now())
	if err != nil {
		return 0, err
	}
	r.afterClear(ctx, "topstory", cleared)
	return cleared, nil
}

// Reconcile runs both passes. Read paths call this before querying so a
// stale flag is never served; the hourly worker calls it as a backstop for
// content that is never read. Errors are logged, not propagated: a failed
// pass must not take down the read it was protecting.
func (r *Reconciler) Reconcile(ctx context.Context) {
	if _, err := r.ReconcileBreaking(ctx); err != nil {
		r.logger.Error("breaking reconciliation failed", logger.Error(err))
	}
	if _, err := r.ReconcileTopstory(ctx); err != nil {
		r.logger.Error("topstory reconciliation failed", logger.Error(err))
	}
}

func (r *Reconciler) afterClear(ctx context.Context, flag string, cleared int64) {
	if cleared == 0 {
		return
	}

	if r.metrics != nil {
		r.metrics.FlagsCleared.WithLabelValues(r.site, flag).Add(float64(cleared))
	}
	r.logger.Info("cleared expired flags",
		logger.String("flag", flag),
		logger.Int64("count", cleared))

	// Listings embed these flags, so the whole article namespace goes.
	r.cache.Invalidate(ctx, cache.Namespace(r.site, "articles"))
}
