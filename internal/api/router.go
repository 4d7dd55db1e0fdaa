// Package api exposes the REST surface: per-site article, section, comment
// and secondary-collection routes, plus health and metrics endpoints.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/latifiss/oak/internal/auth"
	"github.com/latifiss/oak/internal/content"
	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/metrics"
)

const (
	healthCheckTimeout = 2 * time.Second
	serviceVersion     = "1.0.0"
)

// SiteServices bundles the services serving one site. Sections is nil for
// sites without sections; Documents holds one service per secondary entity.
type SiteServices struct {
	Articles  *content.ArticleService
	Sections  *content.SectionService
	Documents map[string]*content.DocumentService
}

// Router holds the API dependencies and wires them to routes.
type Router struct {
	sites     map[string]*SiteServices
	jwtSecret string
	cors      []string
	debug     bool
	metrics   *metrics.Metrics
	logger    logger.Logger

	dbPing    func(ctx context.Context) error
	cachePing func(ctx context.Context) error
}

// Options carries the cross-cutting router configuration.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
	Debug       bool
	Metrics     *metrics.Metrics
	Logger      logger.Logger

	// Backend liveness probes for the health endpoint. Either may be nil.
	DBPing    func(ctx context.Context) error
	CachePing func(ctx context.Context) error
}

// NewRouter creates the router for the given sites.
func NewRouter(sites map[string]*SiteServices, opts Options) *Router {
	return &Router{
		sites:     sites,
		jwtSecret: opts.JWTSecret,
		cors:      opts.CORSOrigins,
		debug:     opts.Debug,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		dbPing:    opts.DBPing,
		cachePing: opts.CachePing,
	}
}

// Engine builds the gin engine with all middleware and routes registered.
func (r *Router) Engine() *gin.Engine {
	if r.debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(recoveryMiddleware(r.logger))
	engine.Use(loggerMiddleware(r.logger))
	engine.Use(corsMiddleware(r.cors))
	if r.metrics != nil {
		engine.Use(metricsMiddleware(r.metrics))
	}

	engine.GET("/health", r.health)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	for name, services := range r.sites {
		r.registerSite(engine, name, services)
	}
	return engine
}

func (r *Router) registerSite(engine *gin.Engine, site string, s *SiteServices) {
	public := engine.Group("/api/" + site)
	protected := engine.Group("/api/"+site, auth.Middleware(r.jwtSecret))

	h := &articleHandler{router: r, svc: s.Articles}

	articles := public.Group("/articles")
	articles.GET("", h.list)
	articles.GET("/headline/current", h.headline)
	articles.GET("/breaking", h.byFlag("breaking"))
	articles.GET("/live", h.byFlag("live"))
	articles.GET("/top-stories", h.byFlag("topstory"))
	articles.GET("/status/:status", h.byStatus)
	articles.GET("/search", h.search)
	articles.GET("/similar/:slug", h.similar)
	articles.GET("/slug/:slug", h.getBySlug)
	articles.GET("/:id", h.getByID)

	mutating := protected.Group("/articles")
	mutating.POST("", h.create)
	mutating.PUT("/:id", h.update)
	mutating.DELETE("/:id", h.delete)
	mutating.POST("/slug/:slug/blocks", h.appendLiveBlock)

	if s.Articles.AllowsComments() {
		ch := &commentHandler{router: r, svc: s.Articles}
		comments := public.Group("/articles/slug/:slug/comments")
		comments.POST("", ch.add)
		comments.PUT("/:commentId", ch.edit)
		comments.DELETE("/:commentId", ch.delete)
		comments.POST("/:commentId/replies", ch.addReply)
		comments.POST("/:commentId/vote", ch.vote)
		comments.POST("/:commentId/replies/:replyId/vote", ch.voteReply)
	}

	if s.Sections != nil {
		sh := &sectionHandler{router: r, svc: s.Sections}
		sections := public.Group("/sections")
		sections.GET("", sh.list)
		sections.GET("/slug/:slug", sh.getBySlug)
		sections.GET("/:id", sh.getByID)

		sm := protected.Group("/sections")
		sm.POST("", sh.create)
		sm.PUT("/:id", sh.update)
		sm.DELETE("/:id", sh.delete)
		sm.POST("/sync-counts", sh.syncCounts)
		sm.POST("/:id/featured/:articleId", sh.feature)
		sm.DELETE("/:id/featured/:articleId", sh.unfeature)
	}

	for entity, svc := range s.Documents {
		dh := &documentHandler{router: r, svc: svc}
		docs := public.Group("/" + entity)
		docs.GET("", dh.list)
		docs.GET("/slug/:slug", dh.getBySlug)
		docs.GET("/:id", dh.getByID)

		dm := protected.Group("/" + entity)
		dm.POST("", dh.create)
		dm.PUT("/:id", dh.update)
		dm.DELETE("/:id", dh.delete)
	}
}

// health reports service status and backend connectivity. Degraded, not
// failing, when a backend is unreachable.
func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := "healthy"
	check := func(ping func(ctx context.Context) error) gin.H {
		if ping == nil {
			return gin.H{"connected": true}
		}
		if err := ping(ctx); err != nil {
			status = "degraded"
			return gin.H{"connected": false}
		}
		return gin.H{"connected": true}
	}

	db := check(r.dbPing)
	cache := check(r.cachePing)

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "oak",
		"version":  serviceVersion,
		"database": db,
		"cache":    cache,
	})
}
