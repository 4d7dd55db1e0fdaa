// Package app wires the service together: configuration, clients, per-site
// services, HTTP server and the background worker, with graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/latifiss/oak/internal/api"
	"github.com/latifiss/oak/internal/cache"
	"github.com/latifiss/oak/internal/config"
	"github.com/latifiss/oak/internal/content"
	"github.com/latifiss/oak/internal/logger"
	"github.com/latifiss/oak/internal/metrics"
	"github.com/latifiss/oak/internal/storage"
	"github.com/latifiss/oak/internal/store"
	"github.com/latifiss/oak/internal/worker"
)

// App holds the assembled service.
type App struct {
	cfg    *config.Config
	log    logger.Logger
	db     *store.Store
	redis  *redis.Client
	server *http.Server
	worker *worker.ReconcileWorker
}

// New constructs the full dependency graph. Every client is created here and
// injected downward; nothing connects lazily.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	db, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, err
	}

	redisClient, err := cache.NewClient(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = db.Close(ctx)
		return nil, err
	}

	blobs, err := storage.NewFSStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		_ = db.Close(ctx)
		_ = redisClient.Close()
		return nil, err
	}

	m := metrics.New()
	c := cache.New(redisClient, m, log)

	sites := make(map[string]*api.SiteServices, len(cfg.Sites))
	var reconcilers []*content.Reconciler
	var sectionServices []*content.SectionService

	for _, site := range cfg.Sites {
		if err := db.EnsureIndexes(ctx, site.Name, site.Entities); err != nil {
			log.Warn("index creation failed",
				logger.String("site", site.Name), logger.Error(err))
		}

		articles := db.Articles(site.Name)

		var opts []content.ArticleOption
		var sectionSvc *content.SectionService
		if site.Sections {
			sectionStore := db.Sections(site.Name)
			opts = append(opts, content.WithSections(sectionStore))
			sectionSvc = content.NewSectionService(site.Name, sectionStore, articles, c, m, log)
			sectionServices = append(sectionServices, sectionSvc)
		}
		if site.Comments {
			opts = append(opts, content.WithComments())
		}
		if site.SlugSuffix {
			opts = append(opts, content.WithSlugSuffix())
		}

		articleSvc := content.NewArticleService(site.Name, articles, c, blobs, m, log, opts...)
		reconcilers = append(reconcilers, articleSvc.Reconciler())

		documents := make(map[string]*content.DocumentService, len(site.Entities))
		for _, entity := range site.Entities {
			documents[entity] = content.NewDocumentService(
				site.Name, entity, db.Documents(site.Name, entity), c, blobs, log, site.SlugSuffix)
		}

		sites[site.Name] = &api.SiteServices{
			Articles:  articleSvc,
			Sections:  sectionSvc,
			Documents: documents,
		}
	}

	router := api.NewRouter(sites, api.Options{
		JWTSecret:   cfg.Auth.Secret,
		CORSOrigins: []string{"*"},
		Debug:       cfg.Debug,
		Metrics:     m,
		Logger:      log,
		DBPing:      db.Ping,
		CachePing: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		cfg:    cfg,
		log:    log,
		db:     db,
		redis:  redisClient,
		server: server,
		worker: worker.NewReconcileWorker(reconcilers, sectionServices, cfg.Reconcile.Interval, log),
	}, nil
}

// Run starts the worker and HTTP server and blocks until a shutdown signal
// arrives, then drains gracefully.
func (a *App) Run(ctx context.Context) error {
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	a.worker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening",
			logger.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		a.log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown http server: %w", err)
	}

	a.worker.Stop()

	if err := a.redis.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close redis: %w", err)
	}
	if err := a.db.Close(ctx); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close store: %w", err)
	}

	_ = a.log.Sync()
	a.log.Info("shutdown complete")
	return firstErr
}
