package app

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/davidokpare/extracta/internal/config"
	"github.com/davidokpare/extracta/internal/core/blobstore"
	"github.com/davidokpare/extracta/internal/core/cache"
	"github.com/davidokpare/extracta/internal/core/database"
	"github.com/davidokpare/extracta/internal/core/events"
	"github.com/davidokpare/extracta/internal/core/extraction"
	"github.com/davidokpare/extracta/internal/core/scheduler"
	"github.com/davidokpare/extracta/internal/services"
)

// App wires the registry, blob store, cache, extraction engine, scheduler
// and HTTP server together. The scheduler is owned here: started on Run,
// stopped on shutdown, never a package-level singleton.
type App struct {
	Registry  database.Registry
	Blobs     blobstore.BlobStore
	Cache     cache.Cache
	Scheduler *scheduler.Scheduler
	Server    *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	var registry database.Registry
	var err error
	if cfg.DatabaseURL != "" {
		registry, err = database.NewPostgresRegistry(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
		log.Println("Database initialized and ready.")
	} else {
		registry = database.NewMemoryRegistry()
		log.Println("DATABASE_URL not set; using in-memory registry.")
	}

	var blobs blobstore.BlobStore
	if cfg.StorageBackend == "s3" {
		blobs, err = blobstore.NewS3Store(ctx, cfg)
	} else {
		blobs, err = blobstore.NewLocalStore(cfg.StorageDir)
	}
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	var resultCache cache.Cache
	if cfg.RedisAddr != "" {
		resultCache, err = cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		log.Println("Redis cache initialized and ready.")
	} else {
		resultCache = cache.NewMemoryCache()
		log.Println("REDIS_ADDR not set; using in-process cache.")
	}

	publisher := events.NewWebhookPublisher(cfg.WebhookURL)
	engine := extraction.NewEngine(registry, blobs, resultCache, extraction.NewPDFParser(), publisher, cfg.CacheTTL)

	sched := scheduler.New(engine, registry, scheduler.Config{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxTries,
	})

	textSvc := services.NewTextService(engine, resultCache)
	docSvc := services.NewDocumentService(registry, blobs, publisher, cfg.MaxUploadBytes)

	server := NewServer(cfg, registry, docSvc, textSvc, sched)

	return &App{
		Registry:  registry,
		Blobs:     blobs,
		Cache:     resultCache,
		Scheduler: sched,
		Server:    server,
	}, nil
}

// Run starts the scheduler and the HTTP server and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.Scheduler.Start(ctx)
	defer a.Scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.Server.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Close() {
	if a.Registry != nil {
		_ = a.Registry.Close()
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
}
