// Package bootstrap wires the store, caches, search index and services from
// configuration. It is shared by the api server, the worker and the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Alex-AIMS/nz-addresses/app/config"
	"github.com/Alex-AIMS/nz-addresses/app/controllers"
	"github.com/Alex-AIMS/nz-addresses/app/services"
	"github.com/Alex-AIMS/nz-addresses/internal/normalizer"
	"github.com/Alex-AIMS/nz-addresses/internal/parser"
	"github.com/Alex-AIMS/nz-addresses/internal/search"
	"github.com/Alex-AIMS/nz-addresses/internal/store"
	"github.com/Alex-AIMS/nz-addresses/routes"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const cacheCleanupInterval = 10 * time.Minute

// App holds every long-lived component of the service
type App struct {
	Config         *config.Config
	Logger         *zap.Logger
	Store          *store.PostgresStore
	Cache          services.ICacheService // nil when cache.backend is none
	Index          *search.AddressIndex   // nil when Meilisearch is unreachable
	Matcher        *parser.Matcher
	AddressService *services.AddressService
	AdminService   *services.AdminService

	checks  map[string]controllers.HealthCheck
	closers []func() error
	cancel  context.CancelFunc
}

// New connects every backend named by cfg. The caller must Close the App.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		Logger: logger,
		checks: make(map[string]controllers.HealthCheck),
		cancel: cancel,
	}

	if err := app.init(ctx, appCtx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx, appCtx context.Context) error {
	cfg := a.Config

	pg, err := store.Open(ctx, store.PostgresConfig{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.Store = pg
	a.closers = append(a.closers, pg.Close)
	a.checks["database"] = pg.Ping

	roadTypes, err := normalizer.NewRoadTypes(cfg.Matching.ExtraRoadTypes...)
	if err != nil {
		return fmt.Errorf("load road types: %w", err)
	}

	cache, err := a.buildCache(ctx, appCtx)
	if err != nil {
		return err
	}
	a.Cache = cache

	a.connectIndex()
	autocompleter := a.buildAutocompleter()

	a.Matcher = parser.NewMatcher(pg, pg, roadTypes, a.Logger)
	a.AddressService = services.NewAddressService(a.Matcher, pg, pg, autocompleter, cache, a.Logger)
	a.closers = append(a.closers, func() error {
		a.AddressService.Close()
		return nil
	})

	var syncer services.IndexSyncer
	if a.Index != nil {
		syncer = a.Index
	}
	a.AdminService = services.NewAdminService(pg, pg, syncer, cache, a.Logger)
	return nil
}

func (a *App) buildCache(ctx, appCtx context.Context) (services.ICacheService, error) {
	cfg := a.Config

	switch cfg.Cache.Backend {
	case config.CacheNone:
		a.Logger.Info("Result cache disabled")
		return nil, nil

	case config.CacheMemory:
		cache := services.NewCacheService(cfg.Cache.TTL)
		cache.StartCleanupWorker(appCtx, cacheCleanupInterval)
		return cache, nil

	case config.CacheRedis:
		return a.redisCache()

	case config.CacheMongo:
		return a.mongoCache(ctx)

	case config.CacheHybrid:
		l1, err := a.redisCache()
		if err != nil {
			return nil, err
		}
		l2, err := a.mongoCache(ctx)
		if err != nil {
			return nil, err
		}
		hybrid := services.NewHybridCacheService(l1, l2, a.Logger)
		go func() {
			if err := hybrid.WarmUp(appCtx, cfg.Cache.L1Size); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Warn("Cache warm-up failed", zap.Error(err))
			}
		}()
		return hybrid, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
}

func (a *App) redisCache() (*services.RedisCacheService, error) {
	cache, err := services.NewRedisCacheService(a.Config.Redis.URL, a.Config.Cache.TTL, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cache.Close)
	a.checks["redis"] = cache.Ping
	return cache, nil
}

func (a *App) mongoCache(ctx context.Context) (*services.MongoCacheService, error) {
	client, err := connectMongo(ctx, a.Config.Mongo.URL, a.Logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return client.Disconnect(ctx)
	})
	a.checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	cfg := a.Config.Cache
	return services.NewMongoCacheService(client.Database(a.Config.Mongo.Database), cfg.L1Size, cfg.TTL, cfg.DatasetVersion, a.Logger)
}

func connectMongo(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	logger.Info("Connecting to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("Successfully connected to MongoDB")
	return client, nil
}

// connectIndex is best effort: without Meilisearch, autocomplete stays on
// Postgres and index sync answers 503.
func (a *App) connectIndex() {
	cfg := a.Config.Meilisearch
	if cfg.URL == "" {
		return
	}

	index, err := search.NewAddressIndex(search.IndexConfig{
		Host:      cfg.URL,
		APIKey:    cfg.MasterKey,
		IndexName: cfg.Index,
	}, a.Logger)
	if err != nil {
		a.Logger.Warn("Meilisearch unavailable", zap.Error(err))
		return
	}
	a.Index = index
	a.checks["meilisearch"] = index.Healthy
}

func (a *App) buildAutocompleter() *search.Autocompleter {
	if a.Config.Autocomplete.Backend == config.AutocompleteMeilisearch {
		if a.Index != nil {
			return search.NewAutocompleter(a.Index, config.AutocompleteMeilisearch, a.Logger)
		}
		a.Logger.Warn("Autocomplete falling back to Postgres")
	}
	return search.NewAutocompleter(search.NewStoreBackend(a.Store), config.AutocompletePostgres, a.Logger)
}

// Router builds the gin engine serving every route
func (a *App) Router() *gin.Engine {
	router := gin.New()
	routes.SetupAllRoutes(router, routes.Controllers{
		Address: controllers.NewAddressController(a.AddressService, a.Logger),
		Browse:  controllers.NewBrowseController(a.AddressService, a.Logger),
		Admin:   controllers.NewAdminController(a.AdminService, a.Logger),
		Health:  controllers.NewHealthController(a.checks),
	}, a.Config.Server.RequestTimeout, a.Logger)
	return router
}

// Close releases connections in reverse order of creation
func (a *App) Close() {
	a.cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Error("Shutdown step failed", zap.Error(err))
		}
	}
	a.closers = nil
}
