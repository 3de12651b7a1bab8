package app

import (
	"context"
	"fmt"

	"github.com/dkachan/trackwarden/internal/bridge"
	"github.com/dkachan/trackwarden/internal/config"
	"github.com/dkachan/trackwarden/internal/evaluate"
	"github.com/dkachan/trackwarden/internal/knowledgebase"
	"github.com/dkachan/trackwarden/internal/metadata"
	"github.com/dkachan/trackwarden/internal/resolver"
	"github.com/dkachan/trackwarden/internal/resultcache"
	"github.com/dkachan/trackwarden/internal/service/cache"
	"github.com/dkachan/trackwarden/internal/service/database"
	"go.uber.org/zap"
)

// Container bundles the assembled services. Bridge is the runtime component
// the daemon starts; Close releases the infrastructure beneath it.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Bridge *bridge.Client

	closers []func()
}

// Close releases held resources in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles the full service graph. All heavy-weight initialization
// (DB, cache, model clients) happens here so the runtime components stay
// focused on pipeline logic.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Cache and database
	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})

	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	closers = append(closers, func() {
		_ = postgresSvc.Close()
	})

	// Knowledgebase
	repo := knowledgebase.NewRepository(postgresSvc, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure knowledgebase schema: %w", err)
	}
	kb := knowledgebase.NewService(repo, logger)

	// Search result cache
	searchCache := resultcache.NewSearchCache(cacheSvc, resultcache.Config{
		PendingTimeout: cfg.Cache.PendingTimeout,
		ResolvedTTL:    cfg.Cache.ResolvedTTL,
	}, logger)

	// Identity resolution stack
	modelManager, err := resolver.NewModelManager(ctx, resolver.ModelManagerConfig{
		GeminiAPIKey:   cfg.Gemini.APIKey,
		OpenAIAPIKey:   cfg.OpenAI.APIKey,
		EnableFallback: cfg.OpenAI.EnableFallback,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}
	resolverSvc := resolver.NewService(modelManager, logger)

	// Metadata sources. YouTube is optional; the scraper covers for it.
	var youtubeClient *metadata.YouTubeClient
	if cfg.YouTube.APIKey != "" {
		ytClient, ytErr := metadata.NewYouTubeClient(cfg.YouTube.APIKey, logger)
		if ytErr != nil {
			logger.Warn("Failed to initialize YouTube metadata client (optional)", zap.Error(ytErr))
		} else {
			youtubeClient = ytClient
		}
	}
	scraper := metadata.NewScraper(logger)
	metadataSvc := metadata.NewService(youtubeClient, scraper, cacheSvc, logger)

	// Pipeline
	evaluator := evaluate.NewEvaluator(kb, evaluate.AnyFlaggedStrict, logger)
	orchestrator := evaluate.NewOrchestrator(evaluator, kb, searchCache, resolverSvc, metadataSvc, nil, logger)

	// Bridge transport. The client enforces decisions, so it doubles as the
	// orchestrator's sink.
	ws := bridge.NewWebSocket(cfg.Bridge.WSURL, cfg.Bridge.ReconnectAttempts, cfg.Bridge.ReconnectDelay, logger)
	client := bridge.NewClient(ws, orchestrator, logger)
	orchestrator.SetSink(client)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Bridge:  client,
		closers: closers,
	}, nil
}
