// Package app wires configuration, adapters and services into a running
// schemarag instance.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/custodia-labs/schemarag/internal/adapters/driven/ai"
	"github.com/custodia-labs/schemarag/internal/adapters/driven/indexstore"
	badgerstore "github.com/custodia-labs/schemarag/internal/adapters/driven/indexstore/badger"
	sqlitestore "github.com/custodia-labs/schemarag/internal/adapters/driven/indexstore/sqlite"
	"github.com/custodia-labs/schemarag/internal/adapters/driven/locallock"
	"github.com/custodia-labs/schemarag/internal/adapters/driven/postgres"
	redislock "github.com/custodia-labs/schemarag/internal/adapters/driven/redis"
	httpserver "github.com/custodia-labs/schemarag/internal/adapters/driving/http"
	"github.com/custodia-labs/schemarag/internal/config"
	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
	"github.com/custodia-labs/schemarag/internal/core/services"
	"github.com/custodia-labs/schemarag/internal/extractors"
	"github.com/custodia-labs/schemarag/internal/postprocessors"
	"github.com/custodia-labs/schemarag/internal/runtime"
)

// ErrMissingSecrets reports required secrets absent from the environment.
var ErrMissingSecrets = errors.New("required secrets not set")

// Options configure Bootstrap.
type Options struct {
	Config  *config.Config
	Version string
	Logger  *slog.Logger

	// Factory overrides the AI service factory.
	Factory driven.AIServiceFactory
	// Extractors overrides the document extractor registry.
	Extractors driven.ExtractorRegistry
	// Lock overrides the lock chosen from configuration.
	Lock driven.DistributedLock
}

// App is a composed service instance.
type App struct {
	Config   *config.Config
	Runtime  *domain.RuntimeConfig
	Services *runtime.Services
	Index    *services.IndexManager
	Server   *httpserver.Server

	lock    driven.DistributedLock
	logger  *slog.Logger
	closers []io.Closer
	initErr error
}

// Bootstrap builds every component and brings the index up. Failures that
// leave the service unable to answer are recorded, logged and returned by
// InitError; the HTTP server is still built so /health and / keep working
// and protected routes answer 503.
func Bootstrap(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chunkConfig := postprocessors.DefaultChunkConfig()
	chunkConfig.MaxChunkSize = cfg.Corpus.ChunkSize
	chunkConfig.Overlap = cfg.Corpus.ChunkOverlap
	pipeline, err := postprocessors.NewChunkingPipeline(chunkConfig)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, logger: logger}

	a.lock = opts.Lock
	lockBackend := "custom"
	if a.lock == nil {
		a.lock, lockBackend = a.openLock(ctx)
	}

	a.Runtime = domain.NewRuntimeConfig(cfg.Index.Backend, lockBackend)
	a.Services = runtime.NewServices(a.Runtime)

	auth := services.NewAuthGate(services.AuthGateConfig{
		Secret:  cfg.APISecret,
		Runtime: a.Runtime,
		Logger:  logger,
	})

	if missing := cfg.MissingSecrets(); len(missing) > 0 {
		for _, name := range missing {
			logger.Error("required secret not set; add it to the environment or .env file", "variable", name)
		}
		a.fail(fmt.Errorf("%w: %v", ErrMissingSecrets, missing))
	}

	storage, err := newIndexStorage(cfg.Index, logger)
	if err != nil {
		return nil, err
	}

	factory := opts.Factory
	if factory == nil {
		factory = ai.NewFactory(ai.FactoryConfig{
			EmbeddingTimeout:  cfg.Embedding.Timeout.Duration,
			GenerationTimeout: cfg.LLM.Timeout.Duration,
			RateLimit:         ai.RateLimitConfig{RequestsPerSecond: cfg.Embedding.RateLimit},
			Logger:            logger,
		})
	}
	a.initAIServices(ctx, factory)

	registry := opts.Extractors
	if registry == nil {
		registry = extractors.DefaultRegistry().WithTextFormats()
	}

	a.Index = services.NewIndexManager(services.IndexManagerConfig{
		Storage: storage,
		Corpus: services.NewCorpusLoader(services.CorpusLoaderConfig{
			Extractors:          registry,
			NormalizeWhitespace: cfg.Corpus.NormalizeWhitespace,
			Logger:              logger,
		}),
		Pipeline:     pipeline,
		Embedder:     a.Services.EmbeddingService(),
		Lock:         a.lock,
		Runtime:      a.Runtime,
		Logger:       logger,
		SourceDir:    cfg.Corpus.SourceFolder,
		BatchSize:    cfg.Embedding.BatchSize,
		ChunkSize:    cfg.Corpus.ChunkSize,
		ChunkOverlap: cfg.Corpus.ChunkOverlap,
		LockTTL:      cfg.Lock.TTL.Duration,
		LockWait:     cfg.Lock.Wait.Duration,
	})

	a.initIndex(ctx)

	rag := services.NewRAGService(services.RAGServiceConfig{
		Services:          a.Services,
		GenerationTimeout: cfg.LLM.Timeout.Duration,
		Logger:            logger,
	})

	a.Server = httpserver.NewServer(httpserver.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Version:      opts.Version,
		CORSOrigins:  cfg.Server.CORSOrigins,
		WriteTimeout: cfg.LLM.Timeout.Duration + 30*time.Second,
	}, httpserver.Deps{
		RAG:       rag,
		Index:     a.Index,
		Auth:      auth,
		Readiness: a.Services,
		Lock:      a.lock,
		Logger:    logger,
	})

	if a.initErr != nil {
		logger.Error("failed to initialize system; API may not function properly", "error", a.initErr)
	} else {
		logger.Info("schema therapy RAG system initialized")
	}
	return a, nil
}

// InitError returns the first startup failure, or nil when the service is ready.
func (a *App) InitError() error {
	return a.initErr
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.Server.Run(ctx)
}

// Close releases services and connections.
func (a *App) Close() error {
	var errs []error
	if a.Services != nil {
		errs = append(errs, a.Services.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

func (a *App) fail(err error) {
	if a.initErr == nil {
		a.initErr = err
	}
}

// openLock picks Redis, then Postgres, then lock files next to the index.
// An unreachable backend falls back to lock files.
func (a *App) openLock(ctx context.Context) (driven.DistributedLock, string) {
	cfg := a.Config
	if cfg.Lock.RedisURL != "" {
		client, err := redislock.Connect(ctx, cfg.Lock.RedisURL)
		if err == nil {
			a.closers = append(a.closers, client)
			return redislock.NewLock(client, redislock.LockConfig{Logger: a.logger}), "redis"
		}
		a.logger.Warn("redis unavailable for build lock", "error", err)
	}
	if cfg.Lock.DatabaseURL != "" {
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.Lock.DatabaseURL))
		if err == nil {
			a.closers = append(a.closers, db)
			return postgres.NewAdvisoryLock(db, ""), "postgres"
		}
		a.logger.Warn("postgres unavailable for build lock", "error", err)
	}

	dir := filepath.Dir(filepath.Clean(cfg.Index.Path))
	a.logger.Info("using local build lock", "dir", dir)
	return locallock.New(dir), "local"
}

func newIndexStorage(cfg config.IndexConfig, logger *slog.Logger) (*indexstore.Store, error) {
	var backend indexstore.Backend
	switch cfg.Backend {
	case config.IndexBackendBadger:
		backend = badgerstore.New()
	case config.IndexBackendSQLite:
		backend = sqlitestore.New()
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
	return indexstore.New(cfg.Path, backend, logger), nil
}

func (a *App) initAIServices(ctx context.Context, factory driven.AIServiceFactory) {
	embedder, err := factory.CreateEmbeddingService(a.Config.EmbeddingSettings())
	switch {
	case err != nil:
		a.logger.Error("failed to create embedding service", "provider", a.Config.Embedding.Provider, "error", err)
		a.fail(err)
	case embedder == nil:
		a.logger.Error("embedding service not configured", "provider", a.Config.Embedding.Provider)
	default:
		if err := a.Services.ValidateAndSetEmbedding(ctx, embedder); err != nil {
			a.logger.Error("embedding service unavailable", "provider", a.Config.Embedding.Provider, "error", err)
			a.fail(err)
		}
	}

	llm, err := factory.CreateLLMService(a.Config.LLMSettings())
	switch {
	case err != nil:
		a.logger.Error("failed to create generation service", "provider", a.Config.LLM.Provider, "error", err)
		a.fail(err)
	case llm == nil:
		a.logger.Error("generation service not configured", "provider", a.Config.LLM.Provider)
	default:
		if err := a.Services.ValidateAndSetLLM(ctx, llm); err != nil {
			a.logger.Error("generation service unavailable", "provider", a.Config.LLM.Provider, "error", err)
			a.fail(err)
		}
	}
}

// initIndex builds or loads the index and publishes the generator.
func (a *App) initIndex(ctx context.Context) {
	embedder := a.Services.EmbeddingService()
	if embedder == nil {
		a.fail(fmt.Errorf("%w: no embedding service", domain.ErrSystemNotReady))
		return
	}

	if err := a.Index.EnsureReady(ctx); err != nil {
		a.fail(err)
		return
	}

	llm := a.Services.LLMService()
	if llm == nil {
		a.fail(fmt.Errorf("%w: no generation service", domain.ErrSystemNotReady))
		return
	}

	k := a.Config.Index.RetrievalK
	retriever := services.NewRetriever(a.Index.Handle(), embedder, k)
	a.Services.SetGenerator(services.NewRetrievalQA(retriever, llm, driven.GenerateOptions{}, k))
}
