package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/config"
	"github.com/kailas-cloud/staysearch/internal/db"
	"github.com/kailas-cloud/staysearch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/staysearch/internal/db/redis"
	"github.com/kailas-cloud/staysearch/internal/db/sqldb"
	"github.com/kailas-cloud/staysearch/internal/domain"
	"github.com/kailas-cloud/staysearch/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/staysearch/internal/logger"
	"github.com/kailas-cloud/staysearch/internal/metrics"
	"github.com/kailas-cloud/staysearch/internal/repository/embcache"
	"github.com/kailas-cloud/staysearch/internal/repository/pagecache"
	roomrepo "github.com/kailas-cloud/staysearch/internal/repository/room"
	vectorrepo "github.com/kailas-cloud/staysearch/internal/repository/vector"
	chiTransport "github.com/kailas-cloud/staysearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/staysearch/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/staysearch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/staysearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/staysearch/internal/usecase/indexing"
	listinguc "github.com/kailas-cloud/staysearch/internal/usecase/listing"
	searchuc "github.com/kailas-cloud/staysearch/internal/usecase/search"
	"github.com/kailas-cloud/staysearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting staysearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("kv_driver", cfg.Database.Driver),
		zap.String("documents_driver", cfg.Documents.Driver),
	)

	metrics.Register()

	ctx := context.Background()

	store, err := openKVStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create KV store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("KV store not ready", zap.Error(err))
	}
	logger.Info("Connected to KV store")

	docDB, err := sqldb.Open(ctx, sqldb.Config{
		Driver:       cfg.Documents.Driver,
		DSN:          cfg.Documents.DSN,
		MaxOpenConns: cfg.Documents.MaxOpenConns,
		MaxIdleConns: cfg.Documents.MaxIdleConns,
	})
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer func() { _ = docDB.Close() }()

	rooms := roomrepo.New(docDB)
	if cfg.Documents.AutoMigrate {
		if err := rooms.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to migrate document store", zap.Error(err))
		}
	}
	logger.Info("Connected to document store")

	// One resilient chain is shared so both instructions trip the same breaker.
	base := buildEmbedder(cfg.Embedding, store, cfg.Storage.KeyPrefix, logger)
	docEmbedder := withInstruction(base, cfg.Embedding.DocumentInstruction)
	queryEmbedder := withInstruction(base, cfg.Embedding.QueryInstruction)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
	)

	vectors := vectorrepo.New(store, cfg.Storage.KeyPrefix, cfg.Embedding.Dimensions, logger)
	pages := pagecache.New(
		store, cfg.Storage.KeyPrefix, time.Duration(cfg.Cache.TTLSec)*time.Second,
		metrics.PageCacheTotal, logger,
	).WithTimeout(time.Duration(cfg.Timeouts.CacheMs) * time.Millisecond)

	embedTimeout := time.Duration(cfg.Timeouts.EmbeddingMs) * time.Millisecond
	vectorTimeout := time.Duration(cfg.Timeouts.VectorStoreMs) * time.Millisecond
	docTimeout := time.Duration(cfg.Timeouts.DocumentStoreMs) * time.Millisecond

	searchSvc := searchuc.New(vectors, rooms, queryEmbedder, searchuc.Timeouts{
		Embed:         embedTimeout,
		VectorStore:   vectorTimeout,
		DocumentStore: docTimeout,
	}, metrics.SearchStageDuration)
	indexSvc := indexinguc.New(vectors, rooms, docEmbedder, indexinguc.Timeouts{
		Embed:         embedTimeout,
		VectorStore:   vectorTimeout,
		DocumentStore: docTimeout,
	}, logger).WithMetrics(metrics.IndexedRoomsTotal)
	listSvc := listinguc.New(rooms, pages, docTimeout)
	healthSvc := healthuc.New(store, rooms, base, time.Duration(cfg.Timeouts.HealthMs)*time.Millisecond)

	server := chiTransport.NewServer(searchSvc, listSvc, indexSvc, healthSvc, request.Limits{
		DefaultCount: cfg.Search.DefaultCount,
		MaxCount:     cfg.Search.MaxCount,
	}, logger)
	r := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openKVStore creates the store backing the vector index and both caches.
func openKVStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.KVDriverRedis, config.KVDriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return s, nil
	case config.KVDriverMemory:
		s, err := memory.NewStore(cfg.MemoryMaxKeys)
		if err != nil {
			return nil, fmt.Errorf("memory store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown kv driver %q", cfg.Driver)
	}
}

// embedder is the shared chain both instruction wrappers sit on.
type embedder interface {
	domain.Embedder
	domain.HealthChecker
}

// buildEmbedder assembles the decorator chain: OpenAI -> Resilient -> Instrumented -> Cached.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, keyPrefix string, logger *zap.Logger) embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	resilient := embeddinguc.NewResilientEmbedder(base, embeddinguc.ResilienceConfig{
		Provider:         cfg.Provider,
		MaxRetries:       cfg.Retry.MaxRetries,
		InitialInterval:  time.Duration(cfg.Retry.InitialIntervalMs) * time.Millisecond,
		MaxInterval:      time.Duration(cfg.Retry.MaxIntervalMs) * time.Millisecond,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      time.Duration(cfg.Breaker.OpenTimeoutSec) * time.Second,
	}, logger)

	instrumented := embeddinguc.NewInstrumentedEmbedder(resilient, cfg.Provider, cfg.Model, logger)
	if !cfg.Cache.Enabled {
		return instrumented
	}

	return embcache.New(
		instrumented, store, keyPrefix, time.Duration(cfg.Cache.TTLSec)*time.Second,
		metrics.EmbeddingCacheTotal, logger,
	)
}

// withInstruction prefixes texts with instruction. Outermost, so cache keys include it.
func withInstruction(inner domain.Embedder, instruction string) domain.Embedder {
	if instruction == "" {
		return inner
	}
	return domain.NewInstructionEmbedder(inner, instruction)
}
