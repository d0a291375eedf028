package staysearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/db"
	"github.com/kailas-cloud/staysearch/internal/db/memory"
	dbRedis "github.com/kailas-cloud/staysearch/internal/db/redis"
	"github.com/kailas-cloud/staysearch/internal/db/sqldb"
	"github.com/kailas-cloud/staysearch/internal/domain"
	dombatch "github.com/kailas-cloud/staysearch/internal/domain/batch"
	"github.com/kailas-cloud/staysearch/internal/domain/search/request"
	"github.com/kailas-cloud/staysearch/internal/repository/pagecache"
	roomrepo "github.com/kailas-cloud/staysearch/internal/repository/room"
	vectorrepo "github.com/kailas-cloud/staysearch/internal/repository/vector"
	healthuc "github.com/kailas-cloud/staysearch/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/staysearch/internal/usecase/indexing"
	listinguc "github.com/kailas-cloud/staysearch/internal/usecase/listing"
	searchuc "github.com/kailas-cloud/staysearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultPageCacheTTL     = 60 * time.Second
)

// Internal interfaces, swapped for fakes in tests.
type roomWriter interface {
	Upsert(ctx context.Context, room *domain.Room) error
	FindByID(ctx context.Context, id string) (domain.Room, error)
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]searchuc.Result, error)
}

type listingUseCase interface {
	ListPage(ctx context.Context, page, limit int) ([]byte, error)
}

type indexingUseCase interface {
	Index(ctx context.Context, room *domain.Room) error
	IndexByID(ctx context.Context, id string) error
	IndexCatalog(ctx context.Context) (dombatch.Report, error)
	Unindex(ctx context.Context, id string) error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the staysearch SDK entry point.
type Client struct {
	store     db.Store
	docDB     *sqlx.DB
	ownsDocDB bool

	rooms     roomWriter
	searchSvc searchUseCase
	listSvc   listingUseCase
	indexSvc  indexingUseCase
	healthSvc healthUseCase
	limits    request.Limits
	obs       *observer
}

// New creates a Client, connects both stores and waits for the KV store to be ready.
// The provided context bounds the startup checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		migrate:      true,
		keyPrefix:    domain.DefaultKeyPrefix,
		pageCacheTTL: defaultPageCacheTTL,
		defaultCount: request.DefaultCount,
		maxCount:     request.MaxCount,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("staysearch: kv store not ready: %w", err)
	}

	docDB, owns, err := openDocuments(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(ctx, store, docDB, cfg, obs)
	if err != nil {
		store.Close()
		if owns {
			_ = docDB.Close()
		}
		return nil, err
	}
	c.ownsDocDB = owns
	return c, nil
}

func (c *clientConfig) validate() error {
	switch {
	case c.kvDriver == "":
		return errors.New("staysearch: kv store required (use WithRedis, WithValkey or WithMemory)")
	case c.docDB == nil && c.dsn == "":
		return errors.New("staysearch: document store required (use WithPostgres, WithSQLite or WithDB)")
	case c.embedder == nil:
		return errors.New("staysearch: embedder required (use WithEmbedder)")
	case c.vectorDimensions <= 0:
		return fmt.Errorf("staysearch: vector dimensions must be positive, got %d", c.vectorDimensions)
	case c.defaultCount <= 0 || c.defaultCount > c.maxCount:
		return fmt.Errorf("staysearch: invalid search limits %d/%d", c.defaultCount, c.maxCount)
	}
	return nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.kvDriver {
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("staysearch: create %s store: %w", cfg.kvDriver, err)
		}
		return s, nil
	case "memory":
		s, err := memory.NewStore(cfg.memoryMaxKeys)
		if err != nil {
			return nil, fmt.Errorf("staysearch: create memory store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("staysearch: unknown kv driver %q", cfg.kvDriver)
	}
}

func openDocuments(ctx context.Context, cfg *clientConfig) (*sqlx.DB, bool, error) {
	if cfg.docDB != nil {
		return cfg.docDB, false, nil
	}
	sqlCfg := sqldb.Config{Driver: cfg.docDriver, DSN: cfg.dsn}
	if cfg.docDriver == sqldb.DriverSQLite {
		// every :memory: connection is a separate database
		sqlCfg.MaxOpenConns = 1
	}
	conn, err := sqldb.Open(ctx, sqlCfg)
	if err != nil {
		return nil, false, fmt.Errorf("staysearch: open document store: %w", err)
	}
	return conn, true, nil
}

func wireClient(ctx context.Context, store db.Store, docDB *sqlx.DB, cfg *clientConfig, obs *observer) (*Client, error) {
	rooms := roomrepo.New(docDB)
	if cfg.migrate {
		if err := rooms.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("staysearch: migrate document store: %w", err)
		}
	}

	nop := zap.NewNop()
	emb := &embedderAdapter{inner: cfg.embedder}
	vectors := vectorrepo.New(store, cfg.keyPrefix, cfg.vectorDimensions, nop)
	pages := pagecache.New(store, cfg.keyPrefix, cfg.pageCacheTTL, nil, nop)

	return &Client{
		store:     store,
		docDB:     docDB,
		rooms:     rooms,
		searchSvc: searchuc.New(vectors, rooms, emb, searchuc.Timeouts{}, nil),
		listSvc:   listinguc.New(rooms, pages, 0),
		indexSvc:  indexinguc.New(vectors, rooms, emb, indexinguc.Timeouts{}, nop),
		healthSvc: healthuc.New(store, rooms, nil, 0),
		limits:    request.Limits{DefaultCount: cfg.defaultCount, MaxCount: cfg.maxCount},
		obs:       obs,
	}, nil
}

// Close releases all resources. A database passed with WithDB stays open.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
	if c.ownsDocDB && c.docDB != nil {
		_ = c.docDB.Close()
	}
}

// Ping checks KV store connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Rooms returns the room service.
func (c *Client) Rooms() *RoomService {
	return &RoomService{
		rooms:    c.rooms,
		search:   c.searchSvc,
		listing:  c.listSvc,
		indexing: c.indexSvc,
		limits:   c.limits,
		obs:      c.obs,
	}
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProviderError) {
			return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
