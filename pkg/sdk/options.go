package staysearch

import (
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	kvDriver      string // "redis", "valkey" or "memory"
	addrs         []string
	password      string
	memoryMaxKeys int

	docDriver string // "postgres" or "sqlite"
	dsn       string
	docDB     *sqlx.DB
	migrate   bool

	embedder         Embedder
	vectorDimensions int
	keyPrefix        string
	pageCacheTTL     time.Duration
	defaultCount     int
	maxCount         int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores vectors and cached pages in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.kvDriver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey stores vectors and cached pages in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.kvDriver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory keeps vectors and cached pages in process memory.
// maxKeys bounds the cached pages; zero selects the store default.
func WithMemory(maxKeys int) Option {
	return optionFunc(func(c *clientConfig) {
		c.kvDriver = "memory"
		c.memoryMaxKeys = maxKeys
	})
}

// WithPostgres reads rooms from a Postgres database.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.docDriver = "postgres"
		c.dsn = dsn
	})
}

// WithSQLite reads rooms from a SQLite database.
func WithSQLite(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.docDriver = "sqlite"
		c.dsn = dsn
	})
}

// WithDB reads rooms from an already opened database. The client does not close it.
func WithDB(db *sqlx.DB) Option {
	return optionFunc(func(c *clientConfig) {
		c.docDB = db
	})
}

// WithoutMigration skips creating the rooms table on startup.
func WithoutMigration() Option {
	return optionFunc(func(c *clientConfig) {
		c.migrate = false
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the dimension every stored vector must have. Required.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithKeyPrefix namespaces every key the client writes. Default: "staysearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithPageCacheTTL sets how long a listing page is served from cache. Default: 60s.
func WithPageCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageCacheTTL = ttl
	})
}

// WithSearchLimits sets the default and maximum number of search results.
func WithSearchLimits(defaultCount, maxCount int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultCount = defaultCount
		c.maxCount = maxCount
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
