package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported store drivers.
const (
	KVDriverRedis  = "redis"
	KVDriverValkey = "valkey"
	KVDriverMemory = "memory"

	DocDriverPostgres = "postgres"
	DocDriverSQLite   = "sqlite"
)

// Config holds the staysearch API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Documents DocumentsConfig `yaml:"documents"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys means auth is off.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the KV store settings used for vectors and caches.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	MemoryMaxKeys    int      `yaml:"memory_max_keys"`
}

// DocumentsConfig holds the relational room catalog settings.
type DocumentsConfig struct {
	Driver       string `yaml:"driver"` // postgres, sqlite
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	AutoMigrate  bool   `yaml:"auto_migrate"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string         `yaml:"provider"`
	BaseURL             string         `yaml:"base_url"`
	APIKey              string         `yaml:"api_key"`
	Model               string         `yaml:"model"`
	Dimensions          int            `yaml:"dimensions"`
	DocumentInstruction string         `yaml:"document_instruction"`
	QueryInstruction    string         `yaml:"query_instruction"`
	Retry               RetryConfig    `yaml:"retry"`
	Breaker             BreakerConfig  `yaml:"breaker"`
	Cache               EmbCacheConfig `yaml:"cache"`
}

// RetryConfig holds retry settings for transient provider failures.
type RetryConfig struct {
	MaxRetries        int `yaml:"max_retries"` // 0 disables retries
	InitialIntervalMs int `yaml:"initial_interval_ms"`
	MaxIntervalMs     int `yaml:"max_interval_ms"`
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold uint32 `yaml:"failure_threshold"`
	OpenTimeoutSec   int    `yaml:"open_timeout_sec"`
}

// EmbCacheConfig holds query embedding cache settings.
type EmbCacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// SearchConfig holds result count limits.
type SearchConfig struct {
	DefaultCount int `yaml:"default_count"`
	MaxCount     int `yaml:"max_count"`
}

// CacheConfig holds listing page cache settings.
type CacheConfig struct {
	TTLSec int `yaml:"ttl_sec"`
}

// TimeoutsConfig bounds each external call.
type TimeoutsConfig struct {
	EmbeddingMs     int `yaml:"embedding_ms"`
	VectorStoreMs   int `yaml:"vector_store_ms"`
	DocumentStoreMs int `yaml:"document_store_ms"`
	CacheMs         int `yaml:"cache_ms"`
	HealthMs        int `yaml:"health_ms"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML after env substitution, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = KVDriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Documents.Driver == "" {
		c.Documents.Driver = DocDriverPostgres
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Breaker.FailureThreshold == 0 {
		c.Embedding.Breaker.FailureThreshold = 5
	}
	if c.Embedding.Breaker.OpenTimeoutSec <= 0 {
		c.Embedding.Breaker.OpenTimeoutSec = 30
	}
	if c.Embedding.Retry.InitialIntervalMs <= 0 {
		c.Embedding.Retry.InitialIntervalMs = 200
	}
	if c.Embedding.Retry.MaxIntervalMs <= 0 {
		c.Embedding.Retry.MaxIntervalMs = 2000
	}
	if c.Embedding.Cache.TTLSec <= 0 {
		c.Embedding.Cache.TTLSec = 86400
	}
	if c.Search.DefaultCount <= 0 {
		c.Search.DefaultCount = 5
	}
	if c.Search.MaxCount <= 0 {
		c.Search.MaxCount = 100
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 60
	}
	if c.Timeouts.EmbeddingMs <= 0 {
		c.Timeouts.EmbeddingMs = 10000
	}
	if c.Timeouts.VectorStoreMs <= 0 {
		c.Timeouts.VectorStoreMs = 5000
	}
	if c.Timeouts.DocumentStoreMs <= 0 {
		c.Timeouts.DocumentStoreMs = 3000
	}
	if c.Timeouts.CacheMs <= 0 {
		c.Timeouts.CacheMs = 1000
	}
	if c.Timeouts.HealthMs <= 0 {
		c.Timeouts.HealthMs = 2000
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "staysearch:"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case KVDriverRedis, KVDriverValkey:
		if len(c.Database.Addrs) == 0 {
			return errors.New("database.addrs is required")
		}
	case KVDriverMemory:
	default:
		return fmt.Errorf("database.driver must be redis, valkey or memory, got %q", c.Database.Driver)
	}

	switch c.Documents.Driver {
	case DocDriverPostgres, DocDriverSQLite:
	default:
		return fmt.Errorf("documents.driver must be postgres or sqlite, got %q", c.Documents.Driver)
	}
	if c.Documents.DSN == "" {
		return errors.New("documents.dsn is required")
	}

	if c.Embedding.Model == "" {
		return errors.New("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.Retry.MaxRetries < 0 {
		return fmt.Errorf("embedding.retry.max_retries must be >= 0, got %d", c.Embedding.Retry.MaxRetries)
	}

	if c.Search.DefaultCount > c.Search.MaxCount {
		return fmt.Errorf("search.default_count %d exceeds search.max_count %d",
			c.Search.DefaultCount, c.Search.MaxCount)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
