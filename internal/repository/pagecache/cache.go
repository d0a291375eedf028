// Package pagecache is the TTL read-through cache in front of the room listing.
//
// Freshness is decided here by comparing the stored expiry against the clock,
// not by the backing store. The store TTL is set to the same duration only so
// that unread entries get evicted eventually. Nothing in the write paths calls
// Invalidate: after a catalog change readers may see the old page for up to one
// TTL window.
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/db"
	"github.com/kailas-cloud/staysearch/internal/domain"
)

// store is the consumer interface for the page cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Fetch computes a fresh payload from the source of truth.
type Fetch = func(ctx context.Context) ([]byte, error)

// Cache is a read-through cache keyed by listing page.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	timeout    time.Duration
	now        func() time.Time
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a page cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"expired"), passed explicitly.
func New(
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:      s,
		prefix:     keyPrefix,
		ttl:        ttl,
		now:        time.Now,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithClock overrides the time source.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// WithTimeout bounds each cache store call; zero disables it.
// Fetch is not covered, it carries its own timeouts.
func (c *Cache) WithTimeout(d time.Duration) *Cache {
	c.timeout = d
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get returns the cached payload for key while it is fresh. Otherwise it calls
// fetch exactly once, stores the result with a new expiry and returns it.
func (c *Cache) Get(ctx context.Context, key domain.PageKey, fetch Fetch) ([]byte, error) {
	storeKey := c.storeKey(key)

	data, err := c.read(ctx, storeKey)
	switch {
	case err == nil:
		entry, decErr := decodeEntry(key, data)
		if decErr != nil {
			c.logger.Warn("Discarding corrupt page cache entry", zap.String("key", storeKey), zap.Error(decErr))
			c.inc("miss")
			break
		}
		if !c.now().After(entry.ExpiresAt) {
			c.inc("hit")
			return entry.Payload, nil
		}
		c.inc("expired")
	case errors.Is(err, db.ErrKeyNotFound):
		c.inc("miss")
	default:
		return nil, fmt.Errorf("get %s: %w: %w", storeKey, domain.ErrStoreUnavailable, err)
	}

	payload, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}

	entry := Entry{Key: key, Payload: payload, ExpiresAt: c.now().Add(c.ttl)}
	if err := c.write(ctx, storeKey, encodeEntry(entry)); err != nil {
		c.logger.Warn("Failed to populate page cache", zap.String("key", storeKey), zap.Error(err))
	}
	return payload, nil
}

// Invalidate removes the entry for key so the next Get recomputes it.
func (c *Cache) Invalidate(ctx context.Context, key domain.PageKey) error {
	storeKey := c.storeKey(key)
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.store.Del(ctx, storeKey); err != nil {
		return fmt.Errorf("del %s: %w: %w", storeKey, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (c *Cache) read(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.store.Get(ctx, key) //nolint:wrapcheck // wrapped by caller
}

func (c *Cache) write(ctx context.Context, key string, value []byte) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.store.SetWithTTL(ctx, key, value, c.ttl) //nolint:wrapcheck // logged by caller
}

func (c *Cache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Cache) storeKey(key domain.PageKey) string {
	return c.prefix + key.String()
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
