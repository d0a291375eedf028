// Package memory is an in-process db.Store for single-node deployments and tests.
// String keys live in a bounded LRU; hashes are unbounded since they hold the vector index.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/staysearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// DefaultMaxKeys bounds the string keyspace when no size is configured.
const DefaultMaxKeys = 10000

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Store implements db.Store in memory.
type Store struct {
	kv  *lru.Cache[string, entry]
	now func() time.Time

	mu     sync.RWMutex
	hashes map[string]map[string]string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an in-memory store holding at most maxKeys string keys.
func NewStore(maxKeys int, opts ...Option) (*Store, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	kv, err := lru.New[string, entry](maxKeys)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	s := &Store{kv: kv, now: time.Now, hashes: make(map[string]map[string]string)}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close drops all data.
func (s *Store) Close() {
	s.kv.Purge()
	s.mu.Lock()
	s.hashes = make(map[string]map[string]string)
	s.mu.Unlock()
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	maps.Copy(h, fields)
	return nil
}

// HGetAll returns a copy of all fields of a hash.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.hashes[key]), nil
}

// HDel removes specific fields from a hash.
func (s *Store) HDel(_ context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hashes[key]
	for _, f := range fields {
		delete(h, f)
	}
	if len(h) == 0 {
		delete(s.hashes, key)
	}
	return nil
}

// Get retrieves a value by key. A key stays readable up to and including its
// expiry instant and is evicted on the first access after it.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := s.kv.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		s.kv.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return e.value, nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.kv.Add(key, entry{value: value})
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.kv.Add(key, entry{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

// Del deletes a key from either keyspace.
func (s *Store) Del(_ context.Context, key string) error {
	s.kv.Remove(key)
	s.mu.Lock()
	delete(s.hashes, key)
	s.mu.Unlock()
	return nil
}
