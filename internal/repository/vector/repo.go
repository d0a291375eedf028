// Package vector persists room embeddings in a single KV hash.
//
// LoadAll reads the whole hash on every search. Cost is O(number of indexed
// rooms) in both transfer and decoding, which is the scalability ceiling of the
// brute-force ranking design.
package vector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

const hashName = "room_vectors"

// store is the consumer interface for the vector index (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}

// Repo stores one VectorRecord per room, all sharing one fixed dimension.
type Repo struct {
	store  store
	key    string
	dim    int
	logger *zap.Logger
}

// New creates a vector repository. dim is the store-wide embedding dimension.
func New(s store, keyPrefix string, dim int, logger *zap.Logger) *Repo {
	return &Repo{store: s, key: keyPrefix + hashName, dim: dim, logger: logger}
}

// Dimension returns the fixed dimension every record must have.
func (r *Repo) Dimension() int { return r.dim }

// Put writes or overwrites the record of one room. Records of the wrong dimension are rejected.
func (r *Repo) Put(ctx context.Context, rec domain.VectorRecord) error {
	if err := rec.Validate(r.dim); err != nil {
		return err
	}
	err := r.store.HSet(ctx, r.key, map[string]string{rec.EntityID: encodeRecord(rec)})
	if err != nil {
		return fmt.Errorf("hset %s %s: %w: %w", r.key, rec.EntityID, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// LoadAll returns every stored record. Undecodable entries are skipped and logged.
func (r *Repo) LoadAll(ctx context.Context) ([]domain.VectorRecord, error) {
	raw, err := r.store.HGetAll(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w: %w", r.key, domain.ErrStoreUnavailable, err)
	}

	records := make([]domain.VectorRecord, 0, len(raw))
	for id, value := range raw {
		rec, err := decodeRecord(id, value)
		if err != nil {
			r.logger.Warn("Skipping undecodable vector record", zap.String("room_id", id), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Delete removes the records of the given rooms.
func (r *Repo) Delete(ctx context.Context, ids ...string) error {
	if err := r.store.HDel(ctx, r.key, ids...); err != nil {
		return fmt.Errorf("hdel %s: %w: %w", r.key, domain.ErrStoreUnavailable, err)
	}
	return nil
}
