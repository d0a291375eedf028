// Package listing serves paginated room listings through the page cache.
package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// Listing parameter defaults and limits.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Service returns serialized listing pages.
type Service struct {
	rooms   RoomLister
	cache   PageCache
	timeout time.Duration
}

// New creates a listing service. timeout bounds each document store call; zero disables it.
func New(rooms RoomLister, cache PageCache, timeout time.Duration) *Service {
	return &Service{rooms: rooms, cache: cache, timeout: timeout}
}

// ListPage returns the JSON-encoded page. Zero page or limit selects the default.
// The payload may be up to one cache TTL old.
func (s *Service) ListPage(ctx context.Context, page, limit int) ([]byte, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d: %w", page, domain.ErrInvalidArgument)
	}
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("limit must be in [1, %d], got %d: %w", MaxLimit, limit, domain.ErrInvalidArgument)
	}
	if page-1 > math.MaxInt/limit {
		return nil, fmt.Errorf("page %d is out of range: %w", page, domain.ErrInvalidArgument)
	}

	key := domain.PageKey{Page: page, Limit: limit}
	payload, err := s.cache.Get(ctx, key, func(ctx context.Context) ([]byte, error) {
		return s.fetch(ctx, key)
	})
	if err != nil {
		return nil, fmt.Errorf("list page %d: %w", page, err)
	}
	return payload, nil
}

func (s *Service) fetch(ctx context.Context, key domain.PageKey) ([]byte, error) {
	total, err := s.count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count rooms: %w", err)
	}

	items, err := s.list(ctx, (key.Page-1)*key.Limit, key.Limit)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	data, err := json.Marshal(domain.NewPage(items, key.Page, key.Limit, total))
	if err != nil {
		return nil, fmt.Errorf("marshal page: %w", err)
	}
	return data, nil
}

func (s *Service) count(ctx context.Context) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.rooms.Count(ctx) //nolint:wrapcheck // wrapped by caller
}

func (s *Service) list(ctx context.Context, offset, limit int) ([]domain.Room, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.rooms.ListPage(ctx, offset, limit) //nolint:wrapcheck // wrapped by caller
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
