package listing

import (
	"context"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// RoomLister pages through the document store.
type RoomLister interface {
	Count(ctx context.Context) (int, error)
	ListPage(ctx context.Context, offset, limit int) ([]domain.Room, error)
}

// PageCache serves page payloads, calling fetch only when its entry is missing or stale.
type PageCache interface {
	Get(ctx context.Context, key domain.PageKey, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error)
}
