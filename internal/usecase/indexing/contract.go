package indexing

import (
	"context"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// VectorWriter persists and removes room embeddings.
type VectorWriter interface {
	Put(ctx context.Context, rec domain.VectorRecord) error
	Delete(ctx context.Context, ids ...string) error
}

// RoomReader reads rooms from the document store.
type RoomReader interface {
	FindByID(ctx context.Context, id string) (domain.Room, error)
	FindAll(ctx context.Context) ([]domain.Room, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
