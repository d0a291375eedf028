package search

import (
	"context"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// VectorReader loads the indexed room embeddings.
type VectorReader interface {
	LoadAll(ctx context.Context) ([]domain.VectorRecord, error)
}

// RoomReader fetches rooms for the filter stage and the response.
type RoomReader interface {
	FindByID(ctx context.Context, id string) (domain.Room, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
