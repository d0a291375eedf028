package search

import (
	"fmt"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// topK returns the first min(n, len(items)) items.
func topK[T any](items []T, n int) ([]T, error) {
	if n <= 0 {
		return nil, fmt.Errorf("top-k must be positive, got %d: %w", n, domain.ErrInvalidArgument)
	}
	if len(items) > n {
		return items[:n], nil
	}
	return items, nil
}
