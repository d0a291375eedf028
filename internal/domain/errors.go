package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound signals a missing room.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument signals a request rejected before any external call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCircuitOpen signals that calls to the embedding provider are short-circuited.
	ErrCircuitOpen = errors.New("embedding circuit open")
	// ErrStoreUnavailable signals that the cache, vector or document store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ProviderError is an embedding provider failure with the HTTP status it came with.
// StatusCode is zero when no response was received.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("embedding request failed: %s", e.Message)
	}
	return fmt.Sprintf("embedding API error %d: %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrEmbeddingProviderError }

// Temporary reports whether repeating the request may succeed.
func (e *ProviderError) Temporary() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}
