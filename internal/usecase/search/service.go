// Package search implements semantic room search: embed the query, score it
// against every indexed vector, filter by room attributes and cut to top-k.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/domain"
	"github.com/kailas-cloud/staysearch/internal/domain/search/request"
	"github.com/kailas-cloud/staysearch/internal/logger"
)

// Result is one search hit.
type Result struct {
	Room  domain.Room
	Score float64
}

// Timeouts bounds each external call made during a search. Zero means no extra bound.
type Timeouts struct {
	Embed         time.Duration
	VectorStore   time.Duration
	DocumentStore time.Duration
}

// Service runs semantic searches over the indexed rooms.
type Service struct {
	vectors       VectorReader
	rooms         RoomReader
	embed         Embedder
	timeouts      Timeouts
	stageDuration *prometheus.HistogramVec
}

// New creates a search service.
// stageDuration is a histogram vec with label "stage", passed explicitly; nil disables it.
func New(
	vectors VectorReader,
	rooms RoomReader,
	embed Embedder,
	timeouts Timeouts,
	stageDuration *prometheus.HistogramVec,
) *Service {
	return &Service{
		vectors:       vectors,
		rooms:         rooms,
		embed:         embed,
		timeouts:      timeouts,
		stageDuration: stageDuration,
	}
}

// Search embeds the query, ranks all indexed rooms by similarity, applies the
// attribute filter and returns at most req.Count() results.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]Result, error) {
	vec, err := s.embedQuery(ctx, req.Query())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := s.loadVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	s.observe("load", start)

	start = time.Now()
	candidates := rank(vec, records)
	s.observe("rank", start)

	start = time.Now()
	filtered, err := s.applyFilter(ctx, candidates, req.Filters())
	if err != nil {
		return nil, fmt.Errorf("filter candidates: %w", err)
	}
	s.observe("filter", start)

	results, err := topK(filtered, req.Count())
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Debug("Search completed",
		zap.Int("indexed", len(records)),
		zap.Int("ranked", len(candidates)),
		zap.Int("matched", len(filtered)),
		zap.Int("returned", len(results)),
	)
	return results, nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Embed)
	defer cancel()

	start := time.Now()
	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	s.observe("embed", start)

	if len(res.Embedding) == 0 {
		return nil, fmt.Errorf("vectorize query: empty embedding: %w", domain.ErrEmbeddingProviderError)
	}
	return res.Embedding, nil
}

func (s *Service) loadVectors(ctx context.Context) ([]domain.VectorRecord, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.VectorStore)
	defer cancel()
	return s.vectors.LoadAll(ctx) //nolint:wrapcheck // wrapped by caller
}

func (s *Service) observe(stage string, start time.Time) {
	if s.stageDuration != nil {
		s.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
