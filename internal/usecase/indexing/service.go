// Package indexing turns catalog rooms into stored embeddings.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/domain"
	dombatch "github.com/kailas-cloud/staysearch/internal/domain/batch"
)

// Timeouts bounds each external call. Zero means no extra bound.
type Timeouts struct {
	Embed         time.Duration
	VectorStore   time.Duration
	DocumentStore time.Duration
}

// Service indexes rooms one at a time with per-item error reporting.
type Service struct {
	vectors  VectorWriter
	rooms    RoomReader
	embed    Embedder
	timeouts Timeouts
	logger   *zap.Logger
	indexed  *prometheus.CounterVec
}

// New creates an indexing service.
func New(vectors VectorWriter, rooms RoomReader, embed Embedder, timeouts Timeouts, logger *zap.Logger) *Service {
	return &Service{vectors: vectors, rooms: rooms, embed: embed, timeouts: timeouts, logger: logger}
}

// WithMetrics counts processed rooms on indexed, labelled by "status" ("ok"/"error").
func (s *Service) WithMetrics(indexed *prometheus.CounterVec) *Service {
	s.indexed = indexed
	return s
}

// Index embeds the room's name and description and stores the vector under the room id.
// Indexing the same room again overwrites its vector.
func (s *Service) Index(ctx context.Context, room *domain.Room) error {
	if room.ID == "" {
		return fmt.Errorf("room id is required: %w", domain.ErrInvalidArgument)
	}

	vec, err := s.vectorize(ctx, room)
	if err != nil {
		return fmt.Errorf("vectorize room %s: %w", room.ID, err)
	}

	rec, err := domain.NewVectorRecord(room.ID, vec)
	if err != nil {
		return fmt.Errorf("build vector record: %w", err)
	}

	putCtx, cancel := withTimeout(ctx, s.timeouts.VectorStore)
	defer cancel()
	if err := s.vectors.Put(putCtx, rec); err != nil {
		return fmt.Errorf("store vector: %w", err)
	}
	return nil
}

// IndexAll indexes every room and never stops at a failed item. Once the embedding
// circuit is open the remaining rooms are reported with that error without being tried.
func (s *Service) IndexAll(ctx context.Context, rooms []domain.Room) dombatch.Report {
	results := make([]dombatch.Result, len(rooms))

	for i := range rooms {
		err := s.Index(ctx, &rooms[i])
		if err == nil {
			results[i] = dombatch.NewOK(rooms[i].ID)
			continue
		}

		s.logger.Warn("Failed to index room", zap.String("room_id", rooms[i].ID), zap.Error(err))
		results[i] = dombatch.NewError(rooms[i].ID, err)

		if errors.Is(err, domain.ErrCircuitOpen) {
			for j := i + 1; j < len(rooms); j++ {
				results[j] = dombatch.NewError(rooms[j].ID, err)
			}
			s.logger.Warn("Embedding circuit open, skipping remaining rooms", zap.Int("skipped", len(rooms)-i-1))
			break
		}
	}

	report := dombatch.NewReport(results)
	if s.indexed != nil {
		s.indexed.WithLabelValues(string(dombatch.StatusOK)).Add(float64(report.Succeeded))
		s.indexed.WithLabelValues(string(dombatch.StatusError)).Add(float64(report.Failed))
	}
	s.logger.Info("Indexing finished",
		zap.Int("total", len(rooms)),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report
}

// IndexByID loads one room from the document store and indexes it.
func (s *Service) IndexByID(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("room id is required: %w", domain.ErrInvalidArgument)
	}

	findCtx, cancel := withTimeout(ctx, s.timeouts.DocumentStore)
	room, err := s.rooms.FindByID(findCtx, id)
	cancel()
	if err != nil {
		return fmt.Errorf("find room %s: %w", id, err)
	}
	return s.Index(ctx, &room)
}

// IndexCatalog indexes every room in the document store.
func (s *Service) IndexCatalog(ctx context.Context) (dombatch.Report, error) {
	findCtx, cancel := withTimeout(ctx, s.timeouts.DocumentStore)
	rooms, err := s.rooms.FindAll(findCtx)
	cancel()
	if err != nil {
		return dombatch.Report{}, fmt.Errorf("list rooms: %w", err)
	}
	return s.IndexAll(ctx, rooms), nil
}

// Unindex removes the stored vector of a room. Removing an unknown id is not an error.
func (s *Service) Unindex(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("room id is required: %w", domain.ErrInvalidArgument)
	}
	delCtx, cancel := withTimeout(ctx, s.timeouts.VectorStore)
	defer cancel()
	if err := s.vectors.Delete(delCtx, id); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

func (s *Service) vectorize(ctx context.Context, room *domain.Room) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Embed)
	defer cancel()

	res, err := s.embed.Embed(ctx, room.EmbeddingText())
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	return res.Embedding, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
