package indexing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/domain"
	dombatch "github.com/kailas-cloud/staysearch/internal/domain/batch"
)

// --- Mocks ---

type mockVectors struct {
	dim     int
	stored  map[string]domain.VectorRecord
	deleted []string
	putErr  error
}

func newMockVectors(dim int) *mockVectors {
	return &mockVectors{dim: dim, stored: make(map[string]domain.VectorRecord)}
}

func (m *mockVectors) Put(_ context.Context, rec domain.VectorRecord) error {
	if m.putErr != nil {
		return m.putErr
	}
	if err := rec.Validate(m.dim); err != nil {
		return err
	}
	m.stored[rec.EntityID] = rec
	return nil
}

func (m *mockVectors) Delete(_ context.Context, ids ...string) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

type mockRooms struct {
	rooms  map[string]domain.Room
	all    []domain.Room
	allErr error
}

func (m *mockRooms) FindByID(_ context.Context, id string) (domain.Room, error) {
	r, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *mockRooms) FindAll(_ context.Context) ([]domain.Room, error) {
	return m.all, m.allErr
}

type mockEmbedder struct {
	vec       []float32
	errFor    map[string]error
	texts     []string
	callCount int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.callCount++
	m.texts = append(m.texts, text)
	if err, ok := m.errFor[text]; ok {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func makeRooms(n int) []domain.Room {
	rooms := make([]domain.Room, n)
	for i := range rooms {
		rooms[i] = domain.Room{ID: fmt.Sprintf("room%d", i+1), Name: fmt.Sprintf("Room %d", i+1), Description: "cozy"}
	}
	return rooms
}

func newService(v *mockVectors, r *mockRooms, e *mockEmbedder) *Service {
	return New(v, r, e, Timeouts{}, zap.NewNop())
}

// --- Index ---

func TestIndex_EmbedsNameAndDescription(t *testing.T) {
	vectors := newMockVectors(2)
	embed := &mockEmbedder{vec: []float32{0.1, 0.2}}
	svc := newService(vectors, &mockRooms{}, embed)

	room := domain.Room{ID: "room1", Name: "Sea loft", Description: "balcony with a view"}
	if err := svc.Index(context.Background(), &room); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embed.texts[0] != "Sea loft balcony with a view" {
		t.Fatalf("unexpected embedding text: %q", embed.texts[0])
	}
	if rec, ok := vectors.stored["room1"]; !ok || rec.Dimension != 2 {
		t.Fatalf("expected stored record, got %+v", vectors.stored)
	}
}

func TestIndex_Idempotent(t *testing.T) {
	vectors := newMockVectors(2)
	svc := newService(vectors, &mockRooms{}, &mockEmbedder{vec: []float32{0.1, 0.2}})
	room := domain.Room{ID: "room1", Name: "a", Description: "b"}

	for i := 0; i < 2; i++ {
		if err := svc.Index(context.Background(), &room); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(vectors.stored) != 1 {
		t.Fatalf("expected one stored record, got %d", len(vectors.stored))
	}
}

func TestIndex_MissingID(t *testing.T) {
	embed := &mockEmbedder{vec: []float32{1}}
	svc := newService(newMockVectors(1), &mockRooms{}, embed)

	err := svc.Index(context.Background(), &domain.Room{Name: "x"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if embed.callCount != 0 {
		t.Fatal("embedder must not be called for invalid input")
	}
}

func TestIndex_DimensionMismatch(t *testing.T) {
	svc := newService(newMockVectors(3), &mockRooms{}, &mockEmbedder{vec: []float32{0.1, 0.2}})

	err := svc.Index(context.Background(), &domain.Room{ID: "room1"})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestIndex_EmptyEmbedding(t *testing.T) {
	svc := newService(newMockVectors(2), &mockRooms{}, &mockEmbedder{})

	err := svc.Index(context.Background(), &domain.Room{ID: "room1"})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestIndex_StoreError(t *testing.T) {
	vectors := newMockVectors(1)
	vectors.putErr = domain.ErrStoreUnavailable
	svc := newService(vectors, &mockRooms{}, &mockEmbedder{vec: []float32{1}})

	err := svc.Index(context.Background(), &domain.Room{ID: "room1"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

// --- IndexAll ---

func TestIndexAll_ContinuesPastFailures(t *testing.T) {
	rooms := makeRooms(3)
	vectors := newMockVectors(2)
	embed := &mockEmbedder{
		vec:    []float32{0.1, 0.2},
		errFor: map[string]error{rooms[1].EmbeddingText(): domain.ErrEmbeddingProviderError},
	}
	svc := newService(vectors, &mockRooms{}, embed)

	report := svc.IndexAll(context.Background(), rooms)
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("expected 2 ok / 1 failed, got %d / %d", report.Succeeded, report.Failed)
	}
	if report.Results[1].Status() != dombatch.StatusError || report.Results[1].ID() != "room2" {
		t.Fatalf("unexpected result for room2: %+v", report.Results[1])
	}
	if !errors.Is(report.Results[1].Err(), domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", report.Results[1].Err())
	}
	if _, ok := vectors.stored["room3"]; !ok {
		t.Fatal("room3 must be indexed after room2 failed")
	}
}

func TestIndexAll_CountsOutcomes(t *testing.T) {
	rooms := makeRooms(3)
	embed := &mockEmbedder{
		vec:    []float32{0.1, 0.2},
		errFor: map[string]error{rooms[0].EmbeddingText(): domain.ErrEmbeddingProviderError},
	}
	indexed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_indexed_total"}, []string{"status"})
	svc := newService(newMockVectors(2), &mockRooms{}, embed).WithMetrics(indexed)

	svc.IndexAll(context.Background(), rooms)

	if got := testutil.ToFloat64(indexed.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(indexed.WithLabelValues("error")); got != 1 {
		t.Errorf("error: got %v, want 1", got)
	}
}

func TestIndexAll_CircuitOpenSkipsRemaining(t *testing.T) {
	rooms := makeRooms(4)
	openErr := fmt.Errorf("%w: %w", domain.ErrCircuitOpen, domain.ErrEmbeddingProviderError)
	embed := &mockEmbedder{
		vec:    []float32{1},
		errFor: map[string]error{rooms[1].EmbeddingText(): openErr},
	}
	svc := newService(newMockVectors(1), &mockRooms{}, embed)

	report := svc.IndexAll(context.Background(), rooms)
	if report.Succeeded != 1 || report.Failed != 3 {
		t.Fatalf("expected 1 ok / 3 failed, got %d / %d", report.Succeeded, report.Failed)
	}
	if embed.callCount != 2 {
		t.Fatalf("expected 2 embed calls, got %d", embed.callCount)
	}
	for _, r := range report.Results[1:] {
		if !errors.Is(r.Err(), domain.ErrCircuitOpen) {
			t.Fatalf("expected circuit open for %s, got %v", r.ID(), r.Err())
		}
	}
}

func TestIndexAll_Empty(t *testing.T) {
	svc := newService(newMockVectors(1), &mockRooms{}, &mockEmbedder{vec: []float32{1}})

	report := svc.IndexAll(context.Background(), nil)
	if report.Succeeded != 0 || report.Failed != 0 || len(report.Results) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

// --- IndexByID / IndexCatalog / Unindex ---

func TestIndexByID(t *testing.T) {
	vectors := newMockVectors(1)
	rooms := &mockRooms{rooms: map[string]domain.Room{"room1": {ID: "room1", Name: "a"}}}
	svc := newService(vectors, rooms, &mockEmbedder{vec: []float32{1}})

	if err := svc.IndexByID(context.Background(), "room1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := vectors.stored["room1"]; !ok {
		t.Fatal("expected room1 to be indexed")
	}

	err := svc.IndexByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIndexCatalog(t *testing.T) {
	vectors := newMockVectors(1)
	rooms := &mockRooms{all: makeRooms(3)}
	svc := newService(vectors, rooms, &mockEmbedder{vec: []float32{1}})

	report, err := svc.IndexCatalog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Succeeded != 3 || len(vectors.stored) != 3 {
		t.Fatalf("expected 3 indexed rooms, got report %+v", report)
	}
}

func TestIndexCatalog_ListError(t *testing.T) {
	rooms := &mockRooms{allErr: domain.ErrStoreUnavailable}
	svc := newService(newMockVectors(1), rooms, &mockEmbedder{vec: []float32{1}})

	if _, err := svc.IndexCatalog(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestUnindex(t *testing.T) {
	vectors := newMockVectors(1)
	svc := newService(vectors, &mockRooms{}, &mockEmbedder{})

	if err := svc.Unindex(context.Background(), "room1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors.deleted) != 1 || vectors.deleted[0] != "room1" {
		t.Fatalf("unexpected deletes: %v", vectors.deleted)
	}
	if err := svc.Unindex(context.Background(), ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
