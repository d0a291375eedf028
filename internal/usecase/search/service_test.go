package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/staysearch/internal/domain"
	"github.com/kailas-cloud/staysearch/internal/domain/search/filter"
	"github.com/kailas-cloud/staysearch/internal/domain/search/request"
)

// --- Mocks ---

type mockVectors struct {
	records []domain.VectorRecord
	err     error
	called  bool
}

func (m *mockVectors) LoadAll(_ context.Context) ([]domain.VectorRecord, error) {
	m.called = true
	return m.records, m.err
}

type mockRooms struct {
	rooms   map[string]domain.Room
	errFor  map[string]error
	lookups []string
}

func (m *mockRooms) FindByID(_ context.Context, id string) (domain.Room, error) {
	m.lookups = append(m.lookups, id)
	if err, ok := m.errFor[id]; ok {
		return domain.Room{}, err
	}
	r, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- Fixtures ---

func record(id string, vec ...float32) domain.VectorRecord {
	return domain.VectorRecord{EntityID: id, Embedding: vec, Dimension: len(vec)}
}

func fixtureVectors() *mockVectors {
	return &mockVectors{records: []domain.VectorRecord{
		record("room2", 0, 1),
		record("room1", 1, 0),
		record("room3", 0.7, 0.7),
	}}
}

func fixtureRooms() *mockRooms {
	return &mockRooms{rooms: map[string]domain.Room{
		"room1": {ID: "room1", Name: "Sea loft", PropertyType: "apartment", RoomType: "entire", Price: 120},
		"room2": {ID: "room2", Name: "Garden room", PropertyType: "house", RoomType: "private", Price: 80},
		"room3": {ID: "room3", Name: "Penthouse", PropertyType: "apartment", RoomType: "entire", Price: 300},
	}}
}

func mustRequest(t *testing.T, count *int, f filter.Filter) *request.Request {
	t.Helper()
	req, err := request.New("sunny flat near the sea", count, f)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Room.ID
	}
	return out
}

func assertIDs(t *testing.T, got []Result, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func newService(v *mockVectors, r *mockRooms, e *mockEmbedder) *Service {
	return New(v, r, e, Timeouts{}, nil)
}

// --- Search ---

func TestSearch_RanksByDotProduct(t *testing.T) {
	svc := newService(fixtureVectors(), fixtureRooms(), &mockEmbedder{vec: []float32{0.9, 0.1}})

	results, err := svc.Search(context.Background(), mustRequest(t, nil, filter.Filter{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "room1", "room3", "room2")

	wantScores := []float64{0.9, 0.7, 0.1}
	for i, r := range results {
		if diff := r.Score - wantScores[i]; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("result %d score = %v, want %v", i, r.Score, wantScores[i])
		}
	}
}

func TestSearch_UnitQueryScores(t *testing.T) {
	svc := newService(fixtureVectors(), fixtureRooms(), &mockEmbedder{vec: []float32{1, 0}})

	results, err := svc.Search(context.Background(), mustRequest(t, nil, filter.Filter{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "room1", "room3", "room2")

	if results[0].Score != 1.0 {
		t.Errorf("room1 score = %v, want 1.0", results[0].Score)
	}
	if diff := results[1].Score - 0.7; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("room3 score = %v, want 0.7", results[1].Score)
	}
	if results[2].Score != 0.0 {
		t.Errorf("room2 score = %v, want exactly 0.0", results[2].Score)
	}
}

func TestSearch_PriceFilterExcludesRoom(t *testing.T) {
	f, err := filter.New("", "", nil, floatPtr(200), nil)
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	svc := newService(fixtureVectors(), fixtureRooms(), &mockEmbedder{vec: []float32{0.9, 0.1}})

	results, err := svc.Search(context.Background(), mustRequest(t, intPtr(2), f))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "room1", "room2")
}

func TestSearch_TopOne(t *testing.T) {
	svc := newService(fixtureVectors(), fixtureRooms(), &mockEmbedder{vec: []float32{0.9, 0.1}})

	results, err := svc.Search(context.Background(), mustRequest(t, intPtr(1), filter.Filter{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "room1")
}

func TestSearch_AttributeFilter(t *testing.T) {
	f, err := filter.New("apartment", "entire", floatPtr(100), nil, nil)
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	svc := newService(fixtureVectors(), fixtureRooms(), &mockEmbedder{vec: []float32{0, 1}})

	results, err := svc.Search(context.Background(), mustRequest(t, nil, f))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "room3", "room1")
}

func TestSearch_DropsVanishedRooms(t *testing.T) {
	rooms := fixtureRooms()
	delete(rooms.rooms, "room3")
	svc := newService(fixtureVectors(), rooms, &mockEmbedder{vec: []float32{0.9, 0.1}})

	results, err := svc.Search(context.Background(), mustRequest(t, nil, filter.Filter{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, results, "room1", "room2")
}

func TestSearch_DocumentStoreErrorAborts(t *testing.T) {
	rooms := fixtureRooms()
	rooms.errFor = map[string]error{"room3": domain.ErrStoreUnavailable}
	svc := newService(fixtureVectors(), rooms, &mockEmbedder{vec: []float32{0.9, 0.1}})

	_, err := svc.Search(context.Background(), mustRequest(t, nil, filter.Filter{}))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSearch_EmbedderError(t *testing.T) {
	vectors := fixtureVectors()
	svc := newService(vectors, fixtureRooms(), &mockEmbedder{err: domain.ErrEmbeddingProviderError})

	_, err := svc.Search(context.Background(), mustRequest(t, nil, filter.Filter{}))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if vectors.called {
		t.Fatal("vector store must not be read after embedding failure")
	}
}

func TestSearch_EmptyEmbedding(t *testing.T) {
	svc := newService(fixtureVectors(), fixtureRooms(), &mockEmbedder{vec: nil})

	_, err := svc.Search(context.Background(), mustRequest(t, nil, filter.Filter{}))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestSearch_VectorStoreError(t *testing.T) {
	vectors := &mockVectors{err: domain.ErrStoreUnavailable}
	svc := newService(vectors, fixtureRooms(), &mockEmbedder{vec: []float32{1, 0}})

	_, err := svc.Search(context.Background(), mustRequest(t, nil, filter.Filter{}))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	rooms := fixtureRooms()
	svc := newService(&mockVectors{}, rooms, &mockEmbedder{vec: []float32{1, 0}})

	results, err := svc.Search(context.Background(), mustRequest(t, nil, filter.Filter{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", ids(results))
	}
	if len(rooms.lookups) != 0 {
		t.Fatalf("expected no document lookups, got %v", rooms.lookups)
	}
}

// --- rank ---

func TestRank_TiesBrokenByID(t *testing.T) {
	got := rank([]float32{1, 1}, []domain.VectorRecord{
		record("b", 1, 0),
		record("a", 0, 1),
		record("c", 2, 2),
	})
	want := []string{"c", "a", "b"}
	for i, c := range got {
		if c.EntityID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, c.EntityID, want[i])
		}
	}
}

func TestRank_ExcludesDimensionMismatch(t *testing.T) {
	got := rank([]float32{1, 0}, []domain.VectorRecord{
		record("ok", 1, 0),
		record("bad", 1, 0, 0),
	})
	if len(got) != 1 || got[0].EntityID != "ok" {
		t.Fatalf("expected only matching dimension, got %+v", got)
	}
}

func TestRank_NegativeScoresKept(t *testing.T) {
	got := rank([]float32{1, 0}, []domain.VectorRecord{
		record("neg", -1, 0),
		record("zero", 0, 1),
	})
	if len(got) != 2 || got[0].EntityID != "zero" || got[1].Score != -1 {
		t.Fatalf("unexpected ranking: %+v", got)
	}
}

// --- topK ---

func TestTopK(t *testing.T) {
	items := []int{5, 4, 3}

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"prefix", 2, 2},
		{"exact", 3, 3},
		{"larger than input", 10, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := topK(items, tc.n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.want || got[0] != 5 {
				t.Fatalf("got %v", got)
			}
		})
	}
}

func TestTopK_NonPositive(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := topK([]int{1}, n); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("n=%d: expected ErrInvalidArgument, got %v", n, err)
		}
	}
}
