package staysearch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/staysearch/internal/domain"
)

// keywordEmbedder maps known texts to fixed vectors.
func keywordEmbedder(vectors map[string][]float32) *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		v, ok := vectors[text]
		if !ok {
			return EmbeddingResult{}, fmt.Errorf("no vector for %q", text)
		}
		return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}}
}

var catalog = []Room{
	{ID: "room1", Name: "Loft", Description: "quiet", PropertyType: "Apartment", RoomType: "Entire home", Price: 150},
	{ID: "room2", Name: "Cabin", Description: "woods", PropertyType: "House", RoomType: "Private room", Price: 100},
	{ID: "room3", Name: "Studio", Description: "city", PropertyType: "Apartment", RoomType: "Entire home", Price: 250},
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	emb := keywordEmbedder(map[string][]float32{
		"Loft quiet":   {1, 0},
		"Cabin woods":  {0, 1},
		"Studio city":  {0.7, 0.7},
		"quiet please": {0.9, 0.1},
		"quiet":        {1, 0},
	})
	c, err := New(context.Background(),
		WithMemory(0),
		WithSQLite(":memory:"),
		WithEmbedder(emb),
		WithVectorDimensions(2),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	for _, r := range catalog {
		require.NoError(t, c.Rooms().Put(context.Background(), r))
	}
	return c
}

func resultIDs(results []SearchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Room.ID
	}
	return ids
}

func TestClient_IndexAllAndSearch(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	report, err := c.Rooms().IndexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, IndexReport{Total: 3, Succeeded: 3}, report)

	results, err := c.Rooms().Search(ctx, "quiet please")
	require.NoError(t, err)
	assert.Equal(t, []string{"room1", "room3", "room2"}, resultIDs(results))
	assert.InDelta(t, 0.9, results[0].Score, 1e-6)

	results, err = c.Rooms().Search(ctx, "quiet please", MaxPrice(200), Limit(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"room1", "room2"}, resultIDs(results))

	results, err = c.Rooms().Search(ctx, "quiet please", Limit(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"room1"}, resultIDs(results))

	results, err = c.Rooms().Search(ctx, "quiet please", PropertyType("Apartment"), MinPrice(200))
	require.NoError(t, err)
	assert.Equal(t, []string{"room3"}, resultIDs(results))
}

func TestClient_SearchUnitQuery(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.Rooms().IndexAll(ctx)
	require.NoError(t, err)

	results, err := c.Rooms().Search(ctx, "quiet")
	require.NoError(t, err)
	require.Equal(t, []string{"room1", "room3", "room2"}, resultIDs(results))
	assert.Equal(t, 1.0, results[0].Score)
	assert.InDelta(t, 0.7, results[1].Score, 1e-6)
	assert.Equal(t, 0.0, results[2].Score)
}

func TestClient_SearchValidation(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Rooms().Search(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)

	_, err = c.Rooms().Search(context.Background(), "quiet please", Limit(0))
	assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
}

func TestClient_IndexAllReportsFailures(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.Rooms().Put(ctx, Room{ID: "room4", Name: "Unknown", Description: "text"}))

	report, err := c.Rooms().IndexAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Succeeded)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "room4", report.Errors[0].ID)
	assert.True(t, errors.Is(report.Errors[0].Err, ErrEmbeddingProviderError))
}

func TestClient_IndexAndUnindex(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Rooms().Index(ctx, "room2"))
	results, err := c.Rooms().Search(ctx, "quiet please")
	require.NoError(t, err)
	assert.Equal(t, []string{"room2"}, resultIDs(results))

	require.NoError(t, c.Rooms().Unindex(ctx, "room2"))
	results, err = c.Rooms().Search(ctx, "quiet please")
	require.NoError(t, err)
	assert.Empty(t, results)

	err = c.Rooms().Index(ctx, "ghost")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestClient_PutAndIndex(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	room := Room{ID: "room5", Name: "Loft", Description: "quiet", Price: 90, Amenities: []string{"Wifi"}}
	require.NoError(t, c.Rooms().PutAndIndex(ctx, room))

	got, err := c.Rooms().Get(ctx, "room5")
	require.NoError(t, err)
	assert.Equal(t, room, got)

	results, err := c.Rooms().Search(ctx, "quiet please", Amenities("Wifi"))
	require.NoError(t, err)
	assert.Equal(t, []string{"room5"}, resultIDs(results))
}

func TestClient_SearchDropsRoomsMissingFromCatalog(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	_, err := c.Rooms().IndexAll(ctx)
	require.NoError(t, err)

	_, err = c.docDB.ExecContext(ctx, "DELETE FROM rooms WHERE id = 'room3'")
	require.NoError(t, err)

	results, err := c.Rooms().Search(ctx, "quiet please")
	require.NoError(t, err)
	assert.Equal(t, []string{"room1", "room2"}, resultIDs(results))
}

func TestClient_List(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	page, err := c.Rooms().List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Rooms, 2)
	assert.Equal(t, "room1", page.Rooms[0].ID)

	page, err = c.Rooms().List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Rooms, 1)
	assert.Equal(t, "room3", page.Rooms[0].ID)

	page, err = c.Rooms().List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)

	_, err = c.Rooms().List(ctx, -1, 10)
	assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
}

func TestClient_ListServedFromCache(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	first, err := c.Rooms().List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, first.Rooms, 3)

	require.NoError(t, c.Rooms().Put(ctx, Room{ID: "room9", Name: "Late"}))

	second, err := c.Rooms().List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second, "page must be served from cache within the TTL")
}

func TestClient_HealthAndPing(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	h := c.Health(ctx)
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, map[string]string{"kv": "ok", "documents": "ok"}, h.Checks)
}

// --- fakes for error paths ---

type failingRooms struct{ err error }

func (f failingRooms) Upsert(context.Context, *domain.Room) error { return f.err }

func (f failingRooms) FindByID(context.Context, string) (domain.Room, error) {
	return domain.Room{}, f.err
}

func TestRoomService_WrapsErrors(t *testing.T) {
	svc := &RoomService{rooms: failingRooms{err: domain.ErrStoreUnavailable}}

	err := svc.Put(context.Background(), Room{ID: "r1"})
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "put room")

	_, err = svc.Get(context.Background(), "r1")
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "get room")
}
