package staysearch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/staysearch/internal/domain"
	dombatch "github.com/kailas-cloud/staysearch/internal/domain/batch"
	"github.com/kailas-cloud/staysearch/internal/domain/search/filter"
	"github.com/kailas-cloud/staysearch/internal/domain/search/request"
	searchuc "github.com/kailas-cloud/staysearch/internal/usecase/search"
)

// Room is a bookable unit of the catalog.
type Room struct {
	ID           string
	Name         string
	Description  string
	PropertyType string
	RoomType     string
	Price        float64
	Amenities    []string
}

// SearchResult is one ranked room with its similarity score.
type SearchResult struct {
	Room  Room
	Score float64
}

// Page is one page of the room listing.
type Page struct {
	Rooms      []Room
	Page       int
	Limit      int
	TotalPages int
	Total      int
}

// IndexError is the failure of one room during IndexAll.
type IndexError struct {
	ID  string
	Err error
}

// IndexReport summarizes an IndexAll run.
type IndexReport struct {
	Total     int
	Succeeded int
	Failed    int
	Errors    []IndexError
}

// SearchOption narrows a search.
type SearchOption func(*searchConfig)

type searchConfig struct {
	count        *int
	propertyType string
	roomType     string
	minPrice     *float64
	maxPrice     *float64
	amenities    []string
}

// Limit sets the maximum number of results.
func Limit(n int) SearchOption { return func(c *searchConfig) { c.count = &n } }

// PropertyType keeps rooms of exactly this property type.
func PropertyType(t string) SearchOption { return func(c *searchConfig) { c.propertyType = t } }

// RoomType keeps rooms of exactly this room type.
func RoomType(t string) SearchOption { return func(c *searchConfig) { c.roomType = t } }

// MinPrice keeps rooms priced at or above p.
func MinPrice(p float64) SearchOption { return func(c *searchConfig) { c.minPrice = &p } }

// MaxPrice keeps rooms priced at or below p.
func MaxPrice(p float64) SearchOption { return func(c *searchConfig) { c.maxPrice = &p } }

// Amenities keeps rooms offering every listed amenity.
func Amenities(a ...string) SearchOption { return func(c *searchConfig) { c.amenities = a } }

// RoomService reads, indexes and searches rooms.
type RoomService struct {
	rooms    roomWriter
	search   searchUseCase
	listing  listingUseCase
	indexing indexingUseCase
	limits   request.Limits
	obs      *observer
}

// Put writes a room to the document store without indexing it.
func (s *RoomService) Put(ctx context.Context, room Room) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("room.put", start, err) }()

	r := toInternalRoom(room)
	if err = s.rooms.Upsert(ctx, &r); err != nil {
		return fmt.Errorf("put room: %w", err)
	}
	return nil
}

// PutAndIndex writes a room and stores its embedding.
func (s *RoomService) PutAndIndex(ctx context.Context, room Room) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("room.put_index", start, err) }()

	r := toInternalRoom(room)
	if err = s.rooms.Upsert(ctx, &r); err != nil {
		return fmt.Errorf("put room: %w", err)
	}
	if err = s.indexing.Index(ctx, &r); err != nil {
		return fmt.Errorf("index room: %w", err)
	}
	return nil
}

// Get reads one room from the document store.
func (s *RoomService) Get(ctx context.Context, id string) (_ Room, err error) {
	start := time.Now()
	defer func() { s.obs.observe("room.get", start, err) }()

	r, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		return Room{}, fmt.Errorf("get room: %w", err)
	}
	return fromInternalRoom(&r), nil
}

// Index embeds a stored room. Indexing again overwrites the previous vector.
func (s *RoomService) Index(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("room.index", start, err) }()

	if err = s.indexing.IndexByID(ctx, id); err != nil {
		return fmt.Errorf("index room: %w", err)
	}
	return nil
}

// IndexAll embeds every stored room. Failed rooms are reported, not returned as an error.
func (s *RoomService) IndexAll(ctx context.Context) (_ IndexReport, err error) {
	start := time.Now()
	defer func() { s.obs.observe("room.index_all", start, err) }()

	report, err := s.indexing.IndexCatalog(ctx)
	if err != nil {
		return IndexReport{}, fmt.Errorf("index all: %w", err)
	}
	return fromInternalReportBatch(report), nil
}

// Unindex removes the embedding of a room. The room itself stays in the document store.
func (s *RoomService) Unindex(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("room.unindex", start, err) }()

	if err = s.indexing.Unindex(ctx, id); err != nil {
		return fmt.Errorf("unindex room: %w", err)
	}
	return nil
}

// Search ranks indexed rooms by similarity to query and applies the filters in opts.
func (s *RoomService) Search(ctx context.Context, query string, opts ...SearchOption) (_ []SearchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("room.search", start, err) }()

	cfg := &searchConfig{}
	for _, o := range opts {
		o(cfg)
	}

	f, err := filter.New(cfg.propertyType, cfg.roomType, cfg.minPrice, cfg.maxPrice, cfg.amenities)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	req, err := s.limits.New(query, cfg.count, f)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := s.search.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromInternalResults(results), nil
}

// List returns one listing page. Zero page or limit selects the default.
// A page may be up to one cache TTL old.
func (s *RoomService) List(ctx context.Context, page, limit int) (_ Page, err error) {
	start := time.Now()
	defer func() { s.obs.observe("room.list", start, err) }()

	payload, err := s.listing.ListPage(ctx, page, limit)
	if err != nil {
		return Page{}, fmt.Errorf("list rooms: %w", err)
	}

	var p domain.Page
	if err = json.Unmarshal(payload, &p); err != nil {
		return Page{}, fmt.Errorf("decode page: %w", err)
	}
	rooms := make([]Room, len(p.Items))
	for i := range p.Items {
		rooms[i] = fromInternalRoom(&p.Items[i])
	}
	return Page{Rooms: rooms, Page: p.Page, Limit: p.Limit, TotalPages: p.TotalPages, Total: p.Total}, nil
}

func toInternalRoom(r Room) domain.Room {
	return domain.Room{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		PropertyType: r.PropertyType,
		RoomType:     r.RoomType,
		Price:        r.Price,
		Amenities:    r.Amenities,
	}
}

func fromInternalRoom(r *domain.Room) Room {
	return Room{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		PropertyType: r.PropertyType,
		RoomType:     r.RoomType,
		Price:        r.Price,
		Amenities:    r.Amenities,
	}
}

func fromInternalResults(results []searchuc.Result) []SearchResult {
	out := make([]SearchResult, len(results))
	for i := range results {
		out[i] = SearchResult{Room: fromInternalRoom(&results[i].Room), Score: results[i].Score}
	}
	return out
}

func fromInternalReportBatch(report dombatch.Report) IndexReport {
	out := IndexReport{
		Total:     len(report.Results),
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
	}
	for _, res := range report.Errors() {
		out.Errors = append(out.Errors, IndexError{ID: res.ID(), Err: res.Err()})
	}
	return out
}
