// Package chi exposes the room search API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/staysearch/internal/domain"
	dombatch "github.com/kailas-cloud/staysearch/internal/domain/batch"
	"github.com/kailas-cloud/staysearch/internal/domain/search/filter"
	"github.com/kailas-cloud/staysearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/staysearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/staysearch/internal/usecase/search"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeDimMismatch      = "vector_dim_mismatch"
	codeCircuitOpen      = "embedding_circuit_open"
	codeProviderError    = "embedding_provider_error"
	codeStoreUnavailable = "store_unavailable"
	codeUnauthorized     = "unauthorized"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the room endpoints.
type Server struct {
	search        searcher
	listing       lister
	indexing      indexer
	health        healthChecker
	limits        request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. limits bounds the search result count.
func NewServer(
	search searcher,
	listing lister,
	indexing indexer,
	health healthChecker,
	limits request.Limits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		listing:  listing,
		indexing: indexing,
		health:   health,
		limits:   limits,
		logger:   logger,
	}
	// Order matters: a circuit-open error also wraps ErrEmbeddingProviderError.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeDimMismatch),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrCircuitOpen, http.StatusServiceUnavailable, codeCircuitOpen),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, codeStoreUnavailable),
	}
	return s
}

// Routes mounts the endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/rooms/search", s.SearchRooms)
	r.Get("/rooms", s.ListRooms)
	r.Post("/rooms/index-all", s.IndexAll)
	r.Post("/rooms/{id}/index", s.IndexRoom)
	r.Delete("/rooms/{id}/index", s.UnindexRoom)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

type searchRequest struct {
	Query        string   `json:"query"`
	Count        *int     `json:"count,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	RoomType     string   `json:"room_type,omitempty"`
	MinPrice     *float64 `json:"min_price,omitempty"`
	MaxPrice     *float64 `json:"max_price,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

type searchResultItem struct {
	Room  domain.Room `json:"room"`
	Score float64     `json:"score"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
	Query   string             `json:"query"`
	Count   int                `json:"count"`
}

type batchErrorItem struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type indexAllResponse struct {
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    []batchErrorItem `json:"errors"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRooms handles POST /rooms/search.
func (s *Server) SearchRooms(w http.ResponseWriter, r *http.Request) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	f, err := filter.New(body.PropertyType, body.RoomType, body.MinPrice, body.MaxPrice, body.Amenities)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	req, err := s.limits.New(body.Query, body.Count, f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results: searchResultsToItems(results),
		Query:   req.Query(),
		Count:   len(results),
	})
}

// ListRooms handles GET /rooms. The cached payload is written unchanged.
func (s *Server) ListRooms(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(w, r, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	payload, err := s.listing.ListPage(r.Context(), page, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// IndexAll handles POST /rooms/index-all.
func (s *Server) IndexAll(w http.ResponseWriter, r *http.Request) {
	report, err := s.indexing.IndexCatalog(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(report))
}

// IndexRoom handles POST /rooms/{id}/index.
func (s *Server) IndexRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.indexing.IndexByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UnindexRoom handles DELETE /rooms/{id}/index.
func (s *Server) UnindexRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.indexing.Unindex(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// queryInt parses an optional integer query parameter. Absent means zero.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid "+name+" parameter")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Invalid arguments carry the full message since it only describes the request.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidArgument) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrCircuitOpen,
		domain.ErrEmbeddingProviderError,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func searchResultsToItems(results []searchuc.Result) []searchResultItem {
	items := make([]searchResultItem, len(results))
	for i, r := range results {
		items[i] = searchResultItem{Room: r.Room, Score: r.Score}
	}
	return items
}

func reportToResponse(report dombatch.Report) indexAllResponse {
	failed := report.Errors()
	errs := make([]batchErrorItem, len(failed))
	for i, res := range failed {
		errs[i] = batchErrorItem{ID: res.ID(), Error: safeDomainMessage(res.Err())}
	}
	return indexAllResponse{
		Total:     len(report.Results),
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Errors:    errs,
	}
}
