package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/staysearch/internal/domain"
	"github.com/kailas-cloud/staysearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultCount   = 5
	MaxCount       = 100
)

// Request is a validated semantic search query.
type Request struct {
	query   string
	count   int
	filters filter.Filter
}

// Limits bounds the result count of a request.
type Limits struct {
	DefaultCount int
	MaxCount     int
}

// DefaultLimits applies when no limits are configured.
var DefaultLimits = Limits{DefaultCount: DefaultCount, MaxCount: MaxCount}

// New validates search parameters against DefaultLimits.
func New(query string, count *int, filters filter.Filter) (Request, error) {
	return DefaultLimits.New(query, count, filters)
}

// New validates search parameters. A nil count selects l.DefaultCount; an explicit
// count of zero or less is rejected rather than coerced.
func (l Limits) New(query string, count *int, filters filter.Filter) (Request, error) {
	if strings.TrimSpace(query) == "" {
		return Request{}, fmt.Errorf("query is required: %w", domain.ErrInvalidArgument)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidArgument)
	}
	n := l.DefaultCount
	if count != nil {
		n = *count
	}
	if n <= 0 {
		return Request{}, fmt.Errorf("count must be positive, got %d: %w", n, domain.ErrInvalidArgument)
	}
	if n > l.MaxCount {
		return Request{}, fmt.Errorf("count exceeds %d: %w", l.MaxCount, domain.ErrInvalidArgument)
	}
	return Request{query: query, count: n, filters: filters}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Count returns the number of results to return.
func (r *Request) Count() int { return r.count }

// Filters returns the post-ranking filter.
func (r *Request) Filters() filter.Filter { return r.filters }
