package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/mode"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/relevance"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 1024
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Bounds overrides the default and maximum result limits. Zero fields keep the package defaults.
type Bounds struct {
	Default int
	Max     int
}

// Request is a validated search query.
type Request struct {
	query      string
	searchMode mode.Mode
	filters    filter.Expression
	limit      int
	words      []string
}

// New validates and normalizes search parameters.
// An empty limit takes the default; a limit above the maximum is clamped.
func New(query string, m mode.Mode, filters filter.Expression, limit int, bounds Bounds) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.NewValidationError("query", "must not be empty")
	}
	if len(query) > MaxQueryLength {
		return Request{}, domain.NewValidationError("query", fmt.Sprintf("too long (max %d chars)", MaxQueryLength))
	}
	if m == "" {
		m = mode.Hierarchical
	}
	if !m.IsValid() {
		return Request{}, domain.NewValidationError("mode", fmt.Sprintf("unsupported value %q", m))
	}
	if limit < 0 {
		return Request{}, domain.NewValidationError("limit", "must be positive")
	}

	def, maxLimit := bounds.Default, bounds.Max
	if def <= 0 {
		def = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if limit == 0 {
		limit = def
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Request{
		query:      query,
		searchMode: m,
		filters:    filters,
		limit:      limit,
		words:      relevance.Tokenize(query),
	}, nil
}

// Query returns the trimmed search text.
func (r *Request) Query() string { return r.query }

// Normalized returns the lower-cased query used for detection.
func (r *Request) Normalized() string { return strings.ToLower(r.query) }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// WithMode returns a copy of the request using m.
func (r Request) WithMode(m mode.Mode) Request {
	r.searchMode = m
	return r
}

// Filters returns the facet pre-filter.
func (r *Request) Filters() filter.Expression { return r.filters }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Words returns the distinct query words, stop words removed.
func (r *Request) Words() []string { return r.words }
