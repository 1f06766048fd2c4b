package chi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/roomtype"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/mode"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/relevance"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/request"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/roomfinder/internal/usecase/health"
	searchuc "github.com/kailas-cloud/roomfinder/internal/usecase/search"
)

// facetParams are the query parameters pushed down to the store as exact tag filters.
var facetParams = []string{filter.FieldBudgetCategory, filter.FieldSpaceType, filter.FieldDesignTheme}

// Server serves the image search API.
type Server struct {
	search Searcher
	health HealthChecker
	bounds request.Bounds
}

// NewServer creates an HTTP API server. bounds caps the result limit per request.
func NewServer(search Searcher, health HealthChecker, bounds request.Bounds) *Server {
	return &Server{search: search, health: health, bounds: bounds}
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/images", func(r chi.Router) {
		r.Get("/search", s.SearchImages)
		r.Get("/room-type", s.DetectRoomType)
		r.Get("/room-types", s.RoomTypes)
		r.Get("/suggestions", s.Suggestions)
		r.Get("/query-insights", s.QueryInsights)
		r.Delete("/query-insights", s.ResetQueryInsights)
		r.Put("/learning", s.SetLearning)
	})
}

// ImageItem is a ranked image in a search response.
type ImageItem struct {
	ID                string              `json:"id"`
	Score             float64             `json:"score"`
	RelevanceScore    int                 `json:"relevance_score"`
	Relevance         relevance.Breakdown `json:"relevance_breakdown"`
	MatchedAttributes relevance.Trace     `json:"matched_attributes"`
	Payload           image.Payload       `json:"payload"`
}

// SearchResponse is the body of GET /api/images/search.
type SearchResponse struct {
	Images   []ImageItem       `json:"images"`
	Message  string            `json:"message"`
	Metadata searchuc.Metadata `json:"search_metadata"`
}

// RoomTypeResponse is the body of GET /api/images/room-type.
type RoomTypeResponse struct {
	Query            string                 `json:"query"`
	DetectedRoomType *string                `json:"detected_room_type"`
	Confidence       float64                `json:"confidence"`
	Source           string                 `json:"source"`
	SearchContext    roomtype.SearchContext `json:"search_context"`
}

// RoomTypesResponse is the body of GET /api/images/room-types.
type RoomTypesResponse struct {
	RoomTypes []string `json:"room_types"`
	Count     int      `json:"count"`
}

// LearningRequest is the body of PUT /api/images/learning.
type LearningRequest struct {
	Enabled *bool `json:"enabled"`
}

// LearningResponse reports the learning state after a toggle.
type LearningResponse struct {
	Enabled bool `json:"enabled"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    healthuc.Status                 `json:"status"`
	Checks    map[string]healthuc.CheckResult `json:"checks"`
	RoomTypes int                             `json:"room_types"`
}

// SearchImages handles GET /api/images/search.
func (s *Server) SearchImages(w http.ResponseWriter, r *http.Request) {
	req, err := s.searchRequest(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	out, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]ImageItem, len(out.Results))
	for i := range out.Results {
		items[i] = imageItem(&out.Results[i])
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{
		Images:   items,
		Message:  out.Message,
		Metadata: out.Metadata,
	})
}

// DetectRoomType handles GET /api/images/room-type.
func (s *Server) DetectRoomType(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		s.handleDomainError(w, r, domain.NewValidationError("query", "must not be empty"))
		return
	}

	res, err := s.search.DetectRoomType(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := RoomTypeResponse{
		Query:         query,
		Confidence:    res.Confidence,
		Source:        string(res.Source),
		SearchContext: roomtype.ClassifyContext(query),
	}
	if res.Detected() {
		rt := res.RoomType
		resp.DetectedRoomType = &rt
	}
	writeJSON(w, http.StatusOK, resp)
}

// RoomTypes handles GET /api/images/room-types.
func (s *Server) RoomTypes(w http.ResponseWriter, r *http.Request) {
	rts, err := s.search.AvailableRoomTypes(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if rts == nil {
		rts = []string{}
	}
	writeJSON(w, http.StatusOK, RoomTypesResponse{RoomTypes: rts, Count: len(rts)})
}

// Suggestions handles GET /api/images/suggestions; q is an optional partial query.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	sg, err := s.search.Suggestions(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

// QueryInsights handles GET /api/images/query-insights.
func (s *Server) QueryInsights(w http.ResponseWriter, r *http.Request) {
	in, err := s.search.Insights()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// ResetQueryInsights handles DELETE /api/images/query-insights.
func (s *Server) ResetQueryInsights(w http.ResponseWriter, r *http.Request) {
	if err := s.search.ResetLearning(); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetLearning handles PUT /api/images/learning.
func (s *Server) SetLearning(w http.ResponseWriter, r *http.Request) {
	var req LearningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body", "")
		return
	}
	if req.Enabled == nil {
		s.handleDomainError(w, r, domain.NewValidationError("enabled", "is required"))
		return
	}

	on, err := s.search.SetLearning(*req.Enabled)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LearningResponse{Enabled: on})
}

// HealthCheck handles GET /health. A degraded service still answers 200.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status:    report.Status,
		Checks:    report.Checks,
		RoomTypes: report.RoomTypes,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) searchRequest(r *http.Request) (request.Request, error) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return request.Request{}, domain.NewValidationError("limit", "must be an integer")
		}
		if n <= 0 {
			return request.Request{}, domain.NewValidationError("limit", "must be positive")
		}
		limit = n
	}

	facets := make(map[string]string, len(facetParams))
	for _, name := range facetParams {
		facets[name] = q.Get(name)
	}
	filters, err := filter.FromFacets(facets)
	if err != nil {
		return request.Request{}, domain.NewValidationError("filters", err.Error())
	}

	return request.New(q.Get("query"), mode.Mode(q.Get("mode")), filters, limit, s.bounds)
}

func imageItem(r *result.Result) ImageItem {
	b := r.Breakdown()
	return ImageItem{
		ID:                r.ID(),
		Score:             r.VectorScore(),
		RelevanceScore:    b.Total,
		Relevance:         b,
		MatchedAttributes: r.Trace(),
		Payload:           *r.Payload(),
	}
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if tokens, calls := usage.Snapshot(); calls > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
