package result

import (
	"sort"

	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/relevance"
)

// Result is a single ranked search hit.
type Result struct {
	id          string
	vectorScore float64
	payload     image.Payload
	breakdown   relevance.Breakdown
	trace       relevance.Trace
}

// New creates a ranked search result.
func New(id string, vectorScore float64, payload image.Payload, b relevance.Breakdown, tr relevance.Trace) Result {
	return Result{id: id, vectorScore: vectorScore, payload: payload, breakdown: b, trace: tr}
}

// ID returns the store point identifier.
func (r *Result) ID() string { return r.id }

// VectorScore returns the raw similarity from the nearest-neighbour search.
func (r *Result) VectorScore() float64 { return r.vectorScore }

// Payload returns the record attributes.
func (r *Result) Payload() *image.Payload { return &r.payload }

// Breakdown returns the per-tier relevance.
func (r *Result) Breakdown() relevance.Breakdown { return r.breakdown }

// Trace returns the attribute values that matched the query.
func (r *Result) Trace() relevance.Trace { return r.trace }

// Less orders by total relevance, then vector score, then id, all descending except id.
func Less(a, b *Result) bool {
	if a.breakdown.Total != b.breakdown.Total {
		return a.breakdown.Total > b.breakdown.Total
	}
	if a.vectorScore != b.vectorScore {
		return a.vectorScore > b.vectorScore
	}
	return a.id < b.id
}

// Sort orders results in place by Less.
func Sort(rs []Result) {
	sort.SliceStable(rs, func(i, j int) bool { return Less(&rs[i], &rs[j]) })
}

// Truncate returns at most limit results.
func Truncate(rs []Result, limit int) []Result {
	if limit >= 0 && len(rs) > limit {
		return rs[:limit]
	}
	return rs
}
