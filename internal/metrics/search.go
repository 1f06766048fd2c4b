package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/roomfinder/internal/usecase/detection"
)

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_requests_total",
			Help:      "Search requests by strategy and outcome",
		},
		[]string{"mode", "outcome"},
	)

	RoomDetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "room_detections_total",
			Help:      "Room type detections by winning strategy",
		},
		[]string{"source"},
	)

	SearchStageCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_stage_candidates",
			Help:      "Candidates remaining after each search stage",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"stage"},
	)

	TagCorpusRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tag_corpus_refresh_total",
			Help:      "Tag corpus refreshes by result",
		},
		[]string{"result"}, // "ok" / "error" / "stale"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(RoomDetectionsTotal)
	prometheus.MustRegister(SearchStageCandidates)
	prometheus.MustRegister(TagCorpusRefreshTotal)
	searchMetricsRegistered = true
}

// SearchRecorder feeds search and detection events into the package metrics.
type SearchRecorder struct{}

// ObserveSearch counts one finished search.
func (SearchRecorder) ObserveSearch(strategy, outcome string) {
	SearchRequestsTotal.WithLabelValues(strategy, outcome).Inc()
}

// ObserveStage records how many candidates survived a stage.
func (SearchRecorder) ObserveStage(stage string, candidates int) {
	SearchStageCandidates.WithLabelValues(stage).Observe(float64(candidates))
}

// ObserveDetection counts the strategy that produced a detection.
func (SearchRecorder) ObserveDetection(source detection.Source) {
	RoomDetectionsTotal.WithLabelValues(string(source)).Inc()
}
