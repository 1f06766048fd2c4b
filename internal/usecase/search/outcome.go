package search

import (
	"github.com/kailas-cloud/roomfinder/internal/domain/roomtype"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/enhance"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/result"
	"github.com/kailas-cloud/roomfinder/internal/usecase/detection"
)

// Strategy labels reported in metadata.
const (
	StrategyHierarchical = "hierarchical"
	StrategyFlat         = "flat"
	StrategyFlatFallback = "flat_fallback"
)

// Secondary filter kinds reported in metadata.
const (
	FilterNone         = "none"
	FilterAttributes   = "room_attributes"
	FilterAnyAttribute = "any_attribute"
	FilterBestEffort   = "best_effort"
)

// Metadata explains how a result set was produced.
type Metadata struct {
	SearchStrategy         string                 `json:"search_strategy"`
	DetectedRoomType       *string                `json:"detected_room_type"`
	DetectionConfidence    float64                `json:"detection_confidence"`
	DetectionSource        detection.Source       `json:"detection_source"`
	SearchContext          roomtype.SearchContext `json:"search_context"`
	StrictFilteringApplied bool                   `json:"strict_filtering_applied"`
	SecondaryFilter        string                 `json:"secondary_filter"`
	CandidatesFetched      int                    `json:"candidates_fetched"`
	RoomMatchesFound       *int                   `json:"room_matches_found,omitempty"`
	AfterSecondaryFilter   int                    `json:"after_secondary_filter"`
	ResultsReturned        int                    `json:"results_returned"`
	AvailableRoomTypes     []string               `json:"available_room_types,omitempty"`
	VectorsSearched        []string               `json:"vectors_searched,omitempty"`
	FallbackReason         string                 `json:"fallback_reason,omitempty"`
	QueryEnhancement       *enhance.Enhancement   `json:"query_enhancement,omitempty"`
}

// Outcome is a ranked result set with its provenance.
type Outcome struct {
	Results  []result.Result
	Message  string
	Metadata Metadata
}

func (m *Metadata) setDetection(d detection.Result) {
	m.DetectionSource = d.Source
	m.DetectionConfidence = d.Confidence
	if d.Detected() {
		rt := d.RoomType
		m.DetectedRoomType = &rt
	}
}
