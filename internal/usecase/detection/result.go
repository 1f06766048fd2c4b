// Package detection infers the room type a query is about.
package detection

// Source names the strategy that produced a detection.
type Source string

// Strategies in priority order.
const (
	SourceAI        Source = "ai"
	SourceDataMatch Source = "data_match"
	SourceSemantic  Source = "semantic"
	SourcePattern   Source = "pattern"
	SourceHistory   Source = "history"
	SourceNone      Source = "none"
)

// Fixed confidences of the cascade strategies.
const (
	ConfidenceDataMatch = 0.9
	ConfidenceSemantic  = 0.8
	ConfidencePattern   = 0.7
	ConfidenceHistory   = 0.6
)

// Result is the outcome of a detection. RoomType is empty when nothing was detected.
type Result struct {
	RoomType   string  `json:"detected_room_type"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
}

// Detected reports whether a room type was found.
func (r Result) Detected() bool { return r.RoomType != "" }

// None is the empty detection.
var None = Result{Source: SourceNone}
