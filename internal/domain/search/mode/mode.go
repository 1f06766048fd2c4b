package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	// Hierarchical detects the room type and gates results on it before ranking.
	Hierarchical Mode = "hierarchical"
	// Flat skips room detection and ranks by fused similarity with a loose tag filter.
	Flat Mode = "flat"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hierarchical || m == Flat
}
