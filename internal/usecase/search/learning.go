package search

import (
	"fmt"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/usecase/detection"
)

// ErrLearningDisabled is returned when the service runs without a query history.
var ErrLearningDisabled = fmt.Errorf("query learning is not configured: %w", domain.ErrNotFound)

// Insights summarizes the query history.
func (s *Service) Insights() (detection.Insights, error) {
	if s.learning == nil {
		return detection.Insights{}, ErrLearningDisabled
	}
	return s.learning.Insights(), nil
}

// ResetLearning drops all recorded queries.
func (s *Service) ResetLearning() error {
	if s.learning == nil {
		return ErrLearningDisabled
	}
	s.learning.Reset()
	return nil
}

// SetLearning turns history recording on or off and returns the new state.
func (s *Service) SetLearning(on bool) (bool, error) {
	if s.learning == nil {
		return false, ErrLearningDisabled
	}
	s.learning.SetEnabled(on)
	return s.learning.Enabled(), nil
}
