package detection

import (
	"context"

	"github.com/kailas-cloud/roomfinder/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Classifier is the optional AI room-type strategy.
// It may return an empty label when it has no opinion.
type Classifier interface {
	Classify(ctx context.Context, query string, roomTypes []string) (label string, confidence float64, err error)
}

// Recorder receives detection outcomes for metrics.
type Recorder interface {
	ObserveDetection(source Source)
}
