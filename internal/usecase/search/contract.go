package search

import (
	"context"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/enhance"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
	"github.com/kailas-cloud/roomfinder/internal/usecase/corpus"
	"github.com/kailas-cloud/roomfinder/internal/usecase/detection"
)

// VectorStore runs nearest-neighbour searches over one named vector.
type VectorStore interface {
	Search(ctx context.Context, vectorName string, vec []float32, limit int, filters filter.Expression) ([]image.Hit, error)
}

// Corpus provides the controlled vocabulary.
type Corpus interface {
	Get(ctx context.Context) (corpus.Snapshot, error)
}

// Detector infers the room type of a query.
type Detector interface {
	Detect(ctx context.Context, query string, roomTypes []string) (detection.Result, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Recorder receives search outcomes for metrics.
type Recorder interface {
	ObserveSearch(strategy, outcome string)
	ObserveStage(stage string, candidates int)
}

// Learning exposes the query history behind the history strategy.
type Learning interface {
	Insights() detection.Insights
	Reset()
	SetEnabled(on bool)
	Enabled() bool
}

// QueryEnhancer rewrites a query into one text per named vector.
type QueryEnhancer interface {
	Enhance(ctx context.Context, query string) (enhance.Enhancement, error)
}

// Completer suggests full queries for a partial one.
type Completer interface {
	Complete(ctx context.Context, partial string) ([]string, error)
}
