package ingest

import (
	"context"

	"github.com/kailas-cloud/roomfinder/internal/domain/image"
)

// Upserter stores prepared image records.
type Upserter interface {
	Upsert(ctx context.Context, recs []image.Record) error
}

// IndexEnsurer creates the search index when missing.
type IndexEnsurer interface {
	EnsureIndex(ctx context.Context) (created bool, err error)
}
