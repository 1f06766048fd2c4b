// Package image persists catalog records as HASHes under a vector index.
package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/roomfinder/internal/db"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
)

// store is the consumer interface for image persistence (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchAll(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// Options configures key layout and index parameters.
type Options struct {
	KeyPrefix       string
	Collection      string
	Dimensions      int
	HNSWM           int
	HNSWEFConstruct int
}

// Repo implements the vector store port used by search and ingestion.
type Repo struct {
	store store
	opts  Options
}

// New creates an image repository.
func New(s store, opts Options) *Repo {
	return &Repo{store: s, opts: opts}
}

// IndexName returns the FT index name of the collection.
func (r *Repo) IndexName() string {
	return fmt.Sprintf("%s%s:idx", r.opts.KeyPrefix, r.opts.Collection)
}

func (r *Repo) keyPrefix() string {
	return fmt.Sprintf("%s%s:", r.opts.KeyPrefix, r.opts.Collection)
}

func (r *Repo) key(id string) string {
	return r.keyPrefix() + id
}

// Definition returns the index schema: facet TAGs plus one HNSW field per named vector.
func (r *Repo) Definition() (*db.IndexDefinition, error) {
	b := db.NewIndex(r.IndexName()).
		Prefix(r.keyPrefix()).
		Tag(tagFields...)
	for _, name := range image.VectorNames {
		b = b.VectorHNSW(name, r.opts.Dimensions, db.DistanceCosine, r.opts.HNSWM, r.opts.HNSWEFConstruct)
	}
	return b.Build()
}

// EnsureIndex creates the index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) (created bool, err error) {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return false, fmt.Errorf("check index: %w", err)
	}
	if exists {
		return false, nil
	}

	def, err := r.Definition()
	if err != nil {
		return false, fmt.Errorf("build index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return false, nil
		}
		return false, fmt.Errorf("create index: %w", err)
	}
	return true, nil
}

// Upsert writes records in one pipelined round-trip.
func (r *Repo) Upsert(ctx context.Context, recs []image.Record) error {
	items := make([]db.HashSetItem, 0, len(recs))
	for i := range recs {
		fields, err := toHash(&recs[i])
		if err != nil {
			return err
		}
		items = append(items, db.HashSetItem{Key: r.key(recs[i].ID), Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d images: %w", len(items), err)
	}
	return nil
}

// Delete removes one record.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete image %s: %w", id, err)
	}
	return nil
}

// Search returns the nearest records on one named vector, best first.
func (r *Repo) Search(
	ctx context.Context, vectorName string, vec []float32, limit int, filters filter.Expression,
) ([]image.Hit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.IndexName(),
		VectorField:  vectorName,
		Filters:      filters,
		Vector:       vec,
		K:            limit,
		ReturnFields: append([]string{payloadField}, tagFields...),
	})
	if err != nil {
		return nil, fmt.Errorf("search %s on %s: %w", vectorName, r.opts.Collection, err)
	}
	return r.toHits(sr)
}

// ScanAll lists up to limit records without ranking.
func (r *Repo) ScanAll(ctx context.Context, limit int) ([]image.Hit, error) {
	sr, err := r.store.SearchAll(ctx, &db.ListQuery{
		IndexName:    r.IndexName(),
		KeyPrefix:    r.keyPrefix(),
		Limit:        limit,
		ReturnFields: append([]string{payloadField}, tagFields...),
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.opts.Collection, err)
	}
	return r.toHits(sr)
}

func (r *Repo) toHits(sr *db.SearchResult) ([]image.Hit, error) {
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}
	prefix := r.keyPrefix()
	hits := make([]image.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		p, err := fromFields(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", e.Key, err)
		}
		hits = append(hits, image.Hit{
			ID:      strings.TrimPrefix(e.Key, prefix),
			Score:   e.Score,
			Payload: p,
		})
	}
	return hits, nil
}
