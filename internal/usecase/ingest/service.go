// Package ingest turns annotation records into stored, embedded image records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	dombatch "github.com/kailas-cloud/roomfinder/internal/domain/batch"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
)

// Defaults for Options.
const (
	DefaultWorkers   = 4
	DefaultChunkSize = 50
)

// ErrMissingID is returned for annotations without any image identifier.
var ErrMissingID = fmt.Errorf("annotation has no image_id: %w", domain.ErrValidation)

// Options tunes a load.
type Options struct {
	Workers   int // concurrent embedding workers
	ChunkSize int // records per store write
}

// Service embeds annotations on a worker pool and upserts them in chunks.
type Service struct {
	repo   Upserter
	embed  domain.Embedder
	opts   Options
	logger *zap.Logger
}

// New creates an ingest service.
func New(repo Upserter, embed domain.Embedder, opts Options, logger *zap.Logger) *Service {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Service{repo: repo, embed: embed, opts: opts, logger: logger}
}

// PointID derives the stable storage id of an annotated image.
func PointID(originalID string) string {
	return uuid.NewMD5(uuid.NameSpaceURL, []byte(originalID)).String()
}

// Load prepares every annotation and stores the valid ones.
// The returned results are index-aligned with items.
func (s *Service) Load(ctx context.Context, items []Annotation) ([]dombatch.Result, error) {
	results := make([]dombatch.Result, len(items))
	records := make([]*image.Record, len(items))

	pool, err := ants.NewPool(s.opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[i], records[i] = s.prepare(ctx, &items[i])
		}); err != nil {
			wg.Done()
			results[i] = dombatch.NewError(lineID(&items[i]), fmt.Errorf("submit: %w", err))
		}
	}
	wg.Wait()

	s.store(ctx, results, records)

	sum := dombatch.Summarize(results)
	s.logger.Info("Annotations loaded",
		zap.Int("total", len(items)),
		zap.Int("ok", sum.OK),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
	)
	return results, ctx.Err()
}

// prepare validates, normalizes and embeds one annotation.
func (s *Service) prepare(ctx context.Context, a *Annotation) (dombatch.Result, *image.Record) {
	id := lineID(a)
	if a.Err != nil {
		return dombatch.NewError(id, a.Err), nil
	}
	if err := ctx.Err(); err != nil {
		return dombatch.NewError(id, err), nil
	}

	originalID := annotationID(a.Raw)
	if originalID == "" {
		return dombatch.NewError(id, ErrMissingID), nil
	}
	if image.IsTemplate(a.Raw) {
		s.logger.Warn("Skipping template response", zap.String("image_id", originalID))
		return dombatch.NewSkipped(originalID, "template response"), nil
	}

	payload := image.Normalize(a.Raw)
	if payload.OriginalID == "" {
		payload.OriginalID = originalID
	}

	texts := payload.EmbeddingTexts()
	inputs := make([]string, len(image.VectorNames))
	for i, name := range image.VectorNames {
		inputs[i] = texts[name]
		if inputs[i] == "" {
			inputs[i] = image.Unknown
		}
	}

	emb, err := domain.EmbedMany(ctx, s.embed, inputs)
	if err != nil {
		return dombatch.NewError(originalID, fmt.Errorf("embed: %w", err)), nil
	}

	rec := &image.Record{
		ID:      PointID(originalID),
		Vectors: make(map[string][]float32, len(image.VectorNames)),
		Payload: payload,
	}
	for i, name := range image.VectorNames {
		rec.Vectors[name] = emb.Embeddings[i]
	}
	return dombatch.NewOK(originalID), rec
}

// store writes prepared records in chunks; a failed chunk marks its items failed.
func (s *Service) store(ctx context.Context, results []dombatch.Result, records []*image.Record) {
	idx := make([]int, 0, s.opts.ChunkSize)
	chunk := make([]image.Record, 0, s.opts.ChunkSize)

	flush := func() {
		if len(chunk) == 0 {
			return
		}
		if err := s.repo.Upsert(ctx, chunk); err != nil {
			s.logger.Error("Failed to store chunk", zap.Int("size", len(chunk)), zap.Error(err))
			for _, i := range idx {
				results[i] = dombatch.NewError(results[i].ID(), fmt.Errorf("upsert: %w", err))
			}
		}
		idx, chunk = idx[:0], chunk[:0]
	}

	for i, rec := range records {
		if rec == nil {
			continue
		}
		idx = append(idx, i)
		chunk = append(chunk, *rec)
		if len(chunk) == s.opts.ChunkSize {
			flush()
		}
	}
	flush()
}

// EnsureIndex creates the index and logs whether it was new.
func EnsureIndex(ctx context.Context, idx IndexEnsurer, logger *zap.Logger) error {
	created, err := idx.EnsureIndex(ctx)
	if err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	logger.Info("Search index ready", zap.Bool("created", created))
	return nil
}

// JoinErrors collects every failure among results.
func JoinErrors(rs []dombatch.Result) error {
	var errs []error
	for _, r := range rs {
		if r.Err() != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.ID(), r.Err()))
		}
	}
	return errors.Join(errs...)
}

func annotationID(raw map[string]any) string {
	for _, k := range []string{"image_id", "original_id", "id"} {
		if v, ok := raw[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func lineID(a *Annotation) string {
	if id := annotationID(a.Raw); id != "" {
		return id
	}
	return fmt.Sprintf("line:%d", a.Line)
}
