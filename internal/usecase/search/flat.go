package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/roomtype"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/enhance"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/relevance"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/request"
	"github.com/kailas-cloud/roomfinder/internal/logger"
)

// FusionWeights are the per-vector weights of flat multi-vector search.
var FusionWeights = []struct {
	Vector string
	Weight float64
}{
	{image.VectorPrimary, 0.4},
	{image.VectorSemantic, 0.35},
	{image.VectorObject, 0.25},
}

// flat searches all named vectors, fuses the scores and applies a best-effort tag filter
// over the whole fused pool. No room type is detected or enforced. Each vector is
// queried with its own text when a query enhancer is configured.
func (s *Service) flat(ctx context.Context, req *request.Request) (Outcome, error) {
	if strings.TrimSpace(req.Query()) == "" {
		return Outcome{}, domain.NewValidationError("query", "must not be empty")
	}

	enh, err := s.enhance(ctx, req.Query())
	if err != nil {
		return Outcome{}, failAt(domain.StageFetch, err)
	}
	vectors, err := s.embedTexts(ctx, enh)
	if err != nil {
		return Outcome{}, failAt(domain.StageFetch, err)
	}

	k := req.Limit() * s.cfg.OverfetchFactor
	perVector := make([][]image.Hit, len(FusionWeights))
	g, gctx := errgroup.WithContext(ctx)
	for i, fw := range FusionWeights {
		g.Go(func() error {
			hits, err := s.store.Search(gctx, fw.Vector, vectors[enh.TextFor(fw.Vector)], k, req.Filters())
			if err != nil {
				return fmt.Errorf("search %s: %w", fw.Vector, storeFailure(err))
			}
			perVector[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, failAt(domain.StageFetch, err)
	}

	hits := fuse(perVector)
	md := Metadata{
		SearchStrategy:    StrategyFlat,
		SearchContext:     roomtype.ClassifyContext(req.Normalized()),
		SecondaryFilter:   FilterNone,
		CandidatesFetched: len(hits),
	}
	for _, fw := range FusionWeights {
		md.VectorsSearched = append(md.VectorsSearched, fw.Vector)
	}
	if s.enhancer != nil {
		md.QueryEnhancement = &enh
	}
	s.stage(domain.StageFetch, len(hits))

	if err := ctx.Err(); err != nil {
		return Outcome{}, failAt(domain.StageFilter, err)
	}

	words := req.Words()
	if len(words) > 0 {
		filtered := keep(hits, func(p *image.Payload) bool { return relevance.AnyMatch(words, p.AllValues()) })
		if len(filtered) > 0 {
			md.SecondaryFilter = FilterBestEffort
			hits = filtered
		}
	}
	md.AfterSecondaryFilter = len(hits)
	s.stage(domain.StageFilter, len(hits))

	results := rank(hits, words, "", req.Limit())
	md.ResultsReturned = len(results)

	logger.FromContext(ctx).Debug("Flat search finished",
		zap.Int("candidates", md.CandidatesFetched),
		zap.Int("returned", md.ResultsReturned))

	return Outcome{
		Results:  results,
		Message:  fmt.Sprintf("Found %d matching images", len(results)),
		Metadata: md,
	}, nil
}

// enhance rewrites the query per vector. Without an enhancer, or when it fails, every
// vector gets the raw query. Only the caller's cancellation is returned as an error.
func (s *Service) enhance(ctx context.Context, query string) (enhance.Enhancement, error) {
	if s.enhancer == nil {
		return enhance.Fallback(query), nil
	}
	e, err := s.enhancer.Enhance(ctx, query)
	if err == nil {
		return e, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return enhance.Enhancement{}, ctxErr
	}
	logger.FromContext(ctx).Warn("Query enhancement failed, searching with the raw query", zap.Error(err))
	return enhance.Fallback(query), nil
}

// embedTexts embeds each distinct vector text once.
func (s *Service) embedTexts(ctx context.Context, enh enhance.Enhancement) (map[string][]float32, error) {
	texts := make([]string, 0, len(FusionWeights))
	seen := make(map[string]struct{}, len(FusionWeights))
	for _, fw := range FusionWeights {
		t := enh.TextFor(fw.Vector)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		texts = append(texts, t)
	}

	embs := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range texts {
		g.Go(func() error {
			res, err := s.embed.Embed(gctx, t)
			if err != nil {
				return embeddingFailure(err)
			}
			domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
			embs[i] = res.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]float32, len(texts))
	for i, t := range texts {
		out[t] = embs[i]
	}
	return out, nil
}

// fuse sums weighted scores per id across vectors, best first.
// perVector is indexed like FusionWeights.
func fuse(perVector [][]image.Hit) []image.Hit {
	byID := make(map[string]*image.Hit)
	order := make([]string, 0)
	for i, hits := range perVector {
		w := FusionWeights[i].Weight
		for _, h := range hits {
			acc, ok := byID[h.ID]
			if !ok {
				acc = &image.Hit{ID: h.ID, Payload: h.Payload}
				byID[h.ID] = acc
				order = append(order, h.ID)
			}
			acc.Score += h.Score * w
		}
	}

	out := make([]image.Hit, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}
