package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/roomtype"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/relevance"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/request"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/result"
	"github.com/kailas-cloud/roomfinder/internal/logger"
)

// hierarchical detects the room type, over-fetches on the primary vector, gates by room,
// filters by the remaining query words and ranks by relevance.
func (s *Service) hierarchical(ctx context.Context, req *request.Request) (Outcome, error) {
	if strings.TrimSpace(req.Query()) == "" {
		return Outcome{}, domain.NewValidationError("query", "must not be empty")
	}
	log := logger.FromContext(ctx)

	snap, err := s.corpus.Get(ctx)
	if err != nil {
		return Outcome{}, failAt(domain.StageDetection, storeFailure(err))
	}
	det, err := s.detector.Detect(ctx, req.Query(), snap.RoomTypes)
	if err != nil {
		return Outcome{}, failAt(domain.StageDetection, err)
	}

	md := Metadata{
		SearchStrategy:  StrategyHierarchical,
		SearchContext:   roomtype.ClassifyContext(req.Normalized()),
		SecondaryFilter: FilterNone,
		VectorsSearched: []string{image.VectorPrimary},
	}
	md.setDetection(det)

	hits, err := s.fetch(ctx, image.VectorPrimary, req, req.Limit()*s.cfg.OverfetchFactor)
	if err != nil {
		return Outcome{}, failAt(domain.StageFetch, err)
	}
	md.CandidatesFetched = len(hits)
	s.stage(domain.StageFetch, len(hits))

	if err := ctx.Err(); err != nil {
		return Outcome{}, failAt(domain.StageFilter, err)
	}

	words := req.Words()
	if det.Detected() {
		hits = keep(hits, func(p *image.Payload) bool { return roomtype.Matches(p.RoomType, det.RoomType) })
		found := len(hits)
		md.StrictFilteringApplied = true
		md.RoomMatchesFound = &found

		if found == 0 {
			md.AvailableRoomTypes = snap.RoomTypes
			log.Info("No inventory for detected room type",
				zap.String("room_type", det.RoomType),
				zap.Int("candidates", md.CandidatesFetched))
			return Outcome{
				Results:  []result.Result{},
				Message:  fmt.Sprintf("No %s images found", det.RoomType),
				Metadata: md,
			}, nil
		}

		if rest := relevance.Without(words, roomtype.Words(det.RoomType)); len(rest) > 0 {
			md.SecondaryFilter = FilterAttributes
			hits = keep(hits, func(p *image.Payload) bool { return relevance.AnyMatch(rest, p.SecondaryValues()) })
		}
	} else if len(words) > 0 {
		md.SecondaryFilter = FilterAnyAttribute
		hits = keep(hits, func(p *image.Payload) bool { return relevance.AnyMatch(words, p.AllValues()) })
	}
	md.AfterSecondaryFilter = len(hits)
	s.stage(domain.StageFilter, len(hits))

	results := rank(hits, words, det.RoomType, req.Limit())
	md.ResultsReturned = len(results)

	log.Debug("Hierarchical search finished",
		zap.String("room_type", det.RoomType),
		zap.String("detection_source", string(det.Source)),
		zap.Int("candidates", md.CandidatesFetched),
		zap.Int("after_filter", md.AfterSecondaryFilter),
		zap.Int("returned", md.ResultsReturned))

	return Outcome{
		Results:  results,
		Message:  fmt.Sprintf("Found %d matching images", len(results)),
		Metadata: md,
	}, nil
}

// fetch embeds the query and runs one KNN search.
func (s *Service) fetch(ctx context.Context, vectorName string, req *request.Request, k int) ([]image.Hit, error) {
	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return nil, embeddingFailure(err)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	hits, err := s.store.Search(ctx, vectorName, emb.Embedding, k, req.Filters())
	if err != nil {
		return nil, storeFailure(err)
	}
	return hits, nil
}

func keep(hits []image.Hit, pred func(*image.Payload) bool) []image.Hit {
	out := make([]image.Hit, 0, len(hits))
	for i := range hits {
		if pred(&hits[i].Payload) {
			out = append(out, hits[i])
		}
	}
	return out
}

// rank scores, orders and truncates. detectedRoom is "" when nothing was detected.
func rank(hits []image.Hit, words []string, detectedRoom string, limit int) []result.Result {
	out := make([]result.Result, 0, len(hits))
	for i := range hits {
		b, tr := relevance.Score(&hits[i].Payload, words, detectedRoom)
		out = append(out, result.New(hits[i].ID, hits[i].Score, hits[i].Payload, b, tr))
	}
	result.Sort(out)
	return result.Truncate(out, limit)
}
