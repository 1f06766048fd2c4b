// Package search orchestrates room-gated hierarchical search with a flat multi-vector fallback.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/mode"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/request"
	"github.com/kailas-cloud/roomfinder/internal/logger"
	"github.com/kailas-cloud/roomfinder/internal/usecase/detection"
)

// Config tunes the orchestrator.
type Config struct {
	OverfetchFactor int           // candidates fetched per vector, as a multiple of the limit
	Timeout         time.Duration // per-request deadline, 0 = caller's context only
	FlatFallback    bool          // run flat search when the hierarchical path fails
}

// Option customizes a Service.
type Option func(*Service)

// WithRecorder installs a metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLearning exposes query history controls through the service.
func WithLearning(l Learning) Option {
	return func(s *Service) { s.learning = l }
}

// WithEnhancer rewrites flat-search queries per named vector.
func WithEnhancer(e QueryEnhancer) Option {
	return func(s *Service) { s.enhancer = e }
}

// WithCompleter enables model completions for partial queries in Suggestions.
func WithCompleter(c Completer) Option {
	return func(s *Service) { s.completer = c }
}

// Service is the caller-facing search API.
type Service struct {
	store     VectorStore
	corpus    Corpus
	detector  Detector
	embed     Embedder
	recorder  Recorder
	learning  Learning
	enhancer  QueryEnhancer
	completer Completer
	cfg       Config
}

// New creates a search service.
func New(store VectorStore, c Corpus, d Detector, embed Embedder, cfg Config, opts ...Option) *Service {
	if cfg.OverfetchFactor <= 0 {
		cfg.OverfetchFactor = 10
	}
	s := &Service{store: store, corpus: c, detector: d, embed: embed, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the request in its mode. A failing hierarchical search falls back to
// flat search when enabled; if the fallback fails too, the original error is returned.
func (s *Service) Search(ctx context.Context, req *request.Request) (Outcome, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		out      Outcome
		err      error
		strategy = StrategyHierarchical
	)
	switch req.Mode() {
	case mode.Flat:
		strategy = StrategyFlat
		out, err = s.flat(ctx, req)
	case mode.Hierarchical:
		out, err = s.hierarchical(ctx, req)
		if err != nil && s.canFallBack(ctx, err) {
			logger.FromContext(ctx).Warn("Hierarchical search failed, falling back to flat search",
				zap.String("stage", string(domain.StageOf(err))), zap.Error(err))
			fb, fbErr := s.flat(ctx, req)
			if fbErr == nil {
				strategy = StrategyFlatFallback
				fb.Metadata.SearchStrategy = StrategyFlatFallback
				fb.Metadata.FallbackReason = err.Error()
				out, err = fb, nil
			}
		}
	default:
		return Outcome{}, domain.NewValidationError("mode", fmt.Sprintf("unsupported value %q", req.Mode()))
	}

	s.observe(strategy, err)
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// DetectRoomType returns the detection for query against the current corpus.
func (s *Service) DetectRoomType(ctx context.Context, query string) (detection.Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	snap, err := s.corpus.Get(ctx)
	if err != nil {
		return detection.None, failAt(domain.StageDetection, storeFailure(err))
	}
	res, err := s.detector.Detect(ctx, query, snap.RoomTypes)
	if err != nil {
		return detection.None, failAt(domain.StageDetection, err)
	}
	return res, nil
}

// AvailableRoomTypes lists the distinct room types in the corpus.
func (s *Service) AvailableRoomTypes(ctx context.Context) ([]string, error) {
	snap, err := s.corpus.Get(ctx)
	if err != nil {
		return nil, failAt(domain.StageCorpus, storeFailure(err))
	}
	return snap.RoomTypes, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Service) canFallBack(ctx context.Context, err error) bool {
	return s.cfg.FlatFallback &&
		ctx.Err() == nil &&
		!errors.Is(err, domain.ErrValidation) &&
		!errors.Is(err, domain.ErrTimeout)
}

func (s *Service) observe(strategy string, err error) {
	if s.recorder == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation):
		outcome = "invalid"
	case errors.Is(err, domain.ErrTimeout):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	s.recorder.ObserveSearch(strategy, outcome)
}

func (s *Service) stage(stage domain.Stage, n int) {
	if s.recorder != nil {
		s.recorder.ObserveStage(string(stage), n)
	}
}

// failAt annotates err with its stage, turning deadline and cancellation into ErrTimeout.
func failAt(stage domain.Stage, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) {
		return err
	}
	if (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) &&
		!errors.Is(err, domain.ErrTimeout) {
		err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return domain.AtStage(stage, err)
}

func embeddingFailure(err error) error {
	if errors.Is(err, domain.ErrEmbeddingProviderError) || isContextErr(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
}

func storeFailure(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) || isContextErr(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
