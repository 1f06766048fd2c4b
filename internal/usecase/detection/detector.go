package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/roomtype"
	"github.com/kailas-cloud/roomfinder/internal/domain/vector"
	"github.com/kailas-cloud/roomfinder/internal/logger"
)

// Config tunes the strategy thresholds.
type Config struct {
	SemanticThreshold float64 // cosine similarity must be strictly above
	HistoryThreshold  float64 // Jaccard similarity must be strictly above
	Concurrency       int     // parallel label embeddings
	MinAIConfidence   float64 // classifier answers at or below are ignored
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{SemanticThreshold: 0.7, HistoryThreshold: 0.6, Concurrency: 8, MinAIConfidence: 0.8}
}

// Option customizes a Detector.
type Option func(*Detector)

// WithClassifier installs the AI strategy.
func WithClassifier(c Classifier) Option {
	return func(d *Detector) { d.classifier = c }
}

// WithRecorder installs a metrics sink.
func WithRecorder(r Recorder) Option {
	return func(d *Detector) { d.recorder = r }
}

// Detector runs the room-type strategies against a query.
type Detector struct {
	embed      Embedder
	classifier Classifier
	recorder   Recorder
	history    *History
	cfg        Config

	mu        sync.RWMutex
	labelVecs map[string][]float32
}

// New creates a detector. embed may be nil, which disables the semantic strategy.
// history may be nil, which disables the history strategy and learning.
func New(embed Embedder, history *History, cfg Config, opts ...Option) *Detector {
	def := DefaultConfig()
	if cfg.SemanticThreshold <= 0 {
		cfg.SemanticThreshold = def.SemanticThreshold
	}
	if cfg.HistoryThreshold <= 0 {
		cfg.HistoryThreshold = def.HistoryThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.MinAIConfidence <= 0 {
		cfg.MinAIConfidence = def.MinAIConfidence
	}
	d := &Detector{
		embed:     embed,
		history:   history,
		cfg:       cfg,
		labelVecs: make(map[string][]float32),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// History returns the learning history, possibly nil.
func (d *Detector) History() *History { return d.history }

// Detect returns the best room type for query among the known roomTypes.
//
// The AI strategy, when installed and confident, decides alone. Otherwise the
// cascade strategies are tried in descending confidence order; since their
// confidences are distinct constants the first hit is also the maximum.
// Only infrastructure failures (cancellation, deadline) are returned as errors.
func (d *Detector) Detect(ctx context.Context, query string, roomTypes []string) (Result, error) {
	q := roomtype.Normalize(query)
	if q == "" {
		return None, domain.NewValidationError("query", "must not be empty")
	}
	labels := vocabulary(roomTypes)
	log := logger.FromContext(ctx)

	res, err := d.detect(ctx, q, labels)
	if err != nil {
		return None, err
	}

	if res.Detected() && d.history != nil {
		d.history.Record(q, res.RoomType, res.Source)
	}
	if d.recorder != nil {
		d.recorder.ObserveDetection(res.Source)
	}
	log.Debug("room type detection",
		zap.String("query", q),
		zap.String("room_type", res.RoomType),
		zap.String("source", string(res.Source)),
		zap.Float64("confidence", res.Confidence),
		zap.Int("known_room_types", len(labels)),
	)
	return res, nil
}

func (d *Detector) detect(ctx context.Context, q string, labels []string) (Result, error) {
	if r, ok, err := d.classify(ctx, q, labels); err != nil || ok {
		return r, err
	}

	if label, ok := matchData(q, labels); ok {
		return Result{RoomType: label, Confidence: ConfidenceDataMatch, Source: SourceDataMatch}, nil
	}

	label, ok, err := d.semantic(ctx, q, labels)
	if err != nil {
		return None, err
	}
	if ok {
		return Result{RoomType: label, Confidence: ConfidenceSemantic, Source: SourceSemantic}, nil
	}

	if label, ok := roomtype.MatchPattern(q); ok {
		return Result{RoomType: label, Confidence: ConfidencePattern, Source: SourcePattern}, nil
	}

	if d.history != nil {
		if label, ok := d.history.Match(q, d.cfg.HistoryThreshold); ok {
			return Result{RoomType: label, Confidence: ConfidenceHistory, Source: SourceHistory}, nil
		}
	}

	return None, nil
}

// classify consults the AI strategy. Provider failures degrade to the cascade.
func (d *Detector) classify(ctx context.Context, q string, labels []string) (Result, bool, error) {
	if d.classifier == nil {
		return None, false, nil
	}
	label, conf, err := d.classifier.Classify(ctx, q, labels)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return None, false, fmt.Errorf("classify: %w", ctxErr)
		}
		logger.FromContext(ctx).Warn("Room type classifier failed, using cascade", zap.Error(err))
		return None, false, nil
	}
	label = roomtype.Normalize(label)
	if label == "" || label == image.Unknown || conf <= d.cfg.MinAIConfidence {
		return None, false, nil
	}
	return Result{RoomType: label, Confidence: min(conf, 1), Source: SourceAI}, true, nil
}

// matchData finds a known label by text overlap: exact label, then label and query
// containing one another, then a query word found in a label or the reverse.
// Words shorter than three letters and the generic "room" are ignored in the last pass.
func matchData(q string, labels []string) (string, bool) {
	for _, label := range labels {
		if label == q {
			return label, true
		}
	}
	for _, label := range labels {
		if strings.Contains(q, label) || strings.Contains(label, q) {
			return label, true
		}
	}
	words := strings.Fields(q)
	for _, label := range labels {
		for _, w := range words {
			if len(w) < 3 || w == "room" || w == "rooms" {
				continue
			}
			if strings.Contains(label, w) || strings.Contains(w, label) {
				return label, true
			}
		}
	}
	return "", false
}

// semantic picks the label whose embedding is most similar to the query's,
// strictly above the threshold. Provider errors disable the strategy for this query.
func (d *Detector) semantic(ctx context.Context, q string, labels []string) (string, bool, error) {
	if d.embed == nil || len(labels) == 0 {
		return "", false, nil
	}

	qres, err := d.embed.Embed(ctx, q)
	if err != nil {
		return "", false, d.degrade(ctx, err)
	}
	domain.UsageFromContext(ctx).AddTokens(qres.TotalTokens)

	vecs, err := d.labelVectors(ctx, labels)
	if err != nil {
		return "", false, d.degrade(ctx, err)
	}

	best, bestSim := "", d.cfg.SemanticThreshold
	for i, label := range labels {
		if sim := vector.Cosine(qres.Embedding, vecs[i]); sim > bestSim {
			best, bestSim = label, sim
		}
	}
	return best, best != "", nil
}

func (d *Detector) degrade(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("semantic match: %w", ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("semantic match: %w", err)
	}
	logger.FromContext(ctx).Warn("Semantic room match unavailable", zap.Error(err))
	return nil
}

// labelVectors embeds labels concurrently, memoizing per label for the process lifetime.
func (d *Detector) labelVectors(ctx context.Context, labels []string) ([][]float32, error) {
	out := make([][]float32, len(labels))
	var missing []int

	d.mu.RLock()
	for i, label := range labels {
		if v, ok := d.labelVecs[label]; ok {
			out[i] = v
		} else {
			missing = append(missing, i)
		}
	}
	d.mu.RUnlock()

	if len(missing) == 0 {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for _, i := range missing {
		g.Go(func() error {
			res, err := d.embed.Embed(gctx, labels[i])
			if err != nil {
				return fmt.Errorf("embed label %q: %w", labels[i], err)
			}
			domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
			out[i] = res.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	for _, i := range missing {
		d.labelVecs[labels[i]] = out[i]
	}
	d.mu.Unlock()
	return out, nil
}

// vocabulary normalizes, dedupes and sorts the known labels.
func vocabulary(roomTypes []string) []string {
	seen := make(map[string]struct{}, len(roomTypes))
	out := make([]string, 0, len(roomTypes))
	for _, rt := range roomTypes {
		rt = roomtype.Normalize(rt)
		if rt == "" || rt == image.Unknown {
			continue
		}
		if _, dup := seen[rt]; dup {
			continue
		}
		seen[rt] = struct{}{}
		out = append(out, rt)
	}
	sort.Strings(out)
	return out
}
