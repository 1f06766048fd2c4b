package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; search still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentCorpus    = "tag_corpus"
)

// DefaultCheckTimeout bounds each component probe.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status    Status
	Checks    map[string]CheckResult
	RoomTypes int
}

// Option customizes a Service.
type Option func(*Service)

// WithEmbedding adds the embedding provider probe.
func WithEmbedding(e EmbeddingChecker) Option {
	return func(s *Service) { s.embedding = e }
}

// WithVocabulary adds the tag corpus probe.
func WithVocabulary(v Vocabulary) Option {
	return func(s *Service) { s.vocab = v }
}

// WithTimeout overrides the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	vocab     Vocabulary
	timeout   time.Duration
}

// New creates a Service around the mandatory store probe.
func New(db DBPinger, opts ...Option) *Service {
	s := &Service{db: db, timeout: DefaultCheckTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check probes all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		report = Report{Checks: make(map[string]CheckResult)}
	)
	set := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Checks[name] = CheckError
		} else {
			report.Checks[name] = CheckOK
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		set(ComponentDatabase, s.probe(ctx, s.db.Ping))
		return nil
	})
	if s.embedding != nil {
		g.Go(func() error {
			set(ComponentEmbedding, s.probe(ctx, s.embedding.HealthCheck))
			return nil
		})
	}
	if s.vocab != nil {
		g.Go(func() error {
			err := s.probe(ctx, func(ctx context.Context) error {
				rts, err := s.vocab.RoomTypes(ctx)
				mu.Lock()
				report.RoomTypes = len(rts)
				mu.Unlock()
				return err
			})
			set(ComponentCorpus, err)
			return nil
		})
	}
	_ = g.Wait()

	report.Status = Healthy
	for name, v := range report.Checks {
		if v != CheckError {
			continue
		}
		if name == ComponentDatabase {
			report.Status = Unhealthy
			break
		}
		report.Status = Degraded
	}
	return report
}

func (s *Service) probe(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}
