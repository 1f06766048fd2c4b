package detection

import (
	"context"
	"errors"
	"sync"

	"github.com/kailas-cloud/roomfinder/internal/domain"
)

// mockEmbedder returns fixed vectors per text; unknown texts get the fallback.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}
	return domain.EmbeddingResult{Embedding: m.fallback, TotalTokens: 1}, nil
}

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockClassifier struct {
	label string
	conf  float64
	err   error
}

func (m *mockClassifier) Classify(context.Context, string, []string) (string, float64, error) {
	return m.label, m.conf, m.err
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[Source]int
}

func (r *countingRecorder) ObserveDetection(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[Source]int)
	}
	r.counts[s]++
}

var errProvider = errors.New("provider down")

// farEmbedder places known labels on two axes and every query on a third, so nothing is similar.
func farEmbedder() *mockEmbedder {
	return &mockEmbedder{
		vectors: map[string][]float32{
			"living room": {1, 0, 0},
			"bedroom":     {0, 1, 0},
			"kitchen":     {1, 0, 0},
			"dining room": {0, 1, 0},
			"bathroom":    {1, 0, 0},
		},
		fallback: []float32{0, 0, 1},
	}
}

var corpus = []string{"Living Room", "bedroom", "kitchen", "dining room", "unknown", "bedroom"}
