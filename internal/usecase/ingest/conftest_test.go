package ingest

import (
	"context"
	"sync"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
)

type mockUpserter struct {
	mu      sync.Mutex
	batches [][]image.Record
	err     error
}

func (m *mockUpserter) Upsert(_ context.Context, recs []image.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]image.Record(nil), recs...))
	return nil
}

func (m *mockUpserter) all() []image.Record {
	var out []image.Record
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

// mockEmbedder returns a vector derived from the text length.
type mockEmbedder struct {
	mu    sync.Mutex
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}, TotalTokens: 1}, nil
}

type mockIndex struct {
	created bool
	err     error
}

func (m *mockIndex) EnsureIndex(_ context.Context) (bool, error) { return m.created, m.err }
