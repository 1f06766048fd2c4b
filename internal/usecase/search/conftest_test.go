package search

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/roomfinder/internal/domain"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/enhance"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
	"github.com/kailas-cloud/roomfinder/internal/usecase/corpus"
	"github.com/kailas-cloud/roomfinder/internal/usecase/detection"
)

// fakeStore serves canned hits per vector, highest score first, cut to the requested k.
type fakeStore struct {
	mu       sync.Mutex
	hits     map[string][]image.Hit
	err      error
	errFor   map[string]error
	calls    int
	lastK    map[string]int
	searched []string
}

func newFakeStore(primary ...image.Hit) *fakeStore {
	return &fakeStore{
		hits:   map[string][]image.Hit{image.VectorPrimary: primary},
		errFor: map[string]error{},
		lastK:  map[string]int{},
	}
}

func (f *fakeStore) Search(
	_ context.Context, vectorName string, _ []float32, limit int, _ filter.Expression,
) ([]image.Hit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastK[vectorName] = limit
	f.searched = append(f.searched, vectorName)
	if err := f.errFor[vectorName]; err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	hits := append([]image.Hit(nil), f.hits[vectorName]...)
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

type fakeCorpus struct {
	snap  corpus.Snapshot
	err   error
	calls int
}

func (f *fakeCorpus) Get(_ context.Context) (corpus.Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

func corpusOf(roomTypes ...string) *fakeCorpus {
	return &fakeCorpus{snap: corpus.Snapshot{RoomTypes: roomTypes}}
}

type fakeEmbedder struct {
	mu    sync.Mutex
	err   error
	block bool
	calls int
	texts []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	f.mu.Lock()
	f.calls++
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return domain.EmbeddingResult{}, ctx.Err()
	}
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}, PromptTokens: 2, TotalTokens: 2}, nil
}

type fakeEnhancer struct {
	enh   enhance.Enhancement
	err   error
	calls int
}

func (f *fakeEnhancer) Enhance(_ context.Context, _ string) (enhance.Enhancement, error) {
	f.calls++
	return f.enh, f.err
}

type fakeCompleter struct {
	out     []string
	err     error
	partial string
}

func (f *fakeCompleter) Complete(_ context.Context, partial string) ([]string, error) {
	f.partial = partial
	return f.out, f.err
}

type searchRecorder struct {
	searches []string
	stages   map[string]int
}

func (r *searchRecorder) ObserveSearch(strategy, outcome string) {
	r.searches = append(r.searches, strategy+"/"+outcome)
}

func (r *searchRecorder) ObserveStage(stage string, n int) {
	if r.stages == nil {
		r.stages = map[string]int{}
	}
	r.stages[stage] = n
}

// newService wires the real detector with pattern, data and history strategies only.
func newService(store VectorStore, c Corpus, e Embedder, cfg Config, opts ...Option) (*Service, *detection.History) {
	h := detection.NewHistory(detection.DefaultHistoryCapacity)
	d := detection.New(nil, h, detection.DefaultConfig())
	return New(store, c, d, e, cfg, opts...), h
}

func hit(id, room string, score float64, materials ...string) image.Hit {
	return image.Hit{
		ID:    id,
		Score: score,
		Payload: image.Payload{
			RoomType:    room,
			DesignTheme: image.Unknown,
			Materials:   materials,
			ImageURL:    "https://cdn.example.com/" + id + ".jpg",
			OriginalID:  id,
		},
	}
}

func ids(o Outcome) []string {
	out := make([]string, 0, len(o.Results))
	for i := range o.Results {
		out = append(out, o.Results[i].ID())
	}
	return out
}
