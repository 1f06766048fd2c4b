package image

import (
	"context"
	"testing"

	"github.com/kailas-cloud/roomfinder/internal/db"
	"github.com/kailas-cloud/roomfinder/internal/db/memory"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	*memory.Store
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return m.Store.IndexExists(ctx, name)
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return m.Store.SearchKNN(ctx, q)
}

func testOptions() Options {
	return Options{KeyPrefix: "rf:", Collection: "images", Dimensions: 2, HNSWM: 16, HNSWEFConstruct: 200}
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{Store: memory.NewStore()}
	return New(ms, testOptions()), ms
}
