package image

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/roomfinder/internal/db"
	"github.com/kailas-cloud/roomfinder/internal/domain/image"
	"github.com/kailas-cloud/roomfinder/internal/domain/search/filter"
)

func kitchen() image.Record {
	return image.Record{
		ID: "img-1",
		Vectors: map[string][]float32{
			image.VectorPrimary:  {1, 0},
			image.VectorSemantic: {1, 0},
			image.VectorObject:   {1, 0},
		},
		Payload: image.Payload{
			RoomType:        "kitchen",
			DesignTheme:     "modern",
			BudgetCategory:  "luxury",
			PrimaryFeatures: []string{"island"},
			Materials:       []string{"granite"},
			ImageURL:        "https://cdn.example.com/k.jpg",
			OriginalID:      "k-001",
		},
	}
}

func TestEnsureIndex_CreatesOnce(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.EnsureIndex(ctx)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.EnsureIndex(ctx)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsureIndex_ProbeError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(context.Context, string) (bool, error) {
		return false, errors.New("connection reset")
	}

	_, err := repo.EnsureIndex(context.Background())
	assert.ErrorContains(t, err, "check index")
}

func TestDefinition_HasAllVectors(t *testing.T) {
	repo, _ := newTestRepo(t)
	def, err := repo.Definition()
	require.NoError(t, err)

	assert.Equal(t, "rf:images:idx", def.Name)
	assert.Equal(t, []string{"rf:images:"}, def.Prefixes)
	assert.Equal(t, image.VectorNames, def.VectorFields())
}

func TestUpsertThenSearch_RoundTripsPayload(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.EnsureIndex(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, []image.Record{kitchen()}))

	hits, err := repo.Search(ctx, image.VectorPrimary, []float32{1, 0}, 5, filter.Expression{})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	h := hits[0]
	assert.Equal(t, "img-1", h.ID)
	assert.InDelta(t, 1.0, h.Score, 1e-6)
	assert.Equal(t, "kitchen", h.Payload.RoomType)
	assert.Equal(t, []string{"island"}, h.Payload.PrimaryFeatures)
	assert.Equal(t, "k-001", h.Payload.OriginalID)
	assert.Equal(t, "https://cdn.example.com/k.jpg", h.Payload.ImageURL)
}

func TestSearch_FacetPrefilter(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	_, err := repo.EnsureIndex(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, []image.Record{kitchen()}))

	expr, err := filter.FromFacets(map[string]string{filter.FieldBudgetCategory: "economy"})
	require.NoError(t, err)

	hits, err := repo.Search(ctx, image.VectorPrimary, []float32{1, 0}, 5, expr)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_WrapsStoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("timeout")}
	}

	_, err := repo.Search(context.Background(), image.VectorPrimary, []float32{1, 0}, 5, filter.Expression{})
	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, db.OpSearch, dbErr.Op)
}

func TestScanAll_LegacyHashWithoutPayload(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, ms.HSetMulti(ctx, []db.HashSetItem{{
		Key:    "rf:images:legacy",
		Fields: map[string]string{"room_type": "Bedroom", "design_theme": "traditional"},
	}}))

	hits, err := repo.ScanAll(ctx, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "legacy", hits[0].ID)
	assert.Equal(t, "bedroom", hits[0].Payload.RoomType)
	assert.Equal(t, "traditional", hits[0].Payload.DesignTheme)
}

func TestScanAll_CorruptPayload(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, ms.HSetMulti(ctx, []db.HashSetItem{{
		Key:    "rf:images:bad",
		Fields: map[string]string{"payload": "{not json"},
	}}))

	_, err := repo.ScanAll(ctx, 10)
	assert.ErrorContains(t, err, "rf:images:bad")
}

func TestDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, []image.Record{kitchen()}))
	require.NoError(t, repo.Delete(ctx, "img-1"))

	hits, err := repo.ScanAll(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
