package detection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/roomfinder/internal/domain"
)

func TestDetect_DataMatchDirect(t *testing.T) {
	d := New(farEmbedder(), NewHistory(10), Config{})

	res, err := d.Detect(context.Background(), "Modern Indian living room with wooden furniture", corpus)
	require.NoError(t, err)
	assert.Equal(t, Result{RoomType: "living room", Confidence: 0.9, Source: SourceDataMatch}, res)
}

func TestDetect_ExactLabelBeatsContainedLabel(t *testing.T) {
	d := New(nil, nil, Config{})

	res, err := d.Detect(context.Background(), "bedroom", []string{"bed", "bedroom"})
	require.NoError(t, err)
	assert.Equal(t, "bedroom", res.RoomType)
	assert.GreaterOrEqual(t, res.Confidence, 0.9)
}

func TestDetect_DataMatchPartialWord(t *testing.T) {
	d := New(nil, nil, Config{})

	res, err := d.Detect(context.Background(), "dining ideas", corpus)
	require.NoError(t, err)
	assert.Equal(t, "dining room", res.RoomType)
	assert.Equal(t, SourceDataMatch, res.Source)
}

func TestDetect_WordPassIgnoresShortAndGenericWords(t *testing.T) {
	labels := []string{"dining room", "living room"}
	for _, q := range []string{"cosy room ideas", "white in grey", "ideas for a den"} {
		d := New(nil, nil, Config{})

		res, err := d.Detect(context.Background(), q, labels)
		require.NoError(t, err)
		assert.False(t, res.Detected(), q)
		assert.Equal(t, SourceNone, res.Source, q)
	}
}

func TestDetect_WordPassMatchesSpecificWords(t *testing.T) {
	d := New(nil, nil, Config{})

	res, err := d.Detect(context.Background(), "dining ideas", []string{"dining room", "living room"})
	require.NoError(t, err)
	assert.Equal(t, "dining room", res.RoomType)
	assert.Equal(t, SourceDataMatch, res.Source)
}

func TestDetect_Semantic(t *testing.T) {
	emb := &mockEmbedder{
		vectors: map[string][]float32{
			"where we cook": {1, 0.1, 0},
			"kitchen":       {1, 0, 0},
		},
		fallback: []float32{0, 0, 1},
	}
	d := New(emb, nil, Config{})

	res, err := d.Detect(context.Background(), "where we cook", []string{"kitchen", "bathroom"})
	require.NoError(t, err)
	assert.Equal(t, Result{RoomType: "kitchen", Confidence: 0.8, Source: SourceSemantic}, res)
}

func TestDetect_SemanticThresholdIsStrict(t *testing.T) {
	emb := &mockEmbedder{
		vectors: map[string][]float32{
			"xyz":     {3, 4}, // cosine with (1,0) is exactly 0.6
			"kitchen": {1, 0},
		},
	}
	d := New(emb, nil, Config{SemanticThreshold: 0.6})

	res, err := d.Detect(context.Background(), "xyz", []string{"kitchen"})
	require.NoError(t, err)
	assert.False(t, res.Detected())
}

func TestDetect_LabelVectorsMemoized(t *testing.T) {
	emb := farEmbedder()
	d := New(emb, nil, Config{})
	ctx := context.Background()

	_, err := d.Detect(ctx, "zzz", []string{"kitchen", "bathroom"})
	require.NoError(t, err)
	first := emb.callCount()
	assert.Equal(t, 3, first)

	_, err = d.Detect(ctx, "qqq", []string{"kitchen", "bathroom"})
	require.NoError(t, err)
	assert.Equal(t, first+1, emb.callCount(), "only the query is embedded again")
}

func TestDetect_SemanticProviderErrorDegrades(t *testing.T) {
	emb := &mockEmbedder{err: errProvider}
	d := New(emb, nil, Config{})

	res, err := d.Detect(context.Background(), "pooja corner", []string{"kitchen"})
	require.NoError(t, err)
	assert.Equal(t, Result{RoomType: "prayer room", Confidence: 0.7, Source: SourcePattern}, res)
}

func TestDetect_CancelledContextIsAnError(t *testing.T) {
	emb := &mockEmbedder{err: context.Canceled}
	d := New(emb, nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, "zzz", []string{"kitchen"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetect_PatternOrder(t *testing.T) {
	d := New(nil, nil, Config{})

	// "master" (bedroom) precedes "modular" (kitchen) in the table.
	res, err := d.Detect(context.Background(), "master modular", nil)
	require.NoError(t, err)
	assert.Equal(t, "bedroom", res.RoomType)
	assert.Equal(t, SourcePattern, res.Source)
}

func TestDetect_HistoryLearning(t *testing.T) {
	h := NewHistory(10)
	h.Record("teak almirah design", "bedroom", SourcePattern)
	h.Record("teak almirah design ideas", "bedroom", SourcePattern)
	d := New(nil, h, Config{})

	res, err := d.Detect(context.Background(), "teak almirah design", nil)
	require.NoError(t, err)
	assert.Equal(t, Result{RoomType: "bedroom", Confidence: 0.6, Source: SourceHistory}, res)
}

func TestDetect_GarageIsNull(t *testing.T) {
	d := New(farEmbedder(), NewHistory(10), Config{})

	res, err := d.Detect(context.Background(), "garage modern design", corpus)
	require.NoError(t, err)
	assert.Equal(t, None, res)
	assert.Zero(t, d.History().Len(), "null detections are not learned")
}

func TestDetect_AIOverridesCascade(t *testing.T) {
	d := New(nil, nil, Config{}, WithClassifier(&mockClassifier{label: "Kitchen", conf: 0.95}))

	res, err := d.Detect(context.Background(), "living room", corpus)
	require.NoError(t, err)
	assert.Equal(t, Result{RoomType: "kitchen", Confidence: 0.95, Source: SourceAI}, res)
}

func TestDetect_AILowConfidenceFallsBack(t *testing.T) {
	for _, c := range []*mockClassifier{
		{label: "kitchen", conf: 0.8},
		{label: "unknown", conf: 0.99},
		{err: errors.New("quota")},
	} {
		d := New(nil, nil, Config{}, WithClassifier(c))
		res, err := d.Detect(context.Background(), "living room", corpus)
		require.NoError(t, err)
		assert.Equal(t, SourceDataMatch, res.Source)
	}
}

func TestDetect_EmptyQuery(t *testing.T) {
	emb := farEmbedder()
	d := New(emb, nil, Config{})

	_, err := d.Detect(context.Background(), "   ", corpus)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, emb.callCount())
}

func TestDetect_RecordsWinnerAndMetrics(t *testing.T) {
	h := NewHistory(10)
	rec := &countingRecorder{}
	d := New(nil, h, Config{}, WithRecorder(rec))
	ctx := context.Background()

	_, err := d.Detect(ctx, "kitchen island", corpus)
	require.NoError(t, err)
	_, err = d.Detect(ctx, "garage", corpus)
	require.NoError(t, err)

	entries := h.Snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, "kitchen island", entries[0].Query)
	assert.Equal(t, "kitchen", entries[0].RoomType)
	assert.Equal(t, 1, rec.counts[SourceDataMatch])
	assert.Equal(t, 1, rec.counts[SourceNone])
}
