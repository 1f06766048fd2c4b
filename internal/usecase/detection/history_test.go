package detection

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHistory_EvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := range 5 {
		h.Record(fmt.Sprintf("q%d", i), "kitchen", SourcePattern)
	}

	entries := h.Snapshot()
	require.Len(t, entries, 3)
	assert.Equal(t, "q2", entries[0].Query)
	assert.Equal(t, "q4", entries[2].Query)
}

func TestHistory_Bounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 20).Draw(t, "capacity")
		n := rapid.IntRange(0, 60).Draw(t, "n")

		h := NewHistory(capacity)
		for i := range n {
			h.Record(fmt.Sprintf("query %d", i), "bedroom", SourceDataMatch)
		}

		entries := h.Snapshot()
		want := min(n, capacity)
		if len(entries) != want {
			t.Fatalf("len = %d, want %d", len(entries), want)
		}
		// The survivors are the most recent, in order.
		for i, e := range entries {
			if e.Query != fmt.Sprintf("query %d", n-want+i) {
				t.Fatalf("entry %d = %q", i, e.Query)
			}
		}
	})
}

func TestHistory_ConcurrentRecordsAreNotLost(t *testing.T) {
	h := NewHistory(1000)
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				h.Record(fmt.Sprintf("w%d q%d", w, i), "kitchen", SourcePattern)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, h.Len())
}

func TestHistory_DisabledLearning(t *testing.T) {
	h := NewHistory(10)
	h.Record("a b", "kitchen", SourcePattern)
	h.SetEnabled(false)
	h.Record("c d", "kitchen", SourcePattern)

	assert.Equal(t, 1, h.Len())
	assert.False(t, h.Insights().LearningEnabled)

	h.Reset()
	assert.Zero(t, h.Len())
}

func TestHistory_MatchTieGoesToFirstSeen(t *testing.T) {
	h := NewHistory(10)
	h.Record("carved wooden swing", "living room", SourcePattern)
	h.Record("carved wooden swing", "balcony", SourcePattern)

	label, ok := h.Match("carved wooden swing", 0.6)
	require.True(t, ok)
	assert.Equal(t, "living room", label)
}

func TestHistory_MatchThresholdIsStrict(t *testing.T) {
	h := NewHistory(10)
	// {a b c} vs {a b c d e}: 3/5 = 0.6
	h.Record("a b c d e", "kitchen", SourcePattern)

	_, ok := h.Match("a b c", 0.6)
	assert.False(t, ok)
}

func TestHistory_Insights(t *testing.T) {
	h := NewHistory(100)
	h.Record("modular kitchen", "kitchen", SourcePattern)
	h.Record("modular kitchen", "kitchen", SourcePattern)
	h.Record("master bed", "bedroom", SourcePattern)

	in := h.Insights()
	assert.Equal(t, 3, in.TotalQueries)
	assert.Equal(t, map[string]int{"kitchen": 2, "bedroom": 1}, in.RoomTypeStats)
	require.Len(t, in.MostFrequentQueries, 2)
	assert.Equal(t, QueryCount{Query: "modular kitchen", Count: 2}, in.MostFrequentQueries[0])
	assert.Equal(t, []string{"kitchen", "modular"}, in.LearnedPatterns["kitchen"])
	assert.Equal(t, []string{"bed", "master"}, in.LearnedPatterns["bedroom"])
}
