package detection

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultHistoryCapacity bounds the query history.
const DefaultHistoryCapacity = 1000

const topQueries = 10

// Entry is one remembered detection.
type Entry struct {
	Query    string    `json:"query"`
	RoomType string    `json:"room_type"`
	Source   Source    `json:"source"`
	At       time.Time `json:"timestamp"`
}

// QueryCount is a query and how often it was recorded.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// Insights summarises what the history has learned.
type Insights struct {
	TotalQueries        int                 `json:"totalQueries"`
	RoomTypeStats       map[string]int      `json:"roomTypeStats"`
	MostFrequentQueries []QueryCount        `json:"mostFrequentQueries"`
	LearnedPatterns     map[string][]string `json:"learnedPatterns"`
	LearningEnabled     bool                `json:"learningEnabled"`
}

// History is a bounded ring of successful detections. Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	buf     []Entry
	head    int // index of the oldest entry
	size    int
	enabled bool
	now     func() time.Time
}

// NewHistory creates an empty history holding at most capacity entries.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{buf: make([]Entry, capacity), enabled: true, now: time.Now}
}

// Record appends a detection, evicting the oldest entry when full.
// Ignored while learning is disabled.
func (h *History) Record(query, roomType string, source Source) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || roomType == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.enabled {
		return
	}

	e := Entry{Query: query, RoomType: roomType, Source: source, At: h.now()}
	if h.size < len(h.buf) {
		h.buf[(h.head+h.size)%len(h.buf)] = e
		h.size++
		return
	}
	h.buf[h.head] = e
	h.head = (h.head + 1) % len(h.buf)
}

// Snapshot returns the entries oldest first.
func (h *History) Snapshot() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *History) snapshotLocked() []Entry {
	out := make([]Entry, h.size)
	for i := range out {
		out[i] = h.buf[(h.head+i)%len(h.buf)]
	}
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

// Capacity returns the maximum number of entries.
func (h *History) Capacity() int { return len(h.buf) }

// Reset forgets every entry.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.buf)
	h.head, h.size = 0, 0
}

// SetEnabled turns learning on or off. Existing entries are kept.
func (h *History) SetEnabled(on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = on
}

// Enabled reports whether learning is on.
func (h *History) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

// Match returns the label most often recorded for queries whose word-set Jaccard
// similarity with query exceeds threshold. Ties go to the label seen first, oldest entries first.
func (h *History) Match(query string, threshold float64) (string, bool) {
	words := wordSet(query)
	if len(words) == 0 {
		return "", false
	}

	entries := h.Snapshot()
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		if jaccard(words, wordSet(e.Query)) <= threshold {
			continue
		}
		if _, seen := counts[e.RoomType]; !seen {
			order = append(order, e.RoomType)
		}
		counts[e.RoomType]++
	}

	best, bestCount := "", 0
	for _, label := range order {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best, bestCount > 0
}

// Insights aggregates the current entries.
func (h *History) Insights() Insights {
	h.mu.Lock()
	entries := h.snapshotLocked()
	enabled := h.enabled
	h.mu.Unlock()

	stats := make(map[string]int)
	queryCounts := make(map[string]int)
	patternSets := make(map[string]map[string]struct{})
	for _, e := range entries {
		stats[e.RoomType]++
		queryCounts[e.Query]++
		set, ok := patternSets[e.RoomType]
		if !ok {
			set = make(map[string]struct{})
			patternSets[e.RoomType] = set
		}
		for _, w := range strings.Fields(e.Query) {
			if len(w) > 2 {
				set[w] = struct{}{}
			}
		}
	}

	frequent := make([]QueryCount, 0, len(queryCounts))
	for q, n := range queryCounts {
		frequent = append(frequent, QueryCount{Query: q, Count: n})
	}
	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].Count != frequent[j].Count {
			return frequent[i].Count > frequent[j].Count
		}
		return frequent[i].Query < frequent[j].Query
	})
	if len(frequent) > topQueries {
		frequent = frequent[:topQueries]
	}

	patterns := make(map[string][]string, len(patternSets))
	for label, set := range patternSets {
		words := make([]string, 0, len(set))
		for w := range set {
			words = append(words, w)
		}
		sort.Strings(words)
		patterns[label] = words
	}

	return Insights{
		TotalQueries:        len(entries),
		RoomTypeStats:       stats,
		MostFrequentQueries: frequent,
		LearnedPatterns:     patterns,
		LearningEnabled:     enabled,
	}
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	out := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		out[w] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
