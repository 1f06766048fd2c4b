// Package relevance scores catalog records against a query in four priority tiers.
package relevance

import (
	"strings"
	"unicode"

	"github.com/kailas-cloud/roomfinder/internal/domain/image"
)

// Tier weights. Room always dominates: one room hit outweighs a single hit in any other tier.
const (
	RoomWeight    = 100
	FeatureWeight = 50
	StyleWeight   = 25
	ObjectWeight  = 15
)

// Breakdown is the per-tier contribution to a record's score.
type Breakdown struct {
	Room     int `json:"room"`
	Features int `json:"features"`
	Style    int `json:"style"`
	Objects  int `json:"objects"`
	Total    int `json:"total"`
}

// Trace lists the attribute values that produced each tier's matches.
type Trace struct {
	Features []string `json:"features,omitempty"`
	Style    []string `json:"style,omitempty"`
	Objects  []string `json:"objects,omitempty"`
}

// Score computes the hierarchical relevance of p for the query words.
// The room tier is awarded whenever a room type was detected, because
// only records that passed the room gate are ever scored against one.
func Score(p *image.Payload, words []string, detectedRoom string) (Breakdown, Trace) {
	var b Breakdown
	var tr Trace

	if detectedRoom != "" {
		b.Room = RoomWeight
	}

	var n int
	n, tr.Features = CountMatches(words, p.FeatureValues())
	b.Features = FeatureWeight * n
	n, tr.Style = CountMatches(words, p.StyleValues())
	b.Style = StyleWeight * n
	n, tr.Objects = CountMatches(words, p.ObjectValues())
	b.Objects = ObjectWeight * n

	b.Total = b.Room + b.Features + b.Style + b.Objects
	return b, tr
}

// LooseMatch reports whether either string contains the other. Empty strings never match.
func LooseMatch(word, value string) bool {
	if word == "" || value == "" {
		return false
	}
	return strings.Contains(value, word) || strings.Contains(word, value)
}

// CountMatches counts matching (word, value) pairs and returns the distinct values that matched.
func CountMatches(words, values []string) (int, []string) {
	var count int
	var matched []string
	for _, v := range values {
		hit := false
		for _, w := range words {
			if LooseMatch(w, v) {
				count++
				hit = true
			}
		}
		if hit && !containsString(matched, v) {
			matched = append(matched, v)
		}
	}
	return count, matched
}

// AnyMatch reports whether any word loosely matches any value.
func AnyMatch(words, values []string) bool {
	for _, v := range values {
		for _, w := range words {
			if LooseMatch(w, v) {
				return true
			}
		}
	}
	return false
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "with": {}, "for": {}, "in": {},
	"of": {}, "on": {}, "to": {}, "at": {}, "by": {}, "my": {}, "me": {}, "show": {},
	"find": {}, "some": {}, "ideas": {}, "idea": {}, "images": {}, "image": {}, "photos": {},
}

// Tokenize lower-cases text and returns its distinct words in order of first appearance.
// Edge punctuation and stop words are dropped.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w == "" {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Without returns words minus those in drop.
func Without(words []string, drop map[string]struct{}) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := drop[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

func containsString(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}
