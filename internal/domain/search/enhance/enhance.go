// Package enhance holds AI query rewrites: one query text per named vector plus the
// elements and expansions the model recognised.
package enhance

import (
	"strings"

	"github.com/kailas-cloud/roomfinder/internal/domain/image"
)

// Source tells where an enhancement came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Intent values. Models may answer others; they are kept as given.
const (
	IntentGeneral     = "general"
	IntentRoomType    = "room_type"
	IntentDesignTheme = "design_theme"
	IntentObjects     = "objects"
)

// fallbackConfidence is reported for enhancements that never reached a model.
const fallbackConfidence = 0.3

// Elements are the query parts the model recognised.
type Elements struct {
	RoomType      string   `json:"room_type,omitempty"`
	DesignTheme   string   `json:"design_theme,omitempty"`
	Objects       []string `json:"objects,omitempty"`
	Materials     []string `json:"materials,omitempty"`
	Colors        []string `json:"colors,omitempty"`
	IndianContext string   `json:"indian_context,omitempty"`
}

func (e Elements) empty() bool {
	return strings.TrimSpace(e.RoomType) == "" &&
		strings.TrimSpace(e.DesignTheme) == "" &&
		strings.TrimSpace(e.IndianContext) == "" &&
		len(e.Objects) == 0 && len(e.Materials) == 0 && len(e.Colors) == 0
}

// Terms are related phrasings of the query.
type Terms struct {
	Synonyms          []string `json:"synonyms,omitempty"`
	RelatedTerms      []string `json:"related_terms,omitempty"`
	IndianEquivalents []string `json:"indian_equivalents,omitempty"`
	StyleVariations   []string `json:"style_variations,omitempty"`
}

func (t Terms) empty() bool {
	return len(t.Synonyms) == 0 && len(t.RelatedTerms) == 0 &&
		len(t.IndianEquivalents) == 0 && len(t.StyleVariations) == 0
}

// Enhancement is a query rewritten for each named vector.
type Enhancement struct {
	Texts      map[string]string `json:"texts"`
	Intent     string            `json:"intent"`
	Elements   Elements          `json:"detected_elements"`
	Expanded   Terms             `json:"expanded_terms"`
	Confidence float64           `json:"confidence"`
	Source     Source            `json:"source"`
}

// New builds a model enhancement. Vector texts left blank fall back to query.
func New(query string, texts map[string]string, intent string, el Elements, terms Terms) Enhancement {
	e := Enhancement{
		Texts:    make(map[string]string, len(image.VectorNames)),
		Intent:   strings.TrimSpace(intent),
		Elements: el,
		Expanded: terms,
		Source:   SourceAI,
	}
	for _, v := range image.VectorNames {
		t := strings.TrimSpace(texts[v])
		if t == "" {
			t = query
		}
		e.Texts[v] = t
	}
	if e.Intent == "" {
		e.Intent = IntentOf(query)
	}

	e.Confidence = 0.5
	if !el.empty() {
		e.Confidence += 0.3
	}
	if !terms.empty() {
		e.Confidence += 0.2
	}
	e.Confidence = min(e.Confidence, 1)
	return e
}

// Fallback is the enhancement used when no model answer is available: the raw query
// for every vector and a keyword-derived intent.
func Fallback(query string) Enhancement {
	e := Enhancement{
		Texts:      make(map[string]string, len(image.VectorNames)),
		Intent:     IntentOf(query),
		Confidence: fallbackConfidence,
		Source:     SourceFallback,
	}
	for _, v := range image.VectorNames {
		e.Texts[v] = query
	}
	return e
}

// TextFor returns the query text for a named vector.
func (e Enhancement) TextFor(vectorName string) string {
	return e.Texts[vectorName]
}

var intentKeywords = []struct {
	intent string
	words  []string
}{
	{IntentRoomType, []string{"bedroom", "living", "kitchen"}},
	{IntentDesignTheme, []string{"modern", "traditional", "contemporary"}},
	{IntentObjects, []string{"sofa", "table", "chair"}},
}

// IntentOf guesses the query intent from a few keywords, first group wins.
func IntentOf(query string) string {
	q := strings.ToLower(query)
	for _, ik := range intentKeywords {
		for _, w := range ik.words {
			if strings.Contains(q, w) {
				return ik.intent
			}
		}
	}
	return IntentGeneral
}
