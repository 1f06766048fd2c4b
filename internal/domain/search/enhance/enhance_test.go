package enhance

import (
	"testing"

	"github.com/kailas-cloud/roomfinder/internal/domain/image"
)

func TestFallback(t *testing.T) {
	e := Fallback("Teak Sofa ideas")

	if e.Source != SourceFallback {
		t.Errorf("Source = %q, want %q", e.Source, SourceFallback)
	}
	if e.Confidence != 0.3 {
		t.Errorf("Confidence = %g, want 0.3", e.Confidence)
	}
	if e.Intent != IntentObjects {
		t.Errorf("Intent = %q, want %q", e.Intent, IntentObjects)
	}
	for _, v := range image.VectorNames {
		if got := e.TextFor(v); got != "Teak Sofa ideas" {
			t.Errorf("TextFor(%s) = %q, want the raw query", v, got)
		}
	}
}

func TestIntentOf(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"modern kitchen", IntentRoomType},
		{"Traditional decor", IntentDesignTheme},
		{"coffee table", IntentObjects},
		{"warm lighting", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tt := range tests {
		if got := IntentOf(tt.query); got != tt.want {
			t.Errorf("IntentOf(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestNew_ConfidenceAndBlankTexts(t *testing.T) {
	tests := []struct {
		name  string
		el    Elements
		terms Terms
		want  float64
	}{
		{"nothing recognised", Elements{}, Terms{}, 0.5},
		{"elements only", Elements{Materials: []string{"teak"}}, Terms{}, 0.8},
		{"terms only", Elements{RoomType: "  "}, Terms{Synonyms: []string{"lounge"}}, 0.7},
		{"both", Elements{RoomType: "bedroom"}, Terms{StyleVariations: []string{"ethnic"}}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New("bed", map[string]string{image.VectorPrimary: " master bedroom "}, "", tt.el, tt.terms)
			if e.Confidence < tt.want-1e-9 || e.Confidence > tt.want+1e-9 {
				t.Errorf("Confidence = %g, want %g", e.Confidence, tt.want)
			}
			if e.Source != SourceAI {
				t.Errorf("Source = %q", e.Source)
			}
			if got := e.TextFor(image.VectorPrimary); got != "master bedroom" {
				t.Errorf("primary text = %q", got)
			}
			if got := e.TextFor(image.VectorObject); got != "bed" {
				t.Errorf("blank object text = %q, want the raw query", got)
			}
			if e.Intent != IntentGeneral {
				t.Errorf("Intent = %q, want derived %q", e.Intent, IntentGeneral)
			}
		})
	}
}
