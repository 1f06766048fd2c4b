package image

import (
	"reflect"
	"testing"
)

func TestNormalize_CanonicalFlat(t *testing.T) {
	raw := map[string]any{
		"room_type":        "Living Room",
		"design_theme":     "modern",
		"colors":           []any{"Beige", "white"},
		"materials":        []any{"wood"},
		"primary_features": []any{"sofa", "Wooden Furniture"},
		"object_types":     []any{"sofa"},
		"indian_specific": map[string]any{
			"traditional_elements":  []any{"jali"},
			"cultural_significance": "family gathering",
		},
		"budget_category": "premium",
		"image_url":       "https://cdn.example.com/a.jpg",
		"original_id":     "img-1",
	}

	p := Normalize(raw)

	if p.RoomType != "living room" {
		t.Errorf("room type: got %q", p.RoomType)
	}
	if !reflect.DeepEqual(p.PrimaryFeatures, []string{"sofa", "wooden furniture"}) {
		t.Errorf("features: got %v", p.PrimaryFeatures)
	}
	if !reflect.DeepEqual(p.Cultural.TraditionalElements, []string{"jali"}) {
		t.Errorf("traditional elements: got %v", p.Cultural.TraditionalElements)
	}
	if p.SpaceType != Unknown {
		t.Errorf("missing space type should be %q, got %q", Unknown, p.SpaceType)
	}
	if p.OriginalID != "img-1" {
		t.Errorf("original id: got %q", p.OriginalID)
	}
}

func TestNormalize_TagsShape(t *testing.T) {
	raw := map[string]any{
		"room_type": "bedroom",
		"tags": map[string]any{
			"materials":      []any{"Teak"},
			"regional_style": "Kerala",
		},
	}

	p := Normalize(raw)

	if !reflect.DeepEqual(p.Materials, []string{"teak"}) {
		t.Errorf("materials: got %v", p.Materials)
	}
	if p.RegionalStyle != "kerala" {
		t.Errorf("regional style: got %q", p.RegionalStyle)
	}
}

func TestNormalize_ModelResponse(t *testing.T) {
	raw := map[string]any{
		"image_id":    "abc",
		"description": "A bright kitchen",
		"ai_generated_tags": map[string]any{
			"room":             "Kitchen",
			"theme":            "Contemporary",
			"primary_features": []any{"island"},
			"objects": []any{
				map[string]any{"type": "Chimney", "features": []any{"Steel"}},
				map[string]any{"type": "Cabinet", "features": []any{"glossy"}},
			},
			"visual_attributes": map[string]any{"colors": []any{"white"}, "materials": []any{"granite"}},
			"indian_context":    map[string]any{"regional_style": "north indian", "modern_adaptations": []any{"modular"}},
		},
		"metadata":          map[string]any{"budget_indicator": "Mid-Range", "tags": []any{"bright"}},
		"confidence_scores": map[string]any{"room": 0.95},
	}

	p := Normalize(raw)

	if p.RoomType != "kitchen" || p.DesignTheme != "contemporary" {
		t.Errorf("scalars: got %q / %q", p.RoomType, p.DesignTheme)
	}
	if !reflect.DeepEqual(p.ObjectTypes, []string{"chimney", "cabinet"}) {
		t.Errorf("object types: got %v", p.ObjectTypes)
	}
	if !reflect.DeepEqual(p.ObjectFeatures, []string{"steel", "glossy"}) {
		t.Errorf("object features: got %v", p.ObjectFeatures)
	}
	if p.BudgetCategory != "mid-range" {
		t.Errorf("budget: got %q", p.BudgetCategory)
	}
	if p.ConfidenceScores["room"] != 0.95 {
		t.Errorf("confidence: got %v", p.ConfidenceScores)
	}
	if p.OriginalID != "abc" {
		t.Errorf("original id: got %q", p.OriginalID)
	}
	if !contains(p.SearchTags, "bright") || !contains(p.SearchTags, "granite") {
		t.Errorf("search tags missing derived values: %v", p.SearchTags)
	}
}

func TestNormalize_OriginalAnalysisFallback(t *testing.T) {
	raw := map[string]any{
		"room_type": "bathroom",
		"original_analysis": map[string]any{
			"ai_generated_tags": map[string]any{
				"visual_attributes": map[string]any{"materials": []any{"Marble"}},
			},
		},
	}

	p := Normalize(raw)

	if !reflect.DeepEqual(p.Materials, []string{"marble"}) {
		t.Errorf("materials: got %v", p.Materials)
	}
}

func TestPayload_EmbeddingTexts(t *testing.T) {
	p := Payload{
		RoomType:        "bedroom",
		DesignTheme:     "minimal",
		Description:     "Calm Room",
		ObjectTypes:     []string{"bed"},
		Materials:       []string{"oak"},
		PrimaryFeatures: []string{"headboard"},
	}

	texts := p.EmbeddingTexts()

	if texts[VectorPrimary] != "bedroom minimal unknown unknown" {
		t.Errorf("primary: got %q", texts[VectorPrimary])
	}
	if texts[VectorSemantic] != "calm room" {
		t.Errorf("semantic: got %q", texts[VectorSemantic])
	}
	if texts[VectorObject] != "bed  oak headboard" {
		t.Errorf("object: got %q", texts[VectorObject])
	}
}

func TestPayload_Pools(t *testing.T) {
	p := Payload{
		RoomType:        "living room",
		DesignTheme:     "modern",
		RegionalStyle:   Unknown,
		BudgetCategory:  "luxury",
		SpaceType:       Unknown,
		PrimaryFeatures: []string{"sofa"},
		ObjectTypes:     []string{"lamp"},
		Colors:          []string{"red"},
	}

	if got := p.StyleValues(); !reflect.DeepEqual(got, []string{"modern"}) {
		t.Errorf("style pool: got %v", got)
	}
	sec := p.SecondaryValues()
	if contains(sec, "living room") {
		t.Error("secondary pool must not include the room type")
	}
	if !contains(sec, "luxury") || contains(sec, Unknown) {
		t.Errorf("secondary pool: got %v", sec)
	}
	if !contains(p.AllValues(), "living room") {
		t.Error("all values should include the room type")
	}
}

func contains(vals []string, want string) bool {
	for _, v := range vals {
		if v == want {
			return true
		}
	}
	return false
}
