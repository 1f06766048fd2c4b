// Package image holds the catalog record model shared by the store, the search core and ingestion.
package image

import "strings"

// Named vectors stored per record.
const (
	VectorPrimary  = "primary_search"
	VectorSemantic = "semantic_desc"
	VectorObject   = "object_focus"
)

// VectorNames lists the named vectors in fusion order.
var VectorNames = []string{VectorPrimary, VectorSemantic, VectorObject}

// Unknown is the placeholder stored for missing scalar attributes.
const Unknown = "unknown"

// CulturalContext groups the regional/cultural annotations of an image.
type CulturalContext struct {
	TraditionalElements  []string `json:"traditional_elements"`
	ModernAdaptations    []string `json:"modern_adaptations"`
	CulturalSignificance string   `json:"cultural_significance"`
}

// Payload is the canonical attribute set of an image record.
// Scalar attributes and tag values are lower-cased.
type Payload struct {
	RoomType         string             `json:"room_type"`
	DesignTheme      string             `json:"design_theme"`
	RegionalStyle    string             `json:"regional_style"`
	SpaceUtilization string             `json:"space_utilization"`
	BudgetCategory   string             `json:"budget_category"`
	SpaceType        string             `json:"space_type"`
	Functionality    string             `json:"functionality"`
	Description      string             `json:"description,omitempty"`
	Colors           []string           `json:"colors"`
	Materials        []string           `json:"materials"`
	PrimaryFeatures  []string           `json:"primary_features"`
	ObjectTypes      []string           `json:"object_types"`
	ObjectFeatures   []string           `json:"object_features"`
	SearchTags       []string           `json:"search_tags"`
	Cultural         CulturalContext    `json:"indian_specific"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	ImageURL         string             `json:"image_url"`
	OriginalID       string             `json:"original_id"`
}

// Record is a stored catalog point.
type Record struct {
	ID      string
	Vectors map[string][]float32
	Payload Payload
}

// Hit is a nearest-neighbour match returned by the store.
type Hit struct {
	ID      string
	Score   float64
	Payload Payload
}

// HasRoomType reports whether the record carries a real room-type label.
func (p *Payload) HasRoomType() bool {
	return p.RoomType != "" && p.RoomType != Unknown
}

// FeatureValues is the pool compared in the features tier.
func (p *Payload) FeatureValues() []string {
	return p.PrimaryFeatures
}

// StyleValues is the pool compared in the style tier.
func (p *Payload) StyleValues() []string {
	out := make([]string, 0, 2+len(p.Cultural.TraditionalElements))
	out = appendKnown(out, p.DesignTheme, p.RegionalStyle)
	return append(out, p.Cultural.TraditionalElements...)
}

// ObjectValues is the pool compared in the objects tier.
func (p *Payload) ObjectValues() []string {
	out := make([]string, 0, len(p.ObjectTypes)+len(p.ObjectFeatures)+len(p.Materials))
	out = append(out, p.ObjectTypes...)
	out = append(out, p.ObjectFeatures...)
	return append(out, p.Materials...)
}

// SecondaryValues is the union used by the secondary filter once the room is fixed.
func (p *Payload) SecondaryValues() []string {
	out := make([]string, 0, 16)
	out = append(out, p.FeatureValues()...)
	out = append(out, p.StyleValues()...)
	out = append(out, p.ObjectValues()...)
	out = append(out, p.Colors...)
	return appendKnown(out, p.BudgetCategory, p.SpaceType)
}

// AllValues is every attribute value on the record, room type included.
func (p *Payload) AllValues() []string {
	out := appendKnown(p.SecondaryValues(), p.RoomType, p.SpaceUtilization, p.Functionality)
	out = append(out, p.SearchTags...)
	return append(out, p.Cultural.ModernAdaptations...)
}

func appendKnown(dst []string, vals ...string) []string {
	for _, v := range vals {
		if v != "" && v != Unknown {
			dst = append(dst, v)
		}
	}
	return dst
}

// EmbeddingTexts builds the text embedded into each named vector.
func (p *Payload) EmbeddingTexts() map[string]string {
	primary := strings.Join([]string{
		orUnknown(p.RoomType), orUnknown(p.DesignTheme),
		orUnknown(p.RegionalStyle), orUnknown(p.SpaceUtilization),
	}, " ")

	semantic := strings.Join([]string{
		p.Description, p.Cultural.CulturalSignificance,
		strings.Join(p.Cultural.ModernAdaptations, " "),
	}, " ")

	object := strings.Join([]string{
		strings.Join(p.ObjectTypes, " "), strings.Join(p.ObjectFeatures, " "),
		strings.Join(p.Materials, " "), strings.Join(p.PrimaryFeatures, " "),
		strings.Join(p.Colors, " "),
	}, " ")

	return map[string]string{
		VectorPrimary:  strings.ToLower(primary),
		VectorSemantic: strings.ToLower(strings.TrimSpace(semantic)),
		VectorObject:   strings.ToLower(strings.TrimSpace(object)),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
