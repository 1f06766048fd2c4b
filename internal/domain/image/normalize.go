package image

import (
	"sort"
	"strings"
)

// Normalize folds the payload shapes written by successive annotation pipelines into one Payload.
// Precedence per attribute: flat canonical field, then "tags.*", then
// "ai_generated_tags.*", then "original_analysis.ai_generated_tags.*".
func Normalize(raw map[string]any) Payload {
	sources := layers(raw)

	p := Payload{
		RoomType:         lowerScalar(sources, "room_type", "room"),
		DesignTheme:      lowerScalar(sources, "design_theme", "theme"),
		RegionalStyle:    lowerScalar(sources, "regional_style", "indian_context.regional_style", "cultural_context.regional_style"),
		SpaceUtilization: lowerScalar(sources, "space_utilization", "indian_context.space_utilization", "cultural_context.space_utilization"),
		BudgetCategory:   lowerScalar(sources, "budget_category", "budget_indicator", "metadata.budget_indicator"),
		SpaceType:        lowerScalar(sources, "space_type", "metadata.space_type"),
		Functionality:    lowerScalar(sources, "functionality", "metadata.functionality"),
		Description:      firstString(sources, "description"),
		Colors:           lowerList(sources, "colors", "visual_attributes.colors"),
		Materials:        lowerList(sources, "materials", "visual_attributes.materials"),
		PrimaryFeatures:  lowerList(sources, "primary_features"),
		ObjectTypes:      lowerList(sources, "object_types"),
		ObjectFeatures:   lowerList(sources, "object_features"),
		SearchTags:       lowerList(sources, "search_tags"),
		ImageURL:         firstString(sources, "image_url"),
		OriginalID:       firstString(sources, "original_id", "image_id"),
	}

	// Older annotations carry objects as [{type, features}].
	if len(p.ObjectTypes) == 0 || len(p.ObjectFeatures) == 0 {
		types, feats := objectsList(sources)
		if len(p.ObjectTypes) == 0 {
			p.ObjectTypes = types
		}
		if len(p.ObjectFeatures) == 0 {
			p.ObjectFeatures = feats
		}
	}

	p.Cultural = CulturalContext{
		TraditionalElements: list(sources,
			"indian_specific.traditional_elements", "indian_context.traditional_elements",
			"cultural_context.traditional_elements"),
		ModernAdaptations: list(sources,
			"indian_specific.modern_adaptations", "indian_context.modern_adaptations",
			"cultural_context.modern_adaptations"),
		CulturalSignificance: firstString(sources,
			"indian_specific.cultural_significance", "indian_context.cultural_significance",
			"cultural_context.cultural_significance"),
	}

	p.ConfidenceScores = confidence(sources)

	if len(p.SearchTags) == 0 {
		p.SearchTags = deriveSearchTags(&p, list(sources, "metadata.tags"))
	}
	return p
}

// layers returns the nested maps to consult, in precedence order.
func layers(raw map[string]any) []map[string]any {
	out := []map[string]any{raw}
	if m := asMap(raw["tags"]); m != nil {
		out = append(out, m)
	}
	if m := asMap(raw["ai_generated_tags"]); m != nil {
		out = append(out, m)
	}
	if orig := asMap(raw["original_analysis"]); orig != nil {
		if m := asMap(orig["ai_generated_tags"]); m != nil {
			out = append(out, m)
		}
		out = append(out, orig)
	}
	return out
}

func lookup(m map[string]any, path string) any {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		mm := asMap(cur)
		if mm == nil {
			return nil
		}
		cur = mm[part]
	}
	return cur
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func firstString(sources []map[string]any, paths ...string) string {
	for _, src := range sources {
		for _, path := range paths {
			if s, ok := lookup(src, path).(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func lowerScalar(sources []map[string]any, paths ...string) string {
	s := strings.ToLower(firstString(sources, paths...))
	if s == "" {
		return Unknown
	}
	return strings.Join(strings.Fields(s), " ")
}

func list(sources []map[string]any, paths ...string) []string {
	for _, src := range sources {
		for _, path := range paths {
			if vals := toStrings(lookup(src, path)); len(vals) > 0 {
				return vals
			}
		}
	}
	return nil
}

func lowerList(sources []map[string]any, paths ...string) []string {
	return lowerAll(list(sources, paths...))
}

func toStrings(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}

func lowerAll(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	out := make([]string, 0, len(vals))
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func objectsList(sources []map[string]any) (types, features []string) {
	for _, src := range sources {
		objs, ok := src["objects"].([]any)
		if !ok || len(objs) == 0 {
			continue
		}
		for _, o := range objs {
			om := asMap(o)
			if om == nil {
				continue
			}
			if t, ok := om["type"].(string); ok && t != "" {
				types = append(types, t)
			}
			features = append(features, toStrings(om["features"])...)
		}
		return lowerAll(types), lowerAll(features)
	}
	return nil, nil
}

func confidence(sources []map[string]any) map[string]float64 {
	for _, src := range sources {
		m := asMap(src["confidence_scores"])
		if len(m) == 0 {
			continue
		}
		out := make(map[string]float64, len(m))
		for k, v := range m {
			switch n := v.(type) {
			case float64:
				out[k] = n
			case float32:
				out[k] = float64(n)
			case int:
				out[k] = float64(n)
			}
		}
		return out
	}
	return nil
}

func deriveSearchTags(p *Payload, extra []string) []string {
	set := make(map[string]struct{})
	add := func(vals ...string) {
		for _, v := range vals {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" && v != Unknown {
				set[v] = struct{}{}
			}
		}
	}
	add(p.RoomType, p.DesignTheme, p.SpaceUtilization)
	add(p.Colors...)
	add(p.Materials...)
	add(p.PrimaryFeatures...)
	add(p.ObjectTypes...)
	add(p.ObjectFeatures...)
	add(extra...)
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
