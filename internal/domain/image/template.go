package image

import "strings"

// Placeholder fragments an annotation model emits when it echoes the prompt schema.
var templateMarkers = map[string][]string{
	"room":  {"Room Type (", "Living Room, Bedroom"},
	"theme": {"Design Theme (", "Traditional Indian"},
}

// IsTemplate reports whether a raw annotation is a placeholder answer rather than an analysis.
func IsTemplate(raw map[string]any) bool {
	tags := asMap(raw["ai_generated_tags"])
	if tags == nil {
		return false
	}
	for field, markers := range templateMarkers {
		s, ok := tags[field].(string)
		if !ok {
			continue
		}
		for _, m := range markers {
			if strings.Contains(s, m) {
				return true
			}
		}
	}
	return false
}
