package roomtype

import "strings"

// SearchContext classifies what a query is after.
type SearchContext string

// Search contexts.
const (
	ContextRoomSpecific    SearchContext = "ROOM_SPECIFIC"
	ContextFurnitureObject SearchContext = "FURNITURE_OBJECT"
	ContextGeneral         SearchContext = "GENERAL_SEARCH"
)

// IsValid reports whether c is a known context.
func (c SearchContext) IsValid() bool {
	return c == ContextRoomSpecific || c == ContextFurnitureObject || c == ContextGeneral
}

// ClassifyContext applies the keyword rules: a room mention wins over a furniture mention.
func ClassifyContext(query string) SearchContext {
	q := strings.ToLower(query)
	for _, p := range roomContextPatterns {
		if strings.Contains(q, p) {
			return ContextRoomSpecific
		}
	}
	for _, p := range furnitureContextPatterns {
		if strings.Contains(q, p) {
			return ContextFurnitureObject
		}
	}
	return ContextGeneral
}
