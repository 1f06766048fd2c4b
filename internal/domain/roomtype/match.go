package roomtype

import "strings"

var synonymIndex = buildSynonymIndex()

func buildSynonymIndex() map[string]int {
	idx := make(map[string]int)
	for i, group := range synonyms {
		for _, label := range group {
			idx[label] = i
		}
	}
	return idx
}

// Normalize lower-cases a label and collapses internal whitespace.
func Normalize(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Synonyms returns every label known to name the same space as label, label included.
func Synonyms(label string) []string {
	label = Normalize(label)
	if i, ok := synonymIndex[label]; ok {
		return synonyms[i]
	}
	return []string{label}
}

// Canonical returns the canonical label of label's synonym group, or label itself.
func Canonical(label string) string {
	return Synonyms(label)[0]
}

// Matches reports whether a record's room type satisfies the detected room type:
// equal, containing or contained, directly or through the synonym table.
func Matches(recordRoom, detected string) bool {
	recordRoom, detected = Normalize(recordRoom), Normalize(detected)
	if recordRoom == "" || detected == "" || recordRoom == "unknown" {
		return false
	}
	if overlaps(recordRoom, detected) {
		return true
	}
	for _, syn := range Synonyms(detected) {
		if overlaps(recordRoom, syn) {
			return true
		}
	}
	for _, syn := range Synonyms(recordRoom) {
		if overlaps(syn, detected) {
			return true
		}
	}
	return false
}

func overlaps(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// Words returns the set of words that name the detected room type or one of its synonyms.
// The generic word "room" is always included.
func Words(detected string) map[string]struct{} {
	out := map[string]struct{}{"room": {}, "rooms": {}}
	for _, syn := range Synonyms(detected) {
		for _, w := range strings.Fields(syn) {
			out[w] = struct{}{}
		}
	}
	return out
}

// MatchPattern returns the first canonical room type whose keywords occur in the lower-cased query.
func MatchPattern(query string) (string, bool) {
	for _, p := range Patterns {
		for _, kw := range p.Keywords {
			if strings.Contains(query, kw) {
				return p.RoomType, true
			}
		}
	}
	return "", false
}
