package filter

import (
	"fmt"
	"sort"
	"strings"
)

// MaxConditions is the maximum number of facet conditions per request.
const MaxConditions = 8

// Facet fields that can be pushed down to the vector store as exact tag matches.
const (
	FieldBudgetCategory = "budget_category"
	FieldSpaceType      = "space_type"
	FieldDesignTheme    = "design_theme"
	FieldRoomType       = "room_type"
)

var facetFields = map[string]bool{
	FieldBudgetCategory: true,
	FieldSpaceType:      true,
	FieldDesignTheme:    true,
	FieldRoomType:       true,
}

// Expression is a conjunction of exact tag matches.
type Expression struct {
	must []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must []Condition) (Expression, error) {
	if len(must) > MaxConditions {
		return Expression{}, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	seen := make(map[string]bool, len(must))
	for _, c := range must {
		if seen[c.key] {
			return Expression{}, fmt.Errorf("duplicate filter on %q", c.key)
		}
		seen[c.key] = true
	}
	return Expression{must: must}, nil
}

// FromFacets builds an expression from field→value pairs, skipping empty values.
// Conditions are ordered by field name.
func FromFacets(facets map[string]string) (Expression, error) {
	keys := make([]string, 0, len(facets))
	for k, v := range facets {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		c, err := NewMatch(k, facets[k])
		if err != nil {
			return Expression{}, err
		}
		conds = append(conds, c)
	}
	return NewExpression(conds)
}

// Must returns the conditions.
func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool { return len(e.must) == 0 }

// Condition is a single exact tag match on a facet field.
type Condition struct {
	key   string
	match string
}

// NewMatch creates an exact tag match condition. Values are lower-cased like stored payloads.
func NewMatch(key, match string) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if !facetFields[key] {
		return Condition{}, fmt.Errorf("field %q is not filterable", key)
	}
	match = strings.ToLower(strings.TrimSpace(match))
	if match == "" {
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

// Key returns the field name.
func (c Condition) Key() string { return c.key }

// Match returns the exact match value.
func (c Condition) Match() string { return c.match }
