package models

import (
	"fmt"
	"strings"
)

// StatCategory is the prop category a confidence score is computed for.
type StatCategory string

const (
	CategoryPoints   StatCategory = "POINTS"
	CategoryAssists  StatCategory = "ASSISTS"
	CategoryRebounds StatCategory = "REBOUNDS"
)

// ParseStatCategory validates user-supplied category strings at the API
// boundary. Calculators past this point treat unknown categories as
// programmer error.
func ParseStatCategory(s string) (StatCategory, error) {
	switch StatCategory(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryPoints:
		return CategoryPoints, nil
	case CategoryAssists:
		return CategoryAssists, nil
	case CategoryRebounds:
		return CategoryRebounds, nil
	default:
		return "", fmt.Errorf("unknown stat category %q", s)
	}
}

// StatValue extracts the category's stat from a box-score line. The mapping
// is total over the three categories; anything else is a bug upstream of
// the calculators and panics.
func (c StatCategory) StatValue(g PlayerGameStats) int {
	switch c {
	case CategoryPoints:
		return g.Points
	case CategoryAssists:
		return g.Assists
	case CategoryRebounds:
		return g.Rebounds
	default:
		panic(fmt.Sprintf("unmapped stat category %q", string(c)))
	}
}

func (c StatCategory) String() string {
	return string(c)
}
