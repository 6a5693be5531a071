package safety

import (
	"strings"

	"github.com/giygas/smartpharmacy-api/catalog"
)

// AllergyResult is the outcome of an allergy check
type AllergyResult struct {
	Hit     bool     `json:"hit"`
	Matched []string `json:"matched"`
}

// CheckAllergy matches an active ingredient against declared allergens.
// An allergen matches when either normalized string contains the other, so a
// specific ingredient and a broader class both hit. Every matching allergen is
// returned trimmed, in input order.
func CheckAllergy(activeIngredient string, allergens []string) AllergyResult {
	result := AllergyResult{Matched: []string{}}

	active := catalog.Normalize(activeIngredient)
	if active == "" {
		return result
	}

	for _, allergen := range allergens {
		a := catalog.Normalize(allergen)
		if a == "" {
			continue
		}
		if strings.Contains(active, a) || strings.Contains(a, active) {
			result.Matched = append(result.Matched, strings.TrimSpace(allergen))
		}
	}

	result.Hit = len(result.Matched) > 0
	return result
}
