// Package safety holds the drug safety rules: pairwise interaction checks
// against a static rule table and allergy matching.
package safety

import (
	"sort"

	"github.com/giygas/smartpharmacy-api/catalog"
)

// Severity of an interaction
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities for sorting: high=3, medium=2, low=1, unknown=0
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Item is a product taking part in an interaction check
type Item struct {
	TradeName        string `json:"trade_name"`
	ActiveIngredient string `json:"active_ingredient"`
}

// Rule is a known interaction between two active ingredients
type Rule struct {
	IngredientA string   `json:"ingredient_a"`
	IngredientB string   `json:"ingredient_b"`
	Severity    Severity `json:"severity"`
	Summary     string   `json:"summary"`
}

// Hit is a matched rule for one pair of items
type Hit struct {
	A        Item     `json:"a"`
	B        Item     `json:"b"`
	Severity Severity `json:"severity"`
	Summary  string   `json:"summary"`
}

type pairKey struct{ a, b string }

// RuleSet indexes rules by unordered ingredient pair
type RuleSet struct {
	rules map[pairKey]Rule
}

// DefaultRules are the seeded interaction rules
var DefaultRules = []Rule{
	{IngredientA: "warfarin", IngredientB: "ibuprofen", Severity: SeverityHigh, Summary: "Increases bleeding risk."},
	{IngredientA: "warfarin", IngredientB: "aspirin", Severity: SeverityHigh, Summary: "Increases bleeding risk."},
	{IngredientA: "metformin", IngredientB: "alcohol", Severity: SeverityMedium, Summary: "Raises the risk of lactic acidosis."},
	{IngredientA: "isotretinoin", IngredientB: "vitamin a", Severity: SeverityMedium, Summary: "Additive vitamin A toxicity."},
}

// NewRuleSet builds a rule set. A later rule for the same pair replaces an earlier one.
func NewRuleSet(rules []Rule) *RuleSet {
	rs := &RuleSet{rules: make(map[pairKey]Rule, len(rules))}
	for _, r := range rules {
		a, b := catalog.Normalize(r.IngredientA), catalog.Normalize(r.IngredientB)
		if a == "" || b == "" {
			continue
		}
		rs.rules[orderedPair(a, b)] = r
	}
	return rs
}

// DefaultRuleSet returns a rule set over DefaultRules
func DefaultRuleSet() *RuleSet {
	return NewRuleSet(DefaultRules)
}

func orderedPair(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Lookup finds the rule for two ingredients in either order.
// Matching is exact after normalization.
func (rs *RuleSet) Lookup(a, b string) (Rule, bool) {
	r, ok := rs.rules[orderedPair(catalog.Normalize(a), catalog.Normalize(b))]
	return r, ok
}

// Len returns the number of rules
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// CheckInteractions evaluates every unordered pair i<j of items and returns
// one hit per pair with a rule, most severe first. Pairs of equal severity keep
// generation order.
func (rs *RuleSet) CheckInteractions(items []Item) []Hit {
	hits := []Hit{}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			rule, ok := rs.Lookup(items[i].ActiveIngredient, items[j].ActiveIngredient)
			if !ok {
				continue
			}
			hits = append(hits, Hit{
				A:        items[i],
				B:        items[j],
				Severity: rule.Severity,
				Summary:  rule.Summary,
			})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Severity.Rank() > hits[j].Severity.Rank()
	})
	return hits
}

// HasHigh reports whether any hit is high severity
func HasHigh(hits []Hit) bool {
	for _, h := range hits {
		if h.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
