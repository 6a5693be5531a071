// Package prescription validates a list of free-text medication names against
// the catalog, the interaction rules and a patient profile.
package prescription

import (
	"strings"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/metrics"
	"github.com/giygas/smartpharmacy-api/safety"
)

// MaxMeds is the number of inputs considered per validation
const MaxMeds = 12

// ResolvedItem is one input and its catalog match, nil when unmatched
type ResolvedItem struct {
	Input string                 `json:"input"`
	Match *entities.CatalogEntry `json:"match"`
}

// AllergyHit is a resolved item whose ingredient matched declared allergens
type AllergyHit struct {
	TradeName        string   `json:"trade_name"`
	ActiveIngredient string   `json:"active_ingredient"`
	Matched          []string `json:"matched"`
}

// AllergySummary groups the allergy hits of a validation
type AllergySummary struct {
	Hits []AllergyHit `json:"hits"`
}

// Result is the aggregate outcome of a validation
type Result struct {
	Items        []ResolvedItem                    `json:"items"`
	Flags        []Flag                            `json:"flags"`
	Interactions []safety.Hit                      `json:"interactions"`
	Allergy      AllergySummary                    `json:"allergy"`
	Alternatives map[string][]entities.Alternative `json:"alternatives"`
}

// Validator runs the prescription checks
type Validator struct {
	catalog interfaces.CatalogStore
	rules   *safety.RuleSet
}

// NewValidator creates a validator. A nil rule set uses the default rules.
func NewValidator(catalog interfaces.CatalogStore, rules *safety.RuleSet) *Validator {
	if rules == nil {
		rules = safety.DefaultRuleSet()
	}
	return &Validator{catalog: catalog, rules: rules}
}

// Rules returns the interaction rules used by the validator
func (v *Validator) Rules() *safety.RuleSet {
	return v.rules
}

// Validate resolves meds and evaluates them for patient, which may be nil.
// Unmatched names degrade to an UNKNOWN_ITEMS flag; Validate never fails.
func (v *Validator) Validate(meds []string, patient *entities.PatientContext) *Result {
	items := v.resolve(meds)

	var known []safety.Item
	for _, it := range items {
		if it.Match != nil && it.Match.ActiveIngredient != "" {
			known = append(known, safety.Item{
				TradeName:        it.Match.TradeName,
				ActiveIngredient: it.Match.ActiveIngredient,
			})
		}
	}

	interactions := []safety.Hit{}
	if len(known) >= 2 {
		interactions = v.rules.CheckInteractions(known)
	}

	allergyHits := []AllergyHit{}
	if patient != nil && len(patient.Allergies) > 0 {
		for _, k := range known {
			if r := safety.CheckAllergy(k.ActiveIngredient, patient.Allergies); r.Hit {
				allergyHits = append(allergyHits, AllergyHit{
					TradeName:        k.TradeName,
					ActiveIngredient: k.ActiveIngredient,
					Matched:          r.Matched,
				})
			}
		}
	}

	// Flag order is fixed and drives display grouping
	flags := []Flag{}
	flags = append(flags, unknownItemsFlag(items)...)
	flags = append(flags, duplicateFlags(items)...)
	flags = append(flags, conditionFlags(items, patient)...)
	flags = append(flags, allergyFlag(allergyHits)...)
	flags = append(flags, interactionsFlag(interactions)...)

	alternatives := make(map[string][]entities.Alternative)
	for _, it := range items {
		if it.Match == nil || it.Match.ActiveIngredient == "" {
			continue
		}
		alts := v.catalog.Alternatives(it.Match.ActiveIngredient, it.Match.TradeName, it.Match.AvgPrice)
		views := make([]entities.Alternative, len(alts))
		for i, a := range alts {
			views[i] = a.AsAlternative()
		}
		alternatives[it.Match.TradeName] = views
	}

	record(flags, interactions)

	return &Result{
		Items:        items,
		Flags:        flags,
		Interactions: interactions,
		Allergy:      AllergySummary{Hits: allergyHits},
		Alternatives: alternatives,
	}
}

// resolve trims inputs, drops blanks and caps the list. Duplicates are kept.
func (v *Validator) resolve(meds []string) []ResolvedItem {
	items := make([]ResolvedItem, 0, min(len(meds), MaxMeds))
	for _, m := range meds {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		items = append(items, ResolvedItem{Input: m, Match: v.catalog.Resolve(m)})
		if len(items) == MaxMeds {
			break
		}
	}
	return items
}

func record(flags []Flag, hits []safety.Hit) {
	metrics.PrescriptionValidations.Inc()
	for _, f := range flags {
		metrics.PrescriptionFlags.WithLabelValues(f.Code, string(f.Level)).Inc()
	}
	for _, h := range hits {
		metrics.InteractionHits.WithLabelValues(string(h.Severity)).Inc()
	}
}
