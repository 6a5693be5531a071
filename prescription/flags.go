package prescription

import (
	"fmt"
	"strings"

	"github.com/giygas/smartpharmacy-api/catalog"
	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/safety"
)

// Level of a flag
type Level string

const (
	LevelInfo   Level = "info"
	LevelWarn   Level = "warn"
	LevelDanger Level = "danger"
)

// Flag codes
const (
	CodeUnknownItems  = "UNKNOWN_ITEMS"
	CodeDupActive     = "DUP_ACTIVE"
	CodeCondNSAID     = "COND_NSAID"
	CodeCondDecongest = "COND_DECONGEST"
	CodePedAspirin    = "PED_ASPIRIN"
	CodeAllergyHit    = "ALLERGY_HIT"
	CodeInteractions  = "INTERACTIONS"
)

// maxInteractionRelated caps the pairs listed on the INTERACTIONS flag
const maxInteractionRelated = 6

// pediatricAspirinAge is the age below which aspirin is flagged
const pediatricAspirinAge = 12

// Flag is a structured note on a validation result
type Flag struct {
	Level   Level    `json:"level"`
	Code    string   `json:"code"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Related []string `json:"related"`
}

var (
	nsaidIngredients = []string{"ibuprofen", "diclofenac", "naproxen", "ketoprofen", "celecoxib", "meloxicam"}
	decongestants    = []string{"congestal", "sudafed", "pseudo"}

	// Condition keywords are matched as substrings of the declared conditions
	nsaidRiskConditions     = []string{"ضغط", "high blood", "hypertension", "kidney", "كلى", "قرحة", "ulcer"}
	decongestRiskConditions = []string{"ضغط", "high blood", "hypertension", "heart", "قلب"}
)

// containsAny reports whether any of texts contains any of needles after normalization
func containsAny(texts []string, needles []string) bool {
	for _, t := range texts {
		t = catalog.Normalize(t)
		if t == "" {
			continue
		}
		for _, n := range needles {
			if strings.Contains(t, n) {
				return true
			}
		}
	}
	return false
}

func unknownItemsFlag(items []ResolvedItem) []Flag {
	var related []string
	for _, it := range items {
		if it.Match == nil {
			related = append(related, it.Input)
		}
	}
	if len(related) == 0 {
		return nil
	}
	return []Flag{{
		Level:   LevelInfo,
		Code:    CodeUnknownItems,
		Title:   "Unconfirmed items",
		Message: "Some medications could not be identified. Try a clearer name or pick one of the suggestions.",
		Related: related,
	}}
}

// duplicateFlags emits one flag per active ingredient shared by two or more
// resolved items, in order of first appearance
func duplicateFlags(items []ResolvedItem) []Flag {
	var order []string
	groups := make(map[string][]string)

	for _, it := range items {
		if it.Match == nil {
			continue
		}
		active := catalog.Normalize(it.Match.ActiveIngredient)
		if active == "" {
			continue
		}
		if _, seen := groups[active]; !seen {
			order = append(order, active)
		}
		groups[active] = append(groups[active], it.Match.TradeName)
	}

	var flags []Flag
	for _, active := range order {
		names := groups[active]
		if len(names) < 2 {
			continue
		}
		flags = append(flags, Flag{
			Level:   LevelWarn,
			Code:    CodeDupActive,
			Title:   "Same active ingredient",
			Message: fmt.Sprintf("More than one medication contains the same active ingredient (%s). This can lead to an accidental overdose.", active),
			Related: names,
		})
	}
	return flags
}

// relatedWhere returns the trade names of resolved items accepted by match
func relatedWhere(items []ResolvedItem, match func(e *entities.CatalogEntry) bool) []string {
	var related []string
	for _, it := range items {
		if it.Match != nil && match(it.Match) {
			related = append(related, it.Match.TradeName)
		}
	}
	return related
}

func isNSAID(e *entities.CatalogEntry) bool {
	active := catalog.Normalize(e.ActiveIngredient)
	for _, k := range nsaidIngredients {
		if strings.Contains(active, k) {
			return true
		}
	}
	return false
}

func isDecongestant(e *entities.CatalogEntry) bool {
	return containsAny([]string{e.TradeName, e.ActiveIngredient}, decongestants)
}

func isAspirin(e *entities.CatalogEntry) bool {
	return strings.Contains(catalog.Normalize(e.ActiveIngredient), "aspirin")
}

func conditionFlags(items []ResolvedItem, patient *entities.PatientContext) []Flag {
	if patient == nil {
		return nil
	}

	var flags []Flag

	if related := relatedWhere(items, isNSAID); len(related) > 0 && containsAny(patient.Conditions, nsaidRiskConditions) {
		flags = append(flags, Flag{
			Level:   LevelWarn,
			Code:    CodeCondNSAID,
			Title:   "Painkiller caution",
			Message: "With high blood pressure, kidney problems or an ulcer some painkillers (NSAIDs) raise the risk. Check with a pharmacist or doctor first.",
			Related: related,
		})
	}

	if related := relatedWhere(items, isDecongestant); len(related) > 0 && containsAny(patient.Conditions, decongestRiskConditions) {
		flags = append(flags, Flag{
			Level:   LevelWarn,
			Code:    CodeCondDecongest,
			Title:   "Decongestant caution",
			Message: "Decongestants can raise blood pressure and heart rate. With a blood pressure or heart condition ask a pharmacist or doctor.",
			Related: related,
		})
	}

	if patient.Age != nil && *patient.Age < pediatricAspirinAge {
		if related := relatedWhere(items, isAspirin); len(related) > 0 {
			flags = append(flags, Flag{
				Level:   LevelDanger,
				Code:    CodePedAspirin,
				Title:   "Warning for children",
				Message: "Aspirin is not recommended for children under 12 without a prescription. Consult a doctor or pharmacist.",
				Related: related,
			})
		}
	}

	return flags
}

func allergyFlag(hits []AllergyHit) []Flag {
	if len(hits) == 0 {
		return nil
	}
	related := make([]string, 0, len(hits))
	for _, h := range hits {
		related = append(related, h.TradeName)
	}
	return []Flag{{
		Level:   LevelDanger,
		Code:    CodeAllergyHit,
		Title:   "Allergy warning",
		Message: "Some medications may conflict with the recorded allergies. Check with a pharmacist or doctor before use.",
		Related: related,
	}}
}

func interactionsFlag(hits []safety.Hit) []Flag {
	if len(hits) == 0 {
		return nil
	}

	level, message := LevelWarn, "Possible interactions between some of the medications. Check with a pharmacist or doctor."
	if safety.HasHigh(hits) {
		level, message = LevelDanger, "Possible serious interactions between some of the medications."
	}

	related := make([]string, 0, maxInteractionRelated)
	for i, h := range hits {
		if i == maxInteractionRelated {
			break
		}
		related = append(related, h.A.TradeName+" + "+h.B.TradeName)
	}

	return []Flag{{
		Level:   level,
		Code:    CodeInteractions,
		Title:   "Possible drug interactions",
		Message: message,
		Related: related,
	}}
}
