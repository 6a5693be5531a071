package safety

import (
	"reflect"
	"testing"
)

func TestCheckInteractionsWarfarinIbuprofen(t *testing.T) {
	rs := DefaultRuleSet()
	items := []Item{
		{TradeName: "X", ActiveIngredient: "warfarin"},
		{TradeName: "Y", ActiveIngredient: "ibuprofen"},
	}

	hits := rs.CheckInteractions(items)
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit, got %d", len(hits))
	}
	if hits[0].Severity != SeverityHigh {
		t.Errorf("Expected high severity, got %s", hits[0].Severity)
	}
	if hits[0].A.TradeName != "X" || hits[0].B.TradeName != "Y" {
		t.Errorf("Expected pair in input order, got %s + %s", hits[0].A.TradeName, hits[0].B.TradeName)
	}
}

func TestCheckInteractionsSymmetric(t *testing.T) {
	rs := DefaultRuleSet()
	x := Item{TradeName: "Glucophage", ActiveIngredient: " Metformin "}
	y := Item{TradeName: "Beer", ActiveIngredient: "ALCOHOL"}

	forward := rs.CheckInteractions([]Item{x, y})
	backward := rs.CheckInteractions([]Item{y, x})

	if len(forward) != 1 || len(backward) != 1 {
		t.Fatalf("Expected one hit each way, got %d and %d", len(forward), len(backward))
	}
	if forward[0].Severity != backward[0].Severity || forward[0].Summary != backward[0].Summary {
		t.Errorf("Hits differ by order: %+v vs %+v", forward[0], backward[0])
	}
}

func TestCheckInteractionsExactMatchOnly(t *testing.T) {
	rs := DefaultRuleSet()
	hits := rs.CheckInteractions([]Item{
		{TradeName: "A", ActiveIngredient: "warfarin sodium"},
		{TradeName: "B", ActiveIngredient: "ibuprofen"},
	})
	if len(hits) != 0 {
		t.Errorf("Ingredient matching must be exact, got %d hits", len(hits))
	}
}

func TestCheckInteractionsOrderingAndBound(t *testing.T) {
	rs := DefaultRuleSet()
	items := []Item{
		{TradeName: "Glucophage", ActiveIngredient: "metformin"},
		{TradeName: "Marevan", ActiveIngredient: "warfarin"},
		{TradeName: "Beer", ActiveIngredient: "alcohol"},
		{TradeName: "Aspocid", ActiveIngredient: "aspirin"},
		{TradeName: "Brufen", ActiveIngredient: "ibuprofen"},
	}

	hits := rs.CheckInteractions(items)

	n := len(items)
	if len(hits) > n*(n-1)/2 {
		t.Fatalf("Hits exceed C(n,2): %d", len(hits))
	}

	got := make([]string, len(hits))
	for i, h := range hits {
		got[i] = h.A.TradeName + "+" + h.B.TradeName
		if _, ok := rs.Lookup(h.A.ActiveIngredient, h.B.ActiveIngredient); !ok {
			t.Errorf("Hit %s has no rule", got[i])
		}
	}

	// high hits first in pair order, then the medium hit
	want := []string{"Marevan+Aspocid", "Marevan+Brufen", "Glucophage+Beer"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if !HasHigh(hits) {
		t.Error("Expected HasHigh to be true")
	}
}

func TestCheckInteractionsIdempotent(t *testing.T) {
	rs := DefaultRuleSet()
	items := []Item{
		{TradeName: "Roaccutane", ActiveIngredient: "isotretinoin"},
		{TradeName: "Vit A", ActiveIngredient: "Vitamin A"},
	}
	if !reflect.DeepEqual(rs.CheckInteractions(items), rs.CheckInteractions(items)) {
		t.Error("Expected identical output for identical input")
	}
}

func TestCheckInteractionsNoHits(t *testing.T) {
	rs := DefaultRuleSet()
	hits := rs.CheckInteractions([]Item{{ActiveIngredient: "paracetamol"}, {ActiveIngredient: "vitamin c"}})
	if hits == nil || len(hits) != 0 {
		t.Errorf("Expected empty non-nil result, got %v", hits)
	}
	if HasHigh(hits) {
		t.Error("Expected HasHigh false for no hits")
	}
}

func TestNewRuleSetSkipsBlankAndOverrides(t *testing.T) {
	rs := NewRuleSet([]Rule{
		{IngredientA: "a", IngredientB: "b", Severity: SeverityLow, Summary: "first"},
		{IngredientA: "B", IngredientB: "A", Severity: SeverityMedium, Summary: "second"},
		{IngredientA: "", IngredientB: "c", Severity: SeverityHigh},
	})
	if rs.Len() != 1 {
		t.Fatalf("Expected 1 rule, got %d", rs.Len())
	}
	r, _ := rs.Lookup("a", "b")
	if r.Summary != "second" {
		t.Errorf("Expected later rule to win, got %s", r.Summary)
	}
}

func TestSeverityRank(t *testing.T) {
	if !(SeverityHigh.Rank() > SeverityMedium.Rank() && SeverityMedium.Rank() > SeverityLow.Rank()) {
		t.Error("Expected high > medium > low")
	}
	if Severity("unknown").Rank() != 0 {
		t.Error("Expected unknown severity rank 0")
	}
}

func TestCheckAllergy(t *testing.T) {
	tests := []struct {
		name      string
		active    string
		allergens []string
		hit       bool
		matched   []string
	}{
		{"exact", "paracetamol", []string{"paracetamol"}, true, []string{"paracetamol"}},
		{"no match", "paracetamol", []string{"ibuprofen"}, false, []string{}},
		{"ingredient contains allergen", "amoxicillin trihydrate", []string{"Amoxicillin"}, true, []string{"Amoxicillin"}},
		{"allergen is broader", "aspirin", []string{"aspirin and nsaids"}, true, []string{"aspirin and nsaids"}},
		{"all matches returned", "co-amoxiclav amoxicillin", []string{"amoxicillin", "sulfa", " AMOX "}, true, []string{"amoxicillin", "AMOX"}},
		{"blank ingredient", "  ", []string{"paracetamol"}, false, []string{}},
		{"blank allergen ignored", "paracetamol", []string{" "}, false, []string{}},
		{"no allergens", "paracetamol", nil, false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckAllergy(tt.active, tt.allergens)
			if got.Hit != tt.hit {
				t.Errorf("Hit = %v, want %v", got.Hit, tt.hit)
			}
			if !reflect.DeepEqual(got.Matched, tt.matched) {
				t.Errorf("Matched = %v, want %v", got.Matched, tt.matched)
			}
		})
	}
}
