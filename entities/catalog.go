// Package entities holds the data types shared across the pharmacy API:
// catalog entries, patient context, pharmacies and reservations.
package entities

import "math"

// CatalogEntry is one product of the drug catalog.
// TradeName and ActiveIngredient are never blank for a loaded entry.
type CatalogEntry struct {
	ID               string   `json:"drug_id"`
	TradeName        string   `json:"trade_name"`
	ActiveIngredient string   `json:"active_ingredient"`
	TherapeuticGroup string   `json:"therapeutic_group,omitempty"`
	Form             string   `json:"form,omitempty"`
	AvgPrice         *float64 `json:"avg_price,omitempty"`

	// Pre-computed at load time: NFC + ToLower + TrimSpace
	TradeNameNormalized        string `json:"-"`
	ActiveIngredientNormalized string `json:"-"`
}

// HasPrice reports whether the entry carries a usable reference price.
func (e CatalogEntry) HasPrice() bool {
	return e.AvgPrice != nil && !math.IsNaN(*e.AvgPrice) && !math.IsInf(*e.AvgPrice, 0)
}

// Alternative is the reduced view of a substitute product.
type Alternative struct {
	TradeName        string   `json:"trade_name"`
	ActiveIngredient string   `json:"active_ingredient"`
	AvgPrice         *float64 `json:"avg_price,omitempty"`
}

// AsAlternative converts the entry to its substitute view.
func (e CatalogEntry) AsAlternative() Alternative {
	return Alternative{
		TradeName:        e.TradeName,
		ActiveIngredient: e.ActiveIngredient,
		AvgPrice:         e.AvgPrice,
	}
}

// Cosmetic is one product of the cosmetics catalog. Cosmetics are only
// searched; they never take part in resolution or safety checks.
type Cosmetic struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price,omitempty"`
	SkinType    string   `json:"skin_type,omitempty"`
	Description string   `json:"description,omitempty"`
}
