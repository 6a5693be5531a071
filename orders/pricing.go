package orders

import (
	"math"
	"unicode/utf16"

	"github.com/giygas/smartpharmacy-api/catalog"
	"github.com/giygas/smartpharmacy-api/interfaces"
)

// MinUnitPrice is the floor applied to every priced item
const MinUnitPrice = 5

// Compile-time check to ensure HashInventory implements Inventory
var _ interfaces.Inventory = HashInventory{}

// HashInventory is a deterministic stand-in for real stock levels: an item is
// available unless the sum of the UTF-16 code units of its normalized trade
// name plus the pharmacy id is divisible by 3.
type HashInventory struct{}

// Available implements interfaces.Inventory
func (HashInventory) Available(tradeName string, pharmacyID int) bool {
	name := catalog.Normalize(tradeName)
	if name == "" {
		return false
	}
	seed := 0
	for _, unit := range utf16.Encode([]rune(name)) {
		seed += int(unit)
	}
	return (seed+pharmacyID)%3 != 0
}

// UnitPrice applies the pharmacy factor to the catalog price, rounding half
// up and flooring at MinUnitPrice. A missing, non-positive or non-finite price yields nil.
func UnitPrice(avgPrice *float64, factor float64) *int {
	if avgPrice == nil || math.IsNaN(*avgPrice) || math.IsInf(*avgPrice, 0) || *avgPrice <= 0 {
		return nil
	}
	if factor == 0 {
		factor = 1
	}
	price := max(MinUnitPrice, int(math.Floor(*avgPrice*factor+0.5)))
	return &price
}

// ClampQty keeps a quantity within 1..99, treating 0 as 1
func ClampQty(qty int) int {
	return min(max(qty, 1), 99)
}
