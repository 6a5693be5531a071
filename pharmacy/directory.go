// Package pharmacy provides the directory of partner pharmacies
package pharmacy

import (
	"sort"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
)

// Compile-time check to ensure Directory implements PharmacyDirectory
var _ interfaces.PharmacyDirectory = (*Directory)(nil)

// Seed is the default list of partner pharmacies
var Seed = []entities.Pharmacy{
	{ID: 1, Name: "El Ezaby", Address: "15 شارع قصر النيل، القاهرة", Phone: "19011", GPSLat: 30.0444, GPSLng: 31.2357, PriceFactor: 1.05},
	{ID: 2, Name: "Seif", Address: "22 شارع جامعة الدول، الجيزة", Phone: "19199", GPSLat: 30.0511, GPSLng: 31.2001, PriceFactor: 1.00},
	{ID: 3, Name: "Smart Pharmacy Partner", Address: "بجوارك تماماً", Phone: "0100000000", GPSLat: 30.0450, GPSLng: 31.2360, PriceFactor: 0.98},
}

// Directory is an immutable, id-indexed pharmacy list
type Directory struct {
	byID  map[int]entities.Pharmacy
	order []entities.Pharmacy
}

// NewDirectory indexes pharmacies by id, sorted by id. Later duplicates win.
func NewDirectory(pharmacies []entities.Pharmacy) *Directory {
	d := &Directory{byID: make(map[int]entities.Pharmacy, len(pharmacies))}
	for _, p := range pharmacies {
		d.byID[p.ID] = p
	}
	for _, p := range d.byID {
		d.order = append(d.order, p)
	}
	sort.Slice(d.order, func(i, j int) bool { return d.order[i].ID < d.order[j].ID })
	return d
}

// Default returns a directory over Seed
func Default() *Directory {
	return NewDirectory(Seed)
}

// Get implements interfaces.PharmacyDirectory
func (d *Directory) Get(id int) (entities.Pharmacy, bool) {
	p, ok := d.byID[id]
	return p, ok
}

// List implements interfaces.PharmacyDirectory
func (d *Directory) List() []entities.Pharmacy {
	out := make([]entities.Pharmacy, len(d.order))
	copy(out, d.order)
	return out
}
