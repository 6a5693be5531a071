package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giygas/smartpharmacy-api/entities"
)

const sampleCosmeticsCSV = `name,brand,category,price,skin_type,description
Hydra Cream,La Roche,moisturizer,250,Dry,Daily cream
Sun Block 50,Eucerin,sunscreen,,Oily,
,NoName,soap,10,,
Clean Gel,Bioderma,cleanser,180,Combination,Foaming gel
`

type fakeCosmeticsSource struct {
	items []entities.Cosmetic
	err   error
	calls int
}

func (f *fakeCosmeticsSource) Name() string { return "fake" }

func (f *fakeCosmeticsSource) ListCosmetics(context.Context) ([]entities.Cosmetic, error) {
	f.calls++
	return f.items, f.err
}

func TestParseCosmeticsCSV(t *testing.T) {
	items, err := ParseCosmeticsCSV(strings.NewReader(sampleCosmeticsCSV))
	if err != nil {
		t.Fatalf("ParseCosmeticsCSV() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 cosmetics, got %d", len(items))
	}
	first := items[0]
	if first.ID != 1 || first.Brand != "La Roche" || first.SkinType != "Dry" || first.Price == nil || *first.Price != 250 {
		t.Errorf("Unexpected first cosmetic: %+v", first)
	}
	if items[1].Price != nil {
		t.Errorf("Expected nil price, got %v", *items[1].Price)
	}
	if items[2].ID != 4 {
		t.Errorf("Expected row number 4, got %d", items[2].ID)
	}

	if _, err := ParseCosmeticsCSV(strings.NewReader("brand,price\nx,1\n")); err == nil {
		t.Error("Expected error for a header without name")
	}
}

func TestCosmeticsCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cosmetics.csv")
	if err := os.WriteFile(path, []byte(sampleCosmeticsCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := NewCosmeticsCSVSource(filepath.Join(t.TempDir(), "missing.csv"), path).ListCosmetics(context.Background())
	if err != nil || len(items) != 3 {
		t.Errorf("ListCosmetics() = %d items, %v", len(items), err)
	}
}

func TestCosmeticsSearch(t *testing.T) {
	c := NewCosmeticsFromItems([]entities.Cosmetic{
		{ID: 1, Name: "Hydra Cream", Brand: "La Roche", Category: "moisturizer"},
		{ID: 2, Name: "Sun Block 50", Brand: "Eucerin", Category: "sunscreen"},
		{ID: 3, Name: "Clean Gel", Brand: "Bioderma", Category: "cleanser"},
		{ID: 4, Name: "  "},
	})

	tests := []struct {
		name  string
		query string
		limit int
		ids   []int
	}{
		{"by name", "cream", 10, []int{1}},
		{"by brand", "EUCERIN", 10, []int{2}},
		{"by category", "clean", 10, []int{3}},
		{"several", "e", 10, []int{1, 2, 3}},
		{"limited", "e", 2, []int{1, 2}},
		{"no slots", "e", 0, nil},
		{"blank", "  ", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Search(context.Background(), tt.query, tt.limit)
			if len(got) != len(tt.ids) {
				t.Fatalf("Search(%q) = %+v, want ids %v", tt.query, got, tt.ids)
			}
			for i, it := range got {
				if it.ID != tt.ids[i] {
					t.Errorf("Result %d id = %d, want %d", i, it.ID, tt.ids[i])
				}
			}
		})
	}
}

func TestCosmeticsLazyLoad(t *testing.T) {
	source := &fakeCosmeticsSource{err: errors.New("no table")}
	c := NewCosmetics(source)

	if got := c.Search(context.Background(), "cream", 5); len(got) != 0 {
		t.Errorf("Expected no results from a failing source, got %+v", got)
	}

	source.err = nil
	source.items = []entities.Cosmetic{{ID: 7, Name: "Night Cream"}}
	if got := c.Search(context.Background(), "cream", 5); len(got) != 1 {
		t.Errorf("Expected the failed load to be retried, got %+v", got)
	}
	c.Search(context.Background(), "cream", 5)
	if source.calls != 2 {
		t.Errorf("Expected 2 source reads, got %d", source.calls)
	}
}

func TestCosmeticRowToCosmetic(t *testing.T) {
	brand := "Vichy"
	row := cosmeticRow{ID: 3, Name: "Mineral 89", Brand: &brand}
	got := row.toCosmetic()
	if got.ID != 3 || got.Brand != "Vichy" || got.Category != "" {
		t.Errorf("Unexpected cosmetic: %+v", got)
	}
	if (cosmeticRow{}).TableName() != "cosmetics" {
		t.Error("Expected cosmetics table")
	}
}
