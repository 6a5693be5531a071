package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
)

// Compile-time checks for the cosmetics types
var (
	_ interfaces.CosmeticsStore  = (*Cosmetics)(nil)
	_ interfaces.CosmeticsSource = (*CosmeticsCSVSource)(nil)
	_ interfaces.CosmeticsSource = (*MySQLSource)(nil)
)

type cosmetic struct {
	entities.Cosmetic
	name, brand, category string // normalized
}

// Cosmetics is the searchable cosmetics catalog. It is loaded once on first
// search. A failed load leaves it empty and is retried on the next search.
type Cosmetics struct {
	source interfaces.CosmeticsSource
	items  atomic.Pointer[[]cosmetic]
	loadMu sync.Mutex
}

// NewCosmetics creates a cosmetics catalog backed by source
func NewCosmetics(source interfaces.CosmeticsSource) *Cosmetics {
	return &Cosmetics{source: source}
}

// NewCosmeticsFromItems creates a cosmetics catalog already populated
func NewCosmeticsFromItems(items []entities.Cosmetic) *Cosmetics {
	c := &Cosmetics{}
	c.store(items)
	return c
}

func (c *Cosmetics) store(items []entities.Cosmetic) {
	prepared := make([]cosmetic, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			continue
		}
		prepared = append(prepared, cosmetic{
			Cosmetic: it,
			name:     Normalize(it.Name),
			brand:    Normalize(it.Brand),
			category: Normalize(it.Category),
		})
	}
	c.items.Store(&prepared)
}

func (c *Cosmetics) load(ctx context.Context) []cosmetic {
	if items := c.items.Load(); items != nil {
		return *items
	}
	if c.source == nil {
		return nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if items := c.items.Load(); items != nil {
		return *items
	}

	raw, err := c.source.ListCosmetics(ctx)
	if err != nil {
		logging.Warn("Cosmetics catalog unavailable", "source", c.source.Name(), "error", err)
		return nil
	}
	c.store(raw)
	logging.Info("Cosmetics loaded", "source", c.source.Name(), "entries", len(raw))
	return *c.items.Load()
}

// Search returns cosmetics whose name, brand or category contains the query,
// in storage order, truncated to limit
func (c *Cosmetics) Search(ctx context.Context, query string, limit int) []entities.Cosmetic {
	q := Normalize(query)
	if q == "" || limit <= 0 {
		return []entities.Cosmetic{}
	}

	results := make([]entities.Cosmetic, 0)
	for _, it := range c.load(ctx) {
		if strings.Contains(it.name, q) || strings.Contains(it.brand, q) || strings.Contains(it.category, q) {
			results = append(results, it.Cosmetic)
			if len(results) == limit {
				break
			}
		}
	}
	return results
}

// CosmeticsCSVSource reads cosmetics from a file with a header row:
// name, brand, category, price, skin_type, description
type CosmeticsCSVSource struct {
	Paths []string
}

// NewCosmeticsCSVSource creates a source trying paths in order
func NewCosmeticsCSVSource(paths ...string) *CosmeticsCSVSource {
	return &CosmeticsCSVSource{Paths: paths}
}

// Name implements interfaces.CosmeticsSource
func (s *CosmeticsCSVSource) Name() string {
	return "csv"
}

// ListCosmetics implements interfaces.CosmeticsSource
func (s *CosmeticsCSVSource) ListCosmetics(ctx context.Context) ([]entities.Cosmetic, error) {
	path, err := (&CSVSource{Paths: s.Paths}).resolvePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseCosmeticsCSV(decodeCatalogBytes(raw))
}

// ParseCosmeticsCSV parses cosmetics records. Rows without a name are
// skipped, IDs are the 1-based data row number.
func ParseCosmeticsCSV(r io.Reader) ([]entities.Cosmetic, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty cosmetics file")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[Normalize(name)] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, fmt.Errorf("header must contain name, got %v", header)
	}

	field := func(record []string, column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var items []entities.Cosmetic
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			continue
		}
		name := field(record, "name")
		if name == "" {
			continue
		}
		items = append(items, entities.Cosmetic{
			ID:          row,
			Name:        name,
			Brand:       field(record, "brand"),
			Category:    field(record, "category"),
			Price:       parsePrice(field(record, "price")),
			SkinType:    field(record, "skin_type"),
			Description: field(record, "description"),
		})
	}
	return items, nil
}
