package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/smartpharmacy-api/entities"
	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
	"github.com/giygas/smartpharmacy-api/metrics"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
	MaxAlternatives    = 6
)

// noPriceDelta ranks unpriced candidates after every priced one
const noPriceDelta = math.MaxFloat64

// ErrSourceUnavailable is returned when the catalog source cannot be read
var ErrSourceUnavailable = errors.New("catalog source unavailable")

// Compile-time check to ensure Catalog implements CatalogStore
var _ interfaces.CatalogStore = (*Catalog)(nil)

type snapshot struct {
	entries  []entities.CatalogEntry
	loadedAt time.Time
}

// Catalog holds the loaded entries behind an atomic pointer.
// The first access loads lazily; later loads happen only through Reload.
type Catalog struct {
	source    interfaces.CatalogSource
	validator interfaces.DataValidator
	current   atomic.Pointer[snapshot]
	loadMu    sync.Mutex
	updating  atomic.Bool
}

// New creates a catalog that has not been loaded yet
func New(source interfaces.CatalogSource, validator interfaces.DataValidator) *Catalog {
	return &Catalog{
		source:    source,
		validator: validator,
	}
}

// NewFromEntries creates a catalog already populated with entries.
// Used by tests and tools that build the data themselves.
func NewFromEntries(entries []entities.CatalogEntry) *Catalog {
	c := &Catalog{}
	c.current.Store(&snapshot{entries: prepare(entries), loadedAt: time.Now()})
	return c
}

// prepare drops entries without a trade name or active ingredient
// and fills the normalized fields used for matching.
func prepare(raw []entities.CatalogEntry) []entities.CatalogEntry {
	out := make([]entities.CatalogEntry, 0, len(raw))
	for _, e := range raw {
		e.TradeName = strings.TrimSpace(e.TradeName)
		e.ActiveIngredient = strings.TrimSpace(e.ActiveIngredient)
		if e.TradeName == "" || e.ActiveIngredient == "" {
			continue
		}
		e.TradeNameNormalized = Normalize(e.TradeName)
		e.ActiveIngredientNormalized = Normalize(e.ActiveIngredient)
		out = append(out, e)
	}
	return out
}

// SourceName returns the name of the backing source
func (c *Catalog) SourceName() string {
	if c.source == nil {
		return "static"
	}
	return c.source.Name()
}

// EnsureLoaded loads the catalog if it has never been loaded.
// A failed lazy load is not cached, the next call retries.
func (c *Catalog) EnsureLoaded(ctx context.Context) error {
	if c.current.Load() != nil {
		return nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if c.current.Load() != nil {
		return nil
	}

	_, err := c.load(ctx)
	return err
}

// Reload replaces the catalog with a fresh read of the source.
// Concurrent reloads are skipped.
func (c *Catalog) Reload(ctx context.Context) (*interfaces.DataQualityReport, error) {
	if !c.updating.CompareAndSwap(false, true) {
		logging.Info("Catalog reload already in progress, skipping...")
		return nil, nil
	}
	defer c.updating.Store(false)

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	return c.load(ctx)
}

// load reads the source and swaps the snapshot (caller must hold loadMu)
func (c *Catalog) load(ctx context.Context) (*interfaces.DataQualityReport, error) {
	if c.source == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrSourceUnavailable)
	}

	start := time.Now()
	raw, err := c.source.List(ctx)
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, c.source.Name(), err)
	}

	entries := prepare(raw)
	if skipped := len(raw) - len(entries); skipped > 0 {
		logging.Warn("Catalog entries skipped", "source", c.source.Name(), "count", skipped)
	}

	var report *interfaces.DataQualityReport
	if c.validator != nil {
		report = c.validator.ReportDataQuality(entries)
	}

	c.current.Store(&snapshot{entries: entries, loadedAt: time.Now()})

	metrics.CatalogEntries.Set(float64(len(entries)))
	metrics.CatalogReloads.WithLabelValues("success").Inc()
	logging.Info("Catalog loaded",
		"source", c.source.Name(),
		"entries", len(entries),
		"duration", time.Since(start).String(),
	)

	return report, nil
}

func (c *Catalog) view() *snapshot {
	if s := c.current.Load(); s != nil {
		return s
	}

	if err := c.EnsureLoaded(context.Background()); err != nil {
		logging.Warn("Catalog is empty, lazy load failed", "error", err)
		return &snapshot{}
	}
	return c.current.Load()
}

// Entries returns the loaded entries in storage order. Callers must not modify them.
func (c *Catalog) Entries() []entities.CatalogEntry {
	return c.view().entries
}

// LastUpdated returns the time of the last successful load
func (c *Catalog) LastUpdated() time.Time {
	if s := c.current.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// IsUpdating returns true while a reload is running
func (c *Catalog) IsUpdating() bool {
	return c.updating.Load()
}

// Search returns entries whose trade name or active ingredient contains the
// query, in storage order, truncated to limit.
func (c *Catalog) Search(query string, limit int) []entities.CatalogEntry {
	q := Normalize(query)
	if q == "" {
		return []entities.CatalogEntry{}
	}

	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	results := make([]entities.CatalogEntry, 0, limit)
	for _, e := range c.view().entries {
		if strings.Contains(e.TradeNameNormalized, q) || strings.Contains(e.ActiveIngredientNormalized, q) {
			results = append(results, e)
			if len(results) == limit {
				break
			}
		}
	}
	return results
}

// Resolve maps free text to the best catalog entry:
// exact trade name, then trade name containing the query, then active
// ingredient containing the query. First entry in storage order wins a tier.
func (c *Catalog) Resolve(query string) *entities.CatalogEntry {
	return c.resolve(query, true)
}

// ResolveTradeName is Resolve without the active ingredient tier
func (c *Catalog) ResolveTradeName(query string) *entities.CatalogEntry {
	return c.resolve(query, false)
}

func (c *Catalog) resolve(query string, byIngredient bool) *entities.CatalogEntry {
	q := Normalize(query)
	if q == "" {
		return nil
	}

	entries := c.view().entries
	tradeHit, activeHit := -1, -1

	for i := range entries {
		e := &entries[i]
		if e.TradeNameNormalized == q {
			match := *e
			return &match
		}
		if tradeHit < 0 && strings.Contains(e.TradeNameNormalized, q) {
			tradeHit = i
		}
		if byIngredient && activeHit < 0 && strings.Contains(e.ActiveIngredientNormalized, q) {
			activeHit = i
		}
	}

	switch {
	case tradeHit >= 0:
		match := entries[tradeHit]
		return &match
	case activeHit >= 0:
		match := entries[activeHit]
		return &match
	}
	return nil
}

// Alternatives returns same-ingredient products other than excludeTradeName,
// closest in price to referencePrice first, at most MaxAlternatives.
func (c *Catalog) Alternatives(activeIngredient, excludeTradeName string, referencePrice *float64) []entities.CatalogEntry {
	active := Normalize(activeIngredient)
	if active == "" {
		return []entities.CatalogEntry{}
	}
	exclude := Normalize(excludeTradeName)

	type candidate struct {
		entry entities.CatalogEntry
		delta float64
	}

	var candidates []candidate
	for _, e := range c.view().entries {
		if e.ActiveIngredientNormalized != active || e.TradeNameNormalized == exclude {
			continue
		}
		candidates = append(candidates, candidate{entry: e, delta: priceDelta(e.AvgPrice, referencePrice)})
	}

	// Stable sort keeps storage order among equal deltas
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].delta < candidates[j].delta
	})

	if len(candidates) > MaxAlternatives {
		candidates = candidates[:MaxAlternatives]
	}

	results := make([]entities.CatalogEntry, len(candidates))
	for i, cand := range candidates {
		results[i] = cand.entry
	}
	return results
}

func priceDelta(price, reference *float64) float64 {
	if !finite(price) || !finite(reference) {
		return noPriceDelta
	}
	return math.Abs(*price - *reference)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
