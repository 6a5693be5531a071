package forecast

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/giygas/smartpharmacy-api/catalog"
	"github.com/giygas/smartpharmacy-api/interfaces"
)

// Compile-time checks to ensure MemoryHistory implements SalesHistory and DemandRecorder
var (
	_ interfaces.SalesHistory   = (*MemoryHistory)(nil)
	_ interfaces.DemandRecorder = (*MemoryHistory)(nil)
)

// MemoryHistory keeps daily quantities per trade name in memory.
// Reservations feed it, so it starts empty on every boot.
type MemoryHistory struct {
	mu   sync.RWMutex
	days map[string]map[string]int // normalized trade name -> date -> qty
}

// NewMemoryHistory creates an empty history
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{days: make(map[string]map[string]int)}
}

// RecordDemand implements interfaces.DemandRecorder
func (h *MemoryHistory) RecordDemand(tradeName string, at time.Time, qty int) {
	key := catalog.Normalize(tradeName)
	if key == "" || qty <= 0 {
		return
	}
	date := at.UTC().Format(dateLayout)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.days[key] == nil {
		h.days[key] = make(map[string]int)
	}
	h.days[key][date] += qty
}

// DailyDemand implements interfaces.SalesHistory. Quantities of every trade
// name containing the query are summed per day.
func (h *MemoryHistory) DailyDemand(_ context.Context, tradeName string, limit int) ([]float64, error) {
	q := catalog.Normalize(tradeName)
	if q == "" {
		return nil, nil
	}

	totals := make(map[string]int)
	h.mu.RLock()
	for name, byDate := range h.days {
		if !strings.Contains(name, q) {
			continue
		}
		for date, qty := range byDate {
			totals[date] += qty
		}
	}
	h.mu.RUnlock()

	dates := make([]string, 0, len(totals))
	for date := range totals {
		dates = append(dates, date)
	}
	// ISO dates sort chronologically; most recent first
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if limit > 0 && len(dates) > limit {
		dates = dates[:limit]
	}

	out := make([]float64, len(dates))
	for i, date := range dates {
		out[i] = float64(totals[date])
	}
	return out, nil
}
