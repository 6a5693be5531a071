package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/smartpharmacy-api/catalog"
	"github.com/giygas/smartpharmacy-api/entities"
)

// countingSource is a CatalogSource that counts its reads
type countingSource struct {
	entries []entities.CatalogEntry
	err     error
	calls   atomic.Int32
}

func (s *countingSource) Name() string { return "test" }

func (s *countingSource) List(context.Context) ([]entities.CatalogEntry, error) {
	s.calls.Add(1)
	return s.entries, s.err
}

func newSource() *countingSource {
	return &countingSource{entries: []entities.CatalogEntry{
		{ID: "1", TradeName: "Panadol", ActiveIngredient: "Paracetamol"},
		{ID: "2", TradeName: "Brufen", ActiveIngredient: "Ibuprofen"},
	}}
}

func TestScheduler_StartLoadsCatalog(t *testing.T) {
	source := newSource()
	store := catalog.New(source, nil)
	s := NewScheduler(store, "")
	defer s.Stop()

	if !s.NextRefresh().IsZero() {
		t.Error("NextRefresh should be zero before Start")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if source.calls.Load() != 1 {
		t.Errorf("Expected 1 source read, got %d", source.calls.Load())
	}
	if len(store.Entries()) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(store.Entries()))
	}
	if next := s.NextRefresh(); !next.After(time.Now()) {
		t.Errorf("Expected next refresh in the future, got %v", next)
	}
	if next := s.NextRefresh(); next.Minute() != 0 || (next.Hour() != 6 && next.Hour() != 18) {
		t.Errorf("Expected next refresh at 06:00 or 18:00, got %v", next)
	}
}

func TestScheduler_InitialLoadFailure(t *testing.T) {
	source := newSource()
	source.err = errors.New("file not found")
	s := NewScheduler(catalog.New(source, nil), DefaultRefreshTimes)
	defer s.Stop()

	err := s.Start()
	if err == nil {
		t.Fatal("Expected error on failed initial load")
	}
	if !errors.Is(err, catalog.ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}

func TestScheduler_InvalidRefreshTimes(t *testing.T) {
	s := NewScheduler(catalog.New(newSource(), nil), "25:99")
	defer s.Stop()

	if err := s.Start(); err == nil {
		t.Error("Expected error for invalid refresh time")
	}
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(catalog.New(newSource(), nil), "")
	s.monitorInterval = time.Millisecond
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	s.Stop()
	s.Stop()
}

func TestScheduler_CheckStaleness(t *testing.T) {
	store := catalog.New(newSource(), nil)
	s := NewScheduler(store, "")

	if s.checkStaleness(time.Now()) {
		t.Error("Unloaded catalog should not be reported stale")
	}

	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	loaded := store.LastUpdated()

	if s.checkStaleness(loaded.Add(time.Hour)) {
		t.Error("Fresh catalog reported stale")
	}
	if !s.checkStaleness(loaded.Add(26 * time.Hour)) {
		t.Error("Expected stale catalog after 26 hours")
	}
}
