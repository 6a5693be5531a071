// Package scheduler loads the drug catalog at start-up, refreshes it at
// fixed times of day and warns when the loaded data goes stale.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/smartpharmacy-api/interfaces"
	"github.com/giygas/smartpharmacy-api/logging"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	DefaultRefreshTimes = "06:00;18:00"

	defaultMonitorInterval = time.Hour
	defaultStaleAfter      = 25 * time.Hour
	reloadTimeout          = 5 * time.Minute
)

// Scheduler drives catalog reloads
type Scheduler struct {
	catalog      interfaces.CatalogStore
	refreshTimes string
	scheduler    *gocron.Scheduler
	job          *gocron.Job

	monitorInterval time.Duration
	staleAfter      time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewScheduler creates a scheduler reloading catalog at refreshTimes
// ("HH:MM" entries separated by ';')
func NewScheduler(catalog interfaces.CatalogStore, refreshTimes string) *Scheduler {
	if refreshTimes == "" {
		refreshTimes = DefaultRefreshTimes
	}
	return &Scheduler{
		catalog:         catalog,
		refreshTimes:    refreshTimes,
		scheduler:       gocron.NewScheduler(time.Local),
		monitorInterval: defaultMonitorInterval,
		staleAfter:      defaultStaleAfter,
		stop:            make(chan struct{}),
	}
}

// Start performs the initial load, schedules the refreshes and starts the
// staleness monitor
func (s *Scheduler) Start() error {
	if err := s.reload(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	job, err := s.scheduler.Every(1).Days().At(s.refreshTimes).Do(func() {
		if err := s.reload(); err != nil {
			logging.Error("Failed to refresh catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog refresh", "times", s.refreshTimes, "error", err)
		return fmt.Errorf("failed to schedule catalog refresh: %w", err)
	}
	s.job = job

	s.scheduler.StartAsync()
	go s.monitor()

	logging.Info("Catalog refresh scheduled", "times", s.refreshTimes, "next", s.NextRefresh())
	return nil
}

// Stop stops scheduled refreshes and the monitor
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.scheduler.Stop()
	})
}

// NextRefresh returns the next scheduled reload, zero before Start
func (s *Scheduler) NextRefresh() time.Time {
	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}

func (s *Scheduler) reload() error {
	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	start := time.Now()
	report, err := s.catalog.Reload(ctx)
	if err != nil {
		return err
	}

	total := len(s.catalog.Entries())
	if report != nil {
		total = report.TotalEntries
	}
	logging.Info("Catalog refresh completed", "duration", time.Since(start).String(), "entry_count", total)
	return nil
}

// monitor warns when the catalog has not been refreshed for staleAfter
func (s *Scheduler) monitor() {
	ticker := time.NewTicker(s.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.checkStaleness(time.Now())
		}
	}
}

func (s *Scheduler) checkStaleness(now time.Time) bool {
	last := s.catalog.LastUpdated()
	if last.IsZero() || now.Sub(last) <= s.staleAfter {
		return false
	}
	logging.Warn("Catalog hasn't been refreshed recently",
		"last_updated", last.Format(time.RFC3339),
		"threshold", s.staleAfter.String(),
	)
	return true
}
