// Package health computes the service health reported on /health.
package health

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/giygas/smartpharmacy-api/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	pingTimeout = 2 * time.Second
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	catalog   interfaces.CatalogStore
	orders    interfaces.OrderStore
	scheduler interfaces.Scheduler
	startedAt time.Time
	now       func() time.Time
}

// NewHealthChecker creates a health checker. orders and scheduler may be nil.
func NewHealthChecker(catalog interfaces.CatalogStore, orders interfaces.OrderStore, scheduler interfaces.Scheduler) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		catalog:   catalog,
		orders:    orders,
		scheduler: scheduler,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// HealthCheck reports unhealthy without catalog data or when it is older than
// two days, degraded when it is older than a day, a reload is stuck or the
// order store does not answer.
func (h *HealthCheckerImpl) HealthCheck(ctx context.Context) (status string, data map[string]any, httpStatus int) {
	now := h.now()
	entries := len(h.catalog.Entries())
	lastUpdate := h.catalog.LastUpdated()
	isUpdating := h.catalog.IsUpdating()
	dataAge := now.Sub(lastUpdate)

	orderStore := "not configured"
	var orderErr error
	if h.orders != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		orderErr = h.orders.Ping(pingCtx)
		cancel()
		orderStore = "ok"
		if orderErr != nil {
			orderStore = "unreachable"
		}
	}

	switch {
	case entries == 0 || lastUpdate.IsZero():
		status, httpStatus = StatusUnhealthy, http.StatusServiceUnavailable
	case dataAge > 48*time.Hour:
		status, httpStatus = StatusUnhealthy, http.StatusServiceUnavailable
	case dataAge > 24*time.Hour:
		status, httpStatus = StatusDegraded, http.StatusServiceUnavailable
	case isUpdating && dataAge > 6*time.Hour:
		status, httpStatus = StatusDegraded, http.StatusServiceUnavailable
	case orderErr != nil:
		status, httpStatus = StatusDegraded, http.StatusServiceUnavailable
	default:
		status, httpStatus = StatusHealthy, http.StatusOK
	}

	data = map[string]any{
		"catalog_entries": entries,
		"catalog_source":  h.catalog.SourceName(),
		"is_updating":     isUpdating,
		"order_store":     orderStore,
		"uptime_seconds":  math.Round(now.Sub(h.startedAt).Seconds()),
	}
	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}
	if h.scheduler != nil {
		if next := h.scheduler.NextRefresh(); !next.IsZero() {
			data["next_refresh"] = next.Format(time.RFC3339)
		}
	}

	return status, data, httpStatus
}
