// Package metrics provides the Prometheus collectors of the pharmacy API.
//
// HTTP traffic:
//   - http_request_total{method,path,status}
//   - http_request_duration_seconds{method,path}
//   - http_request_in_flight
//
// Domain:
//   - catalog_entries, catalog_reloads_total{result}
//   - prescription_validations_total, prescription_flags_total{code,level}
//   - interaction_hits_total{severity}, allergy_checks_total{result}
//   - order_reservations_total{pharmacy_id,result}
//   - assistant_requests_total{feature,provider}
//   - demand_forecasts_total
//
// Everything is registered with the default registry on package init.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartpharmacy"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_request_in_flight",
			Help:      "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limiter_buckets_total",
			Help:      "Rate limiter buckets (clients seen recently)",
		},
	)

	CatalogEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entries",
			Help:      "Entries in the loaded drug catalog",
		},
	)

	CatalogReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Catalog loads by result",
		},
		[]string{"result"},
	)

	PrescriptionValidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prescription_validations_total",
			Help:      "Prescriptions validated",
		},
	)

	PrescriptionFlags = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prescription_flags_total",
			Help:      "Safety flags raised by code and level",
		},
		[]string{"code", "level"},
	)

	InteractionHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interaction_hits_total",
			Help:      "Drug interaction hits by severity",
		},
		[]string{"severity"},
	)

	AllergyChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allergy_checks_total",
			Help:      "Allergy checks by result (hit or clear)",
		},
		[]string{"result"},
	)

	OrderReservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_reservations_total",
			Help:      "Reservation attempts by pharmacy and result",
		},
		[]string{"pharmacy_id", "result"},
	)

	AssistantRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_requests_total",
			Help:      "Chat and OCR requests by the provider that answered",
		},
		[]string{"feature", "provider"},
	)

	Forecasts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "demand_forecasts_total",
			Help:      "Demand forecasts served",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		CatalogEntries,
		CatalogReloads,
		PrescriptionValidations,
		PrescriptionFlags,
		InteractionHits,
		AllergyChecks,
		OrderReservations,
		AssistantRequests,
		Forecasts,
	)
}

// Handler serves the default registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
