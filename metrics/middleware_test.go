package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/v1/orders/{code}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/v1/orders/{code}", "404"))

	for _, code := range []string{"SP-AAAA-AAAA", "SP-BBBB-BBBB"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/orders/"+code, nil))
		if rr.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d", rr.Code)
		}
	}

	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "/v1/orders/{code}", "404"))
	if after-before != 2 {
		t.Errorf("Expected 2 requests under the route pattern, got %v", after-before)
	}

	if got := testutil.ToFloat64(HTTPRequestInFlight); got != 0 {
		t.Errorf("Expected no in-flight requests after completion, got %v", got)
	}
}

func TestMetricsMiddlewareUnmatchedRoute(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	before := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "unmatched", "200"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/whatever", nil))
	after := testutil.ToFloat64(HTTPRequestTotals.WithLabelValues("GET", "unmatched", "200"))

	if after-before != 1 {
		t.Errorf("Expected unmatched label to be used, delta %v", after-before)
	}
}

func TestHandlerExposesDomainMetrics(t *testing.T) {
	CatalogEntries.Set(3)
	PrescriptionFlags.WithLabelValues("DUP_ACTIVE", "warning").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rr.Body.String()
	for _, name := range []string{"smartpharmacy_catalog_entries 3", "smartpharmacy_prescription_flags_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected %q in metrics output", name)
		}
	}
}
