package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func serveWithChi(service string, handler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics(service))
	r.Get("/api/v1/users/{id}", handler)
	return r
}

func TestPrometheusMetrics_CountsByRoutePattern(t *testing.T) {
	router := serveWithChi("count-svc", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	counter := httpRequestsTotal.WithLabelValues("count-svc", http.MethodGet, "/api/v1/users/{id}", "200")
	assert.Equal(t, float64(3), testutil.ToFloat64(counter))
}

func TestPrometheusMetrics_RecordsStatus(t *testing.T) {
	router := serveWithChi("status-svc", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.WriteHeader(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/users/x", nil))

	counter := httpRequestsTotal.WithLabelValues("status-svc", http.MethodGet, "/api/v1/users/{id}", "422")
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestPrometheusMetrics_DefaultStatusIs200(t *testing.T) {
	router := serveWithChi("default-svc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/users/x", nil))

	counter := httpRequestsTotal.WithLabelValues("default-svc", http.MethodGet, "/api/v1/users/{id}", "200")
	assert.Equal(t, float64(1), testutil.ToFloat64(counter))
}

func TestPrometheusMetrics_InFlightDuringRequest(t *testing.T) {
	var seen float64
	router := serveWithChi("inflight-svc", func(w http.ResponseWriter, r *http.Request) {
		seen = testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("inflight-svc"))
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/users/x", nil))

	assert.Equal(t, float64(1), seen)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("inflight-svc")))
}

func TestMetricsResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &metricsResponseWriter{ResponseWriter: rec}
	assert.Same(t, rec, rw.Unwrap())
}
