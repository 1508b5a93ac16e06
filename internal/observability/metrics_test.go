package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/diplomas/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/diplomas/"+id, nil))
	}

	require.Contains(t, scrape(t, metrics),
		`ceremony_http_requests_total{method="GET",route="/diplomas/{id}",status="403"} 3`)
}

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.ObserveLogin("staff", "success")
	metrics.ObserveLogin("staff", "invalid_credentials")
	metrics.ObserveDecision("users", "delete", "denied")
	metrics.ObserveResolve("ok")

	body := scrape(t, metrics)
	require.Contains(t, body, `ceremony_auth_logins_total{kind="staff",result="success"} 1`)
	require.Contains(t, body, `ceremony_auth_decisions_total{action="delete",resource="users",result="denied"} 1`)
	require.Contains(t, body, `ceremony_auth_session_resolutions_total{result="ok"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.ObserveLogin("staff", "success")
	metrics.ObserveDecision("users", "read", "allowed")
	metrics.ObserveResolve("ok")

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	metrics.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
}
