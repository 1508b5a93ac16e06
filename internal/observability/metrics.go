// Package observability exposes the Prometheus collectors of the portal.
package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics methods are safe on a nil receiver so components can run without
// instrumentation in tests.
type Metrics struct {
	gatherer  prometheus.Gatherer
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	logins    *prometheus.CounterVec
	decisions *prometheus.CounterVec
	resolves  *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors against registry. A nil registry uses
// the process-wide default registry, registered once.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
		})
		return defaultMetrics
	}
	return buildMetrics(registry, registry)
}

func buildMetrics(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ceremony_http_requests_total",
		Help: "HTTP requests partitioned by method, route pattern and status code.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ceremony_http_request_duration_seconds",
		Help:    "HTTP request latency partitioned by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ceremony_auth_logins_total",
		Help: "Login attempts partitioned by principal kind and result.",
	}, []string{"kind", "result"})
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ceremony_auth_decisions_total",
		Help: "Authorization decisions partitioned by resource, action and result.",
	}, []string{"resource", "action", "result"})
	resolves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ceremony_auth_session_resolutions_total",
		Help: "Session resolutions partitioned by result.",
	}, []string{"result"})

	registerer.MustRegister(requests, duration, logins, decisions, resolves)
	return &Metrics{
		gatherer:  gatherer,
		requests:  requests,
		duration:  duration,
		logins:    logins,
		decisions: decisions,
		resolves:  resolves,
	}
}

func (m *Metrics) ObserveLogin(kind string, result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveDecision(resource string, action string, result string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(resource, action, result).Inc()
}

func (m *Metrics) ObserveResolve(result string) {
	if m == nil {
		return
	}
	m.resolves.WithLabelValues(result).Inc()
}

// Handler serves the registry this Metrics was built on.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware records request count and latency by chi route pattern, so
// path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
