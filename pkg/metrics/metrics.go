// Package metrics exposes Prometheus collectors for the HTTP layer and catalog operations.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	labelService   = "service"
	labelMethod    = "method"
	labelPath      = "path"
	labelStatus    = "status"
	labelOperation = "operation"
	labelOutcome   = "outcome"

	unmatchedPath = "unmatched"
)

// Operation outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry   *prometheus.Registry
	Requests   *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
	Operations *prometheus.CounterVec
	Products   prometheus.Gauge
}

// New registers the collectors on reg. Go runtime and process collectors are added too.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{labelService, labelMethod, labelPath, labelStatus},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{labelService, labelMethod, labelPath},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_operations_total",
				Help: "Catalog operations by kind and outcome",
			},
			[]string{labelOperation, labelOutcome},
		),
		Products: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_products",
				Help: "Number of products in the catalog after the last mutation",
			},
		),
	}

	reg.MustRegister(
		m.Requests,
		m.Latency,
		m.Operations,
		m.Products,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveOperation counts one catalog operation.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency labelled by the matched chi route pattern.
func (m *Metrics) Middleware(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			next.ServeHTTP(ww, r)

			path := routePattern(r)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.Latency.WithLabelValues(service, r.Method, path).
				Observe(time.Since(start).Seconds())

			m.Requests.WithLabelValues(service, r.Method, path, strconv.Itoa(status)).
				Inc()
		})
	}
}

// routePattern keeps label cardinality bounded: /api/v1/products/{id} instead of the raw path.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedPath
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedPath
}
