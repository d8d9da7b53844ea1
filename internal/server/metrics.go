package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/portion/pkg/document"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of one server. Each server owns its
// registry, so tests can build as many servers as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Documents   *prometheus.CounterVec
	Tokens      prometheus.Counter
	Diagnostics prometheus.Counter
	Subscribers prometheus.Gauge
}

// NewMetrics creates and registers the metrics under namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_scanned_total",
				Help:      "Total number of scanned documents",
			},
			[]string{"origin"},
		),
		Tokens: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "measurements_found_total",
				Help:      "Total number of measurements found in scanned documents",
			},
		),
		Diagnostics: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of failed measurement attempts",
			},
		),
		Subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_subscribers",
				Help:      "Number of connected live update streams",
			},
		),
	}
	m.registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Documents,
		m.Tokens,
		m.Diagnostics,
		m.Subscribers,
	)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDocument records one scanned document.
func (m *Metrics) ObserveDocument(origin string, doc *document.Document) {
	m.Documents.WithLabelValues(origin).Inc()
	m.Tokens.Add(float64(len(doc.Tokens)))
	m.Diagnostics.Add(float64(len(doc.Diagnostics)))
}

// Middleware counts requests per route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
