// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "linkshrink"

	// unmatchedRoute labels requests that did not hit any route, keeping label cardinality bounded.
	unmatchedRoute = "UNMATCHED"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInflight        prometheus.Gauge

	URLsShortened      *prometheus.CounterVec
	Redirects          *prometheus.CounterVec
	ShortCodeCollision prometheus.Counter
	CacheOperations    *prometheus.CounterVec
}

// New registers all collectors on reg. Passing a fresh prometheus.NewRegistry
// keeps tests isolated from the global registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distributions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPInflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		URLsShortened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_shortened_total",
			Help:      "Number of created short URLs.",
		}, []string{"kind"}),
		Redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Number of redirects served, by whether the click was counted.",
		}, []string{"counted"}),
		ShortCodeCollision: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_code_collisions_total",
			Help:      "Number of generated short codes that were already taken.",
		}),
		CacheOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups by layer and result.",
		}, []string{"layer", "result"}),
	}
}

func (m *Metrics) ObserveCollision() {
	m.ShortCodeCollision.Inc()
}

func (m *Metrics) ObserveShortened(custom bool) {
	kind := "generated"
	if custom {
		kind = "custom"
	}
	m.URLsShortened.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRedirect(counted bool) {
	m.Redirects.WithLabelValues(strconv.FormatBool(counted)).Inc()
}

func (m *Metrics) ObserveCache(layer, result string) {
	m.CacheOperations.WithLabelValues(layer, result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count, latency and concurrency. Routes are labeled
// by their chi pattern, never by the raw path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPInflight.Inc()
		defer m.HTTPInflight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(ww, r)
	})
}
