package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/pin-admin/internal/snapshot"
)

// Metrics owns a private Prometheus registry so tests and multiple servers
// in one process never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	inFlight        prometheus.Gauge
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	upstream        *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// NewMetrics registers the HTTP and upstream collectors. stats, when not
// nil, is exported as snapshot cache gauges.
func NewMetrics(stats func() snapshot.Stats) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Calls made to the platform API.",
		}, []string{"op", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Platform API call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		m.inFlight, m.requests, m.duration, m.upstream, m.upstreamLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if stats != nil {
		gauge := func(name, help string, f func(snapshot.Stats) float64) prometheus.Collector {
			return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help},
				func() float64 { return f(stats()) })
		}
		m.registry.MustRegister(
			gauge("snapshot_entries", "Collections held in the session snapshot cache.",
				func(s snapshot.Stats) float64 { return float64(s.Size) }),
			gauge("snapshot_hits", "Snapshot cache hits since start.",
				func(s snapshot.Stats) float64 { return float64(s.Hits) }),
			gauge("snapshot_misses", "Snapshot cache misses since start.",
				func(s snapshot.Stats) float64 { return float64(s.Misses) }),
			gauge("snapshot_evictions", "Snapshot cache evictions since start.",
				func(s snapshot.Stats) float64 { return float64(s.Evictions) }),
		)
	}
	return m
}

// Instrument measures every request. The route label is chi's matched
// pattern, never the raw path, to keep label cardinality bounded.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		sw := wrap(w)
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(sw.statusCode)
		m.duration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(r.Method, route, status).Inc()
	})
}

// ObserveUpstream records one platform API call. status 0 means the call
// never got a response.
func (m *Metrics) ObserveUpstream(op string, status int, d time.Duration) {
	m.upstream.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.upstreamLatency.WithLabelValues(op).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
