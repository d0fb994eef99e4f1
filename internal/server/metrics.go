package server

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/semiframes/pkg/observability"
)

const metricsNamespace = "semiframes"

// Metrics exports search, cache and sink events as Prometheus metrics. It
// implements the observability hook interfaces.
type Metrics struct {
	searches     *prometheus.CounterVec   // mode, status
	found        *prometheus.CounterVec   // mode
	explored     *prometheus.CounterVec   // mode
	duration     *prometheus.HistogramVec // mode
	active       prometheus.Gauge
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	cacheClears  prometheus.Counter
	writes       *prometheus.CounterVec // sink
	writeErrors  *prometheus.CounterVec // sink
	httpRequests *prometheus.CounterVec // route, code
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "searches_total",
			Help:      "Completed searches by mode and status.",
		}, []string{"mode", "status"}),
		found: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "families_found_total",
			Help:      "Families written by completed searches.",
		}, []string{"mode"}),
		explored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "families_explored_total",
			Help:      "Families generated by completed searches.",
		}, []string{"mode"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "search_duration_seconds",
			Help:      "Wall time of one search size.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"mode"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "searches_active",
			Help:      "Searches currently running.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Canonical form cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Canonical form cache misses.",
		}),
		cacheClears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "clears_total",
			Help:      "Times a full canonical form cache was emptied.",
		}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sink",
			Name:      "writes_total",
			Help:      "Families written per sink.",
		}, []string{"sink"}),
		writeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "sink",
			Name:      "write_errors_total",
			Help:      "Failed writes per sink.",
		}, []string{"sink"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "code"}),
	}

	reg.MustRegister(
		m.searches, m.found, m.explored, m.duration, m.active,
		m.cacheHits, m.cacheMisses, m.cacheClears,
		m.writes, m.writeErrors, m.httpRequests,
	)
	return m
}

// Install registers m as the process-wide search, cache and sink hooks.
func (m *Metrics) Install() {
	observability.SetSearchHooks(m)
	observability.SetCacheHooks(m)
	observability.SetSinkHooks(m)
}

func (m *Metrics) OnSearchStart(context.Context, int, string, int) {
	m.active.Inc()
}

func (m *Metrics) OnSearchProgress(context.Context, int, int64, int64) {}

func (m *Metrics) OnSearchComplete(_ context.Context, _ int, mode string, found, explored int64, d time.Duration, err error) {
	m.active.Dec()
	status := "success"
	if err != nil {
		status = "error"
	}
	m.searches.WithLabelValues(mode, status).Inc()
	m.found.WithLabelValues(mode).Add(float64(found))
	m.explored.WithLabelValues(mode).Add(float64(explored))
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) OnCacheStats(_ context.Context, _ int, hits, misses, clears int64) {
	m.cacheHits.Add(float64(hits))
	m.cacheMisses.Add(float64(misses))
	m.cacheClears.Add(float64(clears))
}

func (m *Metrics) OnWrite(_ context.Context, sink string, _ int) {
	m.writes.WithLabelValues(sink).Inc()
}

func (m *Metrics) OnWriteError(_ context.Context, sink string, _ int, _ error) {
	m.writeErrors.WithLabelValues(sink).Inc()
}
