// Package metrics exposes Prometheus collectors for the collection engine and
// its HTTP surface.
package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scentlog"

// Operation status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder is what the service reports into. Noop satisfies it when metrics
// are disabled.
type Recorder interface {
	ObserveQuery(kind string, d time.Duration, results int)
	RecordMutation(operation string, err error)
	RecordMerge(refKind string, removed int)
	SetCollectionSize(perfumes int, references map[string]int)
}

// Metrics holds every collector on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	queryDuration   *prometheus.HistogramVec
	queryResults    *prometheus.HistogramVec
	mutationsTotal  *prometheus.CounterVec
	mergesTotal     *prometheus.CounterVec
	mergedEntries   *prometheus.CounterVec
	perfumesGauge   prometheus.Gauge
	referencesGauge *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpInFlight    prometheus.Gauge
}

// New creates the collectors and registers them, plus the Go runtime and
// process collectors, on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Time taken to filter and sort or search the collection",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~1.6s
			},
			[]string{"kind"}, // kind: query, search
		),
		queryResults: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_results",
				Help:      "Number of perfumes returned per query",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"kind"},
		),
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Total number of collection mutations",
			},
			[]string{"operation", "status"},
		),
		mergesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reference_merges_total",
				Help:      "Total number of reference entry merges",
			},
			[]string{"ref_kind"},
		),
		mergedEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reference_entries_merged_total",
				Help:      "Total number of reference entries removed by merges",
			},
			[]string{"ref_kind"},
		),
		perfumesGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "perfumes",
				Help:      "Number of perfumes in the collection",
			},
		),
		referencesGauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "reference_entries",
				Help:      "Number of entries per reference table",
			},
			[]string{"ref_kind"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latencies in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		httpInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_inflight_requests",
				Help:      "Number of HTTP requests currently being served",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.queryDuration,
		m.queryResults,
		m.mutationsTotal,
		m.mergesTotal,
		m.mergedEntries,
		m.perfumesGauge,
		m.referencesGauge,
		m.httpRequests,
		m.httpDuration,
		m.httpInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveQuery records one query or search.
func (m *Metrics) ObserveQuery(kind string, d time.Duration, results int) {
	m.queryDuration.WithLabelValues(kind).Observe(d.Seconds())
	m.queryResults.WithLabelValues(kind).Observe(float64(results))
}

// RecordMutation counts one mutation attempt.
func (m *Metrics) RecordMutation(operation string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.mutationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordMerge counts one merge and the entries it removed.
func (m *Metrics) RecordMerge(refKind string, removed int) {
	m.mergesTotal.WithLabelValues(refKind).Inc()
	m.mergedEntries.WithLabelValues(refKind).Add(float64(removed))
}

// SetCollectionSize updates the size gauges.
func (m *Metrics) SetCollectionSize(perfumes int, references map[string]int) {
	m.perfumesGauge.Set(float64(perfumes))
	for kind, n := range references {
		m.referencesGauge.WithLabelValues(kind).Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler(logger *slog.Logger) http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(logger.Handler(), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
		Registry:      m.registry,
	})
}

// Middleware records request counts and latencies. Routes are labelled by
// their chi pattern to keep cardinality low.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

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

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Noop discards everything.
type Noop struct{}

func (Noop) ObserveQuery(string, time.Duration, int) {}
func (Noop) RecordMutation(string, error) {}
func (Noop) RecordMerge(string, int) {}
func (Noop) SetCollectionSize(int, map[string]int) {}

var (
	_ Recorder = (*Metrics)(nil)
	_ Recorder = Noop{}
)
