// Package metrics exposes Prometheus collectors for scoring, benchmark lookups and allocation.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Benchmark lookup outcomes
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeShared  = "shared"
)

// Metrics holds the service collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	benchmarkLookups     *prometheus.CounterVec
	benchmarkCache       *prometheus.CounterVec
	projectsScored       prometheus.Counter
	scoringDuration      prometheus.Histogram
	optimizations        *prometheus.CounterVec
	optimizationDuration prometheus.Histogram
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		benchmarkLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benchmark_lookups_total",
			Help: "Benchmark lookups by kind and outcome.",
		}, []string{"kind", "outcome"}),
		benchmarkCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benchmark_cache_total",
			Help: "Benchmark cache reads by result (hit, miss, stale).",
		}, []string{"result"}),
		projectsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "projects_scored_total",
			Help: "Total projects scored.",
		}),
		scoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Time spent scoring a single project.",
			Buckets: prometheus.DefBuckets,
		}),
		optimizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optimizations_total",
			Help: "Portfolio optimizations by method and degraded flag.",
		}, []string{"method", "degraded"}),
		optimizationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optimization_duration_seconds",
			Help:    "Time spent solving a single allocation.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.benchmarkLookups,
		m.benchmarkCache,
		m.projectsScored,
		m.scoringDuration,
		m.optimizations,
		m.optimizationDuration,
	)

	return m
}

// Registry exposes the underlying registry (tests gather from it)
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and durations. route resolves the label for a request.
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			label := route(r)
			m.httpRequestsTotal.WithLabelValues(label, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		})
	}
}

// BenchmarkLookup counts a benchmark lookup for kind with the given outcome
func (m *Metrics) BenchmarkLookup(kind, outcome string) {
	if m == nil {
		return
	}
	m.benchmarkLookups.WithLabelValues(kind, outcome).Inc()
}

// BenchmarkCache counts a benchmark cache read result
func (m *Metrics) BenchmarkCache(result string) {
	if m == nil {
		return
	}
	m.benchmarkCache.WithLabelValues(result).Inc()
}

// ProjectScored records one completed score computation
func (m *Metrics) ProjectScored(duration time.Duration) {
	if m == nil {
		return
	}
	m.projectsScored.Inc()
	m.scoringDuration.Observe(duration.Seconds())
}

// Optimization records one allocation
func (m *Metrics) Optimization(method string, degraded bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.optimizations.WithLabelValues(method, strconv.FormatBool(degraded)).Inc()
	m.optimizationDuration.Observe(duration.Seconds())
}
