// Package telemetry provides Prometheus metrics for the workload radar service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/workload-radar/internal/workload"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Manager owns every metric of the service. It is safe for concurrent use.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry
	runtime          bool

	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter

	datasetPeople    prometheus.Gauge
	datasetItems     prometheus.Gauge
	datasetDefaulted *prometheus.GaugeVec
	lastFetchUnix    prometheus.Gauge

	recommendations prometheus.Counter
	scheduledRuns   *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a manager on its own registry unless WithRegistry is given.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "workload_radar",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.fetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "notion",
		Name:      "fetches_total",
		Help:      "Total number of full database fetches by result",
	}, []string{"result"})

	m.fetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "notion",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of full database fetches including pagination",
		Buckets:   m.histogramBuckets,
	})

	m.cacheHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Dataset reads served from the cache",
	})

	m.cacheMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Dataset reads that required a fetch",
	})

	m.datasetPeople = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "people",
		Help:      "People in the last fetched dataset",
	})

	m.datasetItems = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "work_items",
		Help:      "Work items in the last fetched dataset",
	})

	m.datasetDefaulted = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "defaulted_fields",
		Help:      "Values substituted with defaults in the last fetched dataset, by field",
	}, []string{"field"})

	m.lastFetchUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "dataset",
		Name:      "last_fetch_timestamp_seconds",
		Help:      "Unix time of the last successful fetch",
	})

	m.recommendations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "recommendations_total",
		Help:      "Ranking requests served",
	})

	m.scheduledRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "scheduler",
		Name:      "runs_total",
		Help:      "Scheduled refreshes by result",
	}, []string{"result"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method",
		Buckets:   m.histogramBuckets,
	}, []string{"route", "method"})
}

func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) CacheHit() {
	m.cacheHits.Inc()
}

func (m *Manager) CacheMiss() {
	m.cacheMisses.Inc()
}

func (m *Manager) FetchDone(took time.Duration, err error) {
	m.fetchDuration.Observe(took.Seconds())
	if err != nil {
		m.fetches.WithLabelValues(resultFailure).Inc()
		return
	}
	m.fetches.WithLabelValues(resultSuccess).Inc()
}

// ObserveDataset records the shape of a successfully fetched dataset.
func (m *Manager) ObserveDataset(ds *workload.Dataset) {
	m.datasetPeople.Set(float64(len(ds.People)))
	m.datasetItems.Set(float64(len(ds.Items)))
	m.datasetDefaulted.Reset()
	for field, n := range ds.Defaulted {
		m.datasetDefaulted.WithLabelValues(field).Set(float64(n))
	}
	if !ds.FetchedAt.IsZero() {
		m.lastFetchUnix.Set(float64(ds.FetchedAt.Unix()))
	}
}

func (m *Manager) RecordRecommendation() {
	m.recommendations.Inc()
}

func (m *Manager) RecordScheduledRun(err error) {
	if err != nil {
		m.scheduledRuns.WithLabelValues(resultFailure).Inc()
		return
	}
	m.scheduledRuns.WithLabelValues(resultSuccess).Inc()
}

// Middleware records request counts and latency labelled by the chi route pattern.
func (m *Manager) Middleware(next http.Handler) http.Handler {
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

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
