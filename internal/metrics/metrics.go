// Package metrics exposes Prometheus instrumentation for index builds and
// graph queries.
//
// A nil *Metrics is valid and records nothing, so library callers that do not
// care about metrics pass nil.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codecompass"

// Metrics holds every collector used by the indexer and query engine.
type Metrics struct {
	BuildsTotal      *prometheus.CounterVec
	BuildDuration    prometheus.Histogram
	FilesTotal       *prometheus.CounterVec
	ParseDuration    prometheus.Histogram
	DiagnosticsTotal *prometheus.CounterVec
	GraphModules     prometheus.Gauge
	GraphSymbols     prometheus.Gauge
	GraphEdges       *prometheus.GaugeVec
	QueriesTotal     *prometheus.CounterVec
	QueryDuration    *prometheus.HistogramVec
	registry         prometheus.Gatherer
}

// New registers all collectors with reg. Use a fresh prometheus.NewRegistry
// in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "builds_total",
			Help:      "Total index builds by result",
		}, []string{"result"}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "build_duration_seconds",
			Help:      "Index build duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		}),
		FilesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "files_total",
			Help:      "Files processed by outcome",
		}, []string{"outcome"}),
		ParseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "parse_duration_seconds",
			Help:      "Per-file parse and resolve duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}),
		DiagnosticsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "diagnostics_total",
			Help:      "Diagnostics recorded by kind",
		}, []string{"kind"}),
		GraphModules: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "modules",
			Help:      "Modules in the most recent graph",
		}),
		GraphSymbols: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "symbols",
			Help:      "Symbols in the most recent graph",
		}),
		GraphEdges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Import edges in the most recent graph by kind",
		}, []string{"kind"}),
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Graph queries by operation and result",
		}, []string{"operation", "result"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Graph query duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"operation"}),
		registry: reg,
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the process-wide Metrics backed by its own registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		defaultMetrics = New(reg)
	})
	return defaultMetrics
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// File outcomes for FilesTotal.
const (
	OutcomeParsed   = "parsed"
	OutcomeDegraded = "degraded"
	OutcomeSkipped  = "skipped"
	OutcomeListed   = "listed"
)

func (m *Metrics) ObserveFile(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeParsed || outcome == OutcomeDegraded {
		m.ParseDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveDiagnostic(kind string) {
	if m == nil {
		return
	}
	m.DiagnosticsTotal.WithLabelValues(kind).Inc()
}

// GraphShape is the subset of graph statistics recorded as gauges.
type GraphShape struct {
	Modules    int
	Symbols    int
	Internal   int
	External   int
	Unresolved int
}

// ObserveBuild records one finished build. A non-nil err counts as a failure
// and leaves the graph gauges untouched.
func (m *Metrics) ObserveBuild(d time.Duration, shape GraphShape, err error) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
	if err != nil {
		m.BuildsTotal.WithLabelValues("error").Inc()
		return
	}
	m.BuildsTotal.WithLabelValues("ok").Inc()
	m.GraphModules.Set(float64(shape.Modules))
	m.GraphSymbols.Set(float64(shape.Symbols))
	m.GraphEdges.WithLabelValues("internal").Set(float64(shape.Internal))
	m.GraphEdges.WithLabelValues("external").Set(float64(shape.External))
	m.GraphEdges.WithLabelValues("unresolved").Set(float64(shape.Unresolved))
}

// ObserveQuery records a query; result is "ok", "empty" or "not_found".
func (m *Metrics) ObserveQuery(operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(operation, result).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}
