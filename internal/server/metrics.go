package server

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/observability"
)

// Metrics collects Prometheus metrics for the engine, the cache and the HTTP
// API. It implements the observability hook interfaces; [Metrics.Register]
// installs it.
type Metrics struct {
	registry *prometheus.Registry

	treeBuilds     *prometheus.CounterVec
	treeDuration   prometheus.Histogram
	treeNodes      prometheus.Histogram
	mutations      *prometheus.CounterVec
	pathSearches   *prometheus.CounterVec
	pathDuration   prometheus.Histogram
	layoutDuration *prometheus.HistogramVec
	layoutCircles  *prometheus.HistogramVec
	cacheOps       *prometheus.CounterVec
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	requestErrors  *prometheus.CounterVec
	sessions       prometheus.Gauge
	loads          *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
}

var sizeBuckets = prometheus.ExponentialBuckets(1, 4, 8)

// NewMetrics initializes a new metrics registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		treeBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "taxoview_tree_builds_total", Help: "Bounded tree constructions"},
			[]string{"status"},
		),
		treeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxoview_tree_build_duration_seconds",
			Help:    "Tree construction duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		treeNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxoview_tree_nodes",
			Help:    "Nodes per constructed tree",
			Buckets: sizeBuckets,
		}),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "taxoview_tree_mutations_total", Help: "Expand and collapse operations"},
			[]string{"op", "status"},
		),
		pathSearches: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "taxoview_path_searches_total", Help: "Path searches"},
			[]string{"status"},
		),
		pathDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxoview_path_search_duration_seconds",
			Help:    "Path search duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		layoutDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taxoview_layout_duration_seconds",
				Help:    "Layout duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		layoutCircles: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taxoview_layout_circles",
				Help:    "Circles per layout",
				Buckets: sizeBuckets,
			},
			[]string{"mode"},
		),
		cacheOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "taxoview_cache_operations_total", Help: "Cache hits, misses and writes"},
			[]string{"kind", "result"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "taxoview_http_requests_total", Help: "Served HTTP requests"},
			[]string{"method", "route", "code"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taxoview_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		requestErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "taxoview_http_errors_total", Help: "HTTP requests that ended in a coded error"},
			[]string{"route", "code"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taxoview_sessions",
			Help: "Live browse sessions",
		}),
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "taxoview_dataset_loads_total", Help: "Dataset loads by source kind"},
			[]string{"source", "status"},
		),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxoview_dataset_load_duration_seconds",
			Help:    "Dataset load duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "taxoview_renders_total", Help: "Artifact renders by format"},
			[]string{"format", "status"},
		),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxoview_render_duration_seconds",
			Help:    "Artifact render duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.treeBuilds, m.treeDuration, m.treeNodes, m.mutations,
		m.pathSearches, m.pathDuration, m.layoutDuration, m.layoutCircles,
		m.cacheOps, m.requests, m.requestLatency, m.requestErrors, m.sessions,
		m.loads, m.loadDuration, m.renders, m.renderDuration,
	)
	return m
}

// Register installs m as the engine, pipeline, cache and HTTP hooks.
func (m *Metrics) Register() {
	observability.SetEngineHooks(m)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// SetSessions records the number of live sessions.
func (m *Metrics) SetSessions(n int) { m.sessions.Set(float64(n)) }

// Write writes all metrics to a Prometheus text file.
func (m *Metrics) Write(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// =============================================================================
// Hook implementations
// =============================================================================

func (m *Metrics) OnBuildTree(_ string, nodes int, d time.Duration, err error) {
	m.treeBuilds.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	m.treeDuration.Observe(d.Seconds())
	m.treeNodes.Observe(float64(nodes))
}

func (m *Metrics) OnMutate(op string, _ int, err error) {
	m.mutations.WithLabelValues(op, status(err)).Inc()
}

func (m *Metrics) OnPath(_ int, d time.Duration, err error) {
	m.pathSearches.WithLabelValues(status(err)).Inc()
	m.pathDuration.Observe(d.Seconds())
}

func (m *Metrics) OnLayout(mode string, circles int, d time.Duration) {
	m.layoutDuration.WithLabelValues(mode).Observe(d.Seconds())
	m.layoutCircles.WithLabelValues(mode).Observe(float64(circles))
}

// OnLoad labels file sources by extension so the series stay bounded.
func (m *Metrics) OnLoad(_ context.Context, source string, _ int, d time.Duration, err error) {
	m.loads.WithLabelValues(sourceKind(source), status(err)).Inc()
	if err == nil {
		m.loadDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) OnRenderStart(context.Context, []string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	for _, f := range formats {
		m.renders.WithLabelValues(f, status(err)).Inc()
	}
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.cacheOps.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, kind string) {
	m.cacheOps.WithLabelValues(kind, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, kind string, _ int) {
	m.cacheOps.WithLabelValues(kind, "set").Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, route string, err error) {
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	m.requestErrors.WithLabelValues(route, code).Inc()
}

func sourceKind(source string) string {
	if ext := strings.TrimPrefix(filepath.Ext(source), "."); ext != "" {
		return ext
	}
	return source
}

// status is the outcome label for an error.
func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ observability.EngineHooks   = (*Metrics)(nil)
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)
