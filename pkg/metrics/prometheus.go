// Package metrics provides Prometheus metrics for the pacegrid service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the pacegrid service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Poll cycle metrics
	pollCycles     *prometheus.CounterVec
	pollLatency    prometheus.Histogram
	feedRuns       *prometheus.GaugeVec
	visibleChanges prometheus.Counter
	visibleSize    prometheus.Gauge
	rescoreTicks   *prometheus.CounterVec

	// PB cache metrics
	pbCacheHits    prometheus.Counter
	pbCacheMisses  prometheus.Counter
	pbCacheSize    prometheus.Gauge
	pbLookupErrors prometheus.Counter
	pbEvictions    prometheus.Counter

	// Fan-out metrics
	hubSubscribers prometheus.Gauge
	hubDropped     prometheus.Counter
	hubDelivered   prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pacegrid",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.pollCycles = auto.NewCounterVec(
		m.counterOpts("poll_cycles_total", "Poll cycles by result (ok, unchanged, error, skipped)"),
		[]string{"result"},
	)
	m.pollLatency = auto.NewHistogram(
		m.histogramOpts("poll_latency_milliseconds", "Duration of a full poll cycle in milliseconds"),
	)
	m.feedRuns = auto.NewGaugeVec(
		m.gaugeOpts("feed_runs", "Runs in the last normalized feed by pool"),
		[]string{"pool"},
	)
	m.visibleChanges = auto.NewCounter(
		m.counterOpts("visible_changes_total", "Number of published visible set changes"),
	)
	m.visibleSize = auto.NewGauge(
		m.gaugeOpts("visible_size", "Current number of visible channels"),
	)
	m.rescoreTicks = auto.NewCounterVec(
		m.counterOpts("rescore_ticks_total", "Re-score ticks by outcome (reordered, steady)"),
		[]string{"outcome"},
	)

	m.pbCacheHits = auto.NewCounter(m.counterOpts("pb_cache_hits_total", "PB cache hits"))
	m.pbCacheMisses = auto.NewCounter(m.counterOpts("pb_cache_misses_total", "PB cache misses"))
	m.pbCacheSize = auto.NewGauge(m.gaugeOpts("pb_cache_entries", "Entries currently held in the PB cache"))
	m.pbLookupErrors = auto.NewCounter(m.counterOpts("pb_lookup_errors_total", "Failed PB lookups"))
	m.pbEvictions = auto.NewCounter(m.counterOpts("pb_cache_evictions_total", "PB cache entries evicted by the sweep"))

	m.hubSubscribers = auto.NewGauge(m.gaugeOpts("hub_subscribers", "Connected update subscribers"))
	m.hubDropped = auto.NewCounter(m.counterOpts("hub_dropped_total", "Updates dropped because a subscriber queue was full"))
	m.hubDelivered = auto.NewCounter(m.counterOpts("hub_delivered_total", "Updates queued to subscribers"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
}

// RecordPollCycle increments the poll cycle counter for result.
func RecordPollCycle(result string) {
	globalManager.pollCycles.WithLabelValues(result).Inc()
}

// RecordPollLatency records a poll cycle duration in milliseconds.
func RecordPollLatency(latencyMs float64) {
	globalManager.pollLatency.Observe(latencyMs)
}

// UpdateFeedRuns sets the size of a normalized pool ("live" or "hidden").
func UpdateFeedRuns(pool string, count int) {
	globalManager.feedRuns.WithLabelValues(pool).Set(float64(count))
}

// RecordVisibleChange increments the published change counter.
func RecordVisibleChange() {
	globalManager.visibleChanges.Inc()
}

// UpdateVisibleSize sets the visible channel count.
func UpdateVisibleSize(size int) {
	globalManager.visibleSize.Set(float64(size))
}

// RecordRescoreTick increments the rescore counter for outcome.
func RecordRescoreTick(outcome string) {
	globalManager.rescoreTicks.WithLabelValues(outcome).Inc()
}

// RecordPBCacheHit increments the PB cache hit counter.
func RecordPBCacheHit() {
	globalManager.pbCacheHits.Inc()
}

// RecordPBCacheMiss increments the PB cache miss counter.
func RecordPBCacheMiss() {
	globalManager.pbCacheMisses.Inc()
}

// UpdatePBCacheSize sets the PB cache entry count.
func UpdatePBCacheSize(size int) {
	globalManager.pbCacheSize.Set(float64(size))
}

// RecordPBLookupError increments the PB lookup error counter.
func RecordPBLookupError() {
	globalManager.pbLookupErrors.Inc()
}

// RecordPBEvictions adds n evicted entries.
func RecordPBEvictions(n int) {
	globalManager.pbEvictions.Add(float64(n))
}

// UpdateHubSubscribers sets the subscriber gauge.
func UpdateHubSubscribers(count int) {
	globalManager.hubSubscribers.Set(float64(count))
}

// RecordHubDropped increments the dropped update counter.
func RecordHubDropped() {
	globalManager.hubDropped.Inc()
}

// RecordHubDelivered increments the delivered update counter.
func RecordHubDelivered() {
	globalManager.hubDelivered.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
