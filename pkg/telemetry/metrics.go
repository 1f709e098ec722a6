package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "weave").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush and update durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "weave",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Host operation labels used with RecordOps.
const (
	OpMount   = "mount"
	OpUnmount = "unmount"
	OpMove    = "move"
	OpPatch   = "patch"
)

// Metrics holds the scheduler and renderer collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	flushesTotal   prometheus.Counter
	flushDuration  prometheus.Histogram
	jobsTotal      prometheus.Counter
	callbacksTotal prometheus.Counter
	updatesTotal   *prometheus.CounterVec
	updateDuration *prometheus.HistogramVec
	opsTotal       *prometheus.CounterVec
	instances      prometheus.Gauge
}

// NewMetrics registers the collectors.
//
// Metrics collected:
//   - weave_flushes_total: Counter of scheduler flushes
//   - weave_flush_duration_seconds: Histogram of flush duration
//   - weave_jobs_total: Counter of jobs run by the scheduler
//   - weave_callbacks_total: Counter of next-tick callbacks run
//   - weave_updates_total: Counter of component updates by component
//   - weave_update_duration_seconds: Histogram of update duration by component
//   - weave_host_ops_total: Counter of host node operations by op
//   - weave_mounted_instances: Gauge of mounted component instances
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		flushesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flushes_total",
			Help:        "Total number of scheduler flushes",
			ConstLabels: config.ConstLabels,
		}),

		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		jobsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "jobs_total",
			Help:        "Total number of jobs run by the scheduler",
			ConstLabels: config.ConstLabels,
		}),

		callbacksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "callbacks_total",
			Help:        "Total number of next-tick callbacks run",
			ConstLabels: config.ConstLabels,
		}),

		updatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_total",
			Help:        "Total number of component updates",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		updateDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_duration_seconds",
			Help:        "Component update duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		opsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_ops_total",
			Help:        "Total number of host node operations",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		instances: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounted_instances",
			Help:        "Number of mounted component instances",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// RecordFlush records one scheduler flush.
func (m *Metrics) RecordFlush(d time.Duration, jobs, callbacks int) {
	if m == nil {
		return
	}
	m.flushesTotal.Inc()
	m.flushDuration.Observe(d.Seconds())
	m.jobsTotal.Add(float64(jobs))
	m.callbacksTotal.Add(float64(callbacks))
}

// RecordUpdate records one component update.
func (m *Metrics) RecordUpdate(component string, d time.Duration) {
	if m == nil {
		return
	}
	m.updatesTotal.WithLabelValues(component).Inc()
	m.updateDuration.WithLabelValues(component).Observe(d.Seconds())
}

// RecordOps adds n host operations of the given kind.
func (m *Metrics) RecordOps(op string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.opsTotal.WithLabelValues(op).Add(float64(n))
}

// InstanceMounted increments the mounted instance gauge.
func (m *Metrics) InstanceMounted() {
	if m == nil {
		return
	}
	m.instances.Inc()
}

// InstanceUnmounted decrements the mounted instance gauge.
func (m *Metrics) InstanceUnmounted() {
	if m == nil {
		return
	}
	m.instances.Dec()
}
