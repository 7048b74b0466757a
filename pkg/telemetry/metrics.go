package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides Prometheus metrics for a bunsenite invocation.
type Metrics struct {
	config MetricsConfig

	// Command metrics
	commandsExecuted *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec

	// Loader metrics
	loaderCalls    *prometheus.CounterVec
	loaderDuration *prometheus.HistogramVec

	// Error metrics
	errorsByKind *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return DisabledMetrics(), nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		commandsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_executed_total",
				Help:      "Total number of commands executed",
			},
			[]string{"command", "status"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Duration of command execution in seconds",
				Buckets:   buckets,
			},
			[]string{"command"},
		),

		loaderCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loader_calls_total",
				Help:      "Total number of configuration loader calls",
			},
			[]string{"operation", "status"},
		),
		loaderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "loader_call_duration_seconds",
				Help:      "Duration of configuration loader calls in seconds",
				Buckets:   buckets,
			},
			[]string{"operation"},
		),

		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by kind and recoverability",
			},
			[]string{"kind", "recoverable"},
		),
	}

	registry.MustRegister(
		m.commandsExecuted,
		m.commandDuration,
		m.loaderCalls,
		m.loaderDuration,
		m.errorsByKind,
	)

	return m, nil
}

// DisabledMetrics returns metrics that record nothing and write no textfile.
func DisabledMetrics() *Metrics {
	return &Metrics{}
}

// RecordCommand records a finished command with its status and duration.
func (m *Metrics) RecordCommand(command, status string, duration time.Duration) {
	if m.commandsExecuted == nil {
		return
	}
	m.commandsExecuted.WithLabelValues(command, status).Inc()
	m.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordLoaderCall records a loader call with its status and duration.
func (m *Metrics) RecordLoaderCall(operation, status string, duration time.Duration) {
	if m.loaderCalls == nil {
		return
	}
	m.loaderCalls.WithLabelValues(operation, status).Inc()
	m.loaderDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError records an error by kind.
func (m *Metrics) RecordError(kind string, recoverable bool) {
	if m.errorsByKind == nil {
		return
	}
	m.errorsByKind.WithLabelValues(kind, fmt.Sprintf("%t", recoverable)).Inc()
}

// Registry returns the underlying registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to the configured textfile path.
func (m *Metrics) WriteTextfile() error {
	if m.registry == nil || m.config.TextfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.config.TextfilePath, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", m.config.TextfilePath, err)
	}
	return nil
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
