// Package metrics exposes Prometheus collectors for form submissions.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collectors.
type Config struct {
	Namespace string
	Buckets   []float64
	Registry  *prometheus.Registry
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace (default "formsubmit").
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		if namespace != "" {
			c.Namespace = namespace
		}
	}
}

// WithBuckets sets the step duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		if len(buckets) > 0 {
			c.Buckets = buckets
		}
	}
}

// WithRegistry registers collectors on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		if registry != nil {
			c.Registry = registry
		}
	}
}

// Metrics holds the submission collectors.
type Metrics struct {
	registry *prometheus.Registry

	submissions   *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	notifyFailure *prometheus.CounterVec
	validation    *prometheus.CounterVec
}

// New registers the collectors.
func New(options ...Option) *Metrics {
	cfg := Config{
		Namespace: "formsubmit",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		registry: cfg.Registry,
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "submissions_total",
			Help:      "Submissions processed by the pipeline, by outcome.",
		}, []string{"form", "outcome", "reason"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "pipeline_step_duration_seconds",
			Help:      "Duration of each submission pipeline step.",
			Buckets:   cfg.Buckets,
		}, []string{"step"}),
		notifyFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "notification_failures_total",
			Help:      "Notification emails that could not be queued or delivered.",
		}, []string{"form"}),
		validation: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected validations, by mode (submit or realtime).",
		}, []string{"form", "mode"}),
	}
}

// Submission counts one pipeline outcome.
func (m *Metrics) Submission(form, outcome, reason string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(form, outcome, reason).Inc()
}

// ObserveStep records the duration of a pipeline step.
func (m *Metrics) ObserveStep(step string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// NotificationFailed counts a failed notification.
func (m *Metrics) NotificationFailed(form string) {
	if m == nil {
		return
	}
	m.notifyFailure.WithLabelValues(form).Inc()
}

// ValidationFailed counts a rejected validation.
func (m *Metrics) ValidationFailed(form, mode string) {
	if m == nil {
		return
	}
	m.validation.WithLabelValues(form, mode).Inc()
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
