package promadapters

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

const (
	helpDuration = "Duration of versionhistory operations in seconds"
	helpCounter  = "Number of versionhistory operations"
	helpValue    = "Current value of a versionhistory measurement"
)

// ErrNilRegisterer is returned when NewMetricsCollector is called without a prometheus.Registerer.
var ErrNilRegisterer = errors.New("prometheus registerer must not be nil")

// Option defines a functional option for configuring a MetricsCollector.
type Option func(*MetricsCollector) error

// WithBuckets sets the histogram buckets used for durations, prometheus.DefBuckets by default.
func WithBuckets(buckets []float64) Option {
	return func(m *MetricsCollector) error {
		if len(buckets) == 0 {
			return errors.New("histogram buckets must not be empty")
		}

		m.buckets = buckets

		return nil
	}
}

// WithNamespace prefixes every metric name with namespace.
func WithNamespace(namespace string) Option {
	return func(m *MetricsCollector) error {
		m.namespace = namespace

		return nil
	}
}

type vec[V any] struct {
	vec        V
	labelNames []string
}

// MetricsCollector implements versionhistory.MetricsCollector with Prometheus vectors:
//   - RecordDuration -> HistogramVec observing seconds
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
type MetricsCollector struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	histograms map[string]vec[*prometheus.HistogramVec]
	counters   map[string]vec[*prometheus.CounterVec]
	gauges     map[string]vec[*prometheus.GaugeVec]
}

// NewMetricsCollector creates a MetricsCollector registering its vectors with registerer.
func NewMetricsCollector(registerer prometheus.Registerer, options ...Option) (*MetricsCollector, error) {
	if registerer == nil {
		return nil, ErrNilRegisterer
	}

	m := &MetricsCollector{
		registerer: registerer,
		buckets:    prometheus.DefBuckets,
		histograms: make(map[string]vec[*prometheus.HistogramVec]),
		counters:   make(map[string]vec[*prometheus.CounterVec]),
		gauges:     make(map[string]vec[*prometheus.GaugeVec]),
	}

	for _, option := range options {
		if err := option(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordDuration observes duration in seconds on the histogram named metric.
func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	histogram, exists := m.histograms[metric]
	if !exists {
		labelNames := sortedKeys(labels)
		created := prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: m.namespace,
				Name:      metric,
				Help:      helpDuration,
				Buckets:   m.buckets,
			},
			labelNames,
		)

		registered, ok := register(m.registerer, created)
		if !ok {
			return
		}

		histogram = vec[*prometheus.HistogramVec]{vec: registered, labelNames: labelNames}
		m.histograms[metric] = histogram
	}

	histogram.vec.WithLabelValues(labelValues(histogram.labelNames, labels)...).Observe(duration.Seconds())
}

// IncrementCounter adds one to the counter named metric.
func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counter, exists := m.counters[metric]
	if !exists {
		labelNames := sortedKeys(labels)
		created := prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: m.namespace, Name: metric, Help: helpCounter},
			labelNames,
		)

		registered, ok := register(m.registerer, created)
		if !ok {
			return
		}

		counter = vec[*prometheus.CounterVec]{vec: registered, labelNames: labelNames}
		m.counters[metric] = counter
	}

	counter.vec.WithLabelValues(labelValues(counter.labelNames, labels)...).Inc()
}

// RecordValue sets the gauge named metric to value.
func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gauge, exists := m.gauges[metric]
	if !exists {
		labelNames := sortedKeys(labels)
		created := prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: m.namespace, Name: metric, Help: helpValue},
			labelNames,
		)

		registered, ok := register(m.registerer, created)
		if !ok {
			return
		}

		gauge = vec[*prometheus.GaugeVec]{vec: registered, labelNames: labelNames}
		m.gauges[metric] = gauge
	}

	gauge.vec.WithLabelValues(labelValues(gauge.labelNames, labels)...).Set(value)
}

// register registers collector, or returns the collector a previous MetricsCollector registered under the same name.
func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, bool) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, true
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		if existing, ok := alreadyRegistered.ExistingCollector.(C); ok {
			return existing, true
		}
	}

	var empty C

	return empty, false
}

func sortedKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// labelValues orders labels by labelNames. Missing labels become empty, unknown ones are dropped.
func labelValues(labelNames []string, labels map[string]string) []string {
	values := make([]string, len(labelNames))
	for i, name := range labelNames {
		values[i] = labels[name]
	}

	return values
}

var _ versionhistory.MetricsCollector = (*MetricsCollector)(nil)
