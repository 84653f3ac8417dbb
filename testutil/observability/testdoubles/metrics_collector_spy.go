package testdoubles

import (
	"maps"
	"sync"
	"time"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// SpyMetricKind tells which MetricsCollector method produced a SpyMetricRecord.
type SpyMetricKind int

// The kinds of recorded metrics.
const (
	DurationMetric SpyMetricKind = iota
	CounterMetric
	ValueMetric
)

// SpyMetricRecord represents one recorded metrics call.
type SpyMetricRecord struct {
	Kind     SpyMetricKind
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// MetricsCollectorSpy is a versionhistory.MetricsCollector that records calls for inspection in tests.
type MetricsCollectorSpy struct {
	records     []SpyMetricRecord
	mu          sync.Mutex
	recordCalls bool
}

// NewMetricsCollectorSpy creates a new MetricsCollectorSpy.
// Set recordCalls to true to capture all metrics calls.
func NewMetricsCollectorSpy(recordCalls bool) *MetricsCollectorSpy {
	return &MetricsCollectorSpy{recordCalls: recordCalls}
}

// RecordDuration implements the MetricsCollector interface.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: DurationMetric, Metric: metric, Duration: duration, Labels: labels})
}

// IncrementCounter implements the MetricsCollector interface.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: CounterMetric, Metric: metric, Labels: labels})
}

// RecordValue implements the MetricsCollector interface.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(SpyMetricRecord{Kind: ValueMetric, Metric: metric, Value: value, Labels: labels})
}

// Records returns a copy of all recorded calls of the given kind.
func (s *MetricsCollectorSpy) Records(kind SpyMetricKind) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []SpyMetricRecord
	for _, record := range s.records {
		if record.Kind == kind {
			records = append(records, record)
		}
	}

	return records
}

// HasDurationRecordForMetric starts a fluent chain over the duration records of the metric.
func (s *MetricsCollectorSpy) HasDurationRecordForMetric(metric string) *MetricRecordMatcher {
	return s.match(DurationMetric, metric)
}

// HasCounterRecordForMetric starts a fluent chain over the counter records of the metric.
func (s *MetricsCollectorSpy) HasCounterRecordForMetric(metric string) *MetricRecordMatcher {
	return s.match(CounterMetric, metric)
}

// HasValueRecordForMetric starts a fluent chain over the value records of the metric.
func (s *MetricsCollectorSpy) HasValueRecordForMetric(metric string) *MetricRecordMatcher {
	return s.match(ValueMetric, metric)
}

// CountDurationRecordsForMetric counts the duration records of the metric.
func (s *MetricsCollectorSpy) CountDurationRecordsForMetric(metric string) int {
	return len(s.match(DurationMetric, metric).candidates)
}

// CountCounterRecordsForMetric counts the counter records of the metric.
func (s *MetricsCollectorSpy) CountCounterRecordsForMetric(metric string) int {
	return len(s.match(CounterMetric, metric).candidates)
}

func (s *MetricsCollectorSpy) record(record SpyMetricRecord) {
	if !s.recordCalls {
		return
	}

	record.Labels = maps.Clone(record.Labels)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
}

func (s *MetricsCollectorSpy) match(kind SpyMetricKind, metric string) *MetricRecordMatcher {
	matcher := &MetricRecordMatcher{}
	for _, record := range s.Records(kind) {
		if record.Metric == metric {
			matcher.candidates = append(matcher.candidates, record)
		}
	}

	return matcher
}

// MetricRecordMatcher narrows down the records of one metric. It holds if any record passes every filter.
type MetricRecordMatcher struct {
	candidates []SpyMetricRecord
}

// WithOperation keeps the records with the given operation label.
func (m *MetricRecordMatcher) WithOperation(operation string) *MetricRecordMatcher {
	return m.WithLabel("operation", operation)
}

// WithStatus keeps the records with the given status label.
func (m *MetricRecordMatcher) WithStatus(status string) *MetricRecordMatcher {
	return m.WithLabel("status", status)
}

// WithErrorType keeps the records with the given error_type label.
func (m *MetricRecordMatcher) WithErrorType(errorType string) *MetricRecordMatcher {
	return m.WithLabel("error_type", errorType)
}

// WithLabel keeps the records carrying the label with the given value.
func (m *MetricRecordMatcher) WithLabel(key, value string) *MetricRecordMatcher {
	return m.filter(func(record SpyMetricRecord) bool {
		labelValue, exists := record.Labels[key]

		return exists && labelValue == value
	})
}

// WithValue keeps the value records with the given value.
func (m *MetricRecordMatcher) WithValue(value float64) *MetricRecordMatcher {
	return m.filter(func(record SpyMetricRecord) bool { return record.Value == value })
}

// Assert returns true if at least one record passed every filter of the chain.
func (m *MetricRecordMatcher) Assert() bool {
	return len(m.candidates) > 0
}

func (m *MetricRecordMatcher) filter(keep func(SpyMetricRecord) bool) *MetricRecordMatcher {
	kept := m.candidates[:0:0]
	for _, record := range m.candidates {
		if keep(record) {
			kept = append(kept, record)
		}
	}
	m.candidates = kept

	return m
}

var _ versionhistory.MetricsCollector = (*MetricsCollectorSpy)(nil)
