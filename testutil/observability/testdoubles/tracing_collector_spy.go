package testdoubles

import (
	"context"
	"maps"
	"sync"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// SpySpan is the versionhistory.SpanContext handed out by TracingCollectorSpy.
// It keeps everything that happened to the span between StartSpan and FinishSpan.
type SpySpan struct {
	Name            string
	StartAttributes map[string]string
	Attributes      map[string]string
	Status          string
	EndAttributes   map[string]string
	Finished        bool
	mu              sync.Mutex
}

// SetStatus implements the SpanContext interface.
func (s *SpySpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = status
}

// AddAttribute implements the SpanContext interface.
func (s *SpySpan) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Attributes[key] = value
}

func (s *SpySpan) finish(status string, attrs map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Status = status
	s.EndAttributes = maps.Clone(attrs)
	s.Finished = true
}

// TracingCollectorSpy is a versionhistory.TracingCollector that records spans for inspection in tests.
type TracingCollectorSpy struct {
	spans       []*SpySpan
	mu          sync.Mutex
	recordCalls bool
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
// Set recordCalls to true to capture all spans.
func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{recordCalls: recordCalls}
}

// StartSpan implements the TracingCollector interface.
func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, versionhistory.SpanContext) {

	if !s.recordCalls {
		return ctx, nil
	}

	span := &SpySpan{Name: name, StartAttributes: maps.Clone(attrs), Attributes: make(map[string]string)}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, span)

	return ctx, span
}

// FinishSpan implements the TracingCollector interface. Spans of other collectors are ignored.
func (s *TracingCollectorSpy) FinishSpan(spanCtx versionhistory.SpanContext, status string, attrs map[string]string) {
	if span, ok := spanCtx.(*SpySpan); ok && span != nil {
		span.finish(status, attrs)
	}
}

// Spans returns all spans started so far, in start order.
func (s *TracingCollectorSpy) Spans() []*SpySpan {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*SpySpan(nil), s.spans...)
}

// HasSpanRecordForName starts a fluent chain over the spans with the given name.
func (s *TracingCollectorSpy) HasSpanRecordForName(name string) *SpanRecordMatcher {
	matcher := &SpanRecordMatcher{}
	for _, span := range s.Spans() {
		if span.Name == name {
			matcher.candidates = append(matcher.candidates, span)
		}
	}

	return matcher
}

// CountSpanRecordsForName counts the spans with the given name.
func (s *TracingCollectorSpy) CountSpanRecordsForName(name string) int {
	return len(s.HasSpanRecordForName(name).candidates)
}

// SpanRecordMatcher narrows down spans of one name. It holds if any span passes every filter.
type SpanRecordMatcher struct {
	candidates []*SpySpan
}

// WithStatus keeps the finished spans with the given status.
func (m *SpanRecordMatcher) WithStatus(status string) *SpanRecordMatcher {
	return m.filter(func(span *SpySpan) bool { return span.Finished && span.Status == status })
}

// WithStartAttribute keeps the spans started with the given attribute.
func (m *SpanRecordMatcher) WithStartAttribute(key, value string) *SpanRecordMatcher {
	return m.filter(func(span *SpySpan) bool { return hasAttribute(span.StartAttributes, key, value) })
}

// WithEndAttribute keeps the spans finished with the given attribute.
func (m *SpanRecordMatcher) WithEndAttribute(key, value string) *SpanRecordMatcher {
	return m.filter(func(span *SpySpan) bool { return hasAttribute(span.EndAttributes, key, value) })
}

// Assert returns true if at least one span passed every filter of the chain.
func (m *SpanRecordMatcher) Assert() bool {
	return len(m.candidates) > 0
}

func (m *SpanRecordMatcher) filter(keep func(*SpySpan) bool) *SpanRecordMatcher {
	var kept []*SpySpan
	for _, span := range m.candidates {
		span.mu.Lock()
		ok := keep(span)
		span.mu.Unlock()

		if ok {
			kept = append(kept, span)
		}
	}
	m.candidates = kept

	return m
}

func hasAttribute(attrs map[string]string, key, value string) bool {
	attrValue, exists := attrs[key]

	return exists && attrValue == value
}

var _ versionhistory.TracingCollector = (*TracingCollectorSpy)(nil)
