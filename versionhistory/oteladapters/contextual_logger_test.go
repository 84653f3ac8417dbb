package oteladapters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	"go.opentelemetry.io/otel/log/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory/oteladapters"
)

func Test_SlogBridgeLoggerWithHandler_LogsAllLevels(t *testing.T) {
	// setup
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "executed sql for: query_open_intervals", "duration_ms", 1.25)
	logger.InfoContext(ctx, "version recorded", "entity_ref", "doc-1")
	logger.WarnContext(ctx, "failed to close database rows")
	logger.ErrorContext(ctx, "versioned save failed", "error_type", "persist")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"level":"DEBUG","msg":"executed sql for: query_open_intervals","duration_ms":1.25`)
	assert.Contains(t, output, `"level":"INFO","msg":"version recorded","entity_ref":"doc-1"`)
	assert.Contains(t, output, `"level":"WARN","msg":"failed to close database rows"`)
	assert.Contains(t, output, `"level":"ERROR","msg":"versioned save failed","error_type":"persist"`)
}

func Test_SlogBridgeLogger_With_NoopProvider_DoesNotPanic(t *testing.T) {
	// setup
	logger := oteladapters.NewSlogBridgeLogger("test", otelslog.WithLoggerProvider(noop.NewLoggerProvider()))
	tracerProvider := sdktrace.NewTracerProvider()
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()
	ctx, span := tracerProvider.Tracer("test").Start(context.Background(), "versionhistory.save")
	defer span.End()

	// act + assert
	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "debug message", "key", "value")
		logger.InfoContext(ctx, "info message", "key", "value")
		logger.WarnContext(ctx, "warn message", "key", "value")
		logger.ErrorContext(ctx, "error message", "key", "value")
	})
}

func Test_SlogBridgeLogger_With_RecordingProvider_CarriesTraceContext(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewSlogBridgeLogger(
		"test",
		otelslog.WithLoggerProvider(recordingLoggerProvider{logger: recorder}),
	)
	tracerProvider := sdktrace.NewTracerProvider()
	defer func() { _ = tracerProvider.Shutdown(context.Background()) }()
	ctx, span := tracerProvider.Tracer("test").Start(context.Background(), "versionhistory.save")
	defer span.End()

	// act
	logger.InfoContext(ctx, "version recorded", "entity_ref", "doc-1")

	// assert
	records := recorder.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "version recorded", records[0].record.Body().AsString())
	assert.Equal(t, log.SeverityInfo, records[0].record.Severity())
	assert.Equal(t, span.SpanContext().TraceID(), traceIDFrom(records[0].ctx))
}

func Test_OTelLogger_EmitsTypedAttributes(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.InfoContext(
		context.Background(),
		"version recorded",
		"entity_ref", "doc-1",
		"closed_intervals", 1,
		"duration_ms", 1.5,
		"changed", true,
		"error", errors.New("boom"),
		42, "ignored",
	)

	// assert
	records := recorder.Records()
	require.Len(t, records, 1)

	record := records[0].record
	assert.Equal(t, "version recorded", record.Body().AsString())
	assert.Equal(t, log.SeverityInfo, record.Severity())

	attrs := map[string]log.Value{}
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	require.Len(t, attrs, 5)
	assert.Equal(t, "doc-1", attrs["entity_ref"].AsString())
	assert.Equal(t, int64(1), attrs["closed_intervals"].AsInt64())
	assert.InDelta(t, 1.5, attrs["duration_ms"].AsFloat64(), 0.0001)
	assert.True(t, attrs["changed"].AsBool())
	assert.Equal(t, "boom", attrs["error"].AsString())
}

func Test_OTelLogger_AllSeverities(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "debug")
	logger.InfoContext(ctx, "info")
	logger.WarnContext(ctx, "warn")
	logger.ErrorContext(ctx, "error")

	// assert
	records := recorder.Records()
	require.Len(t, records, 4)
	assert.Equal(t, log.SeverityDebug, records[0].record.Severity())
	assert.Equal(t, log.SeverityInfo, records[1].record.Severity())
	assert.Equal(t, log.SeverityWarn, records[2].record.Severity())
	assert.Equal(t, log.SeverityError, records[3].record.Severity())
}

func Test_OTelLogger_When_LoggerIsDisabled_EmitsNothing(t *testing.T) {
	// setup
	recorder := &recordingLogger{disabled: true}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.ErrorContext(context.Background(), "versioned save failed")

	// assert
	assert.Empty(t, recorder.Records())
}

type emittedRecord struct {
	ctx    context.Context //nolint:containedctx
	record log.Record
}

type recordingLogger struct {
	embedded.Logger

	mu       sync.Mutex
	disabled bool
	records  []emittedRecord
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, emittedRecord{ctx: ctx, record: record})
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return !l.disabled
}

func (l *recordingLogger) Records() []emittedRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]emittedRecord(nil), l.records...)
}

type recordingLoggerProvider struct {
	embedded.LoggerProvider

	logger *recordingLogger
}

func (p recordingLoggerProvider) Logger(string, ...log.LoggerOption) log.Logger {
	return p.logger
}
