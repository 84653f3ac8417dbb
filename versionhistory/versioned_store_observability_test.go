package versionhistory_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/versionhistory-go/testutil/fixtures"                  //nolint:revive
	. "github.com/AntonStoeckl/versionhistory-go/testutil/observability/testdoubles" //nolint:revive
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

func Test_Observability_VersionedStore_WithLogger_LogsSaves(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	f := givenVersionedStore(t, versionhistory.WithLogger(slog.New(logHandler)))

	// act
	document, err := f.store.Save(ctx, FixtureDocument("title", "body"))
	require.NoError(t, err)
	_, err = f.store.Save(ctx, document)
	require.NoError(t, err)

	// assert
	assert.True(t, logHandler.HasDebugLogWithMessage("change classified").WithOperation("insert").Assert())
	assert.True(t, logHandler.HasDebugLogWithMessage("change classified").Assert())
	assert.True(t,
		logHandler.HasInfoLogWithMessage("version recorded").
			WithEntityRef(document.ID).
			WithOperation("insert").
			WithClosedIntervals(0).
			WithDurationMS().
			Assert(), "should log the recorded version",
	)
	assert.True(t,
		logHandler.HasInfoLogWithMessage("unchanged entity saved without new version").
			WithEntityRef(document.ID).
			WithDurationMS().
			Assert(), "should log the no-op save",
	)
}

func Test_Observability_VersionedStore_WithLogger_LogsFailures(t *testing.T) {
	// setup
	logHandler := NewLogHandlerSpy(false)
	f := givenVersionedStore(t, versionhistory.WithLogger(slog.New(logHandler)))
	f.entities.FailPersistWith(errors.New("boom"))

	// act
	_, err := f.store.Save(context.Background(), FixtureDocument("title", "body"))

	// assert
	assert.Error(t, err)
	assert.True(t, logHandler.HasErrorLogWithMessage("versioned save failed").WithErrorType("persist").Assert())
}

func Test_Observability_VersionedStore_WithLogger_LogsSeal(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	f := givenVersionedStore(t, versionhistory.WithLogger(slog.New(logHandler)))

	document, err := f.store.Save(ctx, FixtureDocument("title", "body"))
	require.NoError(t, err)

	// act
	require.NoError(t, f.store.Seal(ctx, document))

	// assert
	assert.True(t,
		logHandler.HasInfoLogWithMessage("timeline sealed").
			WithEntityRef(document.ID).
			WithClosedIntervals(1).
			Assert(), "should log the sealed timeline",
	)
}

func Test_Observability_VersionedStore_WithContextualLogger(t *testing.T) {
	// setup
	type traceKey struct{}
	ctx := context.WithValue(context.Background(), traceKey{}, "trace-1")
	logger := NewContextualLoggerSpy(true)
	f := givenVersionedStore(t, versionhistory.WithContextualLogger(logger))

	// act
	_, err := f.store.Save(ctx, FixtureDocument("title", "body"))

	// assert
	require.NoError(t, err)
	assert.True(t, logger.HasDebugLog("change classified"))
	assert.True(t, logger.HasInfoLogWithContext("version recorded", traceKey{}, "trace-1"), "should pass the caller's context")
}

func Test_Observability_VersionedStore_WithMetrics(t *testing.T) {
	// setup
	ctx := context.Background()
	metrics := NewMetricsCollectorSpy(true)
	f := givenVersionedStore(t, versionhistory.WithMetrics(metrics))

	// act
	document, err := f.store.Save(ctx, FixtureDocument("title", "body"))
	require.NoError(t, err)
	_, err = f.store.Save(ctx, document)
	require.NoError(t, err)
	require.NoError(t, f.store.Seal(ctx, document))

	// assert
	assert.Equal(t, 2, metrics.CountDurationRecordsForMetric("versionhistory_save_duration_seconds"))
	assert.True(t,
		metrics.HasDurationRecordForMetric("versionhistory_save_duration_seconds").
			WithOperation("save").
			WithStatus("success").
			Assert(),
	)
	assert.True(t,
		metrics.HasCounterRecordForMetric("versionhistory_versions_recorded_total").
			WithLabel("change", "insert").
			Assert(),
	)
	assert.Equal(t, 1, metrics.CountCounterRecordsForMetric("versionhistory_noop_saves_total"))
	assert.True(t,
		metrics.HasDurationRecordForMetric("versionhistory_seal_duration_seconds").
			WithOperation("seal").
			Assert(),
	)
}

func Test_Observability_VersionedStore_WithMetrics_RecordsErrors(t *testing.T) {
	// setup
	metrics := NewMetricsCollectorSpy(true)
	f := givenVersionedStore(t, versionhistory.WithMetrics(metrics))
	f.history.FailInsertWith(errors.New("boom"))

	// act
	_, err := f.store.Save(context.Background(), FixtureDocument("title", "body"))

	// assert
	assert.Error(t, err)
	assert.True(t,
		metrics.HasCounterRecordForMetric("versionhistory_errors_total").
			WithOperation("save").
			WithStatus("error").
			WithErrorType("record_version").
			Assert(),
	)
	assert.Zero(t, metrics.CountCounterRecordsForMetric("versionhistory_versions_recorded_total"))
}

func Test_Observability_VersionedStore_WithTracing(t *testing.T) {
	// setup
	ctx := context.Background()
	tracing := NewTracingCollectorSpy(true)
	f := givenVersionedStore(t, versionhistory.WithTracing(tracing))

	// act
	document, err := f.store.Save(ctx, FixtureDocument("title", "body"))
	require.NoError(t, err)
	require.NoError(t, f.store.Delete(ctx, document))

	// assert
	assert.True(t,
		tracing.HasSpanRecordForName("versionhistory.save").
			WithStartAttribute("operation", "save").
			WithStatus("success").
			WithEndAttribute("change", "insert").
			WithEndAttribute("entity_ref", document.ID).
			WithEndAttribute("closed_intervals", "0").
			Assert(),
	)
	assert.True(t,
		tracing.HasSpanRecordForName("versionhistory.delete").
			WithStartAttribute("operation", "delete").
			WithStatus("success").
			WithEndAttribute("closed_intervals", "1").
			Assert(),
	)
	assert.Zero(t, tracing.CountSpanRecordsForName("versionhistory.seal"), "Delete is traced as one operation")
}

func Test_Observability_VersionedStore_WithTracing_FinishesFailedSpans(t *testing.T) {
	// setup
	tracing := NewTracingCollectorSpy(true)
	f := givenVersionedStore(t, versionhistory.WithTracing(tracing))

	// act
	err := f.store.Seal(context.Background(), FixtureDocument("never", "saved"))

	// assert
	assert.ErrorIs(t, err, versionhistory.ErrMissingEntityIdentity)
	assert.True(t,
		tracing.HasSpanRecordForName("versionhistory.seal").
			WithStatus("error").
			WithEndAttribute("error_type", "missing_identity").
			Assert(),
	)
}

func Test_Observability_VersionedStore_Delete_When_RemoveFails_ReportsNoSeal(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := NewLogHandlerSpy(false)
	metrics := NewMetricsCollectorSpy(true)
	tracing := NewTracingCollectorSpy(true)
	f := givenVersionedStore(t,
		versionhistory.WithLogger(slog.New(logHandler)),
		versionhistory.WithMetrics(metrics),
		versionhistory.WithTracing(tracing),
	)

	// arrange
	document, err := f.store.Save(ctx, FixtureDocument("title", "body"))
	require.NoError(t, err)
	f.entities.FailRemoveWith(errors.New("foreign key violation"))

	// act
	err = f.store.Delete(ctx, document)

	// assert
	require.ErrorIs(t, err, versionhistory.ErrRemovingEntityFailed)
	assert.False(t, logHandler.HasInfoLog("timeline sealed"), "the rolled back seal must not be reported")
	assert.False(t, logHandler.HasInfoLog("entity deleted"))
	assert.True(t, logHandler.HasErrorLogWithMessage("deleting entity failed").WithErrorType("remove").Assert())
	assert.Zero(t, metrics.CountDurationRecordsForMetric("versionhistory_seal_duration_seconds"))
	assert.True(t,
		metrics.HasDurationRecordForMetric("versionhistory_delete_duration_seconds").
			WithOperation("delete").
			WithStatus("error").
			Assert(),
	)
	assert.True(t,
		metrics.HasCounterRecordForMetric("versionhistory_errors_total").
			WithOperation("delete").
			WithErrorType("remove").
			Assert(),
	)
	assert.Zero(t, tracing.CountSpanRecordsForName("versionhistory.seal"))
	assert.True(t,
		tracing.HasSpanRecordForName("versionhistory.delete").
			WithStatus("error").
			WithEndAttribute("error_type", "remove").
			Assert(),
	)
}
