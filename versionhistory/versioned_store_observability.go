package versionhistory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	spanNameSave   = "versionhistory.save"
	spanNameSeal   = "versionhistory.seal"
	spanNameDelete = "versionhistory.delete"

	metricSaveDuration     = "versionhistory_save_duration_seconds"
	metricSealDuration     = "versionhistory_seal_duration_seconds"
	metricDeleteDuration   = "versionhistory_delete_duration_seconds"
	metricVersionsRecorded = "versionhistory_versions_recorded_total"
	metricIntervalsClosed  = "versionhistory_intervals_closed"
	metricNoopSaves        = "versionhistory_noop_saves_total"
	metricErrors           = "versionhistory_errors_total"

	operationSave   = "save"
	operationSeal   = "seal"
	operationDelete = "delete"

	statusSuccess = "success"
	statusError   = "error"

	labelOperation = "operation"
	labelStatus    = "status"
	labelErrorType = "error_type"
	labelChange    = "change"

	spanAttrOperation       = "operation"
	spanAttrChange          = "change"
	spanAttrEntityRef       = "entity_ref"
	spanAttrClosedIntervals = "closed_intervals"
	spanAttrErrorType       = "error_type"
	spanAttrDurationMS      = "duration_ms"

	logMsgSaveFailed       = "versioned save failed"
	logMsgSealFailed       = "sealing timeline failed"
	logMsgDeleteFailed     = "deleting entity failed"
	logMsgClassified       = "change classified"
	logMsgVersionRecorded  = "version recorded"
	logMsgUnchangedSave    = "unchanged entity saved without new version"
	logMsgTimelineSealed   = "timeline sealed"
	logMsgEntityDeleted    = "entity deleted"
	logAttrError           = "error"
	logAttrErrorType       = "error_type"
	logAttrOperation       = "operation"
	logAttrEntityRef       = "entity_ref"
	logAttrClosedIntervals = "closed_intervals"
	logAttrValidFrom       = "valid_from"
	logAttrDurationMS      = "duration_ms"

	errorTypeMissingIdentity = "missing_identity"
	errorTypeClassify        = "classify"
	errorTypePersist         = "persist"
	errorTypeResolveAsOf     = "resolve_as_of"
	errorTypeCloseInterval   = "close_interval"
	errorTypeRecordVersion   = "record_version"
	errorTypeRemove          = "remove"
	errorTypeTransaction     = "transaction"
	errorTypeUnknown         = "unknown"
)

// sealingObservation names what Seal and Delete report.
type sealingObservation struct {
	spanName       string
	operation      string
	durationMetric string
	failedMessage  string
	doneMessage    string
}

var (
	sealObservation = sealingObservation{
		spanName:       spanNameSeal,
		operation:      operationSeal,
		durationMetric: metricSealDuration,
		failedMessage:  logMsgSealFailed,
		doneMessage:    logMsgTimelineSealed,
	}

	deleteObservation = sealingObservation{
		spanName:       spanNameDelete,
		operation:      operationDelete,
		durationMetric: metricDeleteDuration,
		failedMessage:  logMsgDeleteFailed,
		doneMessage:    logMsgEntityDeleted,
	}
)

// classifyError maps a failure to the error_type used in logs, metrics, and spans.
func classifyError(err error) string {
	switch {
	case errors.Is(err, ErrMissingEntityIdentity):
		return errorTypeMissingIdentity
	case errors.Is(err, ErrClassifyingChangeFailed):
		return errorTypeClassify
	case errors.Is(err, ErrPersistingEntityFailed):
		return errorTypePersist
	case errors.Is(err, ErrResolvingAsOfFailed):
		return errorTypeResolveAsOf
	case errors.Is(err, ErrClosingIntervalFailed):
		return errorTypeCloseInterval
	case errors.Is(err, ErrRecordingVersionFailed):
		return errorTypeRecordVersion
	case errors.Is(err, ErrRemovingEntityFailed):
		return errorTypeRemove
	case errors.Is(err, ErrBeginningTxFailed), errors.Is(err, ErrCommittingTxFailed):
		return errorTypeTransaction
	default:
		return errorTypeUnknown
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2f", float64(d.Nanoseconds())/1e6)
}

// === Logging ===

func (c *storeConfig) logDebug(ctx context.Context, message string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(message, args...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.DebugContext(ctx, message, args...)
	}
}

func (c *storeConfig) logInfo(ctx context.Context, message string, args ...any) {
	if c.logger != nil {
		c.logger.Info(message, args...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.InfoContext(ctx, message, args...)
	}
}

func (c *storeConfig) logError(ctx context.Context, message string, err error, args ...any) {
	if c.logger == nil && c.contextualLogger == nil {
		return
	}

	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if c.logger != nil {
		c.logger.Error(message, allArgs...)
	}

	if c.contextualLogger != nil {
		c.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

func (c *storeConfig) logSaveResult(ctx context.Context, result saveResult, duration time.Duration) {
	if result.operation == OperationNoChange {
		c.logInfo(
			ctx,
			logMsgUnchangedSave,
			logAttrEntityRef, result.entityRef,
			logAttrDurationMS, toMilliseconds(duration),
		)

		return
	}

	c.logInfo(
		ctx,
		logMsgVersionRecorded,
		logAttrEntityRef, result.entityRef,
		logAttrOperation, result.operation.String(),
		logAttrClosedIntervals, result.closedIntervals,
		logAttrValidFrom, result.validFrom.Format(time.RFC3339Nano),
		logAttrDurationMS, toMilliseconds(duration),
	)
}

// === Metrics Observer Pattern ===

// metricsObserver encapsulates the metrics collection for one Save, Seal, or Delete call.
type metricsObserver struct {
	config         *storeConfig
	ctx            context.Context
	operation      string
	durationMetric string
}

func (c *storeConfig) startMetrics(ctx context.Context, operation, durationMetric string) *metricsObserver {
	return &metricsObserver{
		config:         c,
		ctx:            ctx,
		operation:      operation,
		durationMetric: durationMetric,
	}
}

func (mo *metricsObserver) recordSaveSuccess(result saveResult, duration time.Duration) {
	mo.recordDuration(statusSuccess, duration)

	if result.operation == OperationNoChange {
		mo.incrementCounter(metricNoopSaves, mo.labels(statusSuccess))
		return
	}

	labels := mo.labels(statusSuccess)
	labels[labelChange] = result.operation.String()
	mo.incrementCounter(metricVersionsRecorded, labels)
	mo.recordValue(metricIntervalsClosed, float64(result.closedIntervals))
}

func (mo *metricsObserver) recordSealSuccess(closed int, duration time.Duration) {
	mo.recordDuration(statusSuccess, duration)
	mo.recordValue(metricIntervalsClosed, float64(closed))
}

func (mo *metricsObserver) recordError(errorType string, duration time.Duration) {
	mo.recordDuration(statusError, duration)

	labels := mo.labels(statusError)
	labels[labelErrorType] = errorType
	mo.incrementCounter(metricErrors, labels)
}

func (mo *metricsObserver) labels(status string) map[string]string {
	return map[string]string{
		labelOperation: mo.operation,
		labelStatus:    status,
	}
}

func (mo *metricsObserver) recordDuration(status string, duration time.Duration) {
	collector := mo.config.metricsCollector
	if collector == nil {
		return
	}

	// Use context-aware method if available
	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(mo.ctx, mo.durationMetric, duration, mo.labels(status))
		return
	}

	collector.RecordDuration(mo.durationMetric, duration, mo.labels(status))
}

func (mo *metricsObserver) recordValue(metric string, value float64) {
	collector := mo.config.metricsCollector
	if collector == nil {
		return
	}

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.RecordValueContext(mo.ctx, metric, value, mo.labels(statusSuccess))
		return
	}

	collector.RecordValue(metric, value, mo.labels(statusSuccess))
}

func (mo *metricsObserver) incrementCounter(metric string, labels map[string]string) {
	collector := mo.config.metricsCollector
	if collector == nil {
		return
	}

	if contextual, ok := collector.(ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(mo.ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// === Tracing Observer Pattern ===

// tracingObserver encapsulates the span lifecycle of one Save, Seal, or Delete call.
type tracingObserver struct {
	config *storeConfig
	span   SpanContext
}

func (c *storeConfig) startTracing(ctx context.Context, spanName, operation string) (*tracingObserver, context.Context) {
	if c.tracingCollector == nil {
		return &tracingObserver{config: c}, ctx
	}

	newCtx, span := c.tracingCollector.StartSpan(ctx, spanName, map[string]string{spanAttrOperation: operation})

	return &tracingObserver{config: c, span: span}, newCtx
}

func (to *tracingObserver) finishSaveSuccess(result saveResult, duration time.Duration) {
	to.finish(statusSuccess, map[string]string{
		spanAttrChange:          result.operation.String(),
		spanAttrEntityRef:       result.entityRef,
		spanAttrClosedIntervals: fmt.Sprintf("%d", result.closedIntervals),
		spanAttrDurationMS:      formatDuration(duration),
	})
}

func (to *tracingObserver) finishSealSuccess(closed int, duration time.Duration) {
	to.finish(statusSuccess, map[string]string{
		spanAttrClosedIntervals: fmt.Sprintf("%d", closed),
		spanAttrDurationMS:      formatDuration(duration),
	})
}

func (to *tracingObserver) finishError(errorType string, duration time.Duration) {
	to.finish(statusError, map[string]string{
		spanAttrErrorType:  errorType,
		spanAttrDurationMS: formatDuration(duration),
	})
}

func (to *tracingObserver) finish(status string, attrs map[string]string) {
	if to.span == nil || to.config.tracingCollector == nil {
		return
	}

	to.span.SetStatus(status)
	for key, value := range attrs {
		to.span.AddAttribute(key, value)
	}

	to.config.tracingCollector.FinishSpan(to.span, status, attrs)
}
