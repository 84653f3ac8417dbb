package sqlengine

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

const (
	spanNamePrefix = "versionhistory.sql."

	metricQueryDuration  = "versionhistory_query_duration_seconds"
	metricDatabaseErrors = "versionhistory_database_errors_total"

	statusSuccess = "success"
	statusError   = "error"

	labelOperation = "operation"
	labelStatus    = "status"
	labelErrorType = "error_type"

	spanAttrOperation   = "operation"
	spanAttrTable       = "table"
	spanAttrRecordCount = "record_count"
	spanAttrDurationMS  = "duration_ms"
	spanAttrError       = "error"

	errorTypeBuildQuery   = "build_query"
	errorTypeDatabase     = "database"
	errorTypeScan         = "scan"
	errorTypeEncodeFields = "encode_fields"
	errorTypeNotUpdated   = "not_updated"
	errorTypeBeginTx      = "begin_tx"
	errorTypeCommitTx     = "commit_tx"

	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgBuildUpdateQueryFailed = "failed to build update query"
	logMsgEncodeFieldsFailed     = "failed to encode fields"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database statement execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgBuildRecordFailed      = "failed to build history record from database row"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgBeginTxFailed          = "failed to begin transaction"
	logMsgCommitTxFailed         = "failed to commit transaction"
	logMsgRollbackFailed         = "failed to roll back transaction"
	logMsgRecordsQueried         = "records queried for: "
	logMsgRecordInserted         = "history record inserted"
	logMsgRecordUpdated          = "history record updated"
	logMsgRecordNotUpdated       = "history record not updated, no rows affected"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "history store operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrStatement             = "statement"
	logAttrRecordID              = "record_id"
	logAttrRecordCount           = "record_count"
	logAttrEntityRef             = "entity_ref"
	logAttrOperation             = "operation"
	logAttrDurationMS            = "duration_ms"
)

// logQueryWithDuration logs SQL statements with execution time at debug level if a logger is configured.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery, statement string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+statement, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+statement, args...)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (s *Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

func (s *Store) logWarn(ctx context.Context, message string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(message, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (s *Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// recordDuration records the statement duration, context-aware if the collector supports it.
func (s *Store) recordDuration(ctx context.Context, statement string, duration time.Duration, status string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: statement,
		labelStatus:    status,
	}

	if contextualCollector, ok := s.metricsCollector.(versionhistory.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricQueryDuration, duration, labels)
		return
	}

	s.metricsCollector.RecordDuration(metricQueryDuration, duration, labels)
}

// recordError counts a failed statement, context-aware if the collector supports it.
func (s *Store) recordError(ctx context.Context, statement, errorType string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: statement,
		labelStatus:    statusError,
		labelErrorType: errorType,
	}

	if contextualCollector, ok := s.metricsCollector.(versionhistory.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricDatabaseErrors, labels)
		return
	}

	s.metricsCollector.IncrementCounter(metricDatabaseErrors, labels)
}

// startSpan starts a tracing span if the tracing collector is configured.
func (s *Store) startSpan(ctx context.Context, statement string) (context.Context, versionhistory.SpanContext) {
	if s.tracingCollector == nil {
		return ctx, nil
	}

	return s.tracingCollector.StartSpan(ctx, spanNamePrefix+statement, map[string]string{
		spanAttrOperation: statement,
		spanAttrTable:     s.tableName,
	})
}

func (s *Store) finishSpanSuccess(span versionhistory.SpanContext, duration time.Duration, recordCount int) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	s.tracingCollector.FinishSpan(span, statusSuccess, map[string]string{
		spanAttrRecordCount: strconv.Itoa(recordCount),
		spanAttrDurationMS:  strconv.FormatFloat(toMilliseconds(duration), 'f', 3, 64),
	})
}

func (s *Store) finishSpanError(span versionhistory.SpanContext, err error, duration time.Duration) {
	if s.tracingCollector == nil || span == nil {
		return
	}

	s.tracingCollector.FinishSpan(span, statusError, map[string]string{
		spanAttrError:      err.Error(),
		spanAttrDurationMS: strconv.FormatFloat(toMilliseconds(duration), 'f', 3, 64),
	})
}
