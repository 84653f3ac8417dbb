package postgresengine

import (
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/internal/sqlengine"
)

// Option defines a functional option for configuring HistoryStore.
type Option = sqlengine.Option

// WithTableName sets the table name for the HistoryStore, entity_history by default.
func WithTableName(tableName string) Option {
	return sqlengine.WithTableName(tableName)
}

// WithIDColumn sets the name of the record ID column.
func WithIDColumn(columnName string) Option {
	return sqlengine.WithIDColumn(columnName)
}

// WithEntityRefColumn sets the name of the entity reference column.
func WithEntityRefColumn(columnName string) Option {
	return sqlengine.WithEntityRefColumn(columnName)
}

// WithOperationColumn sets the name of the operation code column.
func WithOperationColumn(columnName string) Option {
	return sqlengine.WithOperationColumn(columnName)
}

// WithFieldsColumn sets the name of the jsonb fields column.
func WithFieldsColumn(columnName string) Option {
	return sqlengine.WithFieldsColumn(columnName)
}

// WithValidFromColumn sets the name of the interval start column.
func WithValidFromColumn(columnName string) Option {
	return sqlengine.WithValidFromColumn(columnName)
}

// WithValidUntilColumn sets the name of the interval end column.
func WithValidUntilColumn(columnName string) Option {
	return sqlengine.WithValidUntilColumn(columnName)
}

// WithLogger sets the logger for the HistoryStore.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Record counts, durations (production-safe)
// Warn level: Non-critical issues like cleanup and rollback failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger versionhistory.Logger) Option {
	return sqlengine.WithLogger(logger)
}

// WithContextualLogger sets a context-aware logger for the HistoryStore.
func WithContextualLogger(logger versionhistory.ContextualLogger) Option {
	return sqlengine.WithContextualLogger(logger)
}

// WithMetrics sets the metrics collector for the HistoryStore.
func WithMetrics(collector versionhistory.MetricsCollector) Option {
	return sqlengine.WithMetrics(collector)
}

// WithTracing sets the tracing collector for the HistoryStore.
func WithTracing(collector versionhistory.TracingCollector) Option {
	return sqlengine.WithTracing(collector)
}
