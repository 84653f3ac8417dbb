package sqlengine

import (
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// Columns names the columns of the history table.
type Columns struct {
	ID         string
	EntityRef  string
	Operation  string
	Fields     string
	ValidFrom  string
	ValidUntil string
}

// DefaultColumns returns the column names created by the engines' schema.
func DefaultColumns() Columns {
	return Columns{
		ID:         "id",
		EntityRef:  "entity_ref",
		Operation:  "operation",
		Fields:     "fields",
		ValidFrom:  "valid_from",
		ValidUntil: "valid_until",
	}
}

// Option defines a functional option for configuring Store.
type Option func(*Store) error

// WithTableName sets the history table name.
func WithTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return versionhistory.ErrEmptyTableName
		}

		s.tableName = tableName

		return nil
	}
}

func withColumn(target func(*Columns) *string, columnName string) Option {
	return func(s *Store) error {
		if columnName == "" {
			return versionhistory.ErrEmptyColumnName
		}

		*target(&s.columns) = columnName

		return nil
	}
}

// WithIDColumn sets the name of the record ID column.
func WithIDColumn(columnName string) Option {
	return withColumn(func(c *Columns) *string { return &c.ID }, columnName)
}

// WithEntityRefColumn sets the name of the entity reference column.
func WithEntityRefColumn(columnName string) Option {
	return withColumn(func(c *Columns) *string { return &c.EntityRef }, columnName)
}

// WithOperationColumn sets the name of the operation code column.
func WithOperationColumn(columnName string) Option {
	return withColumn(func(c *Columns) *string { return &c.Operation }, columnName)
}

// WithFieldsColumn sets the name of the fields snapshot column.
func WithFieldsColumn(columnName string) Option {
	return withColumn(func(c *Columns) *string { return &c.Fields }, columnName)
}

// WithValidFromColumn sets the name of the interval start column.
func WithValidFromColumn(columnName string) Option {
	return withColumn(func(c *Columns) *string { return &c.ValidFrom }, columnName)
}

// WithValidUntilColumn sets the name of the interval end column.
func WithValidUntilColumn(columnName string) Option {
	return withColumn(func(c *Columns) *string { return &c.ValidUntil }, columnName)
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Record counts, durations (production-safe)
// Warn level: Non-critical issues like cleanup and rollback failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger versionhistory.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger, used in addition to the Logger.
func WithContextualLogger(logger versionhistory.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// Statement durations are recorded per statement kind.
func WithMetrics(collector versionhistory.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
func WithTracing(collector versionhistory.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}
