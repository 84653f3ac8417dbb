package versionhistory

import (
	"time"
)

// storeConfig holds the settings shared by all VersionedStore instantiations.
type storeConfig struct {
	clock                Clock
	sentinel             time.Time
	asOfField            string
	transactor           Transactor
	skipUnchangedPersist bool
	logger               Logger
	contextualLogger     ContextualLogger
	metricsCollector     MetricsCollector
	tracingCollector     TracingCollector
}

func defaultStoreConfig() storeConfig {
	return storeConfig{
		clock:    SystemClock{},
		sentinel: MaxValidUntil,
	}
}

// Option defines a functional option for configuring a VersionedStore.
type Option func(*storeConfig) error

// WithClock replaces the wall clock, e.g. with a fake clock in tests.
func WithClock(clock Clock) Option {
	return func(c *storeConfig) error {
		if clock == nil {
			return ErrNilClock
		}

		c.clock = clock

		return nil
	}
}

// WithSentinel replaces MaxValidUntil as the ValidUntil of open records.
func WithSentinel(sentinel time.Time) Option {
	return func(c *storeConfig) error {
		if sentinel.IsZero() {
			return ErrZeroSentinel
		}

		c.sentinel = NormalizeTimestamp(sentinel)

		return nil
	}
}

// WithAsOfField makes the named snapshot field of the persisted entity (e.g. its "last modified" timestamp)
// the version boundary instead of the clock. The field must hold a time.Time or a non-nil *time.Time.
func WithAsOfField(fieldName string) Option {
	return func(c *storeConfig) error {
		if fieldName == "" {
			return ErrEmptyAsOfField
		}

		c.asOfField = fieldName

		return nil
	}
}

// WithTransactor runs every Save, Seal, and Delete inside one transaction of the given Transactor,
// so a failure to write history rolls back the entity write as well.
func WithTransactor(transactor Transactor) Option {
	return func(c *storeConfig) error {
		if transactor == nil {
			return ErrNilTransactor
		}

		c.transactor = transactor

		return nil
	}
}

// WithSkipUnchangedPersist makes saves that change nothing skip the underlying persist operation.
// By default such saves still write through to the EntityStore.
func WithSkipUnchangedPersist() Option {
	return func(c *storeConfig) error {
		c.skipUnchangedPersist = true

		return nil
	}
}

// WithLogger sets the logger for the VersionedStore.
//
// Debug level: classification results
// Info level: versions recorded, intervals closed, timelines sealed
// Error level: failures that abort a save or a deletion.
func WithLogger(logger Logger) Option {
	return func(c *storeConfig) error {
		c.logger = logger

		return nil
	}
}

// WithContextualLogger sets the contextual logger, which receives the same messages with the context
// of the operation, enabling trace correlation.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(c *storeConfig) error {
		c.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector for the VersionedStore.
func WithMetrics(collector MetricsCollector) Option {
	return func(c *storeConfig) error {
		c.metricsCollector = collector

		return nil
	}
}

// WithTracing sets the tracing collector for the VersionedStore.
func WithTracing(collector TracingCollector) Option {
	return func(c *storeConfig) error {
		c.tracingCollector = collector

		return nil
	}
}
