package testdoubles

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// ContextualLoggerSpy is a versionhistory.ContextualLogger that keeps every call together with the context it got.
type ContextualLoggerSpy struct {
	records     []SpyContextualLogRecord
	mu          sync.Mutex
	recordCalls bool
}

// SpyContextualLogRecord represents a recorded contextual log call.
type SpyContextualLogRecord struct {
	Level   slog.Level
	Message string
	Args    []any
	Context context.Context
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy instance.
func NewContextualLoggerSpy(recordCalls bool) *ContextualLoggerSpy {
	return &ContextualLoggerSpy{recordCalls: recordCalls}
}

// DebugContext implements the ContextualLogger interface.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, slog.LevelDebug, msg, args)
}

// InfoContext implements the ContextualLogger interface.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, slog.LevelInfo, msg, args)
}

// WarnContext implements the ContextualLogger interface.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, slog.LevelWarn, msg, args)
}

// ErrorContext implements the ContextualLogger interface.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, slog.LevelError, msg, args)
}

// Records returns a copy of all recorded calls in call order.
func (s *ContextualLoggerSpy) Records() []SpyContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]SpyContextualLogRecord(nil), s.records...)
}

// HasDebugLog checks if a debug log with the specified message exists.
func (s *ContextualLoggerSpy) HasDebugLog(message string) bool {
	return s.find(slog.LevelDebug, message, func(SpyContextualLogRecord) bool { return true })
}

// HasInfoLog checks if an info log with the specified message exists.
func (s *ContextualLoggerSpy) HasInfoLog(message string) bool {
	return s.find(slog.LevelInfo, message, func(SpyContextualLogRecord) bool { return true })
}

// HasErrorLog checks if an error log with the specified message exists.
func (s *ContextualLoggerSpy) HasErrorLog(message string) bool {
	return s.find(slog.LevelError, message, func(SpyContextualLogRecord) bool { return true })
}

// HasInfoLogWithContext checks if an info log with the message got a context carrying key with value.
func (s *ContextualLoggerSpy) HasInfoLogWithContext(message string, key, value any) bool {
	return s.find(slog.LevelInfo, message, func(record SpyContextualLogRecord) bool {
		return record.Context != nil && record.Context.Value(key) == value
	})
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level slog.Level, msg string, args []any) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyContextualLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

func (s *ContextualLoggerSpy) find(level slog.Level, message string, match func(SpyContextualLogRecord) bool) bool {
	for _, record := range s.Records() {
		if record.Level == level && record.Message == message && match(record) {
			return true
		}
	}

	return false
}

var _ versionhistory.ContextualLogger = (*ContextualLoggerSpy)(nil)
