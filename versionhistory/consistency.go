package versionhistory

import "context"

// ConsistencyLevel defines the consistency requirements for history reads.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database. Classification and interval closing
	// always read with strong consistency, whatever the context says.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows timeline reads from a replica database.
	EventualConsistency
)

type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "versionhistory.consistency_level"

// WithStrongConsistency returns a context that signals history reads must use the primary database.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that signals timeline reads may use a replica database.
//
// Example usage:
//
//	ctx = versionhistory.WithEventualConsistency(ctx)
//	records, err := store.History(ctx, taskID)
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context, StrongConsistency if none is set.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

// String provides a string representation of ConsistencyLevel for logging and debugging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
