package versionhistory

import (
	"context"
	"time"
)

// EntityStore is the host persistence layer of the versioned entity type.
type EntityStore[E any] interface {
	// Load returns the persisted entity with the given identity, or ErrEntityNotFound.
	Load(ctx context.Context, id string) (E, error)

	// Persist writes the entity and returns it with its identity assigned.
	Persist(ctx context.Context, entity E) (E, error)

	// Remove physically deletes the entity.
	Remove(ctx context.Context, entity E) error
}

// HistoryStore persists HistoryRecords.
type HistoryStore interface {
	// QueryOpenIntervals returns all records of entityRef with ValidUntil after asOf.
	QueryOpenIntervals(ctx context.Context, entityRef string, asOf time.Time) (HistoryRecords, error)

	// UpdateRecord writes the ValidUntil of an existing record, identified by its ID.
	UpdateRecord(ctx context.Context, record HistoryRecord) error

	// InsertRecord appends a new record.
	InsertRecord(ctx context.Context, record HistoryRecord) error

	// QueryHistory returns all records of entityRef ordered by ValidFrom.
	QueryHistory(ctx context.Context, entityRef string) (HistoryRecords, error)

	// QueryVersionAt returns the record of entityRef valid at t, or ErrNoVersionAt.
	QueryVersionAt(ctx context.Context, entityRef string, t time.Time) (HistoryRecord, error)
}

// Transactor runs fn inside one transaction: it commits if fn returns nil and rolls back otherwise.
// Stores that take part in the transaction find it through the context passed to fn.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
