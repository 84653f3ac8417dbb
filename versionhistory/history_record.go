package versionhistory

import (
	"time"
)

// MaxValidUntil is the default sentinel marking an open interval: a fixed far-future timestamp.
var MaxValidUntil = time.Date(3000, time.December, 31, 23, 59, 59, 999999000, time.UTC)

// HistoryRecords is an alias type for a slice of HistoryRecord.
type HistoryRecords = []HistoryRecord

// HistoryRecord is one version of an entity, valid within [ValidFrom, ValidUntil).
//
// Records are immutable once written, except for the single transition of ValidUntil from the
// sentinel to a real timestamp when the interval is closed.
//
// Fields read back from a history store are decoded from JSON, so their value types are the
// JSON ones (string, json.Number, bool, nil, []any, map[string]any).
type HistoryRecord struct {
	ID         int64
	EntityRef  string
	Fields     Fields
	Operation  Operation
	ValidFrom  time.Time
	ValidUntil time.Time
}

// BuildHistoryRecord is a factory method for a new, open HistoryRecord.
//
// It returns an error if entityRef is empty, the operation is not recordable or validFrom is not before sentinel.
func BuildHistoryRecord(
	entityRef string,
	fields Fields,
	operation Operation,
	validFrom time.Time,
	sentinel time.Time,
) (HistoryRecord, error) {

	if entityRef == "" {
		return HistoryRecord{}, ErrEmptyEntityRef
	}

	if !operation.IsRecordable() {
		return HistoryRecord{}, ErrOperationNotRecordable
	}

	validFrom = NormalizeTimestamp(validFrom)
	sentinel = NormalizeTimestamp(sentinel)

	if !validFrom.Before(sentinel) {
		return HistoryRecord{}, ErrInvalidValidityInterval
	}

	return HistoryRecord{
		EntityRef:  entityRef,
		Fields:     fields.Clone(),
		Operation:  operation,
		ValidFrom:  validFrom,
		ValidUntil: sentinel,
	}, nil
}

// IsOpen reports whether the record is the currently active version.
func (r HistoryRecord) IsOpen(sentinel time.Time) bool {
	return r.ValidUntil.Equal(sentinel)
}

// IsValidAt reports whether the record was the active version at instant t.
func (r HistoryRecord) IsValidAt(t time.Time) bool {
	return !t.Before(r.ValidFrom) && t.Before(r.ValidUntil)
}

// ClosedAt returns a copy of the record with its interval ending at asOf.
func (r HistoryRecord) ClosedAt(asOf time.Time) HistoryRecord {
	r.ValidUntil = NormalizeTimestamp(asOf)

	return r
}
