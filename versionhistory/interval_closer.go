package versionhistory

import (
	"context"
	"errors"
	"time"
)

// IntervalCloser closes the open history interval(s) of an entity.
type IntervalCloser struct {
	history HistoryStore
}

// NewIntervalCloser creates an IntervalCloser.
func NewIntervalCloser(history HistoryStore) (IntervalCloser, error) {
	if history == nil {
		return IntervalCloser{}, ErrNilHistoryStore
	}

	return IntervalCloser{history: history}, nil
}

// CloseOpen sets ValidUntil = asOf on every record of entityRef that is still valid after asOf
// (normally exactly one: the open record) and returns how many records were closed.
//
// Every update is written before CloseOpen returns, so a record inserted afterward for the same
// transition can never be open at the same time as its predecessor.
func (ic IntervalCloser) CloseOpen(ctx context.Context, entityRef string, asOf time.Time) (int, error) {
	if entityRef == "" {
		return 0, ErrMissingEntityIdentity
	}

	asOf = NormalizeTimestamp(asOf)

	openRecords, queryErr := ic.history.QueryOpenIntervals(ctx, entityRef, asOf)
	if queryErr != nil {
		return 0, errors.Join(ErrClosingIntervalFailed, queryErr)
	}

	for i, record := range openRecords {
		if updateErr := ic.history.UpdateRecord(ctx, record.ClosedAt(asOf)); updateErr != nil {
			return i, errors.Join(ErrClosingIntervalFailed, updateErr)
		}
	}

	return len(openRecords), nil
}
