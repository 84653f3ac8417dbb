package versionhistory

import (
	"context"
	"errors"
	"time"
)

// VersionRecorder appends new, open history records. It never touches existing ones.
type VersionRecorder struct {
	history HistoryStore
}

// NewVersionRecorder creates a VersionRecorder.
func NewVersionRecorder(history HistoryStore) (VersionRecorder, error) {
	if history == nil {
		return VersionRecorder{}, ErrNilHistoryStore
	}

	return VersionRecorder{history: history}, nil
}

// Record persists the field snapshot of entityRef as a new version valid from asOf until the sentinel.
func (vr VersionRecorder) Record(
	ctx context.Context,
	entityRef string,
	fields Fields,
	operation Operation,
	asOf time.Time,
	sentinel time.Time,
) (HistoryRecord, error) {

	record, buildErr := BuildHistoryRecord(entityRef, fields, operation, asOf, sentinel)
	if buildErr != nil {
		return HistoryRecord{}, errors.Join(ErrRecordingVersionFailed, buildErr)
	}

	if insertErr := vr.history.InsertRecord(ctx, record); insertErr != nil {
		return HistoryRecord{}, errors.Join(ErrRecordingVersionFailed, insertErr)
	}

	return record, nil
}
