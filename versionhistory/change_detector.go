package versionhistory

import (
	"context"
	"errors"
)

// ChangeDetector classifies a save by comparing the incoming entity to its persisted counterpart.
type ChangeDetector[E any] struct {
	entities    EntityStore[E]
	snapshotter FieldSnapshotter[E]
}

// NewChangeDetector creates a ChangeDetector.
func NewChangeDetector[E any](entities EntityStore[E], snapshotter FieldSnapshotter[E]) (ChangeDetector[E], error) {
	if entities == nil {
		return ChangeDetector[E]{}, ErrNilEntityStore
	}

	if snapshotter == nil {
		return ChangeDetector[E]{}, ErrNilSnapshotter
	}

	if partial, ok := snapshotter.(interface{ complete() bool }); ok && !partial.complete() {
		return ChangeDetector[E]{}, ErrNilSnapshotter
	}

	return ChangeDetector[E]{entities: entities, snapshotter: snapshotter}, nil
}

// Classify returns OperationInsert, OperationUpdate, or OperationNoChange.
//
// An entity without identity, or one whose persisted counterpart does not exist (anymore), is an insert.
// Otherwise the complete field snapshots are compared: any differing field makes it an update.
func (cd ChangeDetector[E]) Classify(ctx context.Context, entity E) (Operation, error) {
	id, hasIdentity := cd.snapshotter.Identity(entity)
	if !hasIdentity {
		return OperationInsert, nil
	}

	persisted, loadErr := cd.entities.Load(ctx, id)
	if loadErr != nil {
		if errors.Is(loadErr, ErrEntityNotFound) {
			return OperationInsert, nil
		}

		return "", errors.Join(ErrClassifyingChangeFailed, loadErr)
	}

	persistedFields, snapshotErr := cd.snapshotter.Snapshot(persisted)
	if snapshotErr != nil {
		return "", errors.Join(ErrClassifyingChangeFailed, ErrSnapshottingFieldsFailed, snapshotErr)
	}

	incomingFields, snapshotErr := cd.snapshotter.Snapshot(entity)
	if snapshotErr != nil {
		return "", errors.Join(ErrClassifyingChangeFailed, ErrSnapshottingFieldsFailed, snapshotErr)
	}

	if persistedFields.Equal(incomingFields) {
		return OperationNoChange, nil
	}

	return OperationUpdate, nil
}
