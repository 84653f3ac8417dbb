package versionhistory

import (
	"context"
	"errors"
	"time"
)

// VersionedStore wraps an EntityStore so that every save records the entity's new state
// in a HistoryStore and every deletion seals its timeline.
type VersionedStore[E any] struct {
	storeConfig
	entities    EntityStore[E]
	history     HistoryStore
	snapshotter FieldSnapshotter[E]
	detector    ChangeDetector[E]
	closer      IntervalCloser
	recorder    VersionRecorder
}

// NewVersionedStore creates a VersionedStore with optional configuration.
func NewVersionedStore[E any](
	entities EntityStore[E],
	history HistoryStore,
	snapshotter FieldSnapshotter[E],
	options ...Option,
) (*VersionedStore[E], error) {

	detector, detectorErr := NewChangeDetector(entities, snapshotter)
	if detectorErr != nil {
		return nil, detectorErr
	}

	closer, closerErr := NewIntervalCloser(history)
	if closerErr != nil {
		return nil, closerErr
	}

	recorder, recorderErr := NewVersionRecorder(history)
	if recorderErr != nil {
		return nil, recorderErr
	}

	vs := &VersionedStore[E]{
		storeConfig: defaultStoreConfig(),
		entities:    entities,
		history:     history,
		snapshotter: snapshotter,
		detector:    detector,
		closer:      closer,
		recorder:    recorder,
	}

	for _, option := range options {
		if err := option(&vs.storeConfig); err != nil {
			return nil, err
		}
	}

	return vs, nil
}

// Save classifies the entity, persists it, and for inserts and updates closes the open interval
// and records the new version. It returns the persisted entity.
//
// Saves that change nothing are written through to the EntityStore (unless WithSkipUnchangedPersist
// is configured) but leave the history untouched.
func (vs *VersionedStore[E]) Save(ctx context.Context, entity E) (E, error) {
	var empty E

	tracing, ctx := vs.startTracing(ctx, spanNameSave, operationSave)
	metrics := vs.startMetrics(ctx, operationSave, metricSaveDuration)
	start := time.Now()

	var (
		saved  E
		result saveResult
	)

	err := vs.inTransaction(ctx, func(ctx context.Context) error {
		var saveErr error
		saved, result, saveErr = vs.save(ctx, entity)

		return saveErr
	})

	duration := time.Since(start)

	if err != nil {
		errType := classifyError(err)
		vs.logError(ctx, logMsgSaveFailed, err, logAttrErrorType, errType)
		metrics.recordError(errType, duration)
		tracing.finishError(errType, duration)

		return empty, err
	}

	vs.logSaveResult(ctx, result, duration)
	metrics.recordSaveSuccess(result, duration)
	tracing.finishSaveSuccess(result, duration)

	return saved, nil
}

// saveResult describes what one Save did to the timeline.
type saveResult struct {
	entityRef       string
	operation       Operation
	closedIntervals int
	validFrom       time.Time
}

func (vs *VersionedStore[E]) save(ctx context.Context, entity E) (E, saveResult, error) {
	var empty E

	operation, classifyErr := vs.detector.Classify(ctx, entity)
	if classifyErr != nil {
		return empty, saveResult{}, classifyErr
	}

	vs.logDebug(ctx, logMsgClassified, logAttrOperation, operation.String())

	result := saveResult{operation: operation}

	if operation == OperationNoChange && vs.skipUnchangedPersist {
		result.entityRef, _ = vs.snapshotter.Identity(entity)

		return entity, result, nil
	}

	persisted, persistErr := vs.entities.Persist(ctx, entity)
	if persistErr != nil {
		return empty, saveResult{}, errors.Join(ErrPersistingEntityFailed, persistErr)
	}

	entityRef, hasIdentity := vs.snapshotter.Identity(persisted)
	result.entityRef = entityRef

	if operation == OperationNoChange {
		return persisted, result, nil
	}

	if !hasIdentity {
		return empty, saveResult{}, errors.Join(ErrRecordingVersionFailed, ErrMissingEntityIdentity)
	}

	fields, snapshotErr := vs.snapshotter.Snapshot(persisted)
	if snapshotErr != nil {
		return empty, saveResult{}, errors.Join(ErrRecordingVersionFailed, ErrSnapshottingFieldsFailed, snapshotErr)
	}

	asOf, asOfErr := vs.resolveAsOf(fields)
	if asOfErr != nil {
		return empty, saveResult{}, asOfErr
	}

	closed, closeErr := vs.closer.CloseOpen(ctx, entityRef, asOf)
	if closeErr != nil {
		return empty, saveResult{}, closeErr
	}

	record, recordErr := vs.recorder.Record(ctx, entityRef, fields, operation, asOf, vs.sentinel)
	if recordErr != nil {
		return empty, saveResult{}, recordErr
	}

	result.closedIntervals = closed
	result.validFrom = record.ValidFrom

	return persisted, result, nil
}

// resolveAsOf returns the version boundary: the configured as-of field of the snapshot, or the clock.
func (vs *VersionedStore[E]) resolveAsOf(fields Fields) (time.Time, error) {
	if vs.asOfField == "" {
		return NormalizeTimestamp(vs.clock.Now()), nil
	}

	value, ok := fields[vs.asOfField]
	if !ok {
		return time.Time{}, errors.Join(ErrResolvingAsOfFailed, ErrAsOfFieldMissing)
	}

	switch asOf := value.(type) {
	case time.Time:
		return NormalizeTimestamp(asOf), nil
	case *time.Time:
		if asOf != nil {
			return NormalizeTimestamp(*asOf), nil
		}
	}

	return time.Time{}, errors.Join(ErrResolvingAsOfFailed, ErrAsOfFieldNotTime)
}

// Seal closes the open interval of the entity at the current clock time, without recording a new version.
// Call it right before the entity is removed, or let Delete do both.
func (vs *VersionedStore[E]) Seal(ctx context.Context, entity E) error {
	return vs.observeSealing(ctx, sealObservation, func(ctx context.Context) (string, int, error) {
		return vs.seal(ctx, entity)
	})
}

func (vs *VersionedStore[E]) seal(ctx context.Context, entity E) (string, int, error) {
	entityRef, hasIdentity := vs.snapshotter.Identity(entity)
	if !hasIdentity {
		return "", 0, ErrMissingEntityIdentity
	}

	closed, closeErr := vs.closer.CloseOpen(ctx, entityRef, vs.clock.Now())
	if closeErr != nil {
		return entityRef, 0, closeErr
	}

	return entityRef, closed, nil
}

// Delete seals the entity's timeline and removes the entity from the EntityStore.
// With a Transactor configured both happen in one transaction.
// It is observed as one operation: nothing is reported as sealed before Remove succeeded.
func (vs *VersionedStore[E]) Delete(ctx context.Context, entity E) error {
	return vs.observeSealing(ctx, deleteObservation, func(ctx context.Context) (string, int, error) {
		entityRef, closed, sealErr := vs.seal(ctx, entity)
		if sealErr != nil {
			return entityRef, 0, sealErr
		}

		if removeErr := vs.entities.Remove(ctx, entity); removeErr != nil {
			return entityRef, 0, errors.Join(ErrRemovingEntityFailed, removeErr)
		}

		return entityRef, closed, nil
	})
}

// observeSealing runs a sealing operation in a transaction and reports it once it is done.
func (vs *VersionedStore[E]) observeSealing(
	ctx context.Context,
	observation sealingObservation,
	run func(ctx context.Context) (string, int, error),
) error {

	tracing, ctx := vs.startTracing(ctx, observation.spanName, observation.operation)
	metrics := vs.startMetrics(ctx, observation.operation, observation.durationMetric)
	start := time.Now()

	var (
		entityRef string
		closed    int
	)

	err := vs.inTransaction(ctx, func(ctx context.Context) error {
		var runErr error
		entityRef, closed, runErr = run(ctx)

		return runErr
	})

	duration := time.Since(start)

	if err != nil {
		errType := classifyError(err)
		vs.logError(ctx, observation.failedMessage, err, logAttrErrorType, errType)
		metrics.recordError(errType, duration)
		tracing.finishError(errType, duration)

		return err
	}

	vs.logInfo(
		ctx,
		observation.doneMessage,
		logAttrEntityRef, entityRef,
		logAttrClosedIntervals, closed,
		logAttrDurationMS, toMilliseconds(duration),
	)
	metrics.recordSealSuccess(closed, duration)
	tracing.finishSealSuccess(closed, duration)

	return nil
}

// SaveFunc returns Save as a function with the signature of EntityStore.Persist,
// for hosts that route their writes through a function value.
func (vs *VersionedStore[E]) SaveFunc() func(ctx context.Context, entity E) (E, error) {
	return vs.Save
}

// SealFunc returns Seal for registration as the host's pre-deletion hook.
func (vs *VersionedStore[E]) SealFunc() func(ctx context.Context, entity E) error {
	return vs.Seal
}

// History returns the complete timeline of the entity with the given identity, ordered by ValidFrom.
func (vs *VersionedStore[E]) History(ctx context.Context, entityRef string) (HistoryRecords, error) {
	if entityRef == "" {
		return nil, ErrMissingEntityIdentity
	}

	records, queryErr := vs.history.QueryHistory(ctx, entityRef)
	if queryErr != nil {
		return nil, errors.Join(ErrQueryingHistoryFailed, queryErr)
	}

	return records, nil
}

// VersionAt returns the version of the entity that was valid at t, or ErrNoVersionAt.
func (vs *VersionedStore[E]) VersionAt(ctx context.Context, entityRef string, t time.Time) (HistoryRecord, error) {
	if entityRef == "" {
		return HistoryRecord{}, ErrMissingEntityIdentity
	}

	record, queryErr := vs.history.QueryVersionAt(ctx, entityRef, NormalizeTimestamp(t))
	if queryErr != nil {
		return HistoryRecord{}, errors.Join(ErrQueryingHistoryFailed, queryErr)
	}

	return record, nil
}

func (vs *VersionedStore[E]) inTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if vs.transactor == nil {
		return fn(ctx)
	}

	return vs.transactor.InTransaction(ctx, fn)
}
