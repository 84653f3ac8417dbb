package versionhistory

import (
	"errors"
)

var (
	ErrNilEntityStore        = errors.New("nil entity store supplied")
	ErrNilHistoryStore       = errors.New("nil history store supplied")
	ErrNilSnapshotter        = errors.New("nil field snapshotter supplied")
	ErrNilClock              = errors.New("nil clock supplied")
	ErrNilTransactor         = errors.New("nil transactor supplied")
	ErrEmptyAsOfField        = errors.New("empty as-of field name supplied")
	ErrEmptyIdentityField    = errors.New("empty identity field name supplied")
	ErrZeroSentinel          = errors.New("sentinel timestamp must not be zero")
	ErrNilDatabaseConnection = errors.New("nil database connection supplied")
	ErrEmptyTableName        = errors.New("empty table name supplied")
	ErrEmptyColumnName       = errors.New("empty column name supplied")
)

var (
	// ErrEntityNotFound must be returned by EntityStore.Load when no persisted entity exists for an identity.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrMissingEntityIdentity is returned when an operation needs the identity of an entity that was never persisted.
	ErrMissingEntityIdentity = errors.New("entity has no identity")

	// ErrAsOfFieldMissing is returned when the configured as-of field is not part of the entity's snapshot.
	ErrAsOfFieldMissing = errors.New("as-of field missing in entity snapshot")

	// ErrAsOfFieldNotTime is returned when the configured as-of field does not hold a timestamp.
	ErrAsOfFieldNotTime = errors.New("as-of field does not hold a timestamp")

	// ErrNoVersionAt is returned when an entity had no valid version at the requested instant.
	ErrNoVersionAt = errors.New("no version valid at the given time")
)

var (
	ErrClassifyingChangeFailed  = errors.New("classifying change failed")
	ErrSnapshottingFieldsFailed = errors.New("snapshotting entity fields failed")
	ErrPersistingEntityFailed   = errors.New("persisting entity failed")
	ErrRemovingEntityFailed     = errors.New("removing entity failed")
	ErrClosingIntervalFailed    = errors.New("closing open interval failed")
	ErrRecordingVersionFailed   = errors.New("recording version failed")
	ErrResolvingAsOfFailed      = errors.New("resolving as-of timestamp failed")
	ErrQueryingHistoryFailed    = errors.New("querying history failed")
)

var (
	ErrEmptyEntityRef          = errors.New("history record needs an entity reference")
	ErrOperationNotRecordable  = errors.New("operation can not be recorded")
	ErrInvalidValidityInterval = errors.New("valid from must be before valid until")
)

var (
	ErrTimelineGap           = errors.New("timeline has a gap between consecutive versions")
	ErrTimelineOverlap       = errors.New("timeline has overlapping versions")
	ErrMultipleOpenIntervals = errors.New("timeline has more than one open interval")
)

var (
	ErrBuildingQueryFailed       = errors.New("building query failed")
	ErrQueryingRecordsFailed     = errors.New("querying history records failed")
	ErrScanningDBRowFailed       = errors.New("scanning db row failed")
	ErrUpdatingRecordFailed      = errors.New("updating history record failed")
	ErrInsertingRecordFailed     = errors.New("inserting history record failed")
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
	ErrRecordNotUpdated          = errors.New("history record was not updated, no rows were affected")
	ErrBeginningTxFailed         = errors.New("beginning transaction failed")
	ErrCommittingTxFailed        = errors.New("committing transaction failed")
	ErrEncodingFieldsFailed      = errors.New("encoding fields failed")
	ErrDecodingFieldsFailed      = errors.New("decoding fields failed")
	ErrMigratingSchemaFailed     = errors.New("migrating schema failed")
)
