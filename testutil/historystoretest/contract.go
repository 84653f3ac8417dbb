package historystoretest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/versionhistory-go/testutil/fixtures" //nolint:revive
	"github.com/AntonStoeckl/versionhistory-go/testutil/memstore"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// Subject is a history store engine under test.
type Subject interface {
	versionhistory.HistoryStore
	versionhistory.Transactor
}

var errForcedRollback = errors.New("forced rollback")

// RunContractTests runs the contract suite. newSubject must return a store on an empty history table.
func RunContractTests(t *testing.T, newSubject func(t *testing.T) Subject) {
	t.Helper()

	tests := []struct {
		name string
		run  func(t *testing.T, history Subject)
	}{
		{"InsertRecord_Then_QueryOpenIntervals", insertRecordThenQueryOpenIntervals},
		{"QueryOpenIntervals_Ignores_ClosedRecords_And_OtherEntities", queryOpenIntervalsIgnoresClosedAndOthers},
		{"UpdateRecord_Closes_Interval", updateRecordClosesInterval},
		{"UpdateRecord_When_RecordDoesNotExist", updateRecordWhenRecordDoesNotExist},
		{"QueryHistory_Orders_By_ValidFrom", queryHistoryOrdersByValidFrom},
		{"QueryVersionAt_Respects_Interval_Bounds", queryVersionAtRespectsIntervalBounds},
		{"Timestamps_Are_Normalized", timestampsAreNormalized},
		{"InTransaction_Commits", inTransactionCommits},
		{"InTransaction_When_Fn_Fails_RollsBack", inTransactionWhenFnFailsRollsBack},
		{"InTransaction_Nested_Joins_Outer_Transaction", inTransactionNestedJoinsOuter},
		{"VersionedStore_Lifecycle_Scenario", versionedStoreLifecycleScenario},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, newSubject(t))
		})
	}
}

func givenRecord(t *testing.T, entityRef string, fields versionhistory.Fields, validFrom time.Time) versionhistory.HistoryRecord {
	t.Helper()

	record, err := versionhistory.BuildHistoryRecord(
		entityRef,
		fields,
		versionhistory.OperationInsert,
		validFrom,
		versionhistory.MaxValidUntil,
	)
	require.NoError(t, err)

	return record
}

func givenInsertedRecord(
	t *testing.T,
	history Subject,
	entityRef string,
	validFrom time.Time,
	validUntil time.Time,
) versionhistory.HistoryRecord {

	t.Helper()

	record := givenRecord(t, entityRef, versionhistory.Fields{"title": "t"}, validFrom)
	record.ValidUntil = validUntil
	require.NoError(t, history.InsertRecord(context.Background(), record))

	return record
}

func insertRecordThenQueryOpenIntervals(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// arrange
	record := givenRecord(t, "doc-1", versionhistory.Fields{"title": "A", "count": 3, "done": false}, At(0))

	// act
	insertErr := history.InsertRecord(ctx, record)
	open, queryErr := history.QueryOpenIntervals(ctx, "doc-1", At(0))

	// assert
	require.NoError(t, insertErr)
	require.NoError(t, queryErr)
	require.Len(t, open, 1)
	assert.NotZero(t, open[0].ID)
	assert.Equal(t, "doc-1", open[0].EntityRef)
	assert.Equal(t, versionhistory.OperationInsert, open[0].Operation)
	assert.Equal(t, At(0), open[0].ValidFrom)
	assert.Equal(t, versionhistory.MaxValidUntil, open[0].ValidUntil)
	assert.Equal(t, versionhistory.Fields{"title": "A", "count": json.Number("3"), "done": false}, open[0].Fields)
}

func queryOpenIntervalsIgnoresClosedAndOthers(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// arrange
	givenInsertedRecord(t, history, "doc-1", At(0), At(10))
	givenInsertedRecord(t, history, "doc-1", At(10), versionhistory.MaxValidUntil)
	givenInsertedRecord(t, history, "doc-2", At(0), versionhistory.MaxValidUntil)

	// act
	open, err := history.QueryOpenIntervals(ctx, "doc-1", At(10))

	// assert
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, At(10), open[0].ValidFrom)
}

func updateRecordClosesInterval(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// arrange
	givenInsertedRecord(t, history, "doc-1", At(0), versionhistory.MaxValidUntil)
	open, err := history.QueryOpenIntervals(ctx, "doc-1", At(10))
	require.NoError(t, err)
	require.Len(t, open, 1)

	// act
	updateErr := history.UpdateRecord(ctx, open[0].ClosedAt(At(10)))

	// assert
	require.NoError(t, updateErr)

	stillOpen, err := history.QueryOpenIntervals(ctx, "doc-1", At(10))
	require.NoError(t, err)
	assert.Empty(t, stillOpen)

	records, err := history.QueryHistory(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, At(10), records[0].ValidUntil)
	assert.Equal(t, open[0].Fields, records[0].Fields, "closing does not touch the snapshot")
}

func updateRecordWhenRecordDoesNotExist(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// arrange
	record := givenRecord(t, "doc-1", versionhistory.Fields{}, At(0))
	record.ID = 4711

	// act
	err := history.UpdateRecord(ctx, record.ClosedAt(At(10)))

	// assert
	assert.ErrorIs(t, err, versionhistory.ErrRecordNotUpdated)
}

func queryHistoryOrdersByValidFrom(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// arrange
	givenInsertedRecord(t, history, "doc-1", At(20), versionhistory.MaxValidUntil)
	givenInsertedRecord(t, history, "doc-1", At(0), At(10))
	givenInsertedRecord(t, history, "doc-1", At(10), At(20))

	// act
	records, err := history.QueryHistory(ctx, "doc-1")

	// assert
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, At(0), records[0].ValidFrom)
	assert.Equal(t, At(10), records[1].ValidFrom)
	assert.Equal(t, At(20), records[2].ValidFrom)
	assert.NoError(t, versionhistory.ValidateTimeline(records, versionhistory.MaxValidUntil))

	unknown, err := history.QueryHistory(ctx, "doc-unknown")
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func queryVersionAtRespectsIntervalBounds(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// arrange
	givenInsertedRecord(t, history, "doc-1", At(0), At(10))
	givenInsertedRecord(t, history, "doc-1", At(10), versionhistory.MaxValidUntil)

	// act & assert
	for _, tc := range []struct {
		at           time.Time
		expectedFrom time.Time
	}{
		{At(0), At(0)},
		{At(9), At(0)},
		{At(10), At(10)},
		{At(100000), At(10)},
	} {
		version, err := history.QueryVersionAt(ctx, "doc-1", tc.at)
		require.NoError(t, err)
		assert.Equal(t, tc.expectedFrom, version.ValidFrom, "version at %s", tc.at)
	}

	_, err := history.QueryVersionAt(ctx, "doc-1", At(-1))
	assert.ErrorIs(t, err, versionhistory.ErrNoVersionAt)

	_, err = history.QueryVersionAt(ctx, "doc-unknown", At(5))
	assert.ErrorIs(t, err, versionhistory.ErrNoVersionAt)
}

func timestampsAreNormalized(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()
	berlin := time.FixedZone("CET", 3600)

	// arrange
	record := versionhistory.HistoryRecord{
		EntityRef:  "doc-1",
		Fields:     versionhistory.Fields{},
		Operation:  versionhistory.OperationInsert,
		ValidFrom:  At(0).In(berlin).Add(1500 * time.Nanosecond),
		ValidUntil: versionhistory.MaxValidUntil,
	}

	// act
	require.NoError(t, history.InsertRecord(ctx, record))
	records, err := history.QueryHistory(ctx, "doc-1")

	// assert
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, At(0).Add(time.Microsecond), records[0].ValidFrom)
	assert.Equal(t, time.UTC, records[0].ValidFrom.Location())
}

func inTransactionCommits(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// act
	err := history.InTransaction(ctx, func(ctx context.Context) error {
		return history.InsertRecord(ctx, givenRecord(t, "doc-1", versionhistory.Fields{}, At(0)))
	})

	// assert
	require.NoError(t, err)

	records, queryErr := history.QueryHistory(ctx, "doc-1")
	require.NoError(t, queryErr)
	assert.Len(t, records, 1)
}

func inTransactionWhenFnFailsRollsBack(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// act
	err := history.InTransaction(ctx, func(ctx context.Context) error {
		if insertErr := history.InsertRecord(ctx, givenRecord(t, "doc-1", versionhistory.Fields{}, At(0))); insertErr != nil {
			return insertErr
		}

		return errForcedRollback
	})

	// assert
	assert.ErrorIs(t, err, errForcedRollback)

	records, queryErr := history.QueryHistory(ctx, "doc-1")
	require.NoError(t, queryErr)
	assert.Empty(t, records)
}

func inTransactionNestedJoinsOuter(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()

	// act
	err := history.InTransaction(ctx, func(ctx context.Context) error {
		innerErr := history.InTransaction(ctx, func(ctx context.Context) error {
			return history.InsertRecord(ctx, givenRecord(t, "doc-1", versionhistory.Fields{}, At(0)))
		})
		if innerErr != nil {
			return innerErr
		}

		return errForcedRollback
	})

	// assert
	assert.ErrorIs(t, err, errForcedRollback)

	records, queryErr := history.QueryHistory(ctx, "doc-1")
	require.NoError(t, queryErr)
	assert.Empty(t, records, "the inner transaction was rolled back with the outer one")
}

func versionedStoreLifecycleScenario(t *testing.T, history Subject) {
	// setup
	ctx := context.Background()
	clock := NewFakeClock(At(0))
	entities := memstore.NewEntityStore[Document](
		func(document Document) (string, bool) { return document.ID, document.ID != "" },
		SequentialDocumentIDs(),
	)

	store, err := versionhistory.NewVersionedStore[Document](
		entities,
		history,
		DocumentSnapshotter(),
		versionhistory.WithClock(clock),
		versionhistory.WithTransactor(history),
	)
	require.NoError(t, err)

	// create at t=0
	document, err := store.Save(ctx, FixtureDocument("A", "body"))
	require.NoError(t, err)

	// update at t=10
	clock.Set(At(10))
	document.Title = "B"
	document, err = store.Save(ctx, document)
	require.NoError(t, err)

	// unchanged save at t=20
	clock.Set(At(20))
	_, err = store.Save(ctx, document)
	require.NoError(t, err)

	// delete at t=30
	clock.Set(At(30))
	require.NoError(t, store.Delete(ctx, document))

	// assert
	records, err := store.History(ctx, document.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, versionhistory.OperationInsert, records[0].Operation)
	assert.Equal(t, At(0), records[0].ValidFrom)
	assert.Equal(t, At(10), records[0].ValidUntil)
	assert.Equal(t, "A", records[0].Fields["title"])

	assert.Equal(t, versionhistory.OperationUpdate, records[1].Operation)
	assert.Equal(t, At(10), records[1].ValidFrom)
	assert.Equal(t, At(30), records[1].ValidUntil)
	assert.Equal(t, "B", records[1].Fields["title"])

	assert.NoError(t, versionhistory.ValidateTimeline(records, versionhistory.MaxValidUntil))

	open, err := history.QueryOpenIntervals(ctx, document.ID, At(30))
	require.NoError(t, err)
	assert.Empty(t, open)
}
