package sqliteengine_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/versionhistory-go/testutil/fixtures" //nolint:revive
	"github.com/AntonStoeckl/versionhistory-go/testutil/historystoretest"
	"github.com/AntonStoeckl/versionhistory-go/testutil/observability/testdoubles"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/sqliteengine"
)

func givenEmptyHistoryStore(t *testing.T, options ...sqliteengine.Option) sqliteengine.HistoryStore {
	t.Helper()

	ctx := context.Background()

	db, err := sqliteengine.OpenDB(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close() // makes no sense to handle this
	})

	history, err := sqliteengine.NewHistoryStoreFromSQLDB(db, options...)
	require.NoError(t, err)
	require.NoError(t, history.EnsureSchema(ctx))

	return history
}

func Test_HistoryStore_Contract(t *testing.T) {
	historystoretest.RunContractTests(t, func(t *testing.T) historystoretest.Subject {
		return givenEmptyHistoryStore(t)
	})
}

func Test_HistoryStore_Contract_With_CustomTableAndColumns(t *testing.T) {
	historystoretest.RunContractTests(t, func(t *testing.T) historystoretest.Subject {
		return givenEmptyHistoryStore(
			t,
			sqliteengine.WithTableName("task history"),
			sqliteengine.WithIDColumn("history_id"),
			sqliteengine.WithEntityRefColumn("task_id"),
			sqliteengine.WithOperationColumn("op"),
			sqliteengine.WithFieldsColumn("snapshot"),
			sqliteengine.WithValidFromColumn("from_ts"),
			sqliteengine.WithValidUntilColumn("until_ts"),
		)
	})
}

func Test_HistoryStore_Contract_With_SQLX(t *testing.T) {
	historystoretest.RunContractTests(t, func(t *testing.T) historystoretest.Subject {
		ctx := context.Background()

		db, err := sqliteengine.OpenDB(ctx, filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = db.Close() // makes no sense to handle this
		})

		history, err := sqliteengine.NewHistoryStoreFromSQLX(sqlx.NewDb(db, sqliteengine.DriverName))
		require.NoError(t, err)
		require.NoError(t, history.EnsureSchema(ctx))

		return history
	})
}

func Test_HistoryStore_EnsureSchema_IsIdempotent(t *testing.T) {
	// setup
	ctx := context.Background()
	history := givenEmptyHistoryStore(t)

	// act
	err := history.EnsureSchema(ctx)

	// assert
	assert.NoError(t, err)
}

func Test_HistoryStore_Stores_Timestamps_As_UnixMicroseconds(t *testing.T) {
	// setup
	ctx := context.Background()
	history := givenEmptyHistoryStore(t)

	record, err := versionhistory.BuildHistoryRecord(
		"doc-1", versionhistory.Fields{}, versionhistory.OperationInsert, At(0), versionhistory.MaxValidUntil)
	require.NoError(t, err)

	// act
	require.NoError(t, history.InsertRecord(ctx, record))

	// assert
	rows, err := history.Executor(ctx).Query(ctx, "SELECT valid_from, valid_until FROM entity_history")
	require.NoError(t, err)
	defer func() {
		_ = rows.Close() // makes no sense to handle this
	}()

	require.True(t, rows.Next())

	var validFrom, validUntil int64
	require.NoError(t, rows.Scan(&validFrom, &validUntil))
	assert.Equal(t, At(0).UnixMicro(), validFrom)
	assert.Equal(t, versionhistory.MaxValidUntil.UnixMicro(), validUntil)
}

func Test_HistoryStore_When_TableIsMissing(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := testdoubles.NewLogHandlerSpy(false)
	metricsCollector := testdoubles.NewMetricsCollectorSpy(true)

	db, err := sqliteengine.OpenDB(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer func() {
		_ = db.Close() // makes no sense to handle this
	}()

	history, err := sqliteengine.NewHistoryStoreFromSQLDB(
		db,
		sqliteengine.WithLogger(slog.New(logHandler)),
		sqliteengine.WithMetrics(metricsCollector),
	)
	require.NoError(t, err)

	// act
	_, queryErr := history.QueryHistory(ctx, "doc-1")

	// assert
	assert.ErrorIs(t, queryErr, versionhistory.ErrQueryingRecordsFailed)
	assert.True(t, logHandler.HasErrorLog("database query execution failed"))
	assert.True(t, metricsCollector.HasCounterRecordForMetric("versionhistory_database_errors_total").
		WithOperation("query_history").WithErrorType("database").Assert())
	assert.True(t, metricsCollector.HasDurationRecordForMetric("versionhistory_query_duration_seconds").
		WithOperation("query_history").WithStatus("error").Assert())
}

type requestIDKey struct{}

func Test_HistoryStore_Observability_With_ContextualLogger(t *testing.T) {
	// setup
	ctx := context.WithValue(context.Background(), requestIDKey{}, "req-1")
	contextualLogger := testdoubles.NewContextualLoggerSpy(true)
	history := givenEmptyHistoryStore(t, sqliteengine.WithContextualLogger(contextualLogger))

	record, err := versionhistory.BuildHistoryRecord(
		"doc-1", versionhistory.Fields{"title": "A"}, versionhistory.OperationInsert, At(0), versionhistory.MaxValidUntil)
	require.NoError(t, err)

	// act
	require.NoError(t, history.InsertRecord(ctx, record))
	_, queryErr := history.QueryHistory(ctx, "doc-1")

	// assert
	require.NoError(t, queryErr)
	assert.True(t, contextualLogger.HasDebugLog("executed sql for: insert_record"))
	assert.True(t, contextualLogger.HasInfoLog("history store operation: history record inserted"))
	assert.True(t, contextualLogger.HasInfoLogWithContext("history store operation: records queried for: query_history", requestIDKey{}, "req-1"))
}

func Test_NewHistoryStore_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	_, sqlErr := sqliteengine.NewHistoryStoreFromSQLDB(nil)
	_, sqlxErr := sqliteengine.NewHistoryStoreFromSQLX(nil)

	assert.ErrorIs(t, sqlErr, versionhistory.ErrNilDatabaseConnection)
	assert.ErrorIs(t, sqlxErr, versionhistory.ErrNilDatabaseConnection)
}

func Test_NewHistoryStore_ShouldFail_WithEmptyTableName(t *testing.T) {
	db, err := sqliteengine.OpenDB(context.Background(), ":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close() // makes no sense to handle this
	}()

	_, createErr := sqliteengine.NewHistoryStoreFromSQLDB(db, sqliteengine.WithTableName(""))

	assert.ErrorIs(t, createErr, versionhistory.ErrEmptyTableName)
}
