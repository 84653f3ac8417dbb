package postgresengine_test

import (
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/versionhistory-go/testutil/postgresengine/config"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/postgresengine"
)

// givenLazySQLDB opens a sql.DB without connecting, enough to exercise the constructors.
func givenLazySQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", config.PostgresTestDSN())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close() // makes no sense to handle this
	})

	return db
}

func Test_FactoryFunctions_NewHistoryStore_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (postgresengine.HistoryStore, error)
	}{
		{
			name: "NewHistoryStoreFromPGXPool with nil",
			factoryFunc: func() (postgresengine.HistoryStore, error) {
				return postgresengine.NewHistoryStoreFromPGXPool(nil)
			},
		},
		{
			name: "NewHistoryStoreFromPGXPoolAndReplica with nil",
			factoryFunc: func() (postgresengine.HistoryStore, error) {
				return postgresengine.NewHistoryStoreFromPGXPoolAndReplica(nil, nil)
			},
		},
		{
			name: "NewHistoryStoreFromSQLDB with nil",
			factoryFunc: func() (postgresengine.HistoryStore, error) {
				return postgresengine.NewHistoryStoreFromSQLDB(nil)
			},
		},
		{
			name: "NewHistoryStoreFromSQLDBAndReplica with nil replica",
			factoryFunc: func() (postgresengine.HistoryStore, error) {
				return postgresengine.NewHistoryStoreFromSQLDBAndReplica(givenLazySQLDB(t), nil)
			},
		},
		{
			name: "NewHistoryStoreFromSQLX with nil",
			factoryFunc: func() (postgresengine.HistoryStore, error) {
				return postgresengine.NewHistoryStoreFromSQLX(nil)
			},
		},
		{
			name: "NewHistoryStoreFromSQLXAndReplica with nil",
			factoryFunc: func() (postgresengine.HistoryStore, error) {
				return postgresengine.NewHistoryStoreFromSQLXAndReplica(nil, nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.factoryFunc()
			assert.ErrorIs(t, err, versionhistory.ErrNilDatabaseConnection)
		})
	}
}

func Test_FactoryFunctions_NewHistoryStore_ShouldFail_WithInvalidOptions(t *testing.T) {
	testCases := []struct {
		name        string
		option      postgresengine.Option
		expectedErr error
	}{
		{"empty table name", postgresengine.WithTableName(""), versionhistory.ErrEmptyTableName},
		{"empty id column", postgresengine.WithIDColumn(""), versionhistory.ErrEmptyColumnName},
		{"empty entity ref column", postgresengine.WithEntityRefColumn(""), versionhistory.ErrEmptyColumnName},
		{"empty operation column", postgresengine.WithOperationColumn(""), versionhistory.ErrEmptyColumnName},
		{"empty fields column", postgresengine.WithFieldsColumn(""), versionhistory.ErrEmptyColumnName},
		{"empty valid from column", postgresengine.WithValidFromColumn(""), versionhistory.ErrEmptyColumnName},
		{"empty valid until column", postgresengine.WithValidUntilColumn(""), versionhistory.ErrEmptyColumnName},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := postgresengine.NewHistoryStoreFromSQLDB(givenLazySQLDB(t), tc.option)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func Test_FactoryFunctions_NewHistoryStore_AppliesTableAndColumnOptions(t *testing.T) {
	// arrange
	db := sqlx.NewDb(givenLazySQLDB(t), "postgres")

	// act
	history, err := postgresengine.NewHistoryStoreFromSQLX(
		db,
		postgresengine.WithTableName("task_history"),
		postgresengine.WithEntityRefColumn("task_id"),
		postgresengine.WithFieldsColumn("snapshot"),
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "task_history", history.TableName())
	assert.Equal(t, "task_id", history.Columns().EntityRef)
	assert.Equal(t, "snapshot", history.Columns().Fields)
	assert.Equal(t, "valid_until", history.Columns().ValidUntil)
}
