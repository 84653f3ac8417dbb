package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/versionhistory-go/testutil/postgresengine/config"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/postgresengine"
)

// Engine type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

const connectTimeout = 3 * time.Second

// Wrapper interface to abstract over different engine types
type Wrapper interface {
	GetHistoryStore() postgresengine.HistoryStore
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool    *pgxpool.Pool
	history postgresengine.HistoryStore
}

func (e *PGXPoolWrapper) GetHistoryStore() postgresengine.HistoryStore {
	return e.history
}

func (e *PGXPoolWrapper) Close() {
	e.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db      *sql.DB
	history postgresengine.HistoryStore
}

func (e *SQLDBWrapper) GetHistoryStore() postgresengine.HistoryStore {
	return e.history
}

func (e *SQLDBWrapper) Close() {
	_ = e.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db      *sqlx.DB
	history postgresengine.HistoryStore
}

func (e *SQLXWrapper) GetHistoryStore() postgresengine.HistoryStore {
	return e.history
}

func (e *SQLXWrapper) Close() {
	_ = e.db.Close() // ignore error
}

// CreateWrapperWithTestConfig migrates the test database and creates the wrapper selected by ADAPTER_TYPE.
// It skips the test if the database can not be reached.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := postgresengine.Migrate(ctx, config.PostgresTestDSN()); err != nil {
		t.Skipf("postgres test database not reachable: %v", err)
	}

	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch engineTypeFromEnv {
	case typePGXPool, "":
		poolConfig, err := config.PostgresPGXPoolTestConfig()
		require.NoError(t, err, "error parsing the pgx pool config in test setup")

		connPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			t.Skipf("postgres test database not reachable: %v", err)
		}

		history, err := postgresengine.NewHistoryStoreFromPGXPool(connPool, options...)
		require.NoError(t, err, "error creating history store")

		return &PGXPoolWrapper{pool: connPool, history: history}

	case typeSQLDB:
		db, err := config.PostgresSQLDBTestConfig(ctx)
		if err != nil {
			t.Skipf("postgres test database not reachable: %v", err)
		}

		history, err := postgresengine.NewHistoryStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating history store")

		return &SQLDBWrapper{db: db, history: history}

	case typeSQLXDB:
		db, err := config.PostgresSQLXTestConfig(ctx)
		if err != nil {
			t.Skipf("postgres test database not reachable: %v", err)
		}

		history, err := postgresengine.NewHistoryStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating history store")

		return &SQLXWrapper{db: db, history: history}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

// CleanUp empties the history table of the given wrapper.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	history := wrapper.GetHistoryStore()
	ctx := context.Background()

	_, err := history.Executor(ctx).Exec(ctx, "TRUNCATE TABLE "+history.TableName()+" RESTART IDENTITY")
	require.NoError(t, err, "error cleaning up the history table")
}
