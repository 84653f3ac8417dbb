package postgresengine

import (
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/internal/adapters"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/internal/sqlengine"
)

const (
	dialectPostgres = "postgres"
	castJsonb       = "?::jsonb"
)

type (
	// Executor runs SQL statements, inside the history transaction if the context carries one.
	Executor = adapters.Executor

	// Rows are the rows returned by Executor.Query.
	Rows = adapters.DBRows

	// Result is the result returned by Executor.Exec.
	Result = adapters.DBResult
)

var postgresDialect = sqlengine.Dialect{
	Name: dialectPostgres,
	TimeValue: func(t time.Time) any {
		return t
	},
	ParseTime: sqlengine.ParseTimestamp,
	FieldsValue: func(encoded string) any {
		return goqu.L(castJsonb, encoded)
	},
	LockOpenIntervals: true,
}

// HistoryStore is a versionhistory.HistoryStore and versionhistory.Transactor on PostgreSQL.
type HistoryStore struct {
	*sqlengine.Store
}

var (
	_ versionhistory.HistoryStore = HistoryStore{}
	_ versionhistory.Transactor   = HistoryStore{}
)

// NewHistoryStoreFromPGXPool creates a new HistoryStore using a pgx Pool with optional configuration.
func NewHistoryStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (HistoryStore, error) {
	if db == nil {
		return HistoryStore{}, versionhistory.ErrNilDatabaseConnection
	}

	return newHistoryStore(adapters.NewPGXAdapter(db), options...)
}

// NewHistoryStoreFromPGXPoolAndReplica creates a new HistoryStore using a pgx Pool for the primary
// and one for the replica. Timeline reads under versionhistory.EventualConsistency go to the replica.
func NewHistoryStoreFromPGXPoolAndReplica(
	db *pgxpool.Pool,
	replica *pgxpool.Pool,
	options ...Option,
) (HistoryStore, error) {

	if db == nil || replica == nil {
		return HistoryStore{}, versionhistory.ErrNilDatabaseConnection
	}

	return newHistoryStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewHistoryStoreFromSQLDB creates a new HistoryStore using a sql.DB with optional configuration.
func NewHistoryStoreFromSQLDB(db *sql.DB, options ...Option) (HistoryStore, error) {
	if db == nil {
		return HistoryStore{}, versionhistory.ErrNilDatabaseConnection
	}

	return newHistoryStore(adapters.NewSQLAdapter(db), options...)
}

// NewHistoryStoreFromSQLDBAndReplica creates a new HistoryStore using a sql.DB for the primary and one for the replica.
func NewHistoryStoreFromSQLDBAndReplica(db *sql.DB, replica *sql.DB, options ...Option) (HistoryStore, error) {
	if db == nil || replica == nil {
		return HistoryStore{}, versionhistory.ErrNilDatabaseConnection
	}

	return newHistoryStore(adapters.NewSQLAdapterWithReplica(db, replica), options...)
}

// NewHistoryStoreFromSQLX creates a new HistoryStore using a sqlx.DB with optional configuration.
func NewHistoryStoreFromSQLX(db *sqlx.DB, options ...Option) (HistoryStore, error) {
	if db == nil {
		return HistoryStore{}, versionhistory.ErrNilDatabaseConnection
	}

	return newHistoryStore(adapters.NewSQLXAdapter(db), options...)
}

// NewHistoryStoreFromSQLXAndReplica creates a new HistoryStore using a sqlx.DB for the primary and one for the replica.
func NewHistoryStoreFromSQLXAndReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (HistoryStore, error) {
	if db == nil || replica == nil {
		return HistoryStore{}, versionhistory.ErrNilDatabaseConnection
	}

	return newHistoryStore(adapters.NewSQLXAdapterWithReplica(db, replica), options...)
}

func newHistoryStore(db adapters.DBAdapter, options ...Option) (HistoryStore, error) {
	store, err := sqlengine.NewStore(db, postgresDialect, options...)
	if err != nil {
		return HistoryStore{}, err
	}

	return HistoryStore{Store: store}, nil
}
