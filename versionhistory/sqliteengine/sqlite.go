package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect import
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/internal/adapters"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/internal/sqlengine"
)

const (
	// DriverName is the database/sql driver name registered by modernc.org/sqlite.
	DriverName = "sqlite"

	dialectSQLite   = "sqlite3"
	busyTimeoutMS   = "5000"
	maxOpenConns    = 1
	identifierQuote = `"`
)

type (
	// Executor runs SQL statements, inside the history transaction if the context carries one.
	Executor = adapters.Executor

	// Rows are the rows returned by Executor.Query.
	Rows = adapters.DBRows

	// Result is the result returned by Executor.Exec.
	Result = adapters.DBResult
)

var sqliteDialect = sqlengine.Dialect{
	Name: dialectSQLite,
	TimeValue: func(t time.Time) any {
		return t.UnixMicro()
	},
	ParseTime: sqlengine.ParseUnixMicro,
	FieldsValue: func(encoded string) any {
		return encoded
	},
}

// HistoryStore is a versionhistory.HistoryStore and versionhistory.Transactor on SQLite.
type HistoryStore struct {
	*sqlengine.Store
}

var (
	_ versionhistory.HistoryStore = HistoryStore{}
	_ versionhistory.Transactor   = HistoryStore{}
)

// OpenDB opens a SQLite database for the history store.
//
// SQLite allows a single writer, so the pool is limited to one connection; this also keeps
// a ":memory:" database alive for the lifetime of the pool. All statements of a transaction must
// therefore be issued through HistoryStore.Executor with the transaction's context.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpenConns)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = " + busyTimeoutMS,
		"PRAGMA journal_mode = WAL",
	} {
		if _, pragmaErr := db.ExecContext(ctx, pragma); pragmaErr != nil {
			_ = db.Close() // makes no sense to handle this
			return nil, pragmaErr
		}
	}

	return db, nil
}

// NewHistoryStoreFromSQLDB creates a new HistoryStore using a sql.DB with optional configuration.
func NewHistoryStoreFromSQLDB(db *sql.DB, options ...Option) (HistoryStore, error) {
	if db == nil {
		return HistoryStore{}, versionhistory.ErrNilDatabaseConnection
	}

	return newHistoryStore(adapters.NewSQLAdapter(db), options...)
}

// NewHistoryStoreFromSQLX creates a new HistoryStore using a sqlx.DB with optional configuration.
func NewHistoryStoreFromSQLX(db *sqlx.DB, options ...Option) (HistoryStore, error) {
	if db == nil {
		return HistoryStore{}, versionhistory.ErrNilDatabaseConnection
	}

	return newHistoryStore(adapters.NewSQLXAdapter(db), options...)
}

func newHistoryStore(db adapters.DBAdapter, options ...Option) (HistoryStore, error) {
	store, err := sqlengine.NewStore(db, sqliteDialect, options...)
	if err != nil {
		return HistoryStore{}, err
	}

	return HistoryStore{Store: store}, nil
}

// EnsureSchema creates the history table and its indexes if they do not exist yet.
func (h HistoryStore) EnsureSchema(ctx context.Context) error {
	for _, statement := range h.schemaStatements() {
		if _, err := h.Executor(ctx).Exec(ctx, statement); err != nil {
			return errors.Join(versionhistory.ErrMigratingSchemaFailed, err)
		}
	}

	return nil
}

func (h HistoryStore) schemaStatements() []string {
	table := h.TableName()
	columns := h.Columns()

	return []string{
		"CREATE TABLE IF NOT EXISTS " + quoteIdentifier(table) + " (" +
			quoteIdentifier(columns.ID) + " INTEGER PRIMARY KEY AUTOINCREMENT, " +
			quoteIdentifier(columns.EntityRef) + " TEXT NULL, " +
			quoteIdentifier(columns.Operation) + " TEXT NOT NULL, " +
			quoteIdentifier(columns.Fields) + " TEXT NOT NULL DEFAULT '{}', " +
			quoteIdentifier(columns.ValidFrom) + " INTEGER NOT NULL, " +
			quoteIdentifier(columns.ValidUntil) + " INTEGER NOT NULL)",
		"CREATE INDEX IF NOT EXISTS " + quoteIdentifier(table+"_ref_valid_until_idx") + " ON " +
			quoteIdentifier(table) + " (" + quoteIdentifier(columns.EntityRef) + ", " + quoteIdentifier(columns.ValidUntil) + ")",
		"CREATE INDEX IF NOT EXISTS " + quoteIdentifier(table+"_ref_valid_from_idx") + " ON " +
			quoteIdentifier(table) + " (" + quoteIdentifier(columns.EntityRef) + ", " + quoteIdentifier(columns.ValidFrom) + ")",
	}
}

func quoteIdentifier(name string) string {
	return identifierQuote + strings.ReplaceAll(name, identifierQuote, identifierQuote+identifierQuote) + identifierQuote
}
