package adapters

import (
	"context"
)

// Executor runs SQL statements. DBAdapter and DBTx both implement it.
type Executor interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBAdapter defines the interface for database operations needed by the history store engines.
type DBAdapter interface {
	Executor

	// QueryReplica executes a read on the replica if one is configured, on the primary otherwise.
	QueryReplica(ctx context.Context, query string) (DBRows, error)

	BeginTx(ctx context.Context) (DBTx, error)
}

// DBTx is a running database transaction.
type DBTx interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
