// Package adapters provide database adapter implementations for the history store engines.
//
// This package implements the adapter pattern to support pgx.Pool, sql.DB, and sqlx.DB behind
// one DBAdapter interface. Each adapter can begin transactions; a running transaction is bound
// to a context with ContextWithTx, and ExecutorFor routes statements issued with that context
// into the transaction.
package adapters
