package adapters

import (
	"context"
)

type txContextKey struct{}

type boundTx struct {
	owner DBAdapter
	tx    DBTx
}

// ContextWithTx binds tx, begun on owner, to the returned context.
func ContextWithTx(ctx context.Context, owner DBAdapter, tx DBTx) context.Context {
	return context.WithValue(ctx, txContextKey{}, boundTx{owner: owner, tx: tx})
}

// TxFromContext returns the transaction bound to ctx if it was begun on owner.
func TxFromContext(ctx context.Context, owner DBAdapter) (DBTx, bool) {
	bound, ok := ctx.Value(txContextKey{}).(boundTx)
	if !ok || bound.owner != owner {
		return nil, false
	}

	return bound.tx, true
}

// ExecutorFor returns the transaction bound to ctx for db, or db itself.
func ExecutorFor(ctx context.Context, db DBAdapter) Executor {
	if tx, ok := TxFromContext(ctx, db); ok {
		return tx
	}

	return db
}
