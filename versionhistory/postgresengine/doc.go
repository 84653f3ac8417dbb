// Package postgresengine provides a PostgreSQL implementation of the versionhistory.HistoryStore interface.
//
// History records live in one table (entity_history by default) with jsonb field snapshots and
// timestamptz validity intervals. The store supports multiple database adapters (pgx, sql.DB, sqlx),
// runs open interval queries with SELECT ... FOR UPDATE inside a transaction, and reads timelines
// from a replica when the context asks for eventual consistency.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Transactor implementation joining history and entity writes in one transaction
//   - Configurable table and column names
//   - Embedded schema migrations applied with golang-migrate
//
// Usage examples:
//
//	db, _ := pgxpool.New(ctx, dsn)
//	_ = postgresengine.Migrate(ctx, dsn)
//
//	history, _ := postgresengine.NewHistoryStoreFromPGXPool(db, postgresengine.WithLogger(logger))
//
//	tasks, _ := versionhistory.NewVersionedStore[*Task](
//		taskStore,
//		history,
//		snapshotter,
//		versionhistory.WithTransactor(history),
//	)
//
// Host entity stores take part in the transaction by issuing their statements through
// history.Executor(ctx).
package postgresengine
