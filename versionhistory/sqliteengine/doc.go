// Package sqliteengine provides a SQLite implementation of the versionhistory.HistoryStore interface,
// on the pure Go modernc.org/sqlite driver.
//
// It stores the same records as the postgresengine: validity timestamps are INTEGER unix
// microseconds, field snapshots are TEXT JSON. EnsureSchema creates the history table.
//
// Usage:
//
//	db, _ := sqliteengine.OpenDB(ctx, "file:history.db")
//	history, _ := sqliteengine.NewHistoryStoreFromSQLDB(db)
//	_ = history.EnsureSchema(ctx)
package sqliteengine
