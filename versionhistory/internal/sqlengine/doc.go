// Package sqlengine implements versionhistory.HistoryStore on top of the database adapters.
//
// The statements are built with goqu for the dialect of the embedding engine (postgresengine,
// sqliteengine); a Dialect supplies the dialect name and the encoding of timestamps. Fields are
// stored as JSON encoded with json-iterator.
//
// Statements run in the transaction bound to the context by InTransaction, so history writes
// and host entity writes issued through Executor commit or roll back together.
package sqlengine
