// Package memstore provides in-memory implementations of the versionhistory store interfaces for tests:
// a generic EntityStore, a HistoryStore, and a Transactor that rolls both back on failure.
//
// All stores can be told to fail the next calls of an operation, to exercise error paths.
// They are safe for concurrent use, but a Transactor rollback restores the state captured at the start of
// its transaction, so concurrent transactions on the same stores are not isolated from each other.
package memstore
