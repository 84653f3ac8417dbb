// Package versionhistory provides automatic, append-only version history for mutable records.
//
// Whenever a record is created or changed through a VersionedStore, a snapshot of its fields
// is recorded as a HistoryRecord with a validity interval [ValidFrom, ValidUntil), and the
// previously open interval of the same entity is closed. Deleting the entity seals its timeline:
// the open interval is closed and no new one is opened.
//
// This package defines the core types and interfaces used across the history store engines:
//   - Operation: classification of a save (insert, update, no change)
//   - HistoryRecord: one immutable version of an entity
//   - Fields and FieldSnapshotter: the comparable field snapshot of an entity
//   - EntityStore and HistoryStore: the persistence collaborators
//   - VersionedStore: the interceptor that keeps the timeline consistent
//
// Common usage pattern:
//
//	history, _ := postgresengine.NewHistoryStoreFromPGXPool(pool)
//	snapshotter, _ := versionhistory.NewStructSnapshotter[*Task]("id")
//	store, _ := versionhistory.NewVersionedStore[*Task](
//		taskStore,
//		history,
//		snapshotter,
//		versionhistory.WithAsOfField("updated_at"),
//		versionhistory.WithTransactor(history),
//	)
//
//	task, err := store.Save(ctx, task)   // Insert: opens the first interval
//	task.Title = "changed"
//	task, err = store.Save(ctx, task)    // Update: closes the old interval, opens a new one
//	err = store.Delete(ctx, task)        // seals the timeline, then removes the task
//
//	records, err := store.History(ctx, task.ID.String())
//
// The engine does not arbitrate concurrent writers of the same entity. The host must serialize
// saves and deletions per entity, typically by running each of them inside one transaction
// (see Transactor).
package versionhistory
