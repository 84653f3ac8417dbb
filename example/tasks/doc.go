// Package tasks is an example host application of versionhistory: a small task list whose rows live
// in a "tasks" table and whose every change is recorded in the history table of a history engine.
//
// TaskStore is the EntityStore of the example. It issues all statements through the Executor of the
// history engine, so task writes and history writes of one Save share a transaction:
//
//	history, _ := sqliteengine.NewHistoryStoreFromSQLDB(db)
//	taskStore, _ := tasks.NewTaskStore(history, tasks.DialectSQLite)
//	taskHistory, _ := tasks.NewTaskHistory(taskStore, history)
//
//	task, _ := taskHistory.Save(ctx, tasks.NewTask("write docs", "", time.Now()))
package tasks
