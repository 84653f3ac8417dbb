// Package cli implements the historyctl commands.
//
// historyctl manages the example task list of the tasks package and reads the version history of
// its tasks. Configuration comes from flags, HISTORYCTL_ environment variables (HISTORYCTL_SQLITE_PATH
// for sqlite.path) and an optional historyctl.yaml, in this order of precedence.
package cli
