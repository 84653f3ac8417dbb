// Package postgreswrapper provides test utilities for abstracting over different PostgreSQL database adapters.
//
// This package runs the history store tests across multiple database drivers (pgx, sql.DB, sqlx.DB)
// using a common Wrapper interface. The adapter type is determined by the ADAPTER_TYPE environment
// variable. Tests are skipped when the test database is not reachable.
//
// Usage:
//
//	wrapper := CreateWrapperWithTestConfig(t)
//	defer wrapper.Close()
//
//	// Clean up between tests
//	CleanUp(t, wrapper)
//
//	history := wrapper.GetHistoryStore()
package postgreswrapper
