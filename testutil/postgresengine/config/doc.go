// Package config provides PostgreSQL database configuration for history store testing.
//
// This package contains factory functions for creating database connections
// using the supported PostgreSQL adapters (pgx.Pool, sql.DB, sqlx.DB).
// The test DSN is read from POSTGRES_TEST_DSN and falls back to a local database.
package config
