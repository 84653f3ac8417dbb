package postgresengine

import (
	"context"
	"embed"
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5 scheme
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

const (
	migrationsDir    = "migrations"
	migrateScheme    = "pgx5://"
	sourceDriverName = "iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies the embedded schema migrations to the database at dsn.
// Migrations that were already applied are skipped. Cancelling ctx stops after the running migration.
func Migrate(ctx context.Context, dsn string) error {
	source, sourceErr := iofs.New(migrationFiles, migrationsDir)
	if sourceErr != nil {
		return errors.Join(versionhistory.ErrMigratingSchemaFailed, sourceErr)
	}

	migrator, newErr := migrate.NewWithSourceInstance(sourceDriverName, source, migrateDSN(dsn))
	if newErr != nil {
		return errors.Join(versionhistory.ErrMigratingSchemaFailed, newErr)
	}
	defer func() {
		_, _ = migrator.Close() // makes no sense to handle this
	}()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			migrator.GracefulStop <- true
		case <-done:
		}
	}()

	if upErr := migrator.Up(); upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return errors.Join(versionhistory.ErrMigratingSchemaFailed, upErr)
	}

	return ctx.Err()
}

// migrateDSN rewrites a postgres:// DSN to the scheme of the pgx/v5 migrate driver.
func migrateDSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(dsn, prefix); found {
			return migrateScheme + rest
		}
	}

	return dsn
}
