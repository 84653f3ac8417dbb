package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver for sql.DB and sqlx.DB

	"github.com/AntonStoeckl/versionhistory-go/example/tasks"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/postgresengine"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/sqliteengine"
)

const postgresDriverName = "postgres"

var (
	ErrOpeningBackendFailed  = errors.New("opening backend failed")
	ErrCustomTableNotMigrate = errors.New("postgres migrations only create the default history table")
)

type historyEngine interface {
	tasks.HistoryEngine
	tasks.ExecutorProvider
}

// backend bundles the stores of one configured database.
type backend struct {
	taskStore   tasks.TaskStore
	taskHistory *versionhistory.VersionedStore[*tasks.Task]
	migrate     func(ctx context.Context) error
	close       func()
}

func openBackend(ctx context.Context, cfg Config, deps Dependencies, logger *slog.Logger) (*backend, error) {
	var (
		history historyEngine
		dialect string
		migrate func(ctx context.Context) error
		closeDB func()
	)

	switch cfg.Backend {
	case backendSQLite:
		db, err := sqliteengine.OpenDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, errors.Join(ErrOpeningBackendFailed, err)
		}

		sqliteHistory, err := sqliteengine.NewHistoryStoreFromSQLDB(
			db,
			sqliteengine.WithTableName(cfg.HistoryTable),
			sqliteengine.WithLogger(logger),
		)
		if err != nil {
			_ = db.Close()
			return nil, errors.Join(ErrOpeningBackendFailed, err)
		}

		history, dialect, migrate = sqliteHistory, tasks.DialectSQLite, sqliteHistory.EnsureSchema
		closeDB = func() { _ = db.Close() }

	case backendPostgres:
		postgresHistory, closePostgres, err := openPostgresHistory(ctx, cfg, logger)
		if err != nil {
			return nil, errors.Join(ErrOpeningBackendFailed, err)
		}

		history, dialect, closeDB = postgresHistory, tasks.DialectPostgres, closePostgres
		migrate = func(ctx context.Context) error {
			if cfg.HistoryTable != defaultHistory {
				return errors.Join(ErrCustomTableNotMigrate, fmt.Errorf("table %q", cfg.HistoryTable))
			}

			return postgresengine.Migrate(ctx, cfg.PostgresDSN)
		}

	default:
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("unknown backend %q", cfg.Backend))
	}

	b, err := newBackend(history, dialect, deps, logger)
	if err != nil {
		closeDB()
		return nil, errors.Join(ErrOpeningBackendFailed, err)
	}

	b.migrate = func(ctx context.Context) error {
		if migrateErr := migrate(ctx); migrateErr != nil {
			return migrateErr
		}

		return b.taskStore.EnsureSchema(ctx)
	}
	b.close = closeDB

	return b, nil
}

func newBackend(history historyEngine, dialect string, deps Dependencies, logger *slog.Logger) (*backend, error) {
	var storeOptions []tasks.StoreOption
	if deps.NewID != nil {
		storeOptions = append(storeOptions, tasks.WithIDGenerator(deps.NewID))
	}

	taskStore, err := tasks.NewTaskStore(history, dialect, storeOptions...)
	if err != nil {
		return nil, err
	}

	taskHistory, err := tasks.NewTaskHistory(
		taskStore,
		history,
		versionhistory.WithClock(versionhistory.ClockFunc(deps.Now)),
		versionhistory.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &backend{taskStore: taskStore, taskHistory: taskHistory}, nil
}

func openPostgresHistory(
	ctx context.Context,
	cfg Config,
	logger *slog.Logger,
) (postgresengine.HistoryStore, func(), error) {

	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.HistoryTable),
		postgresengine.WithLogger(logger),
	}

	switch cfg.PostgresAdapter {
	case adapterSQLDB:
		db, err := sql.Open(postgresDriverName, cfg.PostgresDSN)
		if err != nil {
			return postgresengine.HistoryStore{}, nil, err
		}

		history, err := postgresengine.NewHistoryStoreFromSQLDB(db, options...)
		if err != nil {
			_ = db.Close()
			return postgresengine.HistoryStore{}, nil, err
		}

		return history, func() { _ = db.Close() }, nil

	case adapterSQLXDB:
		db, err := sqlx.Open(postgresDriverName, cfg.PostgresDSN)
		if err != nil {
			return postgresengine.HistoryStore{}, nil, err
		}

		history, err := postgresengine.NewHistoryStoreFromSQLX(db, options...)
		if err != nil {
			_ = db.Close()
			return postgresengine.HistoryStore{}, nil, err
		}

		return history, func() { _ = db.Close() }, nil

	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return postgresengine.HistoryStore{}, nil, err
		}

		history, err := postgresengine.NewHistoryStoreFromPGXPool(pool, options...)
		if err != nil {
			pool.Close()
			return postgresengine.HistoryStore{}, nil, err
		}

		return history, pool.Close, nil
	}
}
