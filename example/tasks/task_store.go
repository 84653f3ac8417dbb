package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect import
	"github.com/google/uuid"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/postgresengine"
)

const (
	// DialectPostgres selects PostgreSQL column types and timestamptz timestamps.
	DialectPostgres = "postgres"

	// DialectSQLite selects SQLite column types and unix microsecond timestamps.
	DialectSQLite = "sqlite3"

	defaultTableName = "tasks"

	colID          = "id"
	colTitle       = "title"
	colDescription = "description"
	colCreatedAt   = "created_at"
	colUpdatedAt   = "updated_at"
)

var (
	ErrNilExecutorProvider  = errors.New("executor provider must not be nil")
	ErrUnsupportedDialect   = errors.New("unsupported sql dialect")
	ErrEmptyTableName       = errors.New("table name must not be empty")
	ErrLoadingTaskFailed    = errors.New("loading task failed")
	ErrPersistingTaskFailed = errors.New("persisting task failed")
	ErrRemovingTaskFailed   = errors.New("removing task failed")
	ErrCreatingSchemaFailed = errors.New("creating tasks schema failed")
	ErrInvalidTimestamp     = errors.New("invalid timestamp value")
)

// ExecutorProvider hands out the executor for ctx, bound to the transaction ctx carries.
// postgresengine.HistoryStore and sqliteengine.HistoryStore implement it.
type ExecutorProvider interface {
	Executor(ctx context.Context) postgresengine.Executor
}

// StoreOption defines a functional option for configuring a TaskStore.
type StoreOption func(*TaskStore) error

// WithTableName sets the tasks table name, "tasks" by default.
func WithTableName(tableName string) StoreOption {
	return func(s *TaskStore) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		s.tableName = tableName

		return nil
	}
}

// WithIDGenerator replaces the UUIDv7 generator for new task IDs.
func WithIDGenerator(generate func() (string, error)) StoreOption {
	return func(s *TaskStore) error {
		s.newID = generate

		return nil
	}
}

// TaskStore is the versionhistory.EntityStore for Tasks.
type TaskStore struct {
	executors ExecutorProvider
	dialect   string
	tableName string
	newID     func() (string, error)
}

var _ versionhistory.EntityStore[*Task] = TaskStore{}

// NewTaskStore creates a TaskStore running its SQL in the given dialect through executors.
func NewTaskStore(executors ExecutorProvider, dialect string, options ...StoreOption) (TaskStore, error) {
	if executors == nil {
		return TaskStore{}, ErrNilExecutorProvider
	}

	if dialect != DialectPostgres && dialect != DialectSQLite {
		return TaskStore{}, errors.Join(ErrUnsupportedDialect, fmt.Errorf("dialect %q", dialect))
	}

	store := TaskStore{
		executors: executors,
		dialect:   dialect,
		tableName: defaultTableName,
		newID:     newUUIDv7,
	}

	for _, option := range options {
		if err := option(&store); err != nil {
			return TaskStore{}, err
		}
	}

	return store, nil
}

// EnsureSchema creates the tasks table if it does not exist.
func (s TaskStore) EnsureSchema(ctx context.Context) error {
	timeType := "TIMESTAMPTZ"
	if s.dialect == DialectSQLite {
		timeType = "INTEGER"
	}

	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %q (
			%s TEXT PRIMARY KEY,
			%s TEXT NOT NULL,
			%s TEXT NOT NULL DEFAULT '',
			%s %s NOT NULL,
			%s %s NOT NULL
		)`,
		s.tableName,
		colID,
		colTitle,
		colDescription,
		colCreatedAt, timeType,
		colUpdatedAt, timeType,
	)

	if _, err := s.executors.Executor(ctx).Exec(ctx, ddl); err != nil {
		return errors.Join(ErrCreatingSchemaFailed, err)
	}

	return nil
}

// Load returns the task with the given ID, or versionhistory.ErrEntityNotFound.
func (s TaskStore) Load(ctx context.Context, id string) (*Task, error) {
	sqlQuery, _, err := goqu.Dialect(s.dialect).
		From(s.tableName).
		Select(colID, colTitle, colDescription, colCreatedAt, colUpdatedAt).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrLoadingTaskFailed, err)
	}

	rows, err := s.executors.Executor(ctx).Query(ctx, sqlQuery)
	if err != nil {
		return nil, errors.Join(ErrLoadingTaskFailed, err)
	}
	defer func() {
		_ = rows.Close() // nothing sensible to do with this error
	}()

	if !rows.Next() {
		if rowsErr := rows.Err(); rowsErr != nil {
			return nil, errors.Join(ErrLoadingTaskFailed, rowsErr)
		}

		return nil, versionhistory.ErrEntityNotFound
	}

	var (
		task                 Task
		createdAt, updatedAt any
	)

	if scanErr := rows.Scan(&task.ID, &task.Title, &task.Description, &createdAt, &updatedAt); scanErr != nil {
		return nil, errors.Join(ErrLoadingTaskFailed, scanErr)
	}

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, errors.Join(ErrLoadingTaskFailed, err)
	}

	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, errors.Join(ErrLoadingTaskFailed, err)
	}

	return &task, nil
}

// Persist inserts a task without ID under a new UUIDv7 and updates an existing one.
// A task with an ID that is not stored yet is inserted under that ID.
// Timestamps are stored in UTC with microsecond precision; the returned task carries them the same way.
func (s TaskStore) Persist(ctx context.Context, task *Task) (*Task, error) {
	if task == nil {
		return nil, errors.Join(ErrPersistingTaskFailed, errors.New("task must not be nil"))
	}

	persisted := *task
	persisted.CreatedAt = versionhistory.NormalizeTimestamp(task.CreatedAt)
	persisted.UpdatedAt = versionhistory.NormalizeTimestamp(task.UpdatedAt)

	if persisted.ID == "" {
		id, err := s.newID()
		if err != nil {
			return nil, errors.Join(ErrPersistingTaskFailed, err)
		}

		persisted.ID = id

		return &persisted, s.insert(ctx, persisted)
	}

	updated, err := s.update(ctx, persisted)
	if err != nil {
		return nil, err
	}

	if !updated {
		return &persisted, s.insert(ctx, persisted)
	}

	return &persisted, nil
}

// Remove deletes the task row. Removing a task that is not stored is not an error.
func (s TaskStore) Remove(ctx context.Context, task *Task) error {
	if task == nil || task.ID == "" {
		return nil
	}

	sqlQuery, _, err := goqu.Dialect(s.dialect).
		Delete(s.tableName).
		Where(goqu.C(colID).Eq(task.ID)).
		ToSQL()
	if err != nil {
		return errors.Join(ErrRemovingTaskFailed, err)
	}

	if _, err = s.executors.Executor(ctx).Exec(ctx, sqlQuery); err != nil {
		return errors.Join(ErrRemovingTaskFailed, err)
	}

	return nil
}

func (s TaskStore) insert(ctx context.Context, task Task) error {
	sqlQuery, _, err := goqu.Dialect(s.dialect).
		Insert(s.tableName).
		Rows(goqu.Record{
			colID:          task.ID,
			colTitle:       task.Title,
			colDescription: task.Description,
			colCreatedAt:   s.timeValue(task.CreatedAt),
			colUpdatedAt:   s.timeValue(task.UpdatedAt),
		}).
		ToSQL()
	if err != nil {
		return errors.Join(ErrPersistingTaskFailed, err)
	}

	if _, err = s.executors.Executor(ctx).Exec(ctx, sqlQuery); err != nil {
		return errors.Join(ErrPersistingTaskFailed, err)
	}

	return nil
}

func (s TaskStore) update(ctx context.Context, task Task) (bool, error) {
	sqlQuery, _, err := goqu.Dialect(s.dialect).
		Update(s.tableName).
		Set(goqu.Record{
			colTitle:       task.Title,
			colDescription: task.Description,
			colCreatedAt:   s.timeValue(task.CreatedAt),
			colUpdatedAt:   s.timeValue(task.UpdatedAt),
		}).
		Where(goqu.C(colID).Eq(task.ID)).
		ToSQL()
	if err != nil {
		return false, errors.Join(ErrPersistingTaskFailed, err)
	}

	result, err := s.executors.Executor(ctx).Exec(ctx, sqlQuery)
	if err != nil {
		return false, errors.Join(ErrPersistingTaskFailed, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Join(ErrPersistingTaskFailed, err)
	}

	return rowsAffected > 0, nil
}

func (s TaskStore) timeValue(t time.Time) any {
	if s.dialect == DialectSQLite {
		return t.UnixMicro()
	}

	return t
}

func parseTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return versionhistory.NormalizeTimestamp(v), nil
	case int64:
		return time.UnixMicro(v).UTC(), nil
	default:
		return time.Time{}, errors.Join(ErrInvalidTimestamp, fmt.Errorf("type %T", value))
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}
