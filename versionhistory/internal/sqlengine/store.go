package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/internal/adapters"
)

const (
	defaultTableName = "entity_history"

	statementQueryOpenIntervals = "query_open_intervals"
	statementUpdateRecord       = "update_record"
	statementInsertRecord       = "insert_record"
	statementQueryHistory       = "query_history"
	statementQueryVersionAt     = "query_version_at"
	statementTransaction        = "transaction"
)

type sqlQueryString = string

// fieldsJSON keeps numbers as json.Number so decoded snapshots do not lose precision.
var fieldsJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Store is a versionhistory.HistoryStore on a SQL database.
type Store struct {
	db               adapters.DBAdapter
	dialect          Dialect
	tableName        string
	columns          Columns
	logger           versionhistory.Logger
	contextualLogger versionhistory.ContextualLogger
	metricsCollector versionhistory.MetricsCollector
	tracingCollector versionhistory.TracingCollector
}

type queryResultRow struct {
	id         int64
	entityRef  sql.NullString
	operation  string
	fields     []byte
	validFrom  any
	validUntil any
}

// NewStore creates a Store on db with optional configuration.
func NewStore(db adapters.DBAdapter, dialect Dialect, options ...Option) (*Store, error) {
	if db == nil {
		return nil, versionhistory.ErrNilDatabaseConnection
	}

	s := &Store{
		db:        db,
		dialect:   dialect,
		tableName: defaultTableName,
		columns:   DefaultColumns(),
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// TableName returns the configured history table name.
func (s *Store) TableName() string {
	return s.tableName
}

// Columns returns the configured column names.
func (s *Store) Columns() Columns {
	return s.columns
}

// DB returns the underlying adapter.
func (s *Store) DB() adapters.DBAdapter {
	return s.db
}

// Executor returns the transaction bound to ctx by InTransaction, or the database itself.
// Host entity stores use it to take part in the history transaction.
func (s *Store) Executor(ctx context.Context) adapters.Executor {
	return adapters.ExecutorFor(ctx, s.db)
}

// InTransaction runs fn in a database transaction that is bound to the context passed to fn.
// If ctx already carries a transaction of this Store, fn joins it and the outermost call commits.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, running := adapters.TxFromContext(ctx, s.db); running {
		return fn(ctx)
	}

	tx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.logError(ctx, logMsgBeginTxFailed, beginErr)
		s.recordError(ctx, statementTransaction, errorTypeBeginTx)

		return errors.Join(versionhistory.ErrBeginningTxFailed, beginErr)
	}

	defer func() {
		if p := recover(); p != nil {
			s.rollback(ctx, tx)
			panic(p)
		}
	}()

	if fnErr := fn(adapters.ContextWithTx(ctx, s.db, tx)); fnErr != nil {
		s.rollback(ctx, tx)
		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(ctx, logMsgCommitTxFailed, commitErr)
		s.recordError(ctx, statementTransaction, errorTypeCommitTx)

		return errors.Join(versionhistory.ErrCommittingTxFailed, commitErr)
	}

	return nil
}

func (s *Store) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
		s.logWarn(ctx, logMsgRollbackFailed, logAttrError, rollbackErr.Error())
	}
}

// QueryOpenIntervals returns all records of entityRef with a ValidUntil after asOf, oldest first.
// Inside a transaction the rows are locked if the dialect supports it.
func (s *Store) QueryOpenIntervals(
	ctx context.Context,
	entityRef string,
	asOf time.Time,
) (versionhistory.HistoryRecords, error) {

	_, inTx := adapters.TxFromContext(ctx, s.db)

	selectStmt := s.selectRecords().
		Where(
			goqu.C(s.columns.EntityRef).Eq(entityRef),
			goqu.C(s.columns.ValidUntil).Gt(s.dialect.TimeValue(versionhistory.NormalizeTimestamp(asOf))),
		).
		Order(goqu.C(s.columns.ValidFrom).Asc(), goqu.C(s.columns.ID).Asc())

	if inTx && s.dialect.LockOpenIntervals {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	return s.queryRecords(ctx, statementQueryOpenIntervals, selectStmt, false)
}

// QueryHistory returns all records of entityRef ordered by ValidFrom.
// Outside a transaction it reads from the replica if the context asks for eventual consistency.
func (s *Store) QueryHistory(ctx context.Context, entityRef string) (versionhistory.HistoryRecords, error) {
	selectStmt := s.selectRecords().
		Where(goqu.C(s.columns.EntityRef).Eq(entityRef)).
		Order(goqu.C(s.columns.ValidFrom).Asc(), goqu.C(s.columns.ID).Asc())

	return s.queryRecords(ctx, statementQueryHistory, selectStmt, true)
}

// QueryVersionAt returns the record of entityRef with ValidFrom <= t < ValidUntil,
// or versionhistory.ErrNoVersionAt.
func (s *Store) QueryVersionAt(
	ctx context.Context,
	entityRef string,
	t time.Time,
) (versionhistory.HistoryRecord, error) {

	at := s.dialect.TimeValue(versionhistory.NormalizeTimestamp(t))

	selectStmt := s.selectRecords().
		Where(
			goqu.C(s.columns.EntityRef).Eq(entityRef),
			goqu.C(s.columns.ValidFrom).Lte(at),
			goqu.C(s.columns.ValidUntil).Gt(at),
		).
		Order(goqu.C(s.columns.ValidFrom).Desc()).
		Limit(1)

	records, err := s.queryRecords(ctx, statementQueryVersionAt, selectStmt, true)
	if err != nil {
		return versionhistory.HistoryRecord{}, err
	}

	if len(records) == 0 {
		return versionhistory.HistoryRecord{}, versionhistory.ErrNoVersionAt
	}

	return records[0], nil
}

// UpdateRecord writes the ValidUntil of the record with the given ID.
// It returns versionhistory.ErrRecordNotUpdated if no such record exists.
func (s *Store) UpdateRecord(ctx context.Context, record versionhistory.HistoryRecord) error {
	ctx, span := s.startSpan(ctx, statementUpdateRecord)

	updateStmt := goqu.Dialect(s.dialect.Name).
		Update(s.tableName).
		Set(goqu.Record{
			s.columns.ValidUntil: s.dialect.TimeValue(versionhistory.NormalizeTimestamp(record.ValidUntil)),
		}).
		Where(goqu.C(s.columns.ID).Eq(record.ID))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return s.failStatement(ctx, span, statementUpdateRecord, errorTypeBuildQuery,
			logMsgBuildUpdateQueryFailed, errors.Join(versionhistory.ErrBuildingQueryFailed, toSQLErr))
	}

	rowsAffected, duration, execErr := s.executeStatement(ctx, statementUpdateRecord, sqlQuery, versionhistory.ErrUpdatingRecordFailed)
	if execErr != nil {
		s.finishSpanError(span, execErr, duration)
		return execErr
	}

	if rowsAffected == 0 {
		s.logOperation(ctx, logMsgRecordNotUpdated, logAttrRecordID, record.ID)
		s.recordError(ctx, statementUpdateRecord, errorTypeNotUpdated)
		s.finishSpanError(span, versionhistory.ErrRecordNotUpdated, duration)

		return versionhistory.ErrRecordNotUpdated
	}

	s.logOperation(ctx, logMsgRecordUpdated,
		logAttrRecordID, record.ID,
		logAttrDurationMS, toMilliseconds(duration))
	s.recordDuration(ctx, statementUpdateRecord, duration, statusSuccess)
	s.finishSpanSuccess(span, duration, 1)

	return nil
}

// InsertRecord appends record. Its ID is ignored, the database assigns one.
func (s *Store) InsertRecord(ctx context.Context, record versionhistory.HistoryRecord) error {
	ctx, span := s.startSpan(ctx, statementInsertRecord)

	encodedFields, encodeErr := fieldsJSON.MarshalToString(record.Fields)
	if encodeErr != nil {
		return s.failStatement(ctx, span, statementInsertRecord, errorTypeEncodeFields,
			logMsgEncodeFieldsFailed, errors.Join(versionhistory.ErrEncodingFieldsFailed, encodeErr))
	}

	insertStmt := goqu.Dialect(s.dialect.Name).
		Insert(s.tableName).
		Rows(goqu.Record{
			s.columns.EntityRef:  record.EntityRef,
			s.columns.Operation:  string(record.Operation),
			s.columns.Fields:     s.dialect.FieldsValue(encodedFields),
			s.columns.ValidFrom:  s.dialect.TimeValue(versionhistory.NormalizeTimestamp(record.ValidFrom)),
			s.columns.ValidUntil: s.dialect.TimeValue(versionhistory.NormalizeTimestamp(record.ValidUntil)),
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return s.failStatement(ctx, span, statementInsertRecord, errorTypeBuildQuery,
			logMsgBuildInsertQueryFailed, errors.Join(versionhistory.ErrBuildingQueryFailed, toSQLErr))
	}

	_, duration, execErr := s.executeStatement(ctx, statementInsertRecord, sqlQuery, versionhistory.ErrInsertingRecordFailed)
	if execErr != nil {
		s.finishSpanError(span, execErr, duration)
		return execErr
	}

	s.logOperation(ctx, logMsgRecordInserted,
		logAttrEntityRef, record.EntityRef,
		logAttrOperation, record.Operation.String(),
		logAttrDurationMS, toMilliseconds(duration))
	s.recordDuration(ctx, statementInsertRecord, duration, statusSuccess)
	s.finishSpanSuccess(span, duration, 1)

	return nil
}

func (s *Store) selectRecords() *goqu.SelectDataset {
	return goqu.Dialect(s.dialect.Name).
		From(s.tableName).
		Select(
			s.columns.ID,
			s.columns.EntityRef,
			s.columns.Operation,
			s.columns.Fields,
			s.columns.ValidFrom,
			s.columns.ValidUntil,
		)
}

// queryRecords runs a select built by selectRecords and converts the rows.
func (s *Store) queryRecords(
	ctx context.Context,
	statement string,
	selectStmt *goqu.SelectDataset,
	replicaAllowed bool,
) (versionhistory.HistoryRecords, error) {

	ctx, span := s.startSpan(ctx, statement)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, s.failStatement(ctx, span, statement, errorTypeBuildQuery,
			logMsgBuildSelectQueryFailed, errors.Join(versionhistory.ErrBuildingQueryFailed, toSQLErr))
	}

	rows, duration, queryErr := s.executeQuery(ctx, statement, sqlQuery, replicaAllowed)
	if queryErr != nil {
		s.finishSpanError(span, queryErr, duration)
		return nil, queryErr
	}
	defer s.closeRows(ctx, rows)

	records, processErr := s.processQueryResults(ctx, rows)
	if processErr != nil {
		s.recordError(ctx, statement, errorTypeScan)
		s.finishSpanError(span, processErr, duration)

		return nil, processErr
	}

	s.logOperation(ctx, logMsgRecordsQueried+statement,
		logAttrRecordCount, len(records),
		logAttrDurationMS, toMilliseconds(duration))
	s.recordDuration(ctx, statement, duration, statusSuccess)
	s.finishSpanSuccess(span, duration, len(records))

	return records, nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (s *Store) executeQuery(
	ctx context.Context,
	statement string,
	sqlQuery sqlQueryString,
	replicaAllowed bool,
) (adapters.DBRows, time.Duration, error) {

	start := time.Now()
	rows, queryErr := s.reader(ctx, replicaAllowed)(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, statement, duration)

	if queryErr != nil {
		s.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		s.recordError(ctx, statement, errorTypeDatabase)
		s.recordDuration(ctx, statement, duration, statusError)

		return nil, duration, errors.Join(versionhistory.ErrQueryingRecordsFailed, queryErr)
	}

	return rows, duration, nil
}

// reader picks the connection for a read: the running transaction, the replica, or the primary.
func (s *Store) reader(
	ctx context.Context,
	replicaAllowed bool,
) func(ctx context.Context, query string) (adapters.DBRows, error) {

	if tx, ok := adapters.TxFromContext(ctx, s.db); ok {
		return tx.Query
	}

	if replicaAllowed && versionhistory.GetConsistencyLevel(ctx) == versionhistory.EventualConsistency {
		return s.db.QueryReplica
	}

	return s.db.Query
}

// executeStatement executes a write and returns the rows affected and duration.
func (s *Store) executeStatement(
	ctx context.Context,
	statement string,
	sqlQuery sqlQueryString,
	failure error,
) (int64, time.Duration, error) {

	start := time.Now()
	result, execErr := s.Executor(ctx).Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(ctx, sqlQuery, statement, duration)

	if execErr != nil {
		s.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		s.recordError(ctx, statement, errorTypeDatabase)
		s.recordDuration(ctx, statement, duration, statusError)

		return 0, duration, errors.Join(failure, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)
		s.recordError(ctx, statement, errorTypeDatabase)

		return 0, duration, errors.Join(versionhistory.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// processQueryResults converts database rows to history records.
func (s *Store) processQueryResults(
	ctx context.Context,
	rows adapters.DBRows,
) (versionhistory.HistoryRecords, error) {

	records := make(versionhistory.HistoryRecords, 0)

	for rows.Next() {
		result := queryResultRow{}

		rowScanErr := rows.Scan(
			&result.id,
			&result.entityRef,
			&result.operation,
			&result.fields,
			&result.validFrom,
			&result.validUntil,
		)
		if rowScanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, rowScanErr)
			return nil, errors.Join(versionhistory.ErrScanningDBRowFailed, rowScanErr)
		}

		record, buildErr := s.buildRecord(result)
		if buildErr != nil {
			s.logError(ctx, logMsgBuildRecordFailed, buildErr, logAttrRecordID, result.id)
			return nil, buildErr
		}

		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		s.logError(ctx, logMsgScanRowFailed, rowsErr)
		return nil, errors.Join(versionhistory.ErrScanningDBRowFailed, rowsErr)
	}

	return records, nil
}

func (s *Store) buildRecord(result queryResultRow) (versionhistory.HistoryRecord, error) {
	var fields versionhistory.Fields
	if len(result.fields) > 0 {
		if decodeErr := fieldsJSON.Unmarshal(result.fields, &fields); decodeErr != nil {
			return versionhistory.HistoryRecord{}, errors.Join(versionhistory.ErrDecodingFieldsFailed, decodeErr)
		}
	}

	validFrom, validFromErr := s.dialect.ParseTime(result.validFrom)
	if validFromErr != nil {
		return versionhistory.HistoryRecord{}, errors.Join(
			versionhistory.ErrScanningDBRowFailed,
			fmt.Errorf("column %s: %w", s.columns.ValidFrom, validFromErr),
		)
	}

	validUntil, validUntilErr := s.dialect.ParseTime(result.validUntil)
	if validUntilErr != nil {
		return versionhistory.HistoryRecord{}, errors.Join(
			versionhistory.ErrScanningDBRowFailed,
			fmt.Errorf("column %s: %w", s.columns.ValidUntil, validUntilErr),
		)
	}

	return versionhistory.HistoryRecord{
		ID:         result.id,
		EntityRef:  result.entityRef.String,
		Fields:     fields,
		Operation:  versionhistory.Operation(result.operation),
		ValidFrom:  validFrom,
		ValidUntil: validUntil,
	}, nil
}

// failStatement reports a failure that happened before the statement reached the database.
func (s *Store) failStatement(
	ctx context.Context,
	span versionhistory.SpanContext,
	statement string,
	errorType string,
	logMsg string,
	err error,
) error {

	s.logError(ctx, logMsg, err, logAttrStatement, statement)
	s.recordError(ctx, statement, errorType)
	s.finishSpanError(span, err, 0)

	return err
}
