package postgresengine_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/versionhistory-go/testutil/fixtures" //nolint:revive
	"github.com/AntonStoeckl/versionhistory-go/testutil/historystoretest"
	"github.com/AntonStoeckl/versionhistory-go/testutil/observability/testdoubles"
	. "github.com/AntonStoeckl/versionhistory-go/testutil/postgresengine/helper/postgreswrapper" //nolint:revive
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory/postgresengine"
)

func Test_HistoryStore_Contract(t *testing.T) {
	// setup
	wrapper := CreateWrapperWithTestConfig(t)
	defer wrapper.Close()

	// act & assert
	historystoretest.RunContractTests(t, func(t *testing.T) historystoretest.Subject {
		CleanUp(t, wrapper)
		return wrapper.GetHistoryStore()
	})
}

func Test_HistoryStore_QueryOpenIntervals_LocksRows_InsideTransaction(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := testdoubles.NewLogHandlerSpy(false)
	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithLogger(slog.New(logHandler)))
	defer wrapper.Close()
	CleanUp(t, wrapper)
	history := wrapper.GetHistoryStore()

	// act
	_, outsideErr := history.QueryOpenIntervals(ctx, "doc-1", At(0))
	insideErr := history.InTransaction(ctx, func(ctx context.Context) error {
		_, err := history.QueryOpenIntervals(ctx, "doc-1", At(0))
		return err
	})

	// assert
	require.NoError(t, outsideErr)
	require.NoError(t, insideErr)

	queries := executedQueries(logHandler, "executed sql for: query_open_intervals")
	require.Len(t, queries, 2)
	assert.NotContains(t, queries[0], "FOR UPDATE")
	assert.Contains(t, queries[1], "FOR UPDATE")
}

func Test_HistoryStore_Observability_LogsAndMetrics(t *testing.T) {
	// setup
	ctx := context.Background()
	logHandler := testdoubles.NewLogHandlerSpy(false)
	metricsCollector := testdoubles.NewMetricsCollectorSpy(true)
	tracingCollector := testdoubles.NewTracingCollectorSpy(true)
	wrapper := CreateWrapperWithTestConfig(
		t,
		postgresengine.WithLogger(slog.New(logHandler)),
		postgresengine.WithMetrics(metricsCollector),
		postgresengine.WithTracing(tracingCollector),
	)
	defer wrapper.Close()
	CleanUp(t, wrapper)
	history := wrapper.GetHistoryStore()

	record, err := versionhistory.BuildHistoryRecord(
		"doc-1", versionhistory.Fields{"title": "A"}, versionhistory.OperationInsert, At(0), versionhistory.MaxValidUntil)
	require.NoError(t, err)

	// act
	insertErr := history.InsertRecord(ctx, record)
	updateErr := history.UpdateRecord(ctx, record.ClosedAt(At(10)))

	// assert
	require.NoError(t, insertErr)
	assert.ErrorIs(t, updateErr, versionhistory.ErrRecordNotUpdated, "the record ID was never assigned")

	assert.True(t, logHandler.HasDebugLogWithMessage("executed sql for: insert_record").WithDurationMS().Assert())
	assert.True(t, logHandler.HasInfoLogWithMessage("history store operation: history record inserted").
		WithEntityRef("doc-1").WithOperation("insert").Assert())

	assert.True(t, metricsCollector.HasDurationRecordForMetric("versionhistory_query_duration_seconds").
		WithOperation("insert_record").WithStatus("success").Assert())
	assert.True(t, metricsCollector.HasCounterRecordForMetric("versionhistory_database_errors_total").
		WithOperation("update_record").WithErrorType("not_updated").Assert())

	assert.True(t, tracingCollector.HasSpanRecordForName("versionhistory.sql.insert_record").WithStatus("success").Assert())
	assert.True(t, tracingCollector.HasSpanRecordForName("versionhistory.sql.update_record").WithStatus("error").Assert())
}

func executedQueries(logHandler *testdoubles.LogHandlerSpy, message string) []string {
	queries := make([]string, 0)

	for _, record := range logHandler.GetRecords() {
		if record.Message != message {
			continue
		}

		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == "query" {
				queries = append(queries, strings.ToUpper(attr.Value.String()))
				return false
			}

			return true
		})
	}

	return queries
}
