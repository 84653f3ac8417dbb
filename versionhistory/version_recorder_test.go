package versionhistory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/versionhistory-go/testutil/fixtures" //nolint:revive
	"github.com/AntonStoeckl/versionhistory-go/testutil/memstore"
	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

func Test_VersionRecorder_Record_AppendsOpenRecord(t *testing.T) {
	// arrange
	history := memstore.NewHistoryStore()
	recorder, err := versionhistory.NewVersionRecorder(history)
	require.NoError(t, err)

	fields := versionhistory.Fields{"title": "a", "body": "b"}

	// act
	recorded, recordErr := recorder.Record(
		context.Background(),
		"doc-1",
		fields,
		versionhistory.OperationInsert,
		At(0),
		versionhistory.MaxValidUntil,
	)

	// assert
	require.NoError(t, recordErr)
	assert.Equal(t, At(0), recorded.ValidFrom)
	assert.True(t, recorded.IsOpen(versionhistory.MaxValidUntil))

	stored := history.RecordsFor("doc-1")
	require.Len(t, stored, 1)
	assert.Equal(t, versionhistory.OperationInsert, stored[0].Operation)
	assert.Equal(t, fields, stored[0].Fields)
	assert.Equal(t, []string{memstore.CallInsertRecord}, history.Calls(), "never updates rows")
}

func Test_VersionRecorder_Record_FailsWith_NonRecordableOperation(t *testing.T) {
	// arrange
	history := memstore.NewHistoryStore()
	recorder, err := versionhistory.NewVersionRecorder(history)
	require.NoError(t, err)

	// act
	_, recordErr := recorder.Record(
		context.Background(),
		"doc-1",
		nil,
		versionhistory.OperationNoChange,
		At(0),
		versionhistory.MaxValidUntil,
	)

	// assert
	assert.ErrorIs(t, recordErr, versionhistory.ErrRecordingVersionFailed)
	assert.ErrorIs(t, recordErr, versionhistory.ErrOperationNotRecordable)
	assert.Zero(t, history.Count())
}

func Test_VersionRecorder_Record_When_InsertFails(t *testing.T) {
	// arrange
	history := memstore.NewHistoryStore()
	insertErr := errors.New("unique violation")
	history.FailInsertWith(insertErr)

	recorder, err := versionhistory.NewVersionRecorder(history)
	require.NoError(t, err)

	// act
	_, recordErr := recorder.Record(
		context.Background(),
		"doc-1",
		nil,
		versionhistory.OperationUpdate,
		At(0),
		versionhistory.MaxValidUntil,
	)

	// assert
	assert.ErrorIs(t, recordErr, versionhistory.ErrRecordingVersionFailed)
	assert.ErrorIs(t, recordErr, insertErr)
}
