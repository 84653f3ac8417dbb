package versionhistory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

func Test_BuildHistoryRecord_BuildsOpenRecord(t *testing.T) {
	// arrange
	validFrom := time.Date(2024, 1, 1, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))
	fields := versionhistory.Fields{"title": "a"}

	// act
	record, err := versionhistory.BuildHistoryRecord("task-1", fields, versionhistory.OperationInsert, validFrom, versionhistory.MaxValidUntil)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "task-1", record.EntityRef)
	assert.Equal(t, versionhistory.OperationInsert, record.Operation)
	assert.Equal(t, time.UTC, record.ValidFrom.Location())
	assert.Equal(t, 123456000, record.ValidFrom.Nanosecond(), "truncated to microseconds")
	assert.True(t, record.IsOpen(versionhistory.MaxValidUntil))
	assert.Equal(t, fields, record.Fields)
}

func Test_BuildHistoryRecord_CopiesFields(t *testing.T) {
	// arrange
	fields := versionhistory.Fields{"title": "a"}

	// act
	record, err := versionhistory.BuildHistoryRecord("task-1", fields, versionhistory.OperationUpdate, time.Now(), versionhistory.MaxValidUntil)
	fields["title"] = "changed later"

	// assert
	require.NoError(t, err)
	assert.Equal(t, "a", record.Fields["title"])
}

func Test_BuildHistoryRecord_FailsWith_InvalidInput(t *testing.T) {
	now := time.Now()

	_, emptyRefErr := versionhistory.BuildHistoryRecord("", nil, versionhistory.OperationInsert, now, versionhistory.MaxValidUntil)
	_, noChangeErr := versionhistory.BuildHistoryRecord("x", nil, versionhistory.OperationNoChange, now, versionhistory.MaxValidUntil)
	_, deleteErr := versionhistory.BuildHistoryRecord("x", nil, versionhistory.OperationDelete, now, versionhistory.MaxValidUntil)
	_, intervalErr := versionhistory.BuildHistoryRecord("x", nil, versionhistory.OperationInsert, versionhistory.MaxValidUntil, versionhistory.MaxValidUntil)

	assert.ErrorIs(t, emptyRefErr, versionhistory.ErrEmptyEntityRef)
	assert.ErrorIs(t, noChangeErr, versionhistory.ErrOperationNotRecordable)
	assert.ErrorIs(t, deleteErr, versionhistory.ErrOperationNotRecordable)
	assert.ErrorIs(t, intervalErr, versionhistory.ErrInvalidValidityInterval)
}

func Test_HistoryRecord_IsValidAt_IsHalfOpen(t *testing.T) {
	// arrange
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	record := versionhistory.HistoryRecord{ValidFrom: from, ValidUntil: from.Add(10 * time.Second)}

	// act & assert
	assert.True(t, record.IsValidAt(from))
	assert.True(t, record.IsValidAt(from.Add(9*time.Second)))
	assert.False(t, record.IsValidAt(from.Add(10*time.Second)))
	assert.False(t, record.IsValidAt(from.Add(-time.Microsecond)))
}

func Test_HistoryRecord_ClosedAt_ReturnsClosedCopy(t *testing.T) {
	// arrange
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	record := versionhistory.HistoryRecord{ID: 3, ValidFrom: from, ValidUntil: versionhistory.MaxValidUntil}

	// act
	closed := record.ClosedAt(from.Add(time.Minute))

	// assert
	assert.True(t, record.IsOpen(versionhistory.MaxValidUntil), "original stays open")
	assert.False(t, closed.IsOpen(versionhistory.MaxValidUntil))
	assert.Equal(t, from.Add(time.Minute), closed.ValidUntil)
	assert.Equal(t, int64(3), closed.ID)
}

func Test_NormalizeTimestamp(t *testing.T) {
	local := time.Date(2024, 6, 1, 8, 30, 0, 999, time.FixedZone("X", -7200))

	normalized := versionhistory.NormalizeTimestamp(local)

	assert.Equal(t, time.UTC, normalized.Location())
	assert.Equal(t, 0, normalized.Nanosecond())
	assert.True(t, normalized.Equal(local.Truncate(time.Microsecond)))
}

func Test_MaxValidUntil(t *testing.T) {
	assert.Equal(t, "3000-12-31T23:59:59.999999Z", versionhistory.MaxValidUntil.Format(time.RFC3339Nano))
}
