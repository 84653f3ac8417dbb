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

func Test_IntervalCloser_CloseOpen_ClosesTheOpenRecordAtAsOf(t *testing.T) {
	// arrange
	history := memstore.NewHistoryStore()
	history.Seed(
		record(0, At(0), At(10)),
		record(0, At(10), versionhistory.MaxValidUntil),
	)

	closer, err := versionhistory.NewIntervalCloser(history)
	require.NoError(t, err)

	// act
	closed, closeErr := closer.CloseOpen(context.Background(), "doc-1", At(20))

	// assert
	require.NoError(t, closeErr)
	assert.Equal(t, 1, closed)

	records := history.RecordsFor("doc-1")
	require.Len(t, records, 2)
	assert.Equal(t, At(10), records[0].ValidUntil, "already closed records stay untouched")
	assert.Equal(t, At(20), records[1].ValidUntil)
	assert.Empty(t, history.OpenRecordsFor("doc-1", versionhistory.MaxValidUntil))
}

func Test_IntervalCloser_CloseOpen_When_NoOpenRecordExists(t *testing.T) {
	// arrange
	history := memstore.NewHistoryStore()
	closer, err := versionhistory.NewIntervalCloser(history)
	require.NoError(t, err)

	// act
	closed, closeErr := closer.CloseOpen(context.Background(), "doc-1", At(0))

	// assert
	require.NoError(t, closeErr)
	assert.Zero(t, closed)
	assert.Equal(t, []string{memstore.CallQueryOpenIntervals}, history.Calls())
}

func Test_IntervalCloser_CloseOpen_ClosesEveryRecordStillValidAfterAsOf(t *testing.T) {
	// arrange
	history := memstore.NewHistoryStore()
	history.Seed(
		record(0, At(0), versionhistory.MaxValidUntil),
		record(0, At(5), versionhistory.MaxValidUntil),
	)

	closer, err := versionhistory.NewIntervalCloser(history)
	require.NoError(t, err)

	// act
	closed, closeErr := closer.CloseOpen(context.Background(), "doc-1", At(30))

	// assert
	require.NoError(t, closeErr)
	assert.Equal(t, 2, closed)
	assert.Empty(t, history.OpenRecordsFor("doc-1", versionhistory.MaxValidUntil))
}

func Test_IntervalCloser_CloseOpen_FailsWith_EmptyEntityRef(t *testing.T) {
	closer, err := versionhistory.NewIntervalCloser(memstore.NewHistoryStore())
	require.NoError(t, err)

	_, closeErr := closer.CloseOpen(context.Background(), "", At(0))

	assert.ErrorIs(t, closeErr, versionhistory.ErrMissingEntityIdentity)
}

func Test_IntervalCloser_CloseOpen_When_UpdateFails(t *testing.T) {
	// arrange
	history := memstore.NewHistoryStore()
	history.Seed(record(0, At(0), versionhistory.MaxValidUntil))
	updateErr := errors.New("disk full")
	history.FailUpdateWith(updateErr)

	closer, err := versionhistory.NewIntervalCloser(history)
	require.NoError(t, err)

	// act
	closed, closeErr := closer.CloseOpen(context.Background(), "doc-1", At(10))

	// assert
	assert.ErrorIs(t, closeErr, versionhistory.ErrClosingIntervalFailed)
	assert.ErrorIs(t, closeErr, updateErr)
	assert.Zero(t, closed)
}

func Test_NewIntervalCloser_FailsWith_NilHistoryStore(t *testing.T) {
	_, err := versionhistory.NewIntervalCloser(nil)

	assert.ErrorIs(t, err, versionhistory.ErrNilHistoryStore)
}
