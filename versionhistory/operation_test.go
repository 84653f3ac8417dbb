package versionhistory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

func Test_Operation_IsRecordable_OnlyForInsertAndUpdate(t *testing.T) {
	assert.True(t, versionhistory.OperationInsert.IsRecordable())
	assert.True(t, versionhistory.OperationUpdate.IsRecordable())
	assert.False(t, versionhistory.OperationDelete.IsRecordable())
	assert.False(t, versionhistory.OperationNoChange.IsRecordable())
	assert.False(t, versionhistory.Operation("X").IsRecordable())
}

func Test_Operation_IsKnown(t *testing.T) {
	for _, operation := range []versionhistory.Operation{
		versionhistory.OperationInsert,
		versionhistory.OperationUpdate,
		versionhistory.OperationDelete,
		versionhistory.OperationNoChange,
	} {
		assert.True(t, operation.IsKnown(), operation.String())
	}

	assert.False(t, versionhistory.Operation("").IsKnown())
}

func Test_Operation_String(t *testing.T) {
	assert.Equal(t, "insert", versionhistory.OperationInsert.String())
	assert.Equal(t, "update", versionhistory.OperationUpdate.String())
	assert.Equal(t, "delete", versionhistory.OperationDelete.String())
	assert.Equal(t, "no_change", versionhistory.OperationNoChange.String())
	assert.Equal(t, "unknown", versionhistory.Operation("Z").String())
}
