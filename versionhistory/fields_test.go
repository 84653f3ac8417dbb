package versionhistory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

func Test_Fields_Equal_When_AllValuesEqual(t *testing.T) {
	// arrange
	instant := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := versionhistory.Fields{"title": "x", "updated_at": instant, "count": 3}
	b := versionhistory.Fields{"title": "x", "updated_at": instant, "count": 3}

	// act & assert
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
}

func Test_Fields_Equal_When_OneValueDiffers(t *testing.T) {
	a := versionhistory.Fields{"title": "x", "description": "y"}
	b := versionhistory.Fields{"title": "x", "description": "z"}

	assert.False(t, a.Equal(b))
}

func Test_Fields_Equal_When_KeySetsDiffer(t *testing.T) {
	a := versionhistory.Fields{"title": "x", "description": nil}
	b := versionhistory.Fields{"title": "x", "body": nil}
	c := versionhistory.Fields{"title": "x"}

	assert.False(t, a.Equal(b), "same size, different names")
	assert.False(t, a.Equal(c), "different size")
}

func Test_Fields_Equal_When_Empty(t *testing.T) {
	assert.True(t, versionhistory.Fields{}.Equal(nil))
}

func Test_FieldValuesEqual_ComparesTimestampsByInstant(t *testing.T) {
	// arrange
	utc := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	berlin := utc.In(time.FixedZone("CET", 3600))

	// act & assert
	assert.True(t, versionhistory.FieldValuesEqual(utc, berlin))
	assert.False(t, versionhistory.FieldValuesEqual(utc, utc.Add(time.Microsecond)))
}

type period struct {
	From  time.Time
	Until *time.Time
	Label string
}

func Test_FieldValuesEqual_ComparesNestedTimestampsByInstant(t *testing.T) {
	// arrange
	utc := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("CET", 3600))
	utcUntil, localUntil := utc.Add(time.Hour), local.Add(time.Hour)
	later := utc.Add(time.Second)

	// act & assert
	assert.True(t, versionhistory.FieldValuesEqual(
		period{From: utc, Until: &utcUntil, Label: "q1"},
		period{From: local, Until: &localUntil, Label: "q1"},
	))
	assert.True(t, versionhistory.FieldValuesEqual(
		map[string]any{"at": utc, "tags": []any{"a", utc}},
		map[string]any{"at": local, "tags": []any{"a", local}},
	))
	assert.True(t, versionhistory.FieldValuesEqual([]time.Time{utc}, []time.Time{local}))
	assert.False(t, versionhistory.FieldValuesEqual(period{From: utc}, period{From: later}))
	assert.False(t, versionhistory.FieldValuesEqual(period{From: utc, Label: "q1"}, period{From: local, Label: "q2"}))
	assert.False(t, versionhistory.FieldValuesEqual(map[string]any{"at": utc}, map[string]any{"on": utc}))
	assert.False(t, versionhistory.FieldValuesEqual([]time.Time{utc}, []time.Time{utc, utc}))
}

func Test_FieldValuesEqual_ComparesUnexportedNestedFields(t *testing.T) {
	type inner struct {
		count int
		name  string
	}

	assert.True(t, versionhistory.FieldValuesEqual(inner{count: 1, name: "a"}, inner{count: 1, name: "a"}))
	assert.False(t, versionhistory.FieldValuesEqual(inner{count: 1, name: "a"}, inner{count: 2, name: "a"}))
}

func Test_Fields_Equal_When_NestedTimestampsDifferInLocationOnly(t *testing.T) {
	// arrange
	stored := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	incoming := stored.Local()

	// act & assert
	assert.True(t, versionhistory.Fields{"window": period{From: stored}}.Equal(versionhistory.Fields{"window": period{From: incoming}}))
}

func Test_FieldValuesEqual_ComparesPointersByPointee(t *testing.T) {
	// arrange
	first, second, other := "a", "a", "b"
	var nilString *string

	// act & assert
	assert.True(t, versionhistory.FieldValuesEqual(&first, &second))
	assert.True(t, versionhistory.FieldValuesEqual(&first, "a"))
	assert.False(t, versionhistory.FieldValuesEqual(&first, &other))
	assert.True(t, versionhistory.FieldValuesEqual(nilString, nil))
	assert.False(t, versionhistory.FieldValuesEqual(nilString, &first))
}

func Test_FieldValuesEqual_ComparesByteSlicesByContent(t *testing.T) {
	assert.True(t, versionhistory.FieldValuesEqual([]byte("abc"), []byte("abc")))
	assert.False(t, versionhistory.FieldValuesEqual([]byte("abc"), []byte("abd")))
	assert.False(t, versionhistory.FieldValuesEqual([]byte("abc"), "abc"))
}

func Test_FieldValuesEqual_DoesNotConvertBetweenTypes(t *testing.T) {
	assert.False(t, versionhistory.FieldValuesEqual(1, int64(1)))
	assert.False(t, versionhistory.FieldValuesEqual("1", 1))
}

func Test_Fields_Clone_IsIndependent(t *testing.T) {
	// arrange
	original := versionhistory.Fields{"title": "x"}

	// act
	clone := original.Clone()
	clone["title"] = "changed"

	// assert
	assert.Equal(t, "x", original["title"])
	assert.NotNil(t, versionhistory.Fields(nil).Clone())
}

func Test_Fields_Names_AreSorted(t *testing.T) {
	fields := versionhistory.Fields{"updated_at": nil, "description": nil, "title": nil}

	assert.Equal(t, []string{"description", "title", "updated_at"}, fields.Names())
}
