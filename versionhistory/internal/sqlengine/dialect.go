package sqlengine

import (
	"fmt"
	"time"

	"github.com/AntonStoeckl/versionhistory-go/versionhistory"
)

// Dialect binds the database specifics of an engine.
type Dialect struct {
	// Name is the goqu dialect name, the dialect package must be imported by the engine.
	Name string

	// TimeValue converts a normalized timestamp to the value written to the validity columns.
	TimeValue func(t time.Time) any

	// ParseTime converts a scanned validity column back to a timestamp.
	ParseTime func(src any) (time.Time, error)

	// FieldsValue converts the encoded fields JSON to the value written to the fields column.
	FieldsValue func(encoded string) any

	// LockOpenIntervals adds FOR UPDATE to open interval queries that run inside a transaction.
	LockOpenIntervals bool
}

// ParseTimestamp accepts timestamps scanned by drivers that decode time columns natively.
func ParseTimestamp(src any) (time.Time, error) {
	switch value := src.(type) {
	case time.Time:
		return versionhistory.NormalizeTimestamp(value), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp column type %T", src)
	}
}

// ParseUnixMicro accepts timestamps stored as integer unix microseconds.
func ParseUnixMicro(src any) (time.Time, error) {
	switch value := src.(type) {
	case int64:
		return time.UnixMicro(value).UTC(), nil
	case time.Time:
		return versionhistory.NormalizeTimestamp(value), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp column type %T", src)
	}
}
