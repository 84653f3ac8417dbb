package versionhistory

import (
	"time"
)

// Clock supplies the current time for version boundaries.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the result of calling f.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock is the wall clock. It is the default Clock of a VersionedStore.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// NormalizeTimestamp converts t to UTC and truncates it to microseconds,
// the precision both history store engines persist.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
