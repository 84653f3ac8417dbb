package fixtures

import (
	"sync"
	"time"
)

// Epoch is the start time of FakeClock scenarios: t=0.
var Epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

// FakeClock is a versionhistory.Clock under test control.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a FakeClock standing at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now implements versionhistory.Clock.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

// Advance moves the clock forward by d and returns the new time.
func (c *FakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	return c.now
}

// At returns Epoch plus the given number of seconds.
func At(seconds int) time.Time {
	return Epoch.Add(time.Duration(seconds) * time.Second)
}
