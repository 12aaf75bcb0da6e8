package testutil

import (
	"sync"
	"time"
)

// SteppingClock is a deterministic wall clock for now(). The first call to
// Now returns the base instant; each later call returns the previous
// instant plus the step. A zero step gives a fixed clock.
//
// Thread-safety: all methods are safe for concurrent use.
type SteppingClock struct {
	mu    sync.Mutex
	base  time.Time
	step  time.Duration
	calls int64
}

// NewSteppingClock creates a clock starting at base.
func NewSteppingClock(base time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{base: base, step: step}
}

// Now returns the current instant and advances the clock.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *SteppingClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to its base instant.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
