package sequencer

import (
	"sync"
	"time"
)

// Clock supplies monotonic wall-clock time in seconds.
type Clock interface {
	Now() float64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() float64

func (f ClockFunc) Now() float64 {
	return f()
}

// NewMonotonicClock counts seconds since its creation using the runtime's
// monotonic clock.
func NewMonotonicClock() Clock {
	start := time.Now()
	return ClockFunc(func() float64 {
		return time.Since(start).Seconds()
	})
}

// ManualClock only moves when told to. Used for offline rendering and tests.
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by dt seconds and returns the new time.
func (c *ManualClock) Advance(dt float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += dt
	return c.now
}

func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
