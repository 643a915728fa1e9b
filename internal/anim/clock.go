package anim

import (
	"sync"
	"time"
)

// Clock is a monotonic millisecond counter.
type Clock interface {
	Millis() uint64
}

// SystemClock counts from its creation using the monotonic clock.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Millis() uint64 {
	return uint64(time.Since(c.start).Milliseconds())
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu sync.Mutex
	ms uint64
}

func (c *ManualClock) Millis() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.ms += uint64(d / time.Millisecond)
	c.mu.Unlock()
}

func (c *ManualClock) Set(ms uint64) {
	c.mu.Lock()
	c.ms = ms
	c.mu.Unlock()
}
