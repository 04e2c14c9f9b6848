package testutil

import "sync"

// FakeClock is a settable clock for tests. It never moves on its own.
type FakeClock struct {
	mu  sync.Mutex
	now int64
}

func NewFakeClock(now int64) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by seconds and returns the new time.
func (c *FakeClock) Advance(seconds int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
	return c.now
}
