package clock

import (
	"sync"
	"time"
)

// Clock is the time source used for token expiry and rate-limit windows.
type Clock interface {
	Now() time.Time
}

type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Manual is a deterministic clock for tests.
type Manual struct {
	mu sync.Mutex
	t  time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{t: start}
}

func (c *Manual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Manual) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *Manual) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
