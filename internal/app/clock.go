package app

import (
	"sync"
	"time"
)

// DefaultQuestionTime is the countdown applied to every question when
// the configuration does not override it.
const DefaultQuestionTime = 30 * time.Second

// Clock is a restartable single-shot countdown. Start arms it; the
// callback fires exactly once unless Stop wins first. Stopping a
// stopped clock is a no-op, and nothing fires again after Stop or an
// expiry until the next Start.
type Clock struct {
	duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewClock(duration time.Duration) *Clock {
	return &Clock{duration: duration}
}

// Start arms the countdown, replacing any pending firing. A
// non-positive duration disarms the clock entirely, which keeps
// clock-free sessions possible in tests.
func (c *Clock) Start(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	if c.duration <= 0 {
		return
	}
	c.timer = time.AfterFunc(c.duration, fn)
}

// Stop cancels a pending firing. Idempotent.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Clock) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
