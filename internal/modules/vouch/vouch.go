// Package vouch enforces the pacing rule on peer vouches: one per
// voucher per cooldown window, tracked in memory.
package vouch

import (
	"sync"
	"time"
)

type Cooldowns struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewCooldowns(window time.Duration) *Cooldowns {
	return &Cooldowns{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// WithNow replaces the time source. Used by tests.
func (c *Cooldowns) WithNow(now func() time.Time) *Cooldowns {
	c.now = now
	return c
}

// Remaining reports how long the voucher must still wait. Zero means
// the voucher may act now.
func (c *Cooldowns) Remaining(voucherID string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	last, ok := c.last[voucherID]
	if !ok {
		return 0
	}
	elapsed := c.now().Sub(last)
	if elapsed >= c.window {
		return 0
	}
	return c.window - elapsed
}

// Record marks the voucher as having acted now.
func (c *Cooldowns) Record(voucherID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last[voucherID] = c.now()
}
