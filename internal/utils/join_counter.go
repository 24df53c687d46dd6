package utils

import (
	"sync"
	"time"
)

// JoinCounter counts member joins inside a sliding window. A surge of
// joins is the signal for enabling anti-raid mode automatically.
type JoinCounter struct {
	mu      sync.Mutex
	window  time.Duration
	entries []time.Time
}

func NewJoinCounter(window time.Duration) *JoinCounter {
	return &JoinCounter{window: window}
}

// Record adds a join at the given instant and returns how many joins
// remain inside the window.
func (c *JoinCounter) Record(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trim(now)
	c.entries = append(c.entries, now)
	return len(c.entries)
}

// Count reports joins inside the window without recording one.
func (c *JoinCounter) Count(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.trim(now)
	return len(c.entries)
}

func (c *JoinCounter) trim(now time.Time) {
	cutoff := now.Add(-c.window)
	idx := 0
	for _, entry := range c.entries {
		if entry.After(cutoff) {
			break
		}
		idx++
	}
	c.entries = c.entries[idx:]
}
