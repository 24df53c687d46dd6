package antiraid

import (
	"sync"
	"time"

	"guildhall/internal/utils"
)

// Engine gates new members on account age and watches the join rate for
// surges that warrant enabling the gate automatically.
type Engine struct {
	mu         sync.Mutex
	counter    *utils.JoinCounter
	surgeCount int
	now        func() time.Time
}

func New(surgeCount int, window time.Duration) *Engine {
	return &Engine{
		counter:    utils.NewJoinCounter(window),
		surgeCount: surgeCount,
		now:        time.Now,
	}
}

// WithNow replaces the time source. Used by tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RecordJoin counts a join and reports whether the window crossed the
// surge threshold with this join.
func (e *Engine) RecordJoin() (count int, surge bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	count = e.counter.Record(e.now())
	return count, e.surgeCount > 0 && count >= e.surgeCount
}

// JoinRate returns the number of joins in the current window.
func (e *Engine) JoinRate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counter.Count(e.now())
}

// TooYoung reports whether an account created at the given time is
// younger than the minimum age. A non-positive minimum disables the gate.
func (e *Engine) TooYoung(accountCreated time.Time, minAgeDays int) bool {
	if minAgeDays <= 0 {
		return false
	}
	minAge := time.Duration(minAgeDays) * 24 * time.Hour
	return e.now().Sub(accountCreated) < minAge
}
