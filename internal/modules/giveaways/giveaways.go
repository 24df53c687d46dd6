// Package giveaways schedules giveaway endings and draws winners.
package giveaways

import (
	"math/rand"
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

type realTimer struct{ t *time.Timer }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

func (t realTimer) Stop() bool { return t.t.Stop() }

// EndFunc is invoked when a scheduled giveaway reaches its deadline.
type EndFunc func(messageID string)

// Engine tracks one timer per running giveaway, keyed by message id.
type Engine struct {
	mu     sync.Mutex
	clock  Clock
	timers map[string]Timer
	onEnd  EndFunc
}

func New(onEnd EndFunc) *Engine {
	return &Engine{
		clock:  realClock{},
		timers: make(map[string]Timer),
		onEnd:  onEnd,
	}
}

func (e *Engine) WithClock(clock Clock) {
	e.clock = clock
}

// Schedule arms a timer for the giveaway. An already-due deadline fires
// immediately. Rescheduling replaces the previous timer.
func (e *Engine) Schedule(messageID string, endsAt time.Time) {
	e.mu.Lock()
	if existing, ok := e.timers[messageID]; ok {
		existing.Stop()
	}
	delay := endsAt.Sub(e.clock.Now())
	if delay < 0 {
		delay = 0
	}
	e.timers[messageID] = e.clock.AfterFunc(delay, func() {
		e.mu.Lock()
		delete(e.timers, messageID)
		e.mu.Unlock()
		e.onEnd(messageID)
	})
	e.mu.Unlock()
}

// Cancel stops the timer for a giveaway ended manually.
func (e *Engine) Cancel(messageID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timer, ok := e.timers[messageID]; ok {
		timer.Stop()
		delete(e.timers, messageID)
	}
}

// Pending returns the number of armed timers.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// PickWinners draws up to count distinct entrants uniformly at random.
func PickWinners(rng *rand.Rand, entrants []string, count int) []string {
	if count <= 0 || len(entrants) == 0 {
		return nil
	}
	pool := dedupe(entrants)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}

// PickReroll draws count fresh winners, excluding everyone who already won.
func PickReroll(rng *rand.Rand, entrants, previousWinners []string, count int) []string {
	won := make(map[string]bool, len(previousWinners))
	for _, id := range previousWinners {
		won[id] = true
	}
	var eligible []string
	for _, id := range entrants {
		if !won[id] {
			eligible = append(eligible, id)
		}
	}
	return PickWinners(rng, eligible, count)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
