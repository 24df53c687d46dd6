package giveaways

import (
	"math/rand"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	f        func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	stopped := t.stopped
	t.stopped = true
	return !stopped
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clock: c, deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, timer := range c.timers {
		if !timer.stopped && !timer.deadline.After(c.now) {
			timer.stopped = true
			due = append(due, timer)
		}
	}
	c.mu.Unlock()
	for _, timer := range due {
		timer.f()
	}
}

func TestScheduleFiresAtDeadline(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	var ended []string
	engine := New(func(messageID string) { ended = append(ended, messageID) })
	engine.WithClock(clock)

	engine.Schedule("m1", clock.Now().Add(time.Hour))
	if engine.Pending() != 1 {
		t.Fatalf("expected 1 pending timer")
	}

	clock.advance(30 * time.Minute)
	if len(ended) != 0 {
		t.Fatalf("giveaway ended early")
	}
	clock.advance(31 * time.Minute)
	if len(ended) != 1 || ended[0] != "m1" {
		t.Fatalf("expected m1 to end, got %v", ended)
	}
	if engine.Pending() != 0 {
		t.Fatalf("expected timer cleanup after firing")
	}
}

func TestSchedulePastDeadlineFiresImmediately(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	var ended []string
	engine := New(func(messageID string) { ended = append(ended, messageID) })
	engine.WithClock(clock)

	engine.Schedule("m1", clock.Now().Add(-time.Minute))
	clock.advance(0)
	if len(ended) != 1 {
		t.Fatalf("expected immediate end, got %v", ended)
	}
}

func TestCancelStopsTimer(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	var ended []string
	engine := New(func(messageID string) { ended = append(ended, messageID) })
	engine.WithClock(clock)

	engine.Schedule("m1", clock.Now().Add(time.Hour))
	engine.Cancel("m1")
	clock.advance(2 * time.Hour)
	if len(ended) != 0 {
		t.Fatalf("cancelled giveaway still ended: %v", ended)
	}
}

func TestPickWinners(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	entrants := []string{"u1", "u2", "u3", "u2", "u1"}

	winners := PickWinners(rng, entrants, 2)
	if len(winners) != 2 {
		t.Fatalf("expected 2 winners, got %v", winners)
	}
	if winners[0] == winners[1] {
		t.Fatalf("duplicate winner drawn: %v", winners)
	}

	all := PickWinners(rng, entrants, 10)
	if len(all) != 3 {
		t.Fatalf("expected all 3 distinct entrants, got %v", all)
	}

	if got := PickWinners(rng, nil, 2); got != nil {
		t.Fatalf("expected nil for no entrants, got %v", got)
	}
}

func TestPickRerollExcludesPreviousWinners(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	entrants := []string{"u1", "u2", "u3"}

	winners := PickReroll(rng, entrants, []string{"u1", "u2"}, 2)
	if len(winners) != 1 || winners[0] != "u3" {
		t.Fatalf("expected only u3 eligible, got %v", winners)
	}

	if got := PickReroll(rng, entrants, entrants, 1); got != nil {
		t.Fatalf("expected no eligible entrants, got %v", got)
	}
}
