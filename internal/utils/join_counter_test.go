package utils

import (
	"testing"
	"time"
)

func TestJoinCounterWindow(t *testing.T) {
	counter := NewJoinCounter(10 * time.Second)
	base := time.Now()

	if got := counter.Record(base); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := counter.Record(base.Add(2 * time.Second)); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := counter.Record(base.Add(15 * time.Second)); got != 1 {
		t.Fatalf("expected old entries expired, got %d", got)
	}
}

func TestJoinCounterCountDoesNotRecord(t *testing.T) {
	counter := NewJoinCounter(time.Minute)
	base := time.Now()

	counter.Record(base)
	if got := counter.Count(base.Add(time.Second)); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := counter.Count(base.Add(2 * time.Second)); got != 1 {
		t.Fatalf("count should not add entries, got %d", got)
	}
}
