package vouch

import (
	"testing"
	"time"
)

func TestCooldownWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cooldowns := NewCooldowns(time.Hour).WithNow(func() time.Time { return now })

	if remaining := cooldowns.Remaining("v1"); remaining != 0 {
		t.Fatalf("fresh voucher should have no cooldown, got %v", remaining)
	}

	cooldowns.Record("v1")
	now = now.Add(30 * time.Minute)
	if remaining := cooldowns.Remaining("v1"); remaining != 30*time.Minute {
		t.Fatalf("expected 30m remaining, got %v", remaining)
	}

	now = now.Add(31 * time.Minute)
	if remaining := cooldowns.Remaining("v1"); remaining != 0 {
		t.Fatalf("cooldown should have expired, got %v", remaining)
	}
}

func TestCooldownsIndependentPerVoucher(t *testing.T) {
	now := time.Unix(1700000000, 0)
	cooldowns := NewCooldowns(time.Hour).WithNow(func() time.Time { return now })

	cooldowns.Record("v1")
	if remaining := cooldowns.Remaining("v2"); remaining != 0 {
		t.Fatalf("v2 should be unaffected by v1, got %v", remaining)
	}
}
