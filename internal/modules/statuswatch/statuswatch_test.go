package statuswatch

import (
	"testing"
	"time"
)

func TestMatches(t *testing.T) {
	codes := []string{"myserver", "abc123"}
	cases := []struct {
		status string
		want   bool
	}{
		{"join discord.gg/myserver now", true},
		{"join DISCORD.GG/MYSERVER now", true},
		{"discord.com/invite/abc123", true},
		{"best server .gg/myserver", true},
		{"discord.gg/otherserver", false},
		{"no invite here", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Matches(tc.status, codes); got != tc.want {
			t.Fatalf("Matches(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestMatchesNoCodes(t *testing.T) {
	if Matches("discord.gg/anything", nil) {
		t.Fatalf("no configured codes should never match")
	}
}

func TestTrackerTransitions(t *testing.T) {
	tracker := NewTracker([]string{"myserver"})

	change, ok := tracker.Observe("u1", "discord.gg/myserver")
	if !ok || !change.Add {
		t.Fatalf("expected add transition, got %+v ok=%v", change, ok)
	}

	// Same status again is not a transition.
	if _, ok := tracker.Observe("u1", "join discord.gg/myserver"); ok {
		t.Fatalf("repeat observation should not produce a change")
	}
	if tracker.Count() != 1 {
		t.Fatalf("expected 1 advertising member, got %d", tracker.Count())
	}

	change, ok = tracker.Observe("u1", "playing games")
	if !ok || change.Add {
		t.Fatalf("expected remove transition, got %+v ok=%v", change, ok)
	}
	if tracker.Count() != 0 {
		t.Fatalf("expected 0 advertising members, got %d", tracker.Count())
	}
}

func TestTrackerLongest(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	tracker := NewTracker([]string{"myserver"}).WithNow(func() time.Time { return current })

	if _, _, ok := tracker.Longest(); ok {
		t.Fatalf("empty tracker should have no streak")
	}

	tracker.Observe("u1", "discord.gg/myserver")
	current = base.Add(time.Hour)
	tracker.Observe("u2", "discord.gg/myserver")
	current = base.Add(3 * time.Hour)

	userID, streak, ok := tracker.Longest()
	if !ok || userID != "u1" {
		t.Fatalf("expected u1 to hold the longest streak, got %q ok=%v", userID, ok)
	}
	if streak != 3*time.Hour {
		t.Fatalf("expected 3h streak, got %s", streak)
	}
}

func TestTrackerForget(t *testing.T) {
	tracker := NewTracker([]string{"myserver"})
	tracker.Observe("u1", "discord.gg/myserver")

	if !tracker.Forget("u1") {
		t.Fatalf("expected forget to report member was advertising")
	}
	if tracker.Forget("u1") {
		t.Fatalf("second forget should report false")
	}
}
