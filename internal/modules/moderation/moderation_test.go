package moderation

import (
	"testing"
	"time"
)

func TestClampMute(t *testing.T) {
	if got := ClampMute(40 * 24 * time.Hour); got != MaxMuteDuration {
		t.Fatalf("expected cap at %v, got %v", MaxMuteDuration, got)
	}
	if got := ClampMute(10 * time.Second); got != time.Minute {
		t.Fatalf("expected floor of 1m, got %v", got)
	}
	if got := ClampMute(2 * time.Hour); got != 2*time.Hour {
		t.Fatalf("in-range value changed: %v", got)
	}
}

func TestClampDeleteDays(t *testing.T) {
	cases := []struct{ in, want int }{
		{-3, 0}, {0, 0}, {5, 5}, {7, 7}, {30, 7},
	}
	for _, tc := range cases {
		if got := ClampDeleteDays(tc.in); got != tc.want {
			t.Fatalf("ClampDeleteDays(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestProtectedChannel(t *testing.T) {
	protected := []string{"ticket-alice-support", "welcome", "mod-log", "server-rules", "INFO-board", "announcements"}
	for _, name := range protected {
		if !ProtectedChannel(name) {
			t.Fatalf("%q should be protected", name)
		}
	}
	if ProtectedChannel("general") {
		t.Fatalf("general should not be protected")
	}
}

func TestProtectedRole(t *testing.T) {
	for _, name := range []string{"Admin", "moderator", "Staff Team", "Server Owner", "Music Bot"} {
		if !ProtectedRole(name) {
			t.Fatalf("%q should be protected", name)
		}
	}
	if ProtectedRole("Member") {
		t.Fatalf("Member should not be protected")
	}
}

func TestParseFilter(t *testing.T) {
	f := ParseFilter("category: Trading ")
	if f.Category != "trading" || f.Prefix != "" {
		t.Fatalf("unexpected filter %+v", f)
	}

	f = ParseFilter("prefix:slot-")
	if f.Prefix != "slot-" || f.Category != "" {
		t.Fatalf("unexpected filter %+v", f)
	}

	f = ParseFilter("everything")
	if f.Category != "" || f.Prefix != "" {
		t.Fatalf("expected empty filter, got %+v", f)
	}
}

func TestMatchChannel(t *testing.T) {
	if !(Filter{}).MatchChannel("general", "Main") {
		t.Fatalf("empty filter should match everything")
	}
	category := Filter{Category: "trading"}
	if !category.MatchChannel("anything", "Trading Zone") {
		t.Fatalf("category filter should match by parent name")
	}
	if category.MatchChannel("anything", "Voice") {
		t.Fatalf("category filter matched wrong parent")
	}
	prefix := Filter{Prefix: "slot-"}
	if !prefix.MatchChannel("SLOT-alice", "") {
		t.Fatalf("prefix filter should be case insensitive")
	}
	if prefix.MatchChannel("general", "") {
		t.Fatalf("prefix filter matched wrong channel")
	}
}
