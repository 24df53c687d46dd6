package slots

import (
	"testing"
	"time"
)

func TestDetectPing(t *testing.T) {
	cases := []struct {
		name            string
		content         string
		mentionEveryone bool
		want            string
	}{
		{"plain message", "selling nitro cheap", false, PingNone},
		{"everyone literal", "big restock @everyone", false, PingEveryone},
		{"here literal", "restock @here", false, PingHere},
		{"gateway flag only", "restock", true, PingEveryone},
		{"here with flag", "restock @here", true, PingHere},
		{"everyone beats here", "@everyone and @here", false, PingEveryone},
	}
	for _, tc := range cases {
		if got := DetectPing(tc.content, tc.mentionEveryone); got != tc.want {
			t.Fatalf("%s: DetectPing = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExhausted(t *testing.T) {
	cases := []struct {
		name                         string
		eQuota, eUsed, hQuota, hUsed int
		want                         bool
	}{
		{"fresh slot", 3, 0, 5, 0, false},
		{"everyone spent, here left", 3, 3, 5, 2, false},
		{"here spent, everyone left", 3, 1, 5, 5, false},
		{"both spent", 3, 3, 5, 5, true},
		{"zero here pool counts as spent", 1, 1, 0, 0, true},
		{"last everyone ping with empty here pool", 2, 1, 0, 0, false},
	}
	for _, tc := range cases {
		if got := Exhausted(tc.eQuota, tc.eUsed, tc.hQuota, tc.hUsed); got != tc.want {
			t.Fatalf("%s: Exhausted = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName("Alice99"); got != "slot-alice99" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := ChannelName("!!!"); got != "slot-member" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	expires := time.Unix(1700086400, 0)
	backup := NewBackup("g1", "u1", "slot-alice", 3, 1, 5, 2, expires)

	data, err := backup.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBackup(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.OwnerID != "u1" || got.EveryoneQuota != 3 || got.HereUsed != 2 {
		t.Fatalf("unexpected backup %+v", got)
	}
	if got.ExpiresAt != expires.Unix() {
		t.Fatalf("unexpected expiry %d", got.ExpiresAt)
	}
}

func TestDecodeBackupRejectsBadPayloads(t *testing.T) {
	if _, err := DecodeBackup([]byte("not json")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := DecodeBackup([]byte(`{"version":9,"owner_id":"u1"}`)); err == nil {
		t.Fatalf("expected version error")
	}
	if _, err := DecodeBackup([]byte(`{"version":1}`)); err == nil {
		t.Fatalf("expected missing owner error")
	}
	if _, err := DecodeBackup([]byte(`{"version":1,"owner_id":"u1","everyone_quota":-1}`)); err == nil {
		t.Fatalf("expected negative quota error")
	}
}

func TestDecodeBackupClampsUsage(t *testing.T) {
	got, err := DecodeBackup([]byte(`{"version":1,"owner_id":"u1","everyone_quota":2,"everyone_used":9,"here_quota":1,"here_used":4}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EveryoneUsed != 2 || got.HereUsed != 1 {
		t.Fatalf("expected usage clamped to quota, got %+v", got)
	}
	if got.ChannelName != "slot-restored" {
		t.Fatalf("expected default channel name, got %q", got.ChannelName)
	}
}
