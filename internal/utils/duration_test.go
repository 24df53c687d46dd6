package utils

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"2h", 2 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"45s", 45 * time.Second},
		{" 1D ", 24 * time.Hour},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q: got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseDurationRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "10", "h", "1w", "1h30m", "-5m"} {
		if _, err := ParseDuration(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{5*time.Minute + 20*time.Second, "5m 20s"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Fatalf("format %v: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	at := time.Unix(1700000000, 0)
	if got := Timestamp(at, "R"); got != "<t:1700000000:R>" {
		t.Fatalf("unexpected timestamp %q", got)
	}
	if got := Timestamp(at, ""); got != "<t:1700000000:f>" {
		t.Fatalf("unexpected default style %q", got)
	}
}
