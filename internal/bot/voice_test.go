package bot

import (
	"strings"
	"testing"
)

func TestClampVoiceLimit(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 0},
		{0, 0},
		{10, 10},
		{99, 99},
		{250, 99},
	}
	for _, tc := range cases {
		if got := clampVoiceLimit(tc.in); got != tc.want {
			t.Fatalf("clampVoiceLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestClampVoiceName(t *testing.T) {
	if got := clampVoiceName("  chill zone  "); got != "chill zone" {
		t.Fatalf("unexpected name %q", got)
	}
	long := strings.Repeat("a", 150)
	if got := clampVoiceName(long); len([]rune(got)) != 100 {
		t.Fatalf("expected 100 runes, got %d", len([]rune(got)))
	}
	wide := strings.Repeat("é", 150)
	if got := clampVoiceName(wide); len([]rune(got)) != 100 {
		t.Fatalf("expected rune-boundary truncation, got %d runes", len([]rune(got)))
	}
}
