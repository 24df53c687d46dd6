package bot

import (
	"fmt"
	"strings"
	"testing"

	"guildhall/internal/storage"

	"github.com/bwmarrin/discordgo"
)

func TestGiveawayOptionsCap(t *testing.T) {
	var candidates []storage.Giveaway
	for i := 0; i < 40; i++ {
		candidates = append(candidates, storage.Giveaway{
			MessageID: fmt.Sprintf("m%d", i),
			Prize:     fmt.Sprintf("prize %d", i),
		})
	}
	options := giveawayOptions(candidates)
	if len(options) != 25 {
		t.Fatalf("select menus hold at most 25 options, got %d", len(options))
	}
	if options[0].Value != "m0" || options[24].Value != "m24" {
		t.Fatalf("expected the first 25 candidates, got %s..%s", options[0].Value, options[24].Value)
	}
}

func TestEligibleEntrants(t *testing.T) {
	users := []*discordgo.User{
		{ID: "host"},
		{ID: "bot1", Bot: true},
		{ID: "u1"},
	}
	got := eligibleEntrants(users)
	if len(got) != 2 || got[0] != "host" || got[1] != "u1" {
		t.Fatalf("expected host and u1 eligible, got %v", got)
	}
}

func TestGiveawayOptionsTruncatesLabels(t *testing.T) {
	long := strings.Repeat("n", 200)
	options := giveawayOptions([]storage.Giveaway{{MessageID: "m1", Prize: long}})
	if len(options) != 1 {
		t.Fatalf("expected one option, got %d", len(options))
	}
	if len(options[0].Label) != 90 {
		t.Fatalf("expected label truncated to 90 chars, got %d", len(options[0].Label))
	}
}
