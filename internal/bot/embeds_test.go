package bot

import (
	"strings"
	"testing"

	"guildhall/internal/modlog"
	"guildhall/internal/storage"
)

func TestModActionEmbed(t *testing.T) {
	b := &Bot{}
	embed := b.modActionEmbed(modlog.LevelCrit, storage.ModerationAction{
		GuildID:     "g1",
		UserID:      "u1",
		ModeratorID: "m1",
		Action:      "ban",
		Reason:      "spam",
	})
	if embed.Title != "CRIT: ban" {
		t.Fatalf("unexpected title %q", embed.Title)
	}
	if strings.ContainsRune(embed.Title, '—') {
		t.Fatalf("title contains an em dash: %q", embed.Title)
	}
	if len(embed.Fields) != 3 {
		t.Fatalf("expected user, moderator and reason fields, got %d", len(embed.Fields))
	}
}
