package bot

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func rolesGuild() *discordgo.Guild {
	return &discordgo.Guild{
		ID:      "g1",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "everyone", Name: "@everyone", Position: 0},
			{ID: "member", Name: "Member", Position: 1},
			{ID: "mod", Name: "Moderator", Position: 5},
			{ID: "admin", Name: "Admin", Position: 10},
			{ID: "botrole", Name: "Bot", Position: 7, Managed: true},
		},
	}
}

func TestCanManageRole(t *testing.T) {
	b := &Bot{}
	guild := rolesGuild()
	role := func(id string) *discordgo.Role {
		for _, r := range guild.Roles {
			if r.ID == id {
				return r
			}
		}
		t.Fatalf("no role %s", id)
		return nil
	}
	mod := &discordgo.Member{User: &discordgo.User{ID: "u-mod"}, Roles: []string{"mod"}}
	admin := &discordgo.Member{User: &discordgo.User{ID: "u-admin"}, Roles: []string{"admin"}}
	owner := &discordgo.Member{User: &discordgo.User{ID: "owner"}, Roles: []string{"member"}}

	if !b.canManageRole(guild, mod, role("member")) {
		t.Fatalf("moderator should manage roles below their own")
	}
	if b.canManageRole(guild, mod, role("mod")) {
		t.Fatalf("moderator must not manage their own role")
	}
	if b.canManageRole(guild, mod, role("admin")) {
		t.Fatalf("moderator must not manage roles above their own")
	}
	if !b.canManageRole(guild, admin, role("mod")) {
		t.Fatalf("admin should manage the moderator role")
	}
	if !b.canManageRole(guild, owner, role("admin")) {
		t.Fatalf("guild owner bypasses the hierarchy check")
	}
	if b.canManageRole(guild, admin, role("botrole")) {
		t.Fatalf("managed roles are never assignable")
	}
	if b.canManageRole(nil, admin, role("member")) || b.canManageRole(guild, nil, role("member")) {
		t.Fatalf("nil inputs must be refused")
	}
}

func TestRoleListing(t *testing.T) {
	listing := roleListing(rolesGuild().Roles)
	if strings.Contains(listing, "everyone") {
		t.Fatalf("@everyone must be skipped: %q", listing)
	}
	lines := strings.Split(listing, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 roles listed, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "<@&admin>") {
		t.Fatalf("expected highest role first, got %q", lines[0])
	}

	var many []*discordgo.Role
	for i := 0; i < 200; i++ {
		many = append(many, &discordgo.Role{ID: strings.Repeat("x", 16), Name: "filler", Position: i})
	}
	if got := roleListing(many); len(got) > 2000 {
		t.Fatalf("listing exceeds embed description limit: %d", len(got))
	}
}
