package bot

import (
	"github.com/bwmarrin/discordgo"
)

// isStaff allows members with the configured staff role or the
// Administrator permission.
func (b *Bot) isStaff(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if b.cfg.Roles.Staff == "" {
		return false
	}
	for _, roleID := range member.Roles {
		if roleID == b.cfg.Roles.Staff {
			return true
		}
	}
	return false
}

func (b *Bot) hasRole(member *discordgo.Member, roleID string) bool {
	if member == nil || roleID == "" {
		return false
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

// canActOn enforces role hierarchy: the actor's top role must be above
// the target's, the target must not be the owner, and self-targeting is
// refused.
func (b *Bot) canActOn(guildID string, actor *discordgo.Member, targetID string) bool {
	if actor == nil || actor.User == nil || actor.User.ID == targetID {
		return false
	}
	guild, err := b.session.State.Guild(guildID)
	if err != nil || guild == nil {
		return false
	}
	if guild.OwnerID == targetID {
		return false
	}
	if guild.OwnerID == actor.User.ID {
		return true
	}
	target, err := b.session.State.Member(guildID, targetID)
	if err != nil || target == nil {
		// Unknown members (not cached, possibly left) have no roles to
		// outrank.
		return true
	}
	return b.topRolePosition(guild, actor) > b.topRolePosition(guild, target)
}

func (b *Bot) topRolePosition(guild *discordgo.Guild, member *discordgo.Member) int {
	top := -1
	for _, roleID := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID == roleID && role.Position > top {
				top = role.Position
			}
		}
	}
	return top
}

// guildMember resolves a member from the state cache, falling back to
// the REST API.
func (b *Bot) guildMember(session *discordgo.Session, guildID, userID string) (*discordgo.Member, error) {
	if member, err := session.State.Member(guildID, userID); err == nil && member != nil {
		return member, nil
	}
	return session.GuildMember(guildID, userID)
}

func interactionUser(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}
