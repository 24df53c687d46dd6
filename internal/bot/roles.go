package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"guildhall/internal/modlog"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// canManageRole enforces role hierarchy for assignments: the actor's
// top role must sit above the role being handed out. The guild owner
// bypasses the check; managed (integration) roles are never assignable.
func (b *Bot) canManageRole(guild *discordgo.Guild, actor *discordgo.Member, role *discordgo.Role) bool {
	if guild == nil || actor == nil || actor.User == nil || role == nil {
		return false
	}
	if role.Managed {
		return false
	}
	if guild.OwnerID == actor.User.ID {
		return true
	}
	return b.topRolePosition(guild, actor) > role.Position
}

func (b *Bot) handleGiveRole(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) && interaction.Member.Permissions&discordgo.PermissionManageRoles == 0 {
		b.respondEmbed(session, interaction, b.errorEmbed("Give role", "You do not have permission to manage roles."), true)
		return
	}
	target := options.user("user", session)
	role := options.role("role", session, interaction.GuildID)
	if target == nil || role == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Give role", "Could not resolve that user or role."), true)
		return
	}
	guild, err := session.State.Guild(interaction.GuildID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Give role", "Guild state is unavailable."), true)
		return
	}
	bot, err := b.guildMember(session, interaction.GuildID, session.State.User.ID)
	if err != nil || !b.canManageRole(guild, bot, role) {
		b.respondEmbed(session, interaction, b.errorEmbed("Give role", "I cannot assign a role above my own."), true)
		return
	}
	if !b.canManageRole(guild, interaction.Member, role) {
		b.respondEmbed(session, interaction, b.errorEmbed("Give role", "You cannot assign a role at or above your own."), true)
		return
	}
	member, err := b.guildMember(session, interaction.GuildID, target.ID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Give role", "That user is not in the server."), true)
		return
	}
	if b.hasRole(member, role.ID) {
		b.respondEmbed(session, interaction, b.errorEmbed("Give role", fmt.Sprintf("<@%s> already has %s.", target.ID, role.Name)), true)
		return
	}

	if err := session.GuildMemberRoleAdd(interaction.GuildID, target.ID, role.ID); err != nil {
		b.logger.Warn("role add failed", zap.Error(err), zap.String("role_id", role.ID))
		b.respondEmbed(session, interaction, b.errorEmbed("Give role", "Discord refused the role change."), true)
		return
	}

	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "role granted",
		fmt.Sprintf("<@%s> gave %s to <@%s>", interactionUser(interaction).ID, role.Name, target.ID))
	b.respondEmbed(session, interaction, b.successEmbed("Role granted",
		fmt.Sprintf("Gave <@&%s> to <@%s>.", role.ID, target.ID), nil), true)
}

func (b *Bot) handleRemoveRole(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) && interaction.Member.Permissions&discordgo.PermissionManageRoles == 0 {
		b.respondEmbed(session, interaction, b.errorEmbed("Remove role", "You do not have permission to manage roles."), true)
		return
	}
	target := options.user("user", session)
	role := options.role("role", session, interaction.GuildID)
	if target == nil || role == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Remove role", "Could not resolve that user or role."), true)
		return
	}
	guild, err := session.State.Guild(interaction.GuildID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Remove role", "Guild state is unavailable."), true)
		return
	}
	bot, err := b.guildMember(session, interaction.GuildID, session.State.User.ID)
	if err != nil || !b.canManageRole(guild, bot, role) {
		b.respondEmbed(session, interaction, b.errorEmbed("Remove role", "I cannot remove a role above my own."), true)
		return
	}
	if !b.canManageRole(guild, interaction.Member, role) {
		b.respondEmbed(session, interaction, b.errorEmbed("Remove role", "You cannot remove a role at or above your own."), true)
		return
	}
	member, err := b.guildMember(session, interaction.GuildID, target.ID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Remove role", "That user is not in the server."), true)
		return
	}
	if !b.hasRole(member, role.ID) {
		b.respondEmbed(session, interaction, b.errorEmbed("Remove role", fmt.Sprintf("<@%s> does not have %s.", target.ID, role.Name)), true)
		return
	}

	if err := session.GuildMemberRoleRemove(interaction.GuildID, target.ID, role.ID); err != nil {
		b.logger.Warn("role remove failed", zap.Error(err), zap.String("role_id", role.ID))
		b.respondEmbed(session, interaction, b.errorEmbed("Remove role", "Discord refused the role change."), true)
		return
	}

	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "role revoked",
		fmt.Sprintf("<@%s> removed %s from <@%s>", interactionUser(interaction).ID, role.Name, target.ID))
	b.respondEmbed(session, interaction, b.successEmbed("Role revoked",
		fmt.Sprintf("Removed <@&%s> from <@%s>.", role.ID, target.ID), nil), true)
}

func (b *Bot) handleRoles(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	guild, err := session.State.Guild(interaction.GuildID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Roles", "Guild state is unavailable."), true)
		return
	}
	description := roleListing(guild.Roles)
	if description == "" {
		b.respondEmbed(session, interaction, b.errorEmbed("Roles", "No roles to display."), true)
		return
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Server roles", description, b.cfg.Embeds.Primary, nil), true)
}

// roleListing renders roles highest first, skipping @everyone, and
// truncates to fit an embed description.
func roleListing(roles []*discordgo.Role) string {
	sorted := make([]*discordgo.Role, 0, len(roles))
	for _, role := range roles {
		if role.Name == "@everyone" {
			continue
		}
		sorted = append(sorted, role)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position > sorted[j].Position })

	var lines []string
	total := 0
	for _, role := range sorted {
		line := fmt.Sprintf("<@&%s> (position %d)", role.ID, role.Position)
		if total+len(line)+1 > 2000 {
			break
		}
		lines = append(lines, line)
		total += len(line) + 1
	}
	return strings.Join(lines, "\n")
}
