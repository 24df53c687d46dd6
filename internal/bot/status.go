package bot

import (
	"context"
	"fmt"

	"guildhall/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// onPresenceUpdate feeds status changes into the advertiser tracker and
// applies the implied role change right away.
func (b *Bot) onPresenceUpdate(session *discordgo.Session, event *discordgo.PresenceUpdate) {
	if b.cfg.Roles.Status == "" || event.User == nil || event.GuildID == "" {
		return
	}
	b.applyStatusChange(session, event.GuildID, event.User.ID, customStatus(&event.Presence))
}

// onGuildMemberRemove drops the leaver's tracker entry so a rejoin
// starts a fresh advertising streak.
func (b *Bot) onGuildMemberRemove(_ *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.User == nil {
		return
	}
	b.statuses.Forget(event.User.ID)
}

// sweepStatuses re-walks cached presences so members who were offline
// during their status change still converge to the right role.
func (b *Bot) sweepStatuses(_ context.Context) {
	if b.cfg.Roles.Status == "" {
		return
	}
	guild, err := b.session.State.Guild(b.cfg.GuildID)
	if err != nil {
		return
	}
	for _, presence := range guild.Presences {
		if presence == nil || presence.User == nil {
			continue
		}
		b.applyStatusChange(b.session, guild.ID, presence.User.ID, customStatus(presence))
	}
}

func (b *Bot) applyStatusChange(session *discordgo.Session, guildID, userID, status string) {
	change, ok := b.statuses.Observe(userID, status)
	if !ok {
		return
	}
	var err error
	if change.Add {
		err = session.GuildMemberRoleAdd(guildID, userID, b.cfg.Roles.Status)
	} else {
		err = session.GuildMemberRoleRemove(guildID, userID, b.cfg.Roles.Status)
	}
	if err != nil {
		b.logger.Warn("status role update failed", zap.Error(err),
			zap.String("user_id", userID), zap.Bool("add", change.Add))
	}
}

func customStatus(presence *discordgo.Presence) string {
	for _, activity := range presence.Activities {
		if activity != nil && activity.Type == discordgo.ActivityTypeCustom {
			return activity.State
		}
	}
	return ""
}

func (b *Bot) handleStatusStats(_ context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Status watch", "You need the staff role to use this."), true)
		return
	}
	if b.cfg.Roles.Status == "" || len(b.cfg.StatusWatch.InviteCodes) == 0 {
		b.respondEmbed(session, interaction, b.errorEmbed("Status watch", "Status rewards are not configured."), true)
		return
	}
	description := fmt.Sprintf("%d member(s) currently advertise the server in their status.", b.statuses.Count())
	var fields []*discordgo.MessageEmbedField
	if userID, streak, ok := b.statuses.Longest(); ok {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Longest streak",
			Value: fmt.Sprintf("<@%s> for %s", userID, utils.FormatDuration(streak)),
		})
	}
	b.respondEmbed(session, interaction, b.commandEmbed("Status watch", description, b.cfg.Embeds.Primary, fields), false)
}
