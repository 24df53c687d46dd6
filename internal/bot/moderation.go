package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guildhall/internal/modlog"
	"guildhall/internal/modules/moderation"
	"guildhall/internal/storage"
	"guildhall/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleBan(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Ban", "You need the staff role to use this."), true)
		return
	}
	target := options.user("user", session)
	if target == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Ban", "Could not resolve that user."), true)
		return
	}
	if !b.canActOn(interaction.GuildID, interaction.Member, target.ID) {
		b.respondEmbed(session, interaction, b.errorEmbed("Ban", "You cannot act on that member."), true)
		return
	}

	reason := options.str("reason")
	deleteDays := moderation.ClampDeleteDays(int(options.integer("delete_days", 0)))

	// DM before the ban lands, while the DM channel can still be opened.
	b.dmUser(target.ID, fmt.Sprintf("You were banned from the server. Reason: %s", orDefault(reason, "none given")))

	if err := session.GuildBanCreateWithReason(interaction.GuildID, target.ID, reason, deleteDays); err != nil {
		b.logger.Warn("ban failed", zap.Error(err), zap.String("user_id", target.ID))
		b.respondEmbed(session, interaction, b.errorEmbed("Ban", "Discord refused the ban."), true)
		return
	}

	b.modlog.Action(ctx, modlog.LevelCrit, storage.ModerationAction{
		GuildID:     interaction.GuildID,
		UserID:      target.ID,
		ModeratorID: interactionUser(interaction).ID,
		Action:      "ban",
		Reason:      reason,
	})
	b.respondEmbed(session, interaction, b.successEmbed("Ban", fmt.Sprintf("<@%s> was banned.", target.ID), nil), false)
}

func (b *Bot) handleKick(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Kick", "You need the staff role to use this."), true)
		return
	}
	target := options.user("user", session)
	if target == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Kick", "Could not resolve that user."), true)
		return
	}
	if !b.canActOn(interaction.GuildID, interaction.Member, target.ID) {
		b.respondEmbed(session, interaction, b.errorEmbed("Kick", "You cannot act on that member."), true)
		return
	}

	reason := options.str("reason")
	b.dmUser(target.ID, fmt.Sprintf("You were kicked from the server. Reason: %s", orDefault(reason, "none given")))

	if err := session.GuildMemberDeleteWithReason(interaction.GuildID, target.ID, reason); err != nil {
		b.logger.Warn("kick failed", zap.Error(err), zap.String("user_id", target.ID))
		b.respondEmbed(session, interaction, b.errorEmbed("Kick", "Discord refused the kick."), true)
		return
	}

	b.modlog.Action(ctx, modlog.LevelWarn, storage.ModerationAction{
		GuildID:     interaction.GuildID,
		UserID:      target.ID,
		ModeratorID: interactionUser(interaction).ID,
		Action:      "kick",
		Reason:      reason,
	})
	b.respondEmbed(session, interaction, b.successEmbed("Kick", fmt.Sprintf("<@%s> was kicked.", target.ID), nil), false)
}

func (b *Bot) handleMute(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Mute", "You need the staff role to use this."), true)
		return
	}
	target := options.user("user", session)
	if target == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Mute", "Could not resolve that user."), true)
		return
	}
	if !b.canActOn(interaction.GuildID, interaction.Member, target.ID) {
		b.respondEmbed(session, interaction, b.errorEmbed("Mute", "You cannot act on that member."), true)
		return
	}

	duration, err := utils.ParseDuration(options.str("duration"))
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Mute", "Use a duration like 30s, 10m, 2h or 7d."), true)
		return
	}
	duration = moderation.ClampMute(duration)
	until := time.Now().Add(duration)

	if err := session.GuildMemberTimeout(interaction.GuildID, target.ID, &until); err != nil {
		b.logger.Warn("mute failed", zap.Error(err), zap.String("user_id", target.ID))
		b.respondEmbed(session, interaction, b.errorEmbed("Mute", "Discord refused the timeout."), true)
		return
	}

	reason := options.str("reason")
	b.modlog.Action(ctx, modlog.LevelWarn, storage.ModerationAction{
		GuildID:         interaction.GuildID,
		UserID:          target.ID,
		ModeratorID:     interactionUser(interaction).ID,
		Action:          "mute",
		Reason:          reason,
		DurationSeconds: int64(duration.Seconds()),
	})
	b.respondEmbed(session, interaction, b.successEmbed("Mute",
		fmt.Sprintf("<@%s> is muted for %s (until %s).", target.ID, utils.FormatDuration(duration), utils.Timestamp(until, "f")), nil), false)
}

func (b *Bot) handleUnmute(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Unmute", "You need the staff role to use this."), true)
		return
	}
	target := options.user("user", session)
	if target == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Unmute", "Could not resolve that user."), true)
		return
	}

	if err := session.GuildMemberTimeout(interaction.GuildID, target.ID, nil); err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Unmute", "Discord refused to clear the timeout."), true)
		return
	}

	b.modlog.Action(ctx, modlog.LevelInfo, storage.ModerationAction{
		GuildID:     interaction.GuildID,
		UserID:      target.ID,
		ModeratorID: interactionUser(interaction).ID,
		Action:      "unmute",
	})
	b.respondEmbed(session, interaction, b.successEmbed("Unmute", fmt.Sprintf("<@%s> can talk again.", target.ID), nil), false)
}

const lockdownDeny = discordgo.PermissionSendMessages | discordgo.PermissionAddReactions

func (b *Bot) handleLockdown(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Lockdown", "You need the staff role to use this."), true)
		return
	}

	reason := options.str("reason")
	moderator := interactionUser(interaction).ID

	var targets []*discordgo.Channel
	if channel := options.channel("channel", session); channel != nil {
		targets = []*discordgo.Channel{channel}
	} else {
		channels, err := session.GuildChannels(interaction.GuildID)
		if err != nil {
			b.respondEmbed(session, interaction, b.errorEmbed("Lockdown", "Could not list channels."), true)
			return
		}
		for _, channel := range channels {
			if channel != nil && (channel.Type == discordgo.ChannelTypeGuildText || channel.Type == discordgo.ChannelTypeGuildNews) {
				targets = append(targets, channel)
			}
		}
	}

	locked := 0
	for _, channel := range targets {
		if b.lockChannel(ctx, session, interaction.GuildID, channel, moderator, reason) {
			locked++
		}
	}

	b.modlog.Event(ctx, modlog.LevelCrit, interaction.GuildID, "lockdown", fmt.Sprintf("%d channel(s) locked. %s", locked, reason))
	b.respondEmbed(session, interaction, b.successEmbed("Lockdown", fmt.Sprintf("Locked %d channel(s).", locked), nil), false)
}

// lockChannel snapshots the @everyone overwrite before denying sends,
// so unlock can restore exactly what was there.
func (b *Bot) lockChannel(ctx context.Context, session *discordgo.Session, guildID string, channel *discordgo.Channel, moderator, reason string) bool {
	if _, err := b.store.GetChannelLock(ctx, guildID, channel.ID); err == nil {
		return false // already locked
	}

	lock := storage.ChannelLock{
		GuildID:   guildID,
		ChannelID: channel.ID,
		LockedBy:  moderator,
		Reason:    reason,
		LockedAt:  time.Now(),
	}
	var allow, deny int64
	for _, overwrite := range channel.PermissionOverwrites {
		if overwrite.Type == discordgo.PermissionOverwriteTypeRole && overwrite.ID == guildID {
			lock.HadOverwrite = true
			lock.Allow = overwrite.Allow
			lock.Deny = overwrite.Deny
			allow = overwrite.Allow
			deny = overwrite.Deny
			break
		}
	}

	if err := session.ChannelPermissionSet(channel.ID, guildID, discordgo.PermissionOverwriteTypeRole, allow&^lockdownDeny, deny|lockdownDeny); err != nil {
		b.logger.Warn("lock channel failed", zap.Error(err), zap.String("channel_id", channel.ID))
		return false
	}
	if err := b.store.SaveChannelLock(ctx, lock); err != nil {
		b.logger.Warn("persist channel lock failed", zap.Error(err))
	}
	return true
}

func (b *Bot) handleUnlock(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Unlock", "You need the staff role to use this."), true)
		return
	}

	var locks []storage.ChannelLock
	if channel := options.channel("channel", session); channel != nil {
		lock, err := b.store.GetChannelLock(ctx, interaction.GuildID, channel.ID)
		if err != nil {
			b.respondEmbed(session, interaction, b.errorEmbed("Unlock", "That channel is not locked."), true)
			return
		}
		locks = []storage.ChannelLock{lock}
	} else {
		all, err := b.store.ListChannelLocks(ctx, interaction.GuildID)
		if err != nil || len(all) == 0 {
			b.respondEmbed(session, interaction, b.errorEmbed("Unlock", "No locked channels."), true)
			return
		}
		locks = all
	}

	restored := 0
	for _, lock := range locks {
		if b.unlockChannel(ctx, session, lock) {
			restored++
		}
	}

	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "unlock", fmt.Sprintf("%d channel(s) restored", restored))
	b.respondEmbed(session, interaction, b.successEmbed("Unlock", fmt.Sprintf("Restored %d channel(s).", restored), nil), false)
}

func (b *Bot) unlockChannel(ctx context.Context, session *discordgo.Session, lock storage.ChannelLock) bool {
	var err error
	if lock.HadOverwrite {
		err = session.ChannelPermissionSet(lock.ChannelID, lock.GuildID, discordgo.PermissionOverwriteTypeRole, lock.Allow, lock.Deny)
	} else {
		err = session.ChannelPermissionDelete(lock.ChannelID, lock.GuildID)
	}
	if err != nil {
		b.logger.Warn("unlock channel failed", zap.Error(err), zap.String("channel_id", lock.ChannelID))
		return false
	}
	if err := b.store.DeleteChannelLock(ctx, lock.GuildID, lock.ChannelID); err != nil {
		b.logger.Warn("delete channel lock failed", zap.Error(err))
	}
	return true
}

func (b *Bot) handleAntiRaid(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Anti-raid", "You need the staff role to use this."), true)
		return
	}

	settings := b.guildSettings(ctx, interaction.GuildID)
	settings.AntiRaidEnabled = options.str("mode") == "on"
	if minAge := options.integer("min_age_days", 0); minAge > 0 {
		settings.MinAccountAgeDays = int(minAge)
	}
	if !b.saveSettings(ctx, settings) {
		b.respondEmbed(session, interaction, b.errorEmbed("Anti-raid", "Could not save the setting."), true)
		return
	}

	state := "disabled"
	if settings.AntiRaidEnabled {
		state = fmt.Sprintf("enabled (minimum account age %d days)", settings.MinAccountAgeDays)
	}
	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "antiraid", state)
	b.respondEmbed(session, interaction, b.successEmbed("Anti-raid",
		fmt.Sprintf("Anti-raid is now %s. %d join(s) in the current window.", state, b.antiraid.JoinRate()), nil), false)
}

func (b *Bot) handleClearServer(_ context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if interaction.Member == nil || interaction.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		b.respondEmbed(session, interaction, b.errorEmbed("Clear server", "Administrator permission required."), true)
		return
	}

	filter := strings.TrimSpace(options.str("filter"))
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{b.commandEmbed("Clear server",
				"This deletes channels and roles, keeping protected ones. Are you sure?",
				b.cfg.Embeds.Warning, nil)},
			Flags: discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Wipe it", Style: discordgo.DangerButton, CustomID: "clear:confirm:" + filter},
					discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: "clear:cancel"},
				}},
			},
		},
	})
}

func (b *Bot) handleClearComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	if customID == "clear:cancel" {
		b.respond(session, interaction, "Cancelled.", true)
		return
	}
	if interaction.Member == nil || interaction.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		b.respond(session, interaction, "Administrator permission required.", true)
		return
	}

	filter := moderation.ParseFilter(strings.TrimPrefix(customID, "clear:confirm:"))
	b.respond(session, interaction, "Wiping now. This takes a while.", true)

	go b.clearServer(ctx, session, interaction.GuildID, filter)
}

// clearServer deletes unprotected channels and roles with pacing so the
// rate limiter does not stall the gateway.
func (b *Bot) clearServer(ctx context.Context, session *discordgo.Session, guildID string, filter moderation.Filter) {
	pace := time.Duration(b.cfg.Moderation.ClearPaceMillis) * time.Millisecond
	if pace <= 0 {
		pace = 500 * time.Millisecond
	}

	channels, err := session.GuildChannels(guildID)
	if err != nil {
		b.logger.Warn("clear server: list channels", zap.Error(err))
		return
	}
	categories := make(map[string]string)
	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildCategory {
			categories[channel.ID] = channel.Name
		}
	}

	deletedChannels := 0
	for _, channel := range channels {
		if channel == nil || moderation.ProtectedChannel(channel.Name) {
			continue
		}
		if !filter.MatchChannel(channel.Name, categories[channel.ParentID]) {
			continue
		}
		if _, err := session.ChannelDelete(channel.ID); err != nil {
			b.logger.Warn("clear server: delete channel", zap.Error(err), zap.String("channel", channel.Name))
			continue
		}
		deletedChannels++
		time.Sleep(pace)
	}

	deletedRoles := 0
	// Role wipe only applies on a full wipe; a filtered wipe is a
	// channel-tree operation.
	if filter == (moderation.Filter{}) {
		roles, err := session.GuildRoles(guildID)
		if err != nil {
			b.logger.Warn("clear server: list roles", zap.Error(err))
		} else {
			for _, role := range roles {
				if role == nil || role.Managed || role.ID == guildID || moderation.ProtectedRole(role.Name) {
					continue
				}
				if err := session.GuildRoleDelete(guildID, role.ID); err != nil {
					b.logger.Warn("clear server: delete role", zap.Error(err), zap.String("role", role.Name))
					continue
				}
				deletedRoles++
				time.Sleep(pace)
			}
		}
	}

	b.modlog.Event(ctx, modlog.LevelCrit, guildID, "clearserver",
		fmt.Sprintf("%d channels and %d roles deleted", deletedChannels, deletedRoles))
}

func (b *Bot) onGuildMemberAdd(session *discordgo.Session, event *discordgo.GuildMemberAdd) {
	if event.Member == nil || event.Member.User == nil {
		return
	}
	ctx := context.Background()
	guildID := event.Member.GuildID
	user := event.Member.User
	settings := b.guildSettings(ctx, guildID)

	if count, surge := b.antiraid.RecordJoin(); surge && !settings.AntiRaidEnabled {
		settings.AntiRaidEnabled = true
		b.saveSettings(ctx, settings)
		b.modlog.Event(ctx, modlog.LevelCrit, guildID, "antiraid",
			fmt.Sprintf("join surge detected (%d joins), gate enabled automatically", count))
	}

	if settings.AntiRaidEnabled {
		created, err := discordgo.SnowflakeTimestamp(user.ID)
		if err == nil && b.antiraid.TooYoung(created, settings.MinAccountAgeDays) {
			b.dmUser(user.ID, fmt.Sprintf("Your account is too new to join this server. Try again once it is %d days old.", settings.MinAccountAgeDays))
			if err := session.GuildMemberDeleteWithReason(guildID, user.ID, "account below minimum age"); err != nil {
				b.logger.Warn("antiraid kick failed", zap.Error(err), zap.String("user_id", user.ID))
			} else {
				b.modlog.Action(ctx, modlog.LevelWarn, storage.ModerationAction{
					GuildID: guildID,
					UserID:  user.ID,
					Action:  "antiraid_kick",
					Reason:  "account below minimum age",
				})
			}
			return
		}
	}

	b.sendWelcome(ctx, session, settings, user)
}

func (b *Bot) dmUser(userID, content string) {
	dm, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return
	}
	_, _ = b.session.ChannelMessageSend(dm.ID, content)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
