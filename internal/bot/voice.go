package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guildhall/internal/modlog"
	"guildhall/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleSetupVC(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "You need the staff role to use this."), true)
		return
	}

	category, err := session.GuildChannelCreateComplex(interaction.GuildID, discordgo.GuildChannelCreateData{
		Name: "Voice Channels",
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Could not create the category."), true)
		return
	}
	hub, err := session.GuildChannelCreateComplex(interaction.GuildID, discordgo.GuildChannelCreateData{
		Name:     "➕ Join to Create",
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: category.ID,
	})
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Could not create the hub channel."), true)
		return
	}

	settings := b.guildSettings(ctx, interaction.GuildID)
	settings.JTCChannelID = hub.ID
	settings.JTCCategoryID = category.ID
	if !b.saveSettings(ctx, settings) {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Could not save the hub channel."), true)
		return
	}

	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "jtc_setup", "join-to-create hub created")
	b.respondEmbed(session, interaction, b.successEmbed("Voice", "Join-to-create hub is ready.", nil), false)
}

func (b *Bot) onVoiceStateUpdate(session *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.UserID == "" || event.GuildID == "" {
		return
	}
	ctx := context.Background()
	settings := b.guildSettings(ctx, event.GuildID)

	if settings.JTCChannelID != "" && event.ChannelID == settings.JTCChannelID {
		b.spawnTempVoice(ctx, session, event, settings)
	}

	// When someone leaves a temp channel, reap it if it emptied out.
	if event.BeforeUpdate != nil && event.BeforeUpdate.ChannelID != "" && event.BeforeUpdate.ChannelID != event.ChannelID {
		b.reapTempVoice(ctx, session, event.GuildID, event.BeforeUpdate.ChannelID)
	}
}

func (b *Bot) spawnTempVoice(ctx context.Context, session *discordgo.Session, event *discordgo.VoiceStateUpdate, settings storage.GuildSettings) {
	username := event.UserID
	if member, err := session.State.Member(event.GuildID, event.UserID); err == nil && member.User != nil {
		username = member.User.Username
	}

	channel, err := session.GuildChannelCreateComplex(event.GuildID, discordgo.GuildChannelCreateData{
		Name:     username + "'s Channel",
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: settings.JTCCategoryID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				ID:    event.UserID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionManageChannels | discordgo.PermissionVoiceMoveMembers | discordgo.PermissionVoiceConnect,
			},
		},
	})
	if err != nil {
		b.logger.Warn("create temp voice", zap.Error(err))
		return
	}
	if err := session.GuildMemberMove(event.GuildID, event.UserID, &channel.ID); err != nil {
		b.logger.Warn("move member to temp voice", zap.Error(err))
		_, _ = session.ChannelDelete(channel.ID)
		return
	}

	if err := b.store.AddTempVoice(ctx, storage.TempVoice{
		GuildID:   event.GuildID,
		ChannelID: channel.ID,
		OwnerID:   event.UserID,
		Active:    true,
		CreatedAt: time.Now(),
	}); err != nil {
		b.logger.Warn("persist temp voice", zap.Error(err))
	}
}

func (b *Bot) reapTempVoice(ctx context.Context, session *discordgo.Session, guildID, channelID string) {
	voice, err := b.store.GetTempVoice(ctx, guildID, channelID)
	if err != nil || !voice.Active {
		return
	}

	guild, err := session.State.Guild(guildID)
	if err != nil {
		return
	}
	for _, state := range guild.VoiceStates {
		if state.ChannelID == channelID {
			return // still occupied
		}
	}

	if _, err := session.ChannelDelete(channelID); err != nil {
		b.logger.Warn("delete temp voice", zap.Error(err), zap.String("channel_id", channelID))
	}
	if err := b.store.DeactivateTempVoice(ctx, guildID, channelID); err != nil {
		b.logger.Warn("deactivate temp voice", zap.Error(err))
	}
}

// ownedTempVoice resolves the temp channel the member currently owns and
// sits in.
func (b *Bot) ownedTempVoice(ctx context.Context, session *discordgo.Session, guildID, userID string) (storage.TempVoice, bool) {
	guild, err := session.State.Guild(guildID)
	if err != nil {
		return storage.TempVoice{}, false
	}
	for _, state := range guild.VoiceStates {
		if state.UserID != userID {
			continue
		}
		voice, err := b.store.GetTempVoice(ctx, guildID, state.ChannelID)
		if err != nil || !voice.Active || voice.OwnerID != userID {
			return storage.TempVoice{}, false
		}
		return voice, true
	}
	return storage.TempVoice{}, false
}

func (b *Bot) handleVCLimit(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	voice, ok := b.ownedTempVoice(ctx, session, interaction.GuildID, interactionUser(interaction).ID)
	if !ok {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Join a voice channel you own first."), true)
		return
	}
	limit := clampVoiceLimit(int(options.integer("limit", 0)))
	if _, err := session.ChannelEditComplex(voice.ChannelID, &discordgo.ChannelEdit{UserLimit: limit}); err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Could not change the limit."), true)
		return
	}
	b.respondEmbed(session, interaction, b.successEmbed("Voice", fmt.Sprintf("User limit set to %d.", limit), nil), true)
}

func (b *Bot) handleVCName(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	voice, ok := b.ownedTempVoice(ctx, session, interaction.GuildID, interactionUser(interaction).ID)
	if !ok {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Join a voice channel you own first."), true)
		return
	}
	name := clampVoiceName(options.str("name"))
	if name == "" {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Pick a name for the channel."), true)
		return
	}
	if _, err := session.ChannelEditComplex(voice.ChannelID, &discordgo.ChannelEdit{Name: name}); err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Could not rename the channel."), true)
		return
	}
	b.respondEmbed(session, interaction, b.successEmbed("Voice", "Channel renamed.", nil), true)
}

func (b *Bot) handleVCLock(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	voice, ok := b.ownedTempVoice(ctx, session, interaction.GuildID, interactionUser(interaction).ID)
	if !ok {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Join a voice channel you own first."), true)
		return
	}
	lock := options.str("mode") == "lock"
	var err error
	if lock {
		err = session.ChannelPermissionSet(voice.ChannelID, interaction.GuildID, discordgo.PermissionOverwriteTypeRole, 0, discordgo.PermissionVoiceConnect)
	} else {
		err = session.ChannelPermissionDelete(voice.ChannelID, interaction.GuildID)
	}
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Voice", "Could not update the channel."), true)
		return
	}
	state := "unlocked"
	if lock {
		state = "locked"
	}
	b.respondEmbed(session, interaction, b.successEmbed("Voice", "Channel "+state+".", nil), true)
}

// clampVoiceLimit folds a requested user limit into Discord's 0-99
// range, 0 meaning unlimited.
func clampVoiceLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > 99 {
		return 99
	}
	return limit
}

// clampVoiceName trims a requested channel name to Discord's 100
// character cap, keeping rune boundaries intact.
func clampVoiceName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return strings.TrimSpace(string(runes))
}
