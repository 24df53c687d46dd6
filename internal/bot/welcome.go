package bot

import (
	"context"
	"fmt"

	"guildhall/internal/storage"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleSetupWelcome(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Welcome", "You need the staff role to use this."), true)
		return
	}
	settings := b.guildSettings(ctx, interaction.GuildID)
	settings.WelcomeChannelID = interaction.ChannelID
	settings.WelcomeEnabled = true
	if !b.saveSettings(ctx, settings) {
		b.respondEmbed(session, interaction, b.errorEmbed("Welcome", "Could not save the channel."), true)
		return
	}
	b.respondEmbed(session, interaction, b.successEmbed("Welcome", "New members will be greeted here.", nil), false)
	// Preview so staff can see what arrivals get.
	b.sendWelcome(ctx, session, settings, interactionUser(interaction))
}

func (b *Bot) handleToggleWelcome(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Welcome", "You need the staff role to use this."), true)
		return
	}
	settings := b.guildSettings(ctx, interaction.GuildID)
	if settings.WelcomeChannelID == "" {
		b.respondEmbed(session, interaction, b.errorEmbed("Welcome", "Run /setupwelcome in a channel first."), true)
		return
	}
	settings.WelcomeEnabled = !settings.WelcomeEnabled
	if !b.saveSettings(ctx, settings) {
		b.respondEmbed(session, interaction, b.errorEmbed("Welcome", "Could not save the setting."), true)
		return
	}
	state := "disabled"
	if settings.WelcomeEnabled {
		state = "enabled"
	}
	b.respondEmbed(session, interaction, b.successEmbed("Welcome", "Welcome messages "+state+".", nil), false)
}

func (b *Bot) sendWelcome(_ context.Context, session *discordgo.Session, settings storage.GuildSettings, user *discordgo.User) {
	if !settings.WelcomeEnabled || settings.WelcomeChannelID == "" {
		return
	}
	memberCount := 0
	if guild, err := session.State.Guild(settings.GuildID); err == nil {
		memberCount = guild.MemberCount
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Welcome!",
		Description: fmt.Sprintf("Glad to have you, <@%s>. You are member #%d.", user.ID, memberCount),
		Color:       b.cfg.Embeds.Primary,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("256")},
	}
	_, _ = session.ChannelMessageSendEmbed(settings.WelcomeChannelID, embed)
}
