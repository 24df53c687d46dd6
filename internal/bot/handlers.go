package bot

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
)

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func mapOptions(options []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	m := make(optionMap, len(options))
	for _, option := range options {
		m[option.Name] = option
	}
	return m
}

func (m optionMap) str(name string) string {
	if option, ok := m[name]; ok {
		return option.StringValue()
	}
	return ""
}

func (m optionMap) integer(name string, fallback int64) int64 {
	if option, ok := m[name]; ok {
		return option.IntValue()
	}
	return fallback
}

func (m optionMap) user(name string, session *discordgo.Session) *discordgo.User {
	if option, ok := m[name]; ok {
		return option.UserValue(session)
	}
	return nil
}

func (m optionMap) role(name string, session *discordgo.Session, guildID string) *discordgo.Role {
	if option, ok := m[name]; ok {
		return option.RoleValue(session, guildID)
	}
	return nil
}

func (m optionMap) channel(name string, session *discordgo.Session) *discordgo.Channel {
	if option, ok := m[name]; ok {
		return option.ChannelValue(session)
	}
	return nil
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx := context.Background()
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchCommand(ctx, session, interaction)
	case discordgo.InteractionMessageComponent:
		b.dispatchComponent(ctx, session, interaction)
	case discordgo.InteractionModalSubmit:
		b.dispatchModal(ctx, session, interaction)
	}
}

func (b *Bot) dispatchCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.GuildID == "" {
		b.respondEmbed(session, interaction, b.errorEmbed("Guild only", "This command only works inside the server."), true)
		return
	}

	data := interaction.ApplicationCommandData()
	options := mapOptions(data.Options)

	switch data.Name {
	case "ban":
		b.handleBan(ctx, session, interaction, options)
	case "kick":
		b.handleKick(ctx, session, interaction, options)
	case "mute":
		b.handleMute(ctx, session, interaction, options)
	case "unmute":
		b.handleUnmute(ctx, session, interaction, options)
	case "lockdown":
		b.handleLockdown(ctx, session, interaction, options)
	case "unlock":
		b.handleUnlock(ctx, session, interaction, options)
	case "antiraid":
		b.handleAntiRaid(ctx, session, interaction, options)
	case "clearserver":
		b.handleClearServer(ctx, session, interaction, options)
	case "setupticket":
		b.handleSetupTicket(ctx, session, interaction)
	case "closeticket":
		b.handleCloseTicket(ctx, session, interaction)
	case "closealltickets":
		b.handleCloseAllTickets(ctx, session, interaction)
	case "createslot":
		b.handleCreateSlot(ctx, session, interaction, options)
	case "closeslot":
		b.handleCloseSlot(ctx, session, interaction)
	case "restoreslot":
		b.handleRestoreSlot(ctx, session, interaction, data, options)
	case "giveaway":
		b.handleGiveaway(ctx, session, interaction, data.Options)
	case "setupvc":
		b.handleSetupVC(ctx, session, interaction)
	case "vclimit":
		b.handleVCLimit(ctx, session, interaction, options)
	case "vcname":
		b.handleVCName(ctx, session, interaction, options)
	case "vclock":
		b.handleVCLock(ctx, session, interaction, options)
	case "vouch":
		b.handleVouch(ctx, session, interaction, options)
	case "vouches":
		b.handleVouches(ctx, session, interaction, options)
	case "vouchstats":
		b.handleVouchStats(ctx, session, interaction)
	case "deletevouch":
		b.handleDeleteVouch(ctx, session, interaction, options)
	case "report":
		b.handleReport(ctx, session, interaction, options, false)
	case "praise":
		b.handleReport(ctx, session, interaction, options, true)
	case "status":
		b.handleStatus(ctx, session, interaction, options)
	case "reviewreport":
		b.handleReviewReport(ctx, session, interaction, options)
	case "setupwelcome":
		b.handleSetupWelcome(ctx, session, interaction)
	case "togglewelcome":
		b.handleToggleWelcome(ctx, session, interaction)
	case "statusstats":
		b.handleStatusStats(ctx, session, interaction)
	case "giverole":
		b.handleGiveRole(ctx, session, interaction, options)
	case "removerole":
		b.handleRemoveRole(ctx, session, interaction, options)
	case "roles":
		b.handleRoles(ctx, session, interaction)
	}
}

func (b *Bot) dispatchComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	customID := interaction.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, "ticket:"):
		b.handleTicketComponent(ctx, session, interaction, customID)
	case strings.HasPrefix(customID, "gw:"):
		b.handleGiveawayComponent(ctx, session, interaction, customID)
	case strings.HasPrefix(customID, "slot:"):
		b.handleSlotComponent(ctx, session, interaction, customID)
	case strings.HasPrefix(customID, "report:"):
		b.handleReportComponent(ctx, session, interaction, customID)
	case strings.HasPrefix(customID, "clear:"):
		b.handleClearComponent(ctx, session, interaction, customID)
	}
}

func (b *Bot) dispatchModal(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	customID := interaction.ModalSubmitData().CustomID
	switch {
	case strings.HasPrefix(customID, "ticket:modal:"):
		b.handleTicketModal(ctx, session, interaction, strings.TrimPrefix(customID, "ticket:modal:"))
	case strings.HasPrefix(customID, "report:warnmodal:"):
		b.handleReportWarnModal(ctx, session, interaction, strings.TrimPrefix(customID, "report:warnmodal:"))
	}
}

// modalValue digs a text input's value out of a modal submission.
func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionRow.Components {
			if input, ok := component.(*discordgo.TextInput); ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
