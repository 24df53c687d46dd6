package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"guildhall/internal/modlog"
	"guildhall/internal/modules/slots"
	"guildhall/internal/storage"
	"guildhall/internal/transcript"
	"guildhall/internal/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

func (b *Bot) handleCreateSlot(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "You need the staff role to use this."), true)
		return
	}
	owner := options.user("user", session)
	if owner == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Could not resolve that user."), true)
		return
	}
	days := int(options.integer("days", 7))
	if days <= 0 {
		days = 7
	}
	everyoneQuota := int(options.integer("everyone_pings", 0))
	hereQuota := int(options.integer("here_pings", 0))

	if existing, err := b.store.ListActiveSlots(ctx, interaction.GuildID); err == nil {
		for _, slot := range existing {
			if slot.UserID == owner.ID {
				b.respondEmbed(session, interaction, b.errorEmbed("Slots", "That member already has an active slot."), true)
				return
			}
		}
	}

	categoryID, err := b.ensureCategory(ctx, session, interaction.GuildID, b.cfg.Slots.CategoryName, func(settings *storage.GuildSettings, id string) {
		settings.SlotCategoryID = id
	})
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Could not prepare the slot category."), true)
		return
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: interaction.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Allow: discordgo.PermissionViewChannel, Deny: discordgo.PermissionSendMessages},
		{ID: owner.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionMentionEveryone},
	}
	channel, err := session.GuildChannelCreateComplex(interaction.GuildID, discordgo.GuildChannelCreateData{
		Name:                 slots.ChannelName(owner.Username),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		b.logger.Warn("create slot channel", zap.Error(err))
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Could not create the slot channel."), true)
		return
	}

	expiresAt := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	if _, err := b.store.CreateSlot(ctx, storage.Slot{
		GuildID:       interaction.GuildID,
		ChannelID:     channel.ID,
		UserID:        owner.ID,
		EveryoneQuota: everyoneQuota,
		HereQuota:     hereQuota,
		CreatedAt:     time.Now(),
		ExpiresAt:     expiresAt,
	}); err != nil {
		b.logger.Warn("persist slot", zap.Error(err))
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Owner", Value: "<@" + owner.ID + ">", Inline: true},
		{Name: "Expires", Value: utils.Timestamp(expiresAt, "R"), Inline: true},
		{Name: "@everyone pings", Value: fmt.Sprintf("%d", everyoneQuota), Inline: true},
		{Name: "@here pings", Value: fmt.Sprintf("%d", hereQuota), Inline: true},
	}
	_, _ = session.ChannelMessageSendEmbed(channel.ID, b.commandEmbed("Slot opened", "This channel is yours. Mind the ping quota.", b.cfg.Embeds.Primary, fields))

	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "slot_created",
		fmt.Sprintf("<#%s> for <@%s>, %d days", channel.ID, owner.ID, days))
	b.respondEmbed(session, interaction, b.successEmbed("Slots", fmt.Sprintf("Slot <#%s> created.", channel.ID), fields), false)
}

func (b *Bot) handleCloseSlot(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	slot, err := b.store.GetSlotByChannel(ctx, interaction.GuildID, interaction.ChannelID)
	if err != nil || !slot.Active {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "This is not an active slot channel."), true)
		return
	}
	if interactionUser(interaction).ID != slot.UserID && !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Only the slot owner or staff can close this."), true)
		return
	}

	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Close this slot? The owner gets a backup file to restore it later.",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Close slot", Style: discordgo.DangerButton, CustomID: "slot:close:confirm:" + interaction.ChannelID},
				}},
			},
		},
	})
}

func (b *Bot) handleSlotComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	const prefix = "slot:close:confirm:"
	if len(customID) <= len(prefix) {
		return
	}
	channelID := customID[len(prefix):]
	slot, err := b.store.GetSlotByChannel(ctx, interaction.GuildID, channelID)
	if err != nil || !slot.Active {
		b.respond(session, interaction, "That slot is already closed.", true)
		return
	}
	if interactionUser(interaction).ID != slot.UserID && !b.isStaff(interaction.Member) {
		b.respond(session, interaction, "Only the slot owner or staff can close this.", true)
		return
	}
	b.respond(session, interaction, "Closing the slot.", true)
	b.closeSlotChannel(ctx, session, interaction.GuildID, channelID, storage.SlotClosedManual, 0)
}

// closeSlotChannel marks the slot closed, DMs the owner a backup, and
// deletes the channel after the grace period.
func (b *Bot) closeSlotChannel(ctx context.Context, session *discordgo.Session, guildID, channelID, reason string, grace time.Duration) {
	slot, err := b.store.GetSlotByChannel(ctx, guildID, channelID)
	if err != nil || !slot.Active {
		return
	}

	channelName := "slot"
	if channel, err := session.Channel(channelID); err == nil {
		channelName = channel.Name
	}

	if err := b.store.CloseSlot(ctx, guildID, channelID, reason, time.Now()); err != nil {
		b.logger.Warn("close slot", zap.Error(err))
	}

	if messages, err := transcript.Fetch(session, channelID); err == nil {
		body := transcript.Render(channelName, messages)
		if err := transcript.DeliverDM(session, slot.UserID, transcript.Filename(channelName), body); err != nil {
			b.logger.Warn("slot transcript dm", zap.Error(err), zap.String("user_id", slot.UserID))
		}
	}

	backup := slots.NewBackup(guildID, slot.UserID, channelName, slot.EveryoneQuota, slot.EveryoneUsed, slot.HereQuota, slot.HereUsed, slot.ExpiresAt)
	if data, err := backup.Encode(); err == nil {
		if dm, err := session.UserChannelCreate(slot.UserID); err == nil {
			_, _ = session.ChannelFileSendWithMessage(dm.ID,
				"Your slot was closed ("+reason+"). Staff can restore it from this file.",
				"slot-backup.json", bytes.NewReader(data))
		}
	}

	b.modlog.Event(ctx, modlog.LevelInfo, guildID, "slot_closed",
		fmt.Sprintf("%s (<@%s>) closed: %s", channelName, slot.UserID, reason))

	deleteChannel := func() {
		if _, err := session.ChannelDelete(channelID); err != nil {
			b.logger.Warn("delete slot channel", zap.Error(err), zap.String("channel_id", channelID))
		}
	}
	if grace > 0 {
		_, _ = session.ChannelMessageSend(channelID,
			fmt.Sprintf("This slot has expired and will be deleted in %s.", utils.FormatDuration(grace)))
		time.AfterFunc(grace, deleteChannel)
	} else {
		deleteChannel()
	}
}

func (b *Bot) handleRestoreSlot(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "You need the staff role to use this."), true)
		return
	}

	option, ok := options["backup"]
	if !ok || data.Resolved == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Attach a backup file."), true)
		return
	}
	attachment, ok := data.Resolved.Attachments[option.Value.(string)]
	if !ok {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Attach a backup file."), true)
		return
	}

	payload, err := downloadAttachment(attachment.URL)
	if err != nil {
		b.logger.Warn("download slot backup", zap.Error(err))
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Could not download the backup."), true)
		return
	}
	backup, err := slots.DecodeBackup(payload)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "That backup file is not valid."), true)
		return
	}

	categoryID, err := b.ensureCategory(ctx, session, interaction.GuildID, b.cfg.Slots.CategoryName, func(settings *storage.GuildSettings, id string) {
		settings.SlotCategoryID = id
	})
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Could not prepare the slot category."), true)
		return
	}

	channel, err := session.GuildChannelCreateComplex(interaction.GuildID, discordgo.GuildChannelCreateData{
		Name:     backup.ChannelName,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: categoryID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{ID: interaction.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Allow: discordgo.PermissionViewChannel, Deny: discordgo.PermissionSendMessages},
			{ID: backup.OwnerID, Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionMentionEveryone},
		},
	})
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Slots", "Could not recreate the channel."), true)
		return
	}

	expiresAt := time.Unix(backup.ExpiresAt, 0)
	if expiresAt.Before(time.Now()) {
		expiresAt = time.Now().Add(24 * time.Hour)
	}
	if _, err := b.store.CreateSlot(ctx, storage.Slot{
		GuildID:       interaction.GuildID,
		ChannelID:     channel.ID,
		UserID:        backup.OwnerID,
		EveryoneQuota: backup.EveryoneQuota,
		EveryoneUsed:  backup.EveryoneUsed,
		HereQuota:     backup.HereQuota,
		HereUsed:      backup.HereUsed,
		CreatedAt:     time.Now(),
		ExpiresAt:     expiresAt,
	}); err != nil {
		b.logger.Warn("persist restored slot", zap.Error(err))
	}

	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "slot_restored",
		fmt.Sprintf("<#%s> for <@%s>", channel.ID, backup.OwnerID))
	b.respondEmbed(session, interaction, b.successEmbed("Slots", fmt.Sprintf("Slot restored: <#%s>", channel.ID), nil), false)
}

func downloadAttachment(url string) ([]byte, error) {
	var payload []byte
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	err := backoff.Retry(func() error {
		resp, err := http.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("attachment fetch: status %d", resp.StatusCode)
		}
		payload, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return err
	}, policy)
	return payload, err
}

// onMessageCreate enforces ping quotas inside slot channels.
func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot || msg.GuildID == "" {
		return
	}
	ctx := context.Background()
	slot, err := b.store.GetSlotByChannel(ctx, msg.GuildID, msg.ChannelID)
	if err != nil || !slot.Active {
		return
	}

	kind := slots.DetectPing(msg.Content, msg.MentionEveryone)
	if kind == slots.PingNone {
		return
	}

	// Only the owner spends quota; anyone else pinging gets cleaned up.
	if msg.Author.ID != slot.UserID {
		_ = session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		return
	}

	quota, used := slot.EveryoneQuota, slot.EveryoneUsed
	if kind == slots.PingHere {
		quota, used = slot.HereQuota, slot.HereUsed
	}

	if used >= quota {
		// Over-quota pings are removed, but the slot stays open: the
		// other pool may still have pings left.
		_ = session.ChannelMessageDelete(msg.ChannelID, msg.ID)
		_, _ = session.ChannelMessageSend(msg.ChannelID,
			fmt.Sprintf("<@%s> you have no @%s pings left.", msg.Author.ID, kind))
		return
	}

	if err := b.store.IncrementSlotPing(ctx, msg.GuildID, msg.ChannelID, kind); err != nil {
		b.logger.Warn("increment slot ping", zap.Error(err))
		return
	}
	remaining := quota - used - 1
	_, _ = session.ChannelMessageSend(msg.ChannelID,
		fmt.Sprintf("<@%s> used a @%s ping. %d left.", msg.Author.ID, kind, remaining))

	everyoneUsed, hereUsed := slot.EveryoneUsed, slot.HereUsed
	if kind == slots.PingHere {
		hereUsed++
	} else {
		everyoneUsed++
	}
	if slots.Exhausted(slot.EveryoneQuota, everyoneUsed, slot.HereQuota, hereUsed) {
		_, _ = session.ChannelMessageSend(msg.ChannelID, "All pings for this slot have been used.")
		grace := time.Duration(b.cfg.Slots.GraceMinutes) * time.Minute
		b.closeSlotChannel(ctx, session, msg.GuildID, msg.ChannelID, storage.SlotClosedQuota, grace)
	}
}

// sweepSlots closes slots whose lifetime ran out.
func (b *Bot) sweepSlots(ctx context.Context) {
	active, err := b.store.ListActiveSlots(ctx, b.cfg.GuildID)
	if err != nil {
		b.logger.Warn("sweep slots", zap.Error(err))
		return
	}
	now := time.Now()
	grace := time.Duration(b.cfg.Slots.GraceMinutes) * time.Minute
	for _, slot := range active {
		if slot.ExpiresAt.After(now) {
			continue
		}
		b.closeSlotChannel(ctx, b.session, slot.GuildID, slot.ChannelID, storage.SlotClosedExpired, grace)
	}
}
