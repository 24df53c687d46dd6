package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guildhall/internal/modlog"
	"guildhall/internal/storage"
	"guildhall/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleVouch(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	voucher := interactionUser(interaction)
	target := options.user("user", session)
	if target == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "Could not resolve that user."), true)
		return
	}
	if target.ID == voucher.ID {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "You cannot vouch for yourself."), true)
		return
	}
	if target.Bot {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "Bots do not need vouches."), true)
		return
	}
	// The vouch role marks members allowed to collect vouches (sellers,
	// middlemen); anyone may hand them out.
	if b.cfg.Roles.Vouch != "" {
		member, err := b.guildMember(session, interaction.GuildID, target.ID)
		if err != nil || !b.hasRole(member, b.cfg.Roles.Vouch) {
			b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "That member does not hold the vouch role."), true)
			return
		}
	}

	if remaining := b.cooldowns.Remaining(voucher.ID); remaining > 0 {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch",
			fmt.Sprintf("You can vouch again in %s.", utils.FormatDuration(remaining))), true)
		return
	}

	already, err := b.store.HasVouched(ctx, interaction.GuildID, voucher.ID, target.ID)
	if err != nil {
		b.logger.Warn("vouch lookup", zap.Error(err))
	}
	if already {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "You already vouched for that member."), true)
		return
	}

	reason := options.str("reason")
	if _, err := b.store.AddVouch(ctx, storage.Vouch{
		GuildID:   interaction.GuildID,
		UserID:    target.ID,
		VoucherID: voucher.ID,
		Reason:    reason,
		CreatedAt: time.Now(),
	}); err != nil {
		b.logger.Warn("add vouch", zap.Error(err))
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "Could not record the vouch."), true)
		return
	}
	b.cooldowns.Record(voucher.ID)

	total, _ := b.store.CountVouches(ctx, interaction.GuildID, target.ID)
	embed := b.successEmbed("Vouch recorded",
		fmt.Sprintf("<@%s> vouched for <@%s>. They now have %d vouch(es).", voucher.ID, target.ID, total),
		[]*discordgo.MessageEmbedField{{Name: "Reason", Value: reason}})

	if b.cfg.Channels.Vouch != "" {
		_, _ = session.ChannelMessageSendEmbed(b.cfg.Channels.Vouch, embed)
	}
	b.respondEmbed(session, interaction, embed, b.cfg.Channels.Vouch != "")
}

func (b *Bot) handleVouches(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	target := options.user("user", session)
	if target == nil {
		target = interactionUser(interaction)
	}

	total, err := b.store.CountVouches(ctx, interaction.GuildID, target.ID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouches", "Could not load vouches."), true)
		return
	}
	recent, err := b.store.ListVouches(ctx, interaction.GuildID, target.ID, 10)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouches", "Could not load vouches."), true)
		return
	}

	var lines []string
	for _, vouch := range recent {
		line := fmt.Sprintf("%s <@%s>", utils.Timestamp(vouch.CreatedAt, "d"), vouch.VoucherID)
		if vouch.Reason != "" {
			line += ": " + vouch.Reason
		}
		lines = append(lines, line)
	}
	description := "No vouches yet."
	if len(lines) > 0 {
		description = strings.Join(lines, "\n")
	}

	embed := b.commandEmbed(fmt.Sprintf("Vouches for %s", target.Username), description, b.cfg.Embeds.Primary, nil)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d total • showing latest %d", total, len(recent))}
	b.respondEmbed(session, interaction, embed, false)
}

func (b *Bot) handleVouchStats(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch stats", "You need the staff role to use this."), true)
		return
	}
	stats, err := b.store.GetVouchStats(ctx, interaction.GuildID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch stats", "Could not load the statistics."), true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Total vouches", Value: fmt.Sprintf("%d", stats.Total), Inline: true},
	}
	if stats.TopTargetID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Most vouched", Value: fmt.Sprintf("<@%s> (%d)", stats.TopTargetID, stats.TopTargetCount), Inline: true,
		})
	}
	if stats.TopVoucherID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Most active voucher", Value: fmt.Sprintf("<@%s> (%d)", stats.TopVoucherID, stats.TopVoucherCount), Inline: true,
		})
	}
	if len(stats.Recent) > 0 {
		var lines []string
		for _, vouch := range stats.Recent {
			lines = append(lines, fmt.Sprintf("<@%s> → <@%s>", vouch.VoucherID, vouch.UserID))
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Recent", Value: strings.Join(lines, "\n")})
	}

	b.respondEmbed(session, interaction, b.commandEmbed("Vouch statistics", "", b.cfg.Embeds.Primary, fields), false)
}

func (b *Bot) handleDeleteVouch(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	target := options.user("user", session)
	if target == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "Could not resolve that user."), true)
		return
	}

	actor := interactionUser(interaction)
	voucherID := actor.ID
	if voucher := options.user("voucher", session); voucher != nil && voucher.ID != actor.ID {
		if !b.isStaff(interaction.Member) {
			b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "Only staff can delete someone else's vouch."), true)
			return
		}
		voucherID = voucher.ID
	}

	deleted, err := b.store.DeleteVouch(ctx, interaction.GuildID, target.ID, voucherID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "Could not delete the vouch."), true)
		return
	}
	if !deleted {
		b.respondEmbed(session, interaction, b.errorEmbed("Vouch", "No matching vouch found."), true)
		return
	}

	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "vouch_deleted",
		fmt.Sprintf("vouch by <@%s> for <@%s> removed by <@%s>", voucherID, target.ID, actor.ID))
	b.respondEmbed(session, interaction, b.successEmbed("Vouch", "Vouch deleted.", nil), true)
}
