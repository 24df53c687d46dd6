package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"guildhall/internal/modlog"
	"guildhall/internal/storage"
	"guildhall/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) handleReport(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap, praise bool) {
	reporter := interactionUser(interaction)
	target := options.user("user", session)
	if target == nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Feedback", "Could not resolve that user."), true)
		return
	}
	if target.ID == reporter.ID {
		b.respondEmbed(session, interaction, b.errorEmbed("Feedback", "You cannot review yourself."), true)
		return
	}
	if target.Bot {
		b.respondEmbed(session, interaction, b.errorEmbed("Feedback", "Bots are not reviewable."), true)
		return
	}
	if !praise {
		if member, err := b.guildMember(session, interaction.GuildID, target.ID); err == nil && b.isStaff(member) {
			b.respondEmbed(session, interaction, b.errorEmbed("Report", "Staff members cannot be reported. Contact the server owner instead."), true)
			return
		}
	}

	kind := storage.KindReport
	status := storage.ReportPending
	title := "Report"
	if praise {
		// Praise needs no review; it lands approved.
		kind = storage.KindPraise
		status = storage.ReportApproved
		title = "Praise"
	}

	reason := options.str("reason")
	id, err := b.store.CreateReport(ctx, storage.Report{
		GuildID:    interaction.GuildID,
		UserID:     target.ID,
		ReporterID: reporter.ID,
		Reason:     reason,
		Kind:       kind,
		Status:     status,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		b.logger.Warn("create report", zap.Error(err))
		b.respondEmbed(session, interaction, b.errorEmbed(title, "Could not record it."), true)
		return
	}

	if praise {
		b.respondEmbed(session, interaction, b.successEmbed(title,
			fmt.Sprintf("Praise for <@%s> recorded. Thanks!", target.ID), nil), false)
		return
	}

	b.notifyStaffReport(ctx, session, id, target.ID, reporter.ID, reason)
	b.respondEmbed(session, interaction, b.successEmbed(title,
		fmt.Sprintf("Report #%d filed. The staff team will review it.", id), nil), true)
}

func (b *Bot) notifyStaffReport(ctx context.Context, session *discordgo.Session, id int64, targetID, reporterID, reason string) {
	settings := b.guildSettings(ctx, b.cfg.GuildID)
	if settings.LogChannelID == "" {
		return
	}
	embed := b.commandEmbed(fmt.Sprintf("Report #%d", id), "", b.cfg.Embeds.Warning, []*discordgo.MessageEmbedField{
		{Name: "Reported", Value: "<@" + targetID + ">", Inline: true},
		{Name: "Reporter", Value: "<@" + reporterID + ">", Inline: true},
		{Name: "Reason", Value: reason},
	})
	_, _ = session.ChannelMessageSendComplex(settings.LogChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: reportReviewButtons(id),
	})
}

func reportReviewButtons(id int64) []discordgo.MessageComponent {
	suffix := strconv.FormatInt(id, 10)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Approve", Style: discordgo.SuccessButton, CustomID: "report:approve:" + suffix},
			discordgo.Button{Label: "Reject", Style: discordgo.SecondaryButton, CustomID: "report:reject:" + suffix},
			discordgo.Button{Label: "Warn user", Style: discordgo.DangerButton, CustomID: "report:warn:" + suffix},
		}},
	}
}

func (b *Bot) handleReviewReport(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Reports", "You need the staff role to use this."), true)
		return
	}
	id := options.integer("id", 0)
	report, err := b.store.GetReport(ctx, interaction.GuildID, id)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Reports", "No report with that id."), true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Reported", Value: "<@" + report.UserID + ">", Inline: true},
		{Name: "Reporter", Value: "<@" + report.ReporterID + ">", Inline: true},
		{Name: "Status", Value: report.Status, Inline: true},
		{Name: "Filed", Value: utils.Timestamp(report.CreatedAt, "f"), Inline: true},
		{Name: "Reason", Value: orDefault(report.Reason, "none given")},
	}
	if history, err := b.store.ListModerationActions(ctx, interaction.GuildID, report.UserID, 5); err == nil && len(history) > 0 {
		lines := make([]string, 0, len(history))
		for _, act := range history {
			lines = append(lines, fmt.Sprintf("%s %s: %s", utils.Timestamp(act.CreatedAt, "d"), act.Action, orDefault(act.Reason, "no reason")))
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Prior actions", Value: strings.Join(lines, "\n")})
	}
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{b.commandEmbed(fmt.Sprintf("Report #%d", report.ID), "", b.cfg.Embeds.Primary, fields)},
		Flags:  discordgo.MessageFlagsEphemeral,
	}
	if report.Status == storage.ReportPending {
		data.Components = reportReviewButtons(report.ID)
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (b *Bot) handleReportComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	if !b.isStaff(interaction.Member) {
		b.respond(session, interaction, "You need the staff role to use this.", true)
		return
	}
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 {
		return
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return
	}
	report, err := b.store.GetReport(ctx, interaction.GuildID, id)
	if err != nil {
		b.respond(session, interaction, "That report no longer exists.", true)
		return
	}
	if report.Status != storage.ReportPending {
		b.respond(session, interaction, "That report was already reviewed.", true)
		return
	}
	reviewer := interactionUser(interaction).ID

	switch parts[1] {
	case "approve":
		b.resolveReport(ctx, session, interaction, report, storage.ReportApproved, reviewer)
	case "reject":
		b.resolveReport(ctx, session, interaction, report, storage.ReportRejected, reviewer)
	case "warn":
		_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: &discordgo.InteractionResponseData{
				CustomID: "report:warnmodal:" + parts[2],
				Title:    "Warn the reported member",
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID: "message", Label: "Warning message",
							Style: discordgo.TextInputParagraph, Required: true, MaxLength: 1000,
						},
					}},
				},
			},
		})
	}
}

func (b *Bot) resolveReport(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, report storage.Report, status, reviewer string) {
	if err := b.store.SetReportStatus(ctx, report.GuildID, report.ID, status, reviewer, time.Now()); err != nil {
		b.respond(session, interaction, "Could not update the report.", true)
		return
	}
	b.modlog.Event(ctx, modlog.LevelInfo, report.GuildID, "report_"+status,
		fmt.Sprintf("report #%d on <@%s> %s by <@%s>", report.ID, report.UserID, status, reviewer))
	b.respond(session, interaction, fmt.Sprintf("Report #%d %s.", report.ID, status), true)
}

func (b *Bot) handleReportWarnModal(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return
	}
	report, err := b.store.GetReport(ctx, interaction.GuildID, id)
	if err != nil {
		b.respond(session, interaction, "That report no longer exists.", true)
		return
	}
	reviewer := interactionUser(interaction).ID
	message := modalValue(interaction.ModalSubmitData(), "message")

	if err := b.store.SetReportStatus(ctx, report.GuildID, report.ID, storage.ReportWarned, reviewer, time.Now()); err != nil {
		b.respond(session, interaction, "Could not update the report.", true)
		return
	}

	b.dmUser(report.UserID, "You received a warning from the staff team: "+message)
	b.modlog.Action(ctx, modlog.LevelWarn, storage.ModerationAction{
		GuildID:     report.GuildID,
		UserID:      report.UserID,
		ModeratorID: reviewer,
		Action:      "warn",
		Reason:      fmt.Sprintf("report #%d: %s", report.ID, message),
	})
	b.respond(session, interaction, fmt.Sprintf("Report #%d closed with a warning.", report.ID), true)
}

func (b *Bot) handleStatus(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	target := options.user("user", session)
	if target == nil {
		target = interactionUser(interaction)
	}

	counts, err := b.store.GetFeedbackCounts(ctx, interaction.GuildID, target.ID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Standing", "Could not load the feedback record."), true)
		return
	}

	total := counts.ApprovedReports + counts.Praises
	standing := "No feedback yet."
	color := b.cfg.Embeds.Primary
	if total > 0 {
		ratio := float64(counts.Praises) / float64(total) * 100
		standing = fmt.Sprintf("%.0f%% positive over %d review(s).", ratio, total)
		switch {
		case counts.ApprovedReports > counts.Praises:
			color = b.cfg.Embeds.Error
		case counts.ApprovedReports > 0:
			color = b.cfg.Embeds.Warning
		default:
			color = b.cfg.Embeds.Success
		}
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Praises", Value: fmt.Sprintf("%d", counts.Praises), Inline: true},
		{Name: "Upheld reports", Value: fmt.Sprintf("%d", counts.ApprovedReports), Inline: true},
	}
	if recent, err := b.store.ListFeedback(ctx, interaction.GuildID, target.ID, 5); err == nil && len(recent) > 0 && b.isStaff(interaction.Member) {
		lines := make([]string, 0, len(recent))
		for _, entry := range recent {
			label := "praise"
			if entry.Kind == storage.KindReport {
				label = "report (" + entry.Status + ")"
			}
			lines = append(lines, fmt.Sprintf("%s %s from <@%s>", utils.Timestamp(entry.CreatedAt, "d"), label, entry.ReporterID))
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Recent", Value: strings.Join(lines, "\n")})
	}
	b.respondEmbed(session, interaction,
		b.commandEmbed(fmt.Sprintf("Standing of %s", target.Username), standing, color, fields), false)
}
