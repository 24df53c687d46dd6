package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"guildhall/internal/modlog"
	"guildhall/internal/modules/giveaways"
	"guildhall/internal/storage"
	"guildhall/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const giveawayEmoji = "🎉"

func (b *Bot) handleGiveaway(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Giveaway", "You need the staff role to use this."), true)
		return
	}
	if len(options) == 0 {
		return
	}
	sub := options[0]
	switch sub.Name {
	case "start":
		b.startGiveaway(ctx, session, interaction, mapOptions(sub.Options))
	case "end":
		b.pickGiveaway(ctx, session, interaction, "gw:end", true)
	case "reroll":
		b.pickGiveaway(ctx, session, interaction, "gw:reroll", false)
	}
}

func (b *Bot) startGiveaway(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options optionMap) {
	prize := options.str("prize")
	duration, err := utils.ParseDuration(options.str("duration"))
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Giveaway", "Use a duration like 30m, 2h or 1d."), true)
		return
	}
	winners := int(options.integer("winners", 1))
	if winners <= 0 {
		winners = 1
	}

	host := interactionUser(interaction)
	endsAt := time.Now().Add(duration)
	embed := b.commandEmbed(giveawayEmoji+" "+prize,
		fmt.Sprintf("React with %s to enter!\nEnds %s • %d winner(s) • Hosted by <@%s>",
			giveawayEmoji, utils.Timestamp(endsAt, "R"), winners, host.ID),
		b.cfg.Embeds.Primary, nil)

	message, err := session.ChannelMessageSendEmbed(interaction.ChannelID, embed)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Giveaway", "Could not post the giveaway here."), true)
		return
	}
	_ = session.MessageReactionAdd(interaction.ChannelID, message.ID, giveawayEmoji)

	if _, err := b.store.CreateGiveaway(ctx, storage.Giveaway{
		GuildID:      interaction.GuildID,
		ChannelID:    interaction.ChannelID,
		MessageID:    message.ID,
		HostID:       host.ID,
		Prize:        prize,
		WinnersCount: winners,
		CreatedAt:    time.Now(),
		EndsAt:       endsAt,
	}); err != nil {
		b.logger.Warn("persist giveaway", zap.Error(err))
	}
	b.giveaways.Schedule(message.ID, endsAt)

	b.modlog.Event(ctx, modlog.LevelInfo, interaction.GuildID, "giveaway_started",
		fmt.Sprintf("%q in <#%s>, ends %s", prize, interaction.ChannelID, utils.FormatDuration(duration)))
	b.respondEmbed(session, interaction, b.successEmbed("Giveaway", "Giveaway started.", nil), true)
}

// pickGiveaway shows a select menu of giveaways to end or reroll.
func (b *Bot) pickGiveaway(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string, active bool) {
	var candidates []storage.Giveaway
	var err error
	if active {
		candidates, err = b.store.ListActiveGiveaways(ctx, interaction.GuildID)
	} else {
		candidates, err = b.store.ListEndedGiveaways(ctx, interaction.GuildID, 10)
	}
	if err != nil || len(candidates) == 0 {
		b.respondEmbed(session, interaction, b.errorEmbed("Giveaway", "Nothing to pick from."), true)
		return
	}

	options := giveawayOptions(candidates)
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pick a giveaway.",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{CustomID: customID, Options: options},
				}},
			},
		},
	})
}

// giveawayOptions renders select options for the picker. Discord caps
// a select menu at 25 options, so older candidates past that are cut.
func giveawayOptions(candidates []storage.Giveaway) []discordgo.SelectMenuOption {
	if len(candidates) > 25 {
		candidates = candidates[:25]
	}
	options := make([]discordgo.SelectMenuOption, 0, len(candidates))
	for _, giveaway := range candidates {
		label := giveaway.Prize
		if len(label) > 90 {
			label = label[:90]
		}
		options = append(options, discordgo.SelectMenuOption{Label: label, Value: giveaway.MessageID})
	}
	return options
}

func (b *Bot) handleGiveawayComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	if !b.isStaff(interaction.Member) {
		b.respond(session, interaction, "You need the staff role to use this.", true)
		return
	}
	switch {
	case customID == "gw:end":
		values := interaction.MessageComponentData().Values
		if len(values) != 1 {
			return
		}
		_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "End this giveaway now?",
				Flags:   discordgo.MessageFlagsEphemeral,
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "End now", Style: discordgo.DangerButton, CustomID: "gw:end:confirm:" + values[0]},
					}},
				},
			},
		})
	case strings.HasPrefix(customID, "gw:end:confirm:"):
		messageID := strings.TrimPrefix(customID, "gw:end:confirm:")
		b.respond(session, interaction, "Ending the giveaway.", true)
		b.giveaways.Cancel(messageID)
		b.endGiveaway(ctx, messageID)
	case customID == "gw:reroll":
		values := interaction.MessageComponentData().Values
		if len(values) != 1 {
			return
		}
		_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "Reroll this giveaway?",
				Flags:   discordgo.MessageFlagsEphemeral,
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Reroll", Style: discordgo.DangerButton, CustomID: "gw:reroll:confirm:" + values[0]},
					}},
				},
			},
		})
	case strings.HasPrefix(customID, "gw:reroll:confirm:"):
		messageID := strings.TrimPrefix(customID, "gw:reroll:confirm:")
		b.respond(session, interaction, "Rerolling.", true)
		b.rerollGiveaway(ctx, messageID)
	}
}

func (b *Bot) endGiveawayByTimer(messageID string) {
	b.endGiveaway(context.Background(), messageID)
}

func (b *Bot) endGiveaway(ctx context.Context, messageID string) {
	giveaway, err := b.store.GetGiveawayByMessage(ctx, b.cfg.GuildID, messageID)
	if err != nil || giveaway.Ended {
		return
	}

	entrants := b.collectEntrants(giveaway.ChannelID, messageID)
	winners := giveaways.PickWinners(b.rng, entrants, giveaway.WinnersCount)

	if err := b.store.EndGiveaway(ctx, giveaway.GuildID, messageID, winners, time.Now()); err != nil {
		b.logger.Warn("end giveaway", zap.Error(err), zap.String("message_id", messageID))
		return
	}

	announcement := fmt.Sprintf("Nobody entered the giveaway for **%s**.", giveaway.Prize)
	if len(winners) > 0 {
		announcement = fmt.Sprintf("%s Congratulations %s, you won **%s**!", giveawayEmoji, mentionList(winners), giveaway.Prize)
	}
	_, _ = b.session.ChannelMessageSend(giveaway.ChannelID, announcement)

	ended := b.commandEmbed(giveawayEmoji+" "+giveaway.Prize+" (ended)",
		fmt.Sprintf("Winners: %s", orDefault(mentionList(winners), "none")), b.cfg.Embeds.Warning, nil)
	_, _ = b.session.ChannelMessageEditEmbed(giveaway.ChannelID, messageID, ended)

	b.modlog.Event(ctx, modlog.LevelInfo, giveaway.GuildID, "giveaway_ended",
		fmt.Sprintf("%q: %d entrant(s), winners %s", giveaway.Prize, len(entrants), orDefault(strings.Join(winners, ", "), "none")))
}

func (b *Bot) rerollGiveaway(ctx context.Context, messageID string) {
	giveaway, err := b.store.GetGiveawayByMessage(ctx, b.cfg.GuildID, messageID)
	if err != nil || !giveaway.Ended {
		return
	}

	entrants := b.collectEntrants(giveaway.ChannelID, messageID)
	fresh := giveaways.PickReroll(b.rng, entrants, giveaway.WinnerIDs, 1)
	if len(fresh) == 0 {
		_, _ = b.session.ChannelMessageSend(giveaway.ChannelID,
			fmt.Sprintf("No eligible entrants left to reroll for **%s**.", giveaway.Prize))
		return
	}

	if err := b.store.AddGiveawayWinner(ctx, giveaway.GuildID, messageID, fresh[0]); err != nil {
		b.logger.Warn("record reroll winner", zap.Error(err))
	}
	_, _ = b.session.ChannelMessageSend(giveaway.ChannelID,
		fmt.Sprintf("%s Reroll! The new winner of **%s** is <@%s>!", giveawayEmoji, giveaway.Prize, fresh[0]))
}

// collectEntrants pages the 🎉 reactions on the giveaway message.
func (b *Bot) collectEntrants(channelID, messageID string) []string {
	var entrants []string
	afterID := ""
	for {
		users, err := b.session.MessageReactions(channelID, messageID, giveawayEmoji, 100, "", afterID)
		if err != nil {
			b.logger.Warn("collect giveaway entrants", zap.Error(err))
			break
		}
		if len(users) == 0 {
			break
		}
		entrants = append(entrants, eligibleEntrants(users)...)
		afterID = users[len(users)-1].ID
		if len(users) < 100 {
			break
		}
	}
	return entrants
}

// eligibleEntrants filters a reaction page down to real members. Bots
// are skipped; the host reacting counts like anyone else.
func eligibleEntrants(users []*discordgo.User) []string {
	var ids []string
	for _, user := range users {
		if user.Bot {
			continue
		}
		ids = append(ids, user.ID)
	}
	return ids
}

func (b *Bot) resumeGiveaways(ctx context.Context) error {
	active, err := b.store.ListActiveGiveaways(ctx, b.cfg.GuildID)
	if err != nil {
		return err
	}
	for _, giveaway := range active {
		b.giveaways.Schedule(giveaway.MessageID, giveaway.EndsAt)
	}
	if len(active) > 0 {
		b.logger.Info("resumed giveaways", zap.Int("count", len(active)))
	}
	return nil
}

// sweepGiveaways is a safety net for timers lost to restarts.
func (b *Bot) sweepGiveaways(ctx context.Context) {
	active, err := b.store.ListActiveGiveaways(ctx, b.cfg.GuildID)
	if err != nil {
		b.logger.Warn("sweep giveaways", zap.Error(err))
		return
	}
	now := time.Now()
	for _, giveaway := range active {
		if giveaway.EndsAt.After(now) {
			continue
		}
		b.giveaways.Cancel(giveaway.MessageID)
		b.endGiveaway(ctx, giveaway.MessageID)
	}
}

func mentionList(ids []string) string {
	mentions := make([]string, 0, len(ids))
	for _, id := range ids {
		mentions = append(mentions, "<@"+id+">")
	}
	return strings.Join(mentions, ", ")
}
