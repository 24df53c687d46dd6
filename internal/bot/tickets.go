package bot

import (
	"context"
	"fmt"
	"time"

	"guildhall/internal/modlog"
	"guildhall/internal/modules/tickets"
	"guildhall/internal/storage"
	"guildhall/internal/transcript"

	"github.com/bwmarrin/discordgo"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

func (b *Bot) handleSetupTicket(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Tickets", "You need the staff role to use this."), true)
		return
	}

	embed := b.commandEmbed("Open a ticket",
		"Need help, want to partner, or ready to buy? Press the button below and pick a category.",
		b.cfg.Embeds.Primary, nil)
	_, err := session.ChannelMessageSendComplex(interaction.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Open ticket", Style: discordgo.PrimaryButton, Emoji: discordgo.ComponentEmoji{Name: "🎫"}, CustomID: "ticket:create"},
			}},
		},
	})
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Tickets", "Could not post the panel here."), true)
		return
	}

	settings := b.guildSettings(ctx, interaction.GuildID)
	settings.TicketPanelChannelID = interaction.ChannelID
	b.saveSettings(ctx, settings)
	b.respondEmbed(session, interaction, b.successEmbed("Tickets", "Panel posted.", nil), true)
}

func (b *Bot) handleTicketComponent(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	switch customID {
	case "ticket:create":
		b.showTicketTypePicker(session, interaction)
	case "ticket:type":
		values := interaction.MessageComponentData().Values
		if len(values) == 1 {
			b.showTicketModal(session, interaction, values[0])
		}
	case "ticket:close":
		_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "Close this ticket? A transcript will be sent to the opener.",
				Flags:   discordgo.MessageFlagsEphemeral,
				Components: []discordgo.MessageComponent{
					discordgo.ActionsRow{Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Close ticket", Style: discordgo.DangerButton, CustomID: "ticket:confirm"},
					}},
				},
			},
		})
	case "ticket:confirm":
		b.closeTicketChannel(ctx, session, interaction.GuildID, interaction.ChannelID, interactionUser(interaction).ID)
		b.respond(session, interaction, "Closing.", true)
	}
}

func (b *Bot) showTicketTypePicker(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	options := make([]discordgo.SelectMenuOption, 0, len(tickets.Catalogue))
	for _, typ := range tickets.Catalogue {
		options = append(options, discordgo.SelectMenuOption{
			Label: typ.Label,
			Value: typ.Key,
			Emoji: discordgo.ComponentEmoji{Name: typ.Emoji},
		})
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "What kind of ticket do you want to open?",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{CustomID: "ticket:type", Placeholder: "Pick a category", Options: options},
				}},
			},
		},
	})
}

func (b *Bot) showTicketModal(session *discordgo.Session, interaction *discordgo.InteractionCreate, typeKey string) {
	typ, ok := tickets.Lookup(typeKey)
	if !ok {
		b.respond(session, interaction, "Unknown ticket type.", true)
		return
	}

	rows := make([]discordgo.MessageComponent, 0, len(typ.Questions))
	for _, question := range typ.Questions {
		style := discordgo.TextInputShort
		if question.Long {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  question.Key,
				Label:     question.Label,
				Style:     style,
				Required:  question.Required,
				MaxLength: 1000,
			},
		}})
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   "ticket:modal:" + typ.Key,
			Title:      typ.Label + " ticket",
			Components: rows,
		},
	})
}

func (b *Bot) handleTicketModal(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, typeKey string) {
	typ, ok := tickets.Lookup(typeKey)
	if !ok {
		b.respond(session, interaction, "Unknown ticket type.", true)
		return
	}
	user := interactionUser(interaction)
	if user == nil {
		return
	}

	if _, err := b.store.GetOpenTicketByUser(ctx, interaction.GuildID, user.ID); err == nil {
		b.respond(session, interaction, "You already have an open ticket.", true)
		return
	}

	data := interaction.ModalSubmitData()
	answers := make(map[string]string, len(typ.Questions))
	for _, question := range typ.Questions {
		answers[question.Key] = modalValue(data, question.Key)
	}

	channel, err := b.createTicketChannel(ctx, session, interaction.GuildID, user, typ)
	if err != nil {
		b.logger.Warn("create ticket channel", zap.Error(err))
		b.respond(session, interaction, "Could not create the ticket channel.", true)
		return
	}

	if _, err := b.store.CreateTicket(ctx, storage.Ticket{
		GuildID:   interaction.GuildID,
		ChannelID: channel.ID,
		UserID:    user.ID,
		Type:      typ.Key,
		Answers:   answers,
		CreatedAt: time.Now(),
	}); err != nil {
		b.logger.Warn("persist ticket", zap.Error(err))
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(typ.Questions))
	for _, question := range typ.Questions {
		if answer := answers[question.Key]; answer != "" {
			fields = append(fields, &discordgo.MessageEmbedField{Name: question.Label, Value: answer})
		}
	}
	_, _ = session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", user.ID),
		Embeds: []*discordgo.MessageEmbed{
			b.commandEmbed(typ.Label+" ticket", "Staff will be with you shortly.", b.cfg.Embeds.Primary, fields),
		},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "Close", Style: discordgo.DangerButton, Emoji: discordgo.ComponentEmoji{Name: "🔒"}, CustomID: "ticket:close"},
			}},
		},
	})

	b.respond(session, interaction, fmt.Sprintf("Your ticket is ready: <#%s>", channel.ID), true)
}

func (b *Bot) createTicketChannel(ctx context.Context, session *discordgo.Session, guildID string, user *discordgo.User, typ tickets.Type) (*discordgo.Channel, error) {
	categoryID, err := b.ensureCategory(ctx, session, guildID, b.cfg.Tickets.CategoryName, func(settings *storage.GuildSettings, id string) {
		settings.TicketCategoryID = id
	})
	if err != nil {
		return nil, err
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: user.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages},
	}
	if b.cfg.Roles.Staff != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: b.cfg.Roles.Staff, Type: discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}

	return session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 tickets.ChannelName(user.Username, typ.Key),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	})
}

// ensureCategory finds or creates a category by name, caching the id in
// guild settings through the assign callback.
func (b *Bot) ensureCategory(ctx context.Context, session *discordgo.Session, guildID, name string, assign func(*storage.GuildSettings, string)) (string, error) {
	channels, err := session.GuildChannels(guildID)
	if err != nil {
		return "", err
	}
	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildCategory && channel.Name == name {
			return channel.ID, nil
		}
	}
	category, err := session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		return "", err
	}
	settings := b.guildSettings(ctx, guildID)
	assign(&settings, category.ID)
	b.saveSettings(ctx, settings)
	return category.ID, nil
}

func (b *Bot) handleCloseTicket(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ticket, err := b.store.GetTicketByChannel(ctx, interaction.GuildID, interaction.ChannelID)
	if err != nil || ticket.Status != storage.TicketOpen {
		b.respondEmbed(session, interaction, b.errorEmbed("Tickets", "This is not an open ticket channel."), true)
		return
	}
	closer := interactionUser(interaction).ID
	if closer != ticket.UserID && !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Tickets", "Only the opener or staff can close a ticket."), true)
		return
	}
	b.respondEmbed(session, interaction, b.successEmbed("Tickets", "Closing this ticket.", nil), false)
	b.closeTicketChannel(ctx, session, interaction.GuildID, interaction.ChannelID, closer)
}

// closeTicketChannel archives, records, and deletes a ticket channel.
// The delete is delayed so people can read the closing notice.
func (b *Bot) closeTicketChannel(ctx context.Context, session *discordgo.Session, guildID, channelID, closedBy string) {
	ticket, err := b.store.GetTicketByChannel(ctx, guildID, channelID)
	if err != nil {
		return
	}

	channelName := "ticket"
	if channel, err := session.Channel(channelID); err == nil {
		channelName = channel.Name
	}

	messages, err := transcript.Fetch(session, channelID)
	if err != nil {
		b.logger.Warn("ticket transcript fetch", zap.Error(err))
	} else {
		body := transcript.Render(channelName, messages)
		if err := transcript.DeliverDM(session, ticket.UserID, transcript.Filename(channelName), body); err != nil {
			b.logger.Warn("ticket transcript dm", zap.Error(err), zap.String("user_id", ticket.UserID))
		}
	}

	if err := b.store.CloseTicket(ctx, guildID, channelID, closedBy, time.Now()); err != nil {
		b.logger.Warn("close ticket", zap.Error(err))
	}
	b.modlog.Event(ctx, modlog.LevelInfo, guildID, "ticket_closed",
		fmt.Sprintf("%s (%s) closed by <@%s>", channelName, ticket.Type, closedBy))

	_, _ = session.ChannelMessageSend(channelID, "Ticket closed. This channel disappears in 10 seconds.")
	time.AfterFunc(10*time.Second, func() {
		if _, err := session.ChannelDelete(channelID); err != nil {
			b.logger.Warn("delete ticket channel", zap.Error(err), zap.String("channel_id", channelID))
		}
	})
}

func (b *Bot) handleCloseAllTickets(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if !b.isStaff(interaction.Member) {
		b.respondEmbed(session, interaction, b.errorEmbed("Tickets", "You need the staff role to use this."), true)
		return
	}

	open, err := b.store.ListOpenTickets(ctx, interaction.GuildID)
	if err != nil || len(open) == 0 {
		b.respondEmbed(session, interaction, b.errorEmbed("Tickets", "No open tickets."), true)
		return
	}

	closer := interactionUser(interaction).ID
	b.respondEmbed(session, interaction, b.successEmbed("Tickets", fmt.Sprintf("Closing %d ticket(s).", len(open)), nil), false)

	go func() {
		workers := pool.New().WithMaxGoroutines(3)
		for _, ticket := range open {
			ticket := ticket
			workers.Go(func() {
				b.closeTicketChannel(context.Background(), session, ticket.GuildID, ticket.ChannelID, closer)
			})
		}
		workers.Wait()
	}()
}
