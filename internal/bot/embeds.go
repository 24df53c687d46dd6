package bot

import (
	"fmt"
	"time"

	"guildhall/internal/modlog"
	"guildhall/internal/storage"
	"guildhall/internal/utils"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Fields:      fields,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

func (b *Bot) successEmbed(title, description string, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return b.commandEmbed(title, description, b.cfg.Embeds.Success, fields)
}

func (b *Bot) errorEmbed(title, description string) *discordgo.MessageEmbed {
	return b.commandEmbed(title, description, b.cfg.Embeds.Error, nil)
}

func (b *Bot) modActionEmbed(level string, action storage.ModerationAction) *discordgo.MessageEmbed {
	color := b.cfg.Embeds.Primary
	switch level {
	case modlog.LevelWarn:
		color = b.cfg.Embeds.Warning
	case modlog.LevelCrit:
		color = b.cfg.Embeds.Error
	}

	fields := []*discordgo.MessageEmbedField{}
	if action.UserID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "User", Value: "<@" + action.UserID + ">", Inline: true})
	}
	if action.ModeratorID != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Moderator", Value: "<@" + action.ModeratorID + ">", Inline: true})
	}
	if action.DurationSeconds > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "Duration",
			Value:  utils.FormatDuration(time.Duration(action.DurationSeconds) * time.Second),
			Inline: true,
		})
	}
	if action.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: action.Reason})
	}

	return &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("%s: %s", level, action.Action),
		Color:     color,
		Fields:    fields,
		Timestamp: action.CreatedAt.Format(time.RFC3339),
	}
}
