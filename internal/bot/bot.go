package bot

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"guildhall/internal/config"
	"guildhall/internal/modlog"
	"guildhall/internal/modules/antiraid"
	"guildhall/internal/modules/giveaways"
	"guildhall/internal/modules/statuswatch"
	"guildhall/internal/modules/vouch"
	"guildhall/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg     config.Config
	logger  *zap.Logger
	store   storage.Store
	modlog  *modlog.Logger
	session *discordgo.Session

	antiraid  *antiraid.Engine
	giveaways *giveaways.Engine
	cooldowns *vouch.Cooldowns
	statuses  *statuswatch.Tracker
	rng       *rand.Rand

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(cfg config.Config, logger *zap.Logger, store storage.Store, modLogger *modlog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildBans |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildPresences

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		modlog:    modLogger,
		session:   session,
		antiraid:  antiraid.New(cfg.Moderation.JoinSurgeCount, time.Duration(cfg.Moderation.JoinSurgeWindowSeconds)*time.Second),
		cooldowns: vouch.NewCooldowns(time.Duration(cfg.Vouch.CooldownSeconds) * time.Second),
		statuses:  statuswatch.NewTracker(cfg.StatusWatch.InviteCodes),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		stop:      make(chan struct{}),
	}
	b.giveaways = giveaways.New(b.endGiveawayByTimer)

	if b.modlog != nil {
		b.modlog.SetNotifier(func(ctx context.Context, level string, action storage.ModerationAction) {
			b.notifyModAction(ctx, level, action)
		})
	}

	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onGuildMemberAdd)
	b.session.AddHandler(b.onGuildMemberRemove)
	b.session.AddHandler(b.onVoiceStateUpdate)
	b.session.AddHandler(b.onPresenceUpdate)

	if err := b.session.Open(); err != nil {
		return err
	}

	if err := b.registerCommands(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := b.resumeGiveaways(ctx); err != nil {
		b.logger.Warn("resume giveaways", zap.Error(err))
	}

	b.startLoop("slot sweep", time.Duration(b.cfg.Slots.PollSeconds)*time.Second, b.sweepSlots)
	b.startLoop("giveaway sweep", time.Duration(b.cfg.Giveaways.PollSeconds)*time.Second, b.sweepGiveaways)
	b.startLoop("status sweep", time.Duration(b.cfg.StatusWatch.PollSeconds)*time.Second, b.sweepStatuses)

	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	close(b.stop)
	b.wg.Wait()
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) startLoop(name string, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-b.stop:
				return
			case <-ticker.C:
				fn(context.Background())
			}
		}
	}()
	b.logger.Info("loop started", zap.String("loop", name), zap.Duration("interval", interval))
}

func (b *Bot) onReady(session *discordgo.Session, _ *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) guildSettings(ctx context.Context, guildID string) storage.GuildSettings {
	defaults := storage.GuildSettings{
		GuildID:           guildID,
		LogChannelID:      b.cfg.Channels.Log,
		MinAccountAgeDays: b.cfg.Moderation.MinAccountAgeDays,
	}
	settings, err := b.store.GetGuildSettings(ctx, guildID, defaults)
	if err != nil {
		b.logger.Warn("guild settings fallback", zap.Error(err))
		return defaults
	}
	return settings
}

func (b *Bot) saveSettings(ctx context.Context, settings storage.GuildSettings) bool {
	if err := b.store.UpsertGuildSettings(ctx, settings); err != nil {
		b.logger.Warn("settings update failed", zap.Error(err))
		return false
	}
	return true
}

// notifyModAction mirrors moderation activity into the guild log channel.
func (b *Bot) notifyModAction(ctx context.Context, level string, action storage.ModerationAction) {
	settings := b.guildSettings(ctx, action.GuildID)
	channelID := settings.LogChannelID
	if channelID == "" {
		return
	}
	embed := b.modActionEmbed(level, action)
	if _, err := b.session.ChannelMessageSendEmbed(channelID, embed); err != nil {
		b.logger.Warn("mod log channel send failed", zap.Error(err))
	}
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}
