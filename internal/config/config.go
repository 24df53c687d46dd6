package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken string           `yaml:"discord_token"`
	GuildID      string           `yaml:"guild_id"`
	LogLevel     string           `yaml:"log_level"`
	Database     DatabaseConfig   `yaml:"database"`
	Health       HealthConfig     `yaml:"health"`
	Roles        RolesConfig      `yaml:"roles"`
	Channels     ChannelsConfig   `yaml:"channels"`
	Moderation   ModerationConfig `yaml:"moderation"`
	Tickets      TicketsConfig    `yaml:"tickets"`
	Slots        SlotsConfig      `yaml:"slots"`
	Giveaways    GiveawaysConfig  `yaml:"giveaways"`
	Vouch        VouchConfig      `yaml:"vouch"`
	StatusWatch  StatusConfig     `yaml:"status_watch"`
	Embeds       EmbedColors      `yaml:"embed_colors"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type RolesConfig struct {
	Staff  string `yaml:"staff"`
	Status string `yaml:"status"`
	Vouch  string `yaml:"vouch"`
}

type ChannelsConfig struct {
	Log   string `yaml:"log"`
	Vouch string `yaml:"vouch"`
}

type ModerationConfig struct {
	MinAccountAgeDays      int `yaml:"min_account_age_days"`
	JoinSurgeCount         int `yaml:"join_surge_count"`
	JoinSurgeWindowSeconds int `yaml:"join_surge_window_seconds"`
	ClearPaceMillis        int `yaml:"clear_pace_millis"`
}

type TicketsConfig struct {
	CategoryName string `yaml:"category_name"`
}

type SlotsConfig struct {
	CategoryName string `yaml:"category_name"`
	PollSeconds  int    `yaml:"poll_seconds"`
	GraceMinutes int    `yaml:"grace_minutes"`
}

type GiveawaysConfig struct {
	PollSeconds int `yaml:"poll_seconds"`
}

type VouchConfig struct {
	CooldownSeconds int `yaml:"cooldown_seconds"`
}

type StatusConfig struct {
	PollSeconds int      `yaml:"poll_seconds"`
	InviteCodes []string `yaml:"invite_codes"`
}

type EmbedColors struct {
	Primary int `yaml:"primary"`
	Success int `yaml:"success"`
	Warning int `yaml:"warning"`
	Error   int `yaml:"error"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Database: DatabaseConfig{Driver: "sqlite", Path: "/data/guildhall.db"},
		Health:   HealthConfig{Enabled: false, Addr: ":8080"},
		Moderation: ModerationConfig{
			MinAccountAgeDays:      7,
			JoinSurgeCount:         8,
			JoinSurgeWindowSeconds: 30,
			ClearPaceMillis:        500,
		},
		Tickets:     TicketsConfig{CategoryName: "Tickets"},
		Slots:       SlotsConfig{CategoryName: "Slots", PollSeconds: 60, GraceMinutes: 5},
		Giveaways:   GiveawaysConfig{PollSeconds: 60},
		Vouch:       VouchConfig{CooldownSeconds: 3600},
		StatusWatch: StatusConfig{PollSeconds: 60},
		Embeds: EmbedColors{
			Primary: 0x5865F2,
			Success: 0x22C55E,
			Warning: 0xF59E0B,
			Error:   0xEF4444,
		},
	}
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("GUILDHALL_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.GuildID == "" {
		return errors.New("GUILD_ID is required")
	}
	switch c.Database.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return errors.New("database driver must be sqlite, postgres, or memory")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.GuildID = envString("GUILD_ID", cfg.GuildID)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Database.Driver = envString("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.Path = envString("DATABASE_PATH", cfg.Database.Path)
	cfg.Database.DSN = envString("DATABASE_DSN", cfg.Database.DSN)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Roles.Staff = envString("STAFF_ROLE_ID", cfg.Roles.Staff)
	cfg.Roles.Status = envString("STATUS_ROLE_ID", cfg.Roles.Status)
	cfg.Roles.Vouch = envString("VOUCH_ROLE_ID", cfg.Roles.Vouch)
	cfg.Channels.Log = envString("LOG_CHANNEL_ID", cfg.Channels.Log)
	cfg.Channels.Vouch = envString("VOUCH_CHANNEL_ID", cfg.Channels.Vouch)
	cfg.Moderation.MinAccountAgeDays = envInt("MIN_ACCOUNT_AGE_DAYS", cfg.Moderation.MinAccountAgeDays)
	cfg.Moderation.JoinSurgeCount = envInt("JOIN_SURGE_COUNT", cfg.Moderation.JoinSurgeCount)
	cfg.Moderation.JoinSurgeWindowSeconds = envInt("JOIN_SURGE_WINDOW_SECONDS", cfg.Moderation.JoinSurgeWindowSeconds)
	cfg.Slots.PollSeconds = envInt("SLOT_POLL_SECONDS", cfg.Slots.PollSeconds)
	cfg.Slots.GraceMinutes = envInt("SLOT_GRACE_MINUTES", cfg.Slots.GraceMinutes)
	cfg.Giveaways.PollSeconds = envInt("GIVEAWAY_POLL_SECONDS", cfg.Giveaways.PollSeconds)
	cfg.Vouch.CooldownSeconds = envInt("VOUCH_COOLDOWN_SECONDS", cfg.Vouch.CooldownSeconds)
	cfg.StatusWatch.PollSeconds = envInt("STATUS_POLL_SECONDS", cfg.StatusWatch.PollSeconds)
	if codes := os.Getenv("STATUS_INVITE_CODES"); codes != "" {
		parts := strings.Split(codes, ",")
		cleaned := parts[:0]
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		cfg.StatusWatch.InviteCodes = cleaned
	}
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
