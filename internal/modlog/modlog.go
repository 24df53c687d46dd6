package modlog

import (
	"context"
	"time"

	"guildhall/internal/storage"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
	LevelCrit = "CRIT"
)

// Logger records moderation activity in the store, the structured log,
// and optionally a guild log channel through the notifier.
type Logger struct {
	store  storage.Store
	logger *zap.Logger
	notify func(context.Context, string, storage.ModerationAction)
}

func NewLogger(store storage.Store, logger *zap.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

func (l *Logger) SetNotifier(notify func(context.Context, string, storage.ModerationAction)) {
	l.notify = notify
}

// Action persists a moderation action and fans it out. The returned id is
// zero when persistence fails; the failure is logged, not propagated, so a
// broken store never blocks an enforcement path.
func (l *Logger) Action(ctx context.Context, level string, action storage.ModerationAction) int64 {
	if action.CreatedAt.IsZero() {
		action.CreatedAt = time.Now()
	}
	var id int64
	if l.store != nil {
		var err error
		id, err = l.store.AddModerationAction(ctx, action)
		if err != nil {
			l.logger.Error("persist moderation action", zap.Error(err), zap.String("action", action.Action))
		}
		action.ID = id
	}
	if l.notify != nil {
		l.notify(ctx, level, action)
	}
	l.logger.Info("moderation",
		zap.String("level", level),
		zap.String("guild_id", action.GuildID),
		zap.String("user_id", action.UserID),
		zap.String("moderator_id", action.ModeratorID),
		zap.String("action", action.Action),
		zap.String("reason", action.Reason),
		zap.Int64("duration_seconds", action.DurationSeconds),
	)
	return id
}

// Event logs a non-punitive occurrence (lockdowns, panel setup, sweeps)
// without writing a moderation row.
func (l *Logger) Event(ctx context.Context, level, guildID, event, details string) {
	if l.notify != nil {
		l.notify(ctx, level, storage.ModerationAction{
			GuildID:   guildID,
			Action:    event,
			Reason:    details,
			CreatedAt: time.Now(),
		})
	}
	l.logger.Info("event",
		zap.String("level", level),
		zap.String("guild_id", guildID),
		zap.String("event", event),
		zap.String("details", details),
	)
}
