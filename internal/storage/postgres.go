package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs deployments that already run a Postgres instance.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS guild_settings (
			guild_id TEXT PRIMARY KEY,
			log_channel_id TEXT NOT NULL DEFAULT '',
			welcome_channel_id TEXT NOT NULL DEFAULT '',
			welcome_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			ticket_panel_channel_id TEXT NOT NULL DEFAULT '',
			ticket_category_id TEXT NOT NULL DEFAULT '',
			slot_category_id TEXT NOT NULL DEFAULT '',
			jtc_channel_id TEXT NOT NULL DEFAULT '',
			jtc_category_id TEXT NOT NULL DEFAULT '',
			antiraid_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			min_account_age_days INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS channel_locks (
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			had_overwrite BOOLEAN NOT NULL DEFAULT FALSE,
			allow_bits BIGINT NOT NULL DEFAULT 0,
			deny_bits BIGINT NOT NULL DEFAULT 0,
			locked_by TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			locked_at BIGINT NOT NULL,
			PRIMARY KEY (guild_id, channel_id)
		)`,
		`CREATE TABLE IF NOT EXISTS moderation_actions (
			id BIGSERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			moderator_id TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			duration_seconds BIGINT NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_moderation_user ON moderation_actions (guild_id, user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id BIGSERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			type TEXT NOT NULL,
			answers TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'open',
			created_at BIGINT NOT NULL,
			closed_at BIGINT,
			closed_by TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_user ON tickets (guild_id, user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_channel ON tickets (guild_id, channel_id)`,
		`CREATE TABLE IF NOT EXISTS slots (
			id BIGSERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			everyone_quota INTEGER NOT NULL DEFAULT 0,
			everyone_used INTEGER NOT NULL DEFAULT 0,
			here_quota INTEGER NOT NULL DEFAULT 0,
			here_used INTEGER NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			closed_reason TEXT NOT NULL DEFAULT '',
			closed_at BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_channel ON slots (guild_id, channel_id)`,
		`CREATE TABLE IF NOT EXISTS giveaways (
			id BIGSERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			host_id TEXT NOT NULL,
			prize TEXT NOT NULL,
			winners_count INTEGER NOT NULL DEFAULT 1,
			created_at BIGINT NOT NULL,
			ends_at BIGINT NOT NULL,
			ended BOOLEAN NOT NULL DEFAULT FALSE,
			ended_at BIGINT,
			winner_ids TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_giveaways_message ON giveaways (guild_id, message_id)`,
		`CREATE TABLE IF NOT EXISTS vouches (
			id BIGSERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			voucher_id TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			created_at BIGINT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_vouches_pair ON vouches (guild_id, user_id, voucher_id)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id BIGSERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			reporter_id TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT 'report',
			status TEXT NOT NULL DEFAULT 'pending',
			created_at BIGINT NOT NULL,
			reviewed_by TEXT NOT NULL DEFAULT '',
			reviewed_at BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_user ON reports (guild_id, user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS temp_voice (
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at BIGINT NOT NULL,
			PRIMARY KEY (guild_id, channel_id)
		)`,
	}
	for _, statement := range statements {
		if _, err := s.pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) GetGuildSettings(ctx context.Context, guildID string, defaults GuildSettings) (GuildSettings, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT log_channel_id, welcome_channel_id, welcome_enabled,
		ticket_panel_channel_id, ticket_category_id, slot_category_id,
		jtc_channel_id, jtc_category_id, antiraid_enabled, min_account_age_days
		FROM guild_settings WHERE guild_id = $1`, guildID)

	result := defaults
	result.GuildID = guildID
	err := row.Scan(
		&result.LogChannelID,
		&result.WelcomeChannelID,
		&result.WelcomeEnabled,
		&result.TicketPanelChannelID,
		&result.TicketCategoryID,
		&result.SlotCategoryID,
		&result.JTCChannelID,
		&result.JTCCategoryID,
		&result.AntiRaidEnabled,
		&result.MinAccountAgeDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result, nil
		}
		return GuildSettings{}, err
	}
	if result.MinAccountAgeDays <= 0 {
		result.MinAccountAgeDays = defaults.MinAccountAgeDays
	}
	return result, nil
}

func (s *PostgresStore) UpsertGuildSettings(ctx context.Context, settings GuildSettings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guild_settings (
			guild_id, log_channel_id, welcome_channel_id, welcome_enabled,
			ticket_panel_channel_id, ticket_category_id, slot_category_id,
			jtc_channel_id, jtc_category_id, antiraid_enabled, min_account_age_days
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (guild_id) DO UPDATE SET
			log_channel_id = EXCLUDED.log_channel_id,
			welcome_channel_id = EXCLUDED.welcome_channel_id,
			welcome_enabled = EXCLUDED.welcome_enabled,
			ticket_panel_channel_id = EXCLUDED.ticket_panel_channel_id,
			ticket_category_id = EXCLUDED.ticket_category_id,
			slot_category_id = EXCLUDED.slot_category_id,
			jtc_channel_id = EXCLUDED.jtc_channel_id,
			jtc_category_id = EXCLUDED.jtc_category_id,
			antiraid_enabled = EXCLUDED.antiraid_enabled,
			min_account_age_days = EXCLUDED.min_account_age_days
	`, settings.GuildID, settings.LogChannelID, settings.WelcomeChannelID, settings.WelcomeEnabled,
		settings.TicketPanelChannelID, settings.TicketCategoryID, settings.SlotCategoryID,
		settings.JTCChannelID, settings.JTCCategoryID, settings.AntiRaidEnabled, settings.MinAccountAgeDays)
	return err
}

func (s *PostgresStore) SaveChannelLock(ctx context.Context, lock ChannelLock) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO channel_locks (guild_id, channel_id, had_overwrite, allow_bits, deny_bits, locked_by, reason, locked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guild_id, channel_id) DO UPDATE SET
			had_overwrite = EXCLUDED.had_overwrite,
			allow_bits = EXCLUDED.allow_bits,
			deny_bits = EXCLUDED.deny_bits,
			locked_by = EXCLUDED.locked_by,
			reason = EXCLUDED.reason,
			locked_at = EXCLUDED.locked_at
	`, lock.GuildID, lock.ChannelID, lock.HadOverwrite, lock.Allow, lock.Deny, lock.LockedBy, lock.Reason, lock.LockedAt.Unix())
	return err
}

func (s *PostgresStore) GetChannelLock(ctx context.Context, guildID, channelID string) (ChannelLock, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT guild_id, channel_id, had_overwrite, allow_bits, deny_bits, locked_by, reason, locked_at
		FROM channel_locks WHERE guild_id = $1 AND channel_id = $2
	`, guildID, channelID)

	var lock ChannelLock
	var lockedAt int64
	err := row.Scan(&lock.GuildID, &lock.ChannelID, &lock.HadOverwrite, &lock.Allow, &lock.Deny, &lock.LockedBy, &lock.Reason, &lockedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChannelLock{}, ErrNotFound
		}
		return ChannelLock{}, err
	}
	lock.LockedAt = time.Unix(lockedAt, 0)
	return lock, nil
}

func (s *PostgresStore) DeleteChannelLock(ctx context.Context, guildID, channelID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM channel_locks WHERE guild_id = $1 AND channel_id = $2`, guildID, channelID)
	return err
}

func (s *PostgresStore) ListChannelLocks(ctx context.Context, guildID string) ([]ChannelLock, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT guild_id, channel_id, had_overwrite, allow_bits, deny_bits, locked_by, reason, locked_at
		FROM channel_locks WHERE guild_id = $1 ORDER BY locked_at
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locks []ChannelLock
	for rows.Next() {
		var lock ChannelLock
		var lockedAt int64
		if err := rows.Scan(&lock.GuildID, &lock.ChannelID, &lock.HadOverwrite, &lock.Allow, &lock.Deny, &lock.LockedBy, &lock.Reason, &lockedAt); err != nil {
			return nil, err
		}
		lock.LockedAt = time.Unix(lockedAt, 0)
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}

func (s *PostgresStore) AddModerationAction(ctx context.Context, action ModerationAction) (int64, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO moderation_actions (guild_id, user_id, moderator_id, action, reason, duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id
	`, action.GuildID, action.UserID, action.ModeratorID, action.Action, action.Reason, action.DurationSeconds, action.CreatedAt.Unix())
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) ListModerationActions(ctx context.Context, guildID, userID string, limit int) ([]ModerationAction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, user_id, moderator_id, action, reason, duration_seconds, created_at
		FROM moderation_actions WHERE guild_id = $1 AND user_id = $2
		ORDER BY created_at DESC LIMIT $3
	`, guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []ModerationAction
	for rows.Next() {
		var action ModerationAction
		var created int64
		if err := rows.Scan(&action.ID, &action.GuildID, &action.UserID, &action.ModeratorID, &action.Action, &action.Reason, &action.DurationSeconds, &created); err != nil {
			return nil, err
		}
		action.CreatedAt = time.Unix(created, 0)
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

func (s *PostgresStore) CreateTicket(ctx context.Context, ticket Ticket) (int64, error) {
	answers, err := encodeAnswers(ticket.Answers)
	if err != nil {
		return 0, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO tickets (guild_id, channel_id, user_id, type, answers, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id
	`, ticket.GuildID, ticket.ChannelID, ticket.UserID, ticket.Type, answers, TicketOpen, ticket.CreatedAt.Unix())
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const pgTicketSelect = `SELECT id, guild_id, channel_id, user_id, type, answers, status, created_at, closed_at, closed_by FROM tickets`

func (s *PostgresStore) GetTicketByChannel(ctx context.Context, guildID, channelID string) (Ticket, error) {
	row := s.pool.QueryRow(ctx, pgTicketSelect+` WHERE guild_id = $1 AND channel_id = $2 ORDER BY id DESC LIMIT 1`, guildID, channelID)
	return scanPgTicket(row)
}

func (s *PostgresStore) GetOpenTicketByUser(ctx context.Context, guildID, userID string) (Ticket, error) {
	row := s.pool.QueryRow(ctx, pgTicketSelect+` WHERE guild_id = $1 AND user_id = $2 AND status = $3 ORDER BY id DESC LIMIT 1`, guildID, userID, TicketOpen)
	return scanPgTicket(row)
}

func (s *PostgresStore) ListOpenTickets(ctx context.Context, guildID string) ([]Ticket, error) {
	rows, err := s.pool.Query(ctx, pgTicketSelect+` WHERE guild_id = $1 AND status = $2 ORDER BY created_at`, guildID, TicketOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		ticket, err := scanPgTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (s *PostgresStore) CloseTicket(ctx context.Context, guildID, channelID, closedBy string, closedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE tickets SET status = $1, closed_by = $2, closed_at = $3
		WHERE guild_id = $4 AND channel_id = $5 AND status = $6
	`, TicketClosed, closedBy, closedAt.Unix(), guildID, channelID, TicketOpen)
	return err
}

func scanPgTicket(row pgx.Row) (Ticket, error) {
	var ticket Ticket
	var answers string
	var created int64
	var closed *int64
	err := row.Scan(&ticket.ID, &ticket.GuildID, &ticket.ChannelID, &ticket.UserID, &ticket.Type, &answers, &ticket.Status, &created, &closed, &ticket.ClosedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, ErrNotFound
		}
		return Ticket{}, err
	}
	ticket.CreatedAt = time.Unix(created, 0)
	if closed != nil {
		value := time.Unix(*closed, 0)
		ticket.ClosedAt = &value
	}
	if err := json.Unmarshal([]byte(answers), &ticket.Answers); err != nil {
		return Ticket{}, fmt.Errorf("decode ticket answers: %w", err)
	}
	return ticket, nil
}

func (s *PostgresStore) CreateSlot(ctx context.Context, slot Slot) (int64, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO slots (guild_id, channel_id, user_id, everyone_quota, everyone_used, here_quota, here_used, created_at, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE) RETURNING id
	`, slot.GuildID, slot.ChannelID, slot.UserID, slot.EveryoneQuota, slot.EveryoneUsed, slot.HereQuota, slot.HereUsed, slot.CreatedAt.Unix(), slot.ExpiresAt.Unix())
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const pgSlotSelect = `SELECT id, guild_id, channel_id, user_id, everyone_quota, everyone_used, here_quota, here_used, created_at, expires_at, active, closed_reason, closed_at FROM slots`

func (s *PostgresStore) GetSlotByChannel(ctx context.Context, guildID, channelID string) (Slot, error) {
	row := s.pool.QueryRow(ctx, pgSlotSelect+` WHERE guild_id = $1 AND channel_id = $2 ORDER BY id DESC LIMIT 1`, guildID, channelID)
	return scanPgSlot(row)
}

func (s *PostgresStore) ListActiveSlots(ctx context.Context, guildID string) ([]Slot, error) {
	rows, err := s.pool.Query(ctx, pgSlotSelect+` WHERE guild_id = $1 AND active ORDER BY expires_at`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		slot, err := scanPgSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *PostgresStore) IncrementSlotPing(ctx context.Context, guildID, channelID, kind string) error {
	column := "everyone_used"
	if kind == PingHere {
		column = "here_used"
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE slots SET `+column+` = `+column+` + 1
		WHERE guild_id = $1 AND channel_id = $2 AND active
	`, guildID, channelID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CloseSlot(ctx context.Context, guildID, channelID, reason string, closedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE slots SET active = FALSE, closed_reason = $1, closed_at = $2
		WHERE guild_id = $3 AND channel_id = $4 AND active
	`, reason, closedAt.Unix(), guildID, channelID)
	return err
}

func scanPgSlot(row pgx.Row) (Slot, error) {
	var slot Slot
	var created, expires int64
	var closed *int64
	err := row.Scan(&slot.ID, &slot.GuildID, &slot.ChannelID, &slot.UserID, &slot.EveryoneQuota, &slot.EveryoneUsed, &slot.HereQuota, &slot.HereUsed, &created, &expires, &slot.Active, &slot.ClosedReason, &closed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Slot{}, ErrNotFound
		}
		return Slot{}, err
	}
	slot.CreatedAt = time.Unix(created, 0)
	slot.ExpiresAt = time.Unix(expires, 0)
	if closed != nil {
		value := time.Unix(*closed, 0)
		slot.ClosedAt = &value
	}
	return slot, nil
}

func (s *PostgresStore) CreateGiveaway(ctx context.Context, giveaway Giveaway) (int64, error) {
	winners, err := encodeWinners(giveaway.WinnerIDs)
	if err != nil {
		return 0, err
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO giveaways (guild_id, channel_id, message_id, host_id, prize, winners_count, created_at, ends_at, ended, winner_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9) RETURNING id
	`, giveaway.GuildID, giveaway.ChannelID, giveaway.MessageID, giveaway.HostID, giveaway.Prize, giveaway.WinnersCount, giveaway.CreatedAt.Unix(), giveaway.EndsAt.Unix(), winners)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const pgGiveawaySelect = `SELECT id, guild_id, channel_id, message_id, host_id, prize, winners_count, created_at, ends_at, ended, ended_at, winner_ids FROM giveaways`

func (s *PostgresStore) GetGiveawayByMessage(ctx context.Context, guildID, messageID string) (Giveaway, error) {
	row := s.pool.QueryRow(ctx, pgGiveawaySelect+` WHERE guild_id = $1 AND message_id = $2`, guildID, messageID)
	return scanPgGiveaway(row)
}

func (s *PostgresStore) ListActiveGiveaways(ctx context.Context, guildID string) ([]Giveaway, error) {
	return s.listGiveaways(ctx, pgGiveawaySelect+` WHERE guild_id = $1 AND NOT ended ORDER BY ends_at`, guildID)
}

func (s *PostgresStore) ListEndedGiveaways(ctx context.Context, guildID string, limit int) ([]Giveaway, error) {
	return s.listGiveaways(ctx, pgGiveawaySelect+` WHERE guild_id = $1 AND ended ORDER BY ended_at DESC LIMIT $2`, guildID, limit)
}

func (s *PostgresStore) listGiveaways(ctx context.Context, query string, args ...any) ([]Giveaway, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var giveaways []Giveaway
	for rows.Next() {
		giveaway, err := scanPgGiveaway(rows)
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, giveaway)
	}
	return giveaways, rows.Err()
}

func (s *PostgresStore) EndGiveaway(ctx context.Context, guildID, messageID string, winnerIDs []string, endedAt time.Time) error {
	winners, err := encodeWinners(winnerIDs)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE giveaways SET ended = TRUE, ended_at = $1, winner_ids = $2
		WHERE guild_id = $3 AND message_id = $4 AND NOT ended
	`, endedAt.Unix(), winners, guildID, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddGiveawayWinner(ctx context.Context, guildID, messageID, winnerID string) error {
	giveaway, err := s.GetGiveawayByMessage(ctx, guildID, messageID)
	if err != nil {
		return err
	}
	winners, err := encodeWinners(append(giveaway.WinnerIDs, winnerID))
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE giveaways SET winner_ids = $1 WHERE guild_id = $2 AND message_id = $3
	`, winners, guildID, messageID)
	return err
}

func scanPgGiveaway(row pgx.Row) (Giveaway, error) {
	var giveaway Giveaway
	var created, ends int64
	var endedAt *int64
	var winners string
	err := row.Scan(&giveaway.ID, &giveaway.GuildID, &giveaway.ChannelID, &giveaway.MessageID, &giveaway.HostID, &giveaway.Prize, &giveaway.WinnersCount, &created, &ends, &giveaway.Ended, &endedAt, &winners)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Giveaway{}, ErrNotFound
		}
		return Giveaway{}, err
	}
	giveaway.CreatedAt = time.Unix(created, 0)
	giveaway.EndsAt = time.Unix(ends, 0)
	if endedAt != nil {
		value := time.Unix(*endedAt, 0)
		giveaway.EndedAt = &value
	}
	if err := json.Unmarshal([]byte(winners), &giveaway.WinnerIDs); err != nil {
		return Giveaway{}, fmt.Errorf("decode winner ids: %w", err)
	}
	return giveaway, nil
}

func (s *PostgresStore) AddVouch(ctx context.Context, vouch Vouch) (int64, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO vouches (guild_id, user_id, voucher_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id
	`, vouch.GuildID, vouch.UserID, vouch.VoucherID, vouch.Reason, vouch.CreatedAt.Unix())
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresStore) HasVouched(ctx context.Context, guildID, voucherID, userID string) (bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(1) FROM vouches WHERE guild_id = $1 AND voucher_id = $2 AND user_id = $3
	`, guildID, voucherID, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PostgresStore) ListVouches(ctx context.Context, guildID, userID string, limit int) ([]Vouch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, user_id, voucher_id, reason, created_at
		FROM vouches WHERE guild_id = $1 AND user_id = $2
		ORDER BY created_at DESC LIMIT $3
	`, guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPgVouches(rows)
}

func (s *PostgresStore) CountVouches(ctx context.Context, guildID, userID string) (int, error) {
	row := s.pool.QueryRow(ctx, `SELECT COUNT(1) FROM vouches WHERE guild_id = $1 AND user_id = $2`, guildID, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *PostgresStore) GetVouchStats(ctx context.Context, guildID string) (VouchStats, error) {
	var stats VouchStats
	row := s.pool.QueryRow(ctx, `SELECT COUNT(1) FROM vouches WHERE guild_id = $1`, guildID)
	if err := row.Scan(&stats.Total); err != nil {
		return VouchStats{}, err
	}

	row = s.pool.QueryRow(ctx, `
		SELECT user_id, COUNT(1) AS total FROM vouches WHERE guild_id = $1
		GROUP BY user_id ORDER BY total DESC LIMIT 1
	`, guildID)
	if err := row.Scan(&stats.TopTargetID, &stats.TopTargetCount); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return VouchStats{}, err
	}

	row = s.pool.QueryRow(ctx, `
		SELECT voucher_id, COUNT(1) AS total FROM vouches WHERE guild_id = $1
		GROUP BY voucher_id ORDER BY total DESC LIMIT 1
	`, guildID)
	if err := row.Scan(&stats.TopVoucherID, &stats.TopVoucherCount); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return VouchStats{}, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, guild_id, user_id, voucher_id, reason, created_at
		FROM vouches WHERE guild_id = $1 ORDER BY created_at DESC LIMIT 5
	`, guildID)
	if err != nil {
		return VouchStats{}, err
	}
	defer rows.Close()
	stats.Recent, err = collectPgVouches(rows)
	if err != nil {
		return VouchStats{}, err
	}
	return stats, nil
}

func (s *PostgresStore) DeleteVouch(ctx context.Context, guildID, userID, voucherID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM vouches WHERE guild_id = $1 AND user_id = $2 AND voucher_id = $3
	`, guildID, userID, voucherID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func collectPgVouches(rows pgx.Rows) ([]Vouch, error) {
	var vouches []Vouch
	for rows.Next() {
		var vouch Vouch
		var created int64
		if err := rows.Scan(&vouch.ID, &vouch.GuildID, &vouch.UserID, &vouch.VoucherID, &vouch.Reason, &created); err != nil {
			return nil, err
		}
		vouch.CreatedAt = time.Unix(created, 0)
		vouches = append(vouches, vouch)
	}
	return vouches, rows.Err()
}

func (s *PostgresStore) CreateReport(ctx context.Context, report Report) (int64, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO reports (guild_id, user_id, reporter_id, reason, kind, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id
	`, report.GuildID, report.UserID, report.ReporterID, report.Reason, report.Kind, report.Status, report.CreatedAt.Unix())
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const pgReportSelect = `SELECT id, guild_id, user_id, reporter_id, reason, kind, status, created_at, reviewed_by, reviewed_at FROM reports`

func (s *PostgresStore) GetReport(ctx context.Context, guildID string, id int64) (Report, error) {
	row := s.pool.QueryRow(ctx, pgReportSelect+` WHERE guild_id = $1 AND id = $2`, guildID, id)
	return scanPgReport(row)
}

func (s *PostgresStore) SetReportStatus(ctx context.Context, guildID string, id int64, status, reviewerID string, reviewedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE reports SET status = $1, reviewed_by = $2, reviewed_at = $3
		WHERE guild_id = $4 AND id = $5
	`, status, reviewerID, reviewedAt.Unix(), guildID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListFeedback(ctx context.Context, guildID, userID string, limit int) ([]Report, error) {
	rows, err := s.pool.Query(ctx, pgReportSelect+` WHERE guild_id = $1 AND user_id = $2 ORDER BY created_at DESC LIMIT $3`, guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		report, err := scanPgReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (s *PostgresStore) GetFeedbackCounts(ctx context.Context, guildID, userID string) (FeedbackCounts, error) {
	var counts FeedbackCounts
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(1) FROM reports WHERE guild_id = $1 AND user_id = $2 AND kind = $3 AND status = $4
	`, guildID, userID, KindReport, ReportApproved)
	if err := row.Scan(&counts.ApprovedReports); err != nil {
		return FeedbackCounts{}, err
	}
	row = s.pool.QueryRow(ctx, `
		SELECT COUNT(1) FROM reports WHERE guild_id = $1 AND user_id = $2 AND kind = $3
	`, guildID, userID, KindPraise)
	if err := row.Scan(&counts.Praises); err != nil {
		return FeedbackCounts{}, err
	}
	return counts, nil
}

func scanPgReport(row pgx.Row) (Report, error) {
	var report Report
	var created int64
	var reviewed *int64
	err := row.Scan(&report.ID, &report.GuildID, &report.UserID, &report.ReporterID, &report.Reason, &report.Kind, &report.Status, &created, &report.ReviewedBy, &reviewed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	report.CreatedAt = time.Unix(created, 0)
	if reviewed != nil {
		value := time.Unix(*reviewed, 0)
		report.ReviewedAt = &value
	}
	return report, nil
}

func (s *PostgresStore) AddTempVoice(ctx context.Context, voice TempVoice) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO temp_voice (guild_id, channel_id, owner_id, active, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (guild_id, channel_id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			active = TRUE,
			created_at = EXCLUDED.created_at
	`, voice.GuildID, voice.ChannelID, voice.OwnerID, voice.CreatedAt.Unix())
	return err
}

func (s *PostgresStore) GetTempVoice(ctx context.Context, guildID, channelID string) (TempVoice, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT guild_id, channel_id, owner_id, active, created_at
		FROM temp_voice WHERE guild_id = $1 AND channel_id = $2
	`, guildID, channelID)

	var voice TempVoice
	var created int64
	err := row.Scan(&voice.GuildID, &voice.ChannelID, &voice.OwnerID, &voice.Active, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TempVoice{}, ErrNotFound
		}
		return TempVoice{}, err
	}
	voice.CreatedAt = time.Unix(created, 0)
	return voice, nil
}

func (s *PostgresStore) ListActiveTempVoice(ctx context.Context, guildID string) ([]TempVoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT guild_id, channel_id, owner_id, active, created_at
		FROM temp_voice WHERE guild_id = $1 AND active ORDER BY created_at
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voices []TempVoice
	for rows.Next() {
		var voice TempVoice
		var created int64
		if err := rows.Scan(&voice.GuildID, &voice.ChannelID, &voice.OwnerID, &voice.Active, &created); err != nil {
			return nil, err
		}
		voice.CreatedAt = time.Unix(created, 0)
		voices = append(voices, voice)
	}
	return voices, rows.Err()
}

func (s *PostgresStore) DeactivateTempVoice(ctx context.Context, guildID, channelID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE temp_voice SET active = FALSE WHERE guild_id = $1 AND channel_id = $2`, guildID, channelID)
	return err
}
