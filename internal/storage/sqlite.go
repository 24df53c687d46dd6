package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore is the default embedded backend.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func (s *SQLiteStore) Migrate() error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return err
	}

	var files []string
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := migrations.ReadFile(path.Join("migrations", file))
		if err != nil {
			return err
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			if isIgnorableMigrationError(err) {
				continue
			}
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetGuildSettings(ctx context.Context, guildID string, defaults GuildSettings) (GuildSettings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT log_channel_id, welcome_channel_id, welcome_enabled,
		ticket_panel_channel_id, ticket_category_id, slot_category_id,
		jtc_channel_id, jtc_category_id, antiraid_enabled, min_account_age_days
		FROM guild_settings WHERE guild_id = ?`, guildID)

	result := defaults
	result.GuildID = guildID

	var welcome, antiraid int
	err := row.Scan(
		&result.LogChannelID,
		&result.WelcomeChannelID,
		&welcome,
		&result.TicketPanelChannelID,
		&result.TicketCategoryID,
		&result.SlotCategoryID,
		&result.JTCChannelID,
		&result.JTCCategoryID,
		&antiraid,
		&result.MinAccountAgeDays,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result, nil
		}
		return GuildSettings{}, err
	}
	result.WelcomeEnabled = welcome == 1
	result.AntiRaidEnabled = antiraid == 1
	if result.MinAccountAgeDays <= 0 {
		result.MinAccountAgeDays = defaults.MinAccountAgeDays
	}
	return result, nil
}

func (s *SQLiteStore) UpsertGuildSettings(ctx context.Context, settings GuildSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guild_settings (
			guild_id, log_channel_id, welcome_channel_id, welcome_enabled,
			ticket_panel_channel_id, ticket_category_id, slot_category_id,
			jtc_channel_id, jtc_category_id, antiraid_enabled, min_account_age_days
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			log_channel_id = excluded.log_channel_id,
			welcome_channel_id = excluded.welcome_channel_id,
			welcome_enabled = excluded.welcome_enabled,
			ticket_panel_channel_id = excluded.ticket_panel_channel_id,
			ticket_category_id = excluded.ticket_category_id,
			slot_category_id = excluded.slot_category_id,
			jtc_channel_id = excluded.jtc_channel_id,
			jtc_category_id = excluded.jtc_category_id,
			antiraid_enabled = excluded.antiraid_enabled,
			min_account_age_days = excluded.min_account_age_days
	`,
		settings.GuildID,
		settings.LogChannelID,
		settings.WelcomeChannelID,
		boolToInt(settings.WelcomeEnabled),
		settings.TicketPanelChannelID,
		settings.TicketCategoryID,
		settings.SlotCategoryID,
		settings.JTCChannelID,
		settings.JTCCategoryID,
		boolToInt(settings.AntiRaidEnabled),
		settings.MinAccountAgeDays,
	)
	return err
}

func (s *SQLiteStore) SaveChannelLock(ctx context.Context, lock ChannelLock) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channel_locks (guild_id, channel_id, had_overwrite, allow_bits, deny_bits, locked_by, reason, locked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, channel_id) DO UPDATE SET
			had_overwrite = excluded.had_overwrite,
			allow_bits = excluded.allow_bits,
			deny_bits = excluded.deny_bits,
			locked_by = excluded.locked_by,
			reason = excluded.reason,
			locked_at = excluded.locked_at
	`, lock.GuildID, lock.ChannelID, boolToInt(lock.HadOverwrite), lock.Allow, lock.Deny, lock.LockedBy, lock.Reason, lock.LockedAt.Unix())
	return err
}

func (s *SQLiteStore) GetChannelLock(ctx context.Context, guildID, channelID string) (ChannelLock, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT guild_id, channel_id, had_overwrite, allow_bits, deny_bits, locked_by, reason, locked_at
		FROM channel_locks WHERE guild_id = ? AND channel_id = ?
	`, guildID, channelID)
	return scanChannelLock(row)
}

func (s *SQLiteStore) DeleteChannelLock(ctx context.Context, guildID, channelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM channel_locks WHERE guild_id = ? AND channel_id = ?`, guildID, channelID)
	return err
}

func (s *SQLiteStore) ListChannelLocks(ctx context.Context, guildID string) ([]ChannelLock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, channel_id, had_overwrite, allow_bits, deny_bits, locked_by, reason, locked_at
		FROM channel_locks WHERE guild_id = ? ORDER BY locked_at
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locks []ChannelLock
	for rows.Next() {
		lock, err := scanChannelLock(rows)
		if err != nil {
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannelLock(row rowScanner) (ChannelLock, error) {
	var lock ChannelLock
	var had int
	var lockedAt int64
	err := row.Scan(&lock.GuildID, &lock.ChannelID, &had, &lock.Allow, &lock.Deny, &lock.LockedBy, &lock.Reason, &lockedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ChannelLock{}, ErrNotFound
		}
		return ChannelLock{}, err
	}
	lock.HadOverwrite = had == 1
	lock.LockedAt = time.Unix(lockedAt, 0)
	return lock, nil
}

func (s *SQLiteStore) AddModerationAction(ctx context.Context, action ModerationAction) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO moderation_actions (guild_id, user_id, moderator_id, action, reason, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, action.GuildID, action.UserID, action.ModeratorID, action.Action, action.Reason, action.DurationSeconds, action.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) ListModerationActions(ctx context.Context, guildID, userID string, limit int) ([]ModerationAction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, moderator_id, action, reason, duration_seconds, created_at
		FROM moderation_actions
		WHERE guild_id = ? AND user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
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

func (s *SQLiteStore) CreateTicket(ctx context.Context, ticket Ticket) (int64, error) {
	answers, err := encodeAnswers(ticket.Answers)
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (guild_id, channel_id, user_id, type, answers, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ticket.GuildID, ticket.ChannelID, ticket.UserID, ticket.Type, answers, TicketOpen, ticket.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetTicketByChannel(ctx context.Context, guildID, channelID string) (Ticket, error) {
	row := s.db.QueryRowContext(ctx, ticketSelect+` WHERE guild_id = ? AND channel_id = ? ORDER BY id DESC LIMIT 1`, guildID, channelID)
	return scanTicket(row)
}

func (s *SQLiteStore) GetOpenTicketByUser(ctx context.Context, guildID, userID string) (Ticket, error) {
	row := s.db.QueryRowContext(ctx, ticketSelect+` WHERE guild_id = ? AND user_id = ? AND status = ? ORDER BY id DESC LIMIT 1`, guildID, userID, TicketOpen)
	return scanTicket(row)
}

func (s *SQLiteStore) ListOpenTickets(ctx context.Context, guildID string) ([]Ticket, error) {
	rows, err := s.db.QueryContext(ctx, ticketSelect+` WHERE guild_id = ? AND status = ? ORDER BY created_at`, guildID, TicketOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (s *SQLiteStore) CloseTicket(ctx context.Context, guildID, channelID, closedBy string, closedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET status = ?, closed_by = ?, closed_at = ?
		WHERE guild_id = ? AND channel_id = ? AND status = ?
	`, TicketClosed, closedBy, closedAt.Unix(), guildID, channelID, TicketOpen)
	return err
}

const ticketSelect = `SELECT id, guild_id, channel_id, user_id, type, answers, status, created_at, closed_at, closed_by FROM tickets`

func scanTicket(row rowScanner) (Ticket, error) {
	var ticket Ticket
	var answers string
	var created int64
	var closed sql.NullInt64
	err := row.Scan(&ticket.ID, &ticket.GuildID, &ticket.ChannelID, &ticket.UserID, &ticket.Type, &answers, &ticket.Status, &created, &closed, &ticket.ClosedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ticket{}, ErrNotFound
		}
		return Ticket{}, err
	}
	ticket.CreatedAt = time.Unix(created, 0)
	if closed.Valid {
		value := time.Unix(closed.Int64, 0)
		ticket.ClosedAt = &value
	}
	if err := json.Unmarshal([]byte(answers), &ticket.Answers); err != nil {
		return Ticket{}, fmt.Errorf("decode ticket answers: %w", err)
	}
	return ticket, nil
}

func (s *SQLiteStore) CreateSlot(ctx context.Context, slot Slot) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO slots (guild_id, channel_id, user_id, everyone_quota, everyone_used, here_quota, here_used, created_at, expires_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`, slot.GuildID, slot.ChannelID, slot.UserID, slot.EveryoneQuota, slot.EveryoneUsed, slot.HereQuota, slot.HereUsed, slot.CreatedAt.Unix(), slot.ExpiresAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetSlotByChannel(ctx context.Context, guildID, channelID string) (Slot, error) {
	row := s.db.QueryRowContext(ctx, slotSelect+` WHERE guild_id = ? AND channel_id = ? ORDER BY id DESC LIMIT 1`, guildID, channelID)
	return scanSlot(row)
}

func (s *SQLiteStore) ListActiveSlots(ctx context.Context, guildID string) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, slotSelect+` WHERE guild_id = ? AND active = 1 ORDER BY expires_at`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *SQLiteStore) IncrementSlotPing(ctx context.Context, guildID, channelID, kind string) error {
	column := "everyone_used"
	if kind == PingHere {
		column = "here_used"
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE slots SET `+column+` = `+column+` + 1
		WHERE guild_id = ? AND channel_id = ? AND active = 1
	`, guildID, channelID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CloseSlot(ctx context.Context, guildID, channelID, reason string, closedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE slots SET active = 0, closed_reason = ?, closed_at = ?
		WHERE guild_id = ? AND channel_id = ? AND active = 1
	`, reason, closedAt.Unix(), guildID, channelID)
	return err
}

const slotSelect = `SELECT id, guild_id, channel_id, user_id, everyone_quota, everyone_used, here_quota, here_used, created_at, expires_at, active, closed_reason, closed_at FROM slots`

func scanSlot(row rowScanner) (Slot, error) {
	var slot Slot
	var created, expires int64
	var active int
	var closed sql.NullInt64
	err := row.Scan(&slot.ID, &slot.GuildID, &slot.ChannelID, &slot.UserID, &slot.EveryoneQuota, &slot.EveryoneUsed, &slot.HereQuota, &slot.HereUsed, &created, &expires, &active, &slot.ClosedReason, &closed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Slot{}, ErrNotFound
		}
		return Slot{}, err
	}
	slot.CreatedAt = time.Unix(created, 0)
	slot.ExpiresAt = time.Unix(expires, 0)
	slot.Active = active == 1
	if closed.Valid {
		value := time.Unix(closed.Int64, 0)
		slot.ClosedAt = &value
	}
	return slot, nil
}

func (s *SQLiteStore) CreateGiveaway(ctx context.Context, giveaway Giveaway) (int64, error) {
	winners, err := encodeWinners(giveaway.WinnerIDs)
	if err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO giveaways (guild_id, channel_id, message_id, host_id, prize, winners_count, created_at, ends_at, ended, winner_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`, giveaway.GuildID, giveaway.ChannelID, giveaway.MessageID, giveaway.HostID, giveaway.Prize, giveaway.WinnersCount, giveaway.CreatedAt.Unix(), giveaway.EndsAt.Unix(), winners)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetGiveawayByMessage(ctx context.Context, guildID, messageID string) (Giveaway, error) {
	row := s.db.QueryRowContext(ctx, giveawaySelect+` WHERE guild_id = ? AND message_id = ?`, guildID, messageID)
	return scanGiveaway(row)
}

func (s *SQLiteStore) ListActiveGiveaways(ctx context.Context, guildID string) ([]Giveaway, error) {
	return s.listGiveaways(ctx, giveawaySelect+` WHERE guild_id = ? AND ended = 0 ORDER BY ends_at`, guildID)
}

func (s *SQLiteStore) ListEndedGiveaways(ctx context.Context, guildID string, limit int) ([]Giveaway, error) {
	return s.listGiveaways(ctx, giveawaySelect+` WHERE guild_id = ? AND ended = 1 ORDER BY ended_at DESC LIMIT ?`, guildID, limit)
}

func (s *SQLiteStore) listGiveaways(ctx context.Context, query string, args ...any) ([]Giveaway, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var giveaways []Giveaway
	for rows.Next() {
		giveaway, err := scanGiveaway(rows)
		if err != nil {
			return nil, err
		}
		giveaways = append(giveaways, giveaway)
	}
	return giveaways, rows.Err()
}

func (s *SQLiteStore) EndGiveaway(ctx context.Context, guildID, messageID string, winnerIDs []string, endedAt time.Time) error {
	winners, err := encodeWinners(winnerIDs)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE giveaways SET ended = 1, ended_at = ?, winner_ids = ?
		WHERE guild_id = ? AND message_id = ? AND ended = 0
	`, endedAt.Unix(), winners, guildID, messageID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AddGiveawayWinner(ctx context.Context, guildID, messageID, winnerID string) error {
	giveaway, err := s.GetGiveawayByMessage(ctx, guildID, messageID)
	if err != nil {
		return err
	}
	winners, err := encodeWinners(append(giveaway.WinnerIDs, winnerID))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE giveaways SET winner_ids = ? WHERE guild_id = ? AND message_id = ?
	`, winners, guildID, messageID)
	return err
}

const giveawaySelect = `SELECT id, guild_id, channel_id, message_id, host_id, prize, winners_count, created_at, ends_at, ended, ended_at, winner_ids FROM giveaways`

func scanGiveaway(row rowScanner) (Giveaway, error) {
	var giveaway Giveaway
	var created, ends int64
	var ended int
	var endedAt sql.NullInt64
	var winners string
	err := row.Scan(&giveaway.ID, &giveaway.GuildID, &giveaway.ChannelID, &giveaway.MessageID, &giveaway.HostID, &giveaway.Prize, &giveaway.WinnersCount, &created, &ends, &ended, &endedAt, &winners)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Giveaway{}, ErrNotFound
		}
		return Giveaway{}, err
	}
	giveaway.CreatedAt = time.Unix(created, 0)
	giveaway.EndsAt = time.Unix(ends, 0)
	giveaway.Ended = ended == 1
	if endedAt.Valid {
		value := time.Unix(endedAt.Int64, 0)
		giveaway.EndedAt = &value
	}
	if err := json.Unmarshal([]byte(winners), &giveaway.WinnerIDs); err != nil {
		return Giveaway{}, fmt.Errorf("decode winner ids: %w", err)
	}
	return giveaway, nil
}

func (s *SQLiteStore) AddVouch(ctx context.Context, vouch Vouch) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO vouches (guild_id, user_id, voucher_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, vouch.GuildID, vouch.UserID, vouch.VoucherID, vouch.Reason, vouch.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) HasVouched(ctx context.Context, guildID, voucherID, userID string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM vouches WHERE guild_id = ? AND voucher_id = ? AND user_id = ?
	`, guildID, voucherID, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) ListVouches(ctx context.Context, guildID, userID string, limit int) ([]Vouch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, voucher_id, reason, created_at
		FROM vouches WHERE guild_id = ? AND user_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVouches(rows)
}

func (s *SQLiteStore) CountVouches(ctx context.Context, guildID, userID string) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM vouches WHERE guild_id = ? AND user_id = ?`, guildID, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStore) GetVouchStats(ctx context.Context, guildID string) (VouchStats, error) {
	var stats VouchStats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM vouches WHERE guild_id = ?`, guildID)
	if err := row.Scan(&stats.Total); err != nil {
		return VouchStats{}, err
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT user_id, COUNT(1) AS total FROM vouches WHERE guild_id = ?
		GROUP BY user_id ORDER BY total DESC LIMIT 1
	`, guildID)
	if err := row.Scan(&stats.TopTargetID, &stats.TopTargetCount); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return VouchStats{}, err
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT voucher_id, COUNT(1) AS total FROM vouches WHERE guild_id = ?
		GROUP BY voucher_id ORDER BY total DESC LIMIT 1
	`, guildID)
	if err := row.Scan(&stats.TopVoucherID, &stats.TopVoucherCount); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return VouchStats{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guild_id, user_id, voucher_id, reason, created_at
		FROM vouches WHERE guild_id = ? ORDER BY created_at DESC LIMIT 5
	`, guildID)
	if err != nil {
		return VouchStats{}, err
	}
	defer rows.Close()
	stats.Recent, err = collectVouches(rows)
	if err != nil {
		return VouchStats{}, err
	}
	return stats, nil
}

func (s *SQLiteStore) DeleteVouch(ctx context.Context, guildID, userID, voucherID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM vouches WHERE guild_id = ? AND user_id = ? AND voucher_id = ?
	`, guildID, userID, voucherID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func collectVouches(rows *sql.Rows) ([]Vouch, error) {
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

func (s *SQLiteStore) CreateReport(ctx context.Context, report Report) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (guild_id, user_id, reporter_id, reason, kind, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, report.GuildID, report.UserID, report.ReporterID, report.Reason, report.Kind, report.Status, report.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *SQLiteStore) GetReport(ctx context.Context, guildID string, id int64) (Report, error) {
	row := s.db.QueryRowContext(ctx, reportSelect+` WHERE guild_id = ? AND id = ?`, guildID, id)
	return scanReport(row)
}

func (s *SQLiteStore) SetReportStatus(ctx context.Context, guildID string, id int64, status, reviewerID string, reviewedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reports SET status = ?, reviewed_by = ?, reviewed_at = ?
		WHERE guild_id = ? AND id = ?
	`, status, reviewerID, reviewedAt.Unix(), guildID, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListFeedback(ctx context.Context, guildID, userID string, limit int) ([]Report, error) {
	rows, err := s.db.QueryContext(ctx, reportSelect+` WHERE guild_id = ? AND user_id = ? ORDER BY created_at DESC LIMIT ?`, guildID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (s *SQLiteStore) GetFeedbackCounts(ctx context.Context, guildID, userID string) (FeedbackCounts, error) {
	var counts FeedbackCounts
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM reports WHERE guild_id = ? AND user_id = ? AND kind = ? AND status = ?
	`, guildID, userID, KindReport, ReportApproved)
	if err := row.Scan(&counts.ApprovedReports); err != nil {
		return FeedbackCounts{}, err
	}
	row = s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM reports WHERE guild_id = ? AND user_id = ? AND kind = ?
	`, guildID, userID, KindPraise)
	if err := row.Scan(&counts.Praises); err != nil {
		return FeedbackCounts{}, err
	}
	return counts, nil
}

const reportSelect = `SELECT id, guild_id, user_id, reporter_id, reason, kind, status, created_at, reviewed_by, reviewed_at FROM reports`

func scanReport(row rowScanner) (Report, error) {
	var report Report
	var created int64
	var reviewed sql.NullInt64
	err := row.Scan(&report.ID, &report.GuildID, &report.UserID, &report.ReporterID, &report.Reason, &report.Kind, &report.Status, &created, &report.ReviewedBy, &reviewed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	report.CreatedAt = time.Unix(created, 0)
	if reviewed.Valid {
		value := time.Unix(reviewed.Int64, 0)
		report.ReviewedAt = &value
	}
	return report, nil
}

func (s *SQLiteStore) AddTempVoice(ctx context.Context, voice TempVoice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO temp_voice (guild_id, channel_id, owner_id, active, created_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(guild_id, channel_id) DO UPDATE SET
			owner_id = excluded.owner_id,
			active = 1,
			created_at = excluded.created_at
	`, voice.GuildID, voice.ChannelID, voice.OwnerID, voice.CreatedAt.Unix())
	return err
}

func (s *SQLiteStore) GetTempVoice(ctx context.Context, guildID, channelID string) (TempVoice, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT guild_id, channel_id, owner_id, active, created_at
		FROM temp_voice WHERE guild_id = ? AND channel_id = ?
	`, guildID, channelID)
	return scanTempVoice(row)
}

func (s *SQLiteStore) ListActiveTempVoice(ctx context.Context, guildID string) ([]TempVoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, channel_id, owner_id, active, created_at
		FROM temp_voice WHERE guild_id = ? AND active = 1 ORDER BY created_at
	`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voices []TempVoice
	for rows.Next() {
		voice, err := scanTempVoice(rows)
		if err != nil {
			return nil, err
		}
		voices = append(voices, voice)
	}
	return voices, rows.Err()
}

func (s *SQLiteStore) DeactivateTempVoice(ctx context.Context, guildID, channelID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE temp_voice SET active = 0 WHERE guild_id = ? AND channel_id = ?`, guildID, channelID)
	return err
}

func scanTempVoice(row rowScanner) (TempVoice, error) {
	var voice TempVoice
	var active int
	var created int64
	err := row.Scan(&voice.GuildID, &voice.ChannelID, &voice.OwnerID, &active, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TempVoice{}, ErrNotFound
		}
		return TempVoice{}, err
	}
	voice.Active = active == 1
	voice.CreatedAt = time.Unix(created, 0)
	return voice, nil
}

func encodeAnswers(answers map[string]string) (string, error) {
	if answers == nil {
		answers = map[string]string{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("encode ticket answers: %w", err)
	}
	return string(data), nil
}

func encodeWinners(winnerIDs []string) (string, error) {
	if winnerIDs == nil {
		winnerIDs = []string{}
	}
	data, err := json.Marshal(winnerIDs)
	if err != nil {
		return "", fmt.Errorf("encode winner ids: %w", err)
	}
	return string(data), nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func isIgnorableMigrationError(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "duplicate column name") || strings.Contains(message, "already exists")
}
