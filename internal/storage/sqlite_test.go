package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestUpsertGuildSettings(t *testing.T) {
	store := newTestStore(t)

	settings := GuildSettings{
		GuildID:           "g1",
		LogChannelID:      "c1",
		WelcomeChannelID:  "c2",
		WelcomeEnabled:    true,
		TicketCategoryID:  "cat1",
		AntiRaidEnabled:   true,
		MinAccountAgeDays: 7,
	}
	if err := store.UpsertGuildSettings(context.Background(), settings); err != nil {
		t.Fatalf("upsert guild settings: %v", err)
	}

	settings.LogChannelID = "c3"
	if err := store.UpsertGuildSettings(context.Background(), settings); err != nil {
		t.Fatalf("update guild settings: %v", err)
	}

	got, err := store.GetGuildSettings(context.Background(), "g1", GuildSettings{})
	if err != nil {
		t.Fatalf("get guild settings: %v", err)
	}
	if got.LogChannelID != "c3" {
		t.Fatalf("expected channel c3, got %q", got.LogChannelID)
	}
	if !got.AntiRaidEnabled {
		t.Fatalf("expected antiraid enabled")
	}
}

func TestGuildSettingsDefaults(t *testing.T) {
	store := newTestStore(t)

	defaults := GuildSettings{MinAccountAgeDays: 7}
	got, err := store.GetGuildSettings(context.Background(), "missing", defaults)
	if err != nil {
		t.Fatalf("get guild settings: %v", err)
	}
	if got.GuildID != "missing" {
		t.Fatalf("expected guild id to be set, got %q", got.GuildID)
	}
	if got.MinAccountAgeDays != 7 {
		t.Fatalf("expected default account age 7, got %d", got.MinAccountAgeDays)
	}
}

func TestChannelLockRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	lock := ChannelLock{
		GuildID:      "g1",
		ChannelID:    "c1",
		HadOverwrite: true,
		Allow:        2048,
		Deny:         64,
		LockedBy:     "mod1",
		Reason:       "raid",
		LockedAt:     time.Unix(1700000000, 0),
	}
	if err := store.SaveChannelLock(ctx, lock); err != nil {
		t.Fatalf("save lock: %v", err)
	}

	got, err := store.GetChannelLock(ctx, "g1", "c1")
	if err != nil {
		t.Fatalf("get lock: %v", err)
	}
	if got.Allow != 2048 || got.Deny != 64 || !got.HadOverwrite {
		t.Fatalf("unexpected lock %+v", got)
	}

	locks, err := store.ListChannelLocks(ctx, "g1")
	if err != nil {
		t.Fatalf("list locks: %v", err)
	}
	if len(locks) != 1 {
		t.Fatalf("expected 1 lock, got %d", len(locks))
	}

	if err := store.DeleteChannelLock(ctx, "g1", "c1"); err != nil {
		t.Fatalf("delete lock: %v", err)
	}
	if _, err := store.GetChannelLock(ctx, "g1", "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestModerationActions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, action := range []string{"warn", "mute", "ban"} {
		id, err := store.AddModerationAction(ctx, ModerationAction{
			GuildID:     "g1",
			UserID:      "u1",
			ModeratorID: "m1",
			Action:      action,
			Reason:      "test",
			CreatedAt:   time.Unix(int64(1700000000+i), 0),
		})
		if err != nil {
			t.Fatalf("add action: %v", err)
		}
		if id == 0 {
			t.Fatalf("expected non-zero id")
		}
	}

	actions, err := store.ListModerationActions(ctx, "g1", "u1", 2)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if actions[0].Action != "ban" {
		t.Fatalf("expected newest first, got %q", actions[0].Action)
	}
}

func TestTicketLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateTicket(ctx, Ticket{
		GuildID:   "g1",
		ChannelID: "c1",
		UserID:    "u1",
		Type:      "support",
		Answers:   map[string]string{"issue": "cannot log in"},
		CreatedAt: time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected non-zero ticket id")
	}

	open, err := store.GetOpenTicketByUser(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("get open ticket: %v", err)
	}
	if open.Answers["issue"] != "cannot log in" {
		t.Fatalf("unexpected answers %+v", open.Answers)
	}

	closedAt := time.Unix(1700003600, 0)
	if err := store.CloseTicket(ctx, "g1", "c1", "mod1", closedAt); err != nil {
		t.Fatalf("close ticket: %v", err)
	}
	if _, err := store.GetOpenTicketByUser(ctx, "g1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no open ticket, got %v", err)
	}

	byChannel, err := store.GetTicketByChannel(ctx, "g1", "c1")
	if err != nil {
		t.Fatalf("get ticket by channel: %v", err)
	}
	if byChannel.Status != TicketClosed || byChannel.ClosedBy != "mod1" {
		t.Fatalf("unexpected ticket %+v", byChannel)
	}
	if byChannel.ClosedAt == nil || !byChannel.ClosedAt.Equal(closedAt) {
		t.Fatalf("unexpected closed_at %v", byChannel.ClosedAt)
	}
}

func TestSlotPingAccounting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateSlot(ctx, Slot{
		GuildID:       "g1",
		ChannelID:     "c1",
		UserID:        "u1",
		EveryoneQuota: 2,
		HereQuota:     1,
		CreatedAt:     time.Unix(1700000000, 0),
		ExpiresAt:     time.Unix(1700086400, 0),
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}

	if err := store.IncrementSlotPing(ctx, "g1", "c1", PingEveryone); err != nil {
		t.Fatalf("increment everyone: %v", err)
	}
	if err := store.IncrementSlotPing(ctx, "g1", "c1", PingHere); err != nil {
		t.Fatalf("increment here: %v", err)
	}

	slot, err := store.GetSlotByChannel(ctx, "g1", "c1")
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.EveryoneUsed != 1 || slot.HereUsed != 1 {
		t.Fatalf("unexpected usage %+v", slot)
	}

	if err := store.CloseSlot(ctx, "g1", "c1", SlotClosedQuota, time.Unix(1700001000, 0)); err != nil {
		t.Fatalf("close slot: %v", err)
	}
	if err := store.IncrementSlotPing(ctx, "g1", "c1", PingHere); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on closed slot, got %v", err)
	}

	active, err := store.ListActiveSlots(ctx, "g1")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active slots, got %d", len(active))
	}
}

func TestGiveawayEndOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateGiveaway(ctx, Giveaway{
		GuildID:      "g1",
		ChannelID:    "c1",
		MessageID:    "m1",
		HostID:       "h1",
		Prize:        "nitro",
		WinnersCount: 2,
		CreatedAt:    time.Unix(1700000000, 0),
		EndsAt:       time.Unix(1700086400, 0),
	})
	if err != nil {
		t.Fatalf("create giveaway: %v", err)
	}

	endedAt := time.Unix(1700086400, 0)
	if err := store.EndGiveaway(ctx, "g1", "m1", []string{"u1", "u2"}, endedAt); err != nil {
		t.Fatalf("end giveaway: %v", err)
	}
	if err := store.EndGiveaway(ctx, "g1", "m1", []string{"u3"}, endedAt); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second end to fail, got %v", err)
	}

	got, err := store.GetGiveawayByMessage(ctx, "g1", "m1")
	if err != nil {
		t.Fatalf("get giveaway: %v", err)
	}
	if !got.Ended || len(got.WinnerIDs) != 2 {
		t.Fatalf("unexpected giveaway %+v", got)
	}

	if err := store.AddGiveawayWinner(ctx, "g1", "m1", "u3"); err != nil {
		t.Fatalf("add winner: %v", err)
	}
	got, err = store.GetGiveawayByMessage(ctx, "g1", "m1")
	if err != nil {
		t.Fatalf("get giveaway after reroll: %v", err)
	}
	if len(got.WinnerIDs) != 3 || got.WinnerIDs[2] != "u3" {
		t.Fatalf("unexpected winners %v", got.WinnerIDs)
	}
}

func TestVouchUniquePair(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddVouch(ctx, Vouch{
		GuildID:   "g1",
		UserID:    "u1",
		VoucherID: "v1",
		Reason:    "fast trade",
		CreatedAt: time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatalf("add vouch: %v", err)
	}

	if _, err := store.AddVouch(ctx, Vouch{
		GuildID:   "g1",
		UserID:    "u1",
		VoucherID: "v1",
		Reason:    "again",
		CreatedAt: time.Unix(1700000100, 0),
	}); err == nil {
		t.Fatalf("expected duplicate vouch to fail")
	}

	has, err := store.HasVouched(ctx, "g1", "v1", "u1")
	if err != nil {
		t.Fatalf("has vouched: %v", err)
	}
	if !has {
		t.Fatalf("expected vouch to exist")
	}

	deleted, err := store.DeleteVouch(ctx, "g1", "u1", "v1")
	if err != nil {
		t.Fatalf("delete vouch: %v", err)
	}
	if !deleted {
		t.Fatalf("expected delete to report success")
	}
	deleted, err = store.DeleteVouch(ctx, "g1", "u1", "v1")
	if err != nil {
		t.Fatalf("delete missing vouch: %v", err)
	}
	if deleted {
		t.Fatalf("expected delete of missing vouch to report false")
	}
}

func TestVouchStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pairs := []struct{ user, voucher string }{
		{"u1", "v1"},
		{"u1", "v2"},
		{"u2", "v1"},
	}
	for i, pair := range pairs {
		if _, err := store.AddVouch(ctx, Vouch{
			GuildID:   "g1",
			UserID:    pair.user,
			VoucherID: pair.voucher,
			CreatedAt: time.Unix(int64(1700000000+i), 0),
		}); err != nil {
			t.Fatalf("add vouch: %v", err)
		}
	}

	stats, err := store.GetVouchStats(ctx, "g1")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("expected 3 vouches, got %d", stats.Total)
	}
	if stats.TopTargetID != "u1" || stats.TopTargetCount != 2 {
		t.Fatalf("unexpected top target %q/%d", stats.TopTargetID, stats.TopTargetCount)
	}
	if stats.TopVoucherID != "v1" || stats.TopVoucherCount != 2 {
		t.Fatalf("unexpected top voucher %q/%d", stats.TopVoucherID, stats.TopVoucherCount)
	}
	if len(stats.Recent) != 3 {
		t.Fatalf("expected 3 recent vouches, got %d", len(stats.Recent))
	}
}

func TestReportStatusFlow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateReport(ctx, Report{
		GuildID:    "g1",
		UserID:     "u1",
		ReporterID: "r1",
		Reason:     "scam attempt",
		Kind:       KindReport,
		Status:     ReportPending,
		CreatedAt:  time.Unix(1700000000, 0),
	})
	if err != nil {
		t.Fatalf("create report: %v", err)
	}

	if err := store.SetReportStatus(ctx, "g1", id, ReportApproved, "mod1", time.Unix(1700001000, 0)); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := store.GetReport(ctx, "g1", id)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.Status != ReportApproved || got.ReviewedBy != "mod1" {
		t.Fatalf("unexpected report %+v", got)
	}

	if _, err := store.CreateReport(ctx, Report{
		GuildID:    "g1",
		UserID:     "u1",
		ReporterID: "r2",
		Reason:     "great seller",
		Kind:       KindPraise,
		Status:     ReportApproved,
		CreatedAt:  time.Unix(1700002000, 0),
	}); err != nil {
		t.Fatalf("create praise: %v", err)
	}

	counts, err := store.GetFeedbackCounts(ctx, "g1", "u1")
	if err != nil {
		t.Fatalf("feedback counts: %v", err)
	}
	if counts.ApprovedReports != 1 || counts.Praises != 1 {
		t.Fatalf("unexpected counts %+v", counts)
	}

	if err := store.SetReportStatus(ctx, "g1", 9999, ReportRejected, "mod1", time.Unix(1700003000, 0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing report, got %v", err)
	}
}

func TestTempVoiceLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	voice := TempVoice{
		GuildID:   "g1",
		ChannelID: "vc1",
		OwnerID:   "u1",
		Active:    true,
		CreatedAt: time.Unix(1700000000, 0),
	}
	if err := store.AddTempVoice(ctx, voice); err != nil {
		t.Fatalf("add temp voice: %v", err)
	}

	got, err := store.GetTempVoice(ctx, "g1", "vc1")
	if err != nil {
		t.Fatalf("get temp voice: %v", err)
	}
	if got.OwnerID != "u1" || !got.Active {
		t.Fatalf("unexpected temp voice %+v", got)
	}

	if err := store.DeactivateTempVoice(ctx, "g1", "vc1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, err := store.ListActiveTempVoice(ctx, "g1")
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active channels, got %d", len(active))
	}
}
