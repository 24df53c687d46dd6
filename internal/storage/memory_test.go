package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTickets(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	id, err := store.CreateTicket(ctx, Ticket{
		GuildID:   "g1",
		ChannelID: "c1",
		UserID:    "u1",
		Type:      "partnership",
		Answers:   map[string]string{"server": "example"},
		CreatedAt: time.Unix(1700000000, 0),
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	open, err := store.GetOpenTicketByUser(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "partnership", open.Type)
	assert.Equal(t, "example", open.Answers["server"])

	list, err := store.ListOpenTickets(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.CloseTicket(ctx, "g1", "c1", "mod1", time.Unix(1700001000, 0)))

	_, err = store.GetOpenTicketByUser(ctx, "g1", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	closed, err := store.GetTicketByChannel(ctx, "g1", "c1")
	require.NoError(t, err)
	assert.Equal(t, TicketClosed, closed.Status)
	assert.Equal(t, "mod1", closed.ClosedBy)
}

func TestMemorySlots(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.CreateSlot(ctx, Slot{
		GuildID:       "g1",
		ChannelID:     "c1",
		UserID:        "u1",
		EveryoneQuota: 1,
		HereQuota:     2,
		CreatedAt:     time.Unix(1700000000, 0),
		ExpiresAt:     time.Unix(1700086400, 0),
	})
	require.NoError(t, err)

	require.NoError(t, store.IncrementSlotPing(ctx, "g1", "c1", PingEveryone))
	require.NoError(t, store.IncrementSlotPing(ctx, "g1", "c1", PingHere))

	slot, err := store.GetSlotByChannel(ctx, "g1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, slot.EveryoneUsed)
	assert.Equal(t, 1, slot.HereUsed)

	require.NoError(t, store.CloseSlot(ctx, "g1", "c1", SlotClosedExpired, time.Unix(1700086400, 0)))
	assert.ErrorIs(t, store.IncrementSlotPing(ctx, "g1", "c1", PingHere), ErrNotFound)

	active, err := store.ListActiveSlots(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, active)

	closed, err := store.GetSlotByChannel(ctx, "g1", "c1")
	require.NoError(t, err)
	assert.Equal(t, SlotClosedExpired, closed.ClosedReason)
}

func TestMemoryGiveaways(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.CreateGiveaway(ctx, Giveaway{
		GuildID:      "g1",
		ChannelID:    "c1",
		MessageID:    "m1",
		HostID:       "h1",
		Prize:        "boost",
		WinnersCount: 1,
		CreatedAt:    time.Unix(1700000000, 0),
		EndsAt:       time.Unix(1700003600, 0),
	})
	require.NoError(t, err)

	active, err := store.ListActiveGiveaways(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, store.EndGiveaway(ctx, "g1", "m1", []string{"u1"}, time.Unix(1700003600, 0)))
	assert.ErrorIs(t, store.EndGiveaway(ctx, "g1", "m1", []string{"u2"}, time.Unix(1700003700, 0)), ErrNotFound)

	require.NoError(t, store.AddGiveawayWinner(ctx, "g1", "m1", "u2"))
	got, err := store.GetGiveawayByMessage(ctx, "g1", "m1")
	require.NoError(t, err)
	assert.True(t, got.Ended)
	assert.Equal(t, []string{"u1", "u2"}, got.WinnerIDs)

	ended, err := store.ListEndedGiveaways(ctx, "g1", 10)
	require.NoError(t, err)
	assert.Len(t, ended, 1)
}

func TestMemoryVouches(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	_, err := store.AddVouch(ctx, Vouch{
		GuildID:   "g1",
		UserID:    "u1",
		VoucherID: "v1",
		Reason:    "smooth deal",
		CreatedAt: time.Unix(1700000000, 0),
	})
	require.NoError(t, err)

	_, err = store.AddVouch(ctx, Vouch{
		GuildID:   "g1",
		UserID:    "u1",
		VoucherID: "v1",
		CreatedAt: time.Unix(1700000100, 0),
	})
	assert.Error(t, err, "duplicate pair should be rejected")

	has, err := store.HasVouched(ctx, "g1", "v1", "u1")
	require.NoError(t, err)
	assert.True(t, has)

	count, err := store.CountVouches(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	deleted, err := store.DeleteVouch(ctx, "g1", "u1", "v1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteVouch(ctx, "g1", "u1", "v1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryReports(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	id, err := store.CreateReport(ctx, Report{
		GuildID:    "g1",
		UserID:     "u1",
		ReporterID: "r1",
		Reason:     "spamming invites",
		Kind:       KindReport,
		Status:     ReportPending,
		CreatedAt:  time.Unix(1700000000, 0),
	})
	require.NoError(t, err)

	require.NoError(t, store.SetReportStatus(ctx, "g1", id, ReportWarned, "mod1", time.Unix(1700001000, 0)))

	got, err := store.GetReport(ctx, "g1", id)
	require.NoError(t, err)
	assert.Equal(t, ReportWarned, got.Status)
	assert.Equal(t, "mod1", got.ReviewedBy)

	_, err = store.CreateReport(ctx, Report{
		GuildID:    "g1",
		UserID:     "u1",
		ReporterID: "r2",
		Kind:       KindPraise,
		Status:     ReportApproved,
		CreatedAt:  time.Unix(1700002000, 0),
	})
	require.NoError(t, err)

	feedback, err := store.ListFeedback(ctx, "g1", "u1", 10)
	require.NoError(t, err)
	assert.Len(t, feedback, 2)

	counts, err := store.GetFeedbackCounts(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, counts.ApprovedReports)
	assert.Equal(t, 1, counts.Praises)

	assert.ErrorIs(t, store.SetReportStatus(ctx, "g1", 404, ReportRejected, "mod1", time.Unix(1700003000, 0)), ErrNotFound)
}

func TestMemoryTempVoice(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.AddTempVoice(ctx, TempVoice{
		GuildID:   "g1",
		ChannelID: "vc1",
		OwnerID:   "u1",
		Active:    true,
		CreatedAt: time.Unix(1700000000, 0),
	}))

	got, err := store.GetTempVoice(ctx, "g1", "vc1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)

	require.NoError(t, store.DeactivateTempVoice(ctx, "g1", "vc1"))
	active, err := store.ListActiveTempVoice(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, active)
}
