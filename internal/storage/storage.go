package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

const (
	TicketOpen   = "open"
	TicketClosed = "closed"

	ReportPending  = "pending"
	ReportApproved = "approved"
	ReportRejected = "rejected"
	ReportWarned   = "warned"

	KindReport = "report"
	KindPraise = "praise"

	SlotClosedManual  = "manual"
	SlotClosedExpired = "expired"
	SlotClosedQuota   = "quota"

	PingEveryone = "everyone"
	PingHere     = "here"
)

type GuildSettings struct {
	GuildID              string
	LogChannelID         string
	WelcomeChannelID     string
	WelcomeEnabled       bool
	TicketPanelChannelID string
	TicketCategoryID     string
	SlotCategoryID       string
	JTCChannelID         string
	JTCCategoryID        string
	AntiRaidEnabled      bool
	MinAccountAgeDays    int
}

// ChannelLock snapshots the @everyone overwrite a channel had before a
// lockdown so unlock can restore it exactly.
type ChannelLock struct {
	GuildID      string
	ChannelID    string
	HadOverwrite bool
	Allow        int64
	Deny         int64
	LockedBy     string
	Reason       string
	LockedAt     time.Time
}

type ModerationAction struct {
	ID              int64
	GuildID         string
	UserID          string
	ModeratorID     string
	Action          string
	Reason          string
	DurationSeconds int64
	CreatedAt       time.Time
}

type Ticket struct {
	ID        int64
	GuildID   string
	ChannelID string
	UserID    string
	Type      string
	Answers   map[string]string
	Status    string
	CreatedAt time.Time
	ClosedAt  *time.Time
	ClosedBy  string
}

type Slot struct {
	ID            int64
	GuildID       string
	ChannelID     string
	UserID        string
	EveryoneQuota int
	EveryoneUsed  int
	HereQuota     int
	HereUsed      int
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Active        bool
	ClosedReason  string
	ClosedAt      *time.Time
}

type Giveaway struct {
	ID           int64
	GuildID      string
	ChannelID    string
	MessageID    string
	HostID       string
	Prize        string
	WinnersCount int
	CreatedAt    time.Time
	EndsAt       time.Time
	Ended        bool
	EndedAt      *time.Time
	WinnerIDs    []string
}

type Vouch struct {
	ID        int64
	GuildID   string
	UserID    string
	VoucherID string
	Reason    string
	CreatedAt time.Time
}

type VouchStats struct {
	Total           int
	TopTargetID     string
	TopTargetCount  int
	TopVoucherID    string
	TopVoucherCount int
	Recent          []Vouch
}

type Report struct {
	ID         int64
	GuildID    string
	UserID     string
	ReporterID string
	Reason     string
	Kind       string
	Status     string
	CreatedAt  time.Time
	ReviewedBy string
	ReviewedAt *time.Time
}

type FeedbackCounts struct {
	ApprovedReports int
	Praises         int
}

type TempVoice struct {
	GuildID   string
	ChannelID string
	OwnerID   string
	Active    bool
	CreatedAt time.Time
}

// Store is the persistence surface shared by the sqlite, postgres, and
// in-memory backends.
type Store interface {
	Close()

	GetGuildSettings(ctx context.Context, guildID string, defaults GuildSettings) (GuildSettings, error)
	UpsertGuildSettings(ctx context.Context, settings GuildSettings) error

	SaveChannelLock(ctx context.Context, lock ChannelLock) error
	GetChannelLock(ctx context.Context, guildID, channelID string) (ChannelLock, error)
	DeleteChannelLock(ctx context.Context, guildID, channelID string) error
	ListChannelLocks(ctx context.Context, guildID string) ([]ChannelLock, error)

	AddModerationAction(ctx context.Context, action ModerationAction) (int64, error)
	ListModerationActions(ctx context.Context, guildID, userID string, limit int) ([]ModerationAction, error)

	CreateTicket(ctx context.Context, ticket Ticket) (int64, error)
	GetTicketByChannel(ctx context.Context, guildID, channelID string) (Ticket, error)
	GetOpenTicketByUser(ctx context.Context, guildID, userID string) (Ticket, error)
	ListOpenTickets(ctx context.Context, guildID string) ([]Ticket, error)
	CloseTicket(ctx context.Context, guildID, channelID, closedBy string, closedAt time.Time) error

	CreateSlot(ctx context.Context, slot Slot) (int64, error)
	GetSlotByChannel(ctx context.Context, guildID, channelID string) (Slot, error)
	ListActiveSlots(ctx context.Context, guildID string) ([]Slot, error)
	IncrementSlotPing(ctx context.Context, guildID, channelID, kind string) error
	CloseSlot(ctx context.Context, guildID, channelID, reason string, closedAt time.Time) error

	CreateGiveaway(ctx context.Context, giveaway Giveaway) (int64, error)
	GetGiveawayByMessage(ctx context.Context, guildID, messageID string) (Giveaway, error)
	ListActiveGiveaways(ctx context.Context, guildID string) ([]Giveaway, error)
	ListEndedGiveaways(ctx context.Context, guildID string, limit int) ([]Giveaway, error)
	EndGiveaway(ctx context.Context, guildID, messageID string, winnerIDs []string, endedAt time.Time) error
	AddGiveawayWinner(ctx context.Context, guildID, messageID, winnerID string) error

	AddVouch(ctx context.Context, vouch Vouch) (int64, error)
	HasVouched(ctx context.Context, guildID, voucherID, userID string) (bool, error)
	ListVouches(ctx context.Context, guildID, userID string, limit int) ([]Vouch, error)
	CountVouches(ctx context.Context, guildID, userID string) (int, error)
	GetVouchStats(ctx context.Context, guildID string) (VouchStats, error)
	DeleteVouch(ctx context.Context, guildID, userID, voucherID string) (bool, error)

	CreateReport(ctx context.Context, report Report) (int64, error)
	GetReport(ctx context.Context, guildID string, id int64) (Report, error)
	SetReportStatus(ctx context.Context, guildID string, id int64, status, reviewerID string, reviewedAt time.Time) error
	ListFeedback(ctx context.Context, guildID, userID string, limit int) ([]Report, error)
	GetFeedbackCounts(ctx context.Context, guildID, userID string) (FeedbackCounts, error)

	AddTempVoice(ctx context.Context, voice TempVoice) error
	GetTempVoice(ctx context.Context, guildID, channelID string) (TempVoice, error)
	ListActiveTempVoice(ctx context.Context, guildID string) ([]TempVoice, error)
	DeactivateTempVoice(ctx context.Context, guildID, channelID string) error
}
