package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps everything in process memory. It backs tests and
// throwaway deployments; restarts lose all state.
type MemoryStore struct {
	mu       sync.Mutex
	nextID   int64
	settings map[string]GuildSettings
	locks    map[string]ChannelLock
	actions  []ModerationAction
	tickets  []Ticket
	slots    []Slot
	gaways   []Giveaway
	vouches  []Vouch
	reports  []Report
	voices   map[string]TempVoice
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		settings: make(map[string]GuildSettings),
		locks:    make(map[string]ChannelLock),
		voices:   make(map[string]TempVoice),
	}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) nextIDLocked() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func key(guildID, channelID string) string {
	return guildID + ":" + channelID
}

func (s *MemoryStore) GetGuildSettings(_ context.Context, guildID string, defaults GuildSettings) (GuildSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings, ok := s.settings[guildID]; ok {
		if settings.MinAccountAgeDays <= 0 {
			settings.MinAccountAgeDays = defaults.MinAccountAgeDays
		}
		return settings, nil
	}
	result := defaults
	result.GuildID = guildID
	return result, nil
}

func (s *MemoryStore) UpsertGuildSettings(_ context.Context, settings GuildSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.GuildID] = settings
	return nil
}

func (s *MemoryStore) SaveChannelLock(_ context.Context, lock ChannelLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[key(lock.GuildID, lock.ChannelID)] = lock
	return nil
}

func (s *MemoryStore) GetChannelLock(_ context.Context, guildID, channelID string) (ChannelLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key(guildID, channelID)]; ok {
		return lock, nil
	}
	return ChannelLock{}, ErrNotFound
}

func (s *MemoryStore) DeleteChannelLock(_ context.Context, guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, key(guildID, channelID))
	return nil
}

func (s *MemoryStore) ListChannelLocks(_ context.Context, guildID string) ([]ChannelLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var locks []ChannelLock
	for _, lock := range s.locks {
		if lock.GuildID == guildID {
			locks = append(locks, lock)
		}
	}
	sort.Slice(locks, func(i, j int) bool { return locks[i].LockedAt.Before(locks[j].LockedAt) })
	return locks, nil
}

func (s *MemoryStore) AddModerationAction(_ context.Context, action ModerationAction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	action.ID = s.nextIDLocked()
	s.actions = append(s.actions, action)
	return action.ID, nil
}

func (s *MemoryStore) ListModerationActions(_ context.Context, guildID, userID string, limit int) ([]ModerationAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var actions []ModerationAction
	for _, action := range s.actions {
		if action.GuildID == guildID && action.UserID == userID {
			actions = append(actions, action)
		}
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i].CreatedAt.After(actions[j].CreatedAt) })
	if limit > 0 && len(actions) > limit {
		actions = actions[:limit]
	}
	return actions, nil
}

func (s *MemoryStore) CreateTicket(_ context.Context, ticket Ticket) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket.ID = s.nextIDLocked()
	ticket.Status = TicketOpen
	if ticket.Answers == nil {
		ticket.Answers = map[string]string{}
	}
	s.tickets = append(s.tickets, ticket)
	return ticket.ID, nil
}

func (s *MemoryStore) GetTicketByChannel(_ context.Context, guildID, channelID string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.tickets) - 1; i >= 0; i-- {
		ticket := s.tickets[i]
		if ticket.GuildID == guildID && ticket.ChannelID == channelID {
			return ticket, nil
		}
	}
	return Ticket{}, ErrNotFound
}

func (s *MemoryStore) GetOpenTicketByUser(_ context.Context, guildID, userID string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.tickets) - 1; i >= 0; i-- {
		ticket := s.tickets[i]
		if ticket.GuildID == guildID && ticket.UserID == userID && ticket.Status == TicketOpen {
			return ticket, nil
		}
	}
	return Ticket{}, ErrNotFound
}

func (s *MemoryStore) ListOpenTickets(_ context.Context, guildID string) ([]Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tickets []Ticket
	for _, ticket := range s.tickets {
		if ticket.GuildID == guildID && ticket.Status == TicketOpen {
			tickets = append(tickets, ticket)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].CreatedAt.Before(tickets[j].CreatedAt) })
	return tickets, nil
}

func (s *MemoryStore) CloseTicket(_ context.Context, guildID, channelID, closedBy string, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tickets {
		ticket := &s.tickets[i]
		if ticket.GuildID == guildID && ticket.ChannelID == channelID && ticket.Status == TicketOpen {
			ticket.Status = TicketClosed
			ticket.ClosedBy = closedBy
			at := closedAt
			ticket.ClosedAt = &at
		}
	}
	return nil
}

func (s *MemoryStore) CreateSlot(_ context.Context, slot Slot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.ID = s.nextIDLocked()
	slot.Active = true
	s.slots = append(s.slots, slot)
	return slot.ID, nil
}

func (s *MemoryStore) GetSlotByChannel(_ context.Context, guildID, channelID string) (Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.slots) - 1; i >= 0; i-- {
		slot := s.slots[i]
		if slot.GuildID == guildID && slot.ChannelID == channelID {
			return slot, nil
		}
	}
	return Slot{}, ErrNotFound
}

func (s *MemoryStore) ListActiveSlots(_ context.Context, guildID string) ([]Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var slots []Slot
	for _, slot := range s.slots {
		if slot.GuildID == guildID && slot.Active {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].ExpiresAt.Before(slots[j].ExpiresAt) })
	return slots, nil
}

func (s *MemoryStore) IncrementSlotPing(_ context.Context, guildID, channelID, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.GuildID == guildID && slot.ChannelID == channelID && slot.Active {
			if kind == PingHere {
				slot.HereUsed++
			} else {
				slot.EveryoneUsed++
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CloseSlot(_ context.Context, guildID, channelID, reason string, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		slot := &s.slots[i]
		if slot.GuildID == guildID && slot.ChannelID == channelID && slot.Active {
			slot.Active = false
			slot.ClosedReason = reason
			at := closedAt
			slot.ClosedAt = &at
		}
	}
	return nil
}

func (s *MemoryStore) CreateGiveaway(_ context.Context, giveaway Giveaway) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	giveaway.ID = s.nextIDLocked()
	giveaway.Ended = false
	if giveaway.WinnerIDs == nil {
		giveaway.WinnerIDs = []string{}
	}
	s.gaways = append(s.gaways, giveaway)
	return giveaway.ID, nil
}

func (s *MemoryStore) GetGiveawayByMessage(_ context.Context, guildID, messageID string) (Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, giveaway := range s.gaways {
		if giveaway.GuildID == guildID && giveaway.MessageID == messageID {
			return giveaway, nil
		}
	}
	return Giveaway{}, ErrNotFound
}

func (s *MemoryStore) ListActiveGiveaways(_ context.Context, guildID string) ([]Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var giveaways []Giveaway
	for _, giveaway := range s.gaways {
		if giveaway.GuildID == guildID && !giveaway.Ended {
			giveaways = append(giveaways, giveaway)
		}
	}
	sort.Slice(giveaways, func(i, j int) bool { return giveaways[i].EndsAt.Before(giveaways[j].EndsAt) })
	return giveaways, nil
}

func (s *MemoryStore) ListEndedGiveaways(_ context.Context, guildID string, limit int) ([]Giveaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var giveaways []Giveaway
	for _, giveaway := range s.gaways {
		if giveaway.GuildID == guildID && giveaway.Ended {
			giveaways = append(giveaways, giveaway)
		}
	}
	sort.Slice(giveaways, func(i, j int) bool {
		ti, tj := giveaways[i].EndsAt, giveaways[j].EndsAt
		if giveaways[i].EndedAt != nil {
			ti = *giveaways[i].EndedAt
		}
		if giveaways[j].EndedAt != nil {
			tj = *giveaways[j].EndedAt
		}
		return ti.After(tj)
	})
	if limit > 0 && len(giveaways) > limit {
		giveaways = giveaways[:limit]
	}
	return giveaways, nil
}

func (s *MemoryStore) EndGiveaway(_ context.Context, guildID, messageID string, winnerIDs []string, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gaways {
		giveaway := &s.gaways[i]
		if giveaway.GuildID == guildID && giveaway.MessageID == messageID && !giveaway.Ended {
			giveaway.Ended = true
			at := endedAt
			giveaway.EndedAt = &at
			giveaway.WinnerIDs = append([]string{}, winnerIDs...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) AddGiveawayWinner(_ context.Context, guildID, messageID, winnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gaways {
		giveaway := &s.gaways[i]
		if giveaway.GuildID == guildID && giveaway.MessageID == messageID {
			giveaway.WinnerIDs = append(giveaway.WinnerIDs, winnerID)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) AddVouch(_ context.Context, vouch Vouch) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.vouches {
		if existing.GuildID == vouch.GuildID && existing.UserID == vouch.UserID && existing.VoucherID == vouch.VoucherID {
			return 0, fmt.Errorf("vouch already recorded for %s by %s", vouch.UserID, vouch.VoucherID)
		}
	}
	vouch.ID = s.nextIDLocked()
	s.vouches = append(s.vouches, vouch)
	return vouch.ID, nil
}

func (s *MemoryStore) HasVouched(_ context.Context, guildID, voucherID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, vouch := range s.vouches {
		if vouch.GuildID == guildID && vouch.VoucherID == voucherID && vouch.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListVouches(_ context.Context, guildID, userID string, limit int) ([]Vouch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var vouches []Vouch
	for _, vouch := range s.vouches {
		if vouch.GuildID == guildID && vouch.UserID == userID {
			vouches = append(vouches, vouch)
		}
	}
	sort.Slice(vouches, func(i, j int) bool { return vouches[i].CreatedAt.After(vouches[j].CreatedAt) })
	if limit > 0 && len(vouches) > limit {
		vouches = vouches[:limit]
	}
	return vouches, nil
}

func (s *MemoryStore) CountVouches(_ context.Context, guildID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, vouch := range s.vouches {
		if vouch.GuildID == guildID && vouch.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) GetVouchStats(_ context.Context, guildID string) (VouchStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats VouchStats
	targets := make(map[string]int)
	vouchers := make(map[string]int)
	var all []Vouch
	for _, vouch := range s.vouches {
		if vouch.GuildID != guildID {
			continue
		}
		stats.Total++
		targets[vouch.UserID]++
		vouchers[vouch.VoucherID]++
		all = append(all, vouch)
	}
	for id, count := range targets {
		if count > stats.TopTargetCount {
			stats.TopTargetID = id
			stats.TopTargetCount = count
		}
	}
	for id, count := range vouchers {
		if count > stats.TopVoucherCount {
			stats.TopVoucherID = id
			stats.TopVoucherCount = count
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if len(all) > 5 {
		all = all[:5]
	}
	stats.Recent = all
	return stats, nil
}

func (s *MemoryStore) DeleteVouch(_ context.Context, guildID, userID, voucherID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, vouch := range s.vouches {
		if vouch.GuildID == guildID && vouch.UserID == userID && vouch.VoucherID == voucherID {
			s.vouches = append(s.vouches[:i], s.vouches[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CreateReport(_ context.Context, report Report) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report.ID = s.nextIDLocked()
	s.reports = append(s.reports, report)
	return report.ID, nil
}

func (s *MemoryStore) GetReport(_ context.Context, guildID string, id int64) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, report := range s.reports {
		if report.GuildID == guildID && report.ID == id {
			return report, nil
		}
	}
	return Report{}, ErrNotFound
}

func (s *MemoryStore) SetReportStatus(_ context.Context, guildID string, id int64, status, reviewerID string, reviewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reports {
		report := &s.reports[i]
		if report.GuildID == guildID && report.ID == id {
			report.Status = status
			report.ReviewedBy = reviewerID
			at := reviewedAt
			report.ReviewedAt = &at
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) ListFeedback(_ context.Context, guildID, userID string, limit int) ([]Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var reports []Report
	for _, report := range s.reports {
		if report.GuildID == guildID && report.UserID == userID {
			reports = append(reports, report)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

func (s *MemoryStore) GetFeedbackCounts(_ context.Context, guildID, userID string) (FeedbackCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var counts FeedbackCounts
	for _, report := range s.reports {
		if report.GuildID != guildID || report.UserID != userID {
			continue
		}
		switch {
		case report.Kind == KindPraise:
			counts.Praises++
		case report.Kind == KindReport && report.Status == ReportApproved:
			counts.ApprovedReports++
		}
	}
	return counts, nil
}

func (s *MemoryStore) AddTempVoice(_ context.Context, voice TempVoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voice.Active = true
	s.voices[key(voice.GuildID, voice.ChannelID)] = voice
	return nil
}

func (s *MemoryStore) GetTempVoice(_ context.Context, guildID, channelID string) (TempVoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if voice, ok := s.voices[key(guildID, channelID)]; ok {
		return voice, nil
	}
	return TempVoice{}, ErrNotFound
}

func (s *MemoryStore) ListActiveTempVoice(_ context.Context, guildID string) ([]TempVoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var voices []TempVoice
	for _, voice := range s.voices {
		if voice.GuildID == guildID && voice.Active {
			voices = append(voices, voice)
		}
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].CreatedAt.Before(voices[j].CreatedAt) })
	return voices, nil
}

func (s *MemoryStore) DeactivateTempVoice(_ context.Context, guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if voice, ok := s.voices[key(guildID, channelID)]; ok {
		voice.Active = false
		s.voices[key(guildID, channelID)] = voice
	}
	return nil
}
