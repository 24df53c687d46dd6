// Package slots implements the rules around rented advertisement
// channels: ping quota detection, naming, and portable backups.
package slots

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Ping kinds, matching the quota columns on the slot record.
const (
	PingEveryone = "everyone"
	PingHere     = "here"
	PingNone     = ""
)

// DetectPing classifies a message's mention usage. MentionEveryone is
// the gateway flag; the content check covers messages where the flag is
// unset but the literal appears (suppressed mentions still consume quota).
func DetectPing(content string, mentionEveryone bool) string {
	hasEveryone := strings.Contains(content, "@everyone")
	hasHere := strings.Contains(content, "@here")
	switch {
	case hasEveryone, mentionEveryone && !hasHere:
		return PingEveryone
	case hasHere:
		return PingHere
	default:
		return PingNone
	}
}

// Exhausted reports whether a slot has spent every ping it was sold
// with. A slot only closes for quota once both pools are empty; running
// out of one kind still leaves the other usable.
func Exhausted(everyoneQuota, everyoneUsed, hereQuota, hereUsed int) bool {
	return everyoneUsed >= everyoneQuota && hereUsed >= hereQuota
}

// ChannelName builds the slot channel name for an owner.
func ChannelName(username string) string {
	name := strings.ToLower(strings.TrimSpace(username))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	owner := b.String()
	if owner == "" {
		owner = "member"
	}
	return fmt.Sprintf("slot-%s", owner)
}

// Backup is the JSON document attached when a slot is closed, letting
// staff restore the channel later with its quotas intact.
type Backup struct {
	Version       int    `json:"version"`
	GuildID       string `json:"guild_id"`
	OwnerID       string `json:"owner_id"`
	ChannelName   string `json:"channel_name"`
	EveryoneQuota int    `json:"everyone_quota"`
	EveryoneUsed  int    `json:"everyone_used"`
	HereQuota     int    `json:"here_quota"`
	HereUsed      int    `json:"here_used"`
	ExpiresAt     int64  `json:"expires_at"`
}

const backupVersion = 1

func NewBackup(guildID, ownerID, channelName string, everyoneQuota, everyoneUsed, hereQuota, hereUsed int, expiresAt time.Time) Backup {
	return Backup{
		Version:       backupVersion,
		GuildID:       guildID,
		OwnerID:       ownerID,
		ChannelName:   channelName,
		EveryoneQuota: everyoneQuota,
		EveryoneUsed:  everyoneUsed,
		HereQuota:     hereQuota,
		HereUsed:      hereUsed,
		ExpiresAt:     expiresAt.Unix(),
	}
}

func (b Backup) Encode() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// DecodeBackup parses and validates a restore payload.
func DecodeBackup(data []byte) (Backup, error) {
	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return Backup{}, fmt.Errorf("parse slot backup: %w", err)
	}
	if backup.Version != backupVersion {
		return Backup{}, fmt.Errorf("unsupported slot backup version %d", backup.Version)
	}
	if backup.OwnerID == "" {
		return Backup{}, fmt.Errorf("slot backup missing owner id")
	}
	if backup.EveryoneQuota < 0 || backup.HereQuota < 0 {
		return Backup{}, fmt.Errorf("slot backup has negative quotas")
	}
	if backup.EveryoneUsed > backup.EveryoneQuota {
		backup.EveryoneUsed = backup.EveryoneQuota
	}
	if backup.HereUsed > backup.HereQuota {
		backup.HereUsed = backup.HereQuota
	}
	if backup.ChannelName == "" {
		backup.ChannelName = "slot-restored"
	}
	return backup, nil
}
