// Package moderation holds the pure rules behind the punishment and
// cleanup commands.
package moderation

import (
	"strings"
	"time"
)

// MaxMuteDuration is the Discord timeout ceiling.
const MaxMuteDuration = 28 * 24 * time.Hour

// ClampMute caps a requested mute at the Discord timeout ceiling and
// floors nonsense values at one minute.
func ClampMute(d time.Duration) time.Duration {
	if d > MaxMuteDuration {
		return MaxMuteDuration
	}
	if d < time.Minute {
		return time.Minute
	}
	return d
}

// ClampDeleteDays bounds the message-purge window on bans to what the
// API accepts.
func ClampDeleteDays(days int) int {
	if days < 0 {
		return 0
	}
	if days > 7 {
		return 7
	}
	return days
}

var protectedChannelNames = []string{"ticket", "welcome", "log", "rules", "info", "announcement"}

var protectedRoleNames = []string{"admin", "mod", "staff", "owner", "bot"}

// ProtectedChannel reports whether a channel must survive a server wipe.
func ProtectedChannel(name string) bool {
	lower := strings.ToLower(name)
	for _, keep := range protectedChannelNames {
		if strings.Contains(lower, keep) {
			return true
		}
	}
	return false
}

// ProtectedRole reports whether a role must survive a server wipe.
func ProtectedRole(name string) bool {
	lower := strings.ToLower(name)
	for _, keep := range protectedRoleNames {
		if strings.Contains(lower, keep) {
			return true
		}
	}
	return false
}

// Filter narrows a server wipe to part of the channel tree.
type Filter struct {
	// Category matches channels under a category whose name contains
	// the value.
	Category string
	// Prefix matches channels whose own name starts with the value.
	Prefix string
}

// ParseFilter understands "category:<name>" and "prefix:<name>"
// selectors; anything else means no filter.
func ParseFilter(raw string) Filter {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "category:"):
		return Filter{Category: strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "category:")))}
	case strings.HasPrefix(raw, "prefix:"):
		return Filter{Prefix: strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "prefix:")))}
	default:
		return Filter{}
	}
}

// MatchChannel applies the filter to a channel and its parent category
// name. An empty filter matches everything.
func (f Filter) MatchChannel(channelName, categoryName string) bool {
	if f.Category != "" {
		return strings.Contains(strings.ToLower(categoryName), f.Category)
	}
	if f.Prefix != "" {
		return strings.HasPrefix(strings.ToLower(channelName), f.Prefix)
	}
	return true
}
