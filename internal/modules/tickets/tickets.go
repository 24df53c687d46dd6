// Package tickets defines the ticket catalogue: the types a member can
// open and the intake questions each one asks.
package tickets

import (
	"fmt"
	"strings"
)

// Question is one modal field shown during ticket intake.
type Question struct {
	Key   string
	Label string
	// Long switches the modal field to a paragraph input.
	Long     bool
	Required bool
}

// Type describes one openable ticket category.
type Type struct {
	Key       string
	Label     string
	Emoji     string
	StaffOnly bool
	Questions []Question
}

// Catalogue lists ticket types in panel order.
var Catalogue = []Type{
	{
		Key:   "partnership",
		Label: "Partnership",
		Emoji: "🤝",
		Questions: []Question{
			{Key: "server", Label: "Server name and invite link", Required: true},
			{Key: "members", Label: "Member count", Required: true},
			{Key: "offer", Label: "What do you offer in return?", Long: true, Required: true},
		},
	},
	{
		Key:   "support",
		Label: "Support",
		Emoji: "🛠️",
		Questions: []Question{
			{Key: "subject", Label: "Subject", Required: true},
			{Key: "issue", Label: "Describe your issue", Long: true, Required: true},
		},
	},
	{
		Key:   "purchase",
		Label: "Purchase",
		Emoji: "💳",
		Questions: []Question{
			{Key: "product", Label: "What would you like to purchase?", Required: true},
			{Key: "payment", Label: "Preferred payment method", Required: true},
		},
	},
	{
		Key:   "staff_application",
		Label: "Staff Application",
		Emoji: "📋",
		Questions: []Question{
			{Key: "age", Label: "How old are you?", Required: true},
			{Key: "experience", Label: "Previous moderation experience", Long: true, Required: true},
			{Key: "motivation", Label: "Why do you want to join the team?", Long: true, Required: true},
		},
	},
	{
		Key:   "leaker_application",
		Label: "Leaker Application",
		Emoji: "📦",
		Questions: []Question{
			{Key: "sources", Label: "What sources do you have access to?", Long: true, Required: true},
			{Key: "frequency", Label: "How often can you post?", Required: true},
		},
	},
}

// Lookup resolves a ticket type by key.
func Lookup(key string) (Type, bool) {
	for _, t := range Catalogue {
		if t.Key == key {
			return t, true
		}
	}
	return Type{}, false
}

// ChannelName builds the ticket channel name. Discord channel names are
// lowercase with hyphens; anything else is stripped.
func ChannelName(username, typeKey string) string {
	return fmt.Sprintf("ticket-%s-%s", sanitize(username), sanitize(typeKey))
}

func sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	result := strings.Trim(b.String(), "-")
	if result == "" {
		return "user"
	}
	if len(result) > 40 {
		result = result[:40]
	}
	return result
}
