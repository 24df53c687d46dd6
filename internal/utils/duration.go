package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var durationPattern = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseDuration accepts compact single-unit durations such as "30m",
// "2h", "7d", or "45s".
func ParseDuration(value string) (time.Duration, error) {
	match := durationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(value)))
	if match == nil {
		return 0, fmt.Errorf("invalid duration %q (use forms like 30m, 2h, 7d)", value)
	}
	amount, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	switch match[2] {
	case "d":
		return time.Duration(amount) * 24 * time.Hour, nil
	case "h":
		return time.Duration(amount) * time.Hour, nil
	case "m":
		return time.Duration(amount) * time.Minute, nil
	default:
		return time.Duration(amount) * time.Second, nil
	}
}

// FormatDuration renders a duration in its two largest useful units,
// e.g. "2d 3h" or "5m 20s".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	total := int64(d.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 && days == 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if seconds > 0 && days == 0 && hours == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

// Timestamp renders a Discord timestamp tag, e.g. <t:1700000000:R>.
func Timestamp(t time.Time, style string) string {
	if style == "" {
		style = "f"
	}
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}
