// Package transcript renders a text archive of a channel's history and
// delivers it to a user's DMs before the channel is deleted.
package transcript

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"
)

const (
	pageSize    = 100
	maxMessages = 1000
)

// MessageSource is the slice of discordgo.Session used to page history.
type MessageSource interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// Fetch pages a channel's messages newest-first and returns them
// oldest-first, capped at maxMessages.
func Fetch(source MessageSource, channelID string) ([]*discordgo.Message, error) {
	var collected []*discordgo.Message
	beforeID := ""
	for len(collected) < maxMessages {
		page, err := source.ChannelMessages(channelID, pageSize, beforeID, "", "")
		if err != nil {
			return nil, fmt.Errorf("fetch channel history: %w", err)
		}
		if len(page) == 0 {
			break
		}
		collected = append(collected, page...)
		beforeID = page[len(page)-1].ID
		if len(page) < pageSize {
			break
		}
	}
	if len(collected) > maxMessages {
		collected = collected[:maxMessages]
	}
	// Discord returns newest first.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return collected, nil
}

// Render produces the plain-text archive body.
func Render(channelName string, messages []*discordgo.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Transcript of #%s\n", channelName)
	fmt.Fprintf(&b, "Generated at %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Messages: %d\n\n", len(messages))

	for _, msg := range messages {
		author := "unknown"
		if msg.Author != nil {
			author = msg.Author.Username
		}
		stamp := msg.Timestamp.UTC().Format("2006-01-02 15:04:05")
		fmt.Fprintf(&b, "[%s] %s: %s\n", stamp, author, msg.Content)
		for _, attachment := range msg.Attachments {
			fmt.Fprintf(&b, "    [attachment] %s %s\n", attachment.Filename, attachment.URL)
		}
		for range msg.Embeds {
			b.WriteString("    [embed]\n")
		}
	}
	return b.String()
}

// Sender is the slice of discordgo.Session used to deliver the file.
type Sender interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelFileSend(channelID, name string, r io.Reader, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DeliverDM sends the rendered transcript as a file attachment to the
// user's DM channel, retrying transient failures.
func DeliverDM(sender Sender, userID, filename, body string) error {
	dm, err := sender.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("open dm channel: %w", err)
	}
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	return backoff.Retry(func() error {
		_, err := sender.ChannelFileSend(dm.ID, filename, bytes.NewReader([]byte(body)))
		return err
	}, policy)
}

// Filename builds a transcript filename from the channel name.
func Filename(channelName string) string {
	name := strings.TrimPrefix(channelName, "#")
	if name == "" {
		name = "channel"
	}
	return fmt.Sprintf("transcript-%s.txt", name)
}
