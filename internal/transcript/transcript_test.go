package transcript

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

type fakeSource struct {
	messages []*discordgo.Message // newest first, whole history
}

func (f *fakeSource) ChannelMessages(_ string, limit int, beforeID, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	start := 0
	if beforeID != "" {
		for i, msg := range f.messages {
			if msg.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(f.messages) {
		end = len(f.messages)
	}
	if start >= len(f.messages) {
		return nil, nil
	}
	return f.messages[start:end], nil
}

func makeHistory(n int) []*discordgo.Message {
	messages := make([]*discordgo.Message, 0, n)
	for i := n; i > 0; i-- {
		messages = append(messages, &discordgo.Message{
			ID:        strconv.Itoa(i),
			Content:   "message " + strconv.Itoa(i),
			Author:    &discordgo.User{Username: "alice"},
			Timestamp: time.Unix(1700000000+int64(i), 0),
		})
	}
	return messages
}

func TestFetchPagesAndOrders(t *testing.T) {
	source := &fakeSource{messages: makeHistory(250)}
	got, err := Fetch(source, "c1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 250 {
		t.Fatalf("expected 250 messages, got %d", len(got))
	}
	if got[0].ID != "1" || got[len(got)-1].ID != "250" {
		t.Fatalf("expected oldest-first ordering, got %s..%s", got[0].ID, got[len(got)-1].ID)
	}
}

func TestFetchCapsHistory(t *testing.T) {
	source := &fakeSource{messages: makeHistory(1200)}
	got, err := Fetch(source, "c1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != maxMessages {
		t.Fatalf("expected cap of %d, got %d", maxMessages, len(got))
	}
}

func TestRenderIncludesAttachments(t *testing.T) {
	messages := []*discordgo.Message{
		{
			Content:   "check this out",
			Author:    &discordgo.User{Username: "bob"},
			Timestamp: time.Unix(1700000000, 0),
			Attachments: []*discordgo.MessageAttachment{
				{Filename: "proof.png", URL: "https://cdn.example/proof.png"},
			},
		},
	}
	body := Render("ticket-bob-support", messages)
	if !strings.Contains(body, "Transcript of #ticket-bob-support") {
		t.Fatalf("missing header in %q", body)
	}
	if !strings.Contains(body, "bob: check this out") {
		t.Fatalf("missing message line in %q", body)
	}
	if !strings.Contains(body, "[attachment] proof.png") {
		t.Fatalf("missing attachment line in %q", body)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("ticket-alice-support"); got != "transcript-ticket-alice-support.txt" {
		t.Fatalf("unexpected filename %q", got)
	}
	if got := Filename(""); got != "transcript-channel.txt" {
		t.Fatalf("unexpected fallback %q", got)
	}
}
