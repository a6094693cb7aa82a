package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/devingeorge/devbot-ai-assistant/internal/events"
	"github.com/devingeorge/devbot-ai-assistant/internal/provider"
)

// History caps per conversation surface.
const (
	FlatHistoryLimit   = 10
	ThreadHistoryLimit = 20
)

// HistoryMessage is one entry of platform conversation history.
type HistoryMessage struct {
	AuthorID  string
	FromBot   bool
	Text      string
	Timestamp string
}

// Conversations is the messaging-platform surface the pipeline consumes.
type Conversations interface {
	// History returns up to limit most recent messages for the
	// conversation, oldest first.
	History(ctx context.Context, ref events.ConversationRef, limit int) ([]HistoryMessage, error)
}

// HistoryLimit returns the context cap for a conversation surface.
func HistoryLimit(ref events.ConversationRef) int {
	if ref.Threaded() {
		return ThreadHistoryLimit
	}
	return FlatHistoryLimit
}

// BuildContext fetches recent history for the conversation and converts it
// into an ordered message window, excluding the triggering message
// (identified by triggerTS) and classifying roles by authorship. A failed
// or empty fetch yields an empty window; the turn proceeds without history.
func BuildContext(ctx context.Context, conv Conversations, ref events.ConversationRef, triggerTS string, maxMessages int) []provider.Message {
	history, err := conv.History(ctx, ref, maxMessages)
	if err != nil {
		slog.Warn("History fetch failed, continuing without context",
			"channel", ref.ChannelID, "thread", ref.ThreadTS, "error", err)
		return nil
	}

	window := make([]provider.Message, 0, len(history))
	for _, msg := range history {
		if triggerTS != "" && msg.Timestamp == triggerTS {
			continue
		}
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			continue
		}
		role := provider.RoleUser
		if msg.FromBot {
			role = provider.RoleAssistant
		}
		window = append(window, provider.Message{Role: role, Content: text})
	}
	if len(window) > maxMessages {
		window = window[len(window)-maxMessages:]
	}
	return window
}
