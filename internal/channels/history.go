package channels

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/devingeorge/devbot-ai-assistant/internal/assistant"
	"github.com/devingeorge/devbot-ai-assistant/internal/events"
)

// Conversations adapts the Slack Web API to the pipeline's history surface.
// It reads the gateway's bot identity lazily so construction order doesn't
// matter relative to Start.
type Conversations struct {
	ch *SlackChannel
}

// History returns up to limit most recent messages for the conversation,
// oldest first. Threaded refs read the thread; flat refs read the channel.
func (c *Conversations) History(ctx context.Context, ref events.ConversationRef, limit int) ([]assistant.HistoryMessage, error) {
	if ref.Threaded() {
		// conversations.replies pages oldest first, so walk the cursor to
		// the end of the thread and keep a sliding tail of limit messages.
		params := &slack.GetConversationRepliesParameters{
			ChannelID: ref.ChannelID,
			Timestamp: ref.ThreadTS,
			Limit:     limit,
		}
		var window []slack.Message
		for {
			msgs, hasMore, cursor, err := c.ch.api.GetConversationRepliesContext(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("fetch thread replies: %w", err)
			}
			window = append(window, msgs...)
			if len(window) > limit {
				window = window[len(window)-limit:]
			}
			if !hasMore || cursor == "" {
				break
			}
			params.Cursor = cursor
		}
		return c.convert(window), nil
	}

	resp, err := c.ch.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: ref.ChannelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch channel history: %w", err)
	}
	// conversations.history returns newest first.
	msgs := resp.Messages
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return c.convert(msgs), nil
}

func (c *Conversations) convert(msgs []slack.Message) []assistant.HistoryMessage {
	out := make([]assistant.HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, assistant.HistoryMessage{
			AuthorID:  m.User,
			FromBot:   m.BotID != "" || (m.User != "" && m.User == c.ch.botUserID),
			Text:      m.Text,
			Timestamp: m.Timestamp,
		})
	}
	return out
}

// Conversations returns the history surface backed by this gateway's API
// client.
func (c *SlackChannel) Conversations() *Conversations {
	return &Conversations{ch: c}
}
