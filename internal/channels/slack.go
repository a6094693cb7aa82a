package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/devingeorge/devbot-ai-assistant/internal/bus"
	"github.com/devingeorge/devbot-ai-assistant/internal/config"
	"github.com/devingeorge/devbot-ai-assistant/internal/events"
)

// slackAPI is the subset of *slack.Client the gateway uses. Narrowed for
// tests.
type slackAPI interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) (msgs []slack.Message, hasMore bool, nextCursor string, err error)
}

// SlackChannel is the Slack gateway. It runs a Socket Mode listener,
// normalizes Events API payloads into bus events, and posts replies.
type SlackChannel struct {
	BaseChannel
	cfg       config.SlackConfig
	api       slackAPI
	socket    *socketmode.Client
	botUserID string
	cancel    context.CancelFunc

	seenMu  sync.Mutex
	seen    map[string]time.Time
	seenTTL time.Duration
}

// NewSlackChannel creates a Slack gateway from config.
func NewSlackChannel(cfg config.SlackConfig, messageBus *bus.MessageBus) *SlackChannel {
	api := slack.New(cfg.BotToken, slack.OptionAppLevelToken(cfg.AppToken))
	return &SlackChannel{
		BaseChannel: BaseChannel{Bus: messageBus},
		cfg:         cfg,
		api:         api,
		socket:      socketmode.New(api),
		botUserID:   cfg.BotUserID,
		seen:        map[string]time.Time{},
		seenTTL:     10 * time.Minute,
	}
}

func (c *SlackChannel) Name() string { return "slack" }

// Start resolves the bot identity, subscribes for outbound replies, and
// runs the Socket Mode listener until the context is cancelled.
func (c *SlackChannel) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		return nil
	}
	if c.botUserID == "" {
		resp, err := c.api.AuthTestContext(ctx)
		if err != nil {
			return fmt.Errorf("slack auth test: %w", err)
		}
		c.botUserID = resp.UserID
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.Bus.Subscribe(c.Name(), func(r *bus.Reply) {
		if err := c.Send(ctx, r); err != nil {
			slog.Error("Slack send failed", "channel", r.Ref.ChannelID, "error", err)
		}
	})

	go c.consumeSocketEvents(ctx)
	go func() {
		if err := c.socket.RunContext(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Slack socket mode stopped", "error", err)
		}
	}()
	slog.Info("Slack gateway started", "bot_user", c.botUserID)
	return nil
}

// Stop stops the gateway listener.
func (c *SlackChannel) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *SlackChannel) consumeSocketEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-c.socket.Events:
			if !ok {
				return
			}
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				if evt.Request != nil {
					c.socket.Ack(*evt.Request)
				}
				apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok || apiEvent.Type != slackevents.CallbackEvent {
					continue
				}
				c.handleCallback(apiEvent)
			case socketmode.EventTypeInteractive:
				if evt.Request != nil {
					c.socket.Ack(*evt.Request)
				}
				cb, ok := evt.Data.(slack.InteractionCallback)
				if ok {
					c.handleInteraction(cb)
				}
			}
		}
	}
}

// handleCallback normalizes one Events API callback into a bus event.
// The event's team takes precedence over the callback envelope so org-wide
// installs attribute records to the right workspace.
func (c *SlackChannel) handleCallback(apiEvent slackevents.EventsAPIEvent) {
	teamID := apiEvent.TeamID

	switch in := apiEvent.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		if in == nil || in.User == "" || in.User == c.botUserID {
			return
		}
		if c.alreadySeen("mention:" + in.Channel + ":" + in.TimeStamp) {
			return
		}
		c.Bus.PublishInbound(events.Mention{
			Ref:       events.ConversationRef{TeamID: teamID, ChannelID: in.Channel, ThreadTS: in.ThreadTimeStamp},
			UserID:    in.User,
			MessageTS: in.TimeStamp,
			Text:      stripMention(in.Text, c.botUserID),
		})
	case *slackevents.MessageEvent:
		if in == nil {
			return
		}
		c.handleMessage(teamID, in)
	case *slackevents.AssistantThreadStartedEvent:
		if in == nil {
			return
		}
		c.Bus.PublishInbound(events.AssistantThreadStarted{
			Ref: events.ConversationRef{
				TeamID:    teamID,
				ChannelID: in.AssistantThread.ChannelID,
				ThreadTS:  in.AssistantThread.ThreadTimeStamp,
			},
			UserID: in.AssistantThread.UserID,
		})
	}
}

func (c *SlackChannel) handleMessage(teamID string, in *slackevents.MessageEvent) {
	// Drop bot echoes and message edits/joins; only plain user messages
	// become turns.
	if in.BotID != "" || in.SubType != "" || in.User == "" || in.User == c.botUserID {
		return
	}
	if c.alreadySeen("message:" + in.Channel + ":" + in.TimeStamp) {
		return
	}
	ref := events.ConversationRef{TeamID: teamID, ChannelID: in.Channel, ThreadTS: in.ThreadTimeStamp}

	if in.ChannelType == slack.TYPE_IM {
		if ref.Threaded() {
			c.Bus.PublishInbound(events.ThreadReply{
				Ref:       ref,
				UserID:    in.User,
				MessageTS: in.TimeStamp,
				Text:      in.Text,
			})
			return
		}
		c.Bus.PublishInbound(events.DirectMessage{
			Ref:       ref,
			UserID:    in.User,
			MessageTS: in.TimeStamp,
			Text:      in.Text,
		})
		return
	}

	// Channel traffic: mentions arrive separately as app_mention, so a
	// mention here would double-fire. Everything else is candidate
	// activity for monitored channels.
	if strings.Contains(in.Text, "<@"+c.botUserID+">") {
		return
	}
	c.Bus.PublishInbound(events.ChannelActivity{
		Ref:       events.ConversationRef{TeamID: teamID, ChannelID: in.Channel},
		UserID:    in.User,
		MessageTS: in.TimeStamp,
		Text:      in.Text,
	})
}

func (c *SlackChannel) handleInteraction(cb slack.InteractionCallback) {
	if cb.Type != slack.InteractionTypeBlockActions || len(cb.ActionCallback.BlockActions) == 0 {
		return
	}
	action := cb.ActionCallback.BlockActions[0]
	c.Bus.PublishInbound(events.ButtonClick{
		Ref: events.ConversationRef{
			TeamID:    cb.Team.ID,
			ChannelID: cb.Channel.ID,
		},
		UserID:   cb.User.ID,
		ActionID: action.ActionID,
		Value:    action.Value,
	})
}

// Send posts a reply. Replies that look like Block Kit JSON are posted as
// blocks; when the payload doesn't parse the text is delivered as-is with
// a short notice so the response is never swallowed.
func (c *SlackChannel) Send(ctx context.Context, r *bus.Reply) error {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return nil
	}
	threadTS := r.ThreadTS
	if threadTS == "" {
		threadTS = r.Ref.ThreadTS
	}

	opts := []slack.MsgOption{}
	blocks, fallback, ok, malformed := parseBlockKit(text)
	switch {
	case ok:
		opts = append(opts, slack.MsgOptionText(fallback, false), slack.MsgOptionBlocks(blocks.BlockSet...))
	case malformed:
		opts = append(opts, slack.MsgOptionText(text+"\n(Note: this response contained a block layout that could not be rendered.)", false))
	default:
		opts = append(opts, slack.MsgOptionText(text, false))
	}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	_, _, err := c.api.PostMessageContext(ctx, r.Ref.ChannelID, opts...)
	return err
}

// parseBlockKit attempts to interpret text as a Block Kit payload of the
// form {"blocks":[...],"text":"..."}. ok reports a renderable payload;
// malformed reports text that declared blocks but whose blocks failed to
// decode, so the caller can append a diagnostic notice to the plain-text
// delivery.
func parseBlockKit(text string) (blocks slack.Blocks, fallback string, ok, malformed bool) {
	if !strings.HasPrefix(text, "{") {
		return slack.Blocks{}, "", false, false
	}
	var payload struct {
		Blocks json.RawMessage `json:"blocks"`
		Text   string          `json:"text"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil || len(payload.Blocks) == 0 {
		return slack.Blocks{}, "", false, false
	}
	if err := json.Unmarshal(payload.Blocks, &blocks); err != nil || len(blocks.BlockSet) == 0 {
		slog.Warn("Reply declared blocks that failed to decode, sending as text", "error", err)
		return slack.Blocks{}, "", false, true
	}
	fallback = strings.TrimSpace(payload.Text)
	if fallback == "" {
		fallback = "New message"
	}
	return blocks, fallback, true, false
}

// alreadySeen records the event key and reports whether it was delivered
// within the dedupe window. Socket Mode redelivers events that were not
// acked in time.
func (c *SlackChannel) alreadySeen(key string) bool {
	now := time.Now()
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	for k, t := range c.seen {
		if now.Sub(t) > c.seenTTL {
			delete(c.seen, k)
		}
	}
	if _, ok := c.seen[key]; ok {
		return true
	}
	c.seen[key] = now
	return false
}

// stripMention removes the bot's own mention token from message text.
func stripMention(text, botUserID string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "<@"+botUserID+">", ""))
}
