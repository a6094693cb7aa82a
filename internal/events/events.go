// Package events defines the closed set of inbound event kinds the pipeline
// consumes. Platform payloads are normalized into these typed variants at
// the gateway boundary; loosely-shaped maps never cross into the pipeline.
package events

// Kind identifies an event variant.
type Kind string

const (
	KindMention                Kind = "mention"
	KindDirectMessage          Kind = "direct_message"
	KindThreadReply            Kind = "thread_reply"
	KindChannelActivity        Kind = "channel_activity"
	KindButtonClick            Kind = "button_click"
	KindAssistantThreadStarted Kind = "assistant_thread_started"
)

// ConversationRef identifies where a turn happened.
type ConversationRef struct {
	TeamID    string
	ChannelID string
	// ThreadTS is the thread root timestamp; empty for flat conversations.
	ThreadTS string
}

// Threaded reports whether the conversation is a thread.
func (r ConversationRef) Threaded() bool { return r.ThreadTS != "" }

// Event is the tagged-variant interface implemented by each event kind.
type Event interface {
	Kind() Kind
	Conversation() ConversationRef
}

// Mention is an at-mention of the bot in a channel.
type Mention struct {
	Ref       ConversationRef
	UserID    string
	MessageTS string
	Text      string
}

func (e Mention) Kind() Kind                    { return KindMention }
func (e Mention) Conversation() ConversationRef { return e.Ref }

// DirectMessage is a message to the bot in a DM conversation.
type DirectMessage struct {
	Ref       ConversationRef
	UserID    string
	MessageTS string
	Text      string
}

func (e DirectMessage) Kind() Kind                    { return KindDirectMessage }
func (e DirectMessage) Conversation() ConversationRef { return e.Ref }

// ThreadReply is a reply in a thread the bot participates in.
type ThreadReply struct {
	Ref       ConversationRef
	UserID    string
	MessageTS string
	Text      string
}

func (e ThreadReply) Kind() Kind                    { return KindThreadReply }
func (e ThreadReply) Conversation() ConversationRef { return e.Ref }

// ChannelActivity is a message in a monitored channel the bot was not
// addressed in.
type ChannelActivity struct {
	Ref       ConversationRef
	UserID    string
	MessageTS string
	Text      string
}

func (e ChannelActivity) Kind() Kind                    { return KindChannelActivity }
func (e ChannelActivity) Conversation() ConversationRef { return e.Ref }

// ButtonClick is an interactive component action.
type ButtonClick struct {
	Ref      ConversationRef
	UserID   string
	ActionID string
	Value    string
}

func (e ButtonClick) Kind() Kind                    { return KindButtonClick }
func (e ButtonClick) Conversation() ConversationRef { return e.Ref }

// AssistantThreadStarted fires when a user opens a new assistant thread.
type AssistantThreadStarted struct {
	Ref    ConversationRef
	UserID string
}

func (e AssistantThreadStarted) Kind() Kind                    { return KindAssistantThreadStarted }
func (e AssistantThreadStarted) Conversation() ConversationRef { return e.Ref }
