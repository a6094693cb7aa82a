// Package bus provides the async message bus between the chat gateway and
// the turn handler.
package bus

import (
	"context"
	"sync"

	"github.com/devingeorge/devbot-ai-assistant/internal/events"
)

// Reply is a message from the turn handler back to a gateway.
type Reply struct {
	Channel string
	Ref     events.ConversationRef
	// ThreadTS forces the reply into a thread even when Ref is flat
	// (e.g. replying to the message that triggered a monitor).
	ThreadTS string
	Text     string
}

// MessageBus decouples gateways from the turn handler. Each inbound event
// is consumed once; outbound replies fan out to the subscribers of the
// target channel.
type MessageBus struct {
	inbound  chan events.Event
	outbound chan *Reply
	subs     map[string][]func(*Reply)
	mu       sync.RWMutex
}

// NewMessageBus creates a new message bus.
func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan events.Event, 100),
		outbound: make(chan *Reply, 100),
		subs:     map[string][]func(*Reply){},
	}
}

// PublishInbound sends an event from a gateway to the turn handler.
func (b *MessageBus) PublishInbound(ev events.Event) {
	b.inbound <- ev
}

// ConsumeInbound blocks until an event is available or the context is done.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (events.Event, error) {
	select {
	case ev := <-b.inbound:
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PublishOutbound sends a reply from the turn handler to gateways.
func (b *MessageBus) PublishOutbound(r *Reply) {
	b.outbound <- r
}

// Subscribe registers a callback for replies to a specific channel.
func (b *MessageBus) Subscribe(channel string, callback func(*Reply)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[channel] = append(b.subs[channel], callback)
}

// DispatchOutbound runs the outbound reply dispatcher. Run as a goroutine.
func (b *MessageBus) DispatchOutbound(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-b.outbound:
			b.mu.RLock()
			callbacks := b.subs[r.Channel]
			b.mu.RUnlock()
			for _, cb := range callbacks {
				cb(r)
			}
		}
	}
}

// InboundSize returns the number of pending inbound events.
func (b *MessageBus) InboundSize() int { return len(b.inbound) }

// OutboundSize returns the number of pending replies.
func (b *MessageBus) OutboundSize() int { return len(b.outbound) }
