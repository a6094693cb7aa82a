package bus

import (
	"context"
	"testing"
	"time"

	"github.com/devingeorge/devbot-ai-assistant/internal/events"
)

func TestInboundRoundTrip(t *testing.T) {
	b := NewMessageBus()
	want := events.DirectMessage{
		Ref:    events.ConversationRef{TeamID: "T1", ChannelID: "D1"},
		UserID: "U1",
		Text:   "hello",
	}
	b.PublishInbound(want)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := b.ConsumeInbound(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	dm, ok := got.(events.DirectMessage)
	if !ok || dm.Text != "hello" {
		t.Fatalf("got %#v", got)
	}
}

func TestConsumeInboundRespectsContext(t *testing.T) {
	b := NewMessageBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.ConsumeInbound(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestOutboundDispatchByChannel(t *testing.T) {
	b := NewMessageBus()
	got := make(chan *Reply, 1)
	b.Subscribe("slack", func(r *Reply) { got <- r })
	b.Subscribe("other", func(r *Reply) { t.Error("wrong channel invoked") })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.DispatchOutbound(ctx)

	b.PublishOutbound(&Reply{Channel: "slack", Text: "hi"})
	select {
	case r := <-got:
		if r.Text != "hi" {
			t.Fatalf("reply = %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("reply not dispatched")
	}
}
