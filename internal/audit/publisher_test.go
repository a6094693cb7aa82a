package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestRecordTurn(t *testing.T) {
	fw := &fakeWriter{}
	p := &Publisher{w: fw}

	p.RecordTurn(context.Background(), TurnEvent{
		TeamID:    "T1",
		ChannelID: "C1",
		UserID:    "U1",
		EventKind: "direct_message",
		Action:    "completion",
		Outcome:   "ok",
		LatencyMs: 420,
	})

	if len(fw.msgs) != 1 {
		t.Fatalf("messages = %d", len(fw.msgs))
	}
	if string(fw.msgs[0].Key) != "T1" {
		t.Errorf("key = %s", fw.msgs[0].Key)
	}
	var got TurnEvent
	if err := json.Unmarshal(fw.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Action != "completion" || got.Timestamp.IsZero() {
		t.Errorf("event = %+v", got)
	}
}

func TestRecordTurnSwallowsErrors(t *testing.T) {
	p := &Publisher{w: &fakeWriter{err: errors.New("broker down")}}
	// Must not panic or block the caller.
	p.RecordTurn(context.Background(), TurnEvent{TeamID: "T1"})
}
