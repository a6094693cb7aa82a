// Package audit publishes per-turn audit records to a Kafka topic.
// Publishing is best effort: failures are logged and never affect a turn.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// TurnEvent is one completed turn, as published to the audit topic.
type TurnEvent struct {
	TeamID    string    `json:"team_id"`
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	EventKind string    `json:"event_kind"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	LatencyMs int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder receives completed turns. The zero-value NopRecorder drops them.
type Recorder interface {
	RecordTurn(ctx context.Context, ev TurnEvent)
}

// NopRecorder discards all turn events.
type NopRecorder struct{}

func (NopRecorder) RecordTurn(context.Context, TurnEvent) {}

// writer is the subset of kafka.Writer the publisher uses.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes turn events to Kafka.
type Publisher struct {
	w writer
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers, topic string) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

// RecordTurn publishes one turn event keyed by team.
func (p *Publisher) RecordTurn(ctx context.Context, ev TurnEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("Audit event marshal failed", "error", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(ev.TeamID),
		Value: value,
		Time:  ev.Timestamp,
	}); err != nil {
		slog.Warn("Audit publish failed", "team", ev.TeamID, "error", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error { return p.w.Close() }
