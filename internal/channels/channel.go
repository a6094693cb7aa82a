// Package channels implements chat-platform gateways. A gateway normalizes
// platform events into bus events and delivers replies back to the platform.
package channels

import (
	"context"

	"github.com/devingeorge/devbot-ai-assistant/internal/bus"
)

// Channel defines the interface for chat-platform gateways.
type Channel interface {
	// Name returns the gateway name (e.g. "slack").
	Name() string
	// Start starts the gateway listener.
	Start(ctx context.Context) error
	// Stop stops the gateway listener.
	Stop() error
	// Send delivers a reply to the platform.
	Send(ctx context.Context, r *bus.Reply) error
}

// BaseChannel provides common functionality for gateways.
type BaseChannel struct {
	Bus *bus.MessageBus
}
