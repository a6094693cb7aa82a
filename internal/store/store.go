// Package store provides the team-scoped key-value store used for bot
// configuration records (credentials, prompts, canned responses, monitors).
package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backing store cannot be reached. Callers on
// the turn path degrade reads to empty results and writes to no-ops instead
// of failing the turn.
var ErrUnavailable = errors.New("store unavailable")

// KV is the key-value interface consumed by the pipeline. Values are
// JSON-serialized records keyed as {recordType}:{teamID}[:{userID}][:{recordID}].
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// ListKeysByPrefix returns all live keys starting with prefix.
	ListKeysByPrefix(ctx context.Context, prefix string) ([]string, error)
}
