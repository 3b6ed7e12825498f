// Package session provides bounded per-conversation history storage.
package session

import (
	"context"
	"time"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one conversation turn. Immutable once appended.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the per-conversation history store, keyed by a channel-qualified
// conversation identifier (e.g. "whatsapp:27821234567").
//
// Append is the only mutator and is append-only: no edits, no deletes. The
// full sequence may be retained for audit; Recent returns at most n turns in
// chronological order. A key with no history is an empty session, not an
// error.
type Store interface {
	Recent(ctx context.Context, key string, n int) ([]Turn, error)
	Append(ctx context.Context, key string, turns ...Turn) error
	Close() error
}

// NewTurn creates a turn stamped with the current time.
func NewTurn(role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now()}
}
