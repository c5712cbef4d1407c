package session

import (
	"context"
	"time"

	"github.com/avvvet/orderbot/internal/dialog"
)

// Message is a single transcript line of a conversation.
type Message struct {
	Role      string    `json:"role"`      // "user" or "assistant"
	Content   string    `json:"content"`   // The actual message text
	Timestamp time.Time `json:"timestamp"` // When the message was sent
}

// SessionData is everything held for one conversation between turns: the
// dialog state the engine resumes from, plus the transcript so far.
type SessionData struct {
	SessionID string        `json:"session_id"`
	UserID    string        `json:"user_id"`
	State     *dialog.State `json:"state,omitempty"`
	Messages  []Message     `json:"messages"`
	Metadata  Metadata      `json:"metadata"`
}

// Metadata contains session bookkeeping.
type Metadata struct {
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

// Store defines the interface for session storage.
// This allows us to swap between Redis, in-memory, etc.
type Store interface {
	// Load loads a session, returning an empty one when it does not exist.
	Load(ctx context.Context, sessionID string) (*SessionData, error)

	// Save writes a session back, refreshing its TTL.
	Save(ctx context.Context, data *SessionData) error

	// Clear removes a session from storage.
	Clear(ctx context.Context, sessionID string) error

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}
