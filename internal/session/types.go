// Package session persists chat conversations as serialized documents with
// a sliding expiry. Each session is stored as one row keyed by
// "chat:session:{id}"; every append rewrites the whole document and resets
// the expiry window. An expired session is indistinguishable from one that
// never existed.
package session

import (
	"time"

	"github.com/google/uuid"
)

// KeyPrefix namespaces session rows in storage.
const KeyPrefix = "chat:session:"

// Message roles as stored and rendered into prompts.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultTTL is the sliding expiry window applied on every write.
const DefaultTTL = 24 * time.Hour

// Key returns the storage key for a session ID.
func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

// Message is a single conversation turn.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a full conversation document. Messages are ordered oldest
// first; appends always go to the end.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tail returns the last n messages in chronological order.
// It returns all messages when the session holds fewer than n.
func (s *Session) Tail(n int) []Message {
	if n <= 0 || len(s.Messages) == 0 {
		return nil
	}
	if len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
