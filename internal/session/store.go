package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PutParams holds one serialized session document for an upsert.
type PutParams struct {
	Key       string
	Data      []byte
	ExpiresAt time.Time
}

// Querier defines the storage operations the Store needs.
// Interfaces are defined by the consumer so tests can substitute a mock
// and the production implementation (see pg.go) stays swappable.
//
// Implementations must treat expired rows as absent: GetSessionData and
// TouchSession only see rows whose expiry lies in the future.
type Querier interface {
	// GetSessionData returns the serialized document for key, or
	// ErrNotFound when no live row exists.
	GetSessionData(ctx context.Context, key string) ([]byte, error)

	// PutSessionData inserts or replaces the document and its expiry.
	PutSessionData(ctx context.Context, arg PutParams) error

	// TouchSession extends the expiry of a live row. It reports whether
	// a live row was found.
	TouchSession(ctx context.Context, key string, expiresAt time.Time) (bool, error)

	// DeleteSessionData removes a row and reports whether a live row
	// existed.
	DeleteSessionData(ctx context.Context, key string) (bool, error)

	// CountSessions counts live rows.
	CountSessions(ctx context.Context) (int64, error)

	// DeleteExpiredSessions removes rows past their expiry and returns
	// how many were removed.
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Store manages conversation sessions over a Querier.
//
// Append performs a read-modify-write without locking: two concurrent
// appends to the same session can lose one of the writes. Chat traffic is
// serial per session in practice, so the race is accepted rather than
// paid for with row locks.
type Store struct {
	queries Querier
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Store. ttl <= 0 falls back to DefaultTTL; logger nil
// falls back to slog.Default().
func New(querier Querier, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries: querier,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// TTL returns the sliding expiry window.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get retrieves a session by ID.
// Returns ErrNotFound when the session is absent or expired.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.queries.GetSessionData(ctx, Key(sessionID))
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// Append adds messages to the end of a session, creating the session on
// first write. Messages without an ID or timestamp get them assigned.
// Every append resets the expiry window and returns the updated session.
func (s *Store) Append(ctx context.Context, sessionID string, messages ...Message) (*Session, error) {
	if len(messages) == 0 {
		return s.Get(ctx, sessionID)
	}

	now := s.now().UTC()

	sess, err := s.Get(ctx, sessionID)
	switch {
	case errors.Is(err, ErrNotFound):
		sess = &Session{ID: sessionID, CreatedAt: now}
	case err != nil:
		return nil, err
	}

	for i := range messages {
		if messages[i].ID == uuid.Nil {
			messages[i].ID = uuid.New()
		}
		if messages[i].CreatedAt.IsZero() {
			messages[i].CreatedAt = now
		}
	}
	sess.Messages = append(sess.Messages, messages...)
	sess.UpdatedAt = now

	data, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}

	if err := s.queries.PutSessionData(ctx, PutParams{
		Key:       Key(sessionID),
		Data:      data,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist session %s: %w", sessionID, err)
	}

	s.logger.Debug("appended messages",
		"session_id", sessionID,
		"appended", len(messages),
		"total", len(sess.Messages))
	return sess, nil
}

// RefreshTTL extends a session's expiry without modifying its content.
// Refreshing an absent or expired session returns ErrNotFound.
func (s *Store) RefreshTTL(ctx context.Context, sessionID string) error {
	found, err := s.queries.TouchSession(ctx, Key(sessionID), s.now().UTC().Add(s.ttl))
	if err != nil {
		return fmt.Errorf("failed to refresh session %s: %w", sessionID, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session and reports whether it existed.
// Deleting an absent or expired session returns false with no error.
func (s *Store) Delete(ctx context.Context, sessionID string) (bool, error) {
	existed, err := s.queries.DeleteSessionData(ctx, Key(sessionID))
	if err != nil {
		return false, fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if existed {
		s.logger.Debug("deleted session", "session_id", sessionID)
	}
	return existed, nil
}

// Count returns the number of live sessions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	count, err := s.queries.CountSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// PurgeExpired removes rows past their expiry.
// Reads already treat expired rows as absent; this only reclaims storage.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.queries.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}
	if purged > 0 {
		s.logger.Debug("purged expired sessions", "count", purged)
	}
	return purged, nil
}

// RunSweeper purges expired sessions on the given interval until ctx is
// cancelled. Purge failures are logged and the loop continues.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeExpired(ctx); err != nil {
				s.logger.Warn("session sweep failed", "error", err)
			}
		}
	}
}
