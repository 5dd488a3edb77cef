package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQL for the chat_sessions table. Expiry is enforced in every read
// predicate so an expired row behaves as absent even before the sweeper
// removes it.
const (
	getSessionSQL = `
SELECT data FROM chat_sessions
WHERE key = $1 AND expires_at > now()`

	putSessionSQL = `
INSERT INTO chat_sessions (key, data, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE
SET data = EXCLUDED.data,
    expires_at = EXCLUDED.expires_at,
    updated_at = now()`

	touchSessionSQL = `
UPDATE chat_sessions
SET expires_at = $2
WHERE key = $1 AND expires_at > now()`

	deleteSessionSQL = `
DELETE FROM chat_sessions
WHERE key = $1 AND expires_at > now()`

	countSessionsSQL = `
SELECT count(*) FROM chat_sessions
WHERE expires_at > now()`

	deleteExpiredSQL = `
DELETE FROM chat_sessions
WHERE expires_at <= now()`
)

// PGQuerier implements Querier on a pgx connection pool.
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier creates a PGQuerier backed by pool.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

func (q *PGQuerier) GetSessionData(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := q.pool.QueryRow(ctx, getSessionSQL, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return data, nil
}

func (q *PGQuerier) PutSessionData(ctx context.Context, arg PutParams) error {
	if _, err := q.pool.Exec(ctx, putSessionSQL, arg.Key, arg.Data, arg.ExpiresAt); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (q *PGQuerier) TouchSession(ctx context.Context, key string, expiresAt time.Time) (bool, error) {
	tag, err := q.pool.Exec(ctx, touchSessionSQL, key, expiresAt)
	if err != nil {
		return false, fmt.Errorf("touch session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *PGQuerier) DeleteSessionData(ctx context.Context, key string) (bool, error) {
	tag, err := q.pool.Exec(ctx, deleteSessionSQL, key)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (q *PGQuerier) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, countSessionsSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func (q *PGQuerier) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := q.pool.Exec(ctx, deleteExpiredSQL)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
