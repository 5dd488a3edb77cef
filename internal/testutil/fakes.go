// Package testutil provides provider stubs and in-memory stores shared by
// package tests. Nothing here touches the network or a database.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yuhao0/newsrag/internal/article"
	"github.com/yuhao0/newsrag/internal/session"
)

// Dimension of stub vectors, matching the production embedding size.
const Dimension = article.VectorDimension

// FixedVector returns a vector of Dimension elements all set to fill.
func FixedVector(fill float32) []float32 {
	v := make([]float32, Dimension)
	for i := range v {
		v[i] = fill
	}
	return v
}

// StubEmbedder implements rag.Embedder with settable vectors.
// When ByText has an entry for an input text it wins; otherwise Vector is
// returned for every input. All calls are recorded.
type StubEmbedder struct {
	Vector []float32
	ByText map[string][]float32
	Err    error

	mu    sync.Mutex
	calls [][]string
}

func (e *StubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls = append(e.calls, texts)
	e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := e.ByText[text]; ok {
			vectors[i] = v
			continue
		}
		if e.Vector == nil {
			return nil, fmt.Errorf("no stub vector configured for %q", text)
		}
		vectors[i] = e.Vector
	}
	return vectors, nil
}

// Calls returns every Embed invocation's input texts.
func (e *StubEmbedder) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.calls...)
}

// StubCompleter implements rag.Completer with a fixed reply.
// It records every prompt it receives.
type StubCompleter struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

func (c *StubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, prompt)
	c.mu.Unlock()

	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}

// Prompts returns every prompt passed to Complete.
func (c *StubCompleter) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// StubSearcher implements rag.ArticleSearcher returning canned chunks.
type StubSearcher struct {
	Chunks []article.Chunk
	Err    error

	mu        sync.Mutex
	LastLimit int
	LastScore float32
}

func (s *StubSearcher) Search(_ context.Context, _ []float32, limit int, minScore float32) ([]article.Chunk, error) {
	s.mu.Lock()
	s.LastLimit = limit
	s.LastScore = minScore
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Chunks) > limit {
		return s.Chunks[:limit], nil
	}
	return s.Chunks, nil
}

// MemSessionQuerier is an in-memory session.Querier honoring row expiry,
// mirroring the SQL predicates of the Postgres implementation.
// Safe for concurrent use.
type MemSessionQuerier struct {
	mu   sync.Mutex
	rows map[string]memRow

	// Now is the clock used for expiry checks. Defaults to time.Now.
	Now func() time.Time

	// TouchErr, when set, fails every TouchSession call.
	TouchErr error
}

type memRow struct {
	data      []byte
	expiresAt time.Time
}

// NewMemSessionQuerier returns an empty in-memory querier.
func NewMemSessionQuerier() *MemSessionQuerier {
	return &MemSessionQuerier{rows: make(map[string]memRow), Now: time.Now}
}

func (m *MemSessionQuerier) live(key string) (memRow, bool) {
	row, ok := m.rows[key]
	if !ok || !row.expiresAt.After(m.Now()) {
		return memRow{}, false
	}
	return row, true
}

func (m *MemSessionQuerier) GetSessionData(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.live(key)
	if !ok {
		return nil, session.ErrNotFound
	}
	return row.data, nil
}

func (m *MemSessionQuerier) PutSessionData(_ context.Context, arg session.PutParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[arg.Key] = memRow{data: arg.Data, expiresAt: arg.ExpiresAt}
	return nil
}

func (m *MemSessionQuerier) TouchSession(_ context.Context, key string, expiresAt time.Time) (bool, error) {
	if m.TouchErr != nil {
		return false, m.TouchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.live(key)
	if !ok {
		return false, nil
	}
	row.expiresAt = expiresAt
	m.rows[key] = row
	return true, nil
}

func (m *MemSessionQuerier) DeleteSessionData(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(key)
	delete(m.rows, key)
	return ok, nil
}

func (m *MemSessionQuerier) CountSessions(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key := range m.rows {
		if _, ok := m.live(key); ok {
			n++
		}
	}
	return n, nil
}

func (m *MemSessionQuerier) DeleteExpiredSessions(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, row := range m.rows {
		if !row.expiresAt.After(m.Now()) {
			delete(m.rows, key)
			n++
		}
	}
	return n, nil
}

// ErrStub is a generic failure for fault-injection tests.
var ErrStub = errors.New("stubbed failure")
