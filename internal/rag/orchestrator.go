// Package rag coordinates retrieval-augmented chat: it embeds the user's
// question, searches indexed articles, assembles a grounded prompt, calls
// the generation model, and records the exchange in the session store.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yuhao0/newsrag/internal/article"
	"github.com/yuhao0/newsrag/internal/session"
)

// Retrieval boundary constants. These must match the internal/config
// defaults to keep behavior consistent whether options arrive from
// configuration or per-request.
const (
	// DefaultLimit is the retrieval limit when the caller specifies none.
	DefaultLimit = 5

	// MaxLimit is the hard cap on retrieval limit.
	MaxLimit = 20

	// DefaultThreshold is the similarity threshold when unspecified.
	DefaultThreshold float32 = 0.7

	// MinThreshold is the floor imposed on caller-supplied thresholds.
	MinThreshold float32 = 0.3
)

// historyWindow bounds how many trailing messages are rendered into the
// prompt.
const historyWindow = 10

// providerTimeout bounds each external provider call. The orchestrator
// itself enforces no overall budget.
const providerTimeout = 30 * time.Second

// SessionStore is the session persistence the orchestrator needs.
type SessionStore interface {
	Append(ctx context.Context, sessionID string, messages ...session.Message) (*session.Session, error)
	RefreshTTL(ctx context.Context, sessionID string) error
}

// ArticleSearcher is the vector search the orchestrator needs.
type ArticleSearcher interface {
	Search(ctx context.Context, vector []float32, limit int, minScore float32) ([]article.Chunk, error)
}

// QueryOptions carries per-request retrieval tuning. Zero values select
// the defaults.
type QueryOptions struct {
	Limit     int
	Threshold float32
}

// normalize applies defaults, caps, and floors.
func (o QueryOptions) normalize() QueryOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Threshold < MinThreshold {
		o.Threshold = MinThreshold
	}
	if o.Threshold > 1 {
		o.Threshold = 1
	}
	return o
}

// ChatResponse is the result of one resolved query turn.
type ChatResponse struct {
	Message   string          `json:"message"`
	SessionID string          `json:"session_id"`
	MessageID uuid.UUID       `json:"message_id"`
	Sources   []article.Chunk `json:"sources"`
}

// Orchestrator resolves single chat turns. It holds no per-session state
// across calls; every query re-fetches the session it touches.
//
// Orchestrator is safe for concurrent use across different sessions.
// Concurrent calls for the same session are not mutually excluded and can
// lose an append (see session.Store).
type Orchestrator struct {
	sessions  SessionStore
	articles  ArticleSearcher
	embedder  Embedder
	completer Completer
	logger    *slog.Logger
}

// NewOrchestrator wires the orchestrator's collaborators.
// logger nil falls back to slog.Default().
func NewOrchestrator(sessions SessionStore, articles ArticleSearcher, embedder Embedder, completer Completer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sessions:  sessions,
		articles:  articles,
		embedder:  embedder,
		completer: completer,
		logger:    logger,
	}
}

// ProcessQuery resolves one user turn. The user message is appended
// before retrieval so a later failure still leaves it recorded; partial
// side effects are accepted, not rolled back. No external call is
// retried. A failed TTL refresh is logged and swallowed.
func (o *Orchestrator) ProcessQuery(ctx context.Context, sessionID, userMessage string, opts QueryOptions) (*ChatResponse, error) {
	opts = opts.normalize()
	start := time.Now()

	sess, err := o.sessions.Append(ctx, sessionID, session.Message{
		Role:    session.RoleUser,
		Content: userMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	history := sess.Tail(historyWindow)

	vector, err := o.embedQuery(ctx, userMessage)
	if err != nil {
		return nil, err
	}

	chunks, err := o.articles.Search(ctx, vector, opts.Limit, opts.Threshold)
	if err != nil {
		return nil, newProviderError("vector store", "search failed", err)
	}

	prompt := BuildPrompt(AssembleContext(chunks), RenderHistory(history), userMessage)

	answer, err := o.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	sess, err = o.sessions.Append(ctx, sessionID, session.Message{
		Role:    session.RoleAssistant,
		Content: answer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record assistant message: %w", err)
	}

	// Best effort: a refresh failure must never fail the request.
	if err := o.sessions.RefreshTTL(ctx, sessionID); err != nil {
		o.logger.Warn("session TTL refresh failed", "session_id", sessionID, "error", err)
	}

	assistantMsg := sess.Messages[len(sess.Messages)-1]

	o.logger.Info("query resolved",
		"session_id", sessionID,
		"sources", len(chunks),
		"answer_length", len(answer),
		"duration_ms", time.Since(start).Milliseconds())

	if chunks == nil {
		chunks = []article.Chunk{}
	}
	return &ChatResponse{
		Message:   answer,
		SessionID: sessionID,
		MessageID: assistantMsg.ID,
		Sources:   chunks,
	}, nil
}

// embedQuery embeds a single query text under the provider timeout.
func (o *Orchestrator) embedQuery(ctx context.Context, query string) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	vectors, err := o.embedder.Embed(callCtx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, newProviderError("embedding", fmt.Sprintf("got %d vectors for one input", len(vectors)), nil)
	}
	return vectors[0], nil
}

// complete calls the generation provider under the provider timeout.
func (o *Orchestrator) complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	return o.completer.Complete(callCtx, prompt)
}
