// Package article manages indexed news article chunks with vector search.
//
// Chunks live in PostgreSQL with pgvector embeddings; similarity search
// uses cosine distance and returns results in descending score order.
package article

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
)

// searchTimeout bounds vector search queries so a slow index scan cannot
// block a request indefinitely.
const searchTimeout = 10 * time.Second

// UpsertParams holds one row for an article upsert.
type UpsertParams struct {
	ID        string
	Content   string
	Embedding *pgvector.Vector
	Metadata  []byte
}

// SearchParams holds the arguments for a vector similarity search.
type SearchParams struct {
	QueryEmbedding *pgvector.Vector
	MinScore       float32
	ResultLimit    int32
}

// SearchRow is one row returned by a vector similarity search.
type SearchRow struct {
	ID         string
	Content    string
	Metadata   []byte
	Similarity float32
}

// Querier defines the database operations the Store needs.
// The interface is defined by the consumer so tests can substitute a mock
// and the production implementation (see pg.go) stays swappable.
type Querier interface {
	// UpsertArticles inserts or updates the given rows in one round trip.
	UpsertArticles(ctx context.Context, rows []UpsertParams) error

	// SearchArticles returns rows ordered by descending similarity.
	SearchArticles(ctx context.Context, arg SearchParams) ([]SearchRow, error)

	// CountArticles counts indexed articles.
	CountArticles(ctx context.Context) (int64, error)
}

// Pinger reports backend connectivity. *pgxpool.Pool satisfies this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Store manages article chunks with vector search capabilities.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	queries Querier
	pinger  Pinger // nil disables status probing in Info
	logger  *slog.Logger
}

// New creates a new Store.
// pinger may be nil (tests); logger nil falls back to slog.Default().
func New(querier Querier, pinger Pinger, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries: querier,
		pinger:  pinger,
		logger:  logger,
	}
}

// Upsert writes the given points in a single batched call.
// Every vector must have exactly VectorDimension elements.
func (s *Store) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	rows := make([]UpsertParams, 0, len(points))
	for _, p := range points {
		if len(p.Vector) != VectorDimension {
			return fmt.Errorf("point %q has %d dimensions, want %d", p.ID, len(p.Vector), VectorDimension)
		}

		metadataJSON, err := json.Marshal(p.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %q: %w", p.ID, err)
		}

		vec := pgvector.NewVector(p.Vector)
		rows = append(rows, UpsertParams{
			ID:        p.ID,
			Content:   p.Chunk.Content,
			Embedding: &vec,
			Metadata:  metadataJSON,
		})
	}

	if err := s.queries.UpsertArticles(ctx, rows); err != nil {
		return fmt.Errorf("failed to upsert %d articles: %w", len(rows), err)
	}

	s.logger.Debug("upserted articles", "count", len(rows))
	return nil
}

// Search returns the chunks most similar to the query vector, ordered by
// descending similarity. Only chunks with similarity >= minScore are
// returned; an empty result is valid, not an error.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, minScore float32) ([]Chunk, error) {
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("query vector has %d dimensions, want %d", len(vector), VectorDimension)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	vec := pgvector.NewVector(vector)
	rows, err := s.queries.SearchArticles(queryCtx, SearchParams{
		QueryEmbedding: &vec,
		MinScore:       minScore,
		ResultLimit:    int32(limit), // #nosec G115 -- limit validated above, capped by callers
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return s.rowsToChunks(rows), nil
}

// Info returns the article count and a backend status string.
// Status is "green" when the backend answers a ping, "degraded" otherwise.
func (s *Store) Info(ctx context.Context) (Info, error) {
	count, err := s.queries.CountArticles(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("count failed: %w", err)
	}

	status := "green"
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			s.logger.Warn("article store ping failed", "error", err)
			status = "degraded"
		}
	}

	return Info{Count: count, Status: status}, nil
}

// rowsToChunks converts database rows to Chunks with the transient
// similarity score populated.
func (s *Store) rowsToChunks(rows []SearchRow) []Chunk {
	chunks := make([]Chunk, 0, len(rows))
	for _, row := range rows {
		var metadata Metadata
		if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
			s.logger.Warn("failed to parse article metadata", "article_id", row.ID, "error", err)
		}

		chunks = append(chunks, Chunk{
			ID:       row.ID,
			Content:  row.Content,
			Metadata: metadata,
			Score:    row.Similarity,
		})
	}
	return chunks
}
