package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuhao0/newsrag/internal/article"
)

// Batching policy for bulk indexing. No backoff or retry beyond what the
// embedding provider itself does; the pause between batches is a simple
// rate-limit courtesy.
const (
	defaultIndexBatchSize = 10
	defaultIndexDelay     = 200 * time.Millisecond
)

// VectorUpserter is the write side of the vector store the indexer needs.
type VectorUpserter interface {
	Upsert(ctx context.Context, points []article.Point) error
}

// IndexResult summarizes one IndexDocuments run.
type IndexResult struct {
	Indexed int
	Batches int
}

// Indexer embeds chunks in batches and writes them to the vector store.
type Indexer struct {
	embedder  Embedder
	store     VectorUpserter
	batchSize int
	delay     time.Duration
	logger    *slog.Logger
}

// NewIndexer creates an Indexer with the default batching policy.
func NewIndexer(embedder Embedder, store VectorUpserter, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		embedder:  embedder,
		store:     store,
		batchSize: defaultIndexBatchSize,
		delay:     defaultIndexDelay,
		logger:    logger,
	}
}

// IndexDocuments embeds all chunks and upserts one vector-store write per
// batch. Each batch's embedding count must match its chunk count exactly;
// a mismatch aborts before anything from that batch is written.
func (ix *Indexer) IndexDocuments(ctx context.Context, chunks []article.Chunk) (IndexResult, error) {
	var result IndexResult
	if len(chunks) == 0 {
		return result, nil
	}

	for start := 0; start < len(chunks); start += ix.batchSize {
		if start > 0 {
			if err := sleepCtx(ctx, ix.delay); err != nil {
				return result, err
			}
		}

		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return result, fmt.Errorf("batch %d: %w", result.Batches, err)
		}
		if len(vectors) != len(batch) {
			return result, fmt.Errorf("%w: batch %d produced %d embeddings for %d chunks",
				ErrContractViolation, result.Batches, len(vectors), len(batch))
		}

		points := make([]article.Point, len(batch))
		for i, chunk := range batch {
			points[i] = article.Point{ID: chunk.ID, Vector: vectors[i], Chunk: chunk}
		}

		if err := ix.store.Upsert(ctx, points); err != nil {
			return result, fmt.Errorf("batch %d: %w", result.Batches, err)
		}

		result.Indexed += len(batch)
		result.Batches++
		ix.logger.Debug("indexed batch", "batch", result.Batches, "chunks", len(batch))
	}

	ix.logger.Info("indexing complete", "chunks", result.Indexed, "batches", result.Batches)
	return result, nil
}

// sleepCtx pauses for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
