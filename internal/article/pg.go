package article

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQL statements for the articles table. The similarity expression
// 1 - (embedding <=> $1) converts pgvector cosine distance to a [0,1]
// similarity score; ordering by distance keeps results in descending
// score order.
const (
	upsertArticleSQL = `
		INSERT INTO articles (id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    embedding = EXCLUDED.embedding,
		    metadata = EXCLUDED.metadata`

	searchArticlesSQL = `
		SELECT id, content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM articles
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`

	countArticlesSQL = `SELECT count(*) FROM articles`
)

// PGQuerier implements Querier on a pgx connection pool.
type PGQuerier struct {
	pool *pgxpool.Pool
}

// NewPGQuerier creates a Querier backed by the given pool.
func NewPGQuerier(pool *pgxpool.Pool) *PGQuerier {
	return &PGQuerier{pool: pool}
}

// UpsertArticles writes all rows in a single pgx batch (one round trip).
func (q *PGQuerier) UpsertArticles(ctx context.Context, rows []UpsertParams) error {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertArticleSQL, row.ID, row.Content, row.Embedding, row.Metadata)
	}

	results := q.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i := range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert article %q: %w", rows[i].ID, err)
		}
	}
	return nil
}

// SearchArticles runs the vector similarity query.
func (q *PGQuerier) SearchArticles(ctx context.Context, arg SearchParams) ([]SearchRow, error) {
	rows, err := q.pool.Query(ctx, searchArticlesSQL, arg.QueryEmbedding, arg.MinScore, arg.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var out []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}
	return out, nil
}

// CountArticles counts indexed articles.
func (q *PGQuerier) CountArticles(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, countArticlesSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return count, nil
}
