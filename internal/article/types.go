package article

import "time"

// VectorDimension is the fixed embedding dimensionality for the articles
// table. gemini-embedding-001 supports truncation to 768 dimensions; the
// vector(768) column in db/migrations must match this constant.
const VectorDimension = 768

// Metadata describes where an article chunk came from.
type Metadata struct {
	Source      string    `json:"source"`
	Title       string    `json:"title,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
}

// Chunk is a retrievable unit of indexed article text.
// Chunks are immutable once indexed. Score is populated only on retrieval
// results as the cosine similarity to the query; it is never persisted.
type Chunk struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Score    float32  `json:"score,omitempty"`
}

// Point pairs a chunk with its embedding vector for upsert.
type Point struct {
	ID     string
	Vector []float32
	Chunk  Chunk
}

// Info reports store-level statistics.
type Info struct {
	Count  int64  `json:"count"`
	Status string `json:"status"`
}
