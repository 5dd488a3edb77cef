package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuhao0/newsrag/internal/article"
	"github.com/yuhao0/newsrag/internal/rag"
)

// ArticleStore is the retrieval access the HTTP layer needs.
// Satisfied by *article.Store.
type ArticleStore interface {
	Search(ctx context.Context, vector []float32, limit int, minScore float32) ([]article.Chunk, error)
	Info(ctx context.Context) (article.Info, error)
}

type searchHandler struct {
	articles ArticleStore
	embedder rag.Embedder
	logger   *slog.Logger
}

type searchRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit,omitempty"`
	Threshold float32 `json:"threshold,omitempty"`
}

type searchResponse struct {
	Results []article.Chunk `json:"results"`
}

// search handles POST /api/v1/search: similarity search without
// generation. Limits and thresholds take the same defaults and bounds as
// chat retrieval.
func (h *searchHandler) search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "invalid request body")
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing_query", "query is required")
		return
	}
	if len([]rune(req.Query)) > maxMessageLen {
		writeError(w, http.StatusUnprocessableEntity, "query_too_long", "query exceeds 8192 characters")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = rag.DefaultLimit
	}
	if limit > rag.MaxLimit {
		limit = rag.MaxLimit
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = rag.DefaultThreshold
	}
	if threshold < rag.MinThreshold {
		threshold = rag.MinThreshold
	}
	if threshold > 1 {
		threshold = 1
	}

	vectors, err := h.embedder.Embed(r.Context(), []string{req.Query})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if len(vectors) != 1 {
		writeError(w, http.StatusBadGateway, "external_service_error", "embedding service failed")
		return
	}

	chunks, err := h.articles.Search(r.Context(), vectors[0], limit, threshold)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	if chunks == nil {
		chunks = []article.Chunk{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: chunks})
}
