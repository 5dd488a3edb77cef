package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yuhao0/newsrag/internal/rag"
)

// Request size and validation bounds. The message cap matches the
// embedding provider's input contract.
const (
	maxRequestBody = 1 << 20
	maxMessageLen  = 8192
)

// ChatService resolves one chat turn. Satisfied by *rag.Orchestrator.
type ChatService interface {
	ProcessQuery(ctx context.Context, sessionID, userMessage string, opts rag.QueryOptions) (*rag.ChatResponse, error)
}

type chatHandler struct {
	service ChatService
	logger  *slog.Logger
}

type chatRequest struct {
	SessionID   string  `json:"session_id"`
	UserMessage string  `json:"user_message"`
	Limit       int     `json:"limit,omitempty"`
	Threshold   float32 `json:"threshold,omitempty"`
}

// send handles POST /api/v1/chat.
// An omitted session_id starts a new session.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_request", "invalid request body")
		return
	}

	req.UserMessage = strings.TrimSpace(req.UserMessage)
	if req.UserMessage == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing_message", "user_message is required")
		return
	}
	if len([]rune(req.UserMessage)) > maxMessageLen {
		writeError(w, http.StatusUnprocessableEntity, "message_too_long", "user_message exceeds 8192 characters")
		return
	}
	if req.Limit < 0 || req.Threshold < 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_retrieval_options", "limit and threshold must be non-negative")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	resp, err := h.service.ProcessQuery(r.Context(), sessionID, req.UserMessage, rag.QueryOptions{
		Limit:     req.Limit,
		Threshold: req.Threshold,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
