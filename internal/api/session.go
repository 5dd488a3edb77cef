package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yuhao0/newsrag/internal/session"
)

// SessionStore is the session access the HTTP layer needs.
// Satisfied by *session.Store.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Delete(ctx context.Context, sessionID string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type sessionHandler struct {
	store  SessionStore
	logger *slog.Logger
}

type historyResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []session.Message `json:"messages"`
}

// history handles GET /api/v1/sessions/{id}/history.
// An expired session is a 404, same as one that never existed.
func (h *sessionHandler) history(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing_session_id", "session id is required")
		return
	}

	sess, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	messages := sess.Messages
	if messages == nil {
		messages = []session.Message{}
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sess.ID, Messages: messages})
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

// remove handles DELETE /api/v1/sessions/{id}.
// Deleting an absent session succeeds with deleted=false.
func (h *sessionHandler) remove(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("id"))
	if sessionID == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing_session_id", "session id is required")
		return
	}

	existed, err := h.store.Delete(r.Context(), sessionID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{Deleted: existed})
}
