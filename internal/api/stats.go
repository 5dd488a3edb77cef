package api

import (
	"log/slog"
	"net/http"
)

type statsHandler struct {
	sessions SessionStore
	articles ArticleStore
	logger   *slog.Logger
}

type statsResponse struct {
	LiveSessions int64  `json:"live_sessions"`
	Articles     int64  `json:"articles"`
	StoreStatus  string `json:"store_status"`
}

// getStats handles GET /api/v1/stats. Counts are approximate under
// concurrent expiry.
func (h *statsHandler) getStats(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.Count(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	info, err := h.articles.Info(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		LiveSessions: sessions,
		Articles:     info.Count,
		StoreStatus:  info.Status,
	})
}
