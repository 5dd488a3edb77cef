package api

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuhao0/newsrag/internal/log"
	"github.com/yuhao0/newsrag/internal/rag"
	"github.com/yuhao0/newsrag/internal/session"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	writeJSON(w, 200, map[string]string{"message": "hello"})

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var result map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "hello", result["message"])
}

func TestWriteJSONUnencodable(t *testing.T) {
	w := httptest.NewRecorder()

	// Channels cannot be JSON-encoded; buffer-first means the client
	// still gets a clean 500 instead of a truncated 200.
	writeJSON(w, 200, map[string]any{"ch": make(chan int)})

	assert.Equal(t, 500, w.Code)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	writeError(w, 400, "bad_request", "invalid input")

	assert.Equal(t, 400, w.Code)

	var result errorBody
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, "bad_request", result.Error.Code)
	assert.Equal(t, "invalid input", result.Error.Message)
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "missing session",
			err:        session.ErrNotFound,
			wantStatus: 404,
			wantCode:   "session_not_found",
			wantMsg:    "session not found",
		},
		{
			name:       "wrapped missing session",
			err:        errors.Join(errors.New("loading history"), session.ErrNotFound),
			wantStatus: 404,
			wantCode:   "session_not_found",
			wantMsg:    "session not found",
		},
		{
			name:       "provider failure names the collaborator",
			err:        &rag.ProviderError{Provider: "embedding", Message: "timeout"},
			wantStatus: 502,
			wantCode:   "external_service_error",
			wantMsg:    "embedding service failed",
		},
		{
			name:       "contract violation is internal",
			err:        rag.ErrContractViolation,
			wantStatus: 500,
			wantCode:   "internal_error",
			wantMsg:    "internal server error",
		},
		{
			name:       "unknown error is internal",
			err:        errors.New("boom"),
			wantStatus: 500,
			wantCode:   "internal_error",
			wantMsg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeDomainError(w, log.NewNop(), tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var result errorBody
			err := json.Unmarshal(w.Body.Bytes(), &result)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, result.Error.Code)
			assert.Equal(t, tt.wantMsg, result.Error.Message)
		})
	}
}
