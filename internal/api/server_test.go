package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yuhao0/newsrag/internal/article"
	"github.com/yuhao0/newsrag/internal/log"
	"github.com/yuhao0/newsrag/internal/rag"
	"github.com/yuhao0/newsrag/internal/session"
	"github.com/yuhao0/newsrag/internal/testutil"
)

// fakeArticles adapts a StubSearcher into the ArticleStore interface.
type fakeArticles struct {
	*testutil.StubSearcher
	count   int64
	status  string
	infoErr error
}

func (f *fakeArticles) Info(context.Context) (article.Info, error) {
	if f.infoErr != nil {
		return article.Info{}, f.infoErr
	}
	status := f.status
	if status == "" {
		status = "green"
	}
	return article.Info{Count: f.count, Status: status}, nil
}

type testServer struct {
	srv       *httptest.Server
	sessions  *session.Store
	articles  *fakeArticles
	completer *testutil.StubCompleter
}

func newTestServer(t *testing.T, mutate func(*ServerConfig)) *testServer {
	t.Helper()

	sessions := session.New(testutil.NewMemSessionQuerier(), time.Hour, log.NewNop())
	articles := &fakeArticles{
		StubSearcher: &testutil.StubSearcher{
			Chunks: []article.Chunk{
				{ID: "a1", Content: "AI is...", Metadata: article.Metadata{Source: "reuters", Title: "AI"}, Score: 0.9},
			},
		},
		count: 12,
	}
	embedder := &testutil.StubEmbedder{Vector: testutil.FixedVector(0.1)}
	completer := &testutil.StubCompleter{Reply: "Grounded answer [Article 1]."}

	orch := rag.NewOrchestrator(sessions, articles.StubSearcher, embedder, completer, log.NewNop())

	cfg := ServerConfig{
		Logger:   log.NewNop(),
		Chat:     orch,
		Sessions: sessions,
		Articles: articles,
		Embedder: embedder,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, sessions: sessions, articles: articles, completer: completer}
}

func (ts *testServer) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(ts.srv.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (ts *testServer) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return v
}

func TestChatEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.post(t, "/api/v1/chat", map[string]any{
		"session_id":   "s1",
		"user_message": "What is AI?",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	body := decodeBody[rag.ChatResponse](t, resp)
	if body.Message != "Grounded answer [Article 1]." {
		t.Errorf("message = %q", body.Message)
	}
	if body.SessionID != "s1" {
		t.Errorf("session_id = %q", body.SessionID)
	}
	if len(body.Sources) != 1 || body.Sources[0].Score != 0.9 {
		t.Errorf("sources = %+v", body.Sources)
	}

	sess, err := ts.sessions.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.Messages) != 2 {
		t.Errorf("session holds %d messages, want 2", len(sess.Messages))
	}
}

func TestChatGeneratesSessionID(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.post(t, "/api/v1/chat", map[string]any{"user_message": "hi"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[rag.ChatResponse](t, resp)
	if body.SessionID == "" {
		t.Error("expected a generated session_id")
	}
}

func TestChatValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty message", map[string]any{"session_id": "s1", "user_message": ""}},
		{"whitespace message", map[string]any{"session_id": "s1", "user_message": "   "}},
		{"oversized message", map[string]any{"session_id": "s1", "user_message": strings.Repeat("x", 9000)}},
		{"negative limit", map[string]any{"user_message": "hi", "limit": -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.post(t, "/api/v1/chat", tt.body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", resp.StatusCode)
			}
		})
	}
}

func TestChatProviderFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.completer.Err = &rag.ProviderError{Provider: "generation", Message: "empty completion", Err: rag.ErrEmptyCompletion}

	resp := ts.post(t, "/api/v1/chat", map[string]any{"session_id": "s1", "user_message": "hi"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}

	body := decodeBody[errorBody](t, resp)
	if body.Error.Code != "external_service_error" {
		t.Errorf("code = %q", body.Error.Code)
	}
	if !strings.Contains(body.Error.Message, "generation") {
		t.Errorf("message %q should name the provider", body.Error.Message)
	}

	// The user message was still recorded.
	sess, err := ts.sessions.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(sess.Messages) != 1 {
		t.Errorf("session holds %d messages, want 1", len(sess.Messages))
	}
}

func TestHistoryEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	if _, err := ts.sessions.Append(context.Background(), "s1",
		session.Message{Role: session.RoleUser, Content: "q"},
		session.Message{Role: session.RoleAssistant, Content: "a"},
	); err != nil {
		t.Fatalf("Append: %v", err)
	}

	resp := ts.do(t, http.MethodGet, "/api/v1/sessions/s1/history")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[historyResponse](t, resp)
	if len(body.Messages) != 2 || body.Messages[0].Content != "q" {
		t.Errorf("messages = %+v", body.Messages)
	}
}

func TestHistoryNotFound(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(t, http.MethodGet, "/api/v1/sessions/ghost/history")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	body := decodeBody[errorBody](t, resp)
	if body.Error.Code != "session_not_found" {
		t.Errorf("code = %q", body.Error.Code)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	if _, err := ts.sessions.Append(context.Background(), "s1",
		session.Message{Role: session.RoleUser, Content: "q"},
	); err != nil {
		t.Fatalf("Append: %v", err)
	}

	resp := ts.do(t, http.MethodDelete, "/api/v1/sessions/s1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decodeBody[deleteResponse](t, resp); !body.Deleted {
		t.Error("first delete should report deleted=true")
	}

	resp = ts.do(t, http.MethodDelete, "/api/v1/sessions/s1")
	if body := decodeBody[deleteResponse](t, resp); body.Deleted {
		t.Error("second delete should report deleted=false")
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.post(t, "/api/v1/search", map[string]any{"query": "AI news"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[searchResponse](t, resp)
	if len(body.Results) != 1 || body.Results[0].ID != "a1" {
		t.Errorf("results = %+v", body.Results)
	}

	// Defaults applied when limit/threshold omitted.
	if ts.articles.LastLimit != rag.DefaultLimit {
		t.Errorf("limit = %d, want %d", ts.articles.LastLimit, rag.DefaultLimit)
	}
	if ts.articles.LastScore != rag.DefaultThreshold {
		t.Errorf("threshold = %v, want %v", ts.articles.LastScore, rag.DefaultThreshold)
	}
}

func TestSearchValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.post(t, "/api/v1/search", map[string]any{"query": ""})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	if _, err := ts.sessions.Append(context.Background(), "s1",
		session.Message{Role: session.RoleUser, Content: "q"},
	); err != nil {
		t.Fatalf("Append: %v", err)
	}

	resp := ts.do(t, http.MethodGet, "/api/v1/stats")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[statsResponse](t, resp)
	if body.LiveSessions != 1 || body.Articles != 12 || body.StoreStatus != "green" {
		t.Errorf("stats = %+v", body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	if resp := ts.do(t, http.MethodGet, "/health"); resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}
	if resp := ts.do(t, http.MethodGet, "/ready"); resp.StatusCode != http.StatusOK {
		t.Errorf("/ready status = %d", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(t, http.MethodGet, "/api/v1/stats")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/v1/stats", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	echo, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer echo.Body.Close()
	if got := echo.Header.Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want fixed-id", got)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.RateBurst = 3
	})

	var limited bool
	for i := 0; i < 10; i++ {
		resp := ts.do(t, http.MethodGet, "/api/v1/stats")
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			if resp.Header.Get("Retry-After") == "" {
				t.Error("Retry-After header missing on 429")
			}
			break
		}
	}
	if !limited {
		t.Error("rate limiter never triggered")
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, func(cfg *ServerConfig) {
		cfg.CORSOrigins = []string{"https://app.example.com"}
	})

	req, _ := http.NewRequest(http.MethodOptions, ts.srv.URL+"/api/v1/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q", got)
	}

	// Unknown origins get no CORS headers.
	req2, _ := http.NewRequest(http.MethodOptions, ts.srv.URL+"/api/v1/chat", nil)
	req2.Header.Set("Origin", "https://evil.example.com")
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.Header.Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}

func TestServerConfigValidation(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Error("expected error for missing dependencies")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		trustProxy bool
		want       string
	}{
		{"remote addr only", "10.0.0.1:1234", "", "", false, "10.0.0.1"},
		{"proxy headers ignored when untrusted", "10.0.0.1:1234", "1.2.3.4", "5.6.7.8", false, "10.0.0.1"},
		{"x-real-ip wins when trusted", "10.0.0.1:1234", "1.2.3.4", "5.6.7.8", true, "5.6.7.8"},
		{"xff first hop when trusted", "10.0.0.1:1234", "1.2.3.4, 9.9.9.9", "", true, "1.2.3.4"},
		{"garbage header falls back", "10.0.0.1:1234", "not-an-ip", "", true, "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	ts := newTestServer(t, nil)

	big := fmt.Sprintf(`{"user_message": %q}`, strings.Repeat("x", maxRequestBody))
	resp, err := http.Post(ts.srv.URL+"/api/v1/chat", "application/json", strings.NewReader(big))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}
