package article

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/yuhao0/newsrag/internal/log"
)

// mockQuerier implements Querier for testing.
type mockQuerier struct {
	upsertErr error
	searchErr error
	countErr  error

	searchResult []SearchRow
	countResult  int64

	upsertCalls int
	searchCalls int

	lastUpsertRows   []UpsertParams
	lastSearchParams SearchParams
}

func (m *mockQuerier) UpsertArticles(_ context.Context, rows []UpsertParams) error {
	m.upsertCalls++
	m.lastUpsertRows = rows
	return m.upsertErr
}

func (m *mockQuerier) SearchArticles(_ context.Context, arg SearchParams) ([]SearchRow, error) {
	m.searchCalls++
	m.lastSearchParams = arg
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResult, nil
}

func (m *mockQuerier) CountArticles(_ context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.countResult, nil
}

// failingPinger always reports backend failure.
type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func testVector(fill float32) []float32 {
	v := make([]float32, VectorDimension)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestUpsert(t *testing.T) {
	q := &mockQuerier{}
	store := New(q, nil, log.NewNop())

	points := []Point{
		{ID: "a1", Vector: testVector(0.1), Chunk: Chunk{ID: "a1", Content: "first", Metadata: Metadata{Source: "reuters", Title: "One"}}},
		{ID: "a2", Vector: testVector(0.2), Chunk: Chunk{ID: "a2", Content: "second", Metadata: Metadata{Source: "bbc"}}},
	}

	if err := store.Upsert(context.Background(), points); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if q.upsertCalls != 1 {
		t.Errorf("expected one batched upsert call, got %d", q.upsertCalls)
	}
	if len(q.lastUpsertRows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(q.lastUpsertRows))
	}

	var meta Metadata
	if err := json.Unmarshal(q.lastUpsertRows[0].Metadata, &meta); err != nil {
		t.Fatalf("metadata not valid JSON: %v", err)
	}
	if meta.Source != "reuters" || meta.Title != "One" {
		t.Errorf("metadata round trip = %+v", meta)
	}
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	q := &mockQuerier{}
	store := New(q, nil, log.NewNop())

	err := store.Upsert(context.Background(), []Point{
		{ID: "bad", Vector: []float32{1, 2, 3}},
	})
	if err == nil {
		t.Fatal("expected dimension error")
	}
	if q.upsertCalls != 0 {
		t.Errorf("querier must not be called on invalid input")
	}
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	q := &mockQuerier{}
	store := New(q, nil, log.NewNop())

	if err := store.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert(nil): %v", err)
	}
	if q.upsertCalls != 0 {
		t.Errorf("expected no querier call for empty input")
	}
}

func TestSearch(t *testing.T) {
	q := &mockQuerier{
		searchResult: []SearchRow{
			{ID: "a1", Content: "AI is...", Metadata: []byte(`{"source":"reuters","title":"AI"}`), Similarity: 0.9},
			{ID: "a2", Content: "more", Metadata: []byte(`{"source":"bbc"}`), Similarity: 0.75},
		},
	}
	store := New(q, nil, log.NewNop())

	chunks, err := store.Search(context.Background(), testVector(0.5), 5, 0.7)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Score != 0.9 || chunks[0].Metadata.Source != "reuters" {
		t.Errorf("first chunk = %+v", chunks[0])
	}
	if q.lastSearchParams.ResultLimit != 5 {
		t.Errorf("limit passed = %d, want 5", q.lastSearchParams.ResultLimit)
	}
	if q.lastSearchParams.MinScore != 0.7 {
		t.Errorf("minScore passed = %v, want 0.7", q.lastSearchParams.MinScore)
	}
}

func TestSearchEmptyResultIsValid(t *testing.T) {
	store := New(&mockQuerier{}, nil, log.NewNop())

	chunks, err := store.Search(context.Background(), testVector(0.5), 5, 1.0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected empty result, got %d", len(chunks))
	}
}

func TestSearchValidation(t *testing.T) {
	store := New(&mockQuerier{}, nil, log.NewNop())

	if _, err := store.Search(context.Background(), []float32{1}, 5, 0.7); err == nil {
		t.Error("expected error for wrong vector dimension")
	}
	if _, err := store.Search(context.Background(), testVector(0.5), 0, 0.7); err == nil {
		t.Error("expected error for zero limit")
	}
}

func TestSearchMalformedMetadataIsTolerated(t *testing.T) {
	q := &mockQuerier{
		searchResult: []SearchRow{
			{ID: "a1", Content: "text", Metadata: []byte(`{not json`), Similarity: 0.8},
		},
	}
	store := New(q, nil, log.NewNop())

	chunks, err := store.Search(context.Background(), testVector(0.5), 5, 0.7)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "text" {
		t.Errorf("chunk with bad metadata should still be returned: %+v", chunks)
	}
}

func TestInfo(t *testing.T) {
	q := &mockQuerier{countResult: 42}
	store := New(q, nil, log.NewNop())

	info, err := store.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Count != 42 || info.Status != "green" {
		t.Errorf("Info = %+v", info)
	}
}

func TestInfoDegradedOnPingFailure(t *testing.T) {
	q := &mockQuerier{countResult: 1}
	store := New(q, failingPinger{}, log.NewNop())

	info, err := store.Info(context.Background())
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Status != "degraded" {
		t.Errorf("status = %q, want degraded", info.Status)
	}
}
