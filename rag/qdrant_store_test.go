package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestQdrant(t *testing.T, handler http.HandlerFunc, cfg QdrantConfig) *QdrantStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	if cfg.Collection == "" {
		cfg.Collection = "docs"
	}
	return NewQdrantStore(cfg, zap.NewNop())
}

func TestQdrantPointIDStable(t *testing.T) {
	a := qdrantPointID("report.txt#0")
	b := qdrantPointID("report.txt#0")
	c := qdrantPointID("report.txt#1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestQdrantAddDocuments(t *testing.T) {
	var captured struct {
		Points []struct {
			ID      string                 `json:"id"`
			Vector  []float64              `json:"vector"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"points"`
	}

	store := newTestQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/docs/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"result":{},"status":"ok"}`))
	}, QdrantConfig{APIKey: "secret"})

	err := store.AddDocuments(context.Background(), []Document{
		{ID: "chunk-1", Content: "hello", Embedding: []float64{0.1, 0.2}},
	})
	require.NoError(t, err)

	require.Len(t, captured.Points, 1)
	assert.Equal(t, qdrantPointID("chunk-1"), captured.Points[0].ID)
	assert.Equal(t, []float64{0.1, 0.2}, captured.Points[0].Vector)
	assert.Equal(t, "chunk-1", captured.Points[0].Payload["doc_id"])
	assert.Equal(t, "hello", captured.Points[0].Payload["content"])
}

func TestQdrantAddDocumentsDimensionMismatch(t *testing.T) {
	store := NewQdrantStore(QdrantConfig{Collection: "docs"}, zap.NewNop())

	err := store.AddDocuments(context.Background(), []Document{
		{ID: "a", Content: "x", Embedding: []float64{1, 2}},
		{ID: "b", Content: "y", Embedding: []float64{1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestQdrantAutoCreateCollection(t *testing.T) {
	var createCalls int

	store := newTestQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
			createCalls++
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			vectors := body["vectors"].(map[string]interface{})
			assert.Equal(t, float64(2), vectors["size"])
			assert.Equal(t, "Cosine", vectors["distance"])
			w.Write([]byte(`{"result":true}`))
		default:
			w.Write([]byte(`{"result":{}}`))
		}
	}, QdrantConfig{AutoCreateCollection: true})

	ctx := context.Background()
	doc := Document{ID: "a", Content: "x", Embedding: []float64{1, 0}}
	require.NoError(t, store.AddDocuments(ctx, []Document{doc}))
	require.NoError(t, store.AddDocuments(ctx, []Document{doc}))

	// sync.Once：集合只创建一次
	assert.Equal(t, 1, createCalls)
}

func TestQdrantAutoCreateTolerates409(t *testing.T) {
	store := newTestQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Write([]byte(`{"result":{}}`))
	}, QdrantConfig{AutoCreateCollection: true})

	err := store.AddDocuments(context.Background(), []Document{
		{ID: "a", Content: "x", Embedding: []float64{1, 0}},
	})
	require.NoError(t, err)
}

func TestQdrantSearch(t *testing.T) {
	store := newTestQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/docs/points/search", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(2), req["limit"])
		assert.Equal(t, true, req["with_payload"])

		w.Write([]byte(`{"result":[
			{"id":"uuid-1","score":0.95,"payload":{"doc_id":"chunk-1","content":"first","metadata":{"page":1}}},
			{"id":"uuid-2","score":0.40,"payload":{"doc_id":"chunk-2","content":"second"}}
		],"status":"ok"}`))
	}, QdrantConfig{})

	results, err := store.Search(context.Background(), []float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "chunk-1", results[0].Document.ID)
	assert.Equal(t, "first", results[0].Document.Content)
	assert.InDelta(t, 0.95, results[0].Score, 1e-9)
	assert.InDelta(t, 0.05, results[0].Distance, 1e-9)
	assert.Equal(t, float64(1), results[0].Document.Metadata["page"])
	assert.Equal(t, "chunk-2", results[1].Document.ID)
}

func TestQdrantSearchServerError(t *testing.T) {
	store := newTestQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":{"error":"boom"}}`))
	}, QdrantConfig{})

	_, err := store.Search(context.Background(), []float64{1, 0}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
}

func TestQdrantDeleteDocuments(t *testing.T) {
	var captured struct {
		Points []string `json:"points"`
	}

	store := newTestQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/docs/points/delete", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{"result":{}}`))
	}, QdrantConfig{})

	require.NoError(t, store.DeleteDocuments(context.Background(), []string{"chunk-1", " ", "chunk-2"}))

	// 空白 ID 被跳过
	assert.Equal(t, []string{qdrantPointID("chunk-1"), qdrantPointID("chunk-2")}, captured.Points)
}

func TestQdrantCount(t *testing.T) {
	store := newTestQdrant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/docs/points/count", r.URL.Path)
		w.Write([]byte(`{"result":{"count":42}}`))
	}, QdrantConfig{})

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestQdrantRequiresCollection(t *testing.T) {
	store := NewQdrantStore(QdrantConfig{}, zap.NewNop())

	_, err := store.Search(context.Background(), []float64{1}, 1)
	require.Error(t, err)

	err = store.AddDocuments(context.Background(), []Document{
		{ID: "a", Embedding: []float64{1}},
	})
	require.Error(t, err)
}
