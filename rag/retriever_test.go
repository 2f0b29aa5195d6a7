package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docquill/docquill/llm/embedding"
)

// fakeEmbedder 按文本映射返回固定向量，未知文本返回 fallback。
type fakeEmbedder struct {
	vectors  map[string][]float64
	fallback []float64
	dims     int
	calls    int
}

func (f *fakeEmbedder) vectorFor(text string) []float64 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	return f.fallback
}

func (f *fakeEmbedder) Embed(ctx context.Context, req *embedding.EmbeddingRequest) (*embedding.EmbeddingResponse, error) {
	f.calls++
	data := make([]embedding.EmbeddingData, len(req.Input))
	for i, text := range req.Input {
		data[i] = embedding.EmbeddingData{Index: i, Embedding: f.vectorFor(text)}
	}
	return &embedding.EmbeddingResponse{Provider: f.Name(), Embeddings: data}, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	f.calls++
	return f.vectorFor(query), nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	f.calls++
	out := make([][]float64, len(documents))
	for i, d := range documents {
		out[i] = f.vectorFor(d)
	}
	return out, nil
}

func (f *fakeEmbedder) Name() string      { return "fake-embedding" }
func (f *fakeEmbedder) Dimensions() int   { return f.dims }
func (f *fakeEmbedder) MaxBatchSize() int { return 100 }

func TestRetrieverComputesSimilarityMetrics(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryVectorStore(zap.NewNop())

	// 距离分别为 0（高）、0.6（中）、0.9（低）
	require.NoError(t, store.AddDocuments(ctx, []Document{
		testDoc("high", []float64{1, 0}),
		testDoc("medium", []float64{0.4, 0.9165151389911680}),
		testDoc("low", []float64{0.1, 0.9949874371066200}),
	}))

	embedder := &fakeEmbedder{fallback: []float64{1, 0}, dims: 2}
	retriever := NewRetriever(embedder, store, DefaultRetrieverConfig(), zap.NewNop())

	result, err := retriever.Retrieve(ctx, "anything")
	require.NoError(t, err)
	require.Len(t, result.Documents, 3)

	assert.Equal(t, "high", result.Documents[0].Document.ID)
	assert.Equal(t, 1, result.Metrics.HighRelevance)
	assert.Equal(t, 1, result.Metrics.MediumRelevance)
	assert.Equal(t, 1, result.Metrics.LowRelevance)
	assert.InDelta(t, 0.0, result.Metrics.MinDistance, 1e-6)
	assert.InDelta(t, 0.9, result.Metrics.MaxDistance, 1e-6)
	assert.InDelta(t, 0.5, result.Metrics.AverageDistance, 1e-6)

	assert.True(t, retriever.Relevant(result))
}

func TestRetrieverJudgesIrrelevantResults(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryVectorStore(zap.NewNop())

	require.NoError(t, store.AddDocuments(ctx, []Document{
		testDoc("far", []float64{0, 1}),
	}))

	embedder := &fakeEmbedder{fallback: []float64{1, 0}, dims: 2}
	retriever := NewRetriever(embedder, store, DefaultRetrieverConfig(), zap.NewNop())

	result, err := retriever.Retrieve(ctx, "unrelated question")
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)

	// 余弦距离 1.0，超过 0.8 阈值
	assert.False(t, retriever.Relevant(result))
	assert.Equal(t, 1, result.Metrics.LowRelevance)
}

func TestRetrieverEmptyStore(t *testing.T) {
	store := NewInMemoryVectorStore(zap.NewNop())
	embedder := &fakeEmbedder{fallback: []float64{1, 0}, dims: 2}
	retriever := NewRetriever(embedder, store, DefaultRetrieverConfig(), zap.NewNop())

	result, err := retriever.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, result.Documents)
	assert.False(t, retriever.Relevant(result))
}

func TestRetrieverTopKLimit(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryVectorStore(zap.NewNop())

	docs := make([]Document, 10)
	for i := range docs {
		docs[i] = testDoc(string(rune('a'+i)), []float64{1, float64(i) / 10})
	}
	require.NoError(t, store.AddDocuments(ctx, docs))

	embedder := &fakeEmbedder{fallback: []float64{1, 0}, dims: 2}
	retriever := NewRetriever(embedder, store, RetrieverConfig{TopK: 3, RelevanceThreshold: 0.8}, zap.NewNop())

	result, err := retriever.Retrieve(ctx, "q")
	require.NoError(t, err)
	assert.Len(t, result.Documents, 3)
}
