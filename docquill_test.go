package docquill_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquill/docquill"
	"github.com/docquill/docquill/llm"
	"github.com/docquill/docquill/llm/embedding"
	"github.com/docquill/docquill/stream"
)

type stubProvider struct {
	answer string
}

func (s *stubProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{
		Choices: []llm.ChatChoice{
			{Message: llm.Message{Role: llm.RoleAssistant, Content: s.answer}},
		},
	}, nil
}

func (s *stubProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk, 1)
	ch <- llm.StreamChunk{Delta: llm.Message{Role: llm.RoleAssistant, Content: s.answer}}
	close(ch)
	return ch, nil
}

func (s *stubProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}

func (s *stubProvider) Name() string { return "stub" }

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, req *embedding.EmbeddingRequest) (*embedding.EmbeddingResponse, error) {
	data := make([]embedding.EmbeddingData, len(req.Input))
	for i := range req.Input {
		data[i] = embedding.EmbeddingData{Index: i, Embedding: []float64{1, 0}}
	}
	return &embedding.EmbeddingResponse{Embeddings: data}, nil
}

func (stubEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func (stubEmbedder) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	out := make([][]float64, len(documents))
	for i := range documents {
		out[i] = []float64{1, 0}
	}
	return out, nil
}

func (stubEmbedder) Name() string      { return "stub-embedding" }
func (stubEmbedder) Dimensions() int   { return 2 }
func (stubEmbedder) MaxBatchSize() int { return 100 }

func TestNewRequiresProvider(t *testing.T) {
	_, err := docquill.New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat provider is required")
}

func TestClientAskAndStream(t *testing.T) {
	dq, err := docquill.New(
		docquill.WithProvider(&stubProvider{answer: "I am a short test document."}),
		docquill.WithEmbedder(stubEmbedder{}),
		docquill.WithStreamConfig(stream.Config{
			Unit:            stream.UnitInstant,
			OverallDeadline: 5 * time.Second,
		}),
	)
	require.NoError(t, err)

	ctx := context.Background()

	chunks, err := dq.IngestFile(ctx, writeDoc(t))
	require.NoError(t, err)
	assert.Greater(t, chunks, 0)

	res, err := dq.Ask(ctx, "What are you about?")
	require.NoError(t, err)
	assert.Equal(t, "I am a short test document.", res.Answer)
	assert.Equal(t, "ok", res.Verdict)

	var updates int
	streamRes, err := dq.AskStream(ctx, "Tell me more about the topic", func(string) error {
		updates++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "I am a short test document.", streamRes.FullText)
	assert.Greater(t, updates, 0)
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	content := strings.Repeat("This document describes the paced streaming pipeline in detail. ", 5)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
