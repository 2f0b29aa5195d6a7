package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestDefaultRAGConfig(t *testing.T) {
	cfg := DefaultRAGConfig()
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.TopK)
	assert.InDelta(t, 0.8, cfg.RelevanceThreshold, 1e-9)
}

func TestDefaultStreamConfig(t *testing.T) {
	cfg := DefaultStreamConfig()
	assert.Equal(t, "character", cfg.Unit)
	assert.Equal(t, 20*time.Millisecond, cfg.UnitDelay)
	assert.Equal(t, 100, cfg.QueueCapacity)
	assert.Equal(t, 300*time.Second, cfg.OverallDeadline)
}

func TestDefaultVectorStoreConfig(t *testing.T) {
	cfg := DefaultVectorStoreConfig()
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, 6333, cfg.Qdrant.Port)
	assert.True(t, cfg.Qdrant.AutoCreateCollection)
}
