package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docquill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")).
		Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "memory", cfg.VectorStore.Backend)
	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, "character", cfg.Stream.Unit)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
llm:
  provider: mistral
  model: mistral-large-latest
  timeout: 90s
rag:
  top_k: 6
  chunk_size: 400
stream:
  unit: word
  unit_delay: 50ms
vector_store:
  backend: qdrant
  qdrant:
    host: qdrant.internal
    collection: manuals
`)

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.LLM.Provider)
	assert.Equal(t, "mistral-large-latest", cfg.LLM.Model)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 6, cfg.RAG.TopK)
	assert.Equal(t, 400, cfg.RAG.ChunkSize)
	assert.Equal(t, "word", cfg.Stream.Unit)
	assert.Equal(t, 50*time.Millisecond, cfg.Stream.UnitDelay)
	assert.Equal(t, "qdrant.internal", cfg.VectorStore.Qdrant.Host)

	// 未覆盖的字段保持默认值
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
llm:
  provider: openai
  api_key: from-file
`)

	t.Setenv("DOCQUILL_LLM_API_KEY", "from-env")
	t.Setenv("DOCQUILL_RAG_TOP_K", "8")
	t.Setenv("DOCQUILL_STREAM_UNIT_DELAY", "5ms")
	t.Setenv("DOCQUILL_EMBEDDING_CACHE_ENABLED", "true")
	t.Setenv("DOCQUILL_LOG_OUTPUT_PATHS", "stdout, /var/log/docquill.log")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.APIKey)
	assert.Equal(t, 8, cfg.RAG.TopK)
	assert.Equal(t, 5*time.Millisecond, cfg.Stream.UnitDelay)
	assert.True(t, cfg.Embedding.CacheEnabled)
	assert.Equal(t, []string{"stdout", "/var/log/docquill.log"}, cfg.Log.OutputPaths)
}

func TestCustomEnvPrefix(t *testing.T) {
	t.Setenv("DQ_LLM_MODEL", "llama3")

	cfg, err := NewLoader().WithEnvPrefix("DQ").Load()
	require.NoError(t, err)
	assert.Equal(t, "llama3", cfg.LLM.Model)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "llm: [broken")

	_, err := NewLoader().WithConfigPath(path).Load()
	require.Error(t, err)
}

func TestLoaderValidators(t *testing.T) {
	called := false
	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			called = true
			return nil
		}).
		Load()
	require.NoError(t, err)
	assert.True(t, called)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.RAG.Temperature = 3.0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Stream.Unit = "sentence"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream unit")

	cfg = DefaultConfig()
	cfg.RAG.ChunkOverlap = cfg.RAG.ChunkSize
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.VectorStore.Backend = "qdrant"
	cfg.VectorStore.Qdrant.Collection = ""
	require.Error(t, cfg.Validate())
}
