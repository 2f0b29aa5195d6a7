package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		LLM:         DefaultLLMConfig(),
		Embedding:   DefaultEmbeddingConfig(),
		Redis:       DefaultRedisConfig(),
		VectorStore: DefaultVectorStoreConfig(),
		RAG:         DefaultRAGConfig(),
		Stream:      DefaultStreamConfig(),
		Log:         DefaultLogConfig(),
		Telemetry:   DefaultTelemetryConfig(),
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		Timeout:           2 * time.Minute,
		RequestsPerMinute: 0,
	}
}

// DefaultEmbeddingConfig 返回默认嵌入配置
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider:     "openai",
		Model:        "text-embedding-3-small",
		CacheEnabled: false,
		CacheTTL:     24 * time.Hour,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultVectorStoreConfig 返回默认向量存储配置
func DefaultVectorStoreConfig() VectorStoreConfig {
	return VectorStoreConfig{
		Backend: "memory",
		Qdrant: QdrantConfig{
			Host:                 "localhost",
			Port:                 6333,
			Collection:           "docquill_chunks",
			AutoCreateCollection: true,
		},
	}
}

// DefaultRAGConfig 返回默认问答引擎配置
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		MaxTokens:          1024,
		Temperature:        0.3,
		HistorySize:        5,
		TopK:               4,
		RelevanceThreshold: 0.8,
		ChunkSize:          800,
		ChunkOverlap:       100,
	}
}

// DefaultStreamConfig 返回默认输出节流配置
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Unit:                "character",
		UnitDelay:           20 * time.Millisecond,
		QueueCapacity:       100,
		EnqueueTimeout:      time.Second,
		DequeuePollInterval: 500 * time.Millisecond,
		OverallDeadline:     300 * time.Second,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     false,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "docquill",
		SampleRate:   0.1,
	}
}
