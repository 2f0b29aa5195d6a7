package rag

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// VectorStoreConfig 向量存储选择配置
type VectorStoreConfig struct {
	Backend string       `json:"backend" yaml:"backend"` // memory（默认）或 qdrant
	Qdrant  QdrantConfig `json:"qdrant" yaml:"qdrant"`
}

// NewVectorStore 按配置创建向量存储
func NewVectorStore(cfg VectorStoreConfig, logger *zap.Logger) (VectorStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewInMemoryVectorStore(logger), nil
	case "qdrant":
		if strings.TrimSpace(cfg.Qdrant.Collection) == "" {
			return nil, fmt.Errorf("qdrant backend requires a collection name")
		}
		return NewQdrantStore(cfg.Qdrant, logger), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", cfg.Backend)
	}
}
