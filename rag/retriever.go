package rag

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/docquill/docquill/llm/embedding"
)

// RetrieverConfig 检索器配置
type RetrieverConfig struct {
	TopK               int     `json:"top_k" yaml:"top_k"`                             // 返回文档数
	RelevanceThreshold float64 `json:"relevance_threshold" yaml:"relevance_threshold"` // 余弦距离阈值，超出视为不相关
}

// DefaultRetrieverConfig 默认检索配置
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:               4,
		RelevanceThreshold: 0.8,
	}
}

// SimilarityMetrics 单次检索的相似度统计。距离为余弦距离（越小越相似）：
// <0.5 高相关，0.5-0.8 中等相关，>=0.8 低相关。
type SimilarityMetrics struct {
	MinDistance     float64 `json:"min_distance"`
	MaxDistance     float64 `json:"max_distance"`
	AverageDistance float64 `json:"average_distance"`
	HighRelevance   int     `json:"high_relevance"`
	MediumRelevance int     `json:"medium_relevance"`
	LowRelevance    int     `json:"low_relevance"`
}

// Relevant reports whether the best match falls under the distance threshold.
func (m SimilarityMetrics) Relevant(threshold float64) bool {
	return m.MinDistance < threshold
}

// RetrievalResult 检索结果及其统计
type RetrievalResult struct {
	Documents []VectorSearchResult `json:"documents"`
	Metrics   SimilarityMetrics    `json:"metrics"`
}

// Retriever 把查询嵌入并在向量存储中检索相似文档块
type Retriever struct {
	embedder embedding.Provider
	store    VectorStore
	config   RetrieverConfig
	logger   *zap.Logger
}

// NewRetriever 创建检索器
func NewRetriever(embedder embedding.Provider, store VectorStore, config RetrieverConfig, logger *zap.Logger) *Retriever {
	if config.TopK <= 0 {
		config.TopK = 4
	}
	if config.RelevanceThreshold <= 0 {
		config.RelevanceThreshold = 0.8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		config:   config,
		logger:   logger,
	}
}

// Retrieve 检索与查询最相关的文档块
func (r *Retriever) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, queryEmbedding, r.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	metrics := computeSimilarityMetrics(results)

	r.logger.Debug("retrieval completed",
		zap.Int("documents", len(results)),
		zap.Float64("min_distance", metrics.MinDistance),
		zap.Float64("avg_distance", metrics.AverageDistance))

	return &RetrievalResult{
		Documents: results,
		Metrics:   metrics,
	}, nil
}

// Relevant reports whether the retrieval produced at least one document
// under the configured distance threshold.
func (r *Retriever) Relevant(result *RetrievalResult) bool {
	if result == nil || len(result.Documents) == 0 {
		return false
	}
	return result.Metrics.Relevant(r.config.RelevanceThreshold)
}

func computeSimilarityMetrics(results []VectorSearchResult) SimilarityMetrics {
	if len(results) == 0 {
		return SimilarityMetrics{MinDistance: math.Inf(1), MaxDistance: math.Inf(1), AverageDistance: math.Inf(1)}
	}

	m := SimilarityMetrics{
		MinDistance: math.Inf(1),
		MaxDistance: math.Inf(-1),
	}

	var sum float64
	for _, res := range results {
		d := res.Distance
		sum += d
		if d < m.MinDistance {
			m.MinDistance = d
		}
		if d > m.MaxDistance {
			m.MaxDistance = d
		}
		switch {
		case d < 0.5:
			m.HighRelevance++
		case d < 0.8:
			m.MediumRelevance++
		default:
			m.LowRelevance++
		}
	}
	m.AverageDistance = sum / float64(len(results))
	return m
}
