package rag

// Document 文档（或文档块）及其向量表示
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float64              `json:"embedding,omitempty"`
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`    // 余弦相似度，越大越相关
	Distance float64  `json:"distance"` // 1 - Score，越小越相关
}

// Tokenizer 分词器接口
type Tokenizer interface {
	CountTokens(text string) int
	Encode(text string) []int
}
