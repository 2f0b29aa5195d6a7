package rag

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ChunkingStrategy 分块策略
type ChunkingStrategy string

const (
	ChunkingFixed     ChunkingStrategy = "fixed"     // 固定大小
	ChunkingRecursive ChunkingStrategy = "recursive" // 递归分块
)

// ChunkingConfig 分块配置
type ChunkingConfig struct {
	Strategy     ChunkingStrategy `json:"strategy"`       // 分块策略
	ChunkSize    int              `json:"chunk_size"`     // 块大小（tokens）
	ChunkOverlap int              `json:"chunk_overlap"`  // 重叠大小（tokens）
	MinChunkSize int              `json:"min_chunk_size"` // 最小块大小
}

// DefaultChunkingConfig 默认分块配置
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		Strategy:     ChunkingRecursive,
		ChunkSize:    800,
		ChunkOverlap: 100,
		MinChunkSize: 10,
	}
}

// Chunk 文档块
type Chunk struct {
	Content    string                 `json:"content"`
	Index      int                    `json:"index"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	TokenCount int                    `json:"token_count"`
}

// DocumentChunker 文档分块器
type DocumentChunker struct {
	config    ChunkingConfig
	tokenizer Tokenizer
	logger    *zap.Logger
}

// NewDocumentChunker 创建文档分块器。tokenizer 为 nil 时使用估算分词器。
func NewDocumentChunker(config ChunkingConfig, tokenizer Tokenizer, logger *zap.Logger) *DocumentChunker {
	if tokenizer == nil {
		tokenizer = NewEstimatorTokenizer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = 800
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	return &DocumentChunker{
		config:    config,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// ChunkText 分块纯文本，返回按出现顺序编号的块。
func (c *DocumentChunker) ChunkText(text string) []Chunk {
	var chunks []Chunk
	switch c.config.Strategy {
	case ChunkingFixed:
		chunks = c.fixedSizeChunking(text)
	default:
		chunks = c.recursiveChunking(text)
	}
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

// ChunkDocument 分块文档并继承其元数据，生成带序号的块 ID。
func (c *DocumentChunker) ChunkDocument(doc Document) []Document {
	chunks := c.ChunkText(doc.Content)
	out := make([]Document, 0, len(chunks))
	for _, ch := range chunks {
		meta := map[string]interface{}{
			"chunk_index": ch.Index,
			"token_count": ch.TokenCount,
		}
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		out = append(out, Document{
			ID:       fmt.Sprintf("%s#%d", doc.ID, ch.Index),
			Content:  ch.Content,
			Metadata: meta,
		})
	}
	return out
}

// recursiveChunking 递归分块，在段落/句子边界分割，保持语义完整性
func (c *DocumentChunker) recursiveChunking(text string) []Chunk {
	// 分隔符优先级：段落 > 行 > 句子 > 单词
	separators := []string{"\n\n", "\n", ". ", "。", " "}

	chunks := c.recursiveSplit(text, separators)

	if c.config.ChunkOverlap > 0 {
		chunks = c.addOverlap(chunks)
	}

	c.logger.Debug("recursive chunking completed",
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", c.config.ChunkSize),
		zap.Int("overlap", c.config.ChunkOverlap))

	return chunks
}

// recursiveSplit 递归分割：当前分隔符切不动时下钻到更细的分隔符
func (c *DocumentChunker) recursiveSplit(text string, separators []string) []Chunk {
	if len(separators) == 0 {
		return c.splitByCharacters(text)
	}

	separator := separators[0]
	parts := strings.Split(text, separator)

	var chunks []Chunk
	current := ""

	flush := func() {
		trimmed := strings.TrimSpace(current)
		if trimmed != "" && c.tokenizer.CountTokens(trimmed) >= c.config.MinChunkSize {
			chunks = append(chunks, Chunk{
				Content:    trimmed,
				TokenCount: c.tokenizer.CountTokens(trimmed),
			})
		}
		current = ""
	}

	for i, part := range parts {
		// 恢复分隔符（除了最后一个）
		if i < len(parts)-1 {
			part += separator
		}

		if c.tokenizer.CountTokens(part) > c.config.ChunkSize {
			// 单个片段超限：先冲出累积内容，再用下一级分隔符处理
			flush()
			chunks = append(chunks, c.recursiveSplit(part, separators[1:])...)
			continue
		}

		if c.tokenizer.CountTokens(current+part) > c.config.ChunkSize {
			flush()
		}
		current += part
	}
	flush()

	return chunks
}

// splitByCharacters 按字符分割（最后手段），每 token 约 4 字符估算
func (c *DocumentChunker) splitByCharacters(text string) []Chunk {
	var chunks []Chunk
	runes := []rune(text)
	charsPerChunk := c.config.ChunkSize * 4

	for i := 0; i < len(runes); i += charsPerChunk {
		end := i + charsPerChunk
		if end > len(runes) {
			end = len(runes)
		}
		content := strings.TrimSpace(string(runes[i:end]))
		if content == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Content:    content,
			TokenCount: c.tokenizer.CountTokens(content),
		})
	}
	return chunks
}

// addOverlap 把前一块的尾部拼接到当前块头部
func (c *DocumentChunker) addOverlap(chunks []Chunk) []Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	overlapChars := c.config.ChunkOverlap * 4

	out := make([]Chunk, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		start := len(prev) - overlapChars
		if start < 0 {
			start = 0
		}
		content := string(prev[start:]) + " " + chunks[i].Content
		out[i] = Chunk{
			Content:    content,
			TokenCount: c.tokenizer.CountTokens(content),
		}
	}
	return out
}

// fixedSizeChunking 固定大小分块，不关心语义边界
func (c *DocumentChunker) fixedSizeChunking(text string) []Chunk {
	chunks := c.splitByCharacters(text)
	if c.config.ChunkOverlap > 0 {
		chunks = c.addOverlap(chunks)
	}
	return chunks
}
