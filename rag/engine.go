package rag

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/docquill/docquill/llm"
	"github.com/docquill/docquill/llm/embedding"
	"github.com/docquill/docquill/stream"
)

// InappropriateResponse 检测到不当请求时的固定回复
const InappropriateResponse = "I can't help with that request. Please ask me questions about what I contain."

// EngineConfig 问答引擎配置
type EngineConfig struct {
	Model       string  `json:"model" yaml:"model"`             // 生成模型，空则用服务商默认
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`   // 回答长度上限
	Temperature float64 `json:"temperature" yaml:"temperature"` // 采样温度
	HistorySize int     `json:"history_size" yaml:"history_size"`

	IngestBatchSize int `json:"ingest_batch_size" yaml:"ingest_batch_size"` // 每批嵌入的块数
	IngestWorkers   int `json:"ingest_workers" yaml:"ingest_workers"`       // 并发嵌入批次数

	Chunking  ChunkingConfig  `json:"chunking" yaml:"chunking"`
	Retriever RetrieverConfig `json:"retriever" yaml:"retriever"`
}

// DefaultEngineConfig 默认引擎配置
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxTokens:       1024,
		Temperature:     0.3,
		HistorySize:     5,
		IngestBatchSize: 32,
		IngestWorkers:   4,
		Chunking:        DefaultChunkingConfig(),
		Retriever:       DefaultRetrieverConfig(),
	}
}

// QueryResult 一次问答的完整结果
type QueryResult struct {
	Question   string               `json:"question"`
	Answer     string               `json:"answer"`
	Verdict    string               `json:"verdict"`    // ok / injection / inappropriate / off_topic
	Sources    []VectorSearchResult `json:"sources"`    // 引用的文档块
	Metrics    SimilarityMetrics    `json:"metrics"`    // 相似度统计
	Confidence float64              `json:"confidence"` // 0-1，基于命中文档数
	Elapsed    time.Duration        `json:"elapsed"`
}

// DocumentRAG 以文档第一人称回答问题的 RAG 引擎
type DocumentRAG struct {
	provider  llm.Provider
	embedder  embedding.Provider
	store     VectorStore
	chunker   *DocumentChunker
	retriever *Retriever
	config    EngineConfig
	logger    *zap.Logger
	tracer    trace.Tracer

	mu      sync.Mutex
	history []ChatTurn
}

// NewDocumentRAG 创建问答引擎
func NewDocumentRAG(provider llm.Provider, embedder embedding.Provider, store VectorStore, config EngineConfig, logger *zap.Logger) *DocumentRAG {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.HistorySize <= 0 {
		config.HistorySize = 5
	}
	if config.IngestBatchSize <= 0 {
		config.IngestBatchSize = 32
	}
	if config.IngestWorkers <= 0 {
		config.IngestWorkers = 4
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}

	encodingModel := config.Model
	if encodingModel == "" {
		encodingModel = "gpt-3.5-turbo"
	}
	tokenizer, err := NewTiktokenTokenizer(encodingModel)
	var tk Tokenizer
	if err != nil {
		logger.Warn("tiktoken unavailable, falling back to estimator", zap.Error(err))
		tk = NewEstimatorTokenizer()
	} else {
		tk = tokenizer
	}

	return &DocumentRAG{
		provider:  provider,
		embedder:  embedder,
		store:     store,
		chunker:   NewDocumentChunker(config.Chunking, tk, logger),
		retriever: NewRetriever(embedder, store, config.Retriever, logger),
		config:    config,
		logger:    logger.With(zap.String("component", "document_rag")),
		tracer:    otel.Tracer("docquill/rag"),
	}
}

// Ingest 把文档分块、嵌入并写入向量存储，返回生成的块数。
// 嵌入按批并发执行，任一批失败则整体失败且不写入存储。
func (e *DocumentRAG) Ingest(ctx context.Context, doc Document) (int, error) {
	ctx, span := e.tracer.Start(ctx, "rag.ingest",
		trace.WithAttributes(attribute.String("document.id", doc.ID)))
	defer span.End()

	chunks := e.chunker.ChunkDocument(doc)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("document %s produced no chunks", doc.ID)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.IngestWorkers)

	for start := 0; start < len(chunks); start += e.config.IngestBatchSize {
		end := start + e.config.IngestBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Content
			}
			vectors, err := e.embedder.EmbedDocuments(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch: %w", err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed batch: got %d vectors for %d chunks", len(vectors), len(batch))
			}
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := e.store.AddDocuments(ctx, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}

	e.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)))
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	return len(chunks), nil
}

// IngestFile 加载并摄取单个文件
func (e *DocumentRAG) IngestFile(ctx context.Context, path string) (int, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	return e.Ingest(ctx, doc)
}

// Query 同步问答。安全筛查与离题判断会在不调用模型的情况下短路。
func (e *DocumentRAG) Query(ctx context.Context, question string) (*QueryResult, error) {
	ctx, span := e.tracer.Start(ctx, "rag.query")
	defer span.End()

	started := time.Now()

	if res, done := e.preflight(question); done {
		res.Elapsed = time.Since(started)
		span.SetAttributes(attribute.String("verdict", res.Verdict))
		return res, nil
	}

	retrieval, res, err := e.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	if res != nil {
		res.Elapsed = time.Since(started)
		return res, nil
	}

	prompt := e.buildPrompt(retrieval, question)
	resp, err := e.provider.Completion(ctx, &llm.ChatRequest{
		Model: e.config.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   e.config.MaxTokens,
		Temperature: float32(e.config.Temperature),
	})
	if err != nil {
		e.logger.Error("completion failed", zap.Error(err))
		return &QueryResult{
			Question: question,
			Answer:   ErrorResponse,
			Verdict:  VerdictOK.String(),
			Sources:  retrieval.Documents,
			Metrics:  retrieval.Metrics,
			Elapsed:  time.Since(started),
		}, err
	}

	answer := resp.Text()
	e.recordTurn(question, answer)

	return &QueryResult{
		Question:   question,
		Answer:     answer,
		Verdict:    VerdictOK.String(),
		Sources:    retrieval.Documents,
		Metrics:    retrieval.Metrics,
		Confidence: confidenceScore(len(retrieval.Documents)),
		Elapsed:    time.Since(started),
	}, nil
}

// QueryStream 流式问答，返回可直接接入减震器流水线的 Source。
// 短路回答（注入、不当、离题）不产生增量片段，只有一个携带
// 最终答案元数据的完成事件。
func (e *DocumentRAG) QueryStream(ctx context.Context, question string) (stream.Source, error) {
	ctx, span := e.tracer.Start(ctx, "rag.query_stream")
	defer span.End()

	if res, done := e.preflight(question); done {
		span.SetAttributes(attribute.String("verdict", res.Verdict))
		return cannedSource(res), nil
	}

	retrieval, res, err := e.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	if res != nil {
		return cannedSource(res), nil
	}

	prompt := e.buildPrompt(retrieval, question)
	ch, err := e.provider.Stream(ctx, &llm.ChatRequest{
		Model: e.config.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:   e.config.MaxTokens,
		Temperature: float32(e.config.Temperature),
	})
	if err != nil {
		return nil, err
	}

	meta := map[string]any{
		"verdict":    VerdictOK.String(),
		"confidence": confidenceScore(len(retrieval.Documents)),
		"sources":    sourceIDs(retrieval.Documents),
	}

	return &answeredSource{
		inner: llm.ChunkSource(ch),
		meta:  meta,
		onComplete: func(full string) {
			e.recordTurn(question, full)
		},
	}, nil
}

// Summarize 让文档做一段第一人称自我介绍
func (e *DocumentRAG) Summarize(ctx context.Context) (string, error) {
	ctx, span := e.tracer.Start(ctx, "rag.summarize")
	defer span.End()

	retrieval, err := e.retriever.Retrieve(ctx, "What is this document about?")
	if err != nil {
		return "", err
	}

	resp, err := e.provider.Completion(ctx, &llm.ChatRequest{
		Model: e.config.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: BuildSummaryPrompt(retrieval)},
		},
		MaxTokens:   e.config.MaxTokens,
		Temperature: float32(e.config.Temperature),
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// History 返回当前会话历史的拷贝
func (e *DocumentRAG) History() []ChatTurn {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]ChatTurn, len(e.history))
	copy(out, e.history)
	return out
}

// ClearHistory 清空会话历史
func (e *DocumentRAG) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}

// preflight 做检索前的安全筛查，命中时返回短路结果
func (e *DocumentRAG) preflight(question string) (*QueryResult, bool) {
	verdict := CheckQuery(question)
	if verdict == VerdictOK {
		return nil, false
	}

	var answer string
	switch verdict {
	case VerdictInjection:
		answer = InjectionResponse
	case VerdictInappropriate:
		answer = InappropriateResponse
	default:
		answer = OffTopicResponse
	}

	e.logger.Warn("query rejected before retrieval",
		zap.String("verdict", verdict.String()))

	return &QueryResult{
		Question: question,
		Answer:   answer,
		Verdict:  verdict.String(),
	}, true
}

// retrieve 执行检索；检索结果不相关时返回离题短路结果
func (e *DocumentRAG) retrieve(ctx context.Context, question string) (*RetrievalResult, *QueryResult, error) {
	retrieval, err := e.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, nil, err
	}

	if !e.retriever.Relevant(retrieval) {
		e.logger.Info("query judged off-topic by retrieval",
			zap.Float64("min_distance", retrieval.Metrics.MinDistance))
		return nil, &QueryResult{
			Question: question,
			Answer:   OffTopicResponse,
			Verdict:  VerdictOffTopic.String(),
			Metrics:  retrieval.Metrics,
		}, nil
	}

	return retrieval, nil, nil
}

func (e *DocumentRAG) buildPrompt(retrieval *RetrievalResult, question string) string {
	e.mu.Lock()
	history := make([]ChatTurn, len(e.history))
	copy(history, e.history)
	e.mu.Unlock()

	return BuildQAPrompt(retrieval, history, question)
}

func (e *DocumentRAG) recordTurn(question, answer string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, ChatTurn{Question: question, Answer: answer})
	if len(e.history) > e.config.HistorySize {
		e.history = e.history[len(e.history)-e.config.HistorySize:]
	}
}

func confidenceScore(docs int) float64 {
	score := float64(docs) / 4.0
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func sourceIDs(docs []VectorSearchResult) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Document.ID)
	}
	return ids
}

// cannedSource 只发出一个携带固定答案的完成事件
func cannedSource(res *QueryResult) stream.Source {
	emitted := false
	return stream.SourceFunc(func(ctx context.Context) (stream.SourceEvent, error) {
		if emitted {
			return stream.SourceEvent{}, io.EOF
		}
		emitted = true
		return stream.SourceEvent{
			Done: true,
			Metadata: map[string]any{
				"answer":  res.Answer,
				"verdict": res.Verdict,
			},
		}, nil
	})
}

// answeredSource 包装模型流：透传增量片段，耗尽时补发携带引用与
// 置信度元数据的完成事件，并把完整答案写进会话历史。
type answeredSource struct {
	inner      stream.Source
	meta       map[string]any
	onComplete func(full string)

	full     string
	finished bool
}

func (s *answeredSource) Next(ctx context.Context) (stream.SourceEvent, error) {
	if s.finished {
		return stream.SourceEvent{}, io.EOF
	}

	ev, err := s.inner.Next(ctx)
	if err == io.EOF {
		s.finished = true
		if s.onComplete != nil {
			s.onComplete(s.full)
		}
		return stream.SourceEvent{Done: true, Metadata: s.meta}, nil
	}
	if err != nil {
		return stream.SourceEvent{}, err
	}
	if ev.Done {
		s.finished = true
		if s.onComplete != nil {
			s.onComplete(s.full)
		}
		if ev.Metadata == nil {
			ev.Metadata = s.meta
		}
		return ev, nil
	}

	s.full += ev.Text
	return ev, nil
}
