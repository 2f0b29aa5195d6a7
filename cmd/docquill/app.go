package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/docquill/docquill/config"
	"github.com/docquill/docquill/internal/cache"
	"github.com/docquill/docquill/internal/metrics"
	"github.com/docquill/docquill/internal/telemetry"
	"github.com/docquill/docquill/llm"
	"github.com/docquill/docquill/llm/embedding"
	"github.com/docquill/docquill/llm/providers/openaicompat"
	"github.com/docquill/docquill/rag"
	"github.com/docquill/docquill/stream"
)

// app 把配置、provider、RAG 引擎和输出流水线装配到一起
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	engine    *rag.DocumentRAG
	collector *metrics.Collector
	otel      *telemetry.Providers
	cacheMgr  *cache.Manager
	watcher   *config.Watcher

	mu       sync.Mutex
	pipeline *stream.Pipeline
}

func (a *app) currentPipeline() *stream.Pipeline {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pipeline
}

func (a *app) setPipeline(p *stream.Pipeline) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pipeline = p
}

func newApp(cfg *config.Config, configPath string) (*app, error) {
	logger := initLogger(cfg.Log)

	logger.Info("starting DocQuill",
		zap.String("version", Version),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("vector_store", cfg.VectorStore.Backend))

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	provider, err := buildLLMProvider(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	var cacheMgr *cache.Manager
	embedder, err := buildEmbedder(cfg, logger, &cacheMgr)
	if err != nil {
		return nil, err
	}

	store, err := rag.NewVectorStore(rag.VectorStoreConfig{
		Backend: cfg.VectorStore.Backend,
		Qdrant: rag.QdrantConfig{
			Host:                 cfg.VectorStore.Qdrant.Host,
			Port:                 cfg.VectorStore.Qdrant.Port,
			APIKey:               cfg.VectorStore.Qdrant.APIKey,
			Collection:           cfg.VectorStore.Qdrant.Collection,
			AutoCreateCollection: cfg.VectorStore.Qdrant.AutoCreateCollection,
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	engineCfg := rag.DefaultEngineConfig()
	engineCfg.Model = cfg.LLM.Model
	engineCfg.MaxTokens = cfg.RAG.MaxTokens
	engineCfg.Temperature = cfg.RAG.Temperature
	engineCfg.HistorySize = cfg.RAG.HistorySize
	engineCfg.Chunking.ChunkSize = cfg.RAG.ChunkSize
	engineCfg.Chunking.ChunkOverlap = cfg.RAG.ChunkOverlap
	engineCfg.Retriever.TopK = cfg.RAG.TopK
	engineCfg.Retriever.RelevanceThreshold = cfg.RAG.RelevanceThreshold

	engine := rag.NewDocumentRAG(provider, embedder, store, engineCfg, logger)

	collector := metrics.NewCollector("docquill", logger)
	streamMetrics := stream.NewMetrics("docquill", prometheus.DefaultRegisterer)

	a := &app{
		cfg:       cfg,
		logger:    logger,
		engine:    engine,
		pipeline:  stream.NewPipeline(streamConfig(cfg.Stream), logger, streamMetrics),
		collector: collector,
		otel:      otelProviders,
		cacheMgr:  cacheMgr,
	}

	// 配置热重载只影响输出节奏，provider 等重建需要重启
	if configPath != "" {
		watcher, werr := config.NewWatcher(config.NewLoader(), configPath, 5*time.Second, logger)
		if werr == nil {
			watcher.OnReload(func(_, newCfg *config.Config) {
				a.setPipeline(stream.NewPipeline(streamConfig(newCfg.Stream), logger, streamMetrics))
			})
			watcher.Start()
			a.watcher = watcher
		}
	}

	return a, nil
}

func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.cacheMgr != nil {
		a.cacheMgr.Close()
	}
	if a.otel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.otel.Shutdown(ctx)
	}
	a.logger.Sync()
}

// buildLLMProvider 按配置创建 OpenAI 兼容的聊天 Provider
func buildLLMProvider(cfg config.LLMConfig, logger *zap.Logger) (llm.Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		switch strings.ToLower(cfg.Provider) {
		case "openai":
			baseURL = "https://api.openai.com"
		case "mistral":
			baseURL = "https://api.mistral.ai"
		case "ollama":
			baseURL = "http://localhost:11434"
		default:
			return nil, fmt.Errorf("unknown llm provider %q (supported: openai, mistral, ollama)", cfg.Provider)
		}
	}

	return openaicompat.New(openaicompat.Config{
		ProviderName:      cfg.Provider,
		APIKey:            cfg.APIKey,
		BaseURL:           baseURL,
		DefaultModel:      cfg.Model,
		Timeout:           cfg.Timeout,
		RequestsPerMinute: float64(cfg.RequestsPerMinute),
	}, logger), nil
}

// buildEmbedder 按配置创建嵌入 Provider，可选 Redis 缓存包装
func buildEmbedder(cfg *config.Config, logger *zap.Logger, cacheMgr **cache.Manager) (embedding.Provider, error) {
	apiKey := cfg.Embedding.APIKey
	if apiKey == "" {
		apiKey = cfg.LLM.APIKey
	}

	var inner embedding.Provider
	switch strings.ToLower(cfg.Embedding.Provider) {
	case "", "openai":
		inner = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:     apiKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "mistral":
		inner = embedding.NewMistralProvider(embedding.MistralConfig{
			APIKey:  apiKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (supported: openai, mistral)", cfg.Embedding.Provider)
	}

	if !cfg.Embedding.CacheEnabled {
		return inner, nil
	}

	mgr, err := cache.NewManager(cache.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DefaultTTL:   cfg.Embedding.CacheTTL,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, logger)
	if err != nil {
		// 缓存不可用时继续跑，只是不缓存
		logger.Warn("embedding cache unavailable", zap.Error(err))
		return inner, nil
	}
	*cacheMgr = mgr

	return embedding.NewCachedProvider(inner, mgr, cfg.Embedding.CacheTTL, logger), nil
}

// streamConfig 把配置映射到流水线配置
func streamConfig(cfg config.StreamConfig) stream.Config {
	return stream.Config{
		Unit:                stream.Unit(cfg.Unit),
		UnitDelay:           cfg.UnitDelay,
		QueueCapacity:       cfg.QueueCapacity,
		EnqueueTimeout:      cfg.EnqueueTimeout,
		DequeuePollInterval: cfg.DequeuePollInterval,
		OverallDeadline:     cfg.OverallDeadline,
	}
}

// ingest 加载并摄取命令行指定的所有文档
func (a *app) ingest(ctx context.Context, paths []string) error {
	for _, path := range paths {
		chunks, err := a.engine.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		a.collector.RecordIngest(chunks)
		fmt.Printf("Loaded %s (%d chunks)\n", path, chunks)
	}
	return nil
}

// answer 流式回答一个问题并按配置的节奏写到终端
func (a *app) answer(ctx context.Context, question string) error {
	src, err := a.engine.QueryStream(ctx, question)
	if err != nil {
		return err
	}

	sink := newTerminalSink(os.Stdout)
	res, err := a.currentPipeline().Run(ctx, src, sink.update)

	if res != nil {
		if verdict, ok := res.Metadata["verdict"].(string); ok {
			a.collector.RecordQuery(verdict)
		}
		// 短路回答没有流式片段，答案在元数据里
		if res.FullText == "" {
			if canned, ok := res.Metadata["answer"].(string); ok {
				fmt.Print(canned)
			}
		}
	}
	fmt.Println()

	if err != nil {
		// 部分输出已经展示过了，提示用户发生了什么
		fmt.Printf("[%v]\n", err)
	}
	return nil
}

// RunChat 进入交互式问答循环
func (a *app) RunChat(paths []string) error {
	ctx := context.Background()

	if err := a.ingest(ctx, paths); err != nil {
		return err
	}

	fmt.Println(`Ask me anything about the loaded documents. Commands: /summary /history /clear /quit`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/clear":
			a.engine.ClearHistory()
			fmt.Println("Conversation history cleared.")
			continue
		case "/history":
			for _, turn := range a.engine.History() {
				fmt.Printf("Q: %s\nA: %s\n", turn.Question, turn.Answer)
			}
			continue
		case "/summary":
			summary, err := a.engine.Summarize(ctx)
			if err != nil {
				fmt.Printf("[%v]\n", err)
				continue
			}
			fmt.Println(summary)
			continue
		}

		if err := a.answer(ctx, line); err != nil {
			fmt.Printf("[%v]\n", err)
		}
	}
	return scanner.Err()
}

// RunAsk 加载文档并回答单个问题
func (a *app) RunAsk(path, question string) error {
	ctx := context.Background()
	if err := a.ingest(ctx, []string{path}); err != nil {
		return err
	}
	return a.answer(ctx, question)
}

// RunSummary 加载文档并输出第一人称自我介绍
func (a *app) RunSummary(path string) error {
	ctx := context.Background()
	if err := a.ingest(ctx, []string{path}); err != nil {
		return err
	}
	summary, err := a.engine.Summarize(ctx)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

// terminalSink 把流水线的全量快照转成增量写出，模拟打字机效果
type terminalSink struct {
	out     *os.File
	written int
}

func newTerminalSink(out *os.File) *terminalSink {
	return &terminalSink{out: out}
}

func (s *terminalSink) update(displayed string) error {
	if len(displayed) <= s.written {
		return nil
	}
	if _, err := s.out.WriteString(displayed[s.written:]); err != nil {
		return err
	}
	s.written = len(displayed)
	return nil
}
