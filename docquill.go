// Package docquill provides a top-level convenience entry point for turning
// a document into a first-person conversational interface with minimal
// boilerplate.
//
// Usage:
//
//	import "github.com/docquill/docquill"
//
//	dq, err := docquill.New(docquill.WithOpenAI("gpt-4o-mini"))
//	dq, err := docquill.New(docquill.WithMistral("mistral-large-latest"))
//	dq, err := docquill.New(docquill.WithProvider(p), docquill.WithEmbedder(e))
//
//	dq.IngestFile(ctx, "report.txt")
//	res, err := dq.Ask(ctx, "What are you about?")
//
// This is a thin wrapper around the rag, llm, and stream packages; use them
// directly when you need more control.
package docquill

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/docquill/docquill/llm"
	"github.com/docquill/docquill/llm/embedding"
	"github.com/docquill/docquill/llm/providers/openaicompat"
	"github.com/docquill/docquill/rag"
	"github.com/docquill/docquill/stream"
)

// Client bundles a document QA engine with a paced output pipeline.
type Client struct {
	engine   *rag.DocumentRAG
	pipeline *stream.Pipeline
}

// Option configures the client created by [New].
type Option func(*options)

type options struct {
	model        string
	provider     llm.Provider
	embedder     embedding.Provider
	store        rag.VectorStore
	logger       *zap.Logger
	engineConfig *rag.EngineConfig
	streamConfig *stream.Config

	// Provider shortcut fields, used when provider is nil.
	providerName string
	apiKey       string
	baseURL      string
}

// WithProvider sets a pre-built chat provider.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithEmbedder sets a pre-built embedding provider. Defaults to OpenAI
// embeddings sharing the chat provider's API key.
func WithEmbedder(e embedding.Provider) Option {
	return func(o *options) { o.embedder = e }
}

// WithVectorStore sets the vector store. Defaults to an in-memory store.
func WithVectorStore(s rag.VectorStore) Option {
	return func(o *options) { o.store = s }
}

// WithOpenAI creates an OpenAI provider using the given model.
// API key is read from OPENAI_API_KEY environment variable.
func WithOpenAI(model string) Option {
	return func(o *options) {
		o.providerName = "openai"
		o.baseURL = "https://api.openai.com"
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// WithMistral creates a Mistral provider using the given model.
// API key is read from MISTRAL_API_KEY environment variable.
func WithMistral(model string) Option {
	return func(o *options) {
		o.providerName = "mistral"
		o.baseURL = "https://api.mistral.ai"
		o.model = model
		if o.apiKey == "" {
			o.apiKey = os.Getenv("MISTRAL_API_KEY")
		}
	}
}

// WithOllama creates a provider talking to a local Ollama server.
func WithOllama(model string) Option {
	return func(o *options) {
		o.providerName = "ollama"
		o.baseURL = "http://localhost:11434"
		o.model = model
	}
}

// WithAPIKey overrides the API key for provider shortcuts.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithLogger sets a custom zap logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithEngineConfig overrides the QA engine configuration.
func WithEngineConfig(cfg rag.EngineConfig) Option {
	return func(o *options) { o.engineConfig = &cfg }
}

// WithStreamConfig overrides the output pacing configuration.
func WithStreamConfig(cfg stream.Config) Option {
	return func(o *options) { o.streamConfig = &cfg }
}

// New creates a Client with minimal configuration. At minimum a chat
// provider must be specified via [WithOpenAI], [WithMistral], [WithOllama],
// or [WithProvider].
func New(opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := o.provider
	if provider == nil {
		if o.providerName == "" {
			return nil, fmt.Errorf("a chat provider is required: use WithOpenAI, WithMistral, WithOllama, or WithProvider")
		}
		provider = openaicompat.New(openaicompat.Config{
			ProviderName: o.providerName,
			APIKey:       o.apiKey,
			BaseURL:      o.baseURL,
			DefaultModel: o.model,
		}, logger)
	}

	embedder := o.embedder
	if embedder == nil {
		embedder = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey: o.apiKey,
		})
	}

	store := o.store
	if store == nil {
		store = rag.NewInMemoryVectorStore(logger)
	}

	engineCfg := rag.DefaultEngineConfig()
	if o.engineConfig != nil {
		engineCfg = *o.engineConfig
	}
	if engineCfg.Model == "" {
		engineCfg.Model = o.model
	}

	streamCfg := stream.DefaultConfig()
	if o.streamConfig != nil {
		streamCfg = *o.streamConfig
	}

	return &Client{
		engine:   rag.NewDocumentRAG(provider, embedder, store, engineCfg, logger),
		pipeline: stream.NewPipeline(streamCfg, logger, nil),
	}, nil
}

// Engine exposes the underlying QA engine.
func (c *Client) Engine() *rag.DocumentRAG { return c.engine }

// Ingest chunks, embeds, and stores a document. Returns the chunk count.
func (c *Client) Ingest(ctx context.Context, doc rag.Document) (int, error) {
	return c.engine.Ingest(ctx, doc)
}

// IngestFile loads and ingests a single file (txt, md, or json).
func (c *Client) IngestFile(ctx context.Context, path string) (int, error) {
	return c.engine.IngestFile(ctx, path)
}

// Ask answers a question synchronously.
func (c *Client) Ask(ctx context.Context, question string) (*rag.QueryResult, error) {
	return c.engine.Query(ctx, question)
}

// AskStream answers a question and paces the answer through sink.
// The returned result carries the full text and completion metadata.
func (c *Client) AskStream(ctx context.Context, question string, sink stream.Sink) (*stream.Result, error) {
	src, err := c.engine.QueryStream(ctx, question)
	if err != nil {
		return nil, err
	}
	return c.pipeline.Run(ctx, src, sink)
}

// Summary lets the document introduce itself in first person.
func (c *Client) Summary(ctx context.Context) (string, error) {
	return c.engine.Summarize(ctx)
}
