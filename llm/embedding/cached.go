package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docquill/docquill/internal/cache"
)

// CachedProvider wraps another Provider and memoizes vectors in Redis,
// keyed by a content hash. Re-ingesting the same document costs no
// upstream calls.
type CachedProvider struct {
	inner  Provider
	cache  *cache.Manager
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps inner with a Redis-backed vector cache.
// A zero ttl uses the cache manager's default.
func NewCachedProvider(inner Provider, mgr *cache.Manager, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{inner: inner, cache: mgr, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Name() string      { return p.inner.Name() }
func (p *CachedProvider) Dimensions() int   { return p.inner.Dimensions() }
func (p *CachedProvider) MaxBatchSize() int { return p.inner.MaxBatchSize() }

func (p *CachedProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%s", p.inner.Name(), hex.EncodeToString(sum[:]))
}

// Embed serves cached vectors where possible and embeds only the
// misses through the inner provider. Response order matches the input.
func (p *CachedProvider) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	vectors := make([][]float64, len(req.Input))
	var missTexts []string
	var missIdx []int

	for i, text := range req.Input {
		var vec []float64
		err := p.cache.GetJSON(ctx, p.cacheKey(text), &vec)
		if err == nil {
			vectors[i] = vec
			continue
		}
		if !cache.IsCacheMiss(err) {
			// Treat cache trouble as a miss; the upstream call still works.
			p.logger.Warn("embedding cache read failed", zap.Error(err))
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	var usage EmbeddingUsage
	if len(missTexts) > 0 {
		resp, err := p.inner.Embed(ctx, &EmbeddingRequest{
			Input:      missTexts,
			Model:      req.Model,
			Dimensions: req.Dimensions,
			InputType:  req.InputType,
		})
		if err != nil {
			return nil, err
		}
		usage = resp.Usage
		if len(resp.Embeddings) != len(missTexts) {
			return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(missTexts), len(resp.Embeddings))
		}
		for j, emb := range resp.Embeddings {
			i := missIdx[j]
			vectors[i] = emb.Embedding
			if err := p.cache.SetJSON(ctx, p.cacheKey(req.Input[i]), emb.Embedding, p.ttl); err != nil {
				p.logger.Warn("embedding cache write failed", zap.Error(err))
			}
		}
	}

	embeddings := make([]EmbeddingData, len(vectors))
	for i, vec := range vectors {
		embeddings[i] = EmbeddingData{Index: i, Embedding: vec}
	}
	return &EmbeddingResponse{
		Provider:   p.Name(),
		Model:      req.Model,
		Embeddings: embeddings,
		Usage:      usage,
		CreatedAt:  time.Now(),
	}, nil
}

// EmbedQuery embeds a single query.
func (p *CachedProvider) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	resp, err := p.Embed(ctx, &EmbeddingRequest{Input: []string{query}, InputType: InputTypeQuery})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Embeddings[0].Embedding, nil
}

// EmbedDocuments embeds multiple documents.
func (p *CachedProvider) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	resp, err := p.Embed(ctx, &EmbeddingRequest{Input: documents, InputType: InputTypeDocument})
	if err != nil {
		return nil, err
	}
	result := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		result[i] = emb.Embedding
	}
	return result, nil
}
