package embedding

import (
	"context"
	"encoding/json"
	"time"
)

// MistralConfig configures the Mistral embedding provider.
type MistralConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// MistralProvider implements embedding using Mistral's API.
// The wire format matches OpenAI's embeddings endpoint.
type MistralProvider struct {
	*BaseProvider
	cfg MistralConfig
}

// NewMistralProvider creates a new Mistral embedding provider.
func NewMistralProvider(cfg MistralConfig) *MistralProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-embed"
	}

	return &MistralProvider{
		BaseProvider: NewBaseProvider(BaseConfig{
			Name:       "mistral-embedding",
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: 1024,
			MaxBatch:   512,
			Timeout:    cfg.Timeout,
		}),
		cfg: cfg,
	}
}

type mistralEmbedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// Embed generates embeddings for the given inputs.
func (p *MistralProvider) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	body := mistralEmbedRequest{
		Input: req.Input,
		Model: ChooseModel(req.Model, p.cfg.Model, "mistral-embed"),
	}

	respBody, err := p.DoRequest(ctx, "POST", "/v1/embeddings", body, map[string]string{
		"Authorization": "Bearer " + p.cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}

	var mResp openAIEmbedResponse
	if err := json.Unmarshal(respBody, &mResp); err != nil {
		return nil, err
	}

	embeddings := make([]EmbeddingData, len(mResp.Data))
	for i, d := range mResp.Data {
		embeddings[i] = EmbeddingData{
			Index:     d.Index,
			Embedding: d.Embedding,
		}
	}

	return &EmbeddingResponse{
		Provider:   p.Name(),
		Model:      mResp.Model,
		Embeddings: embeddings,
		Usage: EmbeddingUsage{
			PromptTokens: mResp.Usage.PromptTokens,
			TotalTokens:  mResp.Usage.TotalTokens,
		},
		CreatedAt: time.Now(),
	}, nil
}

// EmbedQuery embeds a single query.
func (p *MistralProvider) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	return p.BaseProvider.EmbedQuery(ctx, query, p.Embed)
}

// EmbedDocuments embeds multiple documents.
func (p *MistralProvider) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	return p.BaseProvider.EmbedDocuments(ctx, documents, p.Embed)
}
