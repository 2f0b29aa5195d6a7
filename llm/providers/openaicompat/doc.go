// Package openaicompat implements the llm.Provider interface for any
// service speaking the OpenAI Chat Completions API.
//
// OpenAI, Mistral, and a local Ollama all share the same wire format.
// Instead of one adapter per vendor, a single Provider is configured
// with a base URL, an API key, and a default model:
//
//	p := openaicompat.New(openaicompat.Config{
//	    ProviderName: "mistral",
//	    APIKey:       cfg.APIKey,
//	    BaseURL:      "https://api.mistral.ai",
//	    DefaultModel: "mistral-small-latest",
//	}, logger)
//
// Streaming uses SSE; each data event is decoded into an llm.StreamChunk
// and the channel closes on the [DONE] marker. Requests go through an
// optional client-side rate limiter so a chatty caller cannot trip the
// vendor's quota.
package openaicompat
