// Package llm provides a provider-agnostic function-calling interface to hosted
// completion services. The request/response model mirrors the Gemini
// generateContent wire format (ordered role-tagged contents made of parts);
// the Anthropic and OpenAI clients translate to and from it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleveque/stock-assistant/internal/config"
)

// ErrMissingCredential is returned by New when the selected provider has no API key.
var ErrMissingCredential = errors.New("llm API key is missing")

// Client is the interface every completion backend implements.
//
// Go interface design tip: keep interfaces small. The orchestrator only needs
// one call plus two names for its messages and the call ledger.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
	ProviderName() string
	ModelName() string
}

// New builds the client for the provider selected in config.
// A missing key is not fatal to the caller: it gets ErrMissingCredential and
// runs the assistant without a client, which answers with an explanation.
func New(cfg config.LLMConfig) (Client, error) {
	if cfg.APIKey() == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, ErrMissingCredential)
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL, cfg.Timeout), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.BaseURL, cfg.Anthropic.MaxTokens, cfg.Timeout), nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// defaultTimeout applies when config leaves llm.timeout at zero.
const defaultTimeout = 60 * time.Second

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}
