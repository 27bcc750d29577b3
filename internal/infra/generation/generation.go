// Package generation adapts hosted text generation APIs to brief.Generator.
// Each adapter makes exactly one request per call; retries belong to
// brief.Policy. HTTP 429 is reported as brief.ErrRateLimited and any other
// API error as *brief.PermanentError.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"newsbrief/internal/pkg/config"
	"newsbrief/internal/usecase/brief"
)

const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown generation provider")

type Config struct {
	Provider        string
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	MaxTokens       int
	// BaseURL overrides the provider endpoint. Empty uses the default.
	BaseURL string
}

// LoadConfig reads GENERATOR_PROVIDER, GENERATOR_MAX_TOKENS,
// GENERATOR_BASE_URL and the provider API keys.
func LoadConfig(loader *config.Loader) Config {
	return Config{
		Provider: strings.ToLower(loader.String("GENERATOR_PROVIDER", ProviderGemini,
			config.OneOf(ProviderGemini, ProviderClaude, ProviderOpenAI))),
		GeminiAPIKey:    loader.Secret("GEMINI_API_KEY"),
		AnthropicAPIKey: loader.Secret("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    loader.Secret("OPENAI_API_KEY"),
		MaxTokens:       loader.Int("GENERATOR_MAX_TOKENS", 1024, config.IntRange(64, 8192)),
		BaseURL:         loader.String("GENERATOR_BASE_URL", "", config.ValidateAbsoluteURL),
	}
}

// DefaultModel is used when GENERATOR_MODEL is unset.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderClaude:
		return "claude-haiku-4-5"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	default:
		return brief.DefaultConfig().Model
	}
}

// New builds the adapter for cfg.Provider. A missing API key yields
// brief.ErrMissingCredential; callers then run the policy without a
// generator so every call returns the missing-credential text.
func New(ctx context.Context, cfg Config) (brief.Generator, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY: %w", brief.ErrMissingCredential)
		}
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.BaseURL)
	case ProviderClaude:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY: %w", brief.ErrMissingCredential)
		}
		return NewClaude(cfg.AnthropicAPIKey, cfg.BaseURL, cfg.MaxTokens), nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY: %w", brief.ErrMissingCredential)
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.BaseURL, cfg.MaxTokens), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}

// apiError maps an HTTP status reported by an SDK to the brief error set.
// The detail keeps the "<status> <message>" shape operators see in
// persisted failure texts.
func apiError(status int, message string, err error) error {
	detail := strings.TrimSpace(fmt.Sprintf("%d %s", status, message))
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", brief.ErrRateLimited, detail)
	}
	return &brief.PermanentError{Detail: detail, Err: err}
}
