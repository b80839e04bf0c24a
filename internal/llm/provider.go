package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Provider names accepted by NewGenerator.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Default models per provider.
const (
	DefaultOpenAIModel = "gpt-4o"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// DefaultModels returns the primary and fallback models used for provider
// when none are configured. Ollama returns empty names so the client uses
// the model it was configured with.
func DefaultModels(provider string) (model, fallback string) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI, "":
		return DefaultOpenAIModel, DefaultOpenAIFallbackModel
	case ProviderGemini:
		return DefaultGeminiModel, ""
	default:
		return "", ""
	}
}

// ProviderConfig selects and configures a provider.
type ProviderConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
}

// NewGenerator builds the generator named by cfg.Provider.
func NewGenerator(ctx context.Context, cfg ProviderConfig, logger *zap.Logger) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key is required: %w", ErrNoGenerator)
		}
		return NewOpenAIGenerator(cfg.APIKey, cfg.BaseURL, logger), nil
	case ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.APIKey)
	case ProviderOllama:
		config := DefaultOllamaConfig()
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			config.Model = cfg.Model
		}
		return NewOllamaClient(config), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: %w", cfg.Provider, ErrNoGenerator)
	}
}
