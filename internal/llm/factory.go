package llm

import (
	"context"
	"fmt"

	"mealcart/internal/config"

	"go.uber.org/zap"
)

// NewTextGenerator builds the generator selected by cfg.LLMProvider. The
// returned Closer is nil for providers holding no resources. When
// cfg.LLMCachePath is set the generator is wrapped in a CachedTextGenerator.
func NewTextGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (TextGenerator, Closer, error) {
	var (
		gen    TextGenerator
		closer Closer
	)

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		gen, closer = client, client
	case config.ProviderGroq:
		gen = NewGroqClient(cfg, logger)
	case config.ProviderOllama:
		gen = NewOllamaClient(cfg, logger)
	default:
		return nil, nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}

	if cfg.LLMCachePath != "" {
		cached, err := NewCachedTextGenerator(gen, cfg.LLMCachePath, logger)
		if err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			return nil, nil, err
		}
		gen = cached
	}

	return gen, closer, nil
}
