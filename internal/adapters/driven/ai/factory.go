package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// FactoryConfig holds settings shared by every service the factory creates.
type FactoryConfig struct {
	EmbeddingTimeout  time.Duration   // Per-request timeout for embedding calls
	GenerationTimeout time.Duration   // Per-request timeout for generation calls
	RateLimit         RateLimitConfig // Applied to embedding services
	Logger            *slog.Logger
}

// Factory creates AI services based on configuration
type Factory struct {
	config FactoryConfig
	logger *slog.Logger
}

// NewFactory creates a new AI service factory
func NewFactory(cfg FactoryConfig) *Factory {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{config: cfg, logger: logger}
}

// CreateEmbeddingService creates an embedding service from settings.
// Every embedding service is wrapped in the quota-aware rate limiter.
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = NewGeminiEmbedding(context.Background(), settings, f.config.EmbeddingTimeout)
	case domain.AIProviderOpenAI:
		svc, err = NewOpenAIEmbedding(settings, f.config.EmbeddingTimeout)
	default:
		return nil, fmt.Errorf("%w: %s does not provide embeddings", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("embedding service created",
		"provider", settings.Provider,
		"model", svc.Model(),
		"dimensions", svc.Dimensions(),
	)
	return NewRateLimitedEmbedding(svc, f.config.RateLimit, f.logger), nil
}

// CreateLLMService creates an LLM service from settings
func (f *Factory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = NewGeminiLLM(context.Background(), settings, f.config.GenerationTimeout)
	case domain.AIProviderAnthropic:
		svc, err = NewAnthropicLLM(settings, f.config.GenerationTimeout)
	default:
		return nil, fmt.Errorf("%w: %s does not provide generation", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("llm service created", "provider", settings.Provider, "model", svc.Model())
	return svc, nil
}
