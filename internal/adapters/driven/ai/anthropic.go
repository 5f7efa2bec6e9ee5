package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

var _ driven.LLMService = (*AnthropicLLM)(nil)

const (
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens = 8192
)

// AnthropicLLM implements LLMService using the Anthropic Messages API.
type AnthropicLLM struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewAnthropicLLM creates an Anthropic generation service.
func NewAnthropicLLM(settings *domain.LLMSettings, timeout time.Duration) (*AnthropicLLM, error) {
	if settings == nil || settings.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	model := settings.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := settings.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}

	return &AnthropicLLM{
		client:      anthropic.NewClient(opts...),
		model:       model,
		temperature: settings.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Generate sends prompt as a single user message.
func (a *AnthropicLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	maxTokens := a.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	temperature := a.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}
	if opts.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.SystemInstruction}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic generation failed: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no response generated from anthropic model %s", a.model)
	}
	return b.String(), nil
}

func (a *AnthropicLLM) Model() string {
	return a.model
}

// Ping generates a minimal completion.
func (a *AnthropicLLM) Ping(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := a.Generate(probeCtx, "ping", driven.GenerateOptions{MaxTokens: 16}); err != nil {
		return fmt.Errorf("%w: anthropic probe: %v", domain.ErrServiceUnavailable, err)
	}
	return nil
}

func (a *AnthropicLLM) Close() error {
	return nil
}
