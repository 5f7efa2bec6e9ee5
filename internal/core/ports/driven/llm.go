package driven

import (
	"context"
)

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	// SystemInstruction is sent as the system prompt when the provider supports one
	SystemInstruction string

	// Temperature controls sampling randomness
	Temperature float64

	// MaxTokens caps the response length; 0 uses the provider default
	MaxTokens int
}

// LLMService provides text generation from a fully rendered prompt.
type LLMService interface {
	// Generate returns the model's text response for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}
