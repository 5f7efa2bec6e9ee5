package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

var (
	_ driven.EmbeddingService = (*GeminiEmbedding)(nil)
	_ driven.LLMService       = (*GeminiLLM)(nil)
)

const (
	defaultGeminiEmbeddingModel = "text-embedding-004"
	defaultGeminiChatModel      = "gemini-1.5-pro-latest"
	defaultGeminiDimensions     = 768

	// Gemini accepts at most this many contents per embedding call.
	geminiMaxBatch = 100
)

// Task types understood by the Gemini embedding API.
const (
	geminiTaskDocument = "RETRIEVAL_DOCUMENT"
	geminiTaskQuery    = "RETRIEVAL_QUERY"
)

func newGeminiClient(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Google API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	if timeout > 0 {
		cfg.HTTPOptions.Timeout = &timeout
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return client, nil
}

// GeminiEmbedding implements EmbeddingService using the Gemini embedding API.
type GeminiEmbedding struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiEmbedding creates a Gemini embedding service.
func NewGeminiEmbedding(ctx context.Context, settings *domain.EmbeddingSettings, timeout time.Duration) (*GeminiEmbedding, error) {
	if settings == nil {
		return nil, fmt.Errorf("Google API key is required")
	}

	client, err := newGeminiClient(ctx, settings.APIKey, settings.BaseURL, timeout)
	if err != nil {
		return nil, err
	}

	model := settings.Model
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}
	dimensions := settings.Dimensions
	if dimensions <= 0 {
		dimensions = defaultGeminiDimensions
	}

	return &GeminiEmbedding{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed generates document embeddings, splitting into API-sized calls.
func (g *GeminiEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiMaxBatch {
		end := start + geminiMaxBatch
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := g.embed(ctx, texts[start:end], geminiTaskDocument)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// EmbedQuery generates a retrieval query embedding.
func (g *GeminiEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := g.embed(ctx, []string{query}, geminiTaskQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *GeminiEmbedding) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	outputDim := int32(g.dimensions)
	config := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: &outputDim,
	}

	result, err := g.client.Models.EmbedContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	return embeddingValues(result, len(texts), g.dimensions)
}

// embeddingValues extracts vectors from an embedding response and checks their shape.
func embeddingValues(result *genai.EmbedContentResponse, want, dimensions int) ([][]float32, error) {
	if result == nil || len(result.Embeddings) != want {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("expected %d embeddings, got %d", want, got)
	}

	vectors := make([][]float32, want)
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
		if dimensions > 0 && len(emb.Values) != dimensions {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", dimensions, len(emb.Values))
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (g *GeminiEmbedding) Dimensions() int {
	return g.dimensions
}

func (g *GeminiEmbedding) Model() string {
	return g.model
}

// HealthCheck embeds a short probe text.
func (g *GeminiEmbedding) HealthCheck(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := g.EmbedQuery(probeCtx, "health check probe"); err != nil {
		return fmt.Errorf("%w: gemini embedding probe: %v", domain.ErrServiceUnavailable, err)
	}
	return nil
}

// Close is a no-op; genai.Client holds no resources that need releasing.
func (g *GeminiEmbedding) Close() error {
	return nil
}

// GeminiLLM implements LLMService using Gemini generateContent.
type GeminiLLM struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewGeminiLLM creates a Gemini generation service.
func NewGeminiLLM(ctx context.Context, settings *domain.LLMSettings, timeout time.Duration) (*GeminiLLM, error) {
	if settings == nil {
		return nil, fmt.Errorf("Google API key is required")
	}

	client, err := newGeminiClient(ctx, settings.APIKey, settings.BaseURL, timeout)
	if err != nil {
		return nil, err
	}

	model := settings.Model
	if model == "" {
		model = defaultGeminiChatModel
	}

	return &GeminiLLM{
		client:      client,
		model:       model,
		temperature: settings.Temperature,
		maxTokens:   settings.MaxTokens,
	}, nil
}

// Generate sends a single user prompt and returns the first candidate's text.
// Option values override the service defaults when set.
func (g *GeminiLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	temperature := g.temperature
	if opts.Temperature > 0 {
		temperature = opts.Temperature
	}
	maxTokens := g.maxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}
	if opts.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemInstruction, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := candidateText(resp)
	if text == "" {
		return "", fmt.Errorf("no response generated from gemini model %s", g.model)
	}
	return text, nil
}

// candidateText returns the text of the first candidate that has any.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

func (g *GeminiLLM) Model() string {
	return g.model
}

// Ping generates a minimal completion.
func (g *GeminiLLM) Ping(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := g.Generate(probeCtx, "ping", driven.GenerateOptions{}); err != nil {
		return fmt.Errorf("%w: gemini probe: %v", domain.ErrServiceUnavailable, err)
	}
	return nil
}

func (g *GeminiLLM) Close() error {
	return nil
}
