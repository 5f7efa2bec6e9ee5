package domain

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderGemini    AIProvider = "gemini"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider   AIProvider `json:"provider" toml:"provider"`
	Model      string     `json:"model" toml:"model"`
	Dimensions int        `json:"dimensions" toml:"dimensions"`
	APIKey     string     `json:"-" toml:"-"` // Never serialize
	BaseURL    string     `json:"base_url,omitempty" toml:"base_url"`
}

// IsConfigured returns true if embedding settings are properly configured
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" || e.Model == "" {
		return false
	}
	return e.APIKey != ""
}

// LLMSettings configures the LLM service
type LLMSettings struct {
	Provider    AIProvider `json:"provider" toml:"provider"`
	Model       string     `json:"model" toml:"model"`
	Temperature float64    `json:"temperature" toml:"temperature"`
	MaxTokens   int        `json:"max_tokens" toml:"max_tokens"`
	APIKey      string     `json:"-" toml:"-"` // Never serialize
	BaseURL     string     `json:"base_url,omitempty" toml:"base_url"`
}

// IsConfigured returns true if LLM settings are properly configured
func (l *LLMSettings) IsConfigured() bool {
	if l.Provider == "" || l.Model == "" {
		return false
	}
	return l.APIKey != ""
}

// IsValid returns true if this is a known provider
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// SupportsEmbedding returns true if the provider offers an embedding API
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI
}

// SupportsGeneration returns true if the provider offers a generation API
func (p AIProvider) SupportsGeneration() bool {
	return p == AIProviderGemini || p == AIProviderAnthropic
}
