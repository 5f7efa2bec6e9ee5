// Package config loads service settings from .env, an optional TOML or YAML
// file and the process environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "SCHEMARAG_CONFIG"

// Index storage backends.
const (
	IndexBackendBadger = "badger"
	IndexBackendSQLite = "sqlite"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Corpus    CorpusConfig    `toml:"corpus" yaml:"corpus"`
	Index     IndexConfig     `toml:"index" yaml:"index"`
	Embedding EmbeddingConfig `toml:"embedding" yaml:"embedding"`
	LLM       LLMConfig       `toml:"llm" yaml:"llm"`
	Lock      LockConfig      `toml:"lock" yaml:"lock"`
	Log       LogConfig       `toml:"log" yaml:"log"`

	// Secrets are read from the environment only.
	APISecret       string `toml:"-" yaml:"-"`
	GoogleAPIKey    string `toml:"-" yaml:"-"`
	AnthropicAPIKey string `toml:"-" yaml:"-"`
	OpenAIAPIKey    string `toml:"-" yaml:"-"`
}

type ServerConfig struct {
	Host        string   `toml:"host" yaml:"host"`
	Port        int      `toml:"port" yaml:"port"`
	CORSOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
}

type CorpusConfig struct {
	SourceFolder string `toml:"source_folder" yaml:"source_folder"`
	ChunkSize    int    `toml:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap" yaml:"chunk_overlap"`
	// NormalizeWhitespace collapses runs of blank space in extracted text before chunking.
	NormalizeWhitespace bool `toml:"normalize_whitespace" yaml:"normalize_whitespace"`
}

type IndexConfig struct {
	Path       string `toml:"path" yaml:"path"`
	Backend    string `toml:"backend" yaml:"backend"`
	RetrievalK int    `toml:"retrieval_k" yaml:"retrieval_k"`
}

type EmbeddingConfig struct {
	Provider   string   `toml:"provider" yaml:"provider"`
	Model      string   `toml:"model" yaml:"model"`
	Dimensions int      `toml:"dimensions" yaml:"dimensions"`
	BatchSize  int      `toml:"batch_size" yaml:"batch_size"`
	RateLimit  float64  `toml:"rate_limit" yaml:"rate_limit"`
	BaseURL    string   `toml:"base_url" yaml:"base_url"`
	Timeout    Duration `toml:"timeout" yaml:"timeout"`
}

type LLMConfig struct {
	Provider    string   `toml:"provider" yaml:"provider"`
	Model       string   `toml:"model" yaml:"model"`
	Temperature float64  `toml:"temperature" yaml:"temperature"`
	MaxTokens   int      `toml:"max_tokens" yaml:"max_tokens"`
	BaseURL     string   `toml:"base_url" yaml:"base_url"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"`
}

type LockConfig struct {
	RedisURL    string   `toml:"redis_url" yaml:"redis_url"`
	DatabaseURL string   `toml:"database_url" yaml:"database_url"`
	TTL         Duration `toml:"ttl" yaml:"ttl"`
	Wait        Duration `toml:"wait" yaml:"wait"`
}

// Duration reads config strings such as "90s" or "30m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"*"},
		},
		Corpus: CorpusConfig{
			SourceFolder: "kaynaklarim",
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		Index: IndexConfig{
			Path:       "vector_index",
			Backend:    IndexBackendBadger,
			RetrievalK: 5,
		},
		Embedding: EmbeddingConfig{
			Provider:   string(domain.AIProviderGemini),
			Model:      "text-embedding-004",
			Dimensions: 768,
			BatchSize:  32,
			Timeout:    Duration{60 * time.Second},
		},
		LLM: LLMConfig{
			Provider:    string(domain.AIProviderGemini),
			Model:       "gemini-1.5-pro-latest",
			Temperature: 0.3,
			Timeout:     Duration{120 * time.Second},
		},
		Lock: LockConfig{
			TTL:  Duration{30 * time.Minute},
			Wait: Duration{10 * time.Minute},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded first without overriding variables already set. path, or
// SCHEMARAG_CONFIG when path is empty, names an optional config file:
// .yaml and .yml files are read as YAML, anything else as TOML.
// Environment variables override both.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = toml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnvInt("PORT", c.Server.Port)
	c.Server.CORSOrigins = getEnvList("CORS_ORIGINS", c.Server.CORSOrigins)

	c.Corpus.SourceFolder = getEnv("SOURCE_FOLDER", c.Corpus.SourceFolder)
	c.Corpus.ChunkSize = getEnvInt("CHUNK_SIZE", c.Corpus.ChunkSize)
	c.Corpus.ChunkOverlap = getEnvInt("CHUNK_OVERLAP", c.Corpus.ChunkOverlap)
	c.Corpus.NormalizeWhitespace = getEnvBool("NORMALIZE_WHITESPACE", c.Corpus.NormalizeWhitespace)

	c.Index.Path = getEnv("VECTOR_DB_PATH", c.Index.Path)
	c.Index.Backend = strings.ToLower(getEnv("INDEX_BACKEND", c.Index.Backend))
	c.Index.RetrievalK = getEnvInt("RETRIEVAL_K", c.Index.RetrievalK)

	c.Embedding.Provider = strings.ToLower(getEnv("EMBEDDING_PROVIDER", c.Embedding.Provider))
	c.Embedding.Model = getEnv("EMBEDDING_MODEL", c.Embedding.Model)
	c.Embedding.Dimensions = getEnvInt("EMBEDDING_DIMENSIONS", c.Embedding.Dimensions)
	c.Embedding.BatchSize = getEnvInt("EMBEDDING_BATCH_SIZE", c.Embedding.BatchSize)
	c.Embedding.RateLimit = getEnvFloat("EMBEDDING_RATE_LIMIT", c.Embedding.RateLimit)
	c.Embedding.BaseURL = getEnv("EMBEDDING_BASE_URL", c.Embedding.BaseURL)
	c.Embedding.Timeout.Duration = getEnvDuration("EMBEDDING_TIMEOUT", c.Embedding.Timeout.Duration)

	c.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = getEnv("LLM_MODEL", c.LLM.Model)
	c.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.BaseURL = getEnv("LLM_BASE_URL", c.LLM.BaseURL)
	c.LLM.Timeout.Duration = getEnvDuration("GENERATION_TIMEOUT", c.LLM.Timeout.Duration)

	c.Lock.RedisURL = getEnv("REDIS_URL", c.Lock.RedisURL)
	c.Lock.DatabaseURL = getEnv("DATABASE_URL", c.Lock.DatabaseURL)
	c.Lock.TTL.Duration = getEnvDuration("BUILD_LOCK_TTL", c.Lock.TTL.Duration)
	c.Lock.Wait.Duration = getEnvDuration("BUILD_LOCK_WAIT", c.Lock.Wait.Duration)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.APISecret = os.Getenv("MY_APP_SECRET_KEY")
	c.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")
	c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
}

// Validate rejects settings the service cannot start with. Missing secrets
// are not validation errors; they leave the service unready instead.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if c.Corpus.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: chunk size must be positive", domain.ErrInvalidChunkConfig))
	}
	if c.Corpus.ChunkOverlap < 0 || c.Corpus.ChunkOverlap >= c.Corpus.ChunkSize {
		errs = append(errs, fmt.Errorf("%w: chunk overlap must be in [0, chunk size)", domain.ErrInvalidChunkConfig))
	}
	if c.Index.Backend != IndexBackendBadger && c.Index.Backend != IndexBackendSQLite {
		errs = append(errs, fmt.Errorf("unknown index backend %q", c.Index.Backend))
	}
	if c.Index.RetrievalK <= 0 {
		errs = append(errs, fmt.Errorf("retrieval k must be positive"))
	}
	if p := domain.AIProvider(c.Embedding.Provider); !p.SupportsEmbedding() {
		errs = append(errs, fmt.Errorf("%w: %q has no embedding API", domain.ErrInvalidProvider, c.Embedding.Provider))
	}
	if p := domain.AIProvider(c.LLM.Provider); !p.SupportsGeneration() {
		errs = append(errs, fmt.Errorf("%w: %q has no generation API", domain.ErrInvalidProvider, c.LLM.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding dimensions must be positive"))
	}
	if c.Embedding.Timeout.Duration <= 0 || c.LLM.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("timeouts must be positive"))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EmbeddingSettings resolves the embedding provider settings with its API key.
func (c *Config) EmbeddingSettings() *domain.EmbeddingSettings {
	provider := domain.AIProvider(c.Embedding.Provider)
	return &domain.EmbeddingSettings{
		Provider:   provider,
		Model:      c.Embedding.Model,
		Dimensions: c.Embedding.Dimensions,
		APIKey:     c.apiKey(provider),
		BaseURL:    c.Embedding.BaseURL,
	}
}

// LLMSettings resolves the generation provider settings with its API key.
func (c *Config) LLMSettings() *domain.LLMSettings {
	provider := domain.AIProvider(c.LLM.Provider)
	return &domain.LLMSettings{
		Provider:    provider,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		APIKey:      c.apiKey(provider),
		BaseURL:     c.LLM.BaseURL,
	}
}

func (c *Config) apiKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderGemini:
		return c.GoogleAPIKey
	case domain.AIProviderAnthropic:
		return c.AnthropicAPIKey
	case domain.AIProviderOpenAI:
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// MissingSecrets lists the environment variables that must be set before
// the service can answer requests.
func (c *Config) MissingSecrets() []string {
	var missing []string
	if strings.TrimSpace(c.APISecret) == "" {
		missing = append(missing, "MY_APP_SECRET_KEY")
	}
	seen := map[string]bool{}
	for _, provider := range []string{c.Embedding.Provider, c.LLM.Provider} {
		name := secretEnv(domain.AIProvider(provider))
		if name != "" && !seen[name] && c.apiKey(domain.AIProvider(provider)) == "" {
			missing = append(missing, name)
			seen[name] = true
		}
	}
	return missing
}

func secretEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderGemini:
		return "GOOGLE_API_KEY"
	case domain.AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case domain.AIProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
