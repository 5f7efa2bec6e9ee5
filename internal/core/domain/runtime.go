package domain

import "sync"

// RuntimeConfig tracks which capabilities are available at runtime.
// Set during startup and read on every request. Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	IndexBackend string // "badger" or "sqlite"
	LockBackend  string // "redis", "postgres" or "local"

	// Dynamic capability flags
	embeddingAvailable bool
	llmAvailable       bool
	authConfigured     bool
	index              IndexStatus
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(indexBackend, lockBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		IndexBackend: indexBackend,
		LockBackend:  lockBackend,
		index:        IndexStatus{State: IndexStateAbsent},
	}
}

// EmbeddingAvailable returns whether embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// LLMAvailable returns whether LLM service is available
func (c *RuntimeConfig) LLMAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llmAvailable
}

// AuthConfigured returns whether an API secret is configured
func (c *RuntimeConfig) AuthConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authConfigured
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// SetLLMAvailable updates the LLM availability flag
func (c *RuntimeConfig) SetLLMAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llmAvailable = available
}

// SetAuthConfigured updates the auth flag
func (c *RuntimeConfig) SetAuthConfigured(configured bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authConfigured = configured
}

// IndexStatus returns a copy of the current index status
func (c *RuntimeConfig) IndexStatus() IndexStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// SetIndexStatus records the latest index status
func (c *RuntimeConfig) SetIndexStatus(status IndexStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = status
}

// IndexReady returns true if the index is loaded and queryable
func (c *RuntimeConfig) IndexReady() bool {
	return c.IndexStatus().State == IndexStateReady
}

// CanServe returns true if grounded answers can be produced and callers can
// authenticate to request them.
func (c *RuntimeConfig) CanServe() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.State == IndexStateReady && c.embeddingAvailable && c.llmAvailable && c.authConfigured
}
