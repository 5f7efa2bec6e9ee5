package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService is a mock implementation of LLMService for testing
type MockLLMService struct {
	mu      sync.Mutex
	prompts []string
	opts    []driven.GenerateOptions

	// GenerateFn overrides the response (optional). Default echoes "answer".
	GenerateFn func(ctx context.Context, prompt string) (string, error)
	PingFn     func() error
	ModelName  string
}

// NewMockLLMService creates a new MockLLMService
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{ModelName: "mock-llm"}
}

func (m *MockLLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	fn := m.GenerateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt)
	}
	return "answer", nil
}

func (m *MockLLMService) Model() string {
	return m.ModelName
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

func (m *MockLLMService) Close() error {
	return nil
}

// Prompts returns every prompt received, in call order.
func (m *MockLLMService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastOptions returns the options of the most recent call.
func (m *MockLLMService) LastOptions() driven.GenerateOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		return driven.GenerateOptions{}
	}
	return m.opts[len(m.opts)-1]
}
