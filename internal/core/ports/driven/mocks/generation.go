package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

var _ driven.GenerationService = (*MockGenerationService)(nil)

// GenerationCall records one Generate invocation
type GenerationCall struct {
	Instructions   string
	RetrievalQuery string
}

// MockGenerationService is a mock implementation of GenerationService for testing
type MockGenerationService struct {
	mu    sync.Mutex
	calls []GenerationCall

	GenerateFn func(ctx context.Context, instructions, retrievalQuery string) (*domain.GroundedText, error)
}

// NewMockGenerationService creates a new MockGenerationService
func NewMockGenerationService() *MockGenerationService {
	return &MockGenerationService{}
}

func (m *MockGenerationService) Generate(ctx context.Context, instructions, retrievalQuery string) (*domain.GroundedText, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerationCall{Instructions: instructions, RetrievalQuery: retrievalQuery})
	fn := m.GenerateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, instructions, retrievalQuery)
	}
	return &domain.GroundedText{Text: "generated", Model: "mock-llm"}, nil
}

// Calls returns recorded invocations.
func (m *MockGenerationService) Calls() []GenerationCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerationCall(nil), m.calls...)
}
