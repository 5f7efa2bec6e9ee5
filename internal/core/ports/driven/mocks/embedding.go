package mocks

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*MockEmbeddingService)(nil)

// MockEmbeddingService is a deterministic EmbeddingService for testing.
// Vectors are derived from a hash of the text, so equal texts embed equally.
type MockEmbeddingService struct {
	mu         sync.Mutex
	dimensions int
	model      string
	failNext   error
	failAlways error

	embedCalls int
	queryCalls int
	embedded   int

	// QueryVectorFn overrides the vector returned by EmbedQuery (optional)
	QueryVectorFn func(query string) []float32
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dimensions: 8,
		model:      "mock-embedding-model",
	}
}

func (m *MockEmbeddingService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	result := make([][]float32, len(texts))
	for i, text := range texts {
		result[i] = m.generateEmbedding(text)
	}
	m.embedded += len(texts)
	return result, nil
}

func (m *MockEmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	if m.QueryVectorFn != nil {
		return m.QueryVectorFn(query), nil
	}
	return m.generateEmbedding(query), nil
}

func (m *MockEmbeddingService) Dimensions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dimensions
}

func (m *MockEmbeddingService) Model() string {
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *MockEmbeddingService) Close() error {
	return nil
}

func (m *MockEmbeddingService) takeFailure() error {
	if m.failAlways != nil {
		return m.failAlways
	}
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	return nil
}

// generateEmbedding generates a deterministic embedding based on text hash
func (m *MockEmbeddingService) generateEmbedding(text string) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	embedding := make([]float32, m.dimensions)
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(seed%1000) / 1000.0
	}
	return embedding
}

// Helper methods for testing

// VectorFor returns the vector Embed would produce for text.
func (m *MockEmbeddingService) VectorFor(text string) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateEmbedding(text)
}

func (m *MockEmbeddingService) SetFailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockEmbeddingService) SetFailAlways(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAlways = err
}

func (m *MockEmbeddingService) SetDimensions(dim int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dimensions = dim
}

func (m *MockEmbeddingService) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

// EmbedCalls returns the number of Embed invocations.
func (m *MockEmbeddingService) EmbedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}

// QueryCalls returns the number of EmbedQuery invocations.
func (m *MockEmbeddingService) QueryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCalls
}

// EmbeddedTexts returns the total number of texts successfully embedded.
func (m *MockEmbeddingService) EmbeddedTexts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedded
}
