package mocks

import (
	"context"
	"os"

	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

var _ driven.DocumentTextExtractor = (*MockExtractor)(nil)

// MockExtractor is a mock implementation of DocumentTextExtractor for testing.
// By default it returns the raw file contents.
type MockExtractor struct {
	ExtensionsFn func() []string
	PriorityFn   func() int
	ExtractFn    func(ctx context.Context, path string) (string, error)
}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

func (m *MockExtractor) Extract(ctx context.Context, path string) (string, error) {
	if m.ExtractFn != nil {
		return m.ExtractFn(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *MockExtractor) Extensions() []string {
	if m.ExtensionsFn != nil {
		return m.ExtensionsFn()
	}
	return []string{".pdf", ".docx"}
}

func (m *MockExtractor) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 100
}
