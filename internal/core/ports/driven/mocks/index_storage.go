package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

var _ driven.IndexStorage = (*MockIndexStorage)(nil)

// MockIndexStorage is an in-memory IndexStorage for testing.
type MockIndexStorage struct {
	mu       sync.Mutex
	manifest *domain.IndexManifest
	records  []domain.VectorRecord
	saves    int
	loads    int

	SaveFn func(manifest *domain.IndexManifest, records []domain.VectorRecord) error
	LoadFn func() (*domain.IndexManifest, []domain.VectorRecord, error)
}

// NewMockIndexStorage creates an empty storage.
func NewMockIndexStorage() *MockIndexStorage {
	return &MockIndexStorage{}
}

func (m *MockIndexStorage) Exists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifest != nil, nil
}

func (m *MockIndexStorage) Save(ctx context.Context, manifest *domain.IndexManifest, records []domain.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.SaveFn != nil {
		if err := m.SaveFn(manifest, records); err != nil {
			return err
		}
	}
	m.manifest = manifest
	m.records = append([]domain.VectorRecord(nil), records...)
	return nil
}

func (m *MockIndexStorage) Load(ctx context.Context) (*domain.IndexManifest, []domain.VectorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.LoadFn != nil {
		return m.LoadFn()
	}
	if m.manifest == nil {
		return nil, nil, domain.ErrNotFound
	}
	return m.manifest, append([]domain.VectorRecord(nil), m.records...), nil
}

func (m *MockIndexStorage) Location() string {
	return "memory://index"
}

// Seed stores an index as if a previous process had built it.
func (m *MockIndexStorage) Seed(manifest *domain.IndexManifest, records []domain.VectorRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifest = manifest
	m.records = records
}

// Saves returns the number of Save calls.
func (m *MockIndexStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Loads returns the number of Load calls.
func (m *MockIndexStorage) Loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}
