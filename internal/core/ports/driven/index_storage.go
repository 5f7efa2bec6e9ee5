package driven

import (
	"context"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// IndexStorage persists the vector index.
// Save must be atomic: a failed save leaves no index behind and never
// replaces an existing one partially.
type IndexStorage interface {
	// Exists reports whether a complete persisted index is present.
	Exists(ctx context.Context) (bool, error)

	// Save persists the manifest and records as a new index.
	Save(ctx context.Context, manifest *domain.IndexManifest, records []domain.VectorRecord) error

	// Load reads the persisted index.
	// Returns domain.ErrNotFound if no index exists.
	Load(ctx context.Context) (*domain.IndexManifest, []domain.VectorRecord, error)

	// Location returns a human readable location of the index.
	Location() string
}
