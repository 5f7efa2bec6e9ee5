package driving

import (
	"context"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// IndexService manages the vector index lifecycle
type IndexService interface {
	// EnsureReady builds the index if absent and loads it.
	// Safe to call repeatedly; a ready index is returned without rebuilding.
	EnsureReady(ctx context.Context) error

	// Status returns the current index status
	Status(ctx context.Context) domain.IndexStatus
}
