package driven

import (
	"context"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// GenerationService answers instructions using passages retrieved for retrievalQuery.
// Implementations must retrieve before generating; no answer is produced
// without a retrieval attempt against the current index.
type GenerationService interface {
	Generate(ctx context.Context, instructions, retrievalQuery string) (*domain.GroundedText, error)
}
