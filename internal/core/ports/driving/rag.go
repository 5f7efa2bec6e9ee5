package driving

import (
	"context"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// RAGService produces answers grounded in the indexed corpus
type RAGService interface {
	// AnalyzeSchemas generates a structured report for the requested schemas
	AnalyzeSchemas(ctx context.Context, req domain.SchemaRequest) (*domain.GroundedAnswer, error)

	// Chat answers a question in the context of the requested schemas
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.GroundedAnswer, error)

	// Answer runs a task directly; question is ignored for reports
	Answer(ctx context.Context, task domain.TaskType, schemas []string, question string) (*domain.GroundedAnswer, error)
}
