package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Ensure RetrievalQA implements GenerationService
var _ driven.GenerationService = (*RetrievalQA)(nil)

// PassageRetriever returns the passages most relevant to a query.
type PassageRetriever interface {
	Query(ctx context.Context, text string, k int) ([]domain.RetrievedPassage, error)
}

// noContext is placed in the context block when retrieval finds nothing.
const noContext = "(no relevant passages were found in the documents)"

// RetrievalQA answers instructions by stuffing retrieved passages into one LLM prompt.
type RetrievalQA struct {
	retriever PassageRetriever
	llm       driven.LLMService
	options   driven.GenerateOptions
	k         int
}

// NewRetrievalQA creates a retrieval-augmented generation service.
// k <= 0 lets the retriever choose.
func NewRetrievalQA(retriever PassageRetriever, llm driven.LLMService, options driven.GenerateOptions, k int) *RetrievalQA {
	return &RetrievalQA{
		retriever: retriever,
		llm:       llm,
		options:   options,
		k:         k,
	}
}

// Generate retrieves passages for retrievalQuery, then asks the LLM to follow
// instructions using only those passages.
func (q *RetrievalQA) Generate(ctx context.Context, instructions, retrievalQuery string) (*domain.GroundedText, error) {
	passages, err := q.retriever.Query(ctx, retrievalQuery, q.k)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	text, err := q.llm.Generate(ctx, StuffPrompt(instructions, passages), q.options)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return &domain.GroundedText{
		Text:     text,
		Passages: passages,
		Model:    q.llm.Model(),
	}, nil
}

// StuffPrompt places the retrieved passages ahead of the instructions.
func StuffPrompt(instructions string, passages []domain.RetrievedPassage) string {
	var b strings.Builder
	b.WriteString("Use the following pieces of context to answer the question at the end. ")
	b.WriteString("If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n")

	if len(passages) == 0 {
		b.WriteString(noContext)
		b.WriteString("\n")
	}
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.Text)
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(instructions)
	b.WriteString("\nHelpful Answer:")
	return b.String()
}
