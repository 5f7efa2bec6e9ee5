package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// DefaultRetrievalK is the number of passages retrieved per question.
const DefaultRetrievalK = 5

// Retriever finds the passages most similar to a query.
type Retriever struct {
	handle   *IndexHandle
	embedder driven.EmbeddingService
	k        int
}

// NewRetriever creates a retriever over a loaded index.
// k <= 0 uses DefaultRetrievalK.
func NewRetriever(handle *IndexHandle, embedder driven.EmbeddingService, k int) *Retriever {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	return &Retriever{handle: handle, embedder: embedder, k: k}
}

// K returns the default number of passages per query.
func (r *Retriever) K() int {
	return r.k
}

// Query embeds text and returns at most k passages, most similar first.
// k <= 0 uses the retriever default. An empty index returns an empty
// slice without calling the embedding service.
func (r *Retriever) Query(ctx context.Context, text string, k int) ([]domain.RetrievedPassage, error) {
	if k <= 0 {
		k = r.k
	}
	if r.handle == nil || r.handle.Len() == 0 {
		return []domain.RetrievedPassage{}, nil
	}

	vector, err := r.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return r.handle.Search(vector, k)
}
