package driven

import "context"

// EmbeddingService generates vector embeddings for corpus chunks and queries.
// Providers may embed documents and queries differently, so both are exposed.
type EmbeddingService interface {
	// Embed generates embeddings for a batch of corpus texts.
	// The returned slice has one vector per input, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single retrieval query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding vector dimensions
	Dimensions() int

	// Model returns the embedding model name
	Model() string

	// HealthCheck verifies the service is available
	HealthCheck(ctx context.Context) error

	// Close releases resources
	Close() error
}
