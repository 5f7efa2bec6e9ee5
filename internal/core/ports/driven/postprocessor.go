package driven

import "github.com/custodia-labs/schemarag/internal/core/domain"

// PostProcessor transforms text chunks.
// Processors form a pipeline: the first stage (Chunker) receives a single
// chunk holding the full text; later stages receive the previous output.
type PostProcessor interface {
	Process(chunks []domain.TextChunk) []domain.TextChunk

	// Name returns the processor name for logging.
	Name() string

	// Order returns the processor order in the pipeline (lower = earlier).
	Order() int
}

// PostProcessorPipeline chains post-processors in order.
type PostProcessorPipeline interface {
	// Process splits raw text into chunks ready for embedding.
	Process(text string) []domain.TextChunk

	// Add adds a processor; processors are sorted by Order() before processing.
	Add(processor PostProcessor)

	// List returns processor names in order.
	List() []string
}
