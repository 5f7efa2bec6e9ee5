package driven

import "context"

// DocumentTextExtractor converts a document file to plain text.
type DocumentTextExtractor interface {
	// Extract reads the file at path and returns its text content.
	// An empty string with a nil error means the document has no text.
	Extract(ctx context.Context, path string) (string, error)

	// Extensions returns the lower-case file extensions handled, including the dot.
	Extensions() []string

	// Priority returns the extractor priority (higher = preferred).
	Priority() int
}

// ExtractorRegistry selects an extractor by file extension.
// When multiple extractors claim an extension, the highest priority one is used.
type ExtractorRegistry interface {
	// Get returns the best extractor for the path's extension, or nil.
	Get(path string) DocumentTextExtractor

	// Register adds an extractor.
	Register(extractor DocumentTextExtractor)

	// List returns all registered extensions in sorted order.
	List() []string
}
