package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the request input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorpusUnavailable indicates the source folder is missing or yielded no usable text
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrExtractionFailed indicates a document could not be converted to text
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrUnsupportedFormat indicates no extractor is registered for a file type
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrInvalidChunkConfig indicates chunk size and overlap are inconsistent
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrIndexBuild indicates building or loading the vector index failed
	ErrIndexBuild = errors.New("index build failed")

	// ErrIndexIncompatible indicates a persisted index was built with a different embedding model
	ErrIndexIncompatible = errors.New("index incompatible with embedding configuration")

	// ErrSystemNotReady indicates the index or generation service is not initialized
	ErrSystemNotReady = errors.New("system not ready")

	// ErrGenerationFailed indicates the generation call failed or timed out
	ErrGenerationFailed = errors.New("generation failed")

	// ErrAuthNotConfigured indicates the server has no API secret configured
	ErrAuthNotConfigured = errors.New("api key not configured")

	// ErrMissingCredential indicates the request carried no API key
	ErrMissingCredential = errors.New("api key is required")

	// ErrInvalidCredential indicates the presented API key does not match
	ErrInvalidCredential = errors.New("invalid api key")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates the AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrLockNotAcquired indicates another instance holds the build lock
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// Request validation errors. Both match ErrInvalidInput.
var (
	ErrNoSchemas  = fmt.Errorf("%w: no schemas provided", ErrInvalidInput)
	ErrNoQuestion = fmt.Errorf("%w: no question provided", ErrInvalidInput)
)

// GenerationError carries the underlying cause of a failed generation call.
// It matches ErrGenerationFailed under errors.Is.
type GenerationError struct {
	Cause error
}

// NewGenerationError wraps cause as a generation failure.
func NewGenerationError(cause error) *GenerationError {
	return &GenerationError{Cause: cause}
}

func (e *GenerationError) Error() string {
	if e.Cause == nil {
		return ErrGenerationFailed.Error()
	}
	return e.Cause.Error()
}

// Is reports whether target is ErrGenerationFailed.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
