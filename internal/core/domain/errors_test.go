package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrCorpusUnavailable", ErrCorpusUnavailable, "corpus unavailable"},
		{"ErrExtractionFailed", ErrExtractionFailed, "text extraction failed"},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat, "unsupported document format"},
		{"ErrInvalidChunkConfig", ErrInvalidChunkConfig, "invalid chunk configuration"},
		{"ErrIndexBuild", ErrIndexBuild, "index build failed"},
		{"ErrIndexIncompatible", ErrIndexIncompatible, "index incompatible with embedding configuration"},
		{"ErrSystemNotReady", ErrSystemNotReady, "system not ready"},
		{"ErrGenerationFailed", ErrGenerationFailed, "generation failed"},
		{"ErrAuthNotConfigured", ErrAuthNotConfigured, "api key not configured"},
		{"ErrMissingCredential", ErrMissingCredential, "api key is required"},
		{"ErrInvalidCredential", ErrInvalidCredential, "invalid api key"},
		{"ErrLockNotAcquired", ErrLockNotAcquired, "lock not acquired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrCorpusUnavailable,
		ErrExtractionFailed,
		ErrUnsupportedFormat,
		ErrInvalidChunkConfig,
		ErrIndexBuild,
		ErrIndexIncompatible,
		ErrSystemNotReady,
		ErrGenerationFailed,
		ErrAuthNotConfigured,
		ErrMissingCredential,
		ErrInvalidCredential,
		ErrInvalidProvider,
		ErrServiceUnavailable,
		ErrLockNotAcquired,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestGenerationError(t *testing.T) {
	cause := fmt.Errorf("upstream: %w", context.DeadlineExceeded)
	err := error(NewGenerationError(cause))

	if !errors.Is(err, ErrGenerationFailed) {
		t.Error("GenerationError should match ErrGenerationFailed")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("GenerationError should unwrap to its cause")
	}
	if err.Error() != cause.Error() {
		t.Errorf("expected %q, got %q", cause.Error(), err.Error())
	}

	var genErr *GenerationError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &genErr) {
		t.Error("errors.As should find GenerationError")
	}

	if NewGenerationError(nil).Error() != "generation failed" {
		t.Error("nil cause should fall back to sentinel message")
	}
}

func TestValidationErrorsMatchInvalidInput(t *testing.T) {
	for _, err := range []error{ErrNoSchemas, ErrNoQuestion} {
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected %v to match ErrInvalidInput", err)
		}
	}
	if errors.Is(ErrNoSchemas, ErrNoQuestion) {
		t.Error("validation errors must be distinguishable")
	}
}
