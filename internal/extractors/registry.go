package extractors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
	"github.com/custodia-labs/schemarag/internal/extractors/docx"
	"github.com/custodia-labs/schemarag/internal/extractors/pdf"
)

// Verify interface compliance
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry implements ExtractorRegistry with priority-based selection.
// When multiple extractors claim an extension, the highest priority one is used.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.DocumentTextExtractor
}

// NewRegistry creates a new extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make([]driven.DocumentTextExtractor, 0),
	}
}

// Register registers an extractor.
func (r *Registry) Register(extractor driven.DocumentTextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, extractor)
}

// Get returns the best extractor for the file's extension.
// Returns nil if no extractor handles it.
func (r *Registry) Get(path string) driven.DocumentTextExtractor {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.DocumentTextExtractor
	for _, e := range r.extractors {
		if !handles(e, ext) {
			continue
		}
		if best == nil || e.Priority() > best.Priority() {
			best = e
		}
	}
	return best
}

// List returns all registered extensions.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extSet := make(map[string]struct{})
	for _, e := range r.extractors {
		for _, ext := range e.Extensions() {
			extSet[strings.ToLower(ext)] = struct{}{}
		}
	}

	exts := make([]string, 0, len(extSet))
	for ext := range extSet {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func handles(e driven.DocumentTextExtractor, ext string) bool {
	for _, supported := range e.Extensions() {
		if strings.EqualFold(supported, ext) {
			return true
		}
	}
	return false
}

// DefaultRegistry creates a registry for the PDF and DOCX source formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(pdf.New())
	r.Register(docx.New())
	return r
}

// WithTextFormats additionally registers plain text, Markdown and HTML.
func (r *Registry) WithTextFormats() *Registry {
	r.Register(&PlaintextExtractor{})
	r.Register(&MarkdownExtractor{})
	r.Register(&HTMLExtractor{})
	return r
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filepath.Base(path), err)
	}
	return string(data), nil
}

// PlaintextExtractor handles plain text files.
type PlaintextExtractor struct{}

func (e *PlaintextExtractor) Extract(ctx context.Context, path string) (string, error) {
	content, err := readText(path)
	if err != nil {
		return "", err
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimSpace(content), nil
}

func (e *PlaintextExtractor) Extensions() []string {
	return []string{".txt"}
}

func (e *PlaintextExtractor) Priority() int {
	return 10
}

// MarkdownExtractor handles Markdown files. Markup is kept.
type MarkdownExtractor struct{}

func (e *MarkdownExtractor) Extract(ctx context.Context, path string) (string, error) {
	content, err := readText(path)
	if err != nil {
		return "", err
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(content), nil
}

func (e *MarkdownExtractor) Extensions() []string {
	return []string{".md", ".markdown"}
}

func (e *MarkdownExtractor) Priority() int {
	return 50
}
