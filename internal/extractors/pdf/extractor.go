// Package pdf extracts text from PDF documents using pdfcpu.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Compile-time interface assertion
var _ driven.DocumentTextExtractor = (*Extractor)(nil)

var pageFilePattern = regexp.MustCompile(`Content_page_(\d+)`)

// Extractor implements DocumentTextExtractor using pdfcpu.
// pdfcpu dumps raw page content streams; the text-showing operators
// in those streams are decoded by ContentText.
type Extractor struct {
	tempDir string
}

// New creates a PDF extractor that stages page content under the OS temp dir.
func New() *Extractor {
	return &Extractor{tempDir: os.TempDir()}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the text of every page in page order, pages separated by a blank line.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := filepath.Base(path)

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: failed to read PDF context: %v", domain.ErrExtractionFailed, name, err)
	}

	outDir, err := os.MkdirTemp(e.tempDir, "schemarag-pdf-")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, name, err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("%w: %s: failed to extract PDF content: %v", domain.ErrExtractionFailed, name, err)
	}

	files, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, name, err)
	}

	pageTexts := make(map[int]string, pdfCtx.PageCount)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		match := pageFilePattern.FindStringSubmatch(file.Name())
		if match == nil {
			continue
		}
		pageNum, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			return "", fmt.Errorf("%w: %s: page %d: %v", domain.ErrExtractionFailed, name, pageNum, err)
		}
		pageTexts[pageNum] = ContentText(raw)
	}

	pages := make([]string, 0, pdfCtx.PageCount)
	for pageNum := 1; pageNum <= pdfCtx.PageCount; pageNum++ {
		if text := strings.TrimSpace(pageTexts[pageNum]); text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}
