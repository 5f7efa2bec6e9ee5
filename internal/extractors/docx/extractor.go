// Package docx extracts text from Office Open XML word documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.DocumentTextExtractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".docx"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract reads the main document part and returns its paragraphs, one per line.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filepath.Base(path), err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filepath.Base(path), err)
		}
		defer rc.Close()

		text, err := parseDocumentXML(rc)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filepath.Base(path), err)
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %s: missing %s", domain.ErrExtractionFailed, filepath.Base(path), documentPart)
}

// parseDocumentXML walks the WordprocessingML token stream.
// Text runs (w:t) are concatenated; paragraphs (w:p) and breaks (w:br, w:cr)
// end a line and tabs (w:tab) become tab characters. Paragraphs inside tables
// are included.
func parseDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var result strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				result.WriteString("\t")
			case "br", "cr":
				result.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				result.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				result.Write(t)
			}
		}
	}

	return strings.TrimSpace(result.String()), nil
}
