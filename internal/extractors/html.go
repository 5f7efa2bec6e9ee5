package extractors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// nonContentSelectors are removed before conversion.
const nonContentSelectors = "script, style, noscript, template, iframe"

// HTMLExtractor handles saved HTML pages, rendering the body as Markdown
// so headings and lists survive into the corpus.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, filepath.Base(path), err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("%w: %s: parse html: %v", domain.ErrExtractionFailed, filepath.Base(path), err)
	}

	doc.Find(nonContentSelectors).Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	content := md.NewConverter("", true, nil).Convert(body)
	if strings.TrimSpace(content) == "" {
		content = body.Text()
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(content), nil
}

func (e *HTMLExtractor) Extensions() []string {
	return []string{".html", ".htm"}
}

func (e *HTMLExtractor) Priority() int {
	return 50
}
