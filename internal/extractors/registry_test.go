package extractors

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schemarag/internal/core/ports/driven/mocks"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.Empty(t, r.List())
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	mock := mocks.NewMockExtractor()
	mock.ExtensionsFn = func() []string { return []string{".pdf"} }
	r.Register(mock)

	assert.NotNil(t, r.Get("/data/Kitap.PDF"), "extension match should be case-insensitive")
	assert.Nil(t, r.Get("/data/notes.txt"))
	assert.Nil(t, r.Get("/data/README"))
}

func TestRegistry_Get_PrioritySelection(t *testing.T) {
	r := NewRegistry()

	newMock := func(priority int) *mocks.MockExtractor {
		m := mocks.NewMockExtractor()
		m.ExtensionsFn = func() []string { return []string{".docx"} }
		m.PriorityFn = func() int { return priority }
		return m
	}

	low := newMock(10)
	high := newMock(90)
	medium := newMock(50)
	r.Register(low)
	r.Register(high)
	r.Register(medium)

	assert.Same(t, high, r.Get("a.docx"))
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{".docx", ".pdf"}, r.List())

	r.WithTextFormats()
	assert.Equal(t, []string{".docx", ".htm", ".html", ".markdown", ".md", ".pdf", ".txt"}, r.List())
}

func TestTextExtractors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name      string
		extractor interface {
			Extract(ctx context.Context, path string) (string, error)
		}
		file    string
		content string
		want    string
	}{
		{"plaintext", &PlaintextExtractor{}, "a.txt", "  line one\r\nline two  ", "line one\nline two"},
		{"markdown", &MarkdownExtractor{}, "a.md", "# Title\n\n\n\nBody", "# Title\n\nBody"},
		{
			"html",
			&HTMLExtractor{},
			"a.html",
			"<html><head><style>p{}</style><script>x()</script></head><body><p>Şema &amp; terapi</p></body></html>",
			"Şema & terapi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(tt.file, tt.content)
			got, err := tt.extractor.Extract(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextExtractors_MissingFile(t *testing.T) {
	_, err := (&PlaintextExtractor{}).Extract(context.Background(), filepath.Join(t.TempDir(), "none.txt"))
	assert.Error(t, err)
}

func TestHTMLExtractor_KeepsStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.htm")
	html := `<html><body><noscript>enable js</noscript><h1>Terk Edilme</h1><ul><li>bir</li><li>iki</li></ul></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))

	got, err := (&HTMLExtractor{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, got, "# Terk Edilme")
	assert.Contains(t, got, "- bir")
	assert.Contains(t, got, "- iki")
	assert.NotContains(t, got, "enable js")
}
