package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// writeTestPDF writes a minimal one-font PDF with one page per content stream.
func writeTestPDF(t *testing.T, pages ...string) string {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1: catalog, 2: page tree, 3: font, then page/content pairs
	object("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+i*2)
	}
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)))
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	for i, content := range pages {
		object(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+i*2))
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	path := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtractor_Extract(t *testing.T) {
	path := writeTestPDF(t,
		"BT /F1 12 Tf 72 712 Td (Emotional Deprivation) Tj 0 -14 Td (Needs go unmet.) Tj ET",
		"BT /F1 12 Tf 72 712 Td (Second page) Tj ET",
	)

	text, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Emotional Deprivation\nNeeds go unmet.\n\nSecond page", text)
}

func TestExtractor_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := New().Extract(context.Background(), path)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed), "got %v", err)
}

func TestExtractor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, "unused.pdf")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_Metadata(t *testing.T) {
	e := New()
	assert.Equal(t, []string{".pdf"}, e.Extensions())
	assert.Equal(t, 50, e.Priority())
}
