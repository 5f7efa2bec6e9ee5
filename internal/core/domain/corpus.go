package domain

import "fmt"

// SourceDocument is one file from the source folder after text extraction.
// Offsets locate the document inside the concatenated corpus text.
type SourceDocument struct {
	Filename    string `json:"filename"`
	Text        string `json:"-"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// SkippedFile records a file the loader could not use.
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// Corpus is the concatenated text of all usable source documents.
type Corpus struct {
	Dir       string           `json:"dir"`
	Text      string           `json:"-"`
	Documents []SourceDocument `json:"documents"`
	Skipped   []SkippedFile    `json:"skipped,omitempty"`
}

// DocumentHeader is the separator written before each document's text.
func DocumentHeader(filename string) string {
	return fmt.Sprintf("\n--- Content from %s ---\n", filename)
}

// IsEmpty returns true if no document contributed text.
func (c *Corpus) IsEmpty() bool {
	return c == nil || len(c.Documents) == 0
}

// SourceAt returns the filename of the document containing the given
// rune offset, or "" when the offset falls outside every document.
func (c *Corpus) SourceAt(offset int) string {
	if c == nil {
		return ""
	}
	for _, doc := range c.Documents {
		if offset >= doc.StartOffset && offset < doc.EndOffset {
			return doc.Filename
		}
	}
	return ""
}

// Filenames returns the names of the documents in corpus order.
func (c *Corpus) Filenames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Documents))
	for _, doc := range c.Documents {
		names = append(names, doc.Filename)
	}
	return names
}
