package postprocessors

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline implements PostProcessorPipeline.
// It chains multiple post-processors in order, starting with a Chunker.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
	sorted     bool
}

// NewPipeline creates a new post-processor pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]driven.PostProcessor, 0),
	}
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
// Input is the raw corpus text; output is the chunks ready for embedding.
func (p *Pipeline) Process(text string) []domain.TextChunk {
	p.mu.Lock()
	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.Unlock()

	chunks := []domain.TextChunk{
		{
			Text:        text,
			Position:    0,
			StartOffset: 0,
			EndOffset:   len([]rune(text)),
		},
	}

	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}

	return chunks
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// NewChunkingPipeline creates a pipeline that chunks with the given config.
func NewChunkingPipeline(config ChunkConfig) (*Pipeline, error) {
	chunker, err := NewChunker(config)
	if err != nil {
		return nil, err
	}
	p := NewPipeline()
	p.Add(chunker)
	return p, nil
}

// breakSearchWindow is how far back from the hard limit a natural break is searched.
const breakSearchWindow = 100

// ChunkConfig configures the chunker behavior.
// Sizes are counted in characters (runes), not bytes.
type ChunkConfig struct {
	// MaxChunkSize is the maximum characters per chunk
	MaxChunkSize int

	// Overlap is the character overlap between consecutive chunks
	Overlap int

	// PreserveSentences tries to break at sentence boundaries
	PreserveSentences bool

	// PreserveParagraphs tries to break at paragraph boundaries
	PreserveParagraphs bool
}

// DefaultChunkConfig returns the standard 1000/200 split.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize:       1000,
		Overlap:            200,
		PreserveSentences:  true,
		PreserveParagraphs: true,
	}
}

// Validate checks that the chunker can always make progress.
func (c ChunkConfig) Validate() error {
	if c.MaxChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidChunkConfig, c.MaxChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidChunkConfig, c.Overlap)
	}
	if c.Overlap >= c.MaxChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrInvalidChunkConfig, c.Overlap, c.MaxChunkSize)
	}
	return nil
}

// Chunker splits text into overlapping chunks.
// This is the first processor in the pipeline (Order = 0).
type Chunker struct {
	config ChunkConfig
}

// Verify interface compliance
var _ driven.PostProcessor = (*Chunker)(nil)

// NewChunker creates a new chunker with the given config.
func NewChunker(config ChunkConfig) (*Chunker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: config}, nil
}

// Config returns the chunker configuration.
func (c *Chunker) Config() ChunkConfig {
	return c.config
}

// Split splits text into chunks numbered from zero.
func (c *Chunker) Split(text string) []domain.TextChunk {
	position := 0
	return c.splitText(text, 0, &position)
}

// Process splits every input chunk, renumbering positions across the output.
func (c *Chunker) Process(chunks []domain.TextChunk) []domain.TextChunk {
	var result []domain.TextChunk
	position := 0

	for _, chunk := range chunks {
		result = append(result, c.splitText(chunk.Text, chunk.StartOffset, &position)...)
	}

	return result
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// Order returns 0 - chunker should be first.
func (c *Chunker) Order() int {
	return 0
}

// splitText splits text into overlapping chunks.
// Every chunk ends past start+overlap, so the next start always advances,
// and each next start is at or before the previous end, so no text is skipped.
func (c *Chunker) splitText(text string, baseOffset int, position *int) []domain.TextChunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	if n <= c.config.MaxChunkSize {
		chunk := domain.TextChunk{
			Text:        text,
			Position:    *position,
			StartOffset: baseOffset,
			EndOffset:   baseOffset + n,
		}
		*position++
		return []domain.TextChunk{chunk}
	}

	var chunks []domain.TextChunk
	start := 0

	for start < n {
		end := start + c.config.MaxChunkSize
		if end > n {
			end = n
		}

		if end < n && (c.config.PreserveSentences || c.config.PreserveParagraphs) {
			if bp := c.findBreakPoint(runes, start, end); bp > start+c.config.Overlap {
				end = bp
			}
		}

		chunks = append(chunks, domain.TextChunk{
			Text:        string(runes[start:end]),
			Position:    *position,
			StartOffset: baseOffset + start,
			EndOffset:   baseOffset + end,
		})
		*position++

		if end >= n {
			break
		}

		start = end - c.config.Overlap
	}

	return chunks
}

// findBreakPoint returns the preferred end for a chunk starting at start,
// or maxEnd when no natural break exists in the search window.
func (c *Chunker) findBreakPoint(runes []rune, start, maxEnd int) int {
	searchStart := maxEnd - breakSearchWindow
	if floor := start + c.config.Overlap + 1; searchStart < floor {
		searchStart = floor
	}
	if searchStart >= maxEnd {
		return maxEnd
	}

	window := runes[searchStart:maxEnd]

	// Paragraph boundary (double newline)
	if c.config.PreserveParagraphs {
		if idx := lastIndex(window, "\n\n"); idx != -1 {
			return searchStart + idx + 2
		}
	}

	// Sentence boundary
	if c.config.PreserveSentences {
		sentenceEnders := []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}
		bestIdx := -1

		for _, ender := range sentenceEnders {
			if idx := lastIndex(window, ender); idx != -1 {
				if endPos := idx + len([]rune(ender)); endPos > bestIdx {
					bestIdx = endPos
				}
			}
		}

		if bestIdx > 0 {
			return searchStart + bestIdx
		}
	}

	// Word boundary
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == ' ' || window[i] == '\n' {
			return searchStart + i + 1
		}
	}

	return maxEnd
}

// lastIndex is strings.LastIndex over runes, returning a rune index.
func lastIndex(window []rune, pattern string) int {
	p := []rune(pattern)
	for i := len(window) - len(p); i >= 0; i-- {
		match := true
		for j := range p {
			if window[i+j] != p[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// NormalizeWhitespace cleans extracted document text before chunking.
// Line endings become \n, runs of spaces collapse, lines are trimmed and
// more than one blank line in a row is reduced to one.
func NormalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")

	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}
