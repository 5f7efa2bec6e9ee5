package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
	"github.com/custodia-labs/schemarag/internal/postprocessors"
)

// CorpusLoader reads every supported document in a source folder into one corpus.
type CorpusLoader struct {
	extractors driven.ExtractorRegistry
	normalize  bool
	logger     *slog.Logger
}

// CorpusLoaderConfig holds configuration for the corpus loader.
type CorpusLoaderConfig struct {
	Extractors          driven.ExtractorRegistry
	NormalizeWhitespace bool // Collapse whitespace in extracted text (default: false)
	Logger              *slog.Logger
}

// NewCorpusLoader creates a new corpus loader.
func NewCorpusLoader(cfg CorpusLoaderConfig) *CorpusLoader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CorpusLoader{
		extractors: cfg.Extractors,
		normalize:  cfg.NormalizeWhitespace,
		logger:     logger,
	}
}

// Load extracts text from the files directly inside dir, in filename order.
// Subdirectories and unsupported extensions are skipped. Files that fail to
// extract or yield no text are logged, recorded in Corpus.Skipped and left out.
// Returns domain.ErrCorpusUnavailable when dir is missing or nothing usable remains.
func (l *CorpusLoader) Load(ctx context.Context, dir string) (*domain.Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("source folder does not exist", "dir", dir)
			return nil, fmt.Errorf("%w: source folder %q does not exist", domain.ErrCorpusUnavailable, dir)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCorpusUnavailable, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	corpus := &domain.Corpus{Dir: dir}
	var text strings.Builder
	offset := 0

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		path := filepath.Join(dir, name)
		extractor := l.extractors.Get(path)
		if extractor == nil {
			l.logger.Debug("skipping unsupported file", "file", name)
			continue
		}

		content, err := extractor.Extract(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			l.logger.Warn("failed to extract document", "file", name, "error", err)
			corpus.Skipped = append(corpus.Skipped, domain.SkippedFile{Filename: name, Reason: err.Error()})
			continue
		}

		if l.normalize {
			content = postprocessors.NormalizeWhitespace(content)
		}
		if strings.TrimSpace(content) == "" {
			l.logger.Warn("document has no extractable text", "file", name)
			corpus.Skipped = append(corpus.Skipped, domain.SkippedFile{Filename: name, Reason: "empty text"})
			continue
		}

		section := domain.DocumentHeader(name) + content + "\n"
		length := len([]rune(section))
		corpus.Documents = append(corpus.Documents, domain.SourceDocument{
			Filename:    name,
			Text:        content,
			StartOffset: offset,
			EndOffset:   offset + length,
		})
		text.WriteString(section)
		offset += length

		l.logger.Info("loaded document", "file", name, "characters", len([]rune(content)))
	}

	if corpus.IsEmpty() {
		l.logger.Warn("no usable documents found", "dir", dir, "skipped", len(corpus.Skipped))
		return nil, fmt.Errorf("%w: no usable documents in %q", domain.ErrCorpusUnavailable, dir)
	}

	corpus.Text = text.String()
	return corpus, nil
}
