// Package indexstore persists the vector index as a directory that appears
// atomically: backends write into a staging directory which is renamed into
// place only after every record and the manifest are on disk.
package indexstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
)

// Ensure Store implements IndexStorage
var _ driven.IndexStorage = (*Store)(nil)

// ManifestFile marks a complete index directory.
const ManifestFile = "manifest.json"

const stagingPrefix = ".staging-"

// Backend writes and reads records inside one index directory.
type Backend interface {
	// Name identifies the on-disk format, recorded in the manifest file.
	Name() string

	// Write stores manifest and records in dir, which exists and is empty.
	Write(ctx context.Context, dir string, manifest *domain.IndexManifest, records []domain.VectorRecord) error

	// Read loads every record from dir.
	Read(ctx context.Context, dir string) ([]domain.VectorRecord, error)
}

// manifestDocument is the content of ManifestFile.
type manifestDocument struct {
	Backend  string                `json:"backend"`
	SavedAt  time.Time             `json:"saved_at"`
	Manifest *domain.IndexManifest `json:"manifest"`
}

// Store is a directory-backed IndexStorage.
type Store struct {
	path    string
	backend Backend
	logger  *slog.Logger
}

// New creates a Store rooted at path using backend for the record format.
func New(path string, backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:    filepath.Clean(path),
		backend: backend,
		logger:  logger.With("index_path", path, "backend", backend.Name()),
	}
}

// Location returns the index directory.
func (s *Store) Location() string {
	return s.path
}

// Exists reports whether the index directory is present. A directory without
// a manifest still counts: Save never overwrites it, so Load reports it instead.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat index directory: %w", err)
}

// Save writes a new index. An existing index is never overwritten.
func (s *Store) Save(ctx context.Context, manifest *domain.IndexManifest, records []domain.VectorRecord) error {
	if manifest == nil {
		return fmt.Errorf("%w: manifest is required", domain.ErrInvalidInput)
	}
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("index already exists at %s", s.path)
	}

	parent := filepath.Dir(s.path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create index parent directory: %w", err)
	}
	s.removeStaleStaging()

	staging := s.path + stagingPrefix + uuid.NewString()
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if err := os.RemoveAll(staging); err != nil {
				s.logger.Warn("failed to remove staging directory", "dir", staging, "error", err)
			}
		}
	}()

	if err := s.backend.Write(ctx, staging, manifest, records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := writeManifest(staging, manifestDocument{
		Backend:  s.backend.Name(),
		SavedAt:  time.Now().UTC(),
		Manifest: manifest,
	}); err != nil {
		return err
	}

	if err := os.Rename(staging, s.path); err != nil {
		return fmt.Errorf("publish index: %w", err)
	}
	committed = true

	s.logger.Info("index saved", "records", len(records))
	return nil
}

// Load reads the persisted index.
func (s *Store) Load(ctx context.Context) (*domain.IndexManifest, []domain.VectorRecord, error) {
	doc, err := readManifest(s.path)
	if errors.Is(err, domain.ErrNotFound) {
		if _, statErr := os.Stat(s.path); statErr == nil {
			return nil, nil, fmt.Errorf("%w: incomplete index at %s has no %s: remove it to rebuild",
				domain.ErrIndexBuild, s.path, ManifestFile)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if doc.Backend != s.backend.Name() {
		return nil, nil, fmt.Errorf("%w: index at %s was written by the %q backend, configured backend is %q",
			domain.ErrIndexIncompatible, s.path, doc.Backend, s.backend.Name())
	}

	records, err := s.backend.Read(ctx, s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read records: %w", err)
	}
	return doc.Manifest, records, nil
}

// removeStaleStaging deletes staging directories left by interrupted builds.
// Callers hold the build lock, so no other writer owns them.
func (s *Store) removeStaleStaging() {
	matches, err := filepath.Glob(s.path + stagingPrefix + "*")
	if err != nil {
		return
	}
	for _, dir := range matches {
		s.logger.Info("removing stale staging directory", "dir", dir)
		_ = os.RemoveAll(dir)
	}
}

func writeManifest(dir string, doc manifestDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	tmp := filepath.Join(dir, ManifestFile+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest: %w", err)
	}
	return os.Rename(tmp, filepath.Join(dir, ManifestFile))
}

func readManifest(dir string) (*manifestDocument, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var doc manifestDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: corrupt manifest: %v", domain.ErrIndexBuild, err)
	}
	if doc.Manifest == nil {
		return nil, fmt.Errorf("%w: manifest has no index metadata", domain.ErrIndexBuild)
	}
	return &doc, nil
}
