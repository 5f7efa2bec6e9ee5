// Package badger stores vector records in an embedded BadgerDB through badgerhold.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/custodia-labs/schemarag/internal/adapters/driven/indexstore"
	"github.com/custodia-labs/schemarag/internal/core/domain"
)

var _ indexstore.Backend = (*Backend)(nil)

// Name is the backend identifier recorded in the index manifest.
const Name = "badger"

const (
	manifestKey = "manifest"

	// writeBatch bounds the records upserted per transaction.
	writeBatch = 500
)

type storedRecord struct {
	ID        string `badgerhold:"key"`
	Text      string
	Source    string
	Position  int
	Embedding []float32
}

type storedManifest struct {
	BuildID        string
	EmbeddingModel string
	Dimensions     int
	RecordCount    int
}

// Backend writes one badger database per index directory.
type Backend struct{}

// New creates a badger backend.
func New() *Backend {
	return &Backend{}
}

// Name returns "badger".
func (b *Backend) Name() string {
	return Name
}

func open(dir string, readOnly bool) (*badgerhold.Store, error) {
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil
	options.ReadOnly = readOnly

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return store, nil
}

// Write stores the manifest summary and every record in dir.
func (b *Backend) Write(ctx context.Context, dir string, manifest *domain.IndexManifest, records []domain.VectorRecord) error {
	store, err := open(dir, false)
	if err != nil {
		return err
	}
	defer store.Close()

	for start := 0; start < len(records); start += writeBatch {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+writeBatch, len(records))

		err := store.Badger().Update(func(tx *badger.Txn) error {
			for _, rec := range records[start:end] {
				stored := storedRecord{
					ID:        rec.ID,
					Text:      rec.Text,
					Source:    rec.Source,
					Position:  rec.Position,
					Embedding: rec.Embedding,
				}
				if err := store.TxUpsert(tx, rec.ID, &stored); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("store records %d-%d: %w", start, end, err)
		}
	}

	summary := storedManifest{
		BuildID:        manifest.BuildID,
		EmbeddingModel: manifest.EmbeddingModel,
		Dimensions:     manifest.Dimensions,
		RecordCount:    len(records),
	}
	if err := store.Upsert(manifestKey, &summary); err != nil {
		return fmt.Errorf("store manifest: %w", err)
	}
	return nil
}

// Read loads every record from dir ordered by position.
func (b *Backend) Read(ctx context.Context, dir string) ([]domain.VectorRecord, error) {
	store, err := open(dir, true)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	var summary storedManifest
	if err := store.Get(manifestKey, &summary); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: badger index has no manifest", domain.ErrIndexBuild)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var stored []storedRecord
	if err := store.Find(&stored, badgerhold.Where("ID").Ne("").SortBy("Position")); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	if len(stored) != summary.RecordCount {
		return nil, fmt.Errorf("%w: badger index holds %d records, manifest lists %d",
			domain.ErrIndexBuild, len(stored), summary.RecordCount)
	}

	records := make([]domain.VectorRecord, 0, len(stored))
	for _, s := range stored {
		records = append(records, domain.VectorRecord{
			ID:        s.ID,
			Text:      s.Text,
			Source:    s.Source,
			Position:  s.Position,
			Embedding: s.Embedding,
		})
	}
	return records, nil
}
