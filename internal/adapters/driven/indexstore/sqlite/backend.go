// Package sqlite stores vector records in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/schemarag/internal/adapters/driven/indexstore"
	"github.com/custodia-labs/schemarag/internal/core/domain"
)

var _ indexstore.Backend = (*Backend)(nil)

// Name is the backend identifier recorded in the index manifest.
const Name = "sqlite"

// FileName is the database file inside the index directory.
const FileName = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS manifest (
	build_id        TEXT NOT NULL,
	embedding_model TEXT NOT NULL,
	dimensions      INTEGER NOT NULL,
	record_count    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS records (
	id        TEXT PRIMARY KEY,
	position  INTEGER NOT NULL,
	source    TEXT NOT NULL DEFAULT '',
	text      TEXT NOT NULL,
	embedding BLOB NOT NULL
);
`

// Backend writes one SQLite database per index directory.
type Backend struct{}

// New creates a sqlite backend.
func New() *Backend {
	return &Backend{}
}

// Name returns "sqlite".
func (b *Backend) Name() string {
	return Name
}

func open(dir string) (*sql.DB, error) {
	dbPath := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Write creates the schema and inserts every record in one transaction.
func (b *Backend) Write(ctx context.Context, dir string, manifest *domain.IndexManifest, records []domain.VectorRecord) error {
	db, err := open(dir)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, position, source, text, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Position, rec.Source, rec.Text,
			float32SliceToBytes(rec.Embedding)); err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO manifest (build_id, embedding_model, dimensions, record_count) VALUES (?, ?, ?, ?)`,
		manifest.BuildID, manifest.EmbeddingModel, manifest.Dimensions, len(records)); err != nil {
		return fmt.Errorf("inserting manifest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// Read loads every record from dir ordered by position.
func (b *Backend) Read(ctx context.Context, dir string) ([]domain.VectorRecord, error) {
	db, err := open(dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var recordCount int
	err = db.QueryRowContext(ctx, `SELECT record_count FROM manifest LIMIT 1`).Scan(&recordCount)
	if errors.Is(err, sql.ErrNoRows) || (err != nil && strings.Contains(err.Error(), "no such table")) {
		return nil, fmt.Errorf("%w: sqlite index has no manifest", domain.ErrIndexBuild)
	}
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, position, source, text, embedding FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.VectorRecord, 0, recordCount)
	for rows.Next() {
		var (
			rec       domain.VectorRecord
			embedding []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Position, &rec.Source, &rec.Text, &embedding); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Embedding = bytesToFloat32Slice(embedding)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	if len(records) != recordCount {
		return nil, fmt.Errorf("%w: sqlite index holds %d records, manifest lists %d",
			domain.ErrIndexBuild, len(records), recordCount)
	}
	return records, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return []byte{}
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
