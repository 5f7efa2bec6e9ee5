package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/schemarag/internal/core/domain"
)

// IndexHandle is a loaded, immutable vector index.
// It is safe for concurrent queries without locking.
type IndexHandle struct {
	records    []domain.VectorRecord
	norms      []float64
	dimensions int
	manifest   *domain.IndexManifest
}

// NewIndexHandle builds a handle over records, ordered by chunk position.
// All embeddings must share one dimension.
func NewIndexHandle(manifest *domain.IndexManifest, records []domain.VectorRecord) (*IndexHandle, error) {
	sorted := make([]domain.VectorRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	h := &IndexHandle{
		records:  sorted,
		norms:    make([]float64, len(sorted)),
		manifest: manifest,
	}

	for i, rec := range sorted {
		if i == 0 {
			h.dimensions = len(rec.Embedding)
		} else if len(rec.Embedding) != h.dimensions {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, expected %d",
				domain.ErrIndexBuild, rec.ID, len(rec.Embedding), h.dimensions)
		}
		h.norms[i] = norm(rec.Embedding)
	}

	return h, nil
}

// Len returns the number of records.
func (h *IndexHandle) Len() int {
	return len(h.records)
}

// Dimensions returns the embedding dimension, or 0 for an empty index.
func (h *IndexHandle) Dimensions() int {
	return h.dimensions
}

// Manifest returns the manifest the handle was loaded with (may be nil).
func (h *IndexHandle) Manifest() *domain.IndexManifest {
	return h.manifest
}

// Search returns up to k passages by descending cosine similarity.
// Ties keep chunk position order. An empty index yields an empty result.
func (h *IndexHandle) Search(query []float32, k int) ([]domain.RetrievedPassage, error) {
	if len(h.records) == 0 || k <= 0 {
		return []domain.RetrievedPassage{}, nil
	}
	if len(query) != h.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, index has %d", len(query), h.dimensions)
	}

	queryNorm := norm(query)
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(h.records))
	for i, rec := range h.records {
		scores[i] = scored{idx: i, score: cosine(query, rec.Embedding, queryNorm, h.norms[i])}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}

	passages := make([]domain.RetrievedPassage, k)
	for i := 0; i < k; i++ {
		rec := h.records[scores[i].idx]
		passages[i] = domain.RetrievedPassage{
			Text:     rec.Text,
			Source:   rec.Source,
			Position: rec.Position,
			Score:    scores[i].score,
		}
	}
	return passages, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
