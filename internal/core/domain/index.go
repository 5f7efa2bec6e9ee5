package domain

import "time"

// IndexState is the lifecycle state of the vector index
type IndexState string

const (
	// IndexStateAbsent means no persisted index exists
	IndexStateAbsent IndexState = "absent"
	// IndexStatePresent means a persisted index exists but is not loaded
	IndexStatePresent IndexState = "present"
	// IndexStateReady means the index is loaded and queryable
	IndexStateReady IndexState = "ready"
	// IndexStateFailed means building or loading the index failed
	IndexStateFailed IndexState = "failed"
)

// IsTerminal returns true if no further transition applies
func (s IndexState) IsTerminal() bool {
	return s == IndexStateReady || s == IndexStateFailed
}

// VectorRecord is a persisted chunk with its embedding.
type VectorRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"`
	Position  int       `json:"position"`
	Embedding []float32 `json:"embedding"`
}

// IndexManifest describes how a persisted index was built.
type IndexManifest struct {
	BuildID        string    `json:"build_id"`
	EmbeddingModel string    `json:"embedding_model"`
	Dimensions     int       `json:"dimensions"`
	ChunkSize      int       `json:"chunk_size"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	RecordCount    int       `json:"record_count"`
	Sources        []string  `json:"sources"`
	CreatedAt      time.Time `json:"created_at"`
}

// IndexStatus is a point-in-time view of the index lifecycle.
type IndexStatus struct {
	State         IndexState     `json:"state"`
	StorageExists bool           `json:"storage_exists"`
	Location      string         `json:"location"`
	Manifest      *IndexManifest `json:"manifest,omitempty"`
	Error         string         `json:"error,omitempty"`
}
