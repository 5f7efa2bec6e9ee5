package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/schemarag/internal/core/domain"
	"github.com/custodia-labs/schemarag/internal/core/ports/driven"
	"github.com/custodia-labs/schemarag/internal/core/ports/driving"
)

// Ensure IndexManager implements IndexService
var _ driving.IndexService = (*IndexManager)(nil)

// BuildLockName is the distributed lock held while the index is built.
const BuildLockName = "index-build"

// recordNamespace scopes deterministic record IDs.
var recordNamespace = uuid.MustParse("6f1c1d2e-8a4b-4e0f-9b1a-3c7d5e2f4a10")

// CorpusSource loads the corpus to index.
type CorpusSource interface {
	Load(ctx context.Context, dir string) (*domain.Corpus, error)
}

// IndexManager drives the index lifecycle: absent -> present -> ready, or failed.
// A persisted index is always reused; the corpus is embedded only when none exists.
type IndexManager struct {
	storage  driven.IndexStorage
	corpus   CorpusSource
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	lock     driven.DistributedLock
	runtime  *domain.RuntimeConfig
	logger   *slog.Logger

	sourceDir    string
	batchSize    int
	chunkSize    int
	chunkOverlap int
	lockTTL      time.Duration
	lockWait     time.Duration
	pollInterval time.Duration

	mu      sync.Mutex
	handle  *IndexHandle
	status  domain.IndexStatus
	failure error
}

// IndexManagerConfig holds configuration for the index manager.
type IndexManagerConfig struct {
	Storage      driven.IndexStorage
	Corpus       CorpusSource
	Pipeline     driven.PostProcessorPipeline
	Embedder     driven.EmbeddingService
	Lock         driven.DistributedLock // Optional: coordinates builds across instances
	Runtime      *domain.RuntimeConfig  // Optional: receives status updates
	Logger       *slog.Logger
	SourceDir    string
	BatchSize    int           // Texts per embedding call (default: 32)
	ChunkSize    int           // Recorded in the manifest
	ChunkOverlap int           // Recorded in the manifest
	LockTTL      time.Duration // Build lock TTL (default: 30m)
	LockWait     time.Duration // How long to wait for another builder (default: 10m)
	PollInterval time.Duration // How often to check for another builder's index (default: 2s)
}

// NewIndexManager creates a new index manager.
func NewIndexManager(cfg IndexManagerConfig) *IndexManager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 30 * time.Minute
	}

	lockWait := cfg.LockWait
	if lockWait == 0 {
		lockWait = 10 * time.Minute
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 2 * time.Second
	}

	return &IndexManager{
		storage:      cfg.Storage,
		corpus:       cfg.Corpus,
		pipeline:     cfg.Pipeline,
		embedder:     cfg.Embedder,
		lock:         cfg.Lock,
		runtime:      cfg.Runtime,
		logger:       logger,
		sourceDir:    cfg.SourceDir,
		batchSize:    batchSize,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		lockTTL:      lockTTL,
		lockWait:     lockWait,
		pollInterval: pollInterval,
		status: domain.IndexStatus{
			State:    domain.IndexStateAbsent,
			Location: cfg.Storage.Location(),
		},
	}
}

// EnsureReady brings the index to the ready state.
// A failed attempt is final for the process: later calls return the same error.
func (m *IndexManager) EnsureReady(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		return nil
	}
	if m.failure != nil {
		return m.failure
	}

	state, err := m.observe(ctx)
	m.publish(state, err)

	for err == nil && !state.IsTerminal() {
		state, err = m.step(ctx, state)
		m.publish(state, err)
	}

	if err != nil {
		m.failure = err
		m.logger.Error("index not ready", "location", m.status.Location, "error", err)
		return err
	}

	m.logger.Info("index ready",
		"location", m.status.Location,
		"records", m.handle.Len(),
		"dimensions", m.handle.Dimensions(),
	)
	return nil
}

// Handle returns the loaded index, or nil before EnsureReady succeeds.
func (m *IndexManager) Handle() *IndexHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Status returns the current index status.
func (m *IndexManager) Status(ctx context.Context) domain.IndexStatus {
	m.mu.Lock()
	status := m.status
	m.mu.Unlock()

	if status.State != domain.IndexStateReady {
		if exists, err := m.storage.Exists(ctx); err == nil {
			status.StorageExists = exists
		}
	}
	return status
}

// observe maps what is on storage to the starting state.
func (m *IndexManager) observe(ctx context.Context) (domain.IndexState, error) {
	exists, err := m.storage.Exists(ctx)
	if err != nil {
		return domain.IndexStateFailed, fmt.Errorf("%w: check index storage: %v", domain.ErrIndexBuild, err)
	}
	if exists {
		return domain.IndexStatePresent, nil
	}
	return domain.IndexStateAbsent, nil
}

// step is the single transition function of the index lifecycle.
func (m *IndexManager) step(ctx context.Context, state domain.IndexState) (domain.IndexState, error) {
	switch state {
	case domain.IndexStateAbsent:
		if err := m.build(ctx); err != nil {
			return domain.IndexStateFailed, err
		}
		return domain.IndexStatePresent, nil

	case domain.IndexStatePresent:
		if err := m.load(ctx); err != nil {
			return domain.IndexStateFailed, err
		}
		return domain.IndexStateReady, nil

	default:
		return state, nil
	}
}

func (m *IndexManager) publish(state domain.IndexState, err error) {
	m.status.State = state
	m.status.StorageExists = state == domain.IndexStatePresent || state == domain.IndexStateReady
	m.status.Error = ""
	if err != nil {
		m.status.Error = err.Error()
	}
	if m.handle != nil {
		m.status.Manifest = m.handle.Manifest()
	}
	if m.runtime != nil {
		m.runtime.SetIndexStatus(m.status)
	}
}

// build embeds the corpus and persists a new index.
// Returns nil without building when another instance produced the index meanwhile.
func (m *IndexManager) build(ctx context.Context) error {
	release, built, err := m.acquireBuildLock(ctx)
	if err != nil {
		return err
	}
	if built {
		return nil
	}
	defer release()

	// Another instance may have finished between observe and acquire.
	exists, err := m.storage.Exists(ctx)
	if err != nil {
		return fmt.Errorf("%w: check index storage: %v", domain.ErrIndexBuild, err)
	}
	if exists {
		m.logger.Info("index appeared while acquiring build lock, reusing it")
		return nil
	}

	start := time.Now()
	m.logger.Info("building index", "source_dir", m.sourceDir, "location", m.storage.Location())

	corpus, err := m.corpus.Load(ctx, m.sourceDir)
	if err != nil {
		return err
	}

	chunks := m.pipeline.Process(corpus.Text)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: corpus produced no chunks", domain.ErrCorpusUnavailable)
	}
	for i := range chunks {
		chunks[i].Source = corpus.SourceAt(chunks[i].StartOffset)
	}
	m.logger.Info("corpus chunked", "documents", len(corpus.Documents), "chunks", len(chunks))

	records, err := m.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	manifest := &domain.IndexManifest{
		BuildID:        uuid.NewString(),
		EmbeddingModel: m.embedder.Model(),
		Dimensions:     len(records[0].Embedding),
		ChunkSize:      m.chunkSize,
		ChunkOverlap:   m.chunkOverlap,
		RecordCount:    len(records),
		Sources:        corpus.Filenames(),
		CreatedAt:      time.Now().UTC(),
	}

	if err := m.storage.Save(ctx, manifest, records); err != nil {
		return fmt.Errorf("%w: persist index: %v", domain.ErrIndexBuild, err)
	}

	m.logger.Info("index built",
		"build_id", manifest.BuildID,
		"records", manifest.RecordCount,
		"duration", time.Since(start),
	)
	return nil
}

func (m *IndexManager) embedChunks(ctx context.Context, chunks []domain.TextChunk) ([]domain.VectorRecord, error) {
	records := make([]domain.VectorRecord, 0, len(chunks))
	dimensions := 0

	for batchStart := 0; batchStart < len(chunks); batchStart += m.batchSize {
		batchEnd := batchStart + m.batchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		batch := chunks[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := m.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embed chunks %d-%d: %v", domain.ErrIndexBuild, batchStart, batchEnd-1, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: embedding service returned %d vectors for %d chunks",
				domain.ErrIndexBuild, len(vectors), len(batch))
		}

		for i, chunk := range batch {
			vec := vectors[i]
			if dimensions == 0 {
				dimensions = len(vec)
			}
			if len(vec) == 0 || len(vec) != dimensions {
				return nil, fmt.Errorf("%w: chunk %d embedded with %d dimensions, expected %d",
					domain.ErrIndexBuild, chunk.Position, len(vec), dimensions)
			}
			records = append(records, domain.VectorRecord{
				ID:        RecordID(chunk),
				Text:      chunk.Text,
				Source:    chunk.Source,
				Position:  chunk.Position,
				Embedding: vec,
			})
		}

		if m.lock != nil {
			if err := m.lock.Extend(ctx, BuildLockName, m.lockTTL); err != nil {
				m.logger.Warn("failed to extend build lock", "error", err)
			}
		}

		m.logger.Debug("embedded batch", "from", batchStart, "to", batchEnd, "total", len(chunks))
	}

	return records, nil
}

// acquireBuildLock takes the build lock, waiting while another instance builds.
// built is true when the index appeared while waiting.
func (m *IndexManager) acquireBuildLock(ctx context.Context) (release func(), built bool, err error) {
	noop := func() {}
	if m.lock == nil {
		return noop, false, nil
	}

	release = func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.lock.Release(releaseCtx, BuildLockName); err != nil {
			m.logger.Warn("failed to release build lock", "error", err)
		}
	}

	deadline := time.Now().Add(m.lockWait)
	waiting := false

	for {
		acquired, err := m.lock.Acquire(ctx, BuildLockName, m.lockTTL)
		if err != nil {
			return noop, false, fmt.Errorf("%w: acquire build lock: %v", domain.ErrIndexBuild, err)
		}
		if acquired {
			return release, false, nil
		}

		if !waiting {
			m.logger.Info("another instance is building the index, waiting", "max_wait", m.lockWait)
			waiting = true
		}

		exists, err := m.storage.Exists(ctx)
		if err != nil {
			return noop, false, fmt.Errorf("%w: check index storage: %v", domain.ErrIndexBuild, err)
		}
		if exists {
			return noop, true, nil
		}

		if time.Now().After(deadline) {
			return noop, false, fmt.Errorf("%w: %w after %s", domain.ErrIndexBuild, domain.ErrLockNotAcquired, m.lockWait)
		}

		select {
		case <-ctx.Done():
			return noop, false, ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
}

// load reads the persisted index and checks it matches the embedding service.
func (m *IndexManager) load(ctx context.Context) error {
	manifest, records, err := m.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: load index: %v", domain.ErrIndexBuild, err)
	}

	if manifest != nil {
		if manifest.EmbeddingModel != "" && manifest.EmbeddingModel != m.embedder.Model() {
			return fmt.Errorf("%w: index built with %q, configured model is %q",
				domain.ErrIndexIncompatible, manifest.EmbeddingModel, m.embedder.Model())
		}
		if dims := m.embedder.Dimensions(); dims > 0 && manifest.Dimensions > 0 && manifest.Dimensions != dims {
			return fmt.Errorf("%w: index has %d dimensions, embedding service produces %d",
				domain.ErrIndexIncompatible, manifest.Dimensions, dims)
		}
		if manifest.RecordCount != len(records) {
			return fmt.Errorf("%w: manifest lists %d records, storage holds %d",
				domain.ErrIndexBuild, manifest.RecordCount, len(records))
		}
	}

	handle, err := NewIndexHandle(manifest, records)
	if err != nil {
		return err
	}

	m.handle = handle
	return nil
}

// RecordID derives a stable record ID from a chunk's position and text.
func RecordID(chunk domain.TextChunk) string {
	return uuid.NewSHA1(recordNamespace, []byte(strconv.Itoa(chunk.Position)+"\x00"+chunk.Text)).String()
}

// IsIndexFailure reports whether err came from the index lifecycle.
func IsIndexFailure(err error) bool {
	return errors.Is(err, domain.ErrIndexBuild) ||
		errors.Is(err, domain.ErrCorpusUnavailable) ||
		errors.Is(err, domain.ErrIndexIncompatible)
}
