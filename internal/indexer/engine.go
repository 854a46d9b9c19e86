package indexer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hyperjump/docrag/internal/docid"
	"github.com/hyperjump/docrag/internal/embedding"
	"github.com/hyperjump/docrag/internal/models"
	"github.com/hyperjump/docrag/internal/storage"
	"github.com/hyperjump/docrag/internal/vector"
)

// Config holds engine settings.
type Config struct {
	// IndexPath is where the vector index is saved. Empty disables vector persistence.
	IndexPath string
	// CacheEmbeddings reuses the vectors already in the index when rebuilding
	// after a delete instead of re-embedding every remaining chunk.
	CacheEmbeddings bool
	// DefaultTopK is used when Search is called with topK <= 0.
	DefaultTopK int
	// MaxTopK caps topK. Zero means no cap beyond the index size.
	MaxTopK int
	// QueryCacheSize is the number of query embeddings kept for Search. Zero disables it.
	QueryCacheSize int
}

// Engine keeps the vector index and document metadata in step. The vector at
// position i always belongs to the chunk with chunk_id i. Add and delete are
// serialized; searches run concurrently with each other.
type Engine struct {
	mu       sync.RWMutex
	chunker  *Chunker
	embedder embedding.Embedder
	index    vector.VectorIndex
	backend  storage.MetadataBackend
	meta     *storage.Metadata
	cfg      Config

	// dirty is set when the in-memory state is ahead of disk.
	dirty bool

	queryCache *embedding.EmbeddingCache
	logger     *zap.Logger
	metrics    *engineMetrics
	newID      func() string
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics registers the engine metrics with reg.
func WithMetrics(reg prometheus.Registerer) EngineOption {
	return func(e *Engine) { e.metrics = newEngineMetrics(reg) }
}

// WithIDGenerator replaces the generator used for documents added without an id.
func WithIDGenerator(gen func() string) EngineOption {
	return func(e *Engine) { e.newID = gen }
}

// WithClock replaces the clock used for upload timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine with empty state. Call Load to restore persisted state.
func NewEngine(
	chunker *Chunker,
	embedder embedding.Embedder,
	index vector.VectorIndex,
	backend storage.MetadataBackend,
	cfg Config,
	opts ...EngineOption,
) (*Engine, error) {
	if embedder.Dimensions() != index.Dimensions() {
		return nil, fmt.Errorf("embedder produces %d dimensions, index expects %d: %w",
			embedder.Dimensions(), index.Dimensions(), models.ErrDimensionMismatch)
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 3
	}
	e := &Engine{
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		backend:    backend,
		meta:       storage.NewMetadata(),
		cfg:        cfg,
		queryCache: embedding.NewEmbeddingCache(cfg.QueryCacheSize),
		logger:     zap.NewNop(),
		newID:      docid.New,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = newEngineMetrics(prometheus.NewRegistry())
	}
	return e, nil
}

// Load restores metadata and vectors from disk. Missing files leave the
// engine empty. A vector count that differs from the chunk count is reported
// as ErrPersistence and nothing is loaded.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	meta, err := e.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("load metadata from %s: %w: %v", e.backend.Location(), models.ErrPersistence, err)
	}
	for i, c := range meta.Chunks {
		if c.ChunkID != i {
			return fmt.Errorf("chunk at position %d has chunk_id %d: %w", i, c.ChunkID, models.ErrPersistence)
		}
		if _, ok := meta.Documents[c.DocID]; !ok {
			return fmt.Errorf("chunk %d belongs to unknown document %q: %w", i, c.DocID, models.ErrPersistence)
		}
	}

	previous := e.index.Vectors()
	if err := e.index.Load(e.cfg.IndexPath); err != nil {
		return fmt.Errorf("load vector index from %s: %w: %v", e.cfg.IndexPath, models.ErrPersistence, err)
	}
	if e.index.Size() != meta.ChunkCount() {
		size := e.index.Size()
		_ = e.index.Rebuild(ctx, previous)
		return fmt.Errorf("vector index has %d entries but metadata has %d chunks: %w",
			size, meta.ChunkCount(), models.ErrPersistence)
	}

	meta.Renumber()
	e.meta = meta
	e.dirty = false
	e.queryCache.Purge()
	e.updateGauges()
	e.logger.Debug("engine loaded",
		zap.Int("documents", len(meta.Documents)),
		zap.Int("chunks", meta.ChunkCount()),
		zap.String("metadata", e.backend.Location()),
		zap.String("index", e.cfg.IndexPath))
	return nil
}

// AddDocument chunks, embeds and indexes input. If input.ID is empty a new id
// is generated. Nothing is committed when embedding fails. When the commit
// succeeds but saving to disk fails, the result is returned together with an
// ErrPersistence error.
func (e *Engine) AddDocument(ctx context.Context, input *models.DocumentInput) (result *models.AddResult, err error) {
	defer e.observe("add", time.Now(), &err)

	if strings.TrimSpace(input.Filename) == "" {
		return nil, fmt.Errorf("filename is required: %w", models.ErrInvalidInput)
	}
	if input.ID != "" {
		if err := docid.Validate(input.ID); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.flushDirty(ctx); err != nil {
		return nil, err
	}

	id := input.ID
	if id == "" {
		id = docid.NewUnique(e.newID, func(candidate string) bool {
			_, taken := e.meta.GetDocument(candidate)
			return taken
		})
	} else if _, taken := e.meta.GetDocument(id); taken {
		return nil, fmt.Errorf("doc_id %q: %w", id, models.ErrDuplicateID)
	}

	texts := e.chunker.Chunk(input.Content)
	vectors, err := e.embedAll(ctx, "add", texts)
	if err != nil {
		return nil, err
	}

	next := e.meta.Clone()
	ids := next.AppendChunks(id, texts)
	next.PutDocument(&models.Document{
		DocID:      id,
		Filename:   input.Filename,
		UploadedAt: e.now().UTC(),
		ChunkIDs:   ids,
	})
	if err := e.index.Add(ctx, vectors); err != nil {
		return nil, err
	}
	e.meta = next
	e.queryCache.Purge()
	e.updateGauges()

	result = &models.AddResult{DocID: id, ChunkCount: len(texts)}
	e.logger.Debug("document added",
		zap.String("doc_id", id),
		zap.String("filename", input.Filename),
		zap.Int("chunks", len(texts)))

	if err := e.persist(context.WithoutCancel(ctx)); err != nil {
		return result, err
	}
	return result, nil
}

// DeleteDocument removes a document and rebuilds the vector index from the
// remaining chunks so that chunk ids stay dense. Returns the number of chunks removed.
func (e *Engine) DeleteDocument(ctx context.Context, docID string) (removed int, err error) {
	defer e.observe("delete", time.Now(), &err)

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.flushDirty(ctx); err != nil {
		return 0, err
	}
	if _, ok := e.meta.GetDocument(docID); !ok {
		return 0, fmt.Errorf("doc_id %q: %w", docID, models.ErrNotFound)
	}

	next := e.meta.Clone()
	next.RemoveDocument(docID)
	removed = next.RemoveDocumentChunks(docID)

	var vectors [][]float32
	if e.cfg.CacheEmbeddings {
		current := e.index.Vectors()
		vectors = make([][]float32, len(next.Chunks))
		for i, c := range next.Chunks {
			vectors[i] = current[c.ChunkID]
		}
	} else {
		texts := make([]string, len(next.Chunks))
		for i, c := range next.Chunks {
			texts[i] = c.Text
		}
		vectors, err = e.embedAll(ctx, "rebuild", texts)
		if err != nil {
			return 0, err
		}
	}
	next.Renumber()

	if err := e.index.Rebuild(ctx, vectors); err != nil {
		return 0, err
	}
	e.meta = next
	e.queryCache.Purge()
	e.updateGauges()
	e.logger.Debug("document deleted",
		zap.String("doc_id", docID),
		zap.Int("removed_chunks", removed),
		zap.Int("remaining_chunks", len(vectors)),
		zap.Bool("reused_embeddings", e.cfg.CacheEmbeddings))

	if err := e.persist(context.WithoutCancel(ctx)); err != nil {
		return removed, err
	}
	return removed, nil
}

// Search embeds query and returns up to topK chunks ordered by squared L2
// distance, closest first. topK <= 0 uses the configured default. An empty
// index yields Found=false for any query, blank ones included, without
// calling the embedder.
func (e *Engine) Search(ctx context.Context, query string, topK int) (resp *models.SearchResponse, err error) {
	defer e.observe("search", time.Now(), &err)

	if e.Size() == 0 {
		return &models.SearchResponse{Found: false, Results: []*models.SearchResult{}}, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty: %w", models.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = e.cfg.DefaultTopK
	}
	if e.cfg.MaxTopK > 0 && topK > e.cfg.MaxTopK {
		topK = e.cfg.MaxTopK
	}

	qvec, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.index.Size() == 0 {
		return &models.SearchResponse{Found: false, Results: []*models.SearchResult{}}, nil
	}
	neighbors, err := e.index.Search(ctx, qvec, topK)
	if err != nil {
		return nil, err
	}
	results := make([]*models.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		chunk := e.meta.Chunks[n.Position]
		source := ""
		if doc, ok := e.meta.GetDocument(chunk.DocID); ok {
			source = doc.Filename
		}
		results = append(results, &models.SearchResult{
			Text:   chunk.Text,
			Source: source,
			Score:  n.Distance,
		})
	}
	return &models.SearchResponse{Found: true, Results: results}, nil
}

// ListDocuments returns copies of all documents ordered by upload time.
func (e *Engine) ListDocuments(ctx context.Context) []*models.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()

	docs := e.meta.ListDocuments()
	out := make([]*models.Document, len(docs))
	for i, d := range docs {
		cp := *d
		cp.ChunkIDs = append([]int{}, d.ChunkIDs...)
		out[i] = &cp
	}
	return out
}

// GetDocument returns a copy of the document with docID.
func (e *Engine) GetDocument(docID string) (*models.Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, ok := e.meta.GetDocument(docID)
	if !ok {
		return nil, fmt.Errorf("doc_id %q: %w", docID, models.ErrNotFound)
	}
	cp := *doc
	cp.ChunkIDs = append([]int{}, doc.ChunkIDs...)
	return &cp, nil
}

// Chunks returns copies of all chunks in index order.
func (e *Engine) Chunks() []models.Chunk {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.Chunk, len(e.meta.Chunks))
	for i, c := range e.meta.Chunks {
		out[i] = *c
	}
	return out
}

// Stats returns document, chunk and index counts.
func (e *Engine) Stats() models.IndexStats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return models.IndexStats{
		Documents:  len(e.meta.Documents),
		Chunks:     e.meta.ChunkCount(),
		VectorSize: e.index.Size(),
		Dimensions: e.index.Dimensions(),
	}
}

// Size returns the number of vectors in the index.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Size()
}

// Dirty reports whether the last save failed and disk is behind memory.
func (e *Engine) Dirty() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dirty
}

// Save writes the current state to disk.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persist(ctx)
}

// Close releases the index and metadata backend.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	indexErr := e.index.Close()
	backendErr := e.backend.Close()
	if indexErr != nil {
		return indexErr
	}
	return backendErr
}

// embedAll embeds texts one at a time. Any failure discards all results.
func (e *Engine) embedAll(ctx context.Context, purpose string, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	dim := e.index.Dimensions()
	for i, text := range texts {
		e.metrics.embeddingsTotal.WithLabelValues(purpose).Inc()
		vec, err := e.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w: %v", i, models.ErrEmbedding, err)
		}
		if len(vec) != dim {
			return nil, fmt.Errorf("embed chunk %d: got %d, expected %d: %w", i, len(vec), dim, models.ErrDimensionMismatch)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := e.queryCache.Get(query); ok {
		e.metrics.queryCacheHitsTotal.Inc()
		return vec, nil
	}
	e.metrics.embeddingsTotal.WithLabelValues("query").Inc()
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %v", models.ErrEmbedding, err)
	}
	if dim := e.index.Dimensions(); len(vec) != dim {
		return nil, fmt.Errorf("embed query: got %d, expected %d: %w", len(vec), dim, models.ErrDimensionMismatch)
	}
	e.queryCache.Set(query, vec)
	return vec, nil
}

// persist saves the vector index, then the metadata. Callers hold the write lock.
func (e *Engine) persist(ctx context.Context) error {
	if err := e.index.Save(e.cfg.IndexPath); err != nil {
		return e.persistFailed("vector index", err)
	}
	if err := e.backend.Save(ctx, e.meta); err != nil {
		return e.persistFailed("metadata", err)
	}
	e.dirty = false
	return nil
}

func (e *Engine) persistFailed(what string, err error) error {
	e.dirty = true
	e.metrics.persistFailuresTotal.Inc()
	e.logger.Error("failed to save "+what, zap.Error(err))
	return fmt.Errorf("save %s: %w: %v", what, models.ErrPersistence, err)
}

// flushDirty retries the save left over from a failed mutation.
func (e *Engine) flushDirty(ctx context.Context) error {
	if !e.dirty {
		return nil
	}
	e.logger.Debug("retrying save of unsaved state")
	return e.persist(context.WithoutCancel(ctx))
}

func (e *Engine) updateGauges() {
	e.metrics.documents.Set(float64(len(e.meta.Documents)))
	e.metrics.chunks.Set(float64(e.meta.ChunkCount()))
}

func (e *Engine) observe(op string, start time.Time, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = "error"
	}
	e.metrics.operationsTotal.WithLabelValues(op, outcome).Inc()
	e.metrics.operationDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
