package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cultura/internal/adapter/store"
	"cultura/internal/domain"
	"cultura/internal/port"
)

// KnowledgeOptions tunes how a KnowledgeStore embeds chunks.
type KnowledgeOptions struct {
	BatchSize   int
	Concurrency int
	Timeout     time.Duration
	// ChunkConfig identifies the chunking parameters; a change forces a rebuild.
	ChunkConfig string
	Logger      *slog.Logger
}

// KnowledgeStore chunks and embeds passages into a vector index and answers
// culture-filtered similarity queries against it.
type KnowledgeStore struct {
	chunker  port.Chunker
	embedder port.Embedder
	index    port.VectorIndex
	opts     KnowledgeOptions
	logger   *slog.Logger

	buildMu   sync.Mutex
	onRebuild []func()
}

var _ port.KnowledgeStore = (*KnowledgeStore)(nil)

func NewKnowledgeStore(
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
	opts KnowledgeOptions,
) *KnowledgeStore {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgeStore{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		opts:     opts,
		logger:   logger,
	}
}

// OnRebuild registers fn to run after every successful Build.
func (s *KnowledgeStore) OnRebuild(fn func()) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	s.onRebuild = append(s.onRebuild, fn)
}

// Build replaces the index with the chunks of passages. On error the
// previous index stays in place.
func (s *KnowledgeStore) Build(ctx context.Context, passages []domain.KnowledgePassage) (domain.BuildStats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	chunks := s.chunkAll(passages)

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return domain.BuildStats{}, err
	}

	items := make([]port.VectorItem, len(chunks))
	cultures := make(map[string]struct{})
	for i, c := range chunks {
		items[i] = port.VectorItem{Chunk: c, Vector: vectors[i]}
		cultures[c.Culture] = struct{}{}
	}

	if err := s.index.Replace(ctx, items, s.wantMeta()); err != nil {
		return domain.BuildStats{}, fmt.Errorf("failed to replace index: %w", err)
	}

	for _, fn := range s.onRebuild {
		fn()
	}

	stats := domain.BuildStats{
		Passages: len(passages),
		Chunks:   len(chunks),
		Cultures: len(cultures),
	}
	s.logger.Info("knowledge index built",
		"passages", stats.Passages, "chunks", stats.Chunks, "cultures", stats.Cultures,
		"embedding_model", s.embedder.ModelName())
	return stats, nil
}

func (s *KnowledgeStore) chunkAll(passages []domain.KnowledgePassage) []domain.Chunk {
	var all []domain.Chunk
	for i, p := range passages {
		for _, c := range s.chunker.Chunk(p, i) {
			c.Ordinal = len(all)
			all = append(all, c)
		}
	}
	return all
}

// embedChunks embeds chunk texts in batches. Batches run concurrently and
// write into disjoint slots of the result.
func (s *KnowledgeStore) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for start := 0; start < len(chunks); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(chunks))

		texts := make([]string, end-start)
		for i, c := range chunks[start:end] {
			texts[i] = c.Text
		}

		g.Go(func() error {
			ectx, cancel := s.withTimeout(gctx)
			defer cancel()

			embeddings, err := s.embedder.Embed(ectx, texts)
			if err != nil {
				return fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, err)
			}
			if len(embeddings) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(texts))
			}
			copy(vectors[start:end], embeddings)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Query returns up to k passages of culture ordered by similarity to text.
func (s *KnowledgeStore) Query(ctx context.Context, text, culture string, k int) ([]string, error) {
	if k <= 0 || culture == "" {
		return nil, nil
	}

	n, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count index: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	ectx, cancel := s.withTimeout(ctx)
	defer cancel()

	embeddings, err := s.embedder.Embed(ectx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(embeddings))
	}

	results, err := s.index.Search(ctx, embeddings[0], culture, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	return texts, nil
}

func (s *KnowledgeStore) Count(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}

// NeedsRebuild reports whether the persisted index was built with a
// different embedding model, dimension or chunking configuration.
func (s *KnowledgeStore) NeedsRebuild(ctx context.Context) (store.MigrationResult, error) {
	meta, err := s.index.Meta(ctx)
	if err != nil {
		return store.MigrationResult{}, fmt.Errorf("failed to read index metadata: %w", err)
	}
	return store.CheckMigration(meta, s.wantMeta()), nil
}

func (s *KnowledgeStore) Close() error {
	return s.index.Close()
}

func (s *KnowledgeStore) wantMeta() port.IndexMeta {
	return port.IndexMeta{
		SchemaVersion:  store.CurrentSchemaVersion,
		EmbeddingModel: s.embedder.ModelName(),
		Dimension:      s.embedder.Dimension(),
		ChunkConfig:    s.opts.ChunkConfig,
	}
}

func (s *KnowledgeStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(ctx, s.opts.Timeout)
	}
	return context.WithCancel(ctx)
}
