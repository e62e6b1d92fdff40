package port

import (
	"context"

	"cultura/internal/domain"
)

// VectorIndex stores chunk embeddings and searches them by culture.
type VectorIndex interface {
	// Replace swaps the whole index contents for items as one unit.
	Replace(ctx context.Context, items []VectorItem, meta IndexMeta) error

	// Search finds the k chunks of culture nearest to query, highest score
	// first, ties broken by chunk ordinal.
	Search(ctx context.Context, query []float32, culture string, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Meta describes how the current contents were built.
	Meta(ctx context.Context) (IndexMeta, error)

	Close() error
}

// VectorItem is a chunk with its embedding.
type VectorItem struct {
	Chunk  domain.Chunk
	Vector []float32
}

// IndexMeta records the settings an index was built with. A query embedder
// must match EmbeddingModel and Dimension for scores to be meaningful.
type IndexMeta struct {
	SchemaVersion  int    `json:"schema_version"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
	ChunkConfig    string `json:"chunk_config"`
}
