package port

import (
	"context"

	"cultura/internal/domain"
)

// KnowledgeStore indexes culture-tagged passages and answers
// culture-filtered similarity queries.
type KnowledgeStore interface {
	// Build replaces the whole index with chunks derived from passages.
	Build(ctx context.Context, passages []domain.KnowledgePassage) (domain.BuildStats, error)

	// Query returns up to k chunk texts of the given culture, most similar
	// first. An index with no chunks for culture yields an empty result.
	Query(ctx context.Context, text, culture string, k int) ([]string, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	Close() error
}
