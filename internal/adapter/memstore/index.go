// Package memstore holds knowledge index snapshots in memory. A snapshot is
// immutable once built, so any number of searches may share it.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"cultura/internal/domain"
	"cultura/internal/port"
)

// Snapshot is an immutable set of chunks and vectors grouped by culture.
type Snapshot struct {
	meta      port.IndexMeta
	byCulture map[string][]port.VectorItem
	count     int
}

// NewSnapshot groups items by culture, keeping them in ordinal order.
func NewSnapshot(items []port.VectorItem, meta port.IndexMeta) (*Snapshot, error) {
	s := &Snapshot{
		meta:      meta,
		byCulture: make(map[string][]port.VectorItem),
		count:     len(items),
	}

	for _, item := range items {
		if len(item.Vector) != meta.Dimension {
			return nil, fmt.Errorf("chunk %s: %w: expected %d, got %d", item.Chunk.ID, port.ErrDimensionMismatch, meta.Dimension, len(item.Vector))
		}
		s.byCulture[item.Chunk.Culture] = append(s.byCulture[item.Chunk.Culture], item)
	}
	for _, group := range s.byCulture {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Chunk.Ordinal < group[j].Chunk.Ordinal
		})
	}

	return s, nil
}

// Search scores every chunk of culture against query by cosine similarity.
func (s *Snapshot) Search(query []float32, culture string, k int) ([]domain.ScoredChunk, error) {
	if s == nil || k <= 0 {
		return nil, nil
	}

	group := s.byCulture[culture]
	if len(group) == 0 {
		return nil, nil
	}

	if len(query) != s.meta.Dimension {
		return nil, fmt.Errorf("query: %w: expected %d, got %d", port.ErrDimensionMismatch, s.meta.Dimension, len(query))
	}

	scores := make([]domain.ScoredChunk, len(group))
	for i, item := range group {
		scores[i] = domain.ScoredChunk{
			Chunk: item.Chunk,
			Score: CosineSimilarity(query, item.Vector),
		}
	}

	// group is in ordinal order, so a stable sort breaks ties by ordinal
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return s.count
}

func (s *Snapshot) Meta() port.IndexMeta {
	if s == nil {
		return port.IndexMeta{}
	}
	return s.meta
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// VectorIndex is a non-persistent port.VectorIndex.
type VectorIndex struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

func (v *VectorIndex) Replace(ctx context.Context, items []port.VectorItem, meta port.IndexMeta) error {
	snap, err := NewSnapshot(items, meta)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.snap = snap
	v.mu.Unlock()
	return nil
}

func (v *VectorIndex) current() *Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snap
}

func (v *VectorIndex) Search(ctx context.Context, query []float32, culture string, k int) ([]domain.ScoredChunk, error) {
	return v.current().Search(query, culture, k)
}

func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	return v.current().Len(), nil
}

func (v *VectorIndex) Meta(ctx context.Context) (port.IndexMeta, error) {
	return v.current().Meta(), nil
}

func (v *VectorIndex) Close() error {
	return nil
}
