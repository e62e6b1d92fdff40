package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"cultura/internal/adapter/memstore"
	"cultura/internal/domain"
	"cultura/internal/port"
)

// Replace rewrites the chunks bucket in a single transaction and then swaps
// the in-memory snapshot. Searches running meanwhile see the old snapshot.
func (s *BoltVectorIndex) Replace(ctx context.Context, items []port.VectorItem, meta port.IndexMeta) error {
	if s.readOnly {
		return ErrReadOnly
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	meta.SchemaVersion = CurrentSchemaVersion
	snap, err := memstore.NewSnapshot(items, meta)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketChunks); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bucketChunks)
		if err != nil {
			return err
		}

		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := json.Marshal(storedChunk{
				ID:       item.Chunk.ID,
				Text:     item.Chunk.Text,
				Culture:  item.Chunk.Culture,
				Category: item.Chunk.Category,
				Vector:   item.Vector,
			})
			if err != nil {
				return err
			}
			if err := b.Put(ordinalKey(item.Chunk.Ordinal), data); err != nil {
				return err
			}
		}

		metaData, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyIndexMeta, metaData)
	})
	if err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}

	s.snap.Store(snap)
	return nil
}

// Search finds the k nearest chunks of culture using cosine similarity.
func (s *BoltVectorIndex) Search(ctx context.Context, query []float32, culture string, k int) ([]domain.ScoredChunk, error) {
	return s.snap.Load().Search(query, culture, k)
}

// Count returns the number of chunks in the current snapshot.
func (s *BoltVectorIndex) Count(ctx context.Context) (int, error) {
	return s.snap.Load().Len(), nil
}

func (s *BoltVectorIndex) Meta(ctx context.Context) (port.IndexMeta, error) {
	return s.snap.Load().Meta(), nil
}

func (c storedChunk) chunk(ordinal int) domain.Chunk {
	return domain.Chunk{
		ID:       c.ID,
		Text:     c.Text,
		Culture:  c.Culture,
		Category: c.Category,
		Ordinal:  ordinal,
	}
}
