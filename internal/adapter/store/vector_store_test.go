package store

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"cultura/internal/domain"
	"cultura/internal/port"
)

func testItems() []port.VectorItem {
	mk := func(ordinal int, culture, text string, vec ...float32) port.VectorItem {
		return port.VectorItem{
			Chunk:  domain.Chunk{ID: text, Text: text, Culture: culture, Category: "general", Ordinal: ordinal},
			Vector: vec,
		}
	}
	return []port.VectorItem{
		mk(0, "japanese", "bow deeply", 1, 0, 0),
		mk(1, "chinese", "save face", 0, 1, 0),
		mk(2, "japanese", "exchange cards with both hands", 0.6, 0.8, 0),
	}
}

func testMeta() port.IndexMeta {
	return port.IndexMeta{EmbeddingModel: "hash", Dimension: 3, ChunkConfig: "chars=500,overlap=50"}
}

func TestBoltVectorIndexPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "knowledge.db")

	idx, err := Open(path, Options{})
	require.NoError(t, err)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, idx.Replace(ctx, testItems(), testMeta()))
	require.NoError(t, idx.Close())

	reopened, err := Open(path, Options{})
	require.NoError(t, err)
	defer reopened.Close()

	n, err = reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	meta, err := reopened.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, meta.SchemaVersion)
	assert.Equal(t, "hash", meta.EmbeddingModel)

	results, err := reopened.Search(ctx, []float32{1, 0, 0}, "japanese", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "bow deeply", results[0].Chunk.Text)
	assert.Equal(t, "exchange cards with both hands", results[1].Chunk.Text)
	assert.Equal(t, 2, results[1].Chunk.Ordinal)
}

func TestBoltVectorIndexReadersShareFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "knowledge.db")

	idx, err := Open(path, Options{})
	require.NoError(t, err)
	require.NoError(t, idx.Replace(ctx, testItems(), testMeta()))
	require.NoError(t, idx.Close())

	first, err := Open(path, Options{ReadOnly: true, LockTimeout: time.Second})
	require.NoError(t, err)
	defer first.Close()

	opened := make(chan error, 1)
	go func() {
		second, err := Open(path, Options{ReadOnly: true, LockTimeout: time.Second})
		if err == nil {
			defer second.Close()
			var results []domain.ScoredChunk
			results, err = second.Search(ctx, []float32{1, 0, 0}, "japanese", 1)
			if err == nil && len(results) != 1 {
				err = assert.AnError
			}
		}
		opened <- err
	}()

	select {
	case err := <-opened:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second reader blocked while the first held the file")
	}

	assert.ErrorIs(t, first.Replace(ctx, testItems(), testMeta()), ErrReadOnly)

	n, err := first.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBoltVectorIndexWriterTimesOutWhileReadHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.db")

	idx, err := Open(path, Options{})
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	reader, err := Open(path, Options{ReadOnly: true})
	require.NoError(t, err)
	defer reader.Close()

	start := time.Now()
	_, err = Open(path, Options{LockTimeout: 100 * time.Millisecond})
	assert.ErrorIs(t, err, bbolt.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBoltVectorIndexReadOnlyRequiresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := Open(path, Options{ReadOnly: true, LockTimeout: time.Second})
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, fs.ErrNotExist, "a read-only open must not create the file")
}

func TestBoltVectorIndexReplaceDropsOldChunks(t *testing.T) {
	ctx := context.Background()

	idx, err := Open(filepath.Join(t.TempDir(), "knowledge.db"), Options{})
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Replace(ctx, testItems(), testMeta()))
	require.NoError(t, idx.Replace(ctx, testItems()[1:2], testMeta()))

	results, err := idx.Search(ctx, []float32{1, 0, 0}, "japanese", 3)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = idx.Search(ctx, []float32{0, 1, 0}, "chinese", 3)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestBoltVectorIndexRejectsBadDimension(t *testing.T) {
	ctx := context.Background()

	idx, err := Open(filepath.Join(t.TempDir(), "knowledge.db"), Options{})
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Replace(ctx, testItems(), testMeta()))

	meta := testMeta()
	meta.Dimension = 4
	err = idx.Replace(ctx, testItems(), meta)
	assert.ErrorIs(t, err, port.ErrDimensionMismatch)

	// the failed replace leaves the previous index in place
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCheckMigration(t *testing.T) {
	want := testMeta()
	want.SchemaVersion = CurrentSchemaVersion

	assert.True(t, CheckMigration(port.IndexMeta{}, want).NeedsRebuild)
	assert.False(t, CheckMigration(want, want).NeedsRebuild)

	newer := want
	newer.SchemaVersion = CurrentSchemaVersion + 1
	assert.True(t, CheckMigration(newer, want).NeedsRebuild)

	otherModel := want
	otherModel.EmbeddingModel = "text-embedding-3-small"
	res := CheckMigration(otherModel, want)
	assert.True(t, res.NeedsRebuild)
	assert.Contains(t, res.Reason, "embedding changed")

	otherChunks := want
	otherChunks.ChunkConfig = "chars=200,overlap=20"
	assert.True(t, CheckMigration(otherChunks, want).NeedsRebuild)
}
