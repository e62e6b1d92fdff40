package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cultura/internal/adapter/cache"
	"cultura/internal/adapter/embedding"
	"cultura/internal/adapter/memstore"
	"cultura/internal/domain"
	"cultura/internal/observe"
)

func TestRetrieverReturnsStorePassages(t *testing.T) {
	store := &fakeStore{passages: []string{"a", "b", "c", "d"}}
	r := NewRetriever(store, nil, 0, quietLogger(), observe.NopMetrics())

	assert.Equal(t, []string{"a", "b", "c"}, r.Retrieve(context.Background(), "hi", japanese))
	assert.Equal(t, []string{"a"}, r.RetrieveK(context.Background(), "hi", japanese, 1))
}

func TestRetrieverFiltersOnProfileID(t *testing.T) {
	ctx := context.Background()
	ks := newTestKnowledgeStore(t, embedding.NewHashEmbedder(64), memstore.NewVectorIndex(), 500, 50)
	_, err := ks.Build(ctx, testPassages)
	assert.NoError(t, err)

	r := NewRetriever(ks, nil, 3, quietLogger(), nil)

	// the default profile substituted for an unknown culture keeps its id
	unknown := domain.DefaultProfile("atlantean")
	assert.Empty(t, r.Retrieve(ctx, testPassages[0].Content, unknown))

	got := r.Retrieve(ctx, testPassages[3].Content, domain.CultureProfile{ID: "german"})
	assert.Equal(t, []string{testPassages[3].Content}, got)
}

func TestRetrieverStoreErrorYieldsEmpty(t *testing.T) {
	store := &fakeStore{err: errBoom}
	r := NewRetriever(store, nil, 3, quietLogger(), observe.NopMetrics())

	got := r.Retrieve(context.Background(), "hi", japanese)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRetrieverNonPositiveK(t *testing.T) {
	store := &fakeStore{passages: []string{"a"}}
	r := NewRetriever(store, nil, 3, quietLogger(), nil)

	assert.Empty(t, r.RetrieveK(context.Background(), "hi", japanese, 0))
	assert.Equal(t, int32(0), store.calls.Load())
}

func TestRetrieverCache(t *testing.T) {
	store := &fakeStore{passages: []string{"a", "b"}}
	qc := cache.NewQueryCache(10, time.Minute)
	r := NewRetriever(store, qc, 3, quietLogger(), nil)
	ctx := context.Background()

	r.Retrieve(ctx, "hi", japanese)
	r.Retrieve(ctx, "hi", japanese)
	assert.Equal(t, int32(1), store.calls.Load())

	r.RetrieveK(ctx, "hi", japanese, 1)
	assert.Equal(t, int32(2), store.calls.Load())

	qc.Invalidate()
	r.Retrieve(ctx, "hi", japanese)
	assert.Equal(t, int32(3), store.calls.Load())
}

func TestRetrieverCacheInvalidatedByRebuild(t *testing.T) {
	ctx := context.Background()
	ks := newTestKnowledgeStore(t, embedding.NewHashEmbedder(64), memstore.NewVectorIndex(), 500, 50)
	qc := cache.NewQueryCache(10, time.Minute)
	ks.OnRebuild(qc.Invalidate)
	r := NewRetriever(ks, qc, 3, quietLogger(), nil)

	assert.Empty(t, r.Retrieve(ctx, "greeting", japanese))

	_, err := ks.Build(ctx, testPassages)
	assert.NoError(t, err)

	assert.NotEmpty(t, r.Retrieve(ctx, "greeting", japanese))
}
