package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cultura/config"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)

	first, err := e.Embed(context.Background(), []string{"Bowing is essential", "Be direct"})
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), []string{"Bowing is essential", "Be direct"})
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Len(t, first[0], 64)
	assert.NotEqual(t, first[0], first[1])
}

func TestHashEmbedderUnitLength(t *testing.T) {
	e := NewHashEmbedder(128)

	vecs, err := e.Embed(context.Background(), []string{"Avoid direct criticism in meetings"})
	require.NoError(t, err)

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashEmbedderStemsTerms(t *testing.T) {
	e := NewHashEmbedder(256)

	vecs, err := e.Embed(context.Background(), []string{"greetings", "greeting", "handshake"})
	require.NoError(t, err)

	dot := func(a, b []float32) float64 {
		var s float64
		for i := range a {
			s += float64(a[i]) * float64(b[i])
		}
		return s
	}
	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e := NewHashEmbedder(16)

	vecs, err := e.Embed(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), vecs[0])
}

func TestHashEmbedderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashEmbedder(16).Embed(ctx, []string{"hello"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "hash", Dimension: 32})
	require.NoError(t, err)
	assert.Equal(t, 32, e.Dimension())
	assert.Equal(t, "hash", e.ModelName())

	e, err = New(config.EmbeddingConfig{Provider: "ollama", Model: "all-minilm"})
	require.NoError(t, err)
	assert.Equal(t, 384, e.Dimension())

	t.Setenv("CULTURA_TEST_MISSING_KEY", "")
	_, err = New(config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "CULTURA_TEST_MISSING_KEY"})
	assert.Error(t, err)

	_, err = New(config.EmbeddingConfig{Provider: "word2vec"})
	assert.Error(t, err)
}
