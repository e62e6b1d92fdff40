package transcribe

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cultura/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenAITranscriber(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " Konnichiwa \n"})
	}))
	defer srv.Close()

	t.Setenv("CULTURA_TEST_KEY", "sk-test")
	tr, err := NewOpenAITranscriber("CULTURA_TEST_KEY", "", srv.URL+"/v1", time.Second, quietLogger())
	require.NoError(t, err)

	text, ok := tr.Transcribe(context.Background(), []byte("RIFF...."), "greeting.wav")
	assert.True(t, ok)
	assert.Equal(t, "Konnichiwa", text)
	assert.Equal(t, "whisper-1", gotModel)
}

func TestOpenAITranscriberFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad audio"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	t.Setenv("CULTURA_TEST_KEY", "sk-test")
	tr, err := NewOpenAITranscriber("CULTURA_TEST_KEY", "whisper-1", srv.URL+"/v1", time.Second, quietLogger())
	require.NoError(t, err)

	text, ok := tr.Transcribe(context.Background(), []byte("noise"), "noise.wav")
	assert.False(t, ok)
	assert.Empty(t, text)

	text, ok = tr.Transcribe(context.Background(), nil, "empty.wav")
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestNewMissingKey(t *testing.T) {
	t.Setenv("CULTURA_TEST_MISSING", "")
	_, err := NewOpenAITranscriber("CULTURA_TEST_MISSING", "", "", 0, nil)
	assert.Error(t, err)
}

func TestNewUsesTranscriptionEndpoint(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "hola"})
	}))
	defer srv.Close()

	t.Setenv("CULTURA_TEST_WHISPER_KEY", "sk-test")
	t.Setenv("CULTURA_TEST_GEN_KEY", "")

	cfg := config.DefaultConfig()
	cfg.Generation.Provider = "ollama"
	cfg.Generation.BaseURL = "http://127.0.0.1:1"
	cfg.Generation.APIKeyEnv = "CULTURA_TEST_GEN_KEY"
	cfg.Transcription.APIKeyEnv = "CULTURA_TEST_WHISPER_KEY"
	cfg.Transcription.BaseURL = srv.URL + "/v1"
	cfg.Transcription.Timeout = time.Second

	tr, err := New(cfg.Transcription, quietLogger())
	require.NoError(t, err)

	text, ok := tr.Transcribe(context.Background(), []byte("RIFF...."), "hola.wav")
	assert.True(t, ok)
	assert.Equal(t, "hola", text)
	assert.Equal(t, 1, hits)

	cfg.Transcription.Provider = "google"
	_, err = New(cfg.Transcription, quietLogger())
	assert.Error(t, err)
}
