// Package transcribe converts recorded speech into text.
package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"cultura/config"
	"cultura/internal/port"
)

// OpenAITranscriber uses the OpenAI audio transcription endpoint.
type OpenAITranscriber struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewOpenAITranscriber(apiKeyEnv, model, baseURL string, timeout time.Duration, logger *slog.Logger) (*OpenAITranscriber, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAITranscriber{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Transcribe returns the recognized text. Any failure, including an empty
// transcript, yields ("", false).
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, bool) {
	if len(audio) == 0 {
		return "", false
	}
	if filename == "" {
		filename = "audio.wav"
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
	})
	if err != nil {
		t.logger.Warn("transcription failed", "file", filename, "err", err)
		return "", false
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", false
	}
	return text, true
}

// New creates the transcriber selected by cfg.Provider.
func New(cfg config.TranscriptionConfig, logger *slog.Logger) (port.Transcriber, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAITranscriber(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, cfg.Timeout, logger)
	default:
		return nil, fmt.Errorf("unsupported transcription provider: %s", cfg.Provider)
	}
}
