package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"cultura/internal/domain"
	"cultura/internal/port"
)

var errBoom = errors.New("boom")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLLM answers every prompt with respond and records what it was asked.
type fakeLLM struct {
	mu        sync.Mutex
	respond   func(ctx context.Context, prompt string) (string, error)
	prompts   []string
	maxTokens []int
}

func staticLLM(out string, err error) *fakeLLM {
	return &fakeLLM{respond: func(context.Context, string) (string, error) { return out, err }}
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.maxTokens = append(f.maxTokens, maxTokens)
	f.mu.Unlock()
	return f.respond(ctx, prompt)
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

func (f *fakeLLM) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeLiteral struct {
	out string
	err error

	gotDst string
}

func (f *fakeLiteral) Translate(_ context.Context, text, _, dst string) (string, error) {
	f.gotDst = dst
	return f.out, f.err
}

// fakeStore is a KnowledgeStore with canned answers.
type fakeStore struct {
	passages []string
	err      error
	calls    atomic.Int32
}

func (f *fakeStore) Build(context.Context, []domain.KnowledgePassage) (domain.BuildStats, error) {
	return domain.BuildStats{}, nil
}

func (f *fakeStore) Query(_ context.Context, _, _ string, k int) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.passages) {
		return f.passages[:k], nil
	}
	return f.passages, nil
}

func (f *fakeStore) Count(context.Context) (int, error) { return len(f.passages), nil }

func (f *fakeStore) Close() error { return nil }

// switchEmbedder delegates to inner until failing is set.
type switchEmbedder struct {
	port.Embedder
	failing atomic.Bool
}

func (s *switchEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.failing.Load() {
		return nil, errBoom
	}
	return s.Embedder.Embed(ctx, texts)
}
