// Package translate provides literal translators. They translate text
// without cultural adaptation; that step happens downstream.
package translate

import (
	"context"
	"fmt"
	"strings"

	"cultura/internal/port"
)

// LLMTranslator asks a language model for a literal translation.
type LLMTranslator struct {
	llm       port.LLM
	maxTokens int
}

func NewLLMTranslator(llm port.LLM, maxTokens int) *LLMTranslator {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &LLMTranslator{llm: llm, maxTokens: maxTokens}
}

func (t *LLMTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang || strings.TrimSpace(text) == "" {
		return text, nil
	}

	prompt := fmt.Sprintf(`Translate the following text from language %q to language %q.
Reply with the translation only, without quotes or commentary.

Text: %s`, sourceLang, targetLang, text)

	out, err := t.llm.Generate(ctx, prompt, t.maxTokens)
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", sourceLang, targetLang, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", port.ErrEmptyOutput
	}
	return out, nil
}

// Identity returns its input unchanged. Useful offline and in tests.
type Identity struct{}

func (Identity) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}
