package llm

import (
	"context"
	"fmt"

	"cultura/config"
	"cultura/internal/port"
)

// New creates the language model selected by cfg.Provider.
func New(cfg config.GenerationConfig) (port.LLM, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAILLM(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
	case "ollama":
		return NewOllamaLLM(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
}

// Unavailable stands in for a model that could not be configured. Every
// call fails with port.ErrGenerationFailed.
type Unavailable struct {
	Reason error
}

func (u Unavailable) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return "", fmt.Errorf("%w: model unavailable: %w", port.ErrGenerationFailed, u.Reason)
}

func (u Unavailable) ModelName() string {
	return "unavailable"
}
