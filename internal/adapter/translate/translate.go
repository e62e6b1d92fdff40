package translate

import (
	"fmt"

	"cultura/config"
	"cultura/internal/port"
)

// New creates the translator selected by cfg.Provider. The llm is only
// used by the "llm" provider.
func New(cfg config.TranslationConfig, llm port.LLM) (port.LiteralTranslator, error) {
	switch cfg.Provider {
	case "llm", "":
		if llm == nil {
			return nil, fmt.Errorf("translation provider %q needs a language model", "llm")
		}
		return NewLLMTranslator(llm, cfg.MaxTokens), nil
	case "identity":
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", cfg.Provider)
	}
}
