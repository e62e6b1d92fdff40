package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate generates text for the prompt, producing at most maxTokens
	// tokens of output.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
