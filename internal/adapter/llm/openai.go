package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"cultura/internal/port"
)

// OpenAILLM generates text with an OpenAI-compatible chat completion API.
type OpenAILLM struct {
	client *openai.Client
	model  string
}

func NewOpenAILLM(apiKeyEnv, model, baseURL string) (*OpenAILLM, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAILLM{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (l *OpenAILLM) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices: %w", port.ErrEmptyOutput)
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", port.ErrEmptyOutput
	}
	return content, nil
}

func (l *OpenAILLM) ModelName() string {
	return l.model
}
