package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"cultura/internal/port"
)

// OllamaLLM handles interactions with a local Ollama server.
type OllamaLLM struct {
	client *api.Client
	model  string
}

func NewOllamaLLM(model, baseURL string) (*OllamaLLM, error) {
	hostURL := envconfig.Host()
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
		}
		hostURL = u
	}

	return &OllamaLLM{
		client: api.NewClient(hostURL, http.DefaultClient),
		model:  model,
	}, nil
}

func (o *OllamaLLM) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	stream := false
	req := api.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.3,
			"num_predict": maxTokens,
		},
	}

	var responseBuilder strings.Builder
	err := o.client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	out := responseBuilder.String()
	if strings.TrimSpace(out) == "" {
		return "", port.ErrEmptyOutput
	}
	return out, nil
}

func (o *OllamaLLM) ModelName() string {
	return o.model
}
