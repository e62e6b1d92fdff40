package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cultura/internal/domain"
	"cultura/internal/observe"
	"cultura/internal/port"
)

// FallbackSuggestion is returned alone when suggestion generation fails.
var FallbackSuggestion = domain.ResponseSuggestion{
	Text:        "Thank you for your message.",
	Explanation: "applicable across cultures",
}

const defaultSuggestionCount = 3

// EngineOptions holds token limits for generation.
type EngineOptions struct {
	AdaptMaxTokens   int
	SuggestMaxTokens int
	// Timeout bounds every generation call. Zero means no extra bound.
	Timeout time.Duration
}

// Engine conditions a language model on culture parameters and retrieved
// passages. Both operations always return a usable answer.
type Engine struct {
	llm     port.LLM
	opts    EngineOptions
	logger  *slog.Logger
	metrics *observe.Metrics
}

func NewEngine(llm port.LLM, opts EngineOptions, logger *slog.Logger, metrics *observe.Metrics) *Engine {
	if opts.AdaptMaxTokens <= 0 {
		opts.AdaptMaxTokens = 150
	}
	if opts.SuggestMaxTokens <= 0 {
		opts.SuggestMaxTokens = 300
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		llm:     llm,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// AdaptText rewrites text for profile. Any generation failure returns text
// unchanged.
func (e *Engine) AdaptText(ctx context.Context, text string, profile domain.CultureProfile, retrieved []string) string {
	out, err := e.generate(ctx, "adapt", adaptPrompt(text, profile, retrieved), e.opts.AdaptMaxTokens)
	if err != nil {
		observe.Logger(ctx, e.logger).Warn("adaptation failed, keeping text unchanged",
			"culture", profile.ID, "err", err)
		e.metrics.RecordFallback(ctx, observe.StageAdaptation)
		return text
	}
	return out
}

// GenerateSuggestions asks for count reply suggestions. A count of zero or
// less requests three. Generation failure yields exactly the fallback
// suggestion; empty output or output the parser cannot read yields an empty
// slice.
func (e *Engine) GenerateSuggestions(ctx context.Context, conversationContext string, profile domain.CultureProfile, retrieved []string, count int) []domain.ResponseSuggestion {
	if count <= 0 {
		count = defaultSuggestionCount
	}

	out, err := e.generate(ctx, "suggest", suggestPrompt(conversationContext, profile, retrieved, count), e.opts.SuggestMaxTokens)
	if errors.Is(err, port.ErrEmptyOutput) {
		// the model answered with nothing; there is nothing to parse
		return []domain.ResponseSuggestion{}
	}
	if err != nil {
		observe.Logger(ctx, e.logger).Warn("suggestion generation failed, using fallback",
			"culture", profile.ID, "err", err)
		e.metrics.RecordFallback(ctx, observe.StageSuggestion)
		return []domain.ResponseSuggestion{FallbackSuggestion}
	}

	suggestions := ParseSuggestions(out)
	if len(suggestions) == 0 {
		observe.Logger(ctx, e.logger).Debug("model output contained no suggestions", "culture", profile.ID)
	}
	return suggestions
}

// generate calls the model once, bounded by the configured timeout. The
// returned text is trimmed and never empty.
func (e *Engine) generate(ctx context.Context, operation, prompt string, maxTokens int) (string, error) {
	ctx, span := observe.StartSpan(ctx, "generate", trace.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("model", e.llm.ModelName()),
		attribute.Int("max_tokens", maxTokens),
	))
	defer span.End()

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := e.llm.Generate(ctx, prompt, maxTokens)
	e.metrics.RecordGeneration(ctx, operation, time.Since(start))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("%w: %s: %w", port.ErrGenerationFailed, operation, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %s: %w", port.ErrGenerationFailed, operation, port.ErrEmptyOutput)
	}
	return out, nil
}
