package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"cultura/internal/domain"
	"cultura/internal/observe"
	"cultura/internal/port"
)

// Assistant combines a translation with reply suggestions for one utterance.
type Assistant struct {
	translator   *Translator
	registry     port.CultureRegistry
	retriever    *Retriever
	engine       *Engine
	defaultCount int
}

func NewAssistant(translator *Translator, registry port.CultureRegistry, retriever *Retriever, engine *Engine, defaultCount int) *Assistant {
	if defaultCount <= 0 {
		defaultCount = defaultSuggestionCount
	}
	return &Assistant{
		translator:   translator,
		registry:     registry,
		retriever:    retriever,
		engine:       engine,
		defaultCount: defaultCount,
	}
}

// Translate delegates to the translation pipeline.
func (a *Assistant) Translate(ctx context.Context, text, sourceLanguage, targetCulture string) domain.TranslationResult {
	return a.translator.Translate(ctx, text, sourceLanguage, targetCulture)
}

// Suggest proposes replies to conversationContext for targetCulture. A count
// of zero or less uses the configured default.
func (a *Assistant) Suggest(ctx context.Context, conversationContext, targetCulture string, count int) []domain.ResponseSuggestion {
	ctx, span := observe.StartSpan(ctx, "suggest")
	defer span.End()

	if count <= 0 {
		count = a.defaultCount
	}

	profile := a.registry.Resolve(targetCulture)
	retrieved := a.retriever.Retrieve(ctx, conversationContext, profile)
	return a.engine.GenerateSuggestions(ctx, conversationContext, profile, retrieved, count)
}

// Assist translates text and suggests replies to it concurrently.
func (a *Assistant) Assist(ctx context.Context, text, sourceLanguage, targetCulture string, count int) domain.AssistResult {
	var (
		result domain.AssistResult
		g      errgroup.Group
	)

	g.Go(func() error {
		result.Translation = a.Translate(ctx, text, sourceLanguage, targetCulture)
		return nil
	})
	g.Go(func() error {
		result.Suggestions = a.Suggest(ctx, "User said: "+text, targetCulture, count)
		return nil
	})
	_ = g.Wait()

	return result
}
