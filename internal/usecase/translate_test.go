package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cultura/internal/adapter/culture"
	"cultura/internal/adapter/embedding"
	"cultura/internal/adapter/memstore"
	"cultura/internal/domain"
	"cultura/internal/observe"
)

type pipeline struct {
	literal   *fakeLiteral
	llm       *fakeLLM
	store     *fakeStore
	assistant *Assistant
}

func newPipeline(literal *fakeLiteral, llm *fakeLLM) *pipeline {
	store := &fakeStore{passages: []string{"Avoid saying no directly."}}
	registry := culture.NewRegistry(nil)
	metrics := observe.NopMetrics()
	logger := quietLogger()

	retriever := NewRetriever(store, nil, 3, logger, metrics)
	engine := NewEngine(llm, EngineOptions{Timeout: time.Second}, logger, metrics)
	translator := NewTranslator(literal, registry, retriever, engine, time.Second, logger, metrics)

	return &pipeline{
		literal:   literal,
		llm:       llm,
		store:     store,
		assistant: NewAssistant(translator, registry, retriever, engine, 3),
	}
}

func TestTranslateEndToEnd(t *testing.T) {
	p := newPipeline(
		&fakeLiteral{out: "私はあなたに反対です"},
		staticLLM("私は少し違う考えを持っています", nil),
	)

	got := p.assistant.Translate(context.Background(), "I disagree with you", "en", "japanese")

	assert.Equal(t, domain.TranslationResult{
		BasicTranslation:   "私はあなたに反対です",
		CulturalAdaptation: "私は少し違う考えを持っています",
		CultureNotes:       "Use polite language and indirect expressions",
		Confidence:         0.85,
	}, got)
	assert.Equal(t, "ja", p.literal.gotDst)
	assert.Contains(t, p.llm.lastPrompt(), "私はあなたに反対です")
	assert.Contains(t, p.llm.lastPrompt(), "Avoid saying no directly.")
}

func TestTranslateGenerationFailure(t *testing.T) {
	p := newPipeline(&fakeLiteral{out: "私はあなたに反対です"}, staticLLM("", errBoom))

	got := p.assistant.Translate(context.Background(), "I disagree with you", "en", "japanese")

	assert.Equal(t, "私はあなたに反対です", got.BasicTranslation)
	assert.Equal(t, "私はあなたに反対です", got.CulturalAdaptation)
	assert.Equal(t, domain.Confidence, got.Confidence)
}

func TestTranslateLiteralFailureUsesText(t *testing.T) {
	for _, literal := range []*fakeLiteral{{err: errBoom}, {out: "   "}} {
		p := newPipeline(literal, staticLLM("adapted", nil))

		got := p.assistant.Translate(context.Background(), "I disagree with you", "en", "german")

		assert.Equal(t, "I disagree with you", got.BasicTranslation)
		assert.Equal(t, "adapted", got.CulturalAdaptation)
		assert.Equal(t, "Be precise and straightforward", got.CultureNotes)
	}
}

func TestTranslateUnknownCulture(t *testing.T) {
	p := newPipeline(&fakeLiteral{out: "I disagree with you"}, staticLLM("I see it differently", nil))

	got := p.assistant.Translate(context.Background(), "I disagree with you", "en", "atlantean")

	assert.Equal(t, "Be respectful and appropriate", got.CultureNotes)
	assert.Equal(t, "en", p.literal.gotDst)
	assert.Equal(t, "I see it differently", got.CulturalAdaptation)
	assert.Contains(t, p.llm.lastPrompt(), "Politeness level: medium")
	assert.Contains(t, p.llm.lastPrompt(), "Directness level: medium")
}

func TestSuggest(t *testing.T) {
	p := newPipeline(&fakeLiteral{out: "x"}, staticLLM("Response 1: Danke\nExplanation: short and clear", nil))

	got := p.assistant.Suggest(context.Background(), "User said: thanks", "german", 0)

	assert.Equal(t, []domain.ResponseSuggestion{{Text: "Danke", Explanation: "short and clear"}}, got)
	assert.Contains(t, p.llm.lastPrompt(), "Generate 3 ")
	assert.Contains(t, p.llm.lastPrompt(), "german")
}

func TestAssistMergesBothHalves(t *testing.T) {
	llm := &fakeLLM{respond: func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "response suggestions") {
			return "Response 1: I understand your view\nExplanation: avoids confrontation", nil
		}
		return "Perhaps we see this differently", nil
	}}
	p := newPipeline(&fakeLiteral{out: "私はあなたに反対です"}, llm)

	got := p.assistant.Assist(context.Background(), "I disagree with you", "en", "japanese", 1)

	assert.Equal(t, "私はあなたに反対です", got.Translation.BasicTranslation)
	assert.Equal(t, "Perhaps we see this differently", got.Translation.CulturalAdaptation)
	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, "I understand your view", got.Suggestions[0].Text)

	var sawContext bool
	for _, prompt := range llm.prompts {
		if strings.Contains(prompt, "User said: I disagree with you") {
			sawContext = true
		}
	}
	assert.True(t, sawContext)
}

func TestAssistAllFailuresStillAnswer(t *testing.T) {
	p := newPipeline(&fakeLiteral{err: errBoom}, staticLLM("", errBoom))
	p.store.err = errBoom

	got := p.assistant.Assist(context.Background(), "hello", "en", "atlantean", 3)

	assert.Equal(t, "hello", got.Translation.BasicTranslation)
	assert.Equal(t, "hello", got.Translation.CulturalAdaptation)
	assert.Equal(t, "Be respectful and appropriate", got.Translation.CultureNotes)
	assert.Equal(t, []domain.ResponseSuggestion{FallbackSuggestion}, got.Suggestions)
}

func TestTranslateWithRealIndex(t *testing.T) {
	ctx := context.Background()
	ks := newTestKnowledgeStore(t, embedding.NewHashEmbedder(128), memstore.NewVectorIndex(), 500, 50)
	_, err := ks.Build(ctx, testPassages)
	require.NoError(t, err)

	llm := staticLLM("adapted", nil)
	registry := culture.NewRegistry(nil)
	retriever := NewRetriever(ks, nil, 3, quietLogger(), nil)
	engine := NewEngine(llm, EngineOptions{}, quietLogger(), nil)
	tr := NewTranslator(&fakeLiteral{out: "Pünktlichkeit"}, registry, retriever, engine, 0, quietLogger(), nil)

	got := tr.Translate(ctx, "punctuality", "en", "German")

	assert.Equal(t, "adapted", got.CulturalAdaptation)
	assert.Equal(t, "Be precise and straightforward", got.CultureNotes)
	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "Punctuality is essential")
	assert.NotContains(t, prompt, "Bowing")
	assert.NotContains(t, prompt, "handshakes")
}
