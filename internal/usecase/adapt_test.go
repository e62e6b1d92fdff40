package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cultura/internal/domain"
	"cultura/internal/observe"
	"cultura/internal/port"
)

var japanese = domain.CultureProfile{
	ID:         "japanese",
	Language:   "ja",
	Politeness: domain.LevelHigh,
	Directness: domain.LevelLow,
}

func newTestEngine(llm *fakeLLM, timeout time.Duration) *Engine {
	return NewEngine(llm, EngineOptions{Timeout: timeout}, quietLogger(), observe.NopMetrics())
}

func TestAdaptTextSuccess(t *testing.T) {
	llm := staticLLM("\n  Perhaps we could consider another view.  \n", nil)
	e := newTestEngine(llm, 0)

	got := e.AdaptText(context.Background(), "I disagree with you", japanese,
		[]string{"Avoid direct refusals.", "Silence can signal disagreement."})

	assert.Equal(t, "Perhaps we could consider another view.", got)
	require.Len(t, llm.prompts, 1)
	assert.Equal(t, []int{150}, llm.maxTokens)

	prompt := llm.lastPrompt()
	for _, want := range []string{
		"japanese",
		"I disagree with you",
		"Politeness level: high",
		"Directness level: low",
		"Avoid direct refusals.\nSilence can signal disagreement.",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestAdaptTextFailureReturnsInput(t *testing.T) {
	e := newTestEngine(staticLLM("", errBoom), 0)
	assert.Equal(t, "hello", e.AdaptText(context.Background(), "hello", japanese, nil))
}

func TestAdaptTextEmptyOutputReturnsInput(t *testing.T) {
	e := newTestEngine(staticLLM("  \n ", nil), 0)
	assert.Equal(t, "hello", e.AdaptText(context.Background(), "hello", japanese, []string{}))
}

func TestAdaptTextTimeoutReturnsInput(t *testing.T) {
	llm := &fakeLLM{respond: func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	e := newTestEngine(llm, 10*time.Millisecond)

	start := time.Now()
	assert.Equal(t, "hello", e.AdaptText(context.Background(), "hello", japanese, nil))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerateSuggestions(t *testing.T) {
	llm := staticLLM("Response 1: Thank you kindly\nExplanation: formal gratitude\nResponse 2: I understand\nExplanation: acknowledges without conflict", nil)
	e := newTestEngine(llm, 0)

	got := e.GenerateSuggestions(context.Background(), "User said: I disagree", japanese, []string{"Harmony matters."}, 2)

	assert.Equal(t, []domain.ResponseSuggestion{
		{Text: "Thank you kindly", Explanation: "formal gratitude"},
		{Text: "I understand", Explanation: "acknowledges without conflict"},
	}, got)
	assert.Equal(t, []int{300}, llm.maxTokens)

	prompt := llm.lastPrompt()
	assert.Contains(t, prompt, "Generate 2 culturally appropriate response suggestions for japanese culture")
	assert.Contains(t, prompt, "User said: I disagree")
	assert.Contains(t, prompt, "Harmony matters.")
	assert.Contains(t, prompt, "Response N:")
	assert.Contains(t, prompt, "Explanation:")
}

func TestGenerateSuggestionsDefaultCount(t *testing.T) {
	llm := staticLLM("Response 1: ok", nil)
	e := newTestEngine(llm, 0)

	e.GenerateSuggestions(context.Background(), "hi", japanese, nil, 0)
	assert.Contains(t, llm.lastPrompt(), "Generate 3 ")
}

func TestGenerateSuggestionsFailureReturnsFallback(t *testing.T) {
	e := newTestEngine(staticLLM("", errBoom), 0)

	got := e.GenerateSuggestions(context.Background(), "hi", japanese, nil, 3)

	require.Len(t, got, 1)
	assert.Equal(t, FallbackSuggestion, got[0])
	assert.Equal(t, "applicable across cultures", got[0].Explanation)
}

func TestGenerateSuggestionsUnparseableOutput(t *testing.T) {
	e := newTestEngine(staticLLM("I'm sorry, I can't help with that.", nil), 0)

	got := e.GenerateSuggestions(context.Background(), "hi", japanese, nil, 3)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGenerateSuggestionsEmptyOutput(t *testing.T) {
	for _, out := range []string{"", "  \n\t"} {
		e := newTestEngine(staticLLM(out, nil), 0)

		got := e.GenerateSuggestions(context.Background(), "hi", japanese, nil, 3)

		assert.NotNil(t, got, "output %q", out)
		assert.Empty(t, got, "output %q", out)
	}

	// an adapter that reports empty output itself parses the same way
	e := newTestEngine(staticLLM("", port.ErrEmptyOutput), 0)
	got := e.GenerateSuggestions(context.Background(), "hi", japanese, nil, 3)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
