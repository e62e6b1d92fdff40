package domain

import "strings"

// KnowledgePassage is a culture-tagged etiquette passage. Passages are
// immutable once loaded.
type KnowledgePassage struct {
	Culture  string `yaml:"culture" json:"culture"`
	Category string `yaml:"category" json:"category"`
	Content  string `yaml:"content" json:"content"`
}

type Chunk struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Culture  string `json:"culture"`
	Category string `json:"category"`
	// Ordinal is the position of the chunk in build order and breaks
	// similarity ties.
	Ordinal int `json:"ordinal"`
}

type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Level is a coarse communication-style level.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ParseLevel maps s to a Level, falling back to medium.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelLow:
		return LevelLow
	case LevelHigh:
		return LevelHigh
	default:
		return LevelMedium
	}
}

type CultureProfile struct {
	ID         string `json:"id"`
	Language   string `json:"language"`
	Politeness Level  `json:"politeness"`
	Directness Level  `json:"directness"`
}

// DefaultProfile is substituted for cultures missing from the registry.
func DefaultProfile(id string) CultureProfile {
	return CultureProfile{
		ID:         id,
		Language:   "en",
		Politeness: LevelMedium,
		Directness: LevelMedium,
	}
}

type ResponseSuggestion struct {
	Text        string `json:"text"`
	Explanation string `json:"explanation,omitempty"`
}

// Confidence is reported on every translation. It is a fixed value with no
// scoring model behind it.
const Confidence = 0.85

type TranslationResult struct {
	BasicTranslation   string  `json:"basic_translation"`
	CulturalAdaptation string  `json:"cultural_adaptation"`
	CultureNotes       string  `json:"culture_notes"`
	Confidence         float64 `json:"confidence"`
}

type AssistResult struct {
	Translation TranslationResult    `json:"translation"`
	Suggestions []ResponseSuggestion `json:"response_suggestions"`
}

type BuildStats struct {
	Passages int
	Chunks   int
	Cultures int
}
