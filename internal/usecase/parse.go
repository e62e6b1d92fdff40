package usecase

import (
	"strings"

	"cultura/internal/domain"
)

const (
	responseMarker    = "Response"
	explanationMarker = "Explanation"
)

// ParseSuggestions extracts Response/Explanation records from free-form
// model output. Lines are matched after trimming surrounding whitespace.
// A "Response" line starts a new record, an "Explanation" line annotates
// the current one and everything else is ignored. It never fails; output
// without markers yields an empty slice.
func ParseSuggestions(output string) []domain.ResponseSuggestion {
	suggestions := []domain.ResponseSuggestion{}

	var (
		current    domain.ResponseSuggestion
		inProgress bool
	)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, responseMarker):
			if inProgress {
				suggestions = append(suggestions, current)
			}
			current = domain.ResponseSuggestion{Text: afterColon(line)}
			inProgress = true

		case strings.HasPrefix(line, explanationMarker):
			if inProgress {
				current.Explanation = afterColon(line)
			}
		}
	}

	if inProgress {
		suggestions = append(suggestions, current)
	}
	return suggestions
}

// afterColon returns the trimmed text after the first colon, or "" when the
// line has none.
func afterColon(line string) string {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(rest)
}
