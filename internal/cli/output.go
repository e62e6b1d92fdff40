package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"cultura/internal/domain"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func writeTranslation(w io.Writer, r domain.TranslationResult) {
	fmt.Fprintf(w, "Translation:  %s\n", r.BasicTranslation)
	fmt.Fprintf(w, "Adapted:      %s\n", r.CulturalAdaptation)
	fmt.Fprintf(w, "Notes:        %s\n", r.CultureNotes)
	fmt.Fprintf(w, "Confidence:   %.2f\n", r.Confidence)
}

func writeSuggestions(w io.Writer, suggestions []domain.ResponseSuggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No suggestions.")
		return
	}
	for i, s := range suggestions {
		fmt.Fprintf(w, "--- [%d] %s\n", i+1, s.Text)
		if s.Explanation != "" {
			fmt.Fprintf(w, "    %s\n", s.Explanation)
		}
	}
}

// truncate shortens s to at most n runes for display.
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
