package usecase

import (
	"fmt"
	"strings"

	"cultura/internal/domain"
)

// adaptPrompt asks the model to rewrite text for the profile's culture.
func adaptPrompt(text string, profile domain.CultureProfile, retrieved []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Adapt the following text for %s culture:\n", profile.ID)
	fmt.Fprintf(&b, "Original: \"%s\"\n\n", text)

	b.WriteString("Cultural guidelines:\n")
	fmt.Fprintf(&b, "- Politeness level: %s\n", profile.Politeness)
	fmt.Fprintf(&b, "- Directness level: %s\n", profile.Directness)

	writeGuidance(&b, retrieved)

	b.WriteString("\nProvide a culturally appropriate version. Reply with the adapted text only.\n")
	return b.String()
}

// suggestPrompt asks for count labeled Response/Explanation pairs.
func suggestPrompt(conversationContext string, profile domain.CultureProfile, retrieved []string, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d culturally appropriate response suggestions for %s culture.\n\n", count, profile.ID)
	fmt.Fprintf(&b, "Conversation context: %s\n", conversationContext)

	writeGuidance(&b, retrieved)

	b.WriteString("\nCulture characteristics:\n")
	fmt.Fprintf(&b, "- Politeness: %s\n", profile.Politeness)
	fmt.Fprintf(&b, "- Directness: %s\n", profile.Directness)

	b.WriteString("\nFormat each response as:\n")
	b.WriteString("Response N: [response text]\n")
	b.WriteString("Explanation: [why this is culturally appropriate]\n")
	return b.String()
}

func writeGuidance(b *strings.Builder, retrieved []string) {
	if len(retrieved) == 0 {
		return
	}
	b.WriteString("\nCultural guidance:\n")
	b.WriteString(strings.Join(retrieved, "\n"))
	b.WriteString("\n")
}
