package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	fromLang    string
	toCulture   string
	outputJSON  bool
	suggestions int
)

var translateCmd = &cobra.Command{
	Use:   "translate <text>",
	Short: "Translate text and adapt it to a culture",
	Long: `Translate text literally, then rewrite it for the target culture using
retrieved etiquette passages and the culture's politeness and directness.

Examples:
  cultura translate "I disagree with you" --to japanese
  cultura translate "Je ne suis pas d'accord" --from fr --to american --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranslate,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <conversation context>",
	Short: "Suggest culturally appropriate replies",
	Long: `Suggest replies to a conversation for the target culture, each with an
explanation of why it fits.

Examples:
  cultura suggest "My colleague invited me to dinner at her home" --to french
  cultura suggest "The client asked for a discount" --to chinese -n 5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

var assistCmd = &cobra.Command{
	Use:   "assist <text>",
	Short: "Translate and suggest replies in one step",
	Long: `Run translation and reply suggestions for the same utterance concurrently.

Examples:
  cultura assist "Can we move the deadline?" --to german
  cultura assist "I disagree with you" --to japanese --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAssist,
}

func init() {
	for _, c := range []*cobra.Command{translateCmd, suggestCmd, assistCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&toCulture, "to", "t", "", "target culture id (required)")
		c.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
		c.MarkFlagRequired("to")
	}
	for _, c := range []*cobra.Command{translateCmd, assistCmd} {
		c.Flags().StringVarP(&fromLang, "from", "f", "en", "source language code")
	}
	for _, c := range []*cobra.Command{suggestCmd, assistCmd} {
		c.Flags().IntVarP(&suggestions, "count", "n", 0, "number of suggestions (default from config)")
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runTranslate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.assistant.Translate(ctx, strings.Join(args, " "), fromLang, toCulture)
	if outputJSON {
		return printJSON(result)
	}
	writeTranslation(os.Stdout, result)
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.assistant.Suggest(ctx, strings.Join(args, " "), toCulture, suggestions)
	if outputJSON {
		return printJSON(result)
	}
	writeSuggestions(os.Stdout, result)
	return nil
}

func runAssist(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.assistant.Assist(ctx, strings.Join(args, " "), fromLang, toCulture, suggestions)
	if outputJSON {
		return printJSON(result)
	}
	writeTranslation(os.Stdout, result.Translation)
	fmt.Println()
	fmt.Println("Suggested replies:")
	writeSuggestions(os.Stdout, result.Suggestions)
	return nil
}
