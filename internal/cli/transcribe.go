package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"cultura/internal/adapter/transcribe"
	"cultura/internal/domain"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio-file>",
	Short: "Transcribe speech, optionally assisting with the transcript",
	Long: `Transcribe an audio file. With --to, the transcript is translated for the
target culture and reply suggestions are generated.

Examples:
  cultura transcribe meeting.wav
  cultura transcribe greeting.m4a --from ja --to american`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
	transcribeCmd.Flags().StringVarP(&toCulture, "to", "t", "", "target culture id; enables translation and suggestions")
	transcribeCmd.Flags().StringVarP(&fromLang, "from", "f", "en", "spoken language code")
	transcribeCmd.Flags().IntVarP(&suggestions, "count", "n", 0, "number of suggestions (default from config)")
	transcribeCmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := GetConfig()

	audio, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	tr, err := transcribe.New(cfg.Transcription, logger)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	text, ok := tr.Transcribe(ctx, audio, filepath.Base(args[0]))
	if !ok {
		return errors.New("no speech could be transcribed")
	}

	if toCulture == "" {
		if outputJSON {
			return printJSON(map[string]string{"text": text})
		}
		fmt.Println(text)
		return nil
	}

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.assistant.Assist(ctx, text, fromLang, toCulture, suggestions)
	if outputJSON {
		return printJSON(struct {
			Text string `json:"text"`
			domain.AssistResult
		}{Text: text, AssistResult: result})
	}
	fmt.Printf("Heard:        %s\n", text)
	writeTranslation(os.Stdout, result.Translation)
	fmt.Println()
	fmt.Println("Suggested replies:")
	writeSuggestions(os.Stdout, result.Suggestions)
	return nil
}
