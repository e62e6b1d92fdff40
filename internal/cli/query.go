package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cultura/internal/adapter/culture"
)

var (
	queryText    string
	queryCulture string
	queryTopK    int
	queryJSON    bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search etiquette passages for a culture",
	Long: `Retrieve the etiquette passages most similar to a text, restricted to one
culture. Useful for checking what grounds an adaptation.

Examples:
  cultura query -q "saying no to a request" -c japanese
  cultura query -q "business dinner" -c french -k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search text (required)")
	queryCmd.Flags().StringVarP(&queryCulture, "culture", "c", "", "target culture id (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
	queryCmd.MarkFlagRequired("culture")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	topK := a.cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	profile := a.registry.Resolve(queryCulture)
	if !a.registry.Known(profile.ID) {
		a.logger.Warn("unknown culture, using default profile", "culture", culture.Normalize(queryCulture))
	}

	passages := a.retriever.RetrieveK(ctx, queryText, profile, topK)

	if queryJSON {
		return printJSON(passages)
	}
	if len(passages) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d passages for %s: %s\n\n", len(passages), profile.ID, queryText)
	for i, p := range passages {
		fmt.Printf("--- [%d] ---\n%s\n\n", i+1, truncate(p, 500))
	}
	return nil
}
