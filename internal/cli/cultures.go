package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cultura/internal/adapter/culture"
	"cultura/internal/domain"
)

var culturesJSON bool

var culturesCmd = &cobra.Command{
	Use:   "cultures",
	Short: "List known culture profiles",
	Long: `List the built-in and configured culture profiles. Unknown cultures are
still accepted everywhere and use a neutral default profile.`,
	Args: cobra.NoArgs,
	RunE: runCultures,
}

func init() {
	rootCmd.AddCommand(culturesCmd)
	culturesCmd.Flags().BoolVar(&culturesJSON, "json", false, "output as JSON")
}

type cultureRow struct {
	domain.CultureProfile
	Notes string `json:"notes"`
}

func runCultures(cmd *cobra.Command, args []string) error {
	registry := culture.NewRegistry(GetConfig().Cultures)

	var rows []cultureRow
	for _, p := range registry.List() {
		rows = append(rows, cultureRow{CultureProfile: p, Notes: registry.Notes(p.ID)})
	}

	if culturesJSON {
		return printJSON(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CULTURE\tLANGUAGE\tPOLITENESS\tDIRECTNESS\tNOTES")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Language, r.Politeness, r.Directness, r.Notes)
	}
	return w.Flush()
}
