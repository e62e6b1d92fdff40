package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cultura/internal/adapter/knowledge"
	"cultura/internal/port"
)

var indexQuiet bool

var indexCmd = &cobra.Command{
	Use:   "index [knowledge-dir]",
	Short: "Build the cultural knowledge index",
	Long: `Chunk, embed and index culture-tagged etiquette passages. The whole index
is replaced; queries running meanwhile keep seeing the previous one.

Passages are read from YAML and PDF files under the knowledge directory
(knowledge.dir, or the argument). Without a directory the built-in corpus
is indexed.

Examples:
  cultura index                 # Index the built-in corpus or knowledge.dir
  cultura index ./etiquette     # Index a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexQuiet, "quiet", "q", false, "do not show a progress bar")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := GetConfig()

	dir := cfg.Knowledge.Dir
	if len(args) > 0 {
		dir = args[0]
	}

	loader := knowledge.NewLoader(cfg.Knowledge.Includes, cfg.Knowledge.Excludes)
	passages, err := loader.Load(dir)
	if err != nil {
		return fmt.Errorf("failed to load knowledge: %w", err)
	}
	if dir == "" {
		fmt.Println("Using built-in knowledge corpus")
	} else {
		fmt.Printf("Loaded %d passages from %s\n", len(passages), dir)
	}

	progress := &embedProgress{quiet: indexQuiet}
	ks, err := openKnowledge(ctx, cfg, progress.wrap, true)
	if err != nil {
		return err
	}
	defer ks.Close()

	migration, err := ks.NeedsRebuild(ctx)
	if err != nil {
		return err
	}
	if migration.NeedsRebuild {
		fmt.Printf("Index rebuild required: %s\n", migration.Reason)
	}

	start := time.Now()
	stats, err := ks.Build(ctx, passages)
	progress.finish()
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Passages:  %d\n", stats.Passages)
	fmt.Printf("  Chunks:    %d\n", stats.Chunks)
	fmt.Printf("  Cultures:  %d\n", stats.Cultures)
	fmt.Printf("  Embedding: %s/%s\n", cfg.Embedding.Provider, cfg.Embedding.Model)
	fmt.Printf("  Took:      %s\n", formatDuration(time.Since(start)))

	if cfg.Store.Backend == "" || cfg.Store.Backend == "bolt" {
		fmt.Printf("\nIndex stored at: %s\n", cfg.IndexDBPath(GetRootDir()))
	}
	return nil
}

// embedProgress draws a progress bar over embedded chunks. The total is not
// known until the first batch, so the bar grows as batches are submitted.
type embedProgress struct {
	quiet bool

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (p *embedProgress) wrap(e port.Embedder) port.Embedder {
	return &progressEmbedder{Embedder: e, progress: p}
}

func (p *embedProgress) add(n int) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil {
		p.bar = progressbar.NewOptions(-1,
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = p.bar.Add(n)
}

func (p *embedProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		fmt.Println()
	}
}

type progressEmbedder struct {
	port.Embedder
	progress *embedProgress
}

func (e *progressEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.Embedder.Embed(ctx, texts)
	if err == nil {
		e.progress.add(len(texts))
	}
	return vecs, err
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
