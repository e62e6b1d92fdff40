// Command benchmark measures how well the knowledge index retrieves each
// culture's own etiquette passages. Every passage is used as a query
// against its culture; a hit means the passage comes back in the top k.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"cultura/config"
	"cultura/internal/adapter/chunker"
	"cultura/internal/adapter/embedding"
	"cultura/internal/adapter/knowledge"
	"cultura/internal/adapter/memstore"
	"cultura/internal/observe"
	"cultura/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "directory holding cultura.yaml")
	topK := flag.Int("k", 3, "number of results per query")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	passages, err := knowledge.NewLoader(cfg.Knowledge.Includes, cfg.Knowledge.Excludes).Load(cfg.Knowledge.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading knowledge: %v\n", err)
		os.Exit(1)
	}

	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding not available: %v\n", err)
		os.Exit(1)
	}
	// one chunk per passage keeps hits unambiguous
	chk, err := chunker.NewPassageChunker(1<<20, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chunker error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	ks := usecase.NewKnowledgeStore(chk, emb, memstore.NewVectorIndex(), usecase.KnowledgeOptions{
		BatchSize:   cfg.Embedding.BatchSize,
		Concurrency: cfg.Embedding.Concurrency,
		Timeout:     cfg.Embedding.Timeout,
		Logger:      observe.NewLogger(cfg.Logging, os.Stderr),
	})

	fmt.Println("CULTURAL RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	start := time.Now()
	stats, err := ks.Build(ctx, passages)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Passages: %d  Cultures: %d  Build: %s\n", stats.Passages, stats.Cultures, time.Since(start).Round(time.Millisecond))
	fmt.Printf("Model: %s (%s), dimension %d\n\n", emb.ModelName(), cfg.Embedding.Provider, emb.Dimension())

	type cultureStats struct {
		queries, hits, top1 int
		latency             time.Duration
	}
	byCulture := make(map[string]*cultureStats)

	for _, p := range passages {
		cs := byCulture[p.Culture]
		if cs == nil {
			cs = &cultureStats{}
			byCulture[p.Culture] = cs
		}

		qStart := time.Now()
		results, err := ks.Query(ctx, p.Content, p.Culture, *topK)
		cs.latency += time.Since(qStart)
		cs.queries++
		if err != nil {
			fmt.Fprintf(os.Stderr, "Query error (%s/%s): %v\n", p.Culture, p.Category, err)
			continue
		}

		for i, r := range results {
			if r == p.Content {
				cs.hits++
				if i == 0 {
					cs.top1++
				}
				break
			}
		}
	}

	cultures := make([]string, 0, len(byCulture))
	for c := range byCulture {
		cultures = append(cultures, c)
	}
	sort.Strings(cultures)

	fmt.Printf("%-12s %8s %10s %8s %12s\n", "CULTURE", "QUERIES", "RECALL@K", "TOP-1", "AVG LATENCY")
	fmt.Println(strings.Repeat("-", 70))

	var queries, hits int
	for _, c := range cultures {
		cs := byCulture[c]
		queries += cs.queries
		hits += cs.hits
		fmt.Printf("%-12s %8d %10.2f %8.2f %12s\n", c, cs.queries,
			float64(cs.hits)/float64(cs.queries),
			float64(cs.top1)/float64(cs.queries),
			(cs.latency / time.Duration(cs.queries)).Round(time.Microsecond))
	}

	fmt.Println(strings.Repeat("=", 70))
	if queries == 0 {
		fmt.Println("No passages to benchmark.")
		return
	}
	recall := float64(hits) / float64(queries)
	fmt.Printf("Overall recall@%d: %.3f\n", *topK, recall)
	switch {
	case recall > 0.9:
		fmt.Println("Status: GOOD - passages retrieve themselves reliably")
	case recall > 0.6:
		fmt.Println("Status: OK - some passages are crowded out")
	default:
		fmt.Println("Status: POOR - consider another embedding model")
	}
}
