package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"cultura/config"
	"cultura/internal/adapter/cache"
	"cultura/internal/adapter/chunker"
	"cultura/internal/adapter/culture"
	"cultura/internal/adapter/embedding"
	"cultura/internal/adapter/knowledge"
	"cultura/internal/adapter/llm"
	"cultura/internal/adapter/memstore"
	"cultura/internal/adapter/pgstore"
	"cultura/internal/adapter/store"
	"cultura/internal/adapter/translate"
	"cultura/internal/observe"
	"cultura/internal/port"
	"cultura/internal/usecase"
)

// app holds the wired pipeline for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observe.Metrics
	registry  *culture.Registry
	loader    *knowledge.Loader
	knowledge *usecase.KnowledgeStore
	retriever *usecase.Retriever
	assistant *usecase.Assistant
}

// openKnowledge wires the knowledge store for the configured backend. The
// embedder may be wrapped, for example to report progress. Only a writable
// store can be built.
func openKnowledge(ctx context.Context, cfg *config.Config, wrap func(port.Embedder) port.Embedder, writable bool) (*usecase.KnowledgeStore, error) {
	emb, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if wrap != nil {
		emb = wrap(emb)
	}

	chk, err := chunker.NewPassageChunker(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	index, err := openIndex(ctx, cfg, writable)
	if err != nil {
		return nil, err
	}

	return usecase.NewKnowledgeStore(chk, emb, index, usecase.KnowledgeOptions{
		BatchSize:   cfg.Embedding.BatchSize,
		Concurrency: cfg.Embedding.Concurrency,
		Timeout:     cfg.Embedding.Timeout,
		ChunkConfig: chk.ConfigKey(),
		Logger:      logger,
	}), nil
}

// openIndex opens the vector index. A read-only bolt index takes a shared
// file lock so concurrent cultura processes never wait on each other; a
// missing bolt file opens as an empty in-memory index until it is built.
func openIndex(ctx context.Context, cfg *config.Config, writable bool) (port.VectorIndex, error) {
	switch cfg.Store.Backend {
	case "bolt", "":
		dbPath := cfg.IndexDBPath(GetRootDir())
		if !writable {
			if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
				return memstore.NewVectorIndex(), nil
			}
		}
		if err := config.EnsureDataDir(dbPath); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		idx, err := store.Open(dbPath, store.Options{
			ReadOnly:    !writable,
			LockTimeout: cfg.Store.LockTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open index store: %w", err)
		}
		return idx, nil
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, fmt.Errorf("store.database_url is required for the postgres backend")
		}
		idx, err := pgstore.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres index: %w", err)
		}
		return idx, nil
	case "memory":
		return memstore.NewVectorIndex(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

// sharedIndex reports whether the index outlives the process, so that a
// build must go through a separate writable handle.
func sharedIndex(cfg *config.Config) bool {
	return cfg.Store.Backend == "bolt" || cfg.Store.Backend == ""
}

// newApp wires the pipeline. Without generation only retrieval is usable.
// A model that cannot be configured is replaced by one that always fails,
// so every operation degrades to its fallback.
func newApp(ctx context.Context, generation bool) (*app, error) {
	cfg := GetConfig()
	metrics := observe.DefaultMetrics()

	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		registry: culture.NewRegistry(cfg.Cultures),
		loader:   knowledge.NewLoader(cfg.Knowledge.Includes, cfg.Knowledge.Excludes),
	}

	ks, err := a.openBuilt(ctx)
	if err != nil {
		return nil, err
	}
	a.knowledge = ks

	var qc *cache.QueryCache
	if cfg.Retrieve.CacheSize > 0 {
		qc = cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL)
		ks.OnRebuild(qc.Invalidate)
	}
	a.retriever = usecase.NewRetriever(ks, qc, cfg.Retrieve.TopK, logger, metrics)

	if !generation {
		return a, nil
	}

	gen, err := llm.New(cfg.Generation)
	if err != nil {
		a.logger.Warn("language model unavailable, results fall back to unadapted text",
			"provider", cfg.Generation.Provider, "err", err)
		gen = llm.Unavailable{Reason: err}
	}
	literal, err := translate.New(cfg.Translation, gen)
	if err != nil {
		ks.Close()
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}

	engine := usecase.NewEngine(gen, usecase.EngineOptions{
		AdaptMaxTokens:   cfg.Generation.AdaptMaxTokens,
		SuggestMaxTokens: cfg.Generation.SuggestMaxTokens,
		Timeout:          cfg.Generation.Timeout,
	}, logger, metrics)
	translator := usecase.NewTranslator(literal, a.registry, a.retriever, engine,
		cfg.Translation.Timeout, logger, metrics)
	a.assistant = usecase.NewAssistant(translator, a.registry, a.retriever, engine, cfg.Generation.SuggestCount)

	return a, nil
}

// openBuilt opens the knowledge store for queries. An index that has never
// been built is built from the configured knowledge first, through a
// writable handle that is closed before querying starts. A stale index is
// used as is.
func (a *app) openBuilt(ctx context.Context) (*usecase.KnowledgeStore, error) {
	ks, err := openKnowledge(ctx, a.cfg, nil, !sharedIndex(a.cfg))
	if err != nil {
		return nil, err
	}

	n, err := ks.Count(ctx)
	if err != nil {
		ks.Close()
		return nil, fmt.Errorf("failed to inspect index: %w", err)
	}

	if n > 0 {
		res, err := ks.NeedsRebuild(ctx)
		if err != nil {
			ks.Close()
			return nil, err
		}
		if res.NeedsRebuild {
			a.logger.Warn("knowledge index is stale, run 'cultura index' to rebuild", "reason", res.Reason)
		}
		return ks, nil
	}

	if !sharedIndex(a.cfg) {
		if err := a.build(ctx, ks); err != nil {
			ks.Close()
			return nil, err
		}
		return ks, nil
	}

	ks.Close()
	writer, err := openKnowledge(ctx, a.cfg, nil, true)
	if err != nil {
		return nil, err
	}
	err = a.build(ctx, writer)
	writer.Close()
	if err != nil {
		return nil, err
	}
	return openKnowledge(ctx, a.cfg, nil, false)
}

func (a *app) build(ctx context.Context, ks *usecase.KnowledgeStore) error {
	passages, err := a.loader.Load(a.cfg.Knowledge.Dir)
	if err != nil {
		return fmt.Errorf("failed to load knowledge: %w", err)
	}
	a.logger.Info("building knowledge index", "passages", len(passages))
	if _, err := ks.Build(ctx, passages); err != nil {
		return fmt.Errorf("failed to build knowledge index: %w", err)
	}
	return nil
}

func (a *app) Close() error {
	return a.knowledge.Close()
}
