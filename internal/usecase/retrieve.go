package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cultura/internal/adapter/cache"
	"cultura/internal/domain"
	"cultura/internal/observe"
	"cultura/internal/port"
)

// Retriever fetches etiquette passages relevant to a conversation for one
// culture. It never fails: store errors produce an empty result.
type Retriever struct {
	store   port.KnowledgeStore
	cache   *cache.QueryCache
	topK    int
	logger  *slog.Logger
	metrics *observe.Metrics
}

// NewRetriever creates a retriever. A nil qc disables memoization.
func NewRetriever(store port.KnowledgeStore, qc *cache.QueryCache, topK int, logger *slog.Logger, metrics *observe.Metrics) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:   store,
		cache:   qc,
		topK:    topK,
		logger:  logger,
		metrics: metrics,
	}
}

// Retrieve returns up to the configured top-k passages for profile. Only
// profile.ID is consulted: it is the normalized culture id the caller
// asked for, kept even when the registry substituted the default profile,
// so an unregistered culture retrieves nothing.
func (r *Retriever) Retrieve(ctx context.Context, conversationContext string, profile domain.CultureProfile) []string {
	return r.RetrieveK(ctx, conversationContext, profile, r.topK)
}

// RetrieveK returns up to k passages of profile's culture, most similar
// first. Passages of other cultures are never returned.
func (r *Retriever) RetrieveK(ctx context.Context, conversationContext string, profile domain.CultureProfile, k int) []string {
	ctx, span := observe.StartSpan(ctx, "retrieve", trace.WithAttributes(
		attribute.String("culture", profile.ID),
		attribute.Int("k", k),
	))
	defer span.End()

	if k <= 0 || profile.ID == "" {
		return []string{}
	}

	if r.cache != nil {
		if passages, ok := r.cache.Get(conversationContext, profile.ID, k); ok {
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return passages
		}
	}

	passages, err := r.store.Query(ctx, conversationContext, profile.ID, k)
	if err != nil {
		observe.Logger(ctx, r.logger).Warn("retrieval failed, continuing without context",
			"culture", profile.ID, "err", err)
		r.metrics.RecordFallback(ctx, observe.StageRetrieval)
		span.RecordError(err)
		return []string{}
	}
	if passages == nil {
		passages = []string{}
	}

	r.metrics.RecordRetrieval(ctx, profile.ID, len(passages))
	if r.cache != nil {
		r.cache.Put(conversationContext, profile.ID, k, passages)
	}
	return passages
}
