package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"cultura/internal/domain"
	"cultura/internal/observe"
	"cultura/internal/port"
)

// Translator runs the translate pipeline: literal translation, retrieval,
// cultural adaptation and notes.
type Translator struct {
	literal   port.LiteralTranslator
	registry  port.CultureRegistry
	retriever *Retriever
	engine    *Engine
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *observe.Metrics
}

func NewTranslator(
	literal port.LiteralTranslator,
	registry port.CultureRegistry,
	retriever *Retriever,
	engine *Engine,
	timeout time.Duration,
	logger *slog.Logger,
	metrics *observe.Metrics,
) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		literal:   literal,
		registry:  registry,
		retriever: retriever,
		engine:    engine,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// Translate never fails. Unknown cultures use the default profile and every
// failed external call degrades to its fallback.
func (t *Translator) Translate(ctx context.Context, text, sourceLanguage, targetCulture string) domain.TranslationResult {
	requestID := uuid.NewString()
	ctx, span := observe.StartSpan(ctx, "translate", trace.WithAttributes(
		attribute.String("request_id", requestID),
		attribute.String("culture", targetCulture),
		attribute.String("source_language", sourceLanguage),
	))
	defer span.End()

	logger := observe.Logger(ctx, t.logger).With("request_id", requestID)

	profile := t.registry.Resolve(targetCulture)
	basic := t.translateLiteral(ctx, logger, text, sourceLanguage, profile.Language)
	retrieved := t.retriever.Retrieve(ctx, basic, profile)
	adapted := t.engine.AdaptText(ctx, basic, profile, retrieved)

	logger.Debug("translated",
		"culture", profile.ID, "language", profile.Language, "passages", len(retrieved))

	return domain.TranslationResult{
		BasicTranslation:   basic,
		CulturalAdaptation: adapted,
		CultureNotes:       t.registry.Notes(targetCulture),
		Confidence:         domain.Confidence,
	}
}

func (t *Translator) translateLiteral(ctx context.Context, logger *slog.Logger, text, src, dst string) string {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	out, err := t.literal.Translate(ctx, text, src, dst)
	if err == nil && strings.TrimSpace(out) == "" {
		err = port.ErrEmptyOutput
	}
	if err != nil {
		logger.Warn("literal translation failed, using original text",
			"source_language", src, "target_language", dst, "err", err)
		t.metrics.RecordFallback(ctx, observe.StageTranslation)
		return text
	}
	return out
}
