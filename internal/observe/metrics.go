// Package observe provides structured logging, OpenTelemetry metrics and
// tracing for cultura.
//
// Instruments are created from a [metric.MeterProvider]. Production code uses
// the global provider; tests pass an SDK provider with a manual reader.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all cultura metrics.
const meterName = "cultura"

// Fallback stages reported on the fallbacks counter.
const (
	StageRetrieval   = "retrieval"
	StageTranslation = "translation"
	StageAdaptation  = "adaptation"
	StageSuggestion  = "suggestion"
)

// Metrics holds the instruments recorded by the pipeline.
type Metrics struct {
	// GenerationDuration tracks language model latency. Use with attribute:
	//   attribute.String("operation", ...)
	GenerationDuration metric.Float64Histogram

	// Fallbacks counts degraded answers. Use with attribute:
	//   attribute.String("stage", ...)
	Fallbacks metric.Int64Counter

	// RetrievalResults records how many passages each retrieval returned.
	RetrievalResults metric.Int64Histogram
}

var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.GenerationDuration, err = m.Float64Histogram("cultura.generation.duration",
		metric.WithDescription("Latency of language model generation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Fallbacks, err = m.Int64Counter("cultura.fallbacks",
		metric.WithDescription("Answers degraded to a fallback, by pipeline stage."),
	); err != nil {
		return nil, err
	}
	if met.RetrievalResults, err = m.Int64Histogram("cultura.retrieval.results",
		metric.WithDescription("Number of passages returned per retrieval."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// DefaultMetrics returns instruments bound to the global meter provider. It
// falls back to a no-op implementation if instrument creation fails.
func DefaultMetrics() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		m, _ = NewMetrics(noopProvider())
	}
	return m
}

// RecordGeneration records the latency of one generation call.
func (m *Metrics) RecordGeneration(ctx context.Context, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordFallback counts one fallback at the given stage.
func (m *Metrics) RecordFallback(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.Fallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordRetrieval records the size of a retrieval answer.
func (m *Metrics) RecordRetrieval(ctx context.Context, culture string, n int) {
	if m == nil {
		return
	}
	m.RetrievalResults.Record(ctx, int64(n),
		metric.WithAttributes(attribute.String("culture", culture)))
}
