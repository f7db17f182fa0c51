package structid

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// telemetry holds the optional OpenTelemetry instruments for an engine.
// All methods are safe to call when telemetry is unconfigured: a nil
// tracer or meter simply turns the corresponding calls into no-ops.
type telemetry struct {
	tracer trace.Tracer

	// generateCount increments for each Generate call, tagged with the
	// collision mode in effect.
	generateCount metric.Int64Counter

	// cacheHitCount increments for each identity-cache hit.
	cacheHitCount metric.Int64Counter

	// resetCount increments for each epoch transition.
	resetCount metric.Int64Counter
}

// newTelemetry creates the metric instruments for the engine. Instrument
// creation failures are logged and leave the affected instrument nil; they
// never fail engine construction.
func newTelemetry(tracer trace.Tracer, meter metric.Meter, logger *slog.Logger) *telemetry {
	t := &telemetry{tracer: tracer}
	if meter == nil {
		return t
	}

	var err error
	t.generateCount, err = meter.Int64Counter(
		"structid.generate.count",
		metric.WithDescription("Number of structure IDs generated"),
		metric.WithUnit("1"),
	)
	if err != nil {
		logger.Warn("failed to create generate counter", "error", err)
	}

	t.cacheHitCount, err = meter.Int64Counter(
		"structid.cache.hit.count",
		metric.WithDescription("Number of identity-cache hits"),
		metric.WithUnit("1"),
	)
	if err != nil {
		logger.Warn("failed to create cache hit counter", "error", err)
	}

	t.resetCount, err = meter.Int64Counter(
		"structid.reset.count",
		metric.WithDescription("Number of engine resets (epoch transitions)"),
		metric.WithUnit("1"),
	)
	if err != nil {
		logger.Warn("failed to create reset counter", "error", err)
	}

	return t
}

// startSpan opens a span for one engine operation. It returns a nil span
// when no tracer is configured; endSpan tolerates that.
func (t *telemetry) startSpan(name string) trace.Span {
	if t.tracer == nil {
		return nil
	}
	_, span := t.tracer.Start(context.Background(), name)
	return span
}

// endSpan attaches the operation's result attributes and closes the span.
func (t *telemetry) endSpan(span trace.Span, collision bool, levelCount int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Bool("structid.collision_mode", collision),
		attribute.Int("structid.level_count", levelCount),
	)
	span.End()
}

func (t *telemetry) recordGenerate(collision bool) {
	if t.generateCount == nil {
		return
	}
	t.generateCount.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Bool("structid.collision_mode", collision)))
}

func (t *telemetry) recordCacheHit() {
	if t.cacheHitCount == nil {
		return
	}
	t.cacheHitCount.Add(context.Background(), 1)
}

func (t *telemetry) recordReset() {
	if t.resetCount == nil {
		return
	}
	t.resetCount.Add(context.Background(), 1)
}
