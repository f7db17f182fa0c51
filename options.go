package structid

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// EngineOption configures an Engine at construction time.
type EngineOption func(*engineConfig)

// engineConfig holds configuration collected from engine options.
type engineConfig struct {
	logger        *slog.Logger
	tracer        trace.Tracer
	meter         metric.Meter
	collisionMode bool
	opaqueTypes   []any
	seedSource    func() uint32
}

// WithLogger sets a custom logger for the engine.
// If not provided, a default JSON logger writing to stdout is created.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for the engine. When set, each
// Generate and Info call is wrapped in a span carrying the resulting
// signature depth and collision mode.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(c *engineConfig) {
		c.tracer = tracer
	}
}

// WithMeter sets an OpenTelemetry meter for the engine. When set, the
// engine records counters for generations, identity-cache hits and resets.
func WithMeter(meter metric.Meter) EngineOption {
	return func(c *engineConfig) {
		c.meter = meter
	}
}

// WithCollisionMode sets the engine-wide default for collision
// disambiguation. Individual calls can still override it with
// WithCollision. The default is off.
func WithCollisionMode(enabled bool) EngineOption {
	return func(c *engineConfig) {
		c.collisionMode = enabled
	}
}

// WithOpaqueTypes registers the dynamic types of the given values as opaque
// leaves. Values of a registered type classify as symbolic atoms and are
// never broken into fields.
//
// Example:
//
//	engine := structid.New(structid.WithOpaqueTypes(time.Time{}))
func WithOpaqueTypes(values ...any) EngineOption {
	return func(c *engineConfig) {
		c.opaqueTypes = append(c.opaqueTypes, values...)
	}
}

// WithSeedSource sets the source of epoch seeds. The engine draws one seed
// per epoch: at construction and on every Reset. The default source
// derives the seed from a fresh random UUID. Fixing the source makes
// default-mode root segments reproducible, which is useful in tests.
func WithSeedSource(src func() uint32) EngineOption {
	return func(c *engineConfig) {
		c.seedSource = src
	}
}

// GenerateOption configures a single Generate or Info call.
type GenerateOption func(*generateConfig)

// generateConfig holds per-call overrides.
type generateConfig struct {
	collision *bool
}

// WithCollision overrides the engine's collision mode for one call.
func WithCollision(enabled bool) GenerateOption {
	return func(c *generateConfig) {
		c.collision = &enabled
	}
}
