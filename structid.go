package structid

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/structural-io/structid/kind"
	"github.com/structural-io/structid/registry"
	"github.com/structural-io/structid/snapshot"
)

// Config holds the engine-wide settings that can change between calls.
type Config struct {
	// CollisionMode enables collision disambiguation: every Generate call
	// on a structurally identical input yields a distinct ID whose root
	// segment counts occurrences of that shape.
	CollisionMode bool
}

// Info describes the structure of a value without advancing any counter.
type Info struct {
	// ID is the structure ID the value would receive right now.
	ID string

	// LevelCount is the number of depth levels in the value, including
	// the root level.
	LevelCount int

	// CollisionCount is the current collision counter for the value's
	// structure signature.
	CollisionCount int64
}

// Engine computes deterministic, value-independent structure IDs.
//
// An Engine owns all epoch-scoped state: the symbol registry, the
// collision counters and the identity caches. Independent engines never
// share state, so separate fingerprint domains can coexist in one process
// and tests stay hermetic without resets.
//
// All methods are safe for concurrent use; one mutex guards registry
// lookup-or-insert, counter read-or-increment, cache access and reset as
// a single exclusion region.
type Engine struct {
	mu sync.Mutex

	logger     *slog.Logger
	classifier *kind.Classifier
	bits       *registry.Table
	counters   map[string]int64
	caches     *identityCaches
	cfg        Config

	seed       uint32
	seedSource func() uint32

	tel *telemetry
}

// New creates an engine with the provided options.
//
// Example:
//
//	engine := structid.New(
//	    structid.WithLogger(logger),
//	    structid.WithCollisionMode(false),
//	)
//	id := engine.Generate(map[string]any{"name": "x", "count": 0})
func New(opts ...EngineOption) *Engine {
	cfg := &engineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if cfg.seedSource == nil {
		cfg.seedSource = randomSeed
	}

	return &Engine{
		logger:     cfg.logger,
		classifier: kind.NewClassifier(cfg.opaqueTypes...),
		bits:       registry.New(),
		counters:   make(map[string]int64),
		caches:     newIdentityCaches(),
		cfg:        Config{CollisionMode: cfg.collisionMode},
		seed:       cfg.seedSource(),
		seedSource: cfg.seedSource,
		tel:        newTelemetry(cfg.tracer, cfg.meter, cfg.logger),
	}
}

// randomSeed draws an epoch seed from a fresh random UUID.
func randomSeed() uint32 {
	u := uuid.New()
	return binary.BigEndian.Uint32(u[:4])
}

// Generate computes the structure ID of value. Two values with the same
// shape receive the same ID in default mode regardless of field order or
// field values; in collision mode every call mints a distinct root
// segment while the remaining segments still assert sameness of shape.
//
// Generate is total: every value, including nil and cyclic graphs,
// produces a valid ID.
func (e *Engine) Generate(value any, opts ...GenerateOption) string {
	gc := &generateConfig{}
	for _, opt := range opts {
		opt(gc)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	collision := e.cfg.CollisionMode
	if gc.collision != nil {
		collision = *gc.collision
	}

	span := e.tel.startSpan("structid.Generate")
	e.tel.recordGenerate(collision)

	ident, hasIdent := kind.IdentityOf(value)
	local := ""
	if hasIdent {
		local = e.nodeSignature(value)
	}

	// Collision mode must bypass the final-ID cache: every call is free
	// to differ. A cached ID is only valid while the shape's counter still
	// holds the value it was built with; any advance makes it stale.
	if !collision && hasIdent {
		if entry, ok := e.caches.lookupID(ident, local); ok && e.counters[entry.sig] == entry.counter {
			e.tel.recordCacheHit()
			e.tel.endSpan(span, collision, 0)
			return entry.id
		}
	}

	sig, levelCount := e.fingerprint(value, ident, hasIdent, local)
	counter := e.counters[sig]
	id := composeID(rootSegment(sig, e.seed, counter, collision), sig)

	if collision {
		e.counters[sig] = counter + 1
		if hasIdent {
			e.caches.dropInfo(ident)
		}
	} else if hasIdent {
		e.caches.storeID(ident, idEntry{local: local, sig: sig, counter: counter, id: id})
	}

	e.tel.endSpan(span, collision, levelCount)
	return id
}

// Info reports the structure ID, level count and current collision count
// for value. Info is pure with respect to counters: it reads the current
// counter value without advancing it, in either mode.
func (e *Engine) Info(value any, opts ...GenerateOption) Info {
	gc := &generateConfig{}
	for _, opt := range opts {
		opt(gc)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	collision := e.cfg.CollisionMode
	if gc.collision != nil {
		collision = *gc.collision
	}

	span := e.tel.startSpan("structid.Info")

	ident, hasIdent := kind.IdentityOf(value)
	local := ""
	if hasIdent {
		local = e.nodeSignature(value)
	}

	if hasIdent {
		if entry, ok := e.caches.lookupInfo(ident, local); ok {
			// A counter advanced by another input of the same shape makes
			// the cached ID stale; treat that as a miss.
			if e.counters[entry.sig] == entry.counter {
				e.tel.recordCacheHit()
				e.tel.endSpan(span, collision, entry.info.LevelCount)
				return entry.info
			}
		}
	}

	sig, levelCount := e.fingerprint(value, ident, hasIdent, local)
	counter := e.counters[sig]
	inf := Info{
		ID:             composeID(rootSegment(sig, e.seed, counter, collision), sig),
		LevelCount:     levelCount,
		CollisionCount: counter,
	}

	if hasIdent {
		e.caches.storeInfo(ident, infoEntry{local: local, sig: sig, counter: counter, info: inf})
		if !collision {
			e.caches.storeID(ident, idEntry{local: local, sig: sig, counter: counter, id: inf.ID})
		}
	}

	e.tel.endSpan(span, collision, levelCount)
	return inf
}

// fingerprint returns the structure signature and level count of value,
// consulting and populating the signature cache when the value has a
// reference identity. Callers hold e.mu.
func (e *Engine) fingerprint(value any, ident kind.Identity, hasIdent bool, local string) (string, int) {
	if hasIdent {
		if entry, ok := e.caches.lookupSig(ident, local); ok {
			e.tel.recordCacheHit()
			return entry.sig, entry.levels
		}
	}

	acc := e.walk(value)
	sig := acc.signature()
	levelCount := len(acc)

	if hasIdent {
		e.caches.storeSig(ident, sigEntry{local: local, sig: sig, levels: levelCount})
	}
	return sig, levelCount
}

// SetConfig replaces the engine-wide settings. It affects subsequent
// calls only; per-call options still take precedence.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

// GetConfig returns the current engine-wide settings.
func (e *Engine) GetConfig() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Reset starts a new epoch: the symbol registry, the collision counters
// and all identity caches are emptied, the bit allocator watermark rewinds
// to the first application-assignable bit and a fresh epoch seed is drawn,
// so default-mode IDs for previously-seen shapes change. Reset is atomic
// with respect to concurrent calls.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.bits.Reset()
	e.counters = make(map[string]int64)
	e.caches.clear()
	e.seed = e.seedSource()
	e.tel.recordReset()
	e.logger.Debug("engine reset", "registry_size", e.bits.Len())
}

// ExportState returns a portable copy of the engine's persistent state:
// the symbol registry with bits rendered as decimal strings, and the
// collision counters.
func (e *Engine) ExportState() snapshot.State {
	e.mu.Lock()
	defer e.mu.Unlock()

	counters := make(map[string]int64, len(e.counters))
	for sig, n := range e.counters {
		counters[sig] = n
	}
	return snapshot.State{
		RegistryMapping:   e.bits.Export(),
		CollisionCounters: counters,
	}
}

// ImportState replaces the engine's persistent state with st. The state
// is validated in full before anything changes; on error the engine is
// left untouched. On success the engine resets first, replays both maps,
// and moves the bit allocator watermark one doubling past the largest
// imported bit.
func (e *Engine) ImportState(st snapshot.State) error {
	const op = "Engine.ImportState"
	if err := st.Validate(); err != nil {
		return NewStateError(op, fmt.Errorf("%w: %v", ErrInvalidState, err))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.resetLocked()
	if err := e.bits.Restore(st.RegistryMapping); err != nil {
		// Validate already checked the mapping, so this only fires if the
		// two parsers ever disagree.
		return NewStateError(op, err)
	}
	for sig, n := range st.CollisionCounters {
		e.counters[sig] = n
	}

	e.logger.Debug("state imported",
		"registry_size", e.bits.Len(),
		"counter_count", len(e.counters))
	return nil
}

// SaveState exports the engine state and writes it to the store under
// name.
func (e *Engine) SaveState(ctx context.Context, store snapshot.Store, name string) error {
	const op = "Engine.SaveState"
	if store == nil {
		return NewValidationError(op, fmt.Errorf("%w: store is nil", ErrInvalidConfig))
	}
	if err := store.Save(ctx, name, e.ExportState()); err != nil {
		return NewStorageError(op, fmt.Errorf("%w: %v", ErrStorageFailed, err)).
			WithContext(map[string]any{"snapshot": name})
	}
	return nil
}

// LoadState reads a snapshot from the store and imports it, replacing the
// engine state.
func (e *Engine) LoadState(ctx context.Context, store snapshot.Store, name string) error {
	const op = "Engine.LoadState"
	if store == nil {
		return NewValidationError(op, fmt.Errorf("%w: store is nil", ErrInvalidConfig))
	}
	st, err := store.Load(ctx, name)
	if err != nil {
		return NewStorageError(op, fmt.Errorf("%w: %v", ErrStorageFailed, err)).
			WithContext(map[string]any{"snapshot": name})
	}
	return e.ImportState(st)
}
