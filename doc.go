// Package structid computes deterministic, value-independent structure
// fingerprints ("structure IDs") for arbitrary nested Go values.
//
// Two inputs with the same shape - the same field names, nesting,
// container lengths and element kinds at every depth - receive the same
// fingerprint regardless of field order or field values. Structurally
// different inputs receive, with overwhelming probability, different
// fingerprints. Graphs containing reference cycles are handled safely:
// traversal uses an explicit worklist and a call-scoped visited set, so it
// never overflows the stack or loops forever.
//
// # Core Concepts
//
// The engine is organized around a few key pieces:
//
//   - Kinds: a closed classification of every input value (see the kind
//     subpackage)
//   - Symbol registry: a grow-only table binding each distinguishing
//     string key to a unique arbitrary-precision bit (see the registry
//     subpackage)
//   - Level accumulator: per-depth sums of bit contributions, built by one
//     traversal and rendered into the canonical structure signature
//   - Collision counters: optional per-signature occurrence counters that
//     mint a distinguishing root segment per call
//   - Identity caches: non-owning, reference-keyed memoization of computed
//     IDs, signatures and info triples
//
// # Getting Started
//
// Create an engine and fingerprint values:
//
//	engine := structid.New()
//
//	a := map[string]any{"count": 0, "name": "x"}
//	b := map[string]any{"name": "y", "count": 1}
//
//	// Same shape, same ID - field order and values are irrelevant.
//	fmt.Println(engine.Generate(a) == engine.Generate(b)) // true
//
// IDs are ASCII strings of dash-joined segments, one per depth level:
//
//	L0:8234977049383585792-L1:65794-L2:786436
//
// The root segment (L0) disambiguates; segments L1..Ln encode shape.
//
// # Collision Mode
//
// With collision disambiguation enabled, structurally identical inputs
// get distinct IDs whose root segments count occurrences of the shape:
//
//	engine.SetConfig(structid.Config{CollisionMode: true})
//	engine.Generate(a) // L0:0-...
//	engine.Generate(b) // L0:1-...
//
// The mode can also be set per call with WithCollision, or made the
// engine default with WithCollisionMode.
//
// # Epochs and State
//
// Each engine owns its state; Reset starts a new epoch with an empty
// registry, cleared counters and caches, and a fresh epoch seed, so
// default-mode IDs for previously-seen shapes change. ExportState and
// ImportState move the registry and counters between engines or across
// process restarts, and the snapshot subpackage persists them to disk,
// Redis or etcd.
//
// # Thread Safety
//
// All Engine methods are safe for concurrent use. Construct separate
// engines for independent fingerprint domains.
package structid
