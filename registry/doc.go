// Package registry implements the symbol registry of the fingerprint
// engine: a grow-only table assigning a unique arbitrary-precision bit
// value to every distinct string key it is asked about.
//
// Keys are the distinguishing markers the traversal produces: field names,
// container type markers, array length markers, positional index markers
// and cycle markers. Bits are powers of two and strictly double with each
// allocation, which keeps accidental collisions of the additive per-depth
// sums improbable. The low bit range below 1<<kind.ReservedBits is never
// handed out; it is pre-assigned to the native kind markers.
//
// A Table carries no lock of its own. The engine serializes all access to
// it together with the collision counters and caches, as a single
// mutual-exclusion region.
package registry
