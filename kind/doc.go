// Package kind models the closed input domain of the fingerprint engine.
//
// Every native Go value presented to the engine is mapped onto exactly one
// Kind by a Classifier. The set of kinds is fixed: Number, Text, Bool,
// BigInt, Null, Absent, Symbol, Object and Array. Only Object and Array are
// containers; everything else is a leaf.
//
// The package also owns the two sentinel value types that have no native Go
// counterpart:
//
//   - Atom is an interned symbolic constant. Two atoms are always
//     shape-equal regardless of their text.
//   - Missing marks a field that is present in name but carries no value,
//     which is distinct from an explicit nil.
//
// Classification is deliberately value-independent. A struct classifies as
// Object and is fingerprinted by its visible fields, not by its Go type
// identity; a Classifier can be told to treat specific types (time.Time is
// the usual example) as opaque leaves instead via opaque-type registration.
package kind
