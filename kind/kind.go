package kind

import (
	"math/big"
	"reflect"
)

// Kind identifies the structural category of a value. The set of kinds is
// closed: every value classifies as exactly one of the constants below.
type Kind int

const (
	// Number covers all native integer and floating point values.
	Number Kind = iota

	// Text covers string values.
	Text

	// Bool covers boolean values.
	Bool

	// BigInt covers arbitrary-precision integers (math/big.Int).
	BigInt

	// Null covers nil values, including typed nil pointers.
	Null

	// Absent covers the Missing sentinel: a field that exists in name only.
	Absent

	// Symbol covers Atom values and types registered as opaque leaves.
	Symbol

	// Object covers maps, structs and any other field-bearing value.
	Object

	// Array covers slices and fixed-size arrays.
	Array
)

// count is the number of kinds. The bit allocator reserves the low bit
// range for them; ReservedBits is the first application-assignable exponent.
const count = 9

// ReservedBits is the number of low bit positions reserved for kind
// markers. Application keys are always assigned bits at or above
// 1 << ReservedBits.
const ReservedBits = 16

var names = [count]string{
	"number", "text", "bool", "bigint", "null", "absent", "symbol",
	"object", "array",
}

// String returns the lowercase name of the kind, e.g. "object".
func (k Kind) String() string {
	if k < 0 || int(k) >= count {
		return "invalid"
	}
	return names[k]
}

// Container reports whether values of this kind have children.
func (k Kind) Container() bool {
	return k == Object || k == Array
}

// Bit returns the reserved bit value pre-assigned to the kind. The result
// is a fresh big.Int and may be mutated by the caller.
func (k Kind) Bit() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(k))
}

// Atom is a symbolic constant. Atoms classify as Symbol and are treated as
// leaves; their text never influences a fingerprint.
type Atom string

// missing is the unexported type behind the Missing sentinel.
type missing struct{}

// Missing marks an absent value. It classifies as Absent, which is distinct
// from Null: a field holding Missing contributes a different kind marker
// than a field holding nil.
var Missing = missing{}

// Classifier maps native Go values onto the closed Kind set.
//
// The zero Classifier is not usable; construct one with NewClassifier. A
// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	opaque map[reflect.Type]bool
}

// NewClassifier returns a classifier. Each value in opaque registers its
// dynamic type as an opaque leaf: values of that type classify as Symbol
// instead of being broken into fields.
func NewClassifier(opaque ...any) *Classifier {
	c := &Classifier{opaque: make(map[reflect.Type]bool, len(opaque))}
	for _, v := range opaque {
		if v == nil {
			continue
		}
		c.opaque[reflect.TypeOf(v)] = true
	}
	return c
}

// Opaque reports whether t was registered as an opaque leaf type.
func (c *Classifier) Opaque(t reflect.Type) bool {
	return c.opaque[t]
}

// Classify maps a value onto its Kind. Classification is total: every Go
// value, including nil and values of unexpected types, receives a kind.
func (c *Classifier) Classify(v any) Kind {
	if v == nil {
		return Null
	}

	switch t := v.(type) {
	case missing:
		return Absent
	case Atom:
		return Symbol
	case string:
		return Text
	case bool:
		return Bool
	case big.Int:
		return BigInt
	case *big.Int:
		if t == nil {
			return Null
		}
		return BigInt
	}

	rv := resolve(reflect.ValueOf(v))
	if !rv.IsValid() {
		return Null
	}
	if c.opaque[rv.Type()] {
		return Symbol
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64:
		return Number
	case reflect.String:
		return Text
	case reflect.Bool:
		return Bool
	case reflect.Slice, reflect.Array:
		return Array
	default:
		// Maps, structs, channels, funcs: field-bearing by policy. A value
		// with no visible fields fingerprints as an empty object.
		return Object
	}
}

// resolve unwraps interfaces and pointers down to the underlying value.
// It returns an invalid Value for nil pointers and nil interfaces.
func resolve(rv reflect.Value) reflect.Value {
	for rv.IsValid() {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer:
			if rv.IsNil() {
				return reflect.Value{}
			}
			rv = rv.Elem()
		default:
			return rv
		}
	}
	return rv
}
