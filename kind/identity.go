package kind

import "reflect"

// Identity is a non-owning reference token for a container value. Tokens
// pair the reference's dynamic type with its data pointer, so holding an
// Identity never keeps the value itself reachable. Two tokens compare equal
// exactly when they were taken from the same live reference: distinct
// references that share an address, like a pointer to a struct and a
// pointer to its first field, carry different types and never alias.
//
// Because the token does not pin its value, a token taken from a collected
// value could later collide with a new allocation at the same address.
// Callers that store Identity keys across calls must revalidate hits (the
// engine's caches pair every token with the node's local signature).
type Identity struct {
	typ    reflect.Type
	word   uintptr
	length int
}

// IdentityOf returns the reference identity of v. Only values reached
// through a reference (pointers, maps, slices) have one; primitives and
// bare struct values report false, and such values can never participate
// in a reference cycle.
func IdentityOf(v any) (Identity, bool) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() {
		switch rv.Kind() {
		case reflect.Interface:
			if rv.IsNil() {
				return Identity{}, false
			}
			rv = rv.Elem()
		case reflect.Pointer:
			if rv.IsNil() {
				return Identity{}, false
			}
			return Identity{typ: rv.Type(), word: rv.Pointer()}, true
		case reflect.Map:
			if rv.IsNil() {
				return Identity{}, false
			}
			return Identity{typ: rv.Type(), word: rv.Pointer()}, true
		case reflect.Slice:
			if rv.IsNil() {
				return Identity{}, false
			}
			return Identity{typ: rv.Type(), word: rv.Pointer(), length: rv.Len()}, true
		default:
			return Identity{}, false
		}
	}
	return Identity{}, false
}

// Underlying resolves v through interfaces and pointers to the value that
// traversal should enumerate. The second result is false when resolution
// bottoms out at nil.
func Underlying(v any) (reflect.Value, bool) {
	if v == nil {
		return reflect.Value{}, false
	}
	rv := resolve(reflect.ValueOf(v))
	return rv, rv.IsValid()
}
