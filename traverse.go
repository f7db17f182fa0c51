package structid

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/structural-io/structid/kind"
	"github.com/structural-io/structid/registry"
)

// levels is the per-traversal accumulator: depth -> running bit sum.
// Siblings at the same depth merge into one sum, so the resulting
// signature reflects the multiset of shapes per depth, not exact paths.
type levels map[int]*big.Int

// workItem is one pending node on the traversal worklist.
type workItem struct {
	value any
	depth int
}

// traversal carries the call-scoped state of one walk: the accumulator and
// the visited set. Both are released when the walk returns.
type traversal struct {
	classifier *kind.Classifier
	bits       *registry.Table
	acc        levels
	visited    map[kind.Identity]string
}

// walk traverses the value graph rooted at root using an explicit
// worklist, so recursion depth never depends on the input. Deep chains are
// bounded only by available heap; the visited set cuts every reference
// cycle after one revisit.
func (e *Engine) walk(root any) levels {
	t := &traversal{
		classifier: e.classifier,
		bits:       e.bits,
		acc:        make(levels),
		visited:    make(map[kind.Identity]string),
	}

	stack := []workItem{{value: root, depth: 0}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = t.visit(item.value, item.depth, stack)
	}
	return t.acc
}

// visit accumulates one node's contributions at its depth and schedules
// its children. It returns the worklist with any children appended.
func (t *traversal) visit(v any, depth int, stack []workItem) []workItem {
	sum := t.level(depth)

	k := t.classifier.Classify(v)
	sum.Add(sum, k.Bit())
	if !k.Container() {
		return stack
	}

	rv, ok := kind.Underlying(v)
	if !ok {
		return stack
	}

	var names []string
	var children []any
	if k == kind.Object {
		names, children = objectFields(rv)
	}
	local := localSignature(k, rv, names)

	if ident, hasIdent := kind.IdentityOf(v); hasIdent {
		if first, seen := t.visited[ident]; seen {
			// Cycle (or shared reference): contribute the marker of the
			// first visit and stop descending.
			sum.Add(sum, t.bits.GetBit("circular:"+first))
			return stack
		}
		t.visited[ident] = local
	}

	sum.Add(sum, t.bits.GetBit("type:"+k.String()))

	if k == kind.Object {
		for i, name := range names {
			sum.Add(sum, t.bits.GetBit(name))
			stack = append(stack, workItem{value: children[i], depth: depth + 1})
		}
		return stack
	}

	n := rv.Len()
	sum.Add(sum, t.bits.GetBit("length:"+strconv.Itoa(n)))
	for i := 0; i < n; i++ {
		sum.Add(sum, t.bits.GetBit("["+strconv.Itoa(i)+"]"))
		stack = append(stack, workItem{value: rv.Index(i).Interface(), depth: depth + 1})
	}
	return stack
}

// level returns the accumulator for depth, seeding it on first touch so
// even a depth with zero-bit contributions stays non-zero.
func (t *traversal) level(depth int) *big.Int {
	if sum, ok := t.acc[depth]; ok {
		return sum
	}
	sum := new(big.Int).Lsh(big.NewInt(1), uint(depth))
	t.acc[depth] = sum
	return sum
}

// localSignature builds the cheap per-node signature used for cycle
// markers: the sorted key set for objects, the length for arrays. It is
// never compared across nodes for shape equality.
func localSignature(k kind.Kind, rv reflect.Value, names []string) string {
	if k == kind.Array {
		return "[" + strconv.Itoa(rv.Len()) + "]"
	}
	return "{" + strings.Join(names, ",") + "}"
}

// nodeSignature returns the local signature of v when v is a container,
// and "" otherwise. The identity caches pair every token with it so a hit
// on a recycled token can be rejected.
func (e *Engine) nodeSignature(v any) string {
	k := e.classifier.Classify(v)
	if !k.Container() {
		return ""
	}
	rv, ok := kind.Underlying(v)
	if !ok {
		return ""
	}
	var names []string
	if k == kind.Object {
		names, _ = objectFields(rv)
	}
	return localSignature(k, rv, names)
}

// objectFields enumerates the visible fields of an object value in
// lexicographic name order. Insertion order never influences the result.
//
// Maps contribute every key, stringified for non-string key types.
// Structs contribute exported fields under their json tag name when one is
// present; a "-" tag omits the field. Other object-classified values
// (channels, funcs) have no fields and fingerprint as empty objects.
func objectFields(rv reflect.Value) ([]string, []any) {
	var names []string
	var byName map[string]any

	switch rv.Kind() {
	case reflect.Map:
		byName = make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key()
			var name string
			if key.Kind() == reflect.String {
				name = key.String()
			} else {
				name = fmt.Sprint(key.Interface())
			}
			names = append(names, name)
			byName[name] = iter.Value().Interface()
		}
	case reflect.Struct:
		rt := rv.Type()
		byName = make(map[string]any, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			if f.PkgPath != "" {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("json"); ok {
				tagName, _, _ := strings.Cut(tag, ",")
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			names = append(names, name)
			byName[name] = rv.Field(i).Interface()
		}
	default:
		return nil, nil
	}

	sort.Strings(names)
	children := make([]any, len(names))
	for i, name := range names {
		children[i] = byName[name]
	}
	return names, children
}
