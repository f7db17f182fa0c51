package structid

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structural-io/structid/kind"
	"github.com/structural-io/structid/snapshot"
)

// newTestEngine returns an engine with a fixed epoch seed so IDs are
// comparable across engines within a test.
func newTestEngine(opts ...EngineOption) *Engine {
	opts = append([]EngineOption{WithSeedSource(func() uint32 { return 7 })}, opts...)
	return New(opts...)
}

// tail strips the root segment from a structure ID, leaving the
// depth >= 1 segments.
func tail(id string) string {
	_, rest, _ := strings.Cut(id, "-")
	return rest
}

func testTime() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestGenerate_ShapeEquality(t *testing.T) {
	e := newTestEngine()

	a := map[string]any{"count": 0, "name": "x"}
	b := map[string]any{"name": "y", "count": 1}

	assert.Equal(t, e.Generate(a), e.Generate(b),
		"same keys and kinds must fingerprint identically regardless of order and values")
}

func TestGenerate_ShapeDifference(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		a, b any
	}{
		{
			name: "different key name",
			a:    map[string]any{"count": 0, "name": "x"},
			b:    map[string]any{"count": 0, "title": "x"},
		},
		{
			name: "different element kind",
			a:    map[string]any{"v": "text"},
			b:    map[string]any{"v": 1},
		},
		{
			name: "different array length",
			a:    map[string]any{"items": []any{1, 2, 3}},
			b:    map[string]any{"items": []any{1, 2, 3, 4}},
		},
		{
			name: "different nesting",
			a:    map[string]any{"v": map[string]any{"w": 1}},
			b:    map[string]any{"v": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idA, idB := e.Generate(tt.a), e.Generate(tt.b)
			assert.NotEqual(t, idA, idB)
			assert.NotEqual(t, tail(idA), tail(idB),
				"shape-different inputs must differ in the non-root segments")
		})
	}
}

func TestGenerate_ValueIndependence(t *testing.T) {
	e := newTestEngine()

	a := map[string]any{"items": []any{1, 2, 3}}
	b := map[string]any{"items": []any{4, 5, 6}}
	assert.Equal(t, e.Generate(a), e.Generate(b))
}

func TestGenerate_Idempotent(t *testing.T) {
	e := newTestEngine()

	v := map[string]any{"a": 1, "b": []any{true, "x"}}
	first := e.Generate(v)
	assert.Equal(t, first, e.Generate(v))
	assert.Equal(t, first, e.Generate(v))
}

func TestGenerate_NestedDepthSegments(t *testing.T) {
	e := newTestEngine()

	// Five levels of nesting below the root yields exactly six segments.
	v := map[string]any{
		"l1": map[string]any{
			"l2": map[string]any{
				"l3": map[string]any{
					"l4": map[string]any{
						"l5": 1,
					},
				},
			},
		},
	}
	id := e.Generate(v)
	segments := strings.Split(id, "-")
	require.Len(t, segments, 6)
	for i, seg := range segments {
		assert.True(t, strings.HasPrefix(seg, "L"+string(rune('0'+i))+":"),
			"segment %d = %q must carry its depth label", i, seg)
	}
}

func TestGenerate_LeafRoots(t *testing.T) {
	e := newTestEngine()

	// The engine is total: every leaf value produces a single-segment ID.
	for _, v := range []any{nil, 42, "x", true, 3.5, kind.Atom("a"), kind.Missing} {
		id := e.Generate(v)
		assert.True(t, strings.HasPrefix(id, "L0:"), "value %#v", v)
		assert.NotContains(t, id, "-")
	}
}

func TestGenerate_StructsAndMapsAgree(t *testing.T) {
	e := newTestEngine()

	type payload struct {
		Count int    `json:"count"`
		Name  string `json:"name"`
	}

	m := map[string]any{"count": 9, "name": "z"}
	assert.Equal(t, e.Generate(m), e.Generate(payload{Count: 1, Name: "a"}))
	assert.Equal(t, e.Generate(m), e.Generate(&payload{}))
}

func TestGenerate_StructTags(t *testing.T) {
	e := newTestEngine()

	type tagged struct {
		Kept    int `json:"kept"`
		Skipped int `json:"-"`
		hidden  int
	}
	type plain struct {
		Kept int `json:"kept"`
	}

	assert.Equal(t, e.Generate(plain{}), e.Generate(tagged{hidden: 1}),
		"json \"-\" tags and unexported fields must not contribute")
}

func TestGenerate_OpaqueTypePolicy(t *testing.T) {
	type wrapper struct {
		When any `json:"when"`
	}

	t.Run("default fingerprints by fields", func(t *testing.T) {
		e := newTestEngine()
		// time.Time has no exported fields, so it matches any empty object.
		assert.Equal(t,
			e.Generate(wrapper{When: testTime()}),
			e.Generate(wrapper{When: struct{}{}}),
		)
	})

	t.Run("registered opaque types are leaves", func(t *testing.T) {
		e := newTestEngine(WithOpaqueTypes(testTime()))
		assert.NotEqual(t,
			e.Generate(wrapper{When: testTime()}),
			e.Generate(wrapper{When: struct{}{}}),
		)
		assert.Equal(t,
			e.Generate(wrapper{When: testTime()}),
			e.Generate(wrapper{When: kind.Atom("leaf")}),
			"opaque values fingerprint like any other symbolic atom")
	})
}

func TestGenerate_CollisionMode(t *testing.T) {
	e := newTestEngine(WithCollisionMode(true))

	const k = 4
	ids := make([]string, k)
	for i := range ids {
		// Fresh instances each call: the shape is identical, the
		// reference identity is not.
		ids[i] = e.Generate(map[string]any{"count": i, "name": "x"})
	}

	for i, id := range ids {
		assert.True(t, strings.HasPrefix(id, "L0:"+strconv.Itoa(i)+"-"),
			"call %d must carry root segment %d, got %q", i+1, i, id)
		assert.Equal(t, tail(ids[0]), tail(id),
			"non-root segments must agree across collision-mode calls")
	}

	// All IDs distinct.
	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestGenerate_PerCallOverride(t *testing.T) {
	e := newTestEngine()

	v := map[string]any{"a": 1}
	def := e.Generate(v)

	first := e.Generate(map[string]any{"a": 2}, WithCollision(true))
	second := e.Generate(map[string]any{"a": 3}, WithCollision(true))
	assert.True(t, strings.HasPrefix(first, "L0:0-"))
	assert.True(t, strings.HasPrefix(second, "L0:1-"))

	// The same reference keeps its cached default-mode ID.
	assert.Equal(t, def, e.Generate(v))
}

func TestInfo_PureWithRespectToCounters(t *testing.T) {
	e := newTestEngine(WithCollisionMode(true))

	v := map[string]any{"a": 1}
	first := e.Info(v)
	second := e.Info(v)

	assert.Equal(t, first.CollisionCount, second.CollisionCount,
		"info must never advance counters")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, first.LevelCount)
}

func TestInfo_SeesGenerateAdvances(t *testing.T) {
	e := newTestEngine(WithCollisionMode(true))

	v := map[string]any{"a": 1}
	require.Equal(t, int64(0), e.Info(v).CollisionCount)

	e.Generate(v)
	e.Generate(v)
	assert.Equal(t, int64(2), e.Info(v).CollisionCount)
}

func TestInfo_DefaultModeMatchesGenerate(t *testing.T) {
	e := newTestEngine()

	v := map[string]any{"a": []any{1, 2}}
	assert.Equal(t, e.Generate(v), e.Info(v).ID)
	assert.Equal(t, 3, e.Info(v).LevelCount)
}

func TestGenerate_SelfReferentialObject(t *testing.T) {
	e := newTestEngine()

	m := map[string]any{"name": "root"}
	m["self"] = m

	id := e.Generate(m)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, e.Generate(m), "cyclic fingerprints are idempotent")
}

func TestGenerate_MutualCycle(t *testing.T) {
	e := newTestEngine()

	build := func() map[string]any {
		a := map[string]any{"tag": "a"}
		b := map[string]any{"tag": "b"}
		c := map[string]any{"tag": "c"}
		a["next"] = b
		b["next"] = c
		c["next"] = a
		return a
	}

	first := e.Generate(build())
	second := e.Generate(build())
	assert.NotEmpty(t, first)
	assert.Equal(t, tail(first), tail(second),
		"isomorphic cyclic graphs must share a signature")
}

func TestGenerate_SharedReferenceIsNotACycle(t *testing.T) {
	e := newTestEngine()

	type inner struct {
		N int `json:"n"`
	}
	type outer struct {
		In inner `json:"in"`
	}

	// A pointer to a struct and a pointer to its first field share an
	// address but are distinct references; revisiting the address through
	// the other type must not cut the subtree.
	o := outer{}
	aliased := map[string]any{"p": &o, "q": &o.In}
	separate := map[string]any{"p": &outer{}, "q": &inner{}}

	assert.Equal(t, e.Generate(separate), e.Generate(aliased),
		"aliased and separately-allocated inputs of the same shape must agree")
}

func TestGenerate_ModeInterleavingInvalidatesCachedID(t *testing.T) {
	// A seed with clear low bits so a counter advance is visible in the
	// root segment.
	e := New(WithSeedSource(func() uint32 { return 8 }))

	v := map[string]any{"a": 1}
	before := e.Generate(v)
	e.Generate(v, WithCollision(true))

	after := e.Generate(v)
	fresh := e.Generate(map[string]any{"a": 2})
	assert.Equal(t, fresh, after,
		"after a counter advance the same reference must agree with a fresh same-shape input")
	assert.NotEqual(t, before, after,
		"the pre-advance ID must not be served from the cache")
	assert.Equal(t, tail(before), tail(after))
}

func TestGenerate_CyclicSlice(t *testing.T) {
	e := newTestEngine()

	inner := map[string]any{}
	items := []any{inner}
	inner["items"] = items

	assert.NotEmpty(t, e.Generate(items))
}

func TestGenerate_DeepChain(t *testing.T) {
	e := newTestEngine()

	// Thousands of distinct nested identities must not exhaust the call
	// stack: traversal is worklist-driven.
	const depth = 3000
	v := map[string]any{"leaf": 1}
	for i := 0; i < depth; i++ {
		v = map[string]any{"next": v}
	}

	inf := e.Info(v)
	assert.NotEmpty(t, inf.ID)
	assert.Equal(t, depth+2, inf.LevelCount)
}

func TestReset_StartsNewEpoch(t *testing.T) {
	seed := uint32(0)
	e := New(WithSeedSource(func() uint32 { seed++; return seed }))

	v := map[string]any{"a": 1}
	before := e.Generate(v)

	e.Reset()
	after := e.Generate(v)
	assert.NotEqual(t, before, after,
		"reset must change default-mode IDs for previously-seen shapes")

	// Within the new epoch, determinism holds again.
	assert.Equal(t, after, e.Generate(map[string]any{"a": 2}))
}

func TestReset_ClearsCounters(t *testing.T) {
	e := newTestEngine(WithCollisionMode(true))

	v := map[string]any{"a": 1}
	e.Generate(v)
	e.Generate(v)
	require.Equal(t, int64(2), e.Info(v).CollisionCount)

	e.Reset()
	assert.Equal(t, int64(0), e.Info(map[string]any{"a": 1}).CollisionCount)
}

func TestSetGetConfig(t *testing.T) {
	e := newTestEngine()
	assert.False(t, e.GetConfig().CollisionMode)

	e.SetConfig(Config{CollisionMode: true})
	assert.True(t, e.GetConfig().CollisionMode)

	id := e.Generate(map[string]any{"a": 1})
	assert.True(t, strings.HasPrefix(id, "L0:0-"))
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestEngine()
	v := map[string]any{"count": 0, "name": "x"}
	want := src.Generate(v)

	dst := newTestEngine()
	require.NoError(t, dst.ImportState(src.ExportState()))

	assert.Equal(t, want, dst.Generate(map[string]any{"count": 5, "name": "y"}),
		"imported registry must reproduce signatures for known shapes")
}

func TestExportImport_PreservesCounters(t *testing.T) {
	src := newTestEngine(WithCollisionMode(true))
	v := map[string]any{"a": 1}
	src.Generate(v)
	src.Generate(v)

	dst := newTestEngine(WithCollisionMode(true))
	require.NoError(t, dst.ImportState(src.ExportState()))

	id := dst.Generate(map[string]any{"a": 9})
	assert.True(t, strings.HasPrefix(id, "L0:2-"),
		"imported counters continue where the source left off, got %q", id)
}

func TestImportState_Malformed(t *testing.T) {
	e := newTestEngine()
	v := map[string]any{"a": 1}
	before := e.Generate(v)

	err := e.ImportState(snapshot.State{
		RegistryMapping: map[string]string{"a": "not-a-number"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)

	// A failed import must not partially mutate state.
	assert.Equal(t, before, e.Generate(v))
}

func TestImportState_NegativeCounter(t *testing.T) {
	e := newTestEngine()
	err := e.ImportState(snapshot.State{
		CollisionCounters: map[string]int64{"L1:1": -1},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSaveLoadState(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	src := newTestEngine()
	want := src.Generate(map[string]any{"a": []any{1, 2, 3}})
	require.NoError(t, src.SaveState(ctx, store, "epoch-1"))

	dst := newTestEngine()
	require.NoError(t, dst.LoadState(ctx, store, "epoch-1"))
	assert.Equal(t, want, dst.Generate(map[string]any{"a": []any{7, 8, 9}}))
}

func TestSaveLoadState_Errors(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	assert.Error(t, e.SaveState(ctx, nil, "x"))
	assert.Error(t, e.LoadState(ctx, nil, "x"))

	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	err = e.LoadState(ctx, store, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageFailed)
}

func TestGenerate_Concurrent(t *testing.T) {
	e := newTestEngine()

	v := map[string]any{"a": 1, "b": []any{1, 2}}
	want := e.Generate(v)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, want, e.Generate(v))
				e.Info(map[string]any{"a": n, "b": []any{j, j}})
			}
		}(i)
	}
	wg.Wait()
}
