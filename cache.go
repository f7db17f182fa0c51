package structid

import "github.com/structural-io/structid/kind"

// The identity caches memoize per-input results so repeat calls skip
// re-traversal. Keys are non-owning reference tokens (kind.Identity), so
// the caches never extend the lifetime of an otherwise-unreachable input.
// Every entry carries the node's local signature taken at store time; a
// lookup whose local signature disagrees is treated as a miss, which
// guards against a token being recycled by the allocator.

type idEntry struct {
	local   string
	sig     string
	counter int64
	id      string
}

type sigEntry struct {
	local  string
	sig    string
	levels int
}

type infoEntry struct {
	local   string
	sig     string
	counter int64
	info    Info
}

// identityCaches bundles the three independent caches: final ID,
// signature, and info triple. All access is serialized by the engine.
type identityCaches struct {
	ids   map[kind.Identity]idEntry
	sigs  map[kind.Identity]sigEntry
	infos map[kind.Identity]infoEntry
}

func newIdentityCaches() *identityCaches {
	return &identityCaches{
		ids:   make(map[kind.Identity]idEntry),
		sigs:  make(map[kind.Identity]sigEntry),
		infos: make(map[kind.Identity]infoEntry),
	}
}

func (c *identityCaches) lookupID(ident kind.Identity, local string) (idEntry, bool) {
	e, ok := c.ids[ident]
	if !ok || e.local != local {
		return idEntry{}, false
	}
	return e, true
}

func (c *identityCaches) storeID(ident kind.Identity, e idEntry) {
	c.ids[ident] = e
}

func (c *identityCaches) lookupSig(ident kind.Identity, local string) (sigEntry, bool) {
	e, ok := c.sigs[ident]
	if !ok || e.local != local {
		return sigEntry{}, false
	}
	return e, true
}

func (c *identityCaches) storeSig(ident kind.Identity, e sigEntry) {
	c.sigs[ident] = e
}

func (c *identityCaches) lookupInfo(ident kind.Identity, local string) (infoEntry, bool) {
	e, ok := c.infos[ident]
	if !ok || e.local != local {
		return infoEntry{}, false
	}
	return e, true
}

func (c *identityCaches) storeInfo(ident kind.Identity, e infoEntry) {
	c.infos[ident] = e
}

// dropInfo invalidates the info entry for an input whose collision counter
// just advanced.
func (c *identityCaches) dropInfo(ident kind.Identity) {
	delete(c.infos, ident)
}

// clear empties all three caches. Called on reset and import.
func (c *identityCaches) clear() {
	c.ids = make(map[kind.Identity]idEntry)
	c.sigs = make(map[kind.Identity]sigEntry)
	c.infos = make(map[kind.Identity]infoEntry)
}
