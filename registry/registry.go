package registry

import (
	"fmt"
	"math/big"

	"github.com/structural-io/structid/kind"
)

// Table maps string keys to unique bit values. Assignment is monotonic:
// the first lookup of a key allocates the next free bit and every later
// lookup returns the same value. Keys are never removed except by Reset
// or Restore.
type Table struct {
	bits map[string]*big.Int
	next *big.Int
}

// New returns an empty table whose watermark sits at the first
// application-assignable bit above the reserved kind range.
func New() *Table {
	return &Table{
		bits: make(map[string]*big.Int),
		next: floor(),
	}
}

func floor() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), kind.ReservedBits)
}

// GetBit returns the bit value bound to key, allocating the next free bit
// on first observation. The returned value is shared; callers must not
// mutate it.
func (t *Table) GetBit(key string) *big.Int {
	if bit, ok := t.bits[key]; ok {
		return bit
	}
	bit := new(big.Int).Set(t.next)
	t.bits[key] = bit
	t.next.Lsh(t.next, 1)
	return bit
}

// Len returns the number of keys the table has assigned bits to.
func (t *Table) Len() int {
	return len(t.bits)
}

// Watermark returns a copy of the next bit value the table would assign.
func (t *Table) Watermark() *big.Int {
	return new(big.Int).Set(t.next)
}

// Export returns the full key-to-bit mapping with bits rendered as
// decimal strings, suitable for state snapshots.
func (t *Table) Export() map[string]string {
	out := make(map[string]string, len(t.bits))
	for key, bit := range t.bits {
		out[key] = bit.String()
	}
	return out
}

// Restore replaces the table contents with the given mapping and moves
// the watermark one doubling past the largest imported bit, never below
// the reserved floor. The mapping is validated in full before any state
// changes; on error the table is left untouched.
func (t *Table) Restore(mapping map[string]string) error {
	parsed := make(map[string]*big.Int, len(mapping))
	max := new(big.Int)
	for key, raw := range mapping {
		if key == "" {
			return fmt.Errorf("registry: empty key in mapping")
		}
		bit, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return fmt.Errorf("registry: key %q has non-numeric bit value %q", key, raw)
		}
		if bit.Sign() <= 0 {
			return fmt.Errorf("registry: key %q has non-positive bit value %q", key, raw)
		}
		parsed[key] = bit
		if bit.Cmp(max) > 0 {
			max.Set(bit)
		}
	}

	next := floor()
	if doubled := new(big.Int).Lsh(max, 1); doubled.Cmp(next) > 0 {
		next = doubled
	}

	t.bits = parsed
	t.next = next
	return nil
}

// Reset discards all assignments and rewinds the watermark to the first
// application-assignable bit.
func (t *Table) Reset() {
	t.bits = make(map[string]*big.Int)
	t.next = floor()
}
