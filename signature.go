package structid

import (
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// signature renders the accumulator into the canonical structure
// signature: segments for depths >= 1 in ascending depth order, each
// formatted "L{depth}:{decimal}". Depth 0 is excluded; it belongs to the
// disambiguation segment.
func (l levels) signature() string {
	depths := make([]int, 0, len(l))
	for d := range l {
		if d >= 1 {
			depths = append(depths, d)
		}
	}
	sort.Ints(depths)

	segments := make([]string, len(depths))
	for i, d := range depths {
		segments[i] = "L" + strconv.Itoa(d) + ":" + l[d].String()
	}
	return strings.Join(segments, "-")
}

// charSum sums the byte values of the signature. It is the
// signature-derived term of the default-mode root segment.
func charSum(sig string) *big.Int {
	var sum int64
	for i := 0; i < len(sig); i++ {
		sum += int64(sig[i])
	}
	return big.NewInt(sum)
}

// rootSegment computes the depth-0 value.
//
// Default mode folds the signature's character sum, the epoch seed and the
// current collision counter together, so structurally different inputs
// almost certainly differ at the root while repeated calls on the same
// shape agree. Collision mode uses the bare counter, leaving sameness of
// shape asserted by the remaining segments.
func rootSegment(sig string, seed uint32, counter int64, collision bool) *big.Int {
	if collision {
		return big.NewInt(counter)
	}
	seg := charSum(sig)
	seg.Lsh(seg, 32)
	seg.Or(seg, big.NewInt(int64(seed)))
	seg.Or(seg, big.NewInt(counter))
	return seg
}

// composeID joins the root segment with the structure signature into the
// final ID string.
func composeID(root *big.Int, sig string) string {
	if sig == "" {
		return "L0:" + root.String()
	}
	return "L0:" + root.String() + "-" + sig
}
