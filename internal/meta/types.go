package meta

import (
	"sort"
	"strings"
)

// SlotNum is the fixed size of the cluster's slot space. Every slot index
// satisfies 0 <= s < SlotNum.
const SlotNum = 16384

// NodesPerProxy is the number of backing storage nodes each proxy carries.
const NodesPerProxy = 2

// ChunkParts is the number of proxies packed into one chunk.
const ChunkParts = 2

// ChunkNodeNum is the number of nodes packed into one chunk (ChunkParts *
// NodesPerProxy).
const ChunkNodeNum = ChunkParts * NodesPerProxy

// ClusterName is the name of the single logical cluster the store may hold.
type ClusterName string

// ProxyAddress identifies a proxy process by its host:port endpoint.
type ProxyAddress string

// Host returns the substring before the first colon, used by the allocator
// for host anti-affinity grouping.
func (a ProxyAddress) Host() string {
	if idx := strings.IndexByte(string(a), ':'); idx >= 0 {
		return string(a)[:idx]
	}
	return string(a)
}

// Valid reports whether the address contains exactly one ':' separator, the
// only structural requirement the store places on a proxy endpoint.
func (a ProxyAddress) Valid() bool {
	return strings.Count(string(a), ":") == 1
}

// NodeAddress identifies a single backing storage node by its host:port
// endpoint.
type NodeAddress string

// SlotIndex is a single slot in [0, SlotNum).
type SlotIndex int

// Range is an inclusive slot interval [Start, End].
type Range struct {
	Start SlotIndex
	End   SlotIndex
}

// Count returns the number of slots the range covers.
func (r Range) Count() int {
	return int(r.End-r.Start) + 1
}

// RangeList is an ordered, sorted, and coalesced set of disjoint Ranges.
type RangeList []Range

// SlotCount returns the total number of slots across all ranges in the list.
func (rl RangeList) SlotCount() int {
	total := 0
	for _, r := range rl {
		total += r.Count()
	}
	return total
}

// Clone returns a defensive copy of the range list.
func (rl RangeList) Clone() RangeList {
	if rl == nil {
		return nil
	}
	out := make(RangeList, len(rl))
	copy(out, rl)
	return out
}

// Equal reports whether two range lists describe exactly the same slots in
// the same normalized form.
func (rl RangeList) Equal(other RangeList) bool {
	if len(rl) != len(other) {
		return false
	}
	for i := range rl {
		if rl[i] != other[i] {
			return false
		}
	}
	return true
}

// PopRight removes up to n slots from the right (highest-index) end of the
// list, returning the removed slots as their own normalized RangeList and the
// remaining list. It implements the "pull from the right end" step of the
// migration planning algorithm: whole ranges are popped first, and the last
// remaining range is shrunk from its right edge if only part of it is
// needed.
func (rl RangeList) PopRight(n int) (removed RangeList, remaining RangeList) {
	remaining = rl.Clone()
	need := n
	var pulled RangeList
	for need > 0 && len(remaining) > 0 {
		last := remaining[len(remaining)-1]
		count := last.Count()
		if count <= need {
			pulled = append(pulled, last)
			remaining = remaining[:len(remaining)-1]
			need -= count
			continue
		}
		cut := last.End - SlotIndex(need) + 1
		pulled = append(pulled, Range{Start: cut, End: last.End})
		remaining[len(remaining)-1] = Range{Start: last.Start, End: cut - 1}
		need = 0
	}
	// pulled was accumulated right-to-left (largest indices first); reverse
	// it to ascending start order so the removed list is sorted like every
	// other RangeList. The caller records it in this ascending order.
	for i, j := 0, len(pulled)-1; i < j; i, j = i+1, j-1 {
		pulled[i], pulled[j] = pulled[j], pulled[i]
	}
	return pulled, remaining
}

// Merge appends the incoming ranges and re-normalizes the result: sorted by
// start, with adjacent or overlapping ranges coalesced into the minimum
// number of ranges. This is the range-list merge semantics used by
// migration commit.
func (rl RangeList) Merge(incoming RangeList) RangeList {
	combined := make(RangeList, 0, len(rl)+len(incoming))
	combined = append(combined, rl...)
	combined = append(combined, incoming...)
	if len(combined) == 0 {
		return combined
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].Start < combined[j].Start })
	out := make(RangeList, 0, len(combined))
	curr := combined[0]
	for _, r := range combined[1:] {
		if r.Start <= curr.End+1 {
			if r.End > curr.End {
				curr.End = r.End
			}
			continue
		}
		out = append(out, curr)
		curr = r
	}
	out = append(out, curr)
	return out
}

// EvenSplit computes the contiguous slot range assigned to master index i
// out of m total masters under the even-split rule: avg = SlotNum/m, rem =
// SlotNum - avg*m, and master i gets avg+1 slots if i < rem, else avg slots,
// laid out left to right starting at slot 0.
func EvenSplit(i, m int) Range {
	avg := SlotNum / m
	rem := SlotNum - avg*m
	start := 0
	for k := 0; k < i; k++ {
		start += avg
		if k < rem {
			start++
		}
	}
	size := avg
	if i < rem {
		size++
	}
	return Range{Start: SlotIndex(start), End: SlotIndex(start + size - 1)}
}

// TargetCount returns the even-split target slot count for master index m
// out of masterNum total masters, without computing its position. This is
// the avg+(m<rem?1:0) formula used throughout the migration planner.
func TargetCount(m, masterNum int) int {
	avg := SlotNum / masterNum
	rem := SlotNum - avg*masterNum
	if m < rem {
		return avg + 1
	}
	return avg
}
