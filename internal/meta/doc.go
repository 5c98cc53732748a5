// Package meta defines the addressing primitives shared by every layer of the
// metadata broker: cluster names, proxy and node endpoints, slot indices, and
// the slot-range algebra used to describe what a master currently owns.
//
// # Overview
//
// Everything in this package is a value type. None of it holds a mutex or a
// pointer to shared state — the broker package composes these primitives into
// the mutable aggregate that actually needs locking. Keeping the primitives
// pure makes them trivial to copy defensively when projecting read views.
//
// # Slot space
//
//	[0 .................... 16383]
//	 <--------- SLOT_NUM ---------->
//
// A Range is a closed interval over this space. A RangeList is kept sorted
// and coalesced: adjacent or overlapping ranges are always merged, so two
// RangeLists covering the same slots are always equal as values.
package meta
