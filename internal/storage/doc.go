// Package storage defines the abstract byte-oriented storage interface used
// as the backing table for broker-side registries (currently the proxy
// registry), plus an in-memory implementation.
//
// # Overview
//
// Nothing in the broker core needs a real database: the whole aggregate is
// ephemeral (see the broker package's concurrency notes). What it does need
// is a uniform, introspectable key/value table underneath its typed
// registries, so that adding a second registry later does not mean writing
// a second bespoke map-plus-mutex. Store is that seam.
//
// # Layout
//
//	┌───────────────────────────┐
//	│   typed registry (broker) │   JSON-encodes/decodes its records
//	└─────────────┬─────────────┘
//	              ▼
//	┌───────────────────────────┐
//	│   Store (Get/Put/Delete)  │   byte-oriented, thread-safe
//	└─────────────┬─────────────┘
//	              ▼
//	┌───────────────────────────┐
//	│        MemoryStore        │   the only implementation shipped
//	└───────────────────────────┘
//
// A second Store implementation (for example one backed by a checkpoint
// file) could be substituted without the registry code above it changing;
// the core's Non-goal of persistence means none is shipped here. Stats()
// reports real entry counts and byte sizes; no facade route or metric reads
// it at present.
package storage
