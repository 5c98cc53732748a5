// Package facade is the thin HTTP collaborator spec.md explicitly keeps
// outside the broker core: it decodes requests, calls one MetaStore
// operation per route (mutating routes then also read ExportSnapshot and
// Stats to refresh the metrics), maps the returned sentinel error to an
// HTTP status, and encodes the result. It owns no topology state of its own.
//
// # Architecture
//
//	┌──────────────────────────────────────────┐
//	│                 facade                    │
//	│  ┌──────────────┐      ┌────────────────┐ │
//	│  │  route table │─────▶│  broker.MetaStore│
//	│  └──────────────┘      └────────────────┘ │
//	│  ┌──────────────┐                         │
//	│  │   watchdog   │── optional, polls nodes │
//	│  └──────────────┘    reports via AddFailure│
//	└──────────────────────────────────────────┘
//
// The watchdog is the one piece of logic in this package that is more than
// a thin pass-through; it exists because spec.md keeps failure *detection*
// out of the core on purpose (add_failure only records what it's told) but
// a deployable broker still needs something to tell it. See watchdog.go.
package facade
