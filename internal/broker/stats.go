package broker

import "sync/atomic"

// Stats tracks cumulative operation counts for a MetaStore, updated
// atomically so readers (the facade's metrics endpoint) never contend with
// mutators for the store's own mutex.
type Stats struct {
	proxiesAdded        uint64
	proxiesRemoved      uint64
	clustersCreated     uint64
	migrationsPlanned   uint64
	migrationsCommitted uint64
	failuresReported    uint64
	replacementsApplied uint64
}

// Snapshot is a point-in-time copy of Stats safe to hand to a caller outside
// the store's lock.
type Snapshot struct {
	ProxiesAdded        uint64
	ProxiesRemoved      uint64
	ClustersCreated     uint64
	MigrationsPlanned   uint64
	MigrationsCommitted uint64
	FailuresReported    uint64
	ReplacementsApplied uint64
}

func (s *Stats) recordProxyAdded()        { atomic.AddUint64(&s.proxiesAdded, 1) }
func (s *Stats) recordProxyRemoved()      { atomic.AddUint64(&s.proxiesRemoved, 1) }
func (s *Stats) recordClusterCreated()    { atomic.AddUint64(&s.clustersCreated, 1) }
func (s *Stats) recordMigrationPlanned()  { atomic.AddUint64(&s.migrationsPlanned, 1) }
func (s *Stats) recordMigrationCommitted() { atomic.AddUint64(&s.migrationsCommitted, 1) }
func (s *Stats) recordFailureReported()   { atomic.AddUint64(&s.failuresReported, 1) }
func (s *Stats) recordReplacementApplied() { atomic.AddUint64(&s.replacementsApplied, 1) }

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		ProxiesAdded:        atomic.LoadUint64(&s.proxiesAdded),
		ProxiesRemoved:      atomic.LoadUint64(&s.proxiesRemoved),
		ClustersCreated:     atomic.LoadUint64(&s.clustersCreated),
		MigrationsPlanned:   atomic.LoadUint64(&s.migrationsPlanned),
		MigrationsCommitted: atomic.LoadUint64(&s.migrationsCommitted),
		FailuresReported:    atomic.LoadUint64(&s.failuresReported),
		ReplacementsApplied: atomic.LoadUint64(&s.replacementsApplied),
	}
}
