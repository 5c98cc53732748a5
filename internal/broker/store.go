// Package broker implements the metadata broker core: a single in-memory
// aggregate (MetaStore) tracking the proxy pool, one logical cluster's slot
// topology, online migrations, and proxy failure/replacement.
//
// # Concurrency
//
// MetaStore is guarded by one mutex for its full lifetime. Every exported
// method except Stats (whose counters are atomic and read without the lock)
// takes the lock for its entire duration and returns a defensive
// copy or projection; nothing inside this package blocks, spawns a
// goroutine, or runs a timer. The only wall-clock-dependent operation is
// the failure-report TTL purge inside GetFailures, which uses
// time.Now().Unix() synchronously.
//
// # Epoch
//
// GlobalEpoch increases by exactly one for every successful mutation
// (replace_failed_proxy increases it twice: once for the takeover, once for
// the replacement). Failed mutators leave the store and the epoch unchanged,
// with two exceptions, both in replace_failed_proxy: on a proxy not
// referenced by the cluster it still records the proxy into the failed set
// (without bumping the epoch) before returning NotInUse; and when no
// replacement proxy is available it keeps the takeover it already applied
// (the role-position change and its one epoch bump) and returns
// NoAvailableResource.
package broker

import (
	"sort"
	"sync"
	"time"

	"github.com/dreamware/membroker/internal/meta"
)

// MetaStore is the broker's single mutable aggregate.
type MetaStore struct {
	mu            sync.Mutex
	globalEpoch   uint64
	cluster       *Cluster
	proxies       *proxyTable
	failedProxies map[meta.ProxyAddress]struct{}
	failures      map[meta.ProxyAddress]map[string]int64
	stats         Stats
}

// NewMetaStore returns an empty store at epoch 0.
func NewMetaStore() *MetaStore {
	return &MetaStore{
		proxies:       newProxyTable(),
		failedProxies: map[meta.ProxyAddress]struct{}{},
		failures:      map[meta.ProxyAddress]map[string]int64{},
	}
}

// GetGlobalEpoch returns the current epoch.
func (m *MetaStore) GetGlobalEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.globalEpoch
}

// Stats returns a snapshot of the store's operation counters.
func (m *MetaStore) Stats() Snapshot {
	return m.stats.Snapshot()
}

// AddProxy registers a proxy and its two backing nodes. It is idempotent:
// calling it again for an already-known address leaves the stored resource
// record untouched. Any pending failure state for addr is cleared.
func (m *MetaStore) AddProxy(addr meta.ProxyAddress, nodes [meta.NodesPerProxy]meta.NodeAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !addr.Valid() {
		return ErrInvalidProxyAddress
	}
	if _, ok := m.proxies.get(addr); !ok {
		_ = m.proxies.put(ProxyResource{Address: addr, Nodes: nodes})
	}
	delete(m.failedProxies, addr)
	delete(m.failures, addr)
	m.globalEpoch++
	m.stats.recordProxyAdded()
	return nil
}

// RemoveProxy deregisters addr. It fails with ErrInUse if the current
// cluster still has a node pointing at it. Removing an unknown address
// still succeeds and still bumps the epoch, matching the reference
// implementation's observational parity.
func (m *MetaStore) RemoveProxy(addr meta.ProxyAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cluster != nil && m.cluster.referencesProxy(addr) {
		return ErrInUse
	}
	m.proxies.delete(addr)
	delete(m.failedProxies, addr)
	delete(m.failures, addr)
	m.globalEpoch++
	m.stats.recordProxyRemoved()
	return nil
}

// GetProxyByAddress returns the projected view of a known proxy, or false
// if addr is unknown.
func (m *MetaStore) GetProxyByAddress(addr meta.ProxyAddress) (ProxyView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.proxies.get(addr)
	if !ok {
		return ProxyView{}, false
	}
	return projectProxyView(res, m.cluster), true
}

// GetProxies returns the projected view of every known proxy.
func (m *MetaStore) GetProxies() []ProxyView {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.proxies.list()
	sort.Slice(all, func(i, j int) bool { return all[i].Address < all[j].Address })
	out := make([]ProxyView, 0, len(all))
	for _, res := range all {
		out = append(out, projectProxyView(res, m.cluster))
	}
	return out
}

// GetClusterNames returns the name of the current cluster, if any.
func (m *MetaStore) GetClusterNames() []meta.ClusterName {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cluster == nil {
		return nil
	}
	return []meta.ClusterName{m.cluster.Name}
}

// GetClusterByName returns the projected cluster view, or
// ErrClusterNotFound if no cluster exists or its name differs.
func (m *MetaStore) GetClusterByName(name meta.ClusterName) (ClusterView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cluster == nil || m.cluster.Name != name {
		return ClusterView{}, ErrClusterNotFound
	}
	return projectClusterView(m.cluster, m.globalEpoch), nil
}

// AddCluster creates the cluster, consuming nodeNum/2 proxies from the free
// pool and distributing slots evenly across the resulting masters. See
// §4.2 of the broker's design notes for the even-split rule.
func (m *MetaStore) AddCluster(name meta.ClusterName, nodeNum int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if name == "" {
		return ErrInvalidClusterName
	}
	if m.cluster != nil {
		return ErrOnlySupportOneCluster
	}
	if nodeNum <= 0 || nodeNum%meta.ChunkNodeNum != 0 {
		return ErrInvalidNodeNum
	}

	masterNum := nodeNum / 2
	pairs, err := m.consumeProxy(masterNum)
	if err != nil {
		return err
	}

	chunks := make([]*Chunk, 0, len(pairs))
	for i, pair := range pairs {
		chunk := newChunk(pair[0].Address, pair[1].Address,
			pair[0].Nodes[0], pair[0].Nodes[1], pair[1].Nodes[0], pair[1].Nodes[1])
		r0 := meta.EvenSplit(2*i, masterNum)
		r1 := meta.EvenSplit(2*i+1, masterNum)
		chunk.StableSlots[0] = &r0
		chunk.StableSlots[1] = &r1
		chunks = append(chunks, chunk)
	}

	m.cluster = &Cluster{Name: name, Chunks: chunks}
	m.globalEpoch++
	m.stats.recordClusterCreated()
	return nil
}

// RemoveCluster destroys the current cluster.
func (m *MetaStore) RemoveCluster(name meta.ClusterName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cluster == nil || m.cluster.Name != name {
		return ErrClusterNotFound
	}
	m.cluster = nil
	m.globalEpoch++
	return nil
}

// AutoAddNodes scales the cluster by num nodes (defaulting to the current
// node count, i.e. doubling, when num is 0). New chunks start with no
// stable slots on either part; migrate_slots is responsible for filling
// them.
func (m *MetaStore) AutoAddNodes(name meta.ClusterName, num int) ([]NodeView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cluster == nil || m.cluster.Name != name {
		return nil, ErrClusterNotFound
	}
	if num == 0 {
		num = len(m.cluster.Chunks) * meta.ChunkNodeNum
	}
	if num <= 0 || num%meta.ChunkNodeNum != 0 {
		return nil, ErrInvalidNodeNum
	}

	pairs, err := m.consumeProxy(num / 2)
	if err != nil {
		return nil, err
	}

	newChunks := make([]*Chunk, 0, len(pairs))
	for _, pair := range pairs {
		chunk := newChunk(pair[0].Address, pair[1].Address,
			pair[0].Nodes[0], pair[0].Nodes[1], pair[1].Nodes[0], pair[1].Nodes[1])
		newChunks = append(newChunks, chunk)
	}
	m.cluster.Chunks = append(m.cluster.Chunks, newChunks...)
	m.globalEpoch++

	view := projectClusterView(&Cluster{Name: name, Chunks: newChunks}, m.globalEpoch)
	return view.Nodes, nil
}

// MigrateSlots plans the redistribution needed to bring the cluster back to
// an even slot split after scaling, recording migrating/importing entries
// on the affected chunks. It fails with ErrMigrationRunning if any chunk
// has non-empty migrating-slots lists on both of its parts; a chunk with
// entries on only one part does not block a new plan.
func (m *MetaStore) MigrateSlots(name meta.ClusterName) ([]MigrationMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cluster == nil || m.cluster.Name != name {
		return nil, ErrClusterNotFound
	}
	for _, chunk := range m.cluster.Chunks {
		if chunk.bothPartsMigrating() {
			return nil, ErrMigrationRunning
		}
	}

	epoch := m.globalEpoch + 1
	plans := planMigration(m.cluster, epoch)
	recordMigrationPlan(m.cluster, plans)
	m.globalEpoch = epoch
	m.stats.recordMigrationPlanned()

	metas := make([]MigrationMeta, len(plans))
	for i, p := range plans {
		metas[i] = p.meta
	}
	return metas, nil
}

// CommitMigration folds one migrating/importing pair back into stable
// slots. See §4.6 for the matching and merge semantics.
func (m *MetaStore) CommitMigration(task MigrationTask) (MigrationMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cluster == nil || m.cluster.Name != task.ClusterName {
		return MigrationMeta{}, ErrClusterNotFound
	}
	canonical, err := commitMigrationLocked(m.cluster, task)
	if err != nil {
		return MigrationMeta{}, err
	}
	m.globalEpoch++
	m.stats.recordMigrationCommitted()
	return canonical, nil
}

// AddFailure records a failure report for addr from reporterID at the
// current time.
func (m *MetaStore) AddFailure(addr meta.ProxyAddress, reporterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	submap, ok := m.failures[addr]
	if !ok {
		submap = map[string]int64{}
		m.failures[addr] = submap
	}
	submap[reporterID] = time.Now().Unix()
	m.globalEpoch++
	m.stats.recordFailureReported()
	return nil
}

// GetFailures purges reports older than ttl, drops any address left with no
// reporters, and returns the addresses whose remaining reporter count is at
// least quorum, sorted for deterministic output.
func (m *MetaStore) GetFailures(ttl time.Duration, quorum int) []meta.ProxyAddress {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Unix() - int64(ttl.Seconds())
	for addr, reporters := range m.failures {
		for reporter, ts := range reporters {
			if ts <= cutoff {
				delete(reporters, reporter)
			}
		}
		if len(reporters) == 0 {
			delete(m.failures, addr)
		}
	}

	var out []meta.ProxyAddress
	for addr, reporters := range m.failures {
		if len(reporters) >= quorum {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReplaceFailedProxy takes over the masters formerly on failedAddr,
// allocates a replacement proxy, and substitutes it into the chunk. See
// §4.7 for the full takeover/replacement sequence.
func (m *MetaStore) ReplaceFailedProxy(failedAddr meta.ProxyAddress) (ProxyView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.proxies.get(failedAddr); !ok {
		return ProxyView{}, ErrHostNotFound
	}
	if m.cluster == nil || !m.cluster.referencesProxy(failedAddr) {
		m.failedProxies[failedAddr] = struct{}{}
		return ProxyView{}, ErrNotInUse
	}

	chunk, part := m.cluster.findChunkForProxy(failedAddr)
	if part == 0 {
		chunk.RolePosition = SecondChunkMaster
	} else {
		chunk.RolePosition = FirstChunkMaster
	}
	m.globalEpoch++

	failedHost := failedAddr.Host()
	free := m.freeProxies()
	buckets := hostBuckets(free)
	hosts := sortedHosts(buckets)
	hasFailedHost := false
	for _, h := range hosts {
		if h == failedHost {
			hasFailedHost = true
			break
		}
	}
	if !hasFailedHost {
		hosts = append(hosts, failedHost)
		sort.Strings(hosts)
	}
	link := m.buildLinkTable(hosts)

	replHost := pickReplacementHost(buckets, link, failedHost)
	if replHost == "" {
		return ProxyView{}, ErrNoAvailableResource
	}
	newProxy := popLast(buckets, replHost)

	chunk.Proxies[part] = newProxy.Address
	baseIdx := part * meta.NodesPerProxy
	chunk.Nodes[baseIdx] = newProxy.Nodes[0]
	chunk.Nodes[baseIdx+1] = newProxy.Nodes[1]

	m.failedProxies[failedAddr] = struct{}{}
	m.globalEpoch++
	m.stats.recordReplacementApplied()

	return projectProxyView(newProxy, m.cluster), nil
}

// StoreSnapshot is a full, round-trip-safe JSON projection of the store,
// used by the facade's /debug/snapshot route. The core itself never reads
// or writes this; persistence, if any, is the embedder's responsibility.
type StoreSnapshot struct {
	GlobalEpoch   uint64
	Cluster       *Cluster
	Proxies       []ProxyResource
	FailedProxies []meta.ProxyAddress
	Failures      map[meta.ProxyAddress]map[string]int64
}

// ExportSnapshot returns a full snapshot of the store's current state.
func (m *MetaStore) ExportSnapshot() StoreSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	failed := make([]meta.ProxyAddress, 0, len(m.failedProxies))
	for addr := range m.failedProxies {
		failed = append(failed, addr)
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })

	failures := make(map[meta.ProxyAddress]map[string]int64, len(m.failures))
	for addr, reporters := range m.failures {
		copied := make(map[string]int64, len(reporters))
		for r, t := range reporters {
			copied[r] = t
		}
		failures[addr] = copied
	}

	return StoreSnapshot{
		GlobalEpoch:   m.globalEpoch,
		Cluster:       m.cluster,
		Proxies:       m.proxies.list(),
		FailedProxies: failed,
		Failures:      failures,
	}
}
