package broker

import (
	"github.com/dreamware/membroker/internal/meta"
	"github.com/dreamware/membroker/internal/storage"
)

// ProxyResource is the essential attribute set of a known proxy: its
// endpoint and the two backing storage nodes it carries. The only structural
// invariant is that the endpoint has exactly one ':' separator (checked by
// meta.ProxyAddress.Valid before a ProxyResource is ever constructed).
type ProxyResource struct {
	Address meta.ProxyAddress
	Nodes   [meta.NodesPerProxy]meta.NodeAddress
}

// proxyTable is the registry's backing store for known ProxyResources. It
// wraps a generic byte-oriented storage.Store (see internal/storage) rather
// than holding a bare Go map directly, so a future on-disk or remote Store
// implementation can be dropped in without touching registry logic. Its
// stats() method exposes the backing store's size; nothing calls it yet.
type proxyTable struct {
	backing storage.Store
}

func newProxyTable() *proxyTable {
	return &proxyTable{backing: storage.NewMemoryStore()}
}

func (t *proxyTable) put(r ProxyResource) error {
	return storage.PutJSON(t.backing, string(r.Address), r)
}

func (t *proxyTable) get(addr meta.ProxyAddress) (ProxyResource, bool) {
	var r ProxyResource
	if err := storage.GetJSON(t.backing, string(addr), &r); err != nil {
		return ProxyResource{}, false
	}
	return r, true
}

func (t *proxyTable) delete(addr meta.ProxyAddress) {
	_ = t.backing.Delete(string(addr))
}

func (t *proxyTable) list() []ProxyResource {
	keys := t.backing.List()
	out := make([]ProxyResource, 0, len(keys))
	for _, k := range keys {
		var r ProxyResource
		if err := storage.GetJSON(t.backing, k, &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (t *proxyTable) stats() storage.StoreStats {
	return t.backing.Stats()
}

// ProxyView is the read-time projection returned by GetProxyByAddress and
// GetProxies: a proxy's own nodes (free, or bound into the cluster) plus, if
// it is bound, the aggregated slot ownership of its chunk peers.
type ProxyView struct {
	Address meta.ProxyAddress
	Nodes   []NodeView
	Peers   map[meta.ProxyAddress][]NodeView
}

// NodeView describes one node's address, whether it currently serves as a
// master, and (if a master) the slot ranges it owns.
type NodeView struct {
	Address meta.NodeAddress
	Master  bool
	Slots   meta.RangeList
}
