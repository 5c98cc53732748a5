package broker

import "github.com/dreamware/membroker/internal/meta"

// ClusterConfig holds per-cluster tunables. The store admits at most one
// cluster, so this is not itself shared state across clusters — it exists
// as its own type because the original broker keeps cluster configuration
// separate from cluster topology, and a second config knob (e.g. a
// migration-concurrency limit) is a one-field addition away.
type ClusterConfig struct {
	CompressTombstone bool
}

// Cluster is the single logical cluster the store may hold: a name, an
// ordered, append-only list of chunks, and its config. Chunks are never
// reordered or removed individually — only appended by AddCluster/
// AutoAddNodes, mutated in place by migration and replacement, or discarded
// wholesale by RemoveCluster.
type Cluster struct {
	Name   meta.ClusterName
	Chunks []*Chunk
	Config ClusterConfig
}

// masterCount returns the total number of masters in the cluster, i.e.
// 2*len(Chunks).
func (c *Cluster) masterCount() int {
	return 2 * len(c.Chunks)
}

// referencesProxy reports whether any node in the cluster is currently
// bound to addr, i.e. whether addr is one of any chunk's two proxies.
func (c *Cluster) referencesProxy(addr meta.ProxyAddress) bool {
	for _, chunk := range c.Chunks {
		if chunk.referencesProxy(addr) {
			return true
		}
	}
	return false
}

// findChunkForProxy returns the chunk and part index occupied by addr, or
// (nil, -1) if no chunk references it.
func (c *Cluster) findChunkForProxy(addr meta.ProxyAddress) (*Chunk, int) {
	for _, chunk := range c.Chunks {
		if part := chunk.proxyPart(addr); part >= 0 {
			return chunk, part
		}
	}
	return nil, -1
}

// ClusterView is the read-time projection of a Cluster: its name, the
// epoch it was read at, and the flat node list derived from the chunk list.
// It carries neither the cluster config nor peer information.
type ClusterView struct {
	Name  meta.ClusterName
	Epoch uint64
	Nodes []NodeView
}

// projectClusterView converts the chunk list into the externally visible
// node graph: every node in every chunk, tagged with whether it is
// currently a master and, if so, the slots it owns (stable ranges only;
// migrating/importing entries are not part of this projection, nor of the
// proxy projection — only ExportSnapshot exposes them).
func projectClusterView(cl *Cluster, epoch uint64) ClusterView {
	view := ClusterView{Name: cl.Name, Epoch: epoch}
	for _, chunk := range cl.Chunks {
		masters := chunk.RolePosition.masterNodeIndices()
		masterSet := map[int]int{masters[0]: 0, masters[1]: 1}
		for idx, addr := range chunk.Nodes {
			nv := NodeView{Address: addr}
			if part, isMaster := masterSet[idx]; isMaster {
				nv.Master = true
				if chunk.StableSlots[part] != nil {
					nv.Slots = (*chunk.StableSlots[part]).Clone()
				}
			}
			view.Nodes = append(view.Nodes, nv)
		}
	}
	return view
}

// projectProxyView builds the ProxyView for a known proxy, per
// get_proxy_by_address semantics: if no cluster exists, or the proxy
// contributes no cluster nodes, its nodes are reported free; otherwise its
// nodes come from its own chunk slot and its peers map groups master nodes
// owned by other proxies in the same chunk.
func projectProxyView(res ProxyResource, cl *Cluster) ProxyView {
	view := ProxyView{Address: res.Address, Peers: map[meta.ProxyAddress][]NodeView{}}
	if cl == nil {
		view.Nodes = freeNodeViews(res)
		return view
	}
	chunk, part := cl.findChunkForProxy(res.Address)
	if chunk == nil {
		view.Nodes = freeNodeViews(res)
		return view
	}
	masters := chunk.RolePosition.masterNodeIndices()
	masterSet := map[int]int{masters[0]: 0, masters[1]: 1}
	baseIdx := part * meta.NodesPerProxy
	for i := 0; i < meta.NodesPerProxy; i++ {
		idx := baseIdx + i
		nv := NodeView{Address: chunk.Nodes[idx]}
		if p, isMaster := masterSet[idx]; isMaster {
			nv.Master = true
			if chunk.StableSlots[p] != nil {
				nv.Slots = (*chunk.StableSlots[p]).Clone()
			}
		}
		view.Nodes = append(view.Nodes, nv)
	}
	otherPart := 1 - part
	otherAddr := chunk.Proxies[otherPart]
	otherBase := otherPart * meta.NodesPerProxy
	for i := 0; i < meta.NodesPerProxy; i++ {
		idx := otherBase + i
		if p, isMaster := masterSet[idx]; isMaster {
			nv := NodeView{Address: chunk.Nodes[idx], Master: true}
			if chunk.StableSlots[p] != nil {
				nv.Slots = (*chunk.StableSlots[p]).Clone()
			}
			view.Peers[otherAddr] = append(view.Peers[otherAddr], nv)
		}
	}
	return view
}

func freeNodeViews(res ProxyResource) []NodeView {
	out := make([]NodeView, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		out = append(out, NodeView{Address: n})
	}
	return out
}
