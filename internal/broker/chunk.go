package broker

import "github.com/dreamware/membroker/internal/meta"

// RolePosition encodes which two of a chunk's four nodes currently act as
// masters. The three states form an exhaustive sum; there is no fourth
// "both proxies failed" state because replace_failed_proxy always restores
// exactly one surviving master side before a second failure can be reported
// against the same chunk.
type RolePosition int

const (
	// Normal is the steady state: each proxy contributes one master (n0,
	// n2) and one replica (n1, n3).
	Normal RolePosition = iota
	// FirstChunkMaster is reached after the second proxy (p1) failed over:
	// both masters now live on the first proxy (n0, n1).
	FirstChunkMaster
	// SecondChunkMaster is reached after the first proxy (p0) failed over:
	// both masters now live on the second proxy (n2, n3).
	SecondChunkMaster
)

func (p RolePosition) String() string {
	switch p {
	case Normal:
		return "Normal"
	case FirstChunkMaster:
		return "FirstChunkMaster"
	case SecondChunkMaster:
		return "SecondChunkMaster"
	default:
		return "Unknown"
	}
}

// masterNodeIndices returns the node-array indices (into a 4-element chunk
// node list) that currently serve as masters, in part order (part 0 then
// part 1).
func (p RolePosition) masterNodeIndices() [2]int {
	switch p {
	case FirstChunkMaster:
		return [2]int{0, 1}
	case SecondChunkMaster:
		return [2]int{2, 3}
	default:
		return [2]int{0, 2}
	}
}

// peerIndex returns the replication peer of node index i within a chunk:
// the fixed involution 0<->3, 1<->2, independent of role-position.
func peerIndex(i int) int {
	return 3 - i
}

// MigrationMeta identifies one planned migration: the epoch it was planned
// at, and the source and destination chunk/part coordinates.
type MigrationMeta struct {
	Epoch     uint64
	SrcChunk  int
	SrcPart   int
	DstChunk  int
	DstPart   int
}

// MigrationSlotRangeStore is one side of a migration in progress. The same
// logical migration is represented twice in a cluster — once on the source
// chunk-part with IsMigrating true, once on the destination chunk-part with
// IsMigrating false — both sharing an identical Ranges and Meta. This
// duplication is intentional and must not be collapsed.
type MigrationSlotRangeStore struct {
	Ranges      meta.RangeList
	IsMigrating bool
	Meta        MigrationMeta
}

// Chunk is the slot-owning unit: two proxies (four nodes) forming one
// replication group, tagged with a role-position that says which two nodes
// are masters right now.
type Chunk struct {
	RolePosition  RolePosition
	Proxies       [meta.ChunkParts]meta.ProxyAddress
	Nodes         [meta.ChunkNodeNum]meta.NodeAddress
	StableSlots   [meta.ChunkParts]*meta.RangeList
	MigratingSlots [meta.ChunkParts][]MigrationSlotRangeStore
}

// newChunk builds a chunk from two proxies (each contributing two nodes, in
// the order returned by the allocator), with Normal role-position and empty
// stable/migrating state.
func newChunk(p0, p1 meta.ProxyAddress, n0, n1, n2, n3 meta.NodeAddress) *Chunk {
	return &Chunk{
		RolePosition: Normal,
		Proxies:      [meta.ChunkParts]meta.ProxyAddress{p0, p1},
		Nodes:        [meta.ChunkNodeNum]meta.NodeAddress{n0, n1, n2, n3},
	}
}

// masterNode returns the node address currently serving as the master for
// chunk-part (0 or 1).
func (c *Chunk) masterNode(part int) meta.NodeAddress {
	idx := c.RolePosition.masterNodeIndices()[part]
	return c.Nodes[idx]
}

// bothPartsMigrating reports whether both parts of the chunk currently have
// a non-empty migrating-slots list, the guard migrate_slots uses to reject a
// second concurrent migration. A chunk migrating on only one part is still
// eligible for a fresh plan touching its other part, so this requires both
// parts non-empty, not just one.
func (c *Chunk) bothPartsMigrating() bool {
	return len(c.MigratingSlots[0]) > 0 && len(c.MigratingSlots[1]) > 0
}

// stableCount returns the number of slots currently stable on the given
// part (0 if the part has no stable range, i.e. it was created by
// auto_add_nodes and never migrated into).
func (c *Chunk) stableCount(part int) int {
	if c.StableSlots[part] == nil {
		return 0
	}
	return c.StableSlots[part].SlotCount()
}

// referencesProxy reports whether addr is one of this chunk's two proxies.
func (c *Chunk) referencesProxy(addr meta.ProxyAddress) bool {
	return c.Proxies[0] == addr || c.Proxies[1] == addr
}

// proxyPart returns which part (0 or 1) addr occupies in this chunk, or -1
// if it does not occupy either.
func (c *Chunk) proxyPart(addr meta.ProxyAddress) int {
	for part, p := range c.Proxies {
		if p == addr {
			return part
		}
	}
	return -1
}
