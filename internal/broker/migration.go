package broker

import "github.com/dreamware/membroker/internal/meta"

// plannedMigration is one emitted MigrationSlots event from the planning
// algorithm: a set of ranges pulled from one source master destined for one
// destination master.
type plannedMigration struct {
	meta   MigrationMeta
	ranges meta.RangeList
}

// planMigration implements the §4.4 planning algorithm. It mutates the
// cluster's source chunks' stable ranges in place (the right-end pulls are
// applied immediately, not deferred to commit) and returns the sequence of
// migrating/importing pairs to record. The caller must already hold the
// store's mutex and must have already verified no migration is in
// progress.
func planMigration(cl *Cluster, epoch uint64) []plannedMigration {
	chunks := cl.Chunks
	dstChunkNum := 0
	for _, c := range chunks {
		if c.StableSlots[0] == nil && c.StableSlots[1] == nil {
			dstChunkNum++
		}
	}
	srcChunkNum := len(chunks) - dstChunkNum
	masterNum := 2 * len(chunks)
	srcMasterNum := 2 * srcChunkNum
	dstMasterNum := 2 * dstChunkNum

	var plans []plannedMigration
	dstCursor := 0
	var accRanges meta.RangeList
	accCount := 0

	for s := 0; s < srcMasterNum; s++ {
		chunkIdx := s / 2
		part := s % 2
		r := *chunks[chunkIdx].StableSlots[part]

		for dstCursor < dstMasterNum {
			srcFinal := meta.TargetCount(s, masterNum)
			dstFinal := meta.TargetCount(srcMasterNum+dstCursor, masterNum)
			if r.SlotCount() <= srcFinal {
				break
			}
			need := dstFinal - accCount
			available := r.SlotCount() - srcFinal
			remove := min(need, available)

			var pulled meta.RangeList
			pulled, r = r.PopRight(remove)
			accRanges = append(accRanges, pulled...)
			accCount += remove
			chunks[chunkIdx].StableSlots[part] = &r

			destFull := accCount >= dstFinal
			srcDone := r.SlotCount() <= srcFinal
			if destFull || srcDone {
				dstChunkIdx := srcChunkNum + dstCursor/2
				dstPart := dstCursor % 2
				plans = append(plans, plannedMigration{
					meta: MigrationMeta{
						Epoch:    epoch,
						SrcChunk: chunkIdx,
						SrcPart:  part,
						DstChunk: dstChunkIdx,
						DstPart:  dstPart,
					},
					ranges: accRanges,
				})
				accRanges = nil
				if destFull {
					dstCursor++
					accCount = 0
				}
				if srcDone {
					break
				}
			}
		}
	}
	return plans
}

// recordMigrationPlan inserts the paired migrating/importing entries for
// every planned migration into their source and destination chunks.
func recordMigrationPlan(cl *Cluster, plans []plannedMigration) {
	for _, p := range plans {
		src := cl.Chunks[p.meta.SrcChunk]
		dst := cl.Chunks[p.meta.DstChunk]
		src.MigratingSlots[p.meta.SrcPart] = append(src.MigratingSlots[p.meta.SrcPart], MigrationSlotRangeStore{
			Ranges:      p.ranges.Clone(),
			IsMigrating: true,
			Meta:        p.meta,
		})
		dst.MigratingSlots[p.meta.DstPart] = append(dst.MigratingSlots[p.meta.DstPart], MigrationSlotRangeStore{
			Ranges:      p.ranges.Clone(),
			IsMigrating: false,
			Meta:        p.meta,
		})
	}
}

// MigrationTask identifies one migration to commit: the cluster it belongs
// to, the range list being moved, and the epoch it was planned at. Per
// §4.6, the commit lookup matches only on range list and epoch — not on
// the chunk/part coordinates the original plan carried — so a stale or
// forged coordinate in the caller's hands cannot misdirect the commit.
type MigrationTask struct {
	ClusterName meta.ClusterName
	Ranges      meta.RangeList
	Epoch       uint64
}

// commitMigrationLocked implements §4.6. The caller must already hold the
// store's mutex.
func commitMigrationLocked(cl *Cluster, task MigrationTask) (MigrationMeta, error) {
	if len(task.Ranges) == 0 {
		return MigrationMeta{}, ErrInvalidMigrationTask
	}

	srcChunk, srcPart := -1, -1
	dstChunk, dstPart := -1, -1
	for i, chunk := range cl.Chunks {
		for j := 0; j < meta.ChunkParts; j++ {
			for _, e := range chunk.MigratingSlots[j] {
				if e.Meta.Epoch != task.Epoch || !e.Ranges.Equal(task.Ranges) {
					continue
				}
				if e.IsMigrating {
					srcChunk, srcPart = i, j
				} else {
					dstChunk, dstPart = i, j
				}
			}
		}
	}
	if srcChunk == -1 || dstChunk == -1 {
		return MigrationMeta{}, ErrMigrationTaskNotFound
	}

	canonical := MigrationMeta{
		Epoch:    task.Epoch,
		SrcChunk: srcChunk,
		SrcPart:  srcPart,
		DstChunk: dstChunk,
		DstPart:  dstPart,
	}

	// Remove every migrating (source-side) entry across every chunk that
	// matches the range list and canonical meta; importing entries are
	// untouched by this pass.
	for _, chunk := range cl.Chunks {
		for j := 0; j < meta.ChunkParts; j++ {
			filtered := chunk.MigratingSlots[j][:0]
			for _, e := range chunk.MigratingSlots[j] {
				if e.IsMigrating && e.Meta == canonical && e.Ranges.Equal(task.Ranges) {
					continue
				}
				filtered = append(filtered, e)
			}
			chunk.MigratingSlots[j] = filtered
		}
	}

	// Scan in order; fold the first matching importing entry into stable
	// slots and stop.
	for _, chunk := range cl.Chunks {
		settled := false
		for j := 0; j < meta.ChunkParts; j++ {
			idx := -1
			for k, e := range chunk.MigratingSlots[j] {
				if !e.IsMigrating && e.Meta == canonical && e.Ranges.Equal(task.Ranges) {
					idx = k
					break
				}
			}
			if idx < 0 {
				continue
			}
			entry := chunk.MigratingSlots[j][idx]
			chunk.MigratingSlots[j] = append(chunk.MigratingSlots[j][:idx], chunk.MigratingSlots[j][idx+1:]...)
			if chunk.StableSlots[j] == nil {
				nr := entry.Ranges.Clone()
				chunk.StableSlots[j] = &nr
			} else {
				merged := chunk.StableSlots[j].Merge(entry.Ranges)
				chunk.StableSlots[j] = &merged
			}
			settled = true
			break
		}
		if settled {
			break
		}
	}

	return canonical, nil
}
