package simulator

import "fmt"

// compact releases the partition of a finished process and closes the gap it
// leaves in the address space.
//
// Partitions after the freed one are recreated at lower offsets. The tail is
// handled differently on the first compaction of a run: there is no free space
// yet, so the tail is only moved and a new free partition of the freed size is
// appended after it. Every later compaction merges the freed size backward
// into that free tail.
func (r *run) compact(ctx *passContext, finished *Process, forExpired bool) {
	pos := r.livePosition(finished.partition)
	if pos < 0 {
		r.diagnose(ErrInconsistentState("process %s released partition %q which is not live", finished.Name, finished.partition))
		return
	}

	if len(r.live) == 1 {
		// Nothing to move and nothing to merge with: the partition itself becomes free
		r.live[0].Available = true
		r.logEvent("[COMPACTION] %s released %s, no other live partitions", finished.Name, r.live[0].Name)
		return
	}

	sizeBefore := r.liveSize()
	penultimate := pos == len(r.live)-2
	removed := r.live[pos]
	r.live = append(r.live[:pos], r.live[pos+1:]...)

	for i := pos; i < len(r.live); i++ {
		if i == len(r.live)-1 && !r.firstCompaction {
			r.condense(ctx, finished, removed, penultimate, forExpired)
			continue
		}
		r.relocate(ctx, i)
	}

	if r.firstCompaction {
		r.firstCompaction = false
		r.appendFreePartition(ctx, finished, removed, forExpired)
	}

	if sizeAfter := r.liveSize(); sizeAfter != sizeBefore {
		r.diagnose(ErrInconsistentState("compaction after %s changed live capacity from %d to %d", finished.Name, sizeBefore, sizeAfter))
	}
	r.logEvent("[COMPACTION] %s released %s (%d), live partitions: %v", finished.Name, removed.Name, removed.Size, r.live)
}

// relocate recreates live[i] right after its predecessor, carrying its first
// occupant along
func (r *run) relocate(ctx *passContext, i int) {
	old := r.live[i]
	var initialLimit int64
	if i > 0 {
		initialLimit = r.live[i-1].FinalLimit
	}

	moved := r.createPartition(old.Size, initialLimit)
	moved.Available = old.Available
	if len(old.occupants) > 0 {
		occupant := old.occupants[0]
		moved.addOccupant(occupant)
		if p := ctx.queue.Find(occupant); p != nil {
			p.moveTo(moved.Name)
		}
	}

	r.live[i] = moved
	r.metrics.Relocations++
	ctx.emit(partitionLog(moved))
}

// condense merges the freed partition into the free tail, growing it backward
func (r *run) condense(ctx *passContext, finished *Process, removed *Partition, penultimate, forExpired bool) {
	last := len(r.live) - 1
	tail := r.live[last]
	size := removed.Size + tail.Size

	merged := r.createPartition(size, tail.FinalLimit-size)
	merged.Available = true

	condensation := Condensation{
		ID:      fmt.Sprintf("Cond%d", len(r.condensations)+1),
		Removed: removed.Ref(),
		Target:  tail.Ref(),
	}
	r.condensations = append(r.condensations, condensation)
	r.live[last] = merged

	// A freed second-to-last partition was already adjacent to the tail, so
	// the merge is its only effect
	if !penultimate {
		r.recordCompaction(finished, merged, condensation.Size(), forExpired)
	}
	ctx.emit(partitionLog(merged))
}

// appendFreePartition creates the free tail on the first compaction of a run
func (r *run) appendFreePartition(ctx *passContext, finished *Process, removed *Partition, forExpired bool) {
	tail := r.live[len(r.live)-1]
	free := r.createPartition(removed.Size, tail.FinalLimit)
	free.Available = true
	r.live = append(r.live, free)

	r.recordCompaction(finished, free, free.Size, forExpired)
	ctx.emit(partitionLog(free))
}

func (r *run) recordCompaction(finished *Process, created *Partition, size int64, forExpired bool) {
	r.compactions = append(r.compactions, Compaction{
		Name:       fmt.Sprintf("Compaction %d", len(r.compactions)+1),
		Size:       size,
		Process:    finished.Name,
		Partition:  created.Ref(),
		ForExpired: forExpired,
	})
}
