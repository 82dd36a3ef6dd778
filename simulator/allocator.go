package simulator

// assign gives every process a dedicated partition sized to its footprint,
// laid out contiguously from offset 0 in arrival order
func (r *run) assign(processes []*Process) {
	for _, p := range processes {
		var initialLimit int64
		if n := len(r.live); n > 0 {
			initialLimit = r.live[n-1].FinalLimit
		}

		part := r.createPartition(p.Size, initialLimit)
		part.addOccupant(p.Name)
		p.moveTo(part.Name)
		r.live = append(r.live, part)
	}
}

// announce emits the INITIAL log of every process followed by the layout of
// the live partitions
func (r *run) announce(processes []*Process) {
	for _, p := range processes {
		r.emit(r.processLog(p, StageInitial))
	}
	for _, part := range r.live {
		r.emit(partitionLog(part))
	}
}
