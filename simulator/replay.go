package simulator

// replayProcess prepares a logical-pass process for the replay pass: timer and
// cycle counter restart, the partition goes back to the initial assignment,
// and the per-round partitions are kept
func replayProcess(p *Process) *Process {
	c := p.fresh()
	if len(p.history) > 0 {
		c.moveTo(p.history[0])
	}
	c.rounds = append([]string(nil), p.rounds...)
	return c
}

// runReplayPass re-executes round-robin scheduling using the partitions
// recorded by the logical pass and emits the stage-by-stage log
func (r *run) runReplayPass(ctx *passContext) {
	for !ctx.queue.IsEmpty() {
		p := ctx.queue.Pop()
		r.replayCycle(ctx, p, ctx.round)
		ctx.advance()
	}
	r.metrics.ReplayRounds = ctx.rounds()
}

func (r *run) replayCycle(ctx *passContext, p *Process, round int) {
	// Past the recorded rounds the process keeps the last partition it used
	if round < len(p.rounds) {
		name := p.rounds[round]
		if part, ok := r.findPartition(name); ok {
			p.partition = part.Name
			ctx.emit(partitionLog(part))
		} else {
			r.diagnose(ErrInconsistentState("process %s has no partition %q for round %d", p.Name, name, round))
		}
	}

	ctx.emit(r.processLog(p, StageReady))
	ctx.emit(r.processLog(p, StageDispatch))
	ctx.emit(r.processLog(p, StageInExecution))
	p.subtractTime(r.config.QuantumTime)
	p.incrementCycle()

	if p.IsFinished() {
		return
	}

	if !p.IsBlocked() {
		ctx.emit(r.processLog(p, StageExpired))
		ctx.queue.Push(p)
		return
	}

	ctx.emit(r.processLog(p, StageBlockTransition))
	ctx.emit(r.processLog(p, StageBlocked))
	ctx.emit(r.processLog(p, StageWakeup))
	ctx.queue.Push(p)
}
