package simulator

// passContext is the state owned by one scheduling pass
type passContext struct {
	queue   *ReadyQueue
	total   int // Processes in the run; one round is this many dequeues
	visited int // Dequeues since the current round started
	round   int
	emit    func(Log)
}

func newPassContext(processes []*Process, emit func(Log)) *passContext {
	if emit == nil {
		emit = func(Log) {}
	}
	return &passContext{
		queue: NewReadyQueue(processes...),
		total: len(processes),
		emit:  emit,
	}
}

// advance counts one dequeue. The round only moves on after as many dequeues
// as there were processes at the start, even once some have finished.
func (c *passContext) advance() {
	c.visited++
	if c.visited == c.total {
		c.round++
		c.visited = 0
	}
}

// rounds returns the number of rounds started so far
func (c *passContext) rounds() int {
	if c.visited > 0 {
		return c.round + 1
	}
	return c.round
}

// runLogicalPass schedules every process to completion, recording the
// partition each one occupies per round and compacting memory as they exit
func (r *run) runLogicalPass(ctx *passContext) {
	for !ctx.queue.IsEmpty() {
		p := ctx.queue.Pop()
		r.cycle(ctx, p)
		ctx.advance()
		r.metrics.LogicalCycles++
	}
}

// cycle runs one quantum of the logical pass for p
func (r *run) cycle(ctx *passContext, p *Process) {
	p.recordRound()
	r.ready(p)

	p.subtractTime(r.config.QuantumTime)
	p.incrementCycle()

	if p.IsFinished() {
		ctx.emit(r.processLog(p, StageFinished))
		r.settleTick(ctx, p)
		r.compact(ctx, p, false)
		return
	}

	// Blocking only changes what the replay pass logs
	ctx.queue.Push(p)
}

// ready attributes the slice p is about to consume to its partition
func (r *run) ready(p *Process) {
	r.charge(p, min(r.config.QuantumTime, p.RemainingTime))
}

// settleTick charges the final tick of a finished process to every waiting
// process that is itself within one quantum of finishing
func (r *run) settleTick(ctx *passContext, finished *Process) {
	quantum := r.config.QuantumTime
	last := quantum
	if finished.RemainingTime < 0 {
		last = finished.OriginalTime % quantum
	}

	for _, p := range ctx.queue.Processes() {
		if p.RemainingTime <= quantum {
			p.subtractTime(last)
			r.charge(p, last)
		}
	}
}

// charge adds CPU time to the ledger of the live partition hosting p
func (r *run) charge(p *Process, t int64) {
	part, ok := r.findLive(p.partition)
	if !ok {
		r.diagnose(ErrInconsistentState("process %s references partition %q which is not live", p.Name, p.partition))
		return
	}
	part.AddExecutionTime(p.Name, t)
}
