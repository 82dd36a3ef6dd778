package simulator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestRun builds a run with the given processes assigned and announced
func newTestRun(t *testing.T, quantum int64, processes ...*Process) (*run, *passContext) {
	t.Helper()
	config := DefaultConfig()
	config.QuantumTime = quantum
	r := newRun(config, nil, nil)
	r.assign(processes)
	r.announce(processes)
	return r, newPassContext(processes, r.emit)
}

// requireContiguous checks that the live partitions tile [0, total) in order
func requireContiguous(t *testing.T, live []*Partition, total int64) {
	t.Helper()
	var offset int64
	for _, p := range live {
		require.Equal(t, offset, p.InitialLimit, "gap or overlap before %s in %v", p.Name, live)
		require.Equal(t, p.Size, p.FinalLimit-p.InitialLimit, "%s bounds disagree with size", p.Name)
		offset = p.FinalLimit
	}
	require.Equal(t, total, offset, "live partitions do not cover the address space: %v", live)
}

func TestAssign_ContiguousFromZero(t *testing.T) {
	processes := []*Process{
		NewProcess("A", 4, StatusNotBlocked, 10),
		NewProcess("B", 4, StatusNotBlocked, 0),
		NewProcess("C", 4, StatusNotBlocked, 25),
	}
	r, _ := newTestRun(t, 4, processes...)

	requireContiguous(t, r.live, 35)
	for i, p := range processes {
		part := r.live[i]
		require.Equal(t, fmt.Sprintf("Part%d", i+1), part.Name)
		require.Equal(t, part.Name, p.Partition())
		require.Equal(t, []string{part.Name}, p.PartitionHistory())
		require.Equal(t, []string{p.Name}, part.Occupants())
	}

	// INITIAL logs come first, then the layout
	require.Len(t, r.logs, 6)
	for i := 0; i < 3; i++ {
		require.Equal(t, StageInitial, r.logs[i].Stage)
		require.Equal(t, StagePartitions, r.logs[i+3].Stage)
		require.Empty(t, r.logs[i+3].Process.Name)
		require.Equal(t, r.live[i].Size, r.logs[i+3].Process.Size)
	}
}

// Every cycle of the logical pass keeps the live set contiguous and its
// capacity unchanged
func TestLogicalPass_ConservesSizeAndContiguity(t *testing.T) {
	tests := []struct {
		name    string
		quantum int64
		times   []int64
		sizes   []int64
	}{
		{name: "staggered", quantum: 4, times: []int64{8, 4, 12}, sizes: []int64{10, 20, 30}},
		{name: "last finishes first", quantum: 3, times: []int64{9, 9, 2}, sizes: []int64{5, 6, 7}},
		{name: "many small", quantum: 2, times: []int64{1, 3, 5, 7, 2, 4}, sizes: []int64{8, 16, 4, 32, 2, 1}},
		{name: "same tick", quantum: 5, times: []int64{5, 5, 5, 5}, sizes: []int64{1, 2, 3, 4}},
		{name: "zero sized", quantum: 4, times: []int64{6, 2}, sizes: []int64{0, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processes := make([]*Process, len(tt.times))
			var total int64
			for i := range tt.times {
				processes[i] = NewProcess(fmt.Sprintf("P%d", i+1), tt.times[i], StatusNotBlocked, tt.sizes[i])
				total += tt.sizes[i]
			}
			r, ctx := newTestRun(t, tt.quantum, processes...)
			requireContiguous(t, r.live, total)

			compactionsSeen := 0
			for !ctx.queue.IsEmpty() {
				before := len(r.condensations)
				liveBefore := len(r.live)
				p := ctx.queue.Pop()
				r.cycle(ctx, p)
				ctx.advance()

				requireContiguous(t, r.live, total)
				if p.IsFinished() && liveBefore > 1 {
					compactionsSeen++
					if compactionsSeen == 1 {
						require.Equal(t, before, len(r.condensations), "first compaction never condenses")
					} else {
						require.Equal(t, before+1, len(r.condensations), "later compactions condense exactly once")
					}
				}
			}

			require.Empty(t, r.diagnostics)
			for _, p := range processes {
				require.LessOrEqual(t, p.RemainingTime, int64(0), p.Name)
				require.Len(t, p.RoundPartitions(), p.CycleCount())
			}
		})
	}
}

// Without cross-process correction a process needs ceil(time/quantum) cycles
func TestLogicalPass_CycleCount(t *testing.T) {
	for _, time := range []int64{1, 3, 4, 5, 8, 13} {
		p := NewProcess("Solo", time, StatusNotBlocked, 16)
		r, ctx := newTestRun(t, 4, p)
		r.runLogicalPass(ctx)

		require.Equal(t, int((time+3)/4), p.CycleCount(), "time=%d", time)
		require.Equal(t, time, r.live[0].ExecutionTime("Solo"), "ledger sums to the CPU demand")
	}
}

func TestSettleTick_ChargesWaitingProcesses(t *testing.T) {
	p1 := NewProcess("P1", 5, StatusNotBlocked, 50)
	p2 := NewProcess("P2", 3, StatusNotBlocked, 30)
	r, ctx := newTestRun(t, 4, p1, p2)

	r.cycle(ctx, ctx.queue.Pop())
	ctx.advance()
	require.Equal(t, int64(1), p1.RemainingTime)

	// P2 overshoots by one, so P1 is charged 3 % 4 = 3
	r.cycle(ctx, ctx.queue.Pop())
	ctx.advance()
	require.Equal(t, int64(-1), p2.RemainingTime)
	require.Equal(t, int64(-2), p1.RemainingTime)

	part1, ok := r.findPartition("Part1")
	require.True(t, ok)
	require.Equal(t, int64(7), part1.ExecutionTime("P1"))

	// P1's last cycle charges its negative remainder, bringing the ledger back to its demand
	r.runLogicalPass(ctx)
	require.Equal(t, int64(5), part1.ExecutionTime("P1"))
	require.Equal(t, 2, p1.CycleCount())
}

func TestSettleTick_FullQuantumWhenExact(t *testing.T) {
	waiting := NewProcess("W", 3, StatusNotBlocked, 1)
	far := NewProcess("F", 40, StatusNotBlocked, 1)
	finished := NewProcess("X", 4, StatusNotBlocked, 1)
	r, ctx := newTestRun(t, 4, waiting, far, finished)
	ctx.queue.Clear()
	ctx.queue.Push(waiting)
	ctx.queue.Push(far)

	finished.subtractTime(4)
	r.settleTick(ctx, finished)

	require.Equal(t, int64(-1), waiting.RemainingTime)
	require.Equal(t, int64(40), far.RemainingTime, "processes further than one quantum are not charged")
}

func TestCompact_FirstCompactionAppendsFreeTail(t *testing.T) {
	a := NewProcess("A", 4, StatusNotBlocked, 10)
	b := NewProcess("B", 4, StatusNotBlocked, 20)
	c := NewProcess("C", 4, StatusNotBlocked, 30)
	r, ctx := newTestRun(t, 4, a, b, c)
	ctx.queue.Pop() // A is running

	r.compact(ctx, a, true)

	require.Empty(t, r.condensations)
	require.Len(t, r.compactions, 1)
	require.True(t, r.compactions[0].ForExpired)
	require.Equal(t, "time expired", r.compactions[0].Reason())
	require.Equal(t, int64(10), r.compactions[0].Size)
	require.False(t, r.firstCompaction)

	// B and C moved down by 10, free tail of 10 appended
	require.Len(t, r.live, 3)
	require.Equal(t, []string{"Part4", "Part5", "Part6"}, []string{r.live[0].Name, r.live[1].Name, r.live[2].Name})
	requireContiguous(t, r.live, 60)
	require.True(t, r.live[2].Available)
	require.Equal(t, "Part4", b.Partition())
	require.Equal(t, "Part5", c.Partition())
	require.Equal(t, []string{"Part2", "Part4"}, b.PartitionHistory())
}

func TestCompact_PenultimateMergeRecordsNoCompaction(t *testing.T) {
	a := NewProcess("A", 4, StatusNotBlocked, 10)
	b := NewProcess("B", 4, StatusNotBlocked, 20)
	r, ctx := newTestRun(t, 4, a, b)
	ctx.queue.Pop() // B stays queued so the relocation re-links it

	r.compact(ctx, a, false) // first: live becomes [B', free(10)]
	require.Equal(t, "Part3", b.Partition())
	require.Len(t, r.compactions, 1)

	r.compact(ctx, b, false) // B' is second-to-last
	require.Len(t, r.condensations, 1)
	require.Len(t, r.compactions, 1, "merging the second-to-last partition adds no compaction")
	require.Len(t, r.live, 1)
	require.Equal(t, int64(30), r.live[0].Size)
	requireContiguous(t, r.live, 30)
}

func TestCompact_SingleLivePartitionBecomesFree(t *testing.T) {
	a := NewProcess("A", 4, StatusNotBlocked, 10)
	r, ctx := newTestRun(t, 4, a)
	ctx.queue.Pop()

	r.compact(ctx, a, false)
	require.Len(t, r.live, 1)
	require.True(t, r.live[0].Available)
	require.Equal(t, "Part1", r.live[0].Name)
	require.Empty(t, r.compactions)
	require.True(t, r.firstCompaction)
}

func TestCompact_UnknownPartitionIsDiagnosed(t *testing.T) {
	a := NewProcess("A", 4, StatusNotBlocked, 10)
	r, ctx := newTestRun(t, 4, a)

	ghost := NewProcess("Ghost", 4, StatusNotBlocked, 10)
	ghost.moveTo("Part99")
	r.compact(ctx, ghost, false)
	r.cycle(ctx, ghost)

	require.Len(t, r.diagnostics, 3, "compact, charge and the compact of the finished cycle")
	for _, err := range r.diagnostics {
		require.True(t, IsInconsistentState(err), "%v", err)
	}
	require.Len(t, r.live, 1, "the run carries on untouched")
}

func TestReplayCycle_KeepsLastPartitionPastRecordedRounds(t *testing.T) {
	p := NewProcess("P", 20, StatusNotBlocked, 10)
	r, ctx := newTestRun(t, 4, p)
	p.recordRound()

	r.replayCycle(ctx, p, 0)
	logsAfterFirst := len(r.logs)
	require.Equal(t, StagePartitions, r.logs[2].Stage)

	r.replayCycle(ctx, p, 5)
	fresh := r.logs[logsAfterFirst:]
	require.Equal(t, StageReady, fresh[0].Stage, "no partition log past the recorded rounds")
	require.Equal(t, "Part1", fresh[0].Partition.Name)
	require.Equal(t, int64(16), fresh[0].Process.RemainingTime)
}

func TestReplayCycle_MissingRecordedPartitionIsDiagnosed(t *testing.T) {
	p := NewProcess("P", 20, StatusNotBlocked, 10)
	r, ctx := newTestRun(t, 4, p)
	p.rounds = []string{"Nowhere"}

	r.replayCycle(ctx, p, 0)
	require.Len(t, r.diagnostics, 1)
	require.Equal(t, "Part1", p.Partition())
	require.Equal(t, int64(16), p.RemainingTime, "the cycle still runs")
}

func TestPassContext_RoundCounting(t *testing.T) {
	ctx := newPassContext([]*Process{
		NewProcess("A", 1, StatusNotBlocked, 1),
		NewProcess("B", 1, StatusNotBlocked, 1),
	}, nil)

	require.Equal(t, 0, ctx.rounds())
	ctx.advance()
	require.Equal(t, 0, ctx.round)
	require.Equal(t, 1, ctx.rounds())
	ctx.advance()
	require.Equal(t, 1, ctx.round)
	require.Equal(t, 1, ctx.rounds())
	ctx.advance()
	require.Equal(t, 2, ctx.rounds())
}
