package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartition_OccupantsAndLedger(t *testing.T) {
	p := newBoundedPartition("Part7", 40, 60)
	require.Equal(t, int64(100), p.FinalLimit)

	p.addOccupant("P1")
	p.addOccupant("P2")
	p.addOccupant("p1")
	require.Equal(t, []string{"P1", "P2"}, p.Occupants(), "occupants keep first-hosted order without duplicates")
	require.Equal(t, "P1, P2", p.ProcessHistoryString())

	p.AddExecutionTime("P1", 4)
	p.AddExecutionTime("P2", 3)
	p.AddExecutionTime("P1", 2)
	require.Equal(t, int64(6), p.ExecutionTime("P1"))
	require.Equal(t, int64(9), p.TotalExecutionTime())

	c := p.clone()
	c.AddExecutionTime("P1", 100)
	c.addOccupant("P3")
	require.Equal(t, int64(6), p.ExecutionTime("P1"), "clones do not share the ledger")
	require.Len(t, p.Occupants(), 2)

	p.removeOccupant("p2")
	require.Equal(t, []string{"P1"}, p.Occupants())

	p.clearExecutionData()
	require.Zero(t, p.TotalExecutionTime())
	require.Empty(t, p.Occupants())

	require.Equal(t, PartitionRef{Name: "Part7", Size: 40, InitialLimit: 60, FinalLimit: 100}, p.Ref())
	require.Equal(t, "Part7[60,100)", p.String())
}

func TestCondensationAndCompactionStrings(t *testing.T) {
	c := Condensation{
		ID:      "Cond1",
		Removed: PartitionRef{Name: "Part1", Size: 50},
		Target:  PartitionRef{Name: "Part3", Size: 30},
	}
	require.Equal(t, int64(80), c.Size())
	require.Equal(t, "Cond1 - Part1 + Part3 (80)", c.String())

	comp := Compaction{Name: "Compaction 1", Size: 30, Process: "P2", Partition: PartitionRef{Name: "Part3"}}
	require.Equal(t, "Compaction 1 - size: 30 - process: P2 - partition created: Part3 - reason: process finished", comp.String())
}

func TestSimError_Kinds(t *testing.T) {
	err := ErrNotFound("partition", "Part9")
	require.True(t, IsNotFound(err))
	require.False(t, IsInvalidInput(err))
	require.EqualError(t, err, `simulation error: not found: partition "Part9" does not exist`)

	require.True(t, IsInconsistentState(ErrInconsistentState("x %d", 1)))
	require.False(t, IsNotFound(nil))
}
