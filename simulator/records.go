package simulator

import "fmt"

// Condensation records that a freed partition was absorbed into the tail
// partition during compaction
type Condensation struct {
	ID      string       `json:"id"`
	Removed PartitionRef `json:"removed"`
	Target  PartitionRef `json:"target"`
}

// Size is the capacity of the merged partition
func (c Condensation) Size() int64 {
	return c.Removed.Size + c.Target.Size
}

func (c Condensation) String() string {
	return fmt.Sprintf("%s - %s + %s (%d)", c.ID, c.Removed.Name, c.Target.Name, c.Size())
}

// Compaction records free capacity made available by compaction, attributed
// to the process whose exit triggered it
type Compaction struct {
	Name       string       `json:"name"`
	Size       int64        `json:"size"`
	Process    string       `json:"process"`
	Partition  PartitionRef `json:"partition"`
	ForExpired bool         `json:"forExpired"` // Forced reclaim rather than normal exit
}

// Reason describes why the capacity was reclaimed
func (c Compaction) Reason() string {
	if c.ForExpired {
		return "time expired"
	}
	return "process finished"
}

func (c Compaction) String() string {
	return fmt.Sprintf("%s - size: %d - process: %s - partition created: %s - reason: %s",
		c.Name, c.Size, c.Process, c.Partition.Name, c.Reason())
}
