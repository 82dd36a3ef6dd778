package simulator

import (
	"fmt"
	"strings"
)

// Partition is an address range [InitialLimit, FinalLimit) of memory.
// Engine-created partitions are never resized or moved: compaction creates new
// instances instead. Only the execution-time ledger changes after creation.
type Partition struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	InitialLimit int64  `json:"initialLimit"`
	FinalLimit   int64  `json:"finalLimit"`
	Available    bool   `json:"available"` // Holds free capacity produced by compaction
	Declared     bool   `json:"declared"`  // Entered by the user rather than created by a run

	occupants     []string         // Processes ever hosted, in the order they arrived
	executionTime map[string]int64 // Process name -> accumulated CPU time while resident
}

// NewPartition creates a user-declared partition. Declared partitions carry
// capacity only; their bounds are not part of the simulated address space.
func NewPartition(name string, size int64) *Partition {
	return &Partition{
		Name:          strings.TrimSpace(name),
		Size:          size,
		InitialLimit:  0,
		FinalLimit:    size,
		Declared:      true,
		executionTime: make(map[string]int64),
	}
}

func newBoundedPartition(name string, size, initialLimit int64) *Partition {
	return &Partition{
		Name:          name,
		Size:          size,
		InitialLimit:  initialLimit,
		FinalLimit:    initialLimit + size,
		executionTime: make(map[string]int64),
	}
}

// addOccupant records that a process was hosted here
func (p *Partition) addOccupant(process string) {
	for _, name := range p.occupants {
		if strings.EqualFold(name, process) {
			return
		}
	}
	p.occupants = append(p.occupants, process)
}

// removeOccupant forgets a process, used when the process itself is deleted
func (p *Partition) removeOccupant(process string) {
	kept := p.occupants[:0]
	for _, name := range p.occupants {
		if !strings.EqualFold(name, process) {
			kept = append(kept, name)
		}
	}
	p.occupants = kept
}

// Occupants returns the names of the processes hosted by this partition
func (p *Partition) Occupants() []string {
	return append([]string(nil), p.occupants...)
}

// AddExecutionTime accumulates CPU time for a process while resident
func (p *Partition) AddExecutionTime(process string, t int64) {
	if p.executionTime == nil {
		p.executionTime = make(map[string]int64)
	}
	p.executionTime[process] += t
}

// ExecutionTime returns the CPU time a process accumulated here
func (p *Partition) ExecutionTime(process string) int64 {
	return p.executionTime[process]
}

// TotalExecutionTime sums the ledger over every process
func (p *Partition) TotalExecutionTime() int64 {
	var total int64
	for _, t := range p.executionTime {
		total += t
	}
	return total
}

// ProcessHistoryString joins the occupant names with commas
func (p *Partition) ProcessHistoryString() string {
	return strings.Join(p.occupants, ", ")
}

func (p *Partition) clearExecutionData() {
	p.occupants = nil
	p.executionTime = make(map[string]int64)
}

// Ref returns an immutable snapshot of the partition bounds
func (p *Partition) Ref() PartitionRef {
	return PartitionRef{
		Name:         p.Name,
		Size:         p.Size,
		InitialLimit: p.InitialLimit,
		FinalLimit:   p.FinalLimit,
	}
}

func (p *Partition) clone() *Partition {
	c := *p
	c.occupants = append([]string(nil), p.occupants...)
	c.executionTime = make(map[string]int64, len(p.executionTime))
	for k, v := range p.executionTime {
		c.executionTime[k] = v
	}
	return &c
}

func (p *Partition) String() string {
	return fmt.Sprintf("%s[%d,%d)", p.Name, p.InitialLimit, p.FinalLimit)
}

// PartitionRef identifies a partition by value. Records and logs hold refs so
// they stay valid after the partition is superseded.
type PartitionRef struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	InitialLimit int64  `json:"initialLimit"`
	FinalLimit   int64  `json:"finalLimit"`
}

// IsZero returns true for logs that are not tied to any partition
func (r PartitionRef) IsZero() bool { return r.Name == "" }
