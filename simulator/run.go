package simulator

import (
	"fmt"
	"strings"
)

// run holds everything derived by a single simulation run. It is built from
// scratch by Simulator.Run and committed to the simulator only when both
// passes are complete.
type run struct {
	config        SimConfig
	partitions    []*Partition // Every partition the run knows: declared first, then created
	live          []*Partition // Current tiling of the address space, lowest offset first
	logs          []Log
	condensations []Condensation
	compactions   []Compaction
	diagnostics   []error
	metrics       *Metrics

	// The first compaction of a run appends the free tail partition instead of
	// merging into it
	firstCompaction bool

	logEvent func(format string, args ...interface{})
}

func newRun(config SimConfig, declared []*Partition, logEvent func(format string, args ...interface{})) *run {
	r := &run{
		config:          config,
		partitions:      make([]*Partition, 0, len(declared)),
		live:            make([]*Partition, 0),
		logs:            make([]Log, 0),
		condensations:   make([]Condensation, 0),
		compactions:     make([]Compaction, 0),
		diagnostics:     make([]error, 0),
		metrics:         NewMetrics(),
		firstCompaction: true,
		logEvent:        logEvent,
	}
	if r.logEvent == nil {
		r.logEvent = func(string, ...interface{}) {}
	}

	for _, p := range declared {
		c := p.clone()
		c.clearExecutionData()
		c.Available = false
		r.partitions = append(r.partitions, c)
	}
	return r
}

// nextPartitionName numbers partitions by how many the run knows so far,
// skipping names already taken by declared partitions
func (r *run) nextPartitionName() string {
	for n := len(r.partitions) + 1; ; n++ {
		name := fmt.Sprintf("%s%d", r.config.PartitionPrefix, n)
		if _, taken := r.findPartition(name); !taken {
			return name
		}
	}
}

// createPartition appends a new engine-owned partition starting at initialLimit
func (r *run) createPartition(size, initialLimit int64) *Partition {
	p := newBoundedPartition(r.nextPartitionName(), size, initialLimit)
	r.partitions = append(r.partitions, p)
	r.metrics.PartitionsCreated++
	return p
}

func (r *run) findPartition(name string) (*Partition, bool) {
	for _, p := range r.partitions {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return nil, false
}

// livePosition returns the index of the named partition in the live ordering, or -1
func (r *run) livePosition(name string) int {
	for i, p := range r.live {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (r *run) findLive(name string) (*Partition, bool) {
	if i := r.livePosition(name); i >= 0 {
		return r.live[i], true
	}
	return nil, false
}

func (r *run) emit(l Log) {
	r.logs = append(r.logs, l)
}

// processLog snapshots a process together with the partition it currently uses
func (r *run) processLog(p *Process, stage Stage) Log {
	var ref PartitionRef
	if part, ok := r.findPartition(p.partition); ok {
		ref = part.Ref()
	}
	return Log{Stage: stage, Process: p.snapshot(), Partition: ref}
}

// partitionLog describes a partition with an anonymous process of the same size
func partitionLog(part *Partition) Log {
	return Log{
		Stage: StagePartitions,
		Process: ProcessSnapshot{
			Size:      part.Size,
			Partition: part.Name,
		},
		Partition: part.Ref(),
	}
}

// diagnose records a recoverable defect; the run carries on
func (r *run) diagnose(err error) {
	r.diagnostics = append(r.diagnostics, err)
	r.metrics.Diagnostics++
	r.logEvent("[DIAGNOSTIC] %v", err)
}

// liveSize sums the capacity of the live partitions
func (r *run) liveSize() int64 {
	var total int64
	for _, p := range r.live {
		total += p.Size
	}
	return total
}

// finish fills in the metrics that describe the final state of the run
func (r *run) finish() {
	r.metrics.Condensations = len(r.condensations)
	r.metrics.Compactions = len(r.compactions)
	r.metrics.LogCount = len(r.logs)
	r.metrics.FreeCapacity = 0
	for _, p := range r.live {
		if p.Available {
			r.metrics.FreeCapacity += p.Size
		}
	}
	r.metrics.TotalCapacity = r.liveSize()
}
