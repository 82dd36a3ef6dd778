package simulator

// Metrics summarises a simulation run
type Metrics struct {
	LogicalCycles     int `json:"logicalCycles"`     // Quanta executed by the logical pass
	ReplayRounds      int `json:"replayRounds"`      // Rounds started by the replay pass
	PartitionsCreated int `json:"partitionsCreated"` // Engine-created partitions (assignment + compaction)
	Relocations       int `json:"relocations"`       // Partitions recreated at a lower offset
	Condensations     int `json:"condensations"`
	Compactions       int `json:"compactions"`
	LogCount          int `json:"logCount"`
	Diagnostics       int `json:"diagnostics"` // Recoverable inconsistencies met during the run

	FreeCapacity  int64 `json:"freeCapacity"`  // Capacity of available live partitions at the end of the run
	TotalCapacity int64 `json:"totalCapacity"` // Capacity of all live partitions at the end of the run
}

// NewMetrics creates an empty metrics record
func NewMetrics() *Metrics {
	return &Metrics{}
}

// FreeCapacityPercent returns the share of the address space left free
func (m *Metrics) FreeCapacityPercent() float64 {
	if m.TotalCapacity == 0 {
		return 0
	}
	return float64(m.FreeCapacity) / float64(m.TotalCapacity) * 100
}
