// Package tracing exports the results of a simulation run to CSV files or a
// SQLite database.
package tracing

import (
	"github.com/google/uuid"

	"github.com/miretskiy/memsched/simulator"
)

// Writer persists run traces. Init must be called before WriteRun; Flush
// forces buffered rows out and Close releases the underlying resources.
type Writer interface {
	Init() error
	WriteRun(trace RunTrace) error
	Flush() error
	Close() error
}

// RunTrace is everything one run produced, detached from the simulator
type RunTrace struct {
	ID            string
	Config        simulator.SimConfig
	Metrics       simulator.Metrics
	Logs          []simulator.Log
	Condensations []simulator.Condensation
	Compactions   []simulator.Compaction
	Report        []simulator.PartitionFinalizationInfo
}

// NewRunTrace captures the last run of sim under a fresh run ID
func NewRunTrace(sim *simulator.Simulator) RunTrace {
	return RunTrace{
		ID:            uuid.New().String(),
		Config:        sim.Config(),
		Metrics:       *sim.Metrics(),
		Logs:          sim.Logs(),
		Condensations: sim.Condensations(),
		Compactions:   sim.Compactions(),
		Report:        sim.Report(),
	}
}
