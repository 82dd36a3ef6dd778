package main

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/miretskiy/memsched/simulator"
	"github.com/miretskiy/memsched/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload and print the full result",
}

var (
	outputFile string
	csvBase    string
	sqlitePath string
)

func init() {
	// Assigned here rather than in the literal to break the runCmd
	// initialization cycle (runSimulation -> openWriters -> runCmd).
	runCmd.RunE = runSimulation
	runCmd.Flags().StringVar(&outputFile, "output", "", "Path to output JSON file (prints to stdout if not specified)")
	runCmd.Flags().StringVar(&csvBase, "csv", "", "Export the trace as CSV files with this path prefix")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Export the trace to this SQLite database")
}

type runResult struct {
	Config        simulator.SimConfig                   `json:"config"`
	RealTime      float64                               `json:"realTime"`
	Metrics       *simulator.Metrics                    `json:"metrics"`
	Report        []simulator.PartitionFinalizationInfo `json:"report"`
	Condensations []simulator.Condensation              `json:"condensations"`
	Compactions   []simulator.Compaction                `json:"compactions"`
	Logs          []simulator.Log                       `json:"logs"`
	Diagnostics   []string                              `json:"diagnostics,omitempty"`
}

func runSimulation(cmd *cobra.Command, args []string) error {
	writers, err := openWriters()
	if err != nil {
		return err
	}

	startTime := time.Now()
	sim, err := loadAndRun()
	if err != nil {
		return err
	}
	elapsed := time.Since(startTime)

	metrics := sim.Metrics()
	log.WithFields(log.Fields{
		"elapsed":       elapsed,
		"cycles":        metrics.LogicalCycles,
		"rounds":        metrics.ReplayRounds,
		"compactions":   metrics.Compactions,
		"condensations": metrics.Condensations,
		"logs":          metrics.LogCount,
	}).Info("Simulation completed")

	trace := tracing.NewRunTrace(sim)
	for _, w := range writers {
		if err := w.WriteRun(trace); err != nil {
			return err
		}
	}

	result := runResult{
		Config:        sim.Config(),
		RealTime:      elapsed.Seconds(),
		Metrics:       metrics,
		Report:        sim.Report(),
		Condensations: sim.Condensations(),
		Compactions:   sim.Compactions(),
		Logs:          sim.Logs(),
	}
	for _, d := range sim.Diagnostics() {
		result.Diagnostics = append(result.Diagnostics, d.Error())
	}
	return writeJSON(result, outputFile)
}

// openWriters initialises the requested trace writers. They are flushed and
// closed when the process exits.
func openWriters() ([]tracing.Writer, error) {
	var writers []tracing.Writer
	if cmdFlagSet(runCmd, "csv") {
		writers = append(writers, tracing.NewCSVWriter(csvBase))
	}
	if cmdFlagSet(runCmd, "sqlite") {
		writers = append(writers, tracing.NewSQLiteWriter(sqlitePath))
	}

	for _, w := range writers {
		if err := w.Init(); err != nil {
			return nil, err
		}
		w := w
		atexit.Register(func() {
			if err := w.Close(); err != nil {
				log.WithError(err).Error("Failed to close trace writer")
			}
		})
	}
	return writers, nil
}

func cmdFlagSet(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
