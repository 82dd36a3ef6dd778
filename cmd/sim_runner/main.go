package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/miretskiy/memsched/simulator"
	"github.com/miretskiy/memsched/workload"
)

var rootCmd = &cobra.Command{
	Use:   "sim_runner",
	Short: "Run memory partition scheduling simulations",
	Long: `sim_runner loads a workload of processes (and optionally declared partitions),
runs the round-robin scheduler with compaction and prints the results as JSON.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		if verbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
}

var (
	workloadFile string
	quantum      int64
	verbose      bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&workloadFile, "workload", "", "Path to YAML or JSON workload file")
	rootCmd.PersistentFlags().Int64Var(&quantum, "quantum", 0, "Quantum time (overrides the workload)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging from simulator")
	rootCmd.MarkPersistentFlagRequired("workload")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(logsCmd)
}

// loadAndRun builds a simulator from the workload flags and runs it once
func loadAndRun() (*simulator.Simulator, error) {
	w, err := workload.Load(workloadFile)
	if err != nil {
		return nil, err
	}
	if quantum > 0 {
		w.Quantum = quantum
	}

	sim, err := simulator.NewSimulator(simulator.DefaultConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create simulator")
	}
	if verbose {
		sim.LogEvent = func(msg string) {
			log.WithField("component", "simulator").Debug(msg)
		}
	}
	if err := w.Apply(sim); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"workload":   workloadFile,
		"processes":  len(w.Processes),
		"partitions": len(w.Partitions),
		"quantum":    sim.Config().QuantumTime,
	}).Info("Starting simulation")

	if err := sim.Run(); err != nil {
		return nil, errors.Wrap(err, "simulation failed")
	}
	for _, d := range sim.Diagnostics() {
		log.WithError(d).Warn("Inconsistent state during run")
	}
	return sim, nil
}

func writeJSON(v interface{}, path string) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal results")
	}
	if path == "" {
		fmt.Println(string(output))
		return nil
	}
	if err := os.WriteFile(path, output, 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	log.WithField("output", path).Info("Results written")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("sim_runner failed")
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
