package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/miretskiy/memsched/simulator"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the logs of one stage, optionally for one partition",
	RunE:  runLogs,
}

var (
	stageName     string
	partitionName string
	logsJSON      bool
)

func init() {
	logsCmd.Flags().StringVar(&stageName, "stage", "", "Stage to list (partitions, initial, ready, dispatch, in_execution, expired, block_transition, blocked, wakeup, finished)")
	logsCmd.Flags().StringVar(&partitionName, "partition", "", "Only logs attached to this partition")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "Print JSON instead of a table")
	logsCmd.MarkFlagRequired("stage")
}

func runLogs(cmd *cobra.Command, args []string) error {
	stage, err := simulator.ParseStage(stageName)
	if err != nil {
		return err
	}

	sim, err := loadAndRun()
	if err != nil {
		return err
	}

	var logs []simulator.Log
	if partitionName != "" {
		logs = sim.LogsByStageAndPartition(stage, partitionName)
	} else {
		logs = sim.LogsByStage(stage)
	}

	if logsJSON {
		return writeJSON(logs, "")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROCESS\tREMAINING\tSIZE\tSTATUS\tCYCLE\tPARTITION")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%s\n",
			l.Process.Name, l.Process.RemainingTime, l.Process.Size,
			l.Process.Status, l.Process.CycleCount, l.Partition.Name)
	}
	return w.Flush()
}
