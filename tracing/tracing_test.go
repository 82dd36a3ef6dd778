package tracing

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/miretskiy/memsched/simulator"
)

// twoProcessTrace runs P1 (5, 50) and P2 (3, 30) with quantum 4
func twoProcessTrace(t *testing.T) (*simulator.Simulator, RunTrace) {
	t.Helper()
	config := simulator.DefaultConfig()
	config.QuantumTime = 4
	sim, err := simulator.NewSimulator(config)
	require.NoError(t, err)
	require.NoError(t, sim.AddProcess("P1", 5, simulator.StatusNotBlocked, 50))
	require.NoError(t, sim.AddProcess("P2", 3, simulator.StatusNotBlocked, 30))
	require.NoError(t, sim.Run())
	return sim, NewRunTrace(sim)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestNewRunTrace(t *testing.T) {
	sim, trace := twoProcessTrace(t)

	_, err := uuid.Parse(trace.ID)
	require.NoError(t, err)
	require.Equal(t, sim.Logs(), trace.Logs)
	require.Equal(t, sim.Report(), trace.Report)
	require.Equal(t, int64(4), trace.Config.QuantumTime)
	require.Equal(t, len(trace.Logs), trace.Metrics.LogCount)

	_, again := twoProcessTrace(t)
	require.NotEqual(t, trace.ID, again.ID)
}

func TestCSVWriter(t *testing.T) {
	_, trace := twoProcessTrace(t)
	w := NewCSVWriter(filepath.Join(t.TempDir(), "run"))
	require.NoError(t, w.Init())
	require.NoError(t, w.WriteRun(trace))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "closing twice is harmless")

	logs := readCSV(t, w.Path("logs"))
	require.Len(t, logs, len(trace.Logs)+1)
	require.Equal(t, csvHeaders["logs"], logs[0])
	require.Equal(t, trace.ID, logs[1][0])
	require.Equal(t, trace.Logs[0].Stage.String(), logs[1][2])

	compactions := readCSV(t, w.Path("compactions"))
	require.Len(t, compactions, 2)
	require.Equal(t, []string{trace.ID, "Compaction 1", "30", "P2", "Part3", "50", "80", "process finished"}, compactions[1])

	condensations := readCSV(t, w.Path("condensations"))
	require.Len(t, condensations, 2)
	require.Equal(t, []string{trace.ID, "Cond1", "Part1", "50", "Part3", "30", "80"}, condensations[1])

	report := readCSV(t, w.Path("report"))
	require.Len(t, report, len(trace.Report)+1)
	require.Equal(t, "Part1", report[len(report)-1][1], "report keeps ascending total time")
}

func TestCSVWriter_DefaultBase(t *testing.T) {
	w := NewCSVWriter("")
	require.Contains(t, w.Base(), "memsched_trace_")
	require.Error(t, w.WriteRun(RunTrace{}), "writing before Init fails")
}

func TestSQLiteWriter(t *testing.T) {
	_, trace := twoProcessTrace(t)
	_, second := twoProcessTrace(t)

	w := NewSQLiteWriter(filepath.Join(t.TempDir(), "db", "trace.sqlite3"))
	require.NoError(t, w.Init())
	require.NoError(t, w.WriteRun(trace))
	require.NoError(t, w.WriteRun(second))
	require.NoError(t, w.Flush())

	db := w.DB()
	var runs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
	require.Equal(t, 2, runs)

	var logs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM logs WHERE run_id = ?`, trace.ID).Scan(&logs))
	require.Equal(t, len(trace.Logs), logs)

	var quantum int64
	var cycles int
	require.NoError(t, db.QueryRow(`SELECT quantum, logical_cycles FROM runs WHERE id = ?`, trace.ID).
		Scan(&quantum, &cycles))
	require.Equal(t, int64(4), quantum)
	require.Equal(t, trace.Metrics.LogicalCycles, cycles)

	var size int64
	var process, partition string
	require.NoError(t, db.QueryRow(`SELECT size, process, partition_name FROM compactions WHERE run_id = ?`, trace.ID).
		Scan(&size, &process, &partition))
	require.Equal(t, int64(30), size)
	require.Equal(t, "P2", process)
	require.Equal(t, "Part3", partition)

	var executing int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM logs WHERE run_id = ? AND stage = ?`,
		trace.ID, simulator.StageInExecution.String()).Scan(&executing))
	require.Equal(t, trace.Metrics.LogicalCycles, executing)

	var first string
	require.NoError(t, db.QueryRow(`SELECT name FROM partition_report WHERE run_id = ? ORDER BY position LIMIT 1`,
		trace.ID).Scan(&first))
	require.Equal(t, trace.Report[0].Name, first)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestSQLiteWriter_CloseFlushesPending(t *testing.T) {
	_, trace := twoProcessTrace(t)
	path := filepath.Join(t.TempDir(), "trace.sqlite3")

	w := NewSQLiteWriter(path)
	require.NoError(t, w.Init())
	require.NoError(t, w.WriteRun(trace))
	require.NoError(t, w.Close())

	reopened := NewSQLiteWriter(path)
	require.NoError(t, reopened.Init(), "migrations are idempotent")
	defer reopened.Close()

	var condensations int
	require.NoError(t, reopened.DB().QueryRow(`SELECT COUNT(*) FROM condensations`).Scan(&condensations))
	require.Equal(t, 1, condensations)
}

func TestSQLiteWriter_WriteBeforeInit(t *testing.T) {
	w := NewSQLiteWriter(filepath.Join(t.TempDir(), "x.sqlite3"))
	require.Error(t, w.WriteRun(RunTrace{}))
	require.NoError(t, w.Close())
}
