package tracing

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// CSVWriter writes each run as four CSV files sharing a base path:
// <base>_logs.csv, <base>_compactions.csv, <base>_condensations.csv and
// <base>_report.csv. Rows of every run are appended, tagged with the run ID.
type CSVWriter struct {
	base  string
	files map[string]*os.File
	out   map[string]*csv.Writer
}

var csvHeaders = map[string][]string{
	"logs": {"run_id", "seq", "stage", "process", "original_time", "remaining_time",
		"process_size", "status", "cycle", "partition", "partition_size", "initial_limit", "final_limit"},
	"compactions":   {"run_id", "name", "size", "process", "partition", "initial_limit", "final_limit", "reason"},
	"condensations": {"run_id", "id", "removed", "removed_size", "target", "target_size", "size"},
	"report":        {"run_id", "name", "size", "processes", "total_time"},
}

// NewCSVWriter creates a CSVWriter. An empty base picks a unique name.
func NewCSVWriter(base string) *CSVWriter {
	if base == "" {
		base = "memsched_trace_" + xid.New().String()
	}
	return &CSVWriter{base: base}
}

// Base returns the path prefix of the generated files
func (w *CSVWriter) Base() string {
	return w.base
}

// Path returns the file holding the given table
func (w *CSVWriter) Path(table string) string {
	return w.base + "_" + table + ".csv"
}

// Init creates the files and writes their headers. Existing files are
// overwritten.
func (w *CSVWriter) Init() error {
	w.files = make(map[string]*os.File, len(csvHeaders))
	w.out = make(map[string]*csv.Writer, len(csvHeaders))
	for table, header := range csvHeaders {
		f, err := os.Create(w.Path(table))
		if err != nil {
			w.Close()
			return errors.Wrapf(err, "failed to create %s", w.Path(table))
		}
		w.files[table] = f
		w.out[table] = csv.NewWriter(f)
		if err := w.out[table].Write(header); err != nil {
			w.Close()
			return errors.Wrapf(err, "failed to write %s header", table)
		}
	}
	return nil
}

// WriteRun appends the rows of one run
func (w *CSVWriter) WriteRun(trace RunTrace) error {
	if w.out == nil {
		return errors.New("csv writer is not initialised")
	}

	for i, l := range trace.Logs {
		err := w.out["logs"].Write([]string{
			trace.ID,
			strconv.Itoa(i),
			l.Stage.String(),
			l.Process.Name,
			i64(l.Process.OriginalTime),
			i64(l.Process.RemainingTime),
			i64(l.Process.Size),
			l.Process.Status.String(),
			strconv.Itoa(l.Process.CycleCount),
			l.Partition.Name,
			i64(l.Partition.Size),
			i64(l.Partition.InitialLimit),
			i64(l.Partition.FinalLimit),
		})
		if err != nil {
			return errors.Wrap(err, "failed to write log row")
		}
	}

	for _, c := range trace.Compactions {
		err := w.out["compactions"].Write([]string{
			trace.ID, c.Name, i64(c.Size), c.Process, c.Partition.Name,
			i64(c.Partition.InitialLimit), i64(c.Partition.FinalLimit), c.Reason(),
		})
		if err != nil {
			return errors.Wrap(err, "failed to write compaction row")
		}
	}

	for _, c := range trace.Condensations {
		err := w.out["condensations"].Write([]string{
			trace.ID, c.ID, c.Removed.Name, i64(c.Removed.Size),
			c.Target.Name, i64(c.Target.Size), i64(c.Size()),
		})
		if err != nil {
			return errors.Wrap(err, "failed to write condensation row")
		}
	}

	for _, r := range trace.Report {
		err := w.out["report"].Write([]string{trace.ID, r.Name, i64(r.Size), r.ProcessNames, i64(r.TotalTime)})
		if err != nil {
			return errors.Wrap(err, "failed to write report row")
		}
	}
	return nil
}

// Flush pushes buffered rows to disk
func (w *CSVWriter) Flush() error {
	for table, out := range w.out {
		out.Flush()
		if err := out.Error(); err != nil {
			return errors.Wrapf(err, "failed to flush %s", table)
		}
	}
	return nil
}

// Close flushes and closes every file. It is safe to call more than once.
func (w *CSVWriter) Close() error {
	var firstErr error
	if err := w.Flush(); err != nil {
		firstErr = err
	}
	for table, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "failed to close %s", table)
		}
	}
	w.files = nil
	w.out = nil
	return firstErr
}

func i64(v int64) string {
	return strconv.FormatInt(v, 10)
}
