package tracing

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	_ "modernc.org/sqlite"
)

// SQLiteWriter stores runs in a SQLite database. Runs are buffered and
// inserted one transaction per batch.
type SQLiteWriter struct {
	db   *sql.DB
	path string

	pending   []RunTrace
	batchSize int
}

// NewSQLiteWriter creates a SQLiteWriter. An empty path picks a unique file name.
func NewSQLiteWriter(path string) *SQLiteWriter {
	if path == "" {
		path = "memsched_trace_" + xid.New().String() + ".sqlite3"
	}
	return &SQLiteWriter{path: path, batchSize: 16}
}

// Path returns the database file
func (w *SQLiteWriter) Path() string {
	return w.path
}

// DB exposes the connection for queries over the exported runs
func (w *SQLiteWriter) DB() *sql.DB {
	return w.db
}

// Init opens the database and migrates its schema
func (w *SQLiteWriter) Init() error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "create db directory")
		}
	}

	db, err := sql.Open("sqlite", w.path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return errors.Wrap(err, "open db")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	w.db = db
	if err := w.migrate(); err != nil {
		db.Close()
		w.db = nil
		return errors.Wrap(err, "migrate")
	}
	return nil
}

func (w *SQLiteWriter) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		quantum INTEGER NOT NULL,
		partition_prefix TEXT NOT NULL,
		logical_cycles INTEGER NOT NULL,
		replay_rounds INTEGER NOT NULL,
		partitions_created INTEGER NOT NULL,
		relocations INTEGER NOT NULL,
		diagnostics INTEGER NOT NULL,
		free_capacity INTEGER NOT NULL,
		total_capacity INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS logs (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		stage TEXT NOT NULL,
		process TEXT,
		original_time INTEGER,
		remaining_time INTEGER,
		process_size INTEGER,
		status TEXT,
		cycle INTEGER,
		partition_name TEXT,
		partition_size INTEGER,
		initial_limit INTEGER,
		final_limit INTEGER,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS condensations (
		run_id TEXT NOT NULL,
		id TEXT NOT NULL,
		removed TEXT NOT NULL,
		removed_size INTEGER NOT NULL,
		target TEXT NOT NULL,
		target_size INTEGER NOT NULL,
		PRIMARY KEY (run_id, id),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS compactions (
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		process TEXT NOT NULL,
		partition_name TEXT NOT NULL,
		reason TEXT NOT NULL,
		PRIMARY KEY (run_id, name),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS partition_report (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		size INTEGER NOT NULL,
		processes TEXT NOT NULL,
		total_time INTEGER NOT NULL,
		PRIMARY KEY (run_id, position),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_logs_stage ON logs(run_id, stage);
	CREATE INDEX IF NOT EXISTS idx_logs_partition ON logs(run_id, partition_name);
	`

	_, err := w.db.Exec(schema)
	return err
}

// WriteRun buffers a run, flushing once the batch is full
func (w *SQLiteWriter) WriteRun(trace RunTrace) error {
	if w.db == nil {
		return errors.New("sqlite writer is not initialised")
	}
	w.pending = append(w.pending, trace)
	if len(w.pending) >= w.batchSize {
		return w.Flush()
	}
	return nil
}

// Flush inserts every buffered run in a single transaction
func (w *SQLiteWriter) Flush() error {
	if len(w.pending) == 0 || w.db == nil {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	stmts, err := prepare(tx)
	if err != nil {
		return err
	}
	defer stmts.close()

	now := time.Now().UTC()
	for _, trace := range w.pending {
		if err := stmts.insert(trace, now); err != nil {
			return errors.Wrapf(err, "insert run %s", trace.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	w.pending = nil
	return nil
}

// Close flushes pending runs and closes the database
func (w *SQLiteWriter) Close() error {
	if w.db == nil {
		return nil
	}
	flushErr := w.Flush()
	closeErr := w.db.Close()
	w.db = nil
	if flushErr != nil {
		return flushErr
	}
	return errors.Wrap(closeErr, "close db")
}

type statements struct {
	run, log, condensation, compaction, report *sql.Stmt
}

func prepare(tx *sql.Tx) (*statements, error) {
	s := &statements{}
	queries := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.run, `INSERT INTO runs (id, quantum, partition_prefix, logical_cycles, replay_rounds,
			partitions_created, relocations, diagnostics, free_capacity, total_capacity, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.log, `INSERT INTO logs (run_id, seq, stage, process, original_time, remaining_time,
			process_size, status, cycle, partition_name, partition_size, initial_limit, final_limit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.condensation, `INSERT INTO condensations (run_id, id, removed, removed_size, target, target_size)
			VALUES (?, ?, ?, ?, ?, ?)`},
		{&s.compaction, `INSERT INTO compactions (run_id, name, size, process, partition_name, reason)
			VALUES (?, ?, ?, ?, ?, ?)`},
		{&s.report, `INSERT INTO partition_report (run_id, position, name, size, processes, total_time)
			VALUES (?, ?, ?, ?, ?, ?)`},
	}

	for _, q := range queries {
		stmt, err := tx.Prepare(q.query)
		if err != nil {
			s.close()
			return nil, errors.Wrap(err, "prepare statement")
		}
		*q.dst = stmt
	}
	return s, nil
}

func (s *statements) insert(trace RunTrace, now time.Time) error {
	m := trace.Metrics
	_, err := s.run.Exec(trace.ID, trace.Config.QuantumTime, trace.Config.PartitionPrefix,
		m.LogicalCycles, m.ReplayRounds, m.PartitionsCreated, m.Relocations, m.Diagnostics,
		m.FreeCapacity, m.TotalCapacity, now)
	if err != nil {
		return err
	}

	for i, l := range trace.Logs {
		_, err := s.log.Exec(trace.ID, i, l.Stage.String(), l.Process.Name,
			l.Process.OriginalTime, l.Process.RemainingTime, l.Process.Size,
			l.Process.Status.String(), l.Process.CycleCount,
			l.Partition.Name, l.Partition.Size, l.Partition.InitialLimit, l.Partition.FinalLimit)
		if err != nil {
			return err
		}
	}

	for _, c := range trace.Condensations {
		if _, err := s.condensation.Exec(trace.ID, c.ID, c.Removed.Name, c.Removed.Size,
			c.Target.Name, c.Target.Size); err != nil {
			return err
		}
	}

	for _, c := range trace.Compactions {
		if _, err := s.compaction.Exec(trace.ID, c.Name, c.Size, c.Process,
			c.Partition.Name, c.Reason()); err != nil {
			return err
		}
	}

	for i, r := range trace.Report {
		if _, err := s.report.Exec(trace.ID, i, r.Name, r.Size, r.ProcessNames, r.TotalTime); err != nil {
			return err
		}
	}
	return nil
}

func (s *statements) close() {
	for _, stmt := range []*sql.Stmt{s.run, s.log, s.condensation, s.compaction, s.report} {
		if stmt != nil {
			stmt.Close()
		}
	}
}
