package simulator

import (
	"fmt"
	"strings"
)

// Simulator is a fixed-partition memory manager combined with a round-robin
// CPU scheduler. It is a PURE simulation engine with NO concurrency
// primitives: Run is a single synchronous call and callers (cmd/server)
// serialise access themselves.
type Simulator struct {
	config SimConfig

	processes   []*Process        // Input processes in arrival order
	declared    []*Partition      // User-declared partitions
	assignments map[string]string // Process name -> partition assigned by the last run

	// State derived by the last run, replaced wholesale by the next one
	partitions    []*Partition
	logs          []Log
	condensations []Condensation
	compactions   []Compaction
	diagnostics   []error
	metrics       *Metrics

	// Event logging callback (optional, for UI/debugging)
	LogEvent func(msg string)
}

// NewSimulator creates a new simulator
func NewSimulator(config SimConfig) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		config:      config,
		processes:   make([]*Process, 0),
		declared:    make([]*Partition, 0),
		assignments: make(map[string]string),
	}
	s.Reset()
	return s, nil
}

// Config returns the current configuration
func (s *Simulator) Config() SimConfig {
	return s.config
}

// UpdateConfig replaces the configuration and discards the last run
func (s *Simulator) UpdateConfig(config SimConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	s.config = config
	s.Reset()
	return nil
}

// ========== Processes ==========

// AddProcess appends a process to the arrival order
func (s *Simulator) AddProcess(name string, time int64, status Status, size int64) error {
	name = strings.TrimSpace(name)
	if err := validateProcess(name, time, size); err != nil {
		return err
	}
	if s.ProcessExists(name) {
		return ErrInvalidInput("process %q already exists", name)
	}
	s.processes = append(s.processes, NewProcess(name, time, status, size))
	return nil
}

// EditProcess updates the process at position, which must be named name
func (s *Simulator) EditProcess(position int, name string, time int64, status Status, size int64) error {
	if position < 0 || position >= len(s.processes) || !strings.EqualFold(s.processes[position].Name, strings.TrimSpace(name)) {
		return ErrNotFound("process", fmt.Sprintf("%s@%d", name, position))
	}
	if err := validateProcess(name, time, size); err != nil {
		return err
	}

	p := s.processes[position]
	p.OriginalTime = time
	p.RemainingTime = time
	p.Status = status
	p.Size = size
	return nil
}

// RemoveProcess deletes a process and forgets it in the partitions of the last run
func (s *Simulator) RemoveProcess(name string) error {
	i := s.processIndex(name)
	if i < 0 {
		return ErrNotFound("process", name)
	}
	removed := s.processes[i]
	s.processes = append(s.processes[:i], s.processes[i+1:]...)

	for _, part := range s.partitions {
		part.removeOccupant(removed.Name)
	}
	delete(s.assignments, strings.ToLower(removed.Name))
	return nil
}

// ProcessExists reports whether a process with this name (case-insensitive) exists
func (s *Simulator) ProcessExists(name string) bool {
	return s.processIndex(name) >= 0
}

// FindProcess returns a copy of the named process
func (s *Simulator) FindProcess(name string) (Process, bool) {
	i := s.processIndex(name)
	if i < 0 {
		return Process{}, false
	}
	return *s.processes[i].clone(), true
}

// Processes returns copies of the input processes in arrival order
func (s *Simulator) Processes() []Process {
	processes := make([]Process, len(s.processes))
	for i, p := range s.processes {
		processes[i] = *p.clone()
	}
	return processes
}

// IsEmpty returns true when there are no processes to simulate
func (s *Simulator) IsEmpty() bool {
	return len(s.processes) == 0
}

func (s *Simulator) processIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, p := range s.processes {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

func validateProcess(name string, time, size int64) error {
	if name == "" {
		return ErrInvalidInput("process name must not be empty")
	}
	if time <= 0 {
		return ErrInvalidInput("process %q: time must be > 0", name)
	}
	if size < 0 {
		return ErrInvalidInput("process %q: size must be >= 0", name)
	}
	return nil
}

// ========== Declared partitions ==========

// AddPartition declares a partition. Declared partitions are reported but the
// engine does not schedule into them.
func (s *Simulator) AddPartition(name string, size int64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidInput("partition name must not be empty")
	}
	if size < 0 {
		return ErrInvalidInput("partition %q: size must be >= 0", name)
	}
	if s.PartitionExists(name) {
		return ErrInvalidInput("partition %q already exists", name)
	}
	s.declared = append(s.declared, NewPartition(name, size))
	return nil
}

// EditPartition changes the capacity of a declared partition
func (s *Simulator) EditPartition(name string, size int64) error {
	i := s.declaredIndex(name)
	if i < 0 {
		return ErrNotFound("partition", name)
	}
	if size < 0 {
		return ErrInvalidInput("partition %q: size must be >= 0", name)
	}
	s.declared[i].Size = size
	s.declared[i].FinalLimit = s.declared[i].InitialLimit + size
	return nil
}

// RemovePartition deletes a declared partition
func (s *Simulator) RemovePartition(name string) error {
	i := s.declaredIndex(name)
	if i < 0 {
		return ErrNotFound("partition", name)
	}
	s.declared = append(s.declared[:i], s.declared[i+1:]...)
	return nil
}

// PartitionExists reports whether a declared partition has this name
func (s *Simulator) PartitionExists(name string) bool {
	return s.declaredIndex(name) >= 0
}

// FindPartition looks the name up among the declared partitions, then among
// the partitions created by the last run
func (s *Simulator) FindPartition(name string) (Partition, bool) {
	if i := s.declaredIndex(name); i >= 0 {
		return *s.declared[i].clone(), true
	}
	name = strings.TrimSpace(name)
	for _, p := range s.partitions {
		if !p.Declared && strings.EqualFold(p.Name, name) {
			return *p.clone(), true
		}
	}
	return Partition{}, false
}

// Partitions returns copies of the declared partitions
func (s *Simulator) Partitions() []Partition {
	partitions := make([]Partition, len(s.declared))
	for i, p := range s.declared {
		partitions[i] = *p.clone()
	}
	return partitions
}

// HasPartitionAssignedProcesses reports whether the last run assigned any
// process to the named partition
func (s *Simulator) HasPartitionAssignedProcesses(name string) bool {
	name = strings.TrimSpace(name)
	for _, partition := range s.assignments {
		if strings.EqualFold(partition, name) {
			return true
		}
	}
	return false
}

func (s *Simulator) declaredIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, p := range s.declared {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// ========== Simulation ==========

// Run simulates the current processes. The logical pass decides where every
// process lives in each round and compacts memory as processes finish; the
// replay pass then re-executes the schedule against those placements and
// emits the stage-by-stage log. Input processes are never mutated.
//
// Inconsistencies met mid-run do not abort it: they are collected in
// Diagnostics() and reported through LogEvent.
func (s *Simulator) Run() error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	r := newRun(s.config, s.declared, s.logEvent)

	processes := make([]*Process, len(s.processes))
	for i, p := range s.processes {
		processes[i] = p.fresh()
	}
	r.assign(processes)
	r.announce(processes)

	r.runLogicalPass(newPassContext(processes, r.emit))

	replay := make([]*Process, len(processes))
	for i, p := range processes {
		replay[i] = replayProcess(p)
	}
	r.runReplayPass(newPassContext(replay, r.emit))

	r.finish()
	s.commit(r, processes)

	s.logEvent("[RUN] %d processes, %d partitions, %d condensations, %d compactions, %d logs",
		len(processes), len(r.partitions), len(r.condensations), len(r.compactions), len(r.logs))
	return nil
}

func (s *Simulator) commit(r *run, processes []*Process) {
	s.partitions = r.partitions
	s.logs = r.logs
	s.condensations = r.condensations
	s.compactions = r.compactions
	s.diagnostics = r.diagnostics
	s.metrics = r.metrics

	s.assignments = make(map[string]string, len(processes))
	for _, p := range processes {
		if len(p.history) > 0 {
			s.assignments[strings.ToLower(p.Name)] = p.history[0]
		}
	}
}

// Reset discards everything derived by the last run. Processes, declared
// partitions and configuration are kept.
func (s *Simulator) Reset() {
	s.partitions = make([]*Partition, 0)
	s.logs = make([]Log, 0)
	s.condensations = make([]Condensation, 0)
	s.compactions = make([]Compaction, 0)
	s.diagnostics = make([]error, 0)
	s.metrics = NewMetrics()
	s.assignments = make(map[string]string)
}

// ClearAll removes every process and declared partition and resets
func (s *Simulator) ClearAll() {
	s.processes = make([]*Process, 0)
	s.declared = make([]*Partition, 0)
	s.Reset()
}

// ClearLogs drops the log stream of the last run
func (s *Simulator) ClearLogs() {
	s.logs = make([]Log, 0)
}

// ========== Queries ==========

// Logs returns the full log stream of the last run
func (s *Simulator) Logs() []Log {
	return append([]Log(nil), s.logs...)
}

// LogsByStage returns the logs taken at stage, in emission order
func (s *Simulator) LogsByStage(stage Stage) []Log {
	logs := make([]Log, 0)
	for _, l := range s.logs {
		if l.Stage == stage {
			logs = append(logs, l)
		}
	}
	return logs
}

// LogsByStageAndPartition returns the logs taken at stage while the process
// used the named partition (case-insensitive)
func (s *Simulator) LogsByStageAndPartition(stage Stage, partition string) []Log {
	partition = strings.TrimSpace(partition)
	logs := make([]Log, 0)
	for _, l := range s.logs {
		if l.Stage == stage && !l.Partition.IsZero() && strings.EqualFold(l.Partition.Name, partition) {
			logs = append(logs, l)
		}
	}
	return logs
}

// Condensations returns the merge events of the last run in creation order
func (s *Simulator) Condensations() []Condensation {
	return append([]Condensation(nil), s.condensations...)
}

// Compactions returns the free-capacity events of the last run in creation order
func (s *Simulator) Compactions() []Compaction {
	return append([]Compaction(nil), s.compactions...)
}

// RunPartitions returns copies of every partition known to the last run:
// declared partitions first, then engine-created ones in creation order
func (s *Simulator) RunPartitions() []Partition {
	partitions := make([]Partition, len(s.partitions))
	for i, p := range s.partitions {
		partitions[i] = *p.clone()
	}
	return partitions
}

// Diagnostics returns the recoverable inconsistencies met by the last run
func (s *Simulator) Diagnostics() []error {
	return append([]error(nil), s.diagnostics...)
}

// Metrics returns the summary of the last run
func (s *Simulator) Metrics() *Metrics {
	m := *s.metrics
	return &m
}

func (s *Simulator) logEvent(format string, args ...interface{}) {
	if s.LogEvent != nil {
		s.LogEvent(fmt.Sprintf(format, args...))
	}
}
