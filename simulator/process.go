package simulator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status represents whether a process blocks for I/O after each round
type Status int

const (
	StatusNotBlocked Status = iota
	StatusBlocked
)

// String returns the string representation of Status
func (st Status) String() string {
	switch st {
	case StatusNotBlocked:
		return "not_blocked"
	case StatusBlocked:
		return "blocked"
	default:
		return "not_blocked"
	}
}

// ParseStatus parses a string into Status
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not_blocked", "":
		return StatusNotBlocked, nil
	case "blocked":
		return StatusBlocked, nil
	default:
		return StatusNotBlocked, fmt.Errorf("invalid status: %s (must be 'blocked' or 'not_blocked')", s)
	}
}

// MarshalJSON implements json.Marshaler for Status
func (st Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(st.String())
}

// UnmarshalJSON implements json.Unmarshaler for Status
func (st *Status) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseStatus(s)
	if err != nil {
		return err
	}
	*st = parsed
	return nil
}

// Process is a schedulable unit.
// The partition relations are keys (partition names) into the run's partition
// set, never owning references.
type Process struct {
	Name          string `json:"name"`
	OriginalTime  int64  `json:"originalTime"`
	RemainingTime int64  `json:"remainingTime"`
	Size          int64  `json:"size"`
	Status        Status `json:"status"`

	partition  string   // Current partition
	history    []string // Partitions visited: initial assignment, then every relocation
	rounds     []string // Partition occupied in each logical round
	cycleCount int
}

// NewProcess creates a process with its timer set to the full CPU demand
func NewProcess(name string, time int64, status Status, size int64) *Process {
	return &Process{
		Name:          strings.TrimSpace(name),
		OriginalTime:  time,
		RemainingTime: time,
		Size:          size,
		Status:        status,
	}
}

// IsBlocked returns true if the process blocks after each unfinished round
func (p *Process) IsBlocked() bool { return p.Status == StatusBlocked }

// IsFinished returns true once the process has consumed its CPU demand
func (p *Process) IsFinished() bool { return p.RemainingTime <= 0 }

// Partition returns the name of the partition currently hosting the process
func (p *Process) Partition() string { return p.partition }

// CycleCount returns the number of rounds the process has completed
func (p *Process) CycleCount() int { return p.cycleCount }

// PartitionHistory returns the partitions the process has been placed in, oldest first
func (p *Process) PartitionHistory() []string {
	return append([]string(nil), p.history...)
}

// RoundPartitions returns the partition recorded for each logical round
func (p *Process) RoundPartitions() []string {
	return append([]string(nil), p.rounds...)
}

// subtractTime charges CPU time against the process timer
func (p *Process) subtractTime(t int64) {
	p.RemainingTime -= t
}

func (p *Process) incrementCycle() {
	p.cycleCount++
}

// moveTo links the process to a partition and records the visit
func (p *Process) moveTo(partition string) {
	p.partition = partition
	p.history = append(p.history, partition)
}

func (p *Process) recordRound() {
	p.rounds = append(p.rounds, p.partition)
}

// clone returns a copy with independent history slices
func (p *Process) clone() *Process {
	c := *p
	c.history = append([]string(nil), p.history...)
	c.rounds = append([]string(nil), p.rounds...)
	return &c
}

// fresh returns a copy of the user-facing definition with all run state cleared
func (p *Process) fresh() *Process {
	return NewProcess(p.Name, p.OriginalTime, p.Status, p.Size)
}

// snapshot captures the process as it is at this instant
func (p *Process) snapshot() ProcessSnapshot {
	return ProcessSnapshot{
		Name:          p.Name,
		OriginalTime:  p.OriginalTime,
		RemainingTime: p.RemainingTime,
		Size:          p.Size,
		Status:        p.Status,
		Partition:     p.partition,
		CycleCount:    p.cycleCount,
	}
}

// ProcessSnapshot is an immutable copy of a process taken when a log is emitted
type ProcessSnapshot struct {
	Name          string `json:"name"`
	OriginalTime  int64  `json:"originalTime"`
	RemainingTime int64  `json:"remainingTime"`
	Size          int64  `json:"size"`
	Status        Status `json:"status"`
	Partition     string `json:"partition"`
	CycleCount    int    `json:"cycleCount"`
}
