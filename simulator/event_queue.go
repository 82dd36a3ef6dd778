package simulator

import "strings"

// ReadyQueue is the FIFO queue of processes waiting for the CPU
type ReadyQueue struct {
	processes []*Process
}

// NewReadyQueue creates a queue holding the given processes in arrival order
func NewReadyQueue(processes ...*Process) *ReadyQueue {
	q := &ReadyQueue{
		processes: make([]*Process, 0, len(processes)),
	}
	q.processes = append(q.processes, processes...)
	return q
}

// Push adds a process at the tail
func (q *ReadyQueue) Push(p *Process) {
	q.processes = append(q.processes, p)
}

// Pop removes and returns the head
func (q *ReadyQueue) Pop() *Process {
	if q.IsEmpty() {
		return nil
	}
	p := q.processes[0]
	q.processes[0] = nil
	q.processes = q.processes[1:]
	return p
}

// Peek returns the head without removing it
func (q *ReadyQueue) Peek() *Process {
	if q.IsEmpty() {
		return nil
	}
	return q.processes[0]
}

// IsEmpty returns true if the queue is empty
func (q *ReadyQueue) IsEmpty() bool {
	return len(q.processes) == 0
}

// Len returns the number of waiting processes
func (q *ReadyQueue) Len() int {
	return len(q.processes)
}

// Clear removes all processes from the queue
func (q *ReadyQueue) Clear() {
	q.processes = make([]*Process, 0)
}

// Find returns the waiting process with the given name (case-insensitive)
// Returns nil if no such process is waiting
func (q *ReadyQueue) Find(name string) *Process {
	for _, p := range q.processes {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// Processes returns the waiting processes in queue order
// Note: the slice is a copy but the processes are shared with the queue
func (q *ReadyQueue) Processes() []*Process {
	processes := make([]*Process, len(q.processes))
	copy(processes, q.processes)
	return processes
}
