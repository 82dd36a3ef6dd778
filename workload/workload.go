// Package workload loads process and partition definitions from YAML (or JSON)
// files and applies them to a simulator.
package workload

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/miretskiy/memsched/simulator"
)

// PartitionSpec declares a fixed partition.
type PartitionSpec struct {
	Name string `yaml:"name" json:"name"`
	Size int64  `yaml:"size" json:"size"`
}

// ProcessSpec declares a process.
type ProcessSpec struct {
	Name    string `yaml:"name" json:"name"`
	Time    int64  `yaml:"time" json:"time"`
	Size    int64  `yaml:"size" json:"size"`
	Blocked bool   `yaml:"blocked" json:"blocked"`
}

// Workload is the on-disk description of a simulation input.
// A zero Quantum keeps the simulator's configured quantum.
type Workload struct {
	Quantum    int64           `yaml:"quantum" json:"quantum"`
	Partitions []PartitionSpec `yaml:"partitions" json:"partitions"`
	Processes  []ProcessSpec   `yaml:"processes" json:"processes"`
}

// Load reads and validates a workload file.
func Load(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read workload %s", path)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid workload %s", path)
	}
	return w, nil
}

// Parse decodes and validates a workload document.
func Parse(data []byte) (*Workload, error) {
	var w Workload
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "failed to decode workload")
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Validate reports every problem in the workload, not just the first.
func (w *Workload) Validate() error {
	var errs error
	if w.Quantum < 0 {
		errs = multierr.Append(errs, fmt.Errorf("quantum must be >= 0, got %d", w.Quantum))
	}

	seen := make(map[string]bool)
	for i, p := range w.Partitions {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			errs = multierr.Append(errs, fmt.Errorf("partitions[%d]: name is required", i))
		} else if seen[strings.ToLower(name)] {
			errs = multierr.Append(errs, fmt.Errorf("partitions[%d]: duplicate partition %q", i, name))
		}
		seen[strings.ToLower(name)] = true
		if p.Size < 0 {
			errs = multierr.Append(errs, fmt.Errorf("partitions[%d]: size must be >= 0, got %d", i, p.Size))
		}
	}

	seen = make(map[string]bool)
	for i, p := range w.Processes {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			errs = multierr.Append(errs, fmt.Errorf("processes[%d]: name is required", i))
		} else if seen[strings.ToLower(name)] {
			errs = multierr.Append(errs, fmt.Errorf("processes[%d]: duplicate process %q", i, name))
		}
		seen[strings.ToLower(name)] = true
		if p.Time <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("processes[%d]: time must be > 0, got %d", i, p.Time))
		}
		if p.Size < 0 {
			errs = multierr.Append(errs, fmt.Errorf("processes[%d]: size must be >= 0, got %d", i, p.Size))
		}
	}
	return errs
}

// Apply loads the workload into sim. The simulator's existing processes,
// partitions and results are discarded.
func (w *Workload) Apply(sim *simulator.Simulator) error {
	if w.Quantum > 0 {
		config := sim.Config()
		config.QuantumTime = w.Quantum
		if err := sim.UpdateConfig(config); err != nil {
			return errors.Wrap(err, "failed to apply quantum")
		}
	}
	sim.ClearAll()

	for _, p := range w.Partitions {
		if err := sim.AddPartition(strings.TrimSpace(p.Name), p.Size); err != nil {
			return errors.Wrapf(err, "failed to add partition %s", p.Name)
		}
	}
	for _, p := range w.Processes {
		status := simulator.StatusNotBlocked
		if p.Blocked {
			status = simulator.StatusBlocked
		}
		if err := sim.AddProcess(strings.TrimSpace(p.Name), p.Time, status, p.Size); err != nil {
			return errors.Wrapf(err, "failed to add process %s", p.Name)
		}
	}
	return nil
}

// FromSimulator captures the simulator's current inputs as a workload.
func FromSimulator(sim *simulator.Simulator) *Workload {
	w := &Workload{Quantum: sim.Config().QuantumTime}
	for _, p := range sim.Partitions() {
		w.Partitions = append(w.Partitions, PartitionSpec{Name: p.Name, Size: p.Size})
	}
	for _, p := range sim.Processes() {
		w.Processes = append(w.Processes, ProcessSpec{
			Name:    p.Name,
			Time:    p.OriginalTime,
			Size:    p.Size,
			Blocked: p.IsBlocked(),
		})
	}
	return w
}

// Marshal encodes the workload as YAML.
func (w *Workload) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(w)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode workload")
	}
	return data, nil
}
