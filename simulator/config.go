package simulator

import "strings"

// SimConfig holds all simulation parameters
type SimConfig struct {
	QuantumTime     int64  `json:"quantumTime" yaml:"quantumTime"`         // Maximum CPU time granted per scheduling round
	PartitionPrefix string `json:"partitionPrefix" yaml:"partitionPrefix"` // Prefix of engine-created partition names (default "Part")
}

// DefaultConfig returns the defaults used by the CLI and the server
func DefaultConfig() SimConfig {
	return SimConfig{
		QuantumTime:     5,      // 5 time units per round
		PartitionPrefix: "Part", // Part1, Part2, ...
	}
}

// Validate checks if configuration values are reasonable
func (c *SimConfig) Validate() error {
	if c.QuantumTime <= 0 {
		return ErrInvalidConfig("quantumTime must be > 0")
	}
	if strings.TrimSpace(c.PartitionPrefix) == "" {
		return ErrInvalidConfig("partitionPrefix must not be empty")
	}
	return nil
}
