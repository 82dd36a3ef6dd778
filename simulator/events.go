package simulator

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage represents the scheduling stage a log entry was taken at
type Stage int

const (
	StagePartitions Stage = iota
	StageInitial
	StageReady
	StageDispatch
	StageInExecution
	StageExpired
	StageBlockTransition
	StageBlocked
	StageWakeup
	StageFinished
)

// AllStages lists every stage in lifecycle order
var AllStages = []Stage{
	StagePartitions,
	StageInitial,
	StageReady,
	StageDispatch,
	StageInExecution,
	StageExpired,
	StageBlockTransition,
	StageBlocked,
	StageWakeup,
	StageFinished,
}

func (s Stage) String() string {
	switch s {
	case StagePartitions:
		return "partitions"
	case StageInitial:
		return "initial"
	case StageReady:
		return "ready"
	case StageDispatch:
		return "dispatch"
	case StageInExecution:
		return "in_execution"
	case StageExpired:
		return "expired"
	case StageBlockTransition:
		return "block_transition"
	case StageBlocked:
		return "blocked"
	case StageWakeup:
		return "wakeup"
	case StageFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ParseStage parses a string into Stage
func ParseStage(s string) (Stage, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, stage := range AllStages {
		if stage.String() == want {
			return stage, nil
		}
	}
	return StagePartitions, fmt.Errorf("invalid stage: %s", s)
}

// MarshalJSON implements json.Marshaler for Stage
func (s Stage) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Stage
func (s *Stage) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseStage(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Log is an immutable snapshot of a process at one stage transition.
// PARTITIONS logs describe a partition and carry an anonymous process whose
// size equals the partition size.
type Log struct {
	Stage     Stage           `json:"stage"`
	Process   ProcessSnapshot `json:"process"`
	Partition PartitionRef    `json:"partition"`
}

func (l Log) String() string {
	if l.Stage == StagePartitions {
		return fmt.Sprintf("%s(%s, size=%d, [%d,%d))", l.Stage, l.Partition.Name, l.Partition.Size,
			l.Partition.InitialLimit, l.Partition.FinalLimit)
	}
	return fmt.Sprintf("%s(%s, remaining=%d, partition=%s)", l.Stage, l.Process.Name,
		l.Process.RemainingTime, l.Partition.Name)
}
