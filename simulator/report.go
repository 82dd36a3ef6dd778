package simulator

import "sort"

// PartitionFinalizationInfo summarises how a partition was used during a run
type PartitionFinalizationInfo struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ProcessNames string `json:"processNames"`
	TotalTime    int64  `json:"totalTime"`
}

// Report returns one entry per partition of the last run, ascending by total
// execution time. Ties keep creation order.
func (s *Simulator) Report() []PartitionFinalizationInfo {
	report := make([]PartitionFinalizationInfo, 0, len(s.partitions))
	for _, p := range s.partitions {
		report = append(report, PartitionFinalizationInfo{
			Name:         p.Name,
			Size:         p.Size,
			ProcessNames: p.ProcessHistoryString(),
			TotalTime:    p.TotalExecutionTime(),
		})
	}

	sort.SliceStable(report, func(i, j int) bool {
		return report[i].TotalTime < report[j].TotalTime
	})
	return report
}
