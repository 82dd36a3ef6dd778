package main

import (
	"github.com/miretskiy/memsched/simulator"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Prometheus metrics (gauges of the most recent run)
	promMetrics = struct {
		logicalCycles     prometheus.Gauge
		replayRounds      prometheus.Gauge
		partitionsCreated prometheus.Gauge
		relocations       prometheus.Gauge
		condensations     prometheus.Gauge
		compactions       prometheus.Gauge
		diagnostics       prometheus.Gauge
		freeCapacity      prometheus.Gauge
		freePercent       prometheus.Gauge
		runs              prometheus.Counter
	}{
		logicalCycles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_logical_cycles",
			Help: "Quanta executed by the logical pass",
		}),
		replayRounds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_replay_rounds",
			Help: "Rounds started by the replay pass",
		}),
		partitionsCreated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_partitions_created",
			Help: "Partitions created by assignment and compaction",
		}),
		relocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_relocations",
			Help: "Partitions moved to a lower address during compaction",
		}),
		condensations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_condensations",
			Help: "Freed partitions merged into the tail",
		}),
		compactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_compactions",
			Help: "Compaction records",
		}),
		diagnostics: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_diagnostics",
			Help: "Inconsistencies met during the run",
		}),
		freeCapacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_free_capacity",
			Help: "Capacity of free live partitions at the end of the run",
		}),
		freePercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memsched_free_capacity_percent",
			Help: "Free share of the address space at the end of the run",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "memsched_runs_total",
			Help: "Simulations run",
		}),
	}
)

func initPrometheusMetrics() {
	prometheus.MustRegister(
		promMetrics.logicalCycles,
		promMetrics.replayRounds,
		promMetrics.partitionsCreated,
		promMetrics.relocations,
		promMetrics.condensations,
		promMetrics.compactions,
		promMetrics.diagnostics,
		promMetrics.freeCapacity,
		promMetrics.freePercent,
		promMetrics.runs,
	)
}

func updatePrometheusMetrics(metrics *simulator.Metrics) {
	promMetrics.logicalCycles.Set(float64(metrics.LogicalCycles))
	promMetrics.replayRounds.Set(float64(metrics.ReplayRounds))
	promMetrics.partitionsCreated.Set(float64(metrics.PartitionsCreated))
	promMetrics.relocations.Set(float64(metrics.Relocations))
	promMetrics.condensations.Set(float64(metrics.Condensations))
	promMetrics.compactions.Set(float64(metrics.Compactions))
	promMetrics.diagnostics.Set(float64(metrics.Diagnostics))
	promMetrics.freeCapacity.Set(float64(metrics.FreeCapacity))
	promMetrics.freePercent.Set(metrics.FreeCapacityPercent())
	promMetrics.runs.Inc()
}
