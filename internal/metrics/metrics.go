// Package metrics implements Prometheus metrics for the impairment
// pipeline, mirroring the per-stage statistics registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CapturedPacketsTotal counts frames read off the wire.
	CapturedPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fumble_captured_packets_total",
			Help: "Total number of packets captured",
		},
		[]string{"interface"},
	)

	// InjectedPacketsTotal counts frames reinjected after the pipeline.
	InjectedPacketsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fumble_injected_packets_total",
			Help: "Total number of packets reinjected after impairment",
		},
		[]string{"interface"},
	)

	// StageDroppedTotal counts packets that a stage removed from the
	// stream (Drop, Throttle-drop-mode).
	StageDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fumble_stage_dropped_packets_total",
			Help: "Total number of packets dropped by a pipeline stage",
		},
		[]string{"stage"},
	)

	// StageEmittedTotal counts packets a stage handed to the next stage,
	// including duplicates emitted.
	StageEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fumble_stage_emitted_packets_total",
			Help: "Total number of packets emitted by a pipeline stage",
		},
		[]string{"stage"},
	)

	// StageBufferedRecords tracks records a stage currently holds
	// (Delay's queue, Reorder's heap, Bandwidth's pending buffer).
	StageBufferedRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fumble_stage_buffered_records",
			Help: "Number of records currently buffered within a stage",
		},
		[]string{"stage"},
	)

	// StageRate tracks a stage's EWMA-smoothed rate (drop rate, reorder
	// rate, duplicate multiplier, bandwidth throughput).
	StageRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fumble_stage_rate",
			Help: "EWMA-smoothed rate reported by a pipeline stage",
		},
		[]string{"stage", "kind"},
	)

	// PipelineBatchLatencySeconds measures wall-clock time to run one
	// batch of records through the full stage sequence.
	PipelineBatchLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fumble_pipeline_batch_latency_seconds",
			Help:    "Latency of one pipeline batch pass through all stages",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 20),
		},
	)

	// ChecksumInvalidTotal counts packets whose recomputed checksum did
	// not validate after tampering.
	ChecksumInvalidTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fumble_checksum_invalid_total",
			Help: "Total number of packets with an invalid checksum after tamper",
		},
		[]string{"protocol"},
	)
)
