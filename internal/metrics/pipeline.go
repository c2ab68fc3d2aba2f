// tee-prover-server
// Copyright (C) 2026 zk-passport
//
// This file is part of tee-prover-server.
//
// tee-prover-server is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueueDepth tracks the current occupancy of each pipeline stage queue.
	QueueDepth = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "queue_depth",
			Help:      "Number of jobs currently queued per pipeline stage",
		},
		[]string{"stage"}, // file, witness, proof
	)

	// StageDuration tracks how long each stage takes to run a single job.
	StageDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of a single pipeline stage invocation",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"stage"},
	)

	// StageOutcomes tracks per-stage success/failure counts.
	StageOutcomes = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_outcomes_total",
			Help:      "Pipeline stage completions, labeled by stage and outcome",
		},
		[]string{"stage", "outcome"}, // outcome: success, fail
	)

	// RequestsInFlight tracks requests that have been accepted but have not
	// yet reached a terminal status.
	RequestsInFlight = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "requests_in_flight",
			Help:      "Number of proof requests currently in the pipeline",
		},
	)

	// RPCRequests tracks calls received on the JSON-RPC surface.
	RPCRequests = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "JSON-RPC calls received, labeled by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	// RPCDuration tracks JSON-RPC handler latency.
	RPCDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "JSON-RPC handler latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
