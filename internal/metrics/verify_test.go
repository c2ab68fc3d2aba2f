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
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistration(t *testing.T) {
	if SessionsCreated == nil {
		t.Error("SessionsCreated metric is nil")
	}
	if SessionsActive == nil {
		t.Error("SessionsActive metric is nil")
	}
	if SessionDuration == nil {
		t.Error("SessionDuration metric is nil")
	}
	if QueueDepth == nil {
		t.Error("QueueDepth metric is nil")
	}
	if StageDuration == nil {
		t.Error("StageDuration metric is nil")
	}
	if StageOutcomes == nil {
		t.Error("StageOutcomes metric is nil")
	}
	if RequestsInFlight == nil {
		t.Error("RequestsInFlight metric is nil")
	}
	if RPCRequests == nil {
		t.Error("RPCRequests metric is nil")
	}
	if RPCDuration == nil {
		t.Error("RPCDuration metric is nil")
	}
	if CryptoOperations == nil {
		t.Error("CryptoOperations metric is nil")
	}
}

func TestMetricsIncrement(t *testing.T) {
	SessionsCreated.WithLabelValues("success").Inc()
	SessionsActive.Inc()
	SessionDuration.WithLabelValues("derive").Observe(0.001)

	QueueDepth.WithLabelValues("file").Set(3)
	StageDuration.WithLabelValues("witness").Observe(1.5)
	StageOutcomes.WithLabelValues("proof", "success").Inc()
	RequestsInFlight.Inc()

	RPCRequests.WithLabelValues("hello", "success").Inc()
	RPCDuration.WithLabelValues("hello").Observe(0.01)

	CryptoOperations.WithLabelValues("sign", "secp256k1").Inc()
	CryptoErrors.WithLabelValues("verify").Inc()
	CryptoOperationDuration.WithLabelValues("sign", "secp256k1").Observe(0.0005)

	if count := testutil.CollectAndCount(SessionsCreated); count == 0 {
		t.Error("SessionsCreated has no metrics collected")
	}
	if count := testutil.CollectAndCount(StageOutcomes); count == 0 {
		t.Error("StageOutcomes has no metrics collected")
	}
	if count := testutil.CollectAndCount(CryptoOperations); count == 0 {
		t.Error("CryptoOperations has no metrics collected")
	}
}
