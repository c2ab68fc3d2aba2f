// tee-prover-server
// Copyright (C) 2026 zk-passport
//
// This file is part of tee-prover-server.
//
// tee-prover-server is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// tee-prover-server is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.

// Package metrics exposes the Prometheus instrumentation surface for the
// session store, pipeline stages and RPC layer.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "prover"

// Registry is the registry all service metrics are registered against. A
// dedicated registry (rather than prometheus.DefaultRegisterer) keeps test
// processes from panicking on duplicate registration across packages.
var Registry = prometheus.NewRegistry()
