// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package defaults

import "time"

// Reconciliation loop timing.
const (
	// CheckInterval is the default pause between reconciliation cycles.
	CheckInterval = 60 * time.Second

	// RetryInterval is the default spacing between service start retries
	// within one cycle-window.
	RetryInterval = 10 * time.Minute

	// RetryWindow bounds the total elapsed retry time for one service within
	// a cycle-window before it is marked degraded.
	RetryWindow = 30 * time.Minute

	// MaxStartAttempts is the default number of start attempts per
	// cycle-window before a service is marked degraded.
	MaxStartAttempts = 3
)

// Cluster manager (BCM) REST client timeouts.
const (
	// APIRequestTimeout is the total timeout for one device-listing request
	// against a single head node.
	APIRequestTimeout = 15 * time.Second

	// APIConnectTimeout is the timeout for establishing a TCP connection to
	// a head node.
	APIConnectTimeout = 5 * time.Second

	// APITLSHandshakeTimeout is the timeout for the TLS handshake.
	APITLSHandshakeTimeout = 5 * time.Second

	// APIResponseHeaderTimeout is the timeout for reading response headers.
	APIResponseHeaderTimeout = 10 * time.Second
)

// Process supervisor timeouts.
const (
	// SupervisorOpTimeout bounds a single systemd start or stop operation,
	// including waiting for the queued job result.
	SupervisorOpTimeout = 30 * time.Second

	// StartVerifyDelay is how long to wait after a successful start command
	// before confirming the unit is actually active.
	StartVerifyDelay = 2 * time.Second
)

// Metrics server timeouts.
const (
	// MetricsReadHeaderTimeout prevents slow header attacks on the optional
	// metrics listener.
	MetricsReadHeaderTimeout = 5 * time.Second

	// MetricsShutdownTimeout is the maximum duration for graceful shutdown
	// of the metrics listener.
	MetricsShutdownTimeout = 10 * time.Second
)

// AuthWarnInterval throttles repeated credential-failure warnings, one per
// interval, so a misconfigured certificate does not flood the journal at
// polling frequency.
const AuthWarnInterval = 10 * time.Minute
