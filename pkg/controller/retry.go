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

package controller

import (
	"time"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/defaults"
)

// RetryPolicy bounds service start attempts within one cycle-window.
// It is an explicit value object rather than ad hoc loop counters so the
// controller's behavior is inspectable and testable in isolation.
type RetryPolicy struct {
	// MaxAttempts is the number of start attempts before a service is
	// marked degraded.
	MaxAttempts int

	// Backoff is the delay schedule between attempts: Backoff[n] is the
	// wait after the (n+1)th failure. The last entry repeats if there are
	// more attempts than entries.
	Backoff []time.Duration

	// Window bounds the total elapsed retry time for a service. Once the
	// window has passed since the first attempt, the service is degraded
	// regardless of remaining attempts; once degraded, the next window
	// re-arms it.
	Window time.Duration
}

// DefaultRetryPolicy derives a policy from the configured retry ceiling:
// retry spacing increases up to the ceiling (half the ceiling after the
// first failure, the full ceiling thereafter), bounded by window.
func DefaultRetryPolicy(ceiling, window time.Duration, maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     []time.Duration{ceiling / 2, ceiling},
		Window:      window,
	}
}

// StandardRetryPolicy is the built-in default: 3 attempts across a 30 minute
// window, spaced 5 then 10 minutes apart.
func StandardRetryPolicy() RetryPolicy {
	return DefaultRetryPolicy(defaults.RetryInterval, defaults.RetryWindow, defaults.MaxStartAttempts)
}

// delayAfter returns the wait before the next attempt given the number of
// failures so far (1-based).
func (p RetryPolicy) delayAfter(failures int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	idx := failures - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.Backoff) {
		idx = len(p.Backoff) - 1
	}
	return p.Backoff[idx]
}
