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

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolemond_reconciliation_cycles_total",
			Help: "Reconciliation cycles by outcome",
		},
		[]string{"outcome"}, // success, fetch_error, partial, panic
	)

	cycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rolemond_reconciliation_cycle_duration_seconds",
			Help:    "Time taken by one reconciliation cycle",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60},
		},
	)

	targetSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rolemond_target_file_syncs_total",
			Help: "Discovery file synchronizations by outcome",
		},
		[]string{"outcome"}, // success or error
	)

	roleAssigned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rolemond_role_assigned",
			Help: "1 when the workload role is assigned to this host, 0 otherwise",
		},
	)
)
