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
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/controller"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/defaults"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/errors"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/exporter"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/rolesource"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/state"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/targets"
)

// phase is the loop's position within a cycle.
type phase int

const (
	phaseIdle phase = iota
	phaseFetching
	phaseReconciling
	phaseSleeping
)

func (p phase) String() string {
	switch p {
	case phaseFetching:
		return "fetching"
	case phaseReconciling:
		return "reconciling"
	case phaseSleeping:
		return "sleeping"
	default:
		return "idle"
	}
}

// Status is a point-in-time view of the loop, served by the introspection
// endpoints.
type Status struct {
	Phase     string    `json:"phase"`
	Hostname  string    `json:"hostname,omitempty"`
	Role      string    `json:"role,omitempty"`
	RoleKnown bool      `json:"role_known"`
	LastCycle time.Time `json:"last_cycle,omitzero"`
	Cycles    uint64    `json:"cycles"`
}

// Monitor is the per-node reconciliation loop.
type Monitor struct {
	source      rolesource.Source
	controller  *controller.Controller
	targets     *targets.Manager
	store       *state.Store
	descriptors []exporter.Descriptor
	interval    time.Duration

	// hostname is resolved every cycle, not cached: hosts get re-imaged
	// under new names.
	hostname func() (string, error)

	// authWarn throttles credential-failure warnings so a bad certificate
	// does not flood the journal at polling frequency.
	authWarn *rate.Limiter

	// mu guards status, which is read concurrently by the introspection
	// server while the loop runs.
	mu     sync.RWMutex
	status Status

	// current holds the state loaded for the active hostname.
	current *state.NodeState
}

// New assembles a Monitor from its collaborators.
func New(source rolesource.Source, ctrl *controller.Controller, tm *targets.Manager,
	store *state.Store, descriptors []exporter.Descriptor, interval time.Duration) *Monitor {
	return &Monitor{
		source:      source,
		controller:  ctrl,
		targets:     tm,
		store:       store,
		descriptors: descriptors,
		interval:    interval,
		hostname:    os.Hostname,
		authWarn:    rate.NewLimiter(rate.Every(defaults.AuthWarnInterval), 1),
		status:      Status{Phase: phaseIdle.String()},
	}
}

// Run executes reconciliation cycles until ctx is canceled. The first cycle
// starts immediately; cancellation is honored between cycle steps, never
// mid-I/O, and the loop itself never returns an error: every failure mode
// is contained within its cycle.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("starting reconciliation loop", "interval", m.interval)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.cycle(ctx)

		m.setPhase(phaseSleeping)
		select {
		case <-ctx.Done():
			slog.Info("shutdown requested, stopping reconciliation loop")
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) setPhase(p phase) {
	m.mu.Lock()
	m.status.Phase = p.String()
	m.mu.Unlock()
	slog.Debug("phase transition", "phase", p.String())
}

// Status returns a copy of the loop's current status. Safe for concurrent
// use with Run.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// cycle runs one reconciliation pass. It never lets an error or panic
// escape: the loop must always reach sleeping.
func (m *Monitor) cycle(ctx context.Context) {
	start := time.Now()
	cycleID := uuid.New().String()
	log := slog.With("cycle_id", cycleID)

	defer func() {
		cycleDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			cyclesTotal.WithLabelValues("panic").Inc()
			log.Error("panic during reconciliation cycle", "panic", r)
		}
	}()

	m.setPhase(phaseFetching)

	hostname, err := m.hostname()
	if err != nil {
		cyclesTotal.WithLabelValues("fetch_error").Inc()
		log.Error("hostname lookup failed", "error", err)
		return
	}
	if m.current == nil || m.current.Hostname != hostname {
		m.current = m.store.Load(hostname)
	}

	role, err := m.source.FetchRole(ctx, hostname)
	if err != nil {
		cyclesTotal.WithLabelValues("fetch_error").Inc()
		m.logFetchFailure(log, hostname, err)
		return
	}

	if m.current.RoleKnown && m.current.LastKnownRole != role {
		log.Info("role change detected",
			"hostname", hostname,
			"previous", m.current.LastKnownRole.String(),
			"role", role.String(),
		)
	}
	if role == rolesource.RolePresent {
		roleAssigned.Set(1)
	} else {
		roleAssigned.Set(0)
	}

	m.setPhase(phaseReconciling)

	// Services and the discovery file are independent corrective actions:
	// both always run, neither gates the other.
	m.controller.Reconcile(ctx, role, m.descriptors, m.current)

	outcome := "success"
	hash, err := m.targets.Sync(role, hostname, m.descriptors, m.current.LastTargetFileHash)
	if err != nil {
		outcome = "partial"
		targetSyncs.WithLabelValues("error").Inc()
		log.Warn("discovery file sync failed, will retry next cycle",
			"role", role.String(),
			"error", err,
		)
	} else {
		targetSyncs.WithLabelValues("success").Inc()
		m.current.LastTargetFileHash = hash
	}

	m.current.LastKnownRole = role
	m.current.RoleKnown = true
	m.current.LastCheck = time.Now()

	if err := m.store.Save(m.current); err != nil {
		outcome = "partial"
		log.Warn("state persistence failed", "error", err)
	}

	m.mu.Lock()
	m.status.Hostname = hostname
	m.status.Role = role.String()
	m.status.RoleKnown = true
	m.status.LastCycle = m.current.LastCheck
	m.status.Cycles++
	m.mu.Unlock()

	cyclesTotal.WithLabelValues(outcome).Inc()
	log.Info("reconciliation cycle complete",
		"hostname", hostname,
		"role", role.String(),
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
}

// logFetchFailure logs a role fetch failure according to its class:
// credential problems are operator-actionable and rate-limited, everything
// else is a transient warning retried next cycle.
func (m *Monitor) logFetchFailure(log *slog.Logger, hostname string, err error) {
	if errors.IsCode(err, errors.ErrCodeUnauthorized) {
		if m.authWarn.Allow() {
			log.Error("cluster manager authentication failed, operator action required",
				"hostname", hostname,
				"error", err,
			)
		}
		return
	}
	log.Warn("role fetch failed, no changes this cycle",
		"hostname", hostname,
		"error", err,
	)
}
