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
	"context"
	"log/slog"
	"time"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/exporter"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/rolesource"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/state"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/supervisor"
)

// Controller drives the process supervisor to match the assigned role.
type Controller struct {
	sup    supervisor.Supervisor
	policy RetryPolicy

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Controller using the given supervisor and retry policy.
func New(sup supervisor.Supervisor, policy RetryPolicy) *Controller {
	return &Controller{
		sup:    sup,
		policy: policy,
		now:    time.Now,
	}
}

// Reconcile adjusts every descriptor's running state to match role, updating
// the retry bookkeeping in s in place. Descriptors are handled in declared
// order and failures are isolated per service; Reconcile itself never fails.
func (c *Controller) Reconcile(ctx context.Context, role rolesource.Role, descriptors []exporter.Descriptor, s *state.NodeState) {
	for _, d := range descriptors {
		if ctx.Err() != nil {
			return
		}
		if role == rolesource.RolePresent {
			c.ensureRunning(ctx, d, s)
		} else {
			c.ensureStopped(ctx, d, s)
		}
	}
}

// ensureRunning starts d if it is not active, respecting the retry policy.
func (c *Controller) ensureRunning(ctx context.Context, d exporter.Descriptor, s *state.NodeState) {
	active, err := c.sup.IsActive(ctx, d.Unit)
	if err != nil {
		slog.Error("service state query failed", "service", d.Name, "error", err)
		return
	}

	svc := s.Service(d.Name)

	if active {
		// Converged. Any retry bookkeeping is stale.
		if svc.Attempts > 0 || svc.Degraded {
			slog.Info("service running again, clearing retry state", "service", d.Name)
			s.ResetService(d.Name)
		}
		return
	}

	now := c.now()

	if svc.Degraded {
		// A fresh cycle-window re-arms a degraded service.
		if svc.FirstAttempt.IsZero() || now.Sub(svc.FirstAttempt) < c.policy.Window {
			slog.Debug("service degraded, deferring to next cycle-window",
				"service", d.Name,
				"attempts", svc.Attempts,
			)
			return
		}
		slog.Info("retry window elapsed, re-arming degraded service", "service", d.Name)
		s.ResetService(d.Name)
		svc = s.Service(d.Name)
	}

	if !svc.NextAttempt.IsZero() && now.Before(svc.NextAttempt) {
		slog.Debug("service start deferred",
			"service", d.Name,
			"next_attempt", svc.NextAttempt,
		)
		return
	}

	// The window bounds total elapsed retry time even when attempts remain.
	if !svc.FirstAttempt.IsZero() && now.Sub(svc.FirstAttempt) > c.policy.Window {
		slog.Error("retry window exhausted, marking service degraded",
			"service", d.Name,
			"attempts", svc.Attempts,
		)
		svc.Degraded = true
		return
	}

	slog.Info("starting service",
		"service", d.Name,
		"attempt", svc.Attempts+1,
		"max_attempts", c.policy.MaxAttempts,
	)

	if err := c.sup.Start(ctx, d.Unit); err != nil {
		serviceOperations.WithLabelValues(d.Name, "start", "error").Inc()
		if svc.FirstAttempt.IsZero() {
			svc.FirstAttempt = now
		}
		svc.Attempts++
		svc.LastAttempt = now
		svc.LastError = err.Error()

		if svc.Attempts >= c.policy.MaxAttempts {
			svc.Degraded = true
			slog.Error("service start failed, giving up until next cycle-window",
				"service", d.Name,
				"attempts", svc.Attempts,
				"error", err,
			)
			return
		}

		svc.NextAttempt = now.Add(c.policy.delayAfter(svc.Attempts))
		slog.Warn("service start failed, will retry",
			"service", d.Name,
			"attempt", svc.Attempts,
			"max_attempts", c.policy.MaxAttempts,
			"next_attempt", svc.NextAttempt,
			"error", err,
		)
		return
	}

	serviceOperations.WithLabelValues(d.Name, "start", "success").Inc()
	slog.Info("service started", "service", d.Name)
	s.ResetService(d.Name)
}

// ensureStopped stops d if it is active. Stop failures are logged but never
// block the remaining services or the discovery file update.
func (c *Controller) ensureStopped(ctx context.Context, d exporter.Descriptor, s *state.NodeState) {
	active, err := c.sup.IsActive(ctx, d.Unit)
	if err != nil {
		slog.Error("service state query failed", "service", d.Name, "error", err)
		return
	}

	if !active {
		s.ResetService(d.Name)
		return
	}

	slog.Info("stopping service", "service", d.Name)
	if err := c.sup.Stop(ctx, d.Unit); err != nil {
		serviceOperations.WithLabelValues(d.Name, "stop", "error").Inc()
		slog.Error("service stop failed", "service", d.Name, "error", err)
		s.Service(d.Name).LastError = err.Error()
		return
	}

	serviceOperations.WithLabelValues(d.Name, "stop", "success").Inc()
	slog.Info("service stopped", "service", d.Name)
	s.ResetService(d.Name)
}
