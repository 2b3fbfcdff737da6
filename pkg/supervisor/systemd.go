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

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/defaults"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/errors"
)

// Supervisor drives the local process supervisor by unit name.
type Supervisor interface {
	// IsActive reports whether the unit is currently active.
	IsActive(ctx context.Context, unit string) (bool, error)
	// Start starts the unit. Starting an active unit is a no-op success.
	Start(ctx context.Context, unit string) error
	// Stop stops the unit. Stopping an inactive unit is a no-op success.
	Stop(ctx context.Context, unit string) error
	// Close releases the supervisor connection.
	Close() error
}

// Systemd is the production Supervisor backed by a D-Bus connection to the
// system instance of systemd.
type Systemd struct {
	conn *dbus.Conn
}

// NewSystemd connects to the system bus. The connection is held for the
// lifetime of the agent; systemd re-establishes unit state on its side, so a
// broken connection surfaces as per-operation errors rather than a crash.
func NewSystemd(ctx context.Context) (*Systemd, error) {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "connecting to systemd", err)
	}
	return &Systemd{conn: conn}, nil
}

// IsActive implements Supervisor using the unit's ActiveState property.
func (s *Systemd) IsActive(ctx context.Context, unit string) (bool, error) {
	prop, err := s.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return false, errors.WrapWithContext(errors.ErrCodeInternal, "querying unit state", err,
			map[string]any{"unit": unit})
	}
	state, ok := prop.Value.Value().(string)
	if !ok {
		return false, errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("unexpected ActiveState type for unit %s", unit))
	}
	return state == "active", nil
}

// Start implements Supervisor. It queues a start job in replace mode, waits
// for the job result, then confirms the unit actually reached the active
// state (a unit can exit immediately after a "done" job result).
func (s *Systemd) Start(ctx context.Context, unit string) error {
	active, err := s.IsActive(ctx, unit)
	if err != nil {
		return err
	}
	if active {
		slog.Debug("unit already active", "unit", unit)
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, defaults.SupervisorOpTimeout)
	defer cancel()

	if err := s.await(opCtx, unit, "start", func(ch chan<- string) (int, error) {
		return s.conn.StartUnitContext(opCtx, unit, "replace", ch)
	}); err != nil {
		return err
	}

	// Confirm the unit stayed up.
	select {
	case <-time.After(defaults.StartVerifyDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	active, err = s.IsActive(ctx, unit)
	if err != nil {
		return err
	}
	if !active {
		return errors.New(errors.ErrCodeInternal,
			fmt.Sprintf("unit %s not active after start", unit))
	}
	return nil
}

// Stop implements Supervisor.
func (s *Systemd) Stop(ctx context.Context, unit string) error {
	active, err := s.IsActive(ctx, unit)
	if err != nil {
		return err
	}
	if !active {
		slog.Debug("unit already inactive", "unit", unit)
		return nil
	}

	opCtx, cancel := context.WithTimeout(ctx, defaults.SupervisorOpTimeout)
	defer cancel()

	return s.await(opCtx, unit, "stop", func(ch chan<- string) (int, error) {
		return s.conn.StopUnitContext(opCtx, unit, "replace", ch)
	})
}

// Close implements Supervisor.
func (s *Systemd) Close() error {
	s.conn.Close()
	return nil
}

// await queues a unit job and blocks until systemd reports its result.
func (s *Systemd) await(ctx context.Context, unit, op string, queue func(chan<- string) (int, error)) error {
	ch := make(chan string, 1)
	if _, err := queue(ch); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInternal, fmt.Sprintf("queueing unit %s", op), err,
			map[string]any{"unit": unit})
	}

	select {
	case result := <-ch:
		if result != "done" {
			return errors.New(errors.ErrCodeInternal,
				fmt.Sprintf("unit %s %s finished with result %q", unit, op, result))
		}
		return nil
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCodeTimeout,
			fmt.Sprintf("waiting for unit %s %s", unit, op), ctx.Err())
	}
}
