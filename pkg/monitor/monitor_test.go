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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/config"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/controller"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/errors"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/exporter"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/rolesource"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/state"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/supervisor"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/targets"
)

// stubSource scripts role fetch results.
type stubSource struct {
	role  rolesource.Role
	err   error
	calls int
}

func (s *stubSource) FetchRole(_ context.Context, _ string) (rolesource.Role, error) {
	s.calls++
	if s.err != nil {
		return rolesource.RoleAbsent, s.err
	}
	return s.role, nil
}

// panicSource exercises the cycle-boundary recovery.
type panicSource struct{}

func (panicSource) FetchRole(_ context.Context, _ string) (rolesource.Role, error) {
	panic("device listing exploded")
}

type harness struct {
	monitor    *Monitor
	source     *stubSource
	fake       *supervisor.Fake
	store      *state.Store
	targetsDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := config.Default()
	descriptors := exporter.Registry(cfg)
	fake := supervisor.NewFake()
	source := &stubSource{}
	targetsDir := t.TempDir()
	store := state.NewStore(t.TempDir())

	m := New(
		source,
		controller.New(fake, controller.StandardRetryPolicy()),
		targets.NewManager(targetsDir, cfg.ClusterName),
		store,
		descriptors,
		time.Second,
	)
	m.hostname = func() (string, error) { return "dgx-01", nil }

	return &harness{monitor: m, source: source, fake: fake, store: store, targetsDir: targetsDir}
}

func (h *harness) targetFile() string {
	return filepath.Join(h.targetsDir, "dgx-01.json")
}

func TestCycle_PresentConvergesServicesAndTargets(t *testing.T) {
	h := newHarness(t)
	h.source.role = rolesource.RolePresent

	h.monitor.cycle(t.Context())

	for _, d := range exporter.Registry(config.Default()) {
		active, err := h.fake.IsActive(t.Context(), d.Unit)
		require.NoError(t, err)
		assert.True(t, active, d.Unit)
	}

	data, err := os.ReadFile(h.targetFile())
	require.NoError(t, err)
	var entries []targets.Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 3)
	jobs := map[string]bool{}
	for _, e := range entries {
		jobs[e.Labels["job"]] = true
	}
	assert.True(t, jobs["node_exporter"])
	assert.True(t, jobs["cgroup_exporter"])
	assert.True(t, jobs["gpu_exporter"])

	persisted := h.store.Load("dgx-01")
	assert.True(t, persisted.RoleKnown)
	assert.Equal(t, rolesource.RolePresent, persisted.LastKnownRole)
	assert.NotEmpty(t, persisted.LastTargetFileHash)
}

func TestCycle_RoleFlipToAbsent(t *testing.T) {
	h := newHarness(t)
	h.source.role = rolesource.RolePresent
	h.monitor.cycle(t.Context())
	require.FileExists(t, h.targetFile())

	h.source.role = rolesource.RoleAbsent
	h.monitor.cycle(t.Context())

	for _, d := range exporter.Registry(config.Default()) {
		active, err := h.fake.IsActive(t.Context(), d.Unit)
		require.NoError(t, err)
		assert.False(t, active, d.Unit)
	}
	assert.NoFileExists(t, h.targetFile())

	persisted := h.store.Load("dgx-01")
	assert.Equal(t, rolesource.RoleAbsent, persisted.LastKnownRole)
	assert.Empty(t, persisted.LastTargetFileHash)
}

func TestCycle_FetchFailureMakesNoChanges(t *testing.T) {
	h := newHarness(t)
	h.source.err = errors.New(errors.ErrCodeUnavailable, "no head node reachable")

	// Five consecutive unreachable cycles: no crash, no state change.
	for range 5 {
		h.monitor.cycle(t.Context())
	}

	assert.Equal(t, 5, h.source.calls)
	for _, d := range exporter.Registry(config.Default()) {
		assert.Zero(t, h.fake.StartCalls(d.Unit))
		assert.Zero(t, h.fake.StopCalls(d.Unit))
	}
	assert.NoFileExists(t, h.targetFile())
	assert.False(t, h.store.Load("dgx-01").RoleKnown)
}

func TestCycle_AuthFailureDoesNotCrash(t *testing.T) {
	h := newHarness(t)
	h.source.err = errors.New(errors.ErrCodeUnauthorized, "client certificate rejected")

	for range 3 {
		h.monitor.cycle(t.Context())
	}

	assert.Equal(t, 3, h.source.calls)
	assert.False(t, h.store.Load("dgx-01").RoleKnown)
}

func TestCycle_PanicIsContained(t *testing.T) {
	h := newHarness(t)
	h.monitor.source = panicSource{}

	assert.NotPanics(t, func() {
		h.monitor.cycle(t.Context())
	})
}

func TestCycle_SecondPassIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.source.role = rolesource.RolePresent

	h.monitor.cycle(t.Context())
	h.fake.Calls = nil
	before, err := os.Stat(h.targetFile())
	require.NoError(t, err)

	h.monitor.cycle(t.Context())

	for _, d := range exporter.Registry(config.Default()) {
		assert.Zero(t, h.fake.StartCalls(d.Unit))
		assert.Zero(t, h.fake.StopCalls(d.Unit))
	}
	after, err := os.Stat(h.targetFile())
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestCycle_HostnameChangeReloadsState(t *testing.T) {
	h := newHarness(t)
	h.source.role = rolesource.RolePresent
	h.monitor.cycle(t.Context())

	h.monitor.hostname = func() (string, error) { return "dgx-02", nil }
	h.monitor.cycle(t.Context())

	// Both hosts now have target files; the old one is not cleaned up.
	assert.FileExists(t, filepath.Join(h.targetsDir, "dgx-01.json"))
	assert.FileExists(t, filepath.Join(h.targetsDir, "dgx-02.json"))
	assert.True(t, h.store.Load("dgx-02").RoleKnown)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	h := newHarness(t)
	h.source.role = rolesource.RoleAbsent

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		h.monitor.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
	assert.GreaterOrEqual(t, h.source.calls, 1)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", phaseIdle.String())
	assert.Equal(t, "fetching", phaseFetching.String())
	assert.Equal(t, "reconciling", phaseReconciling.String())
	assert.Equal(t, "sleeping", phaseSleeping.String())
}

func TestStatus_ReflectsCompletedCycles(t *testing.T) {
	h := newHarness(t)

	st := h.monitor.Status()
	assert.Equal(t, "idle", st.Phase)
	assert.Zero(t, st.Cycles)
	assert.False(t, st.RoleKnown)

	h.source.role = rolesource.RolePresent
	h.monitor.cycle(t.Context())

	st = h.monitor.Status()
	assert.Equal(t, "dgx-01", st.Hostname)
	assert.Equal(t, "present", st.Role)
	assert.True(t, st.RoleKnown)
	assert.Equal(t, uint64(1), st.Cycles)
	assert.False(t, st.LastCycle.IsZero())
}

func TestStatus_FetchFailureCompletesNoCycle(t *testing.T) {
	h := newHarness(t)
	h.source.err = errors.New(errors.ErrCodeUnavailable, "no head node reachable")

	h.monitor.cycle(t.Context())

	st := h.monitor.Status()
	assert.Zero(t, st.Cycles)
	assert.False(t, st.RoleKnown)
}
