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
	"sync"
)

// Fake is an in-memory Supervisor for tests. Units start inactive. Failures
// are scripted per unit: FailStarts[unit] consumes one failure per Start
// call until it reaches zero.
type Fake struct {
	mu sync.Mutex

	active     map[string]bool
	FailStarts map[string]int
	FailStops  map[string]int

	// Calls records every operation in order, formatted "op unit".
	Calls []string
}

// NewFake returns an empty fake supervisor.
func NewFake() *Fake {
	return &Fake{
		active:     make(map[string]bool),
		FailStarts: make(map[string]int),
		FailStops:  make(map[string]int),
	}
}

// SetActive seeds the running state of a unit.
func (f *Fake) SetActive(unit string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[unit] = active
}

// IsActive implements Supervisor.
func (f *Fake) IsActive(_ context.Context, unit string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "is-active "+unit)
	return f.active[unit], nil
}

// Start implements Supervisor.
func (f *Fake) Start(_ context.Context, unit string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "start "+unit)
	if f.active[unit] {
		return nil
	}
	if f.FailStarts[unit] > 0 {
		f.FailStarts[unit]--
		return fmt.Errorf("start %s: scripted failure", unit)
	}
	f.active[unit] = true
	return nil
}

// Stop implements Supervisor.
func (f *Fake) Stop(_ context.Context, unit string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "stop "+unit)
	if !f.active[unit] {
		return nil
	}
	if f.FailStops[unit] > 0 {
		f.FailStops[unit]--
		return fmt.Errorf("stop %s: scripted failure", unit)
	}
	f.active[unit] = false
	return nil
}

// Close implements Supervisor.
func (f *Fake) Close() error { return nil }

// StartCalls returns how many Start operations were issued for unit.
func (f *Fake) StartCalls(unit string) int {
	return f.countCalls("start " + unit)
}

// StopCalls returns how many Stop operations were issued for unit.
func (f *Fake) StopCalls(unit string) int {
	return f.countCalls("stop " + unit)
}

func (f *Fake) countCalls(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == call {
			n++
		}
	}
	return n
}
