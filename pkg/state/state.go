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

package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/errors"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/rolesource"
)

// ServiceState is the retry bookkeeping for one managed service within the
// current cycle-window.
type ServiceState struct {
	// Attempts counts start attempts in the current cycle-window.
	Attempts int `json:"attempts"`

	// FirstAttempt anchors the cycle-window; the retry window is measured
	// from here.
	FirstAttempt time.Time `json:"first_attempt,omitzero"`

	// LastAttempt is when the most recent start attempt was made.
	LastAttempt time.Time `json:"last_attempt,omitzero"`

	// NextAttempt is the earliest time another start may be attempted.
	NextAttempt time.Time `json:"next_attempt,omitzero"`

	// Degraded marks a service that exhausted its retries in the current
	// cycle-window and awaits the next one.
	Degraded bool `json:"degraded,omitempty"`

	// LastError records the most recent start failure for diagnostics.
	LastError string `json:"last_error,omitempty"`
}

// NodeState is the persisted reconciliation state for this host.
type NodeState struct {
	Hostname           string                   `json:"hostname"`
	LastKnownRole      rolesource.Role          `json:"last_known_role"`
	RoleKnown          bool                     `json:"role_known"`
	Services           map[string]*ServiceState `json:"services"`
	LastTargetFileHash string                   `json:"last_target_file_hash,omitempty"`
	LastCheck          time.Time                `json:"last_check,omitzero"`
}

// New returns a fresh state for hostname with no reconciliation history.
func New(hostname string) *NodeState {
	return &NodeState{
		Hostname: hostname,
		Services: make(map[string]*ServiceState),
	}
}

// Service returns the retry state for a service, creating it on first use.
func (s *NodeState) Service(name string) *ServiceState {
	if s.Services == nil {
		s.Services = make(map[string]*ServiceState)
	}
	if _, ok := s.Services[name]; !ok {
		s.Services[name] = &ServiceState{}
	}
	return s.Services[name]
}

// ResetService clears the retry bookkeeping for a service. Called on any
// successful state transition for that service.
func (s *NodeState) ResetService(name string) {
	if s.Services == nil {
		return
	}
	s.Services[name] = &ServiceState{}
}

// Store persists NodeState documents under a directory, one file per host.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created lazily
// on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// path returns the state file location for a host.
func (st *Store) path(hostname string) string {
	return filepath.Join(st.dir, fmt.Sprintf("%s_state.json", hostname))
}

// Load reads the persisted state for hostname. A missing or unreadable file
// returns a fresh state: crash recovery must never depend on the previous
// run having shut down cleanly.
func (st *Store) Load(hostname string) *NodeState {
	data, err := os.ReadFile(st.path(hostname))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("state file unreadable, starting fresh", "path", st.path(hostname), "error", err)
		}
		return New(hostname)
	}

	s := New(hostname)
	if err := json.Unmarshal(data, s); err != nil {
		slog.Warn("state file corrupt, starting fresh", "path", st.path(hostname), "error", err)
		return New(hostname)
	}
	// The file is keyed by hostname but trust the caller's view: a
	// re-imaged host may have inherited another host's state directory.
	s.Hostname = hostname
	if s.Services == nil {
		s.Services = make(map[string]*ServiceState)
	}
	return s
}

// Save writes the state atomically (temp file then rename) so a crash
// mid-write never leaves a truncated state file.
func (st *Store) Save(s *NodeState) error {
	if err := os.MkdirAll(st.dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "creating state directory", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "encoding state", err)
	}

	final := st.path(s.Hostname)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "writing state file", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "renaming state file", err)
	}
	return nil
}
