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

package targets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/errors"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/exporter"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/rolesource"
)

// Entry is one Prometheus file-SD discovery entry.
type Entry struct {
	Targets []string          `json:"targets"`
	Labels  map[string]string `json:"labels"`
}

// Manager owns this host's discovery file in the shared targets directory.
type Manager struct {
	dir     string
	cluster string
}

// NewManager returns a Manager writing under dir with the given cluster
// label.
func NewManager(dir, cluster string) *Manager {
	return &Manager{dir: dir, cluster: cluster}
}

// Entries builds the discovery entries for hostname, one per descriptor, in
// descriptor order.
func (m *Manager) Entries(hostname string, descriptors []exporter.Descriptor) []Entry {
	entries := make([]Entry, 0, len(descriptors))
	for _, d := range descriptors {
		entries = append(entries, Entry{
			Targets: []string{fmt.Sprintf("%s:%d", hostname, d.Port)},
			Labels: map[string]string{
				"job":      d.Job,
				"cluster":  m.cluster,
				"hostname": hostname,
			},
		})
	}
	return entries
}

// Sync makes the discovery file agree with role. For a present role it
// rewrites the full entry set; for an absent role it removes the file.
// The returned hash is the sha256 of the current file content ("" when the
// file should not exist); callers persist it to detect convergence.
//
// lastHash short-circuits the write when the content is unchanged, so a
// converged reconciliation touches nothing on shared storage.
func (m *Manager) Sync(role rolesource.Role, hostname string, descriptors []exporter.Descriptor, lastHash string) (string, error) {
	path := filepath.Join(m.dir, hostname+".json")

	if role != rolesource.RolePresent {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				return "", nil
			}
			return lastHash, errors.WrapWithContext(errors.ErrCodeUnavailable,
				"removing discovery file", err, map[string]any{"path": path})
		}
		slog.Info("removed discovery file", "path", path)
		return "", nil
	}

	data, err := json.MarshalIndent(m.Entries(hostname, descriptors), "", "  ")
	if err != nil {
		return lastHash, errors.Wrap(errors.ErrCodeInternal, "encoding discovery entries", err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if hash == lastHash {
		if _, err := os.Stat(path); err == nil {
			// Converged: same content already on disk.
			return hash, nil
		}
		// Hash matches but the file is gone (shared storage wiped or an
		// operator removed it). Fall through and rewrite.
	}

	// Write-then-rename keeps the final path atomic for the discovery
	// consumer.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return lastHash, errors.WrapWithContext(errors.ErrCodeUnavailable,
			"writing discovery file", err, map[string]any{"path": tmp})
	}
	if err := os.Rename(tmp, path); err != nil {
		// Best effort: do not leave the temp file behind.
		_ = os.Remove(tmp)
		return lastHash, errors.WrapWithContext(errors.ErrCodeUnavailable,
			"renaming discovery file", err, map[string]any{"path": path})
	}

	slog.Info("wrote discovery file", "path", path, "entries", len(descriptors))
	return hash, nil
}
