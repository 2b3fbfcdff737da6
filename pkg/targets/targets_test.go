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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/config"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/exporter"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/rolesource"
)

func testDescriptors() []exporter.Descriptor {
	return exporter.Registry(config.Default())
}

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestSync_PresentWritesAllEntries(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "slurm")

	hash, err := m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	entries := readEntries(t, filepath.Join(dir, "dgx-01.json"))
	require.Len(t, entries, 3)

	jobs := make([]string, 0, 3)
	for _, e := range entries {
		jobs = append(jobs, e.Labels["job"])
		assert.Equal(t, "slurm", e.Labels["cluster"])
		assert.Equal(t, "dgx-01", e.Labels["hostname"])
		require.Len(t, e.Targets, 1)
	}
	assert.Equal(t, []string{"cgroup_exporter", "node_exporter", "gpu_exporter"}, jobs)

	assert.Equal(t, []string{"dgx-01:9306"}, entries[0].Targets)
	assert.Equal(t, []string{"dgx-01:9100"}, entries[1].Targets)
	assert.Equal(t, []string{"dgx-01:9445"}, entries[2].Targets)
}

func TestSync_AbsentRemovesFile(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "slurm")

	_, err := m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)

	hash, err := m.Sync(rolesource.RoleAbsent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)
	assert.Empty(t, hash)
	assert.NoFileExists(t, filepath.Join(dir, "dgx-01.json"))
}

func TestSync_AbsentMissingFileIsNoop(t *testing.T) {
	m := NewManager(t.TempDir(), "slurm")

	hash, err := m.Sync(rolesource.RoleAbsent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestSync_UnchangedContentSkipsWrite(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "slurm")

	hash, err := m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)

	path := filepath.Join(dir, "dgx-01.json")
	before, err := os.Stat(path)
	require.NoError(t, err)

	hash2, err := m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), hash)
	require.NoError(t, err)
	assert.Equal(t, hash, hash2)

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestSync_RewritesWhenFileRemovedExternally(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "slurm")

	hash, err := m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)

	path := filepath.Join(dir, "dgx-01.json")
	require.NoError(t, os.Remove(path))

	_, err = m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), hash)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestSync_MissingDirectoryIsRetryable(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "not-mounted"), "slurm")

	_, err := m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), "")
	require.Error(t, err)
}

func TestSync_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "slurm")

	_, err := m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dgx-01.json", entries[0].Name())
}

func TestSync_HostnameScopedFiles(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, "slurm")

	_, err := m.Sync(rolesource.RolePresent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)
	_, err = m.Sync(rolesource.RolePresent, "dgx-02", testDescriptors(), "")
	require.NoError(t, err)

	// Removing one host's file leaves the other untouched.
	_, err = m.Sync(rolesource.RoleAbsent, "dgx-01", testDescriptors(), "")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "dgx-01.json"))
	assert.FileExists(t, filepath.Join(dir, "dgx-02.json"))
}
