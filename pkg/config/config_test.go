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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.APIPort)
	assert.Equal(t, "slurmclient", cfg.RoleName)
	assert.Equal(t, DefaultTargetsDir, cfg.TargetsDir)
	assert.Equal(t, 60*time.Second, cfg.CheckInterval())
	assert.Equal(t, 10*time.Minute, cfg.RetryInterval())
	assert.Equal(t, 30*time.Minute, cfg.RetryWindow())
	assert.Empty(t, cfg.HeadNodes)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"bcm_headnodes:\n  - head-01\n  - head-02\ncheck_interval: 30\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"head-01", "head-02"}, cfg.HeadNodes)
	assert.Equal(t, 30*time.Second, cfg.CheckInterval())
	// Untouched keys keep their defaults.
	assert.Equal(t, 9100, cfg.NodeExporterPort)
	assert.Equal(t, 9306, cfg.CgroupExporterPort)
	assert.Equal(t, 9445, cfg.GPUExporterPort)
	assert.Equal(t, "slurm", cfg.ClusterName)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bcm_port: [not a number\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults with head node are valid", mutate: func(_ *Config) {}, wantErr: false},
		{name: "no head nodes", mutate: func(c *Config) { c.HeadNodes = nil }, wantErr: true},
		{name: "zero api port", mutate: func(c *Config) { c.APIPort = 0 }, wantErr: true},
		{name: "negative interval", mutate: func(c *Config) { c.CheckIntervalSeconds = -1 }, wantErr: true},
		{name: "zero retries", mutate: func(c *Config) { c.MaxRetries = 0 }, wantErr: true},
		{name: "empty role name", mutate: func(c *Config) { c.RoleName = "" }, wantErr: true},
		{name: "exporter port out of range", mutate: func(c *Config) { c.GPUExporterPort = 70000 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.HeadNodes = []string{"head-01"}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etc", "rolemond", "config.yaml")

	cfg := Default()
	cfg.HeadNodes = []string{"head-01"}
	cfg.ClusterName = "superpod"
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
