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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/defaults"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/errors"
)

const (
	// DefaultPath is the location of the agent configuration file.
	DefaultPath = "/etc/rolemond/config.yaml"

	// DefaultTargetsDir is the shared-storage directory Prometheus file-SD
	// watches for per-host target files.
	DefaultTargetsDir = "/cm/shared/apps/jobstats/prometheus-targets"

	// DefaultStateDir holds the persisted per-host reconciliation state.
	DefaultStateDir = "/var/lib/rolemond"
)

// Config holds the agent configuration. All fields have working defaults
// except HeadNodes, which must name at least one cluster manager head node.
type Config struct {
	// HeadNodes is the ordered list of cluster manager head node addresses.
	// Each is tried in turn every cycle until one responds.
	HeadNodes []string `yaml:"bcm_headnodes"`

	// APIPort is the cluster manager REST API port.
	APIPort int `yaml:"bcm_port"`

	// CertPath and KeyPath are the mutual-TLS client credentials used
	// against the cluster manager API.
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`

	// RoleName is the cluster manager role whose assignment drives the
	// exporters on this host.
	RoleName string `yaml:"role_name"`

	// CheckIntervalSeconds is the pause between reconciliation cycles.
	CheckIntervalSeconds int `yaml:"check_interval"`

	// RetryIntervalSeconds spaces service start retries within a cycle-window.
	RetryIntervalSeconds int `yaml:"retry_interval"`

	// MaxRetries bounds start attempts per service per cycle-window.
	MaxRetries int `yaml:"max_retries"`

	// RetryWindowSeconds bounds total elapsed retry time per cycle-window.
	RetryWindowSeconds int `yaml:"retry_window"`

	// TargetsDir is the shared directory for Prometheus file-SD target files.
	TargetsDir string `yaml:"prometheus_targets_dir"`

	// StateDir holds the persisted NodeState file.
	StateDir string `yaml:"state_dir"`

	// ClusterName is attached as the `cluster` label on every target entry.
	ClusterName string `yaml:"cluster_name"`

	// Exporter listen ports, one per managed exporter.
	NodeExporterPort   int `yaml:"node_exporter_port"`
	CgroupExporterPort int `yaml:"cgroup_exporter_port"`
	GPUExporterPort    int `yaml:"nvidia_gpu_exporter_port"`

	// MetricsAddress, when non-empty, enables a Prometheus metrics listener
	// for the agent itself (for example ":9447"). Disabled by default.
	MetricsAddress string `yaml:"metrics_address"`
}

// Default returns a Config populated with built-in defaults. HeadNodes is
// left empty and must be provided by the operator.
func Default() *Config {
	return &Config{
		HeadNodes:            []string{},
		APIPort:              8081,
		CertPath:             "/etc/rolemond/admin.pem",
		KeyPath:              "/etc/rolemond/admin.key",
		RoleName:             "slurmclient",
		CheckIntervalSeconds: int(defaults.CheckInterval.Seconds()),
		RetryIntervalSeconds: int(defaults.RetryInterval.Seconds()),
		MaxRetries:           defaults.MaxStartAttempts,
		RetryWindowSeconds:   int(defaults.RetryWindow.Seconds()),
		TargetsDir:           DefaultTargetsDir,
		StateDir:             DefaultStateDir,
		ClusterName:          "slurm",
		NodeExporterPort:     9100,
		CgroupExporterPort:   9306,
		GPUExporterPort:      9445,
	}
}

// Load reads the configuration file at path, merging it over the defaults.
// A missing file is not an error: the defaults are returned and the caller
// may choose to bootstrap the file with Write.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("config file not found, using defaults", "path", path)
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "reading config file", err)
	}

	// Unmarshal over the defaulted struct so absent keys keep their defaults.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "parsing config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Write persists the configuration as YAML at path, creating the parent
// directory if needed. Used to bootstrap a default config on first run.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "creating config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "encoding config", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "writing config file", err)
	}
	return nil
}

// Validate checks the configuration for values the agent cannot run with.
func (c *Config) Validate() error {
	if len(c.HeadNodes) == 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "bcm_headnodes must name at least one head node")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("invalid bcm_port: %d", c.APIPort))
	}
	if c.CheckIntervalSeconds <= 0 {
		return errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("invalid check_interval: %d", c.CheckIntervalSeconds))
	}
	if c.MaxRetries <= 0 {
		return errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("invalid max_retries: %d", c.MaxRetries))
	}
	if c.RoleName == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "role_name must not be empty")
	}
	for _, port := range []int{c.NodeExporterPort, c.CgroupExporterPort, c.GPUExporterPort} {
		if port <= 0 || port > 65535 {
			return errors.New(errors.ErrCodeInvalidRequest, fmt.Sprintf("invalid exporter port: %d", port))
		}
	}
	return nil
}

// CheckInterval returns the reconciliation cycle interval.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// RetryInterval returns the spacing between service start retries.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalSeconds) * time.Second
}

// RetryWindow returns the per-service retry window per cycle.
func (c *Config) RetryWindow() time.Duration {
	return time.Duration(c.RetryWindowSeconds) * time.Second
}
