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

package exporter

import "github.com/twilson217/Jobstats-on-SuperPOD/pkg/config"

// Descriptor describes one role-dependent exporter on this host.
type Descriptor struct {
	// Name is the exporter's short name, also its systemd unit base name.
	Name string `json:"name"`

	// Unit is the systemd unit the supervisor starts and stops.
	Unit string `json:"unit"`

	// Job is the Prometheus job label advertised in the discovery file.
	// It can differ from Name: the GPU exporter runs as
	// nvidia_gpu_exporter but is scraped under the gpu_exporter job.
	Job string `json:"job"`

	// Port is the exporter's metrics listen port.
	Port int `json:"port"`
}

// Registry returns the descriptors for this host in their fixed
// reconciliation order.
func Registry(cfg *config.Config) []Descriptor {
	return []Descriptor{
		{
			Name: "cgroup_exporter",
			Unit: "cgroup_exporter.service",
			Job:  "cgroup_exporter",
			Port: cfg.CgroupExporterPort,
		},
		{
			Name: "node_exporter",
			Unit: "node_exporter.service",
			Job:  "node_exporter",
			Port: cfg.NodeExporterPort,
		},
		{
			Name: "nvidia_gpu_exporter",
			Unit: "nvidia_gpu_exporter.service",
			Job:  "gpu_exporter",
			Port: cfg.GPUExporterPort,
		},
	}
}
