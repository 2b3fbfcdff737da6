// Package exporter declares the metrics exporters whose lifecycle is tied to
// the workload role: node_exporter for system metrics, cgroup_exporter for
// per-job metrics, and nvidia_gpu_exporter for GPU metrics.
//
// Descriptors are immutable once built from configuration at startup and are
// reconciled in their declared order. The exporters are independent; no
// ordering dependency between them is assumed or enforced.
package exporter
