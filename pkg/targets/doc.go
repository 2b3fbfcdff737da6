// Package targets maintains this host's Prometheus file-based service
// discovery file on shared storage.
//
// Exactly one file per host, named <hostname>.json, containing one discovery
// entry per exporter. The file exists if and only if the last successfully
// reconciled role was present. Writes go through a temp file and an atomic
// rename so the Prometheus file-SD watcher never observes a partial file,
// and hostname-scoped filenames make the shared directory safe for
// concurrent writers across hosts.
//
// Known limitation: if a host is re-imaged under a new hostname, the file
// written under the old hostname is not cleaned up here; it persists until
// removed by an operator or an external cleanup mechanism.
package targets
