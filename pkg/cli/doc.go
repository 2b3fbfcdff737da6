// Package cli implements the command-line interface for the rolemond agent.
//
// # Overview
//
// The rolemond CLI manages the per-node reconciliation daemon and a one-shot
// deployment checkup. It is designed for cluster administrators running
// Slurm monitoring exporters on cluster manager managed nodes.
//
// # Commands
//
// run - Run the reconciliation daemon:
//
//	rolemond run [--config FILE] [--targets-dir DIR] [--log-level LEVEL]
//
// Polls the cluster manager REST API for this host's role assignment on a
// fixed interval, starts or stops the exporter systemd services to match,
// and keeps the per-host Prometheus file-SD target file on shared storage
// in step. Runs until interrupted by SIGINT or SIGTERM.
//
// check - Run a one-shot deployment checkup:
//
//	rolemond check [--config FILE] [--targets-dir DIR]
//
// Verifies credentials, cluster manager reachability, exporter unit states,
// and discovery file consistency without changing anything. Exits non-zero
// when any check fails.
//
// # Shared Flags
//
//	--config, -c    Configuration file path (default: /etc/rolemond/config.yaml)
//	--targets-dir   Override the Prometheus file-SD targets directory
//	--log-level     Logging verbosity: debug, info, warn, error (default: info)
//
// # Environment Variables
//
//	ROLEMOND_CONFIG  Configuration file path (same as --config)
//	LOG_LEVEL        Logging verbosity (same as --log-level)
//
// # Exit Codes
//
//	0  Success / all checks passed
//	1  Error or failed checkup
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized
// packages:
//   - pkg/monitor - The reconciliation loop
//   - pkg/rolesource - Cluster manager role lookup
//   - pkg/controller - Service start/stop with bounded retries
//   - pkg/targets - Prometheus file-SD target file management
//   - pkg/checkup - Deployment verification
//   - pkg/logging - Structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/twilson217/Jobstats-on-SuperPOD/pkg/cli.version=1.0.0'"
package cli
