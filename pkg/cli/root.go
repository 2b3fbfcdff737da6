/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/config"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/logging"
)

const (
	name           = "rolemond"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Shared flags attached to every subcommand.
var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "configuration file path",
		Sources: cli.EnvVars("ROLEMOND_CONFIG"),
		Value:   config.DefaultPath,
	}
	targetsDirFlag = &cli.StringFlag{
		Name:  "targets-dir",
		Usage: "override the Prometheus file-SD targets directory",
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "log level (debug, info, warn, error)",
		Sources: cli.EnvVars("LOG_LEVEL"),
		Value:   "info",
	}
)

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "role-driven exporter reconciler for cluster manager managed nodes",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Description: `rolemond polls the cluster manager REST API for this host's workload
role assignment and reconciles the local monitoring exporters against it:
exporter services are started when the role is assigned and stopped when it
is revoked, and a per-host Prometheus file-SD target file on shared storage
is kept in step so scraping follows the role automatically.`,
		Commands: []*cli.Command{
			runCmd(),
			checkCmd(),
		},
	}
}

// Execute parses arguments and dispatches. It is called by main.main and
// installs SIGINT/SIGTERM handling for graceful shutdown.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogger configures the default slog logger before a command body runs,
// so overrides like --log-level take effect everywhere.
func initLogger(cmd *cli.Command) {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
	slog.Debug("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date)
}

// loadConfig reads the configuration file named by --config and applies
// flag overrides on top of it.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := cmd.String("targets-dir"); dir != "" {
		cfg.TargetsDir = dir
	}
	return cfg, nil
}
