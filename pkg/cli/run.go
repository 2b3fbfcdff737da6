/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/config"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/controller"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/exporter"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/monitor"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/rolesource"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/server"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/state"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/supervisor"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/targets"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the reconciliation daemon",
		Description: `Run the reconciliation loop until interrupted.

Each cycle fetches this host's role assignment from the cluster manager,
starts or stops the exporter services accordingly, and synchronizes the
per-host Prometheus file-SD target file on shared storage.

If the configuration file does not exist yet, a starter file is written
with the built-in defaults and the command exits so the operator can fill
in the cluster manager head nodes.

# Examples

Run with the default configuration path:
  rolemond run

Run against an alternate configuration and targets directory:
  rolemond run --config /tmp/rolemond.yaml --targets-dir /tmp/targets`,
		Flags: []cli.Flag{
			configFlag,
			targetsDirFlag,
			logLevelFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			initLogger(cmd)

			path := cmd.String("config")
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if werr := config.Default().Write(path); werr != nil {
					return fmt.Errorf("writing starter configuration: %w", werr)
				}
				return fmt.Errorf("wrote starter configuration to %s: set bcm_headnodes and restart", path)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(ctx, cfg)
		},
	}
}

// run assembles the daemon's collaborators from cfg and blocks until ctx is
// canceled.
func run(ctx context.Context, cfg *config.Config) error {
	source, err := rolesource.NewBCMClient(
		cfg.HeadNodes, cfg.APIPort, cfg.CertPath, cfg.KeyPath, cfg.RoleName)
	if err != nil {
		return err
	}

	sup, err := supervisor.NewSystemd(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sup.Close(); cerr != nil {
			slog.Warn("closing systemd connection", "error", cerr)
		}
	}()

	ctrl := controller.New(sup, controller.DefaultRetryPolicy(
		cfg.RetryInterval(), cfg.RetryWindow(), cfg.MaxRetries))

	mon := monitor.New(
		source,
		ctrl,
		targets.NewManager(cfg.TargetsDir, cfg.ClusterName),
		state.NewStore(cfg.StateDir),
		exporter.Registry(cfg),
		cfg.CheckInterval(),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		mon.Run(gctx)
		return nil
	})

	if cfg.MetricsAddress != "" {
		srv := server.NewServer(server.DefaultConfig(cfg.MetricsAddress), mon.Status)
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}

	return g.Wait()
}
