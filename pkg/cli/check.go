/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/checkup"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Run a one-shot deployment checkup",
		Description: `Verify the deployment without changing anything.

The checkup confirms the mutual-TLS credentials exist, probes the cluster
manager for this host's role assignment, reports each exporter unit's
state, and verifies the shared targets directory and discovery file agree
with the assigned role.

Exit code is 0 when every check passes and 1 otherwise, so the command can
gate configuration management runs:

  rolemond check && echo healthy`,
		Flags: []cli.Flag{
			configFlag,
			targetsDirFlag,
			logLevelFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			initLogger(cmd)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			runner := &checkup.Runner{Config: cfg}
			report, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			report.Write(os.Stdout)
			if report.Failed() {
				return cli.Exit("checkup failed", 1)
			}
			return nil
		},
	}
}
