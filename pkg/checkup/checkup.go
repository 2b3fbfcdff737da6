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

package checkup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/config"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/exporter"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/rolesource"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/supervisor"
	"github.com/twilson217/Jobstats-on-SuperPOD/pkg/targets"
)

// Check is one diagnostic result.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report is the outcome of a full checkup.
type Report struct {
	Hostname string
	Checks   []Check
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return true
		}
	}
	return false
}

// add records a check result.
func (r *Report) add(name string, ok bool, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Name: name, OK: ok, Detail: fmt.Sprintf(format, args...)})
}

// Runner executes the deployment checkup. The role source and supervisor
// are injectable for tests; both are optional and constructed from cfg when
// nil.
type Runner struct {
	Config     *config.Config
	Source     rolesource.Source
	Supervisor supervisor.Supervisor
	Hostname   func() (string, error)
}

// Run executes all checks and returns the report. Individual check failures
// are recorded, not returned: the only error case is being unable to
// determine the host's own name.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	hostname, err := r.hostname()
	if err != nil {
		return nil, fmt.Errorf("resolving hostname: %w", err)
	}

	report := &Report{Hostname: hostname}

	r.checkCredentials(report)
	role, roleKnown := r.checkRole(ctx, report, hostname)
	r.checkServices(ctx, report)
	r.checkTargets(report, hostname, role, roleKnown)

	return report, nil
}

func (r *Runner) hostname() (string, error) {
	if r.Hostname != nil {
		return r.Hostname()
	}
	return os.Hostname()
}

// checkCredentials verifies the mutual-TLS client credential files exist.
func (r *Runner) checkCredentials(report *Report) {
	for _, path := range []string{r.Config.CertPath, r.Config.KeyPath} {
		if _, err := os.Stat(path); err != nil {
			report.add("credentials", false, "missing credential file %s", path)
			return
		}
	}
	report.add("credentials", true, "client certificate and key present")
}

// checkRole probes the cluster manager and reports the current assignment.
func (r *Runner) checkRole(ctx context.Context, report *Report, hostname string) (rolesource.Role, bool) {
	source := r.Source
	if source == nil {
		client, err := rolesource.NewBCMClient(
			r.Config.HeadNodes, r.Config.APIPort,
			r.Config.CertPath, r.Config.KeyPath, r.Config.RoleName,
		)
		if err != nil {
			report.add("cluster manager", false, "building API client: %v", err)
			return rolesource.RoleAbsent, false
		}
		source = client
	}

	role, err := source.FetchRole(ctx, hostname)
	if err != nil {
		report.add("cluster manager", false, "role lookup failed: %v", err)
		return rolesource.RoleAbsent, false
	}
	report.add("cluster manager", true, "role %s is %s for %s", r.Config.RoleName, role, hostname)
	return role, true
}

// checkServices reports each exporter unit's active state.
func (r *Runner) checkServices(ctx context.Context, report *Report) {
	sup := r.Supervisor
	if sup == nil {
		systemd, err := supervisor.NewSystemd(ctx)
		if err != nil {
			report.add("services", false, "connecting to systemd: %v", err)
			return
		}
		defer systemd.Close()
		sup = systemd
	}

	for _, d := range exporter.Registry(r.Config) {
		active, err := sup.IsActive(ctx, d.Unit)
		switch {
		case err != nil:
			report.add("service "+d.Name, false, "state query failed: %v", err)
		case active:
			report.add("service "+d.Name, true, "active on port %d", d.Port)
		default:
			report.add("service "+d.Name, true, "inactive")
		}
	}
}

// checkTargets verifies the shared targets directory and, when the role is
// known, that the discovery file agrees with it.
func (r *Runner) checkTargets(report *Report, hostname string, role rolesource.Role, roleKnown bool) {
	if _, err := os.Stat(r.Config.TargetsDir); err != nil {
		report.add("targets directory", false, "not accessible: %v", err)
		return
	}
	report.add("targets directory", true, "%s accessible", r.Config.TargetsDir)

	path := filepath.Join(r.Config.TargetsDir, hostname+".json")
	data, err := os.ReadFile(path)

	switch {
	case !roleKnown:
		return
	case role == rolesource.RolePresent:
		if err != nil {
			report.add("discovery file", false, "role present but %s unreadable: %v", path, err)
			return
		}
		var entries []targets.Entry
		if jsonErr := json.Unmarshal(data, &entries); jsonErr != nil {
			report.add("discovery file", false, "%s is not valid JSON: %v", path, jsonErr)
			return
		}
		report.add("discovery file", true, "%s with %d entries", path, len(entries))
	default:
		if err == nil {
			report.add("discovery file", false, "role absent but %s still exists", path)
			return
		}
		report.add("discovery file", true, "absent as expected")
	}
}

// Write renders the report as a human-readable summary.
func (r *Report) Write(w io.Writer) {
	fmt.Fprintf(w, "Deployment checkup for %s\n", r.Hostname)
	for _, c := range r.Checks {
		status := "ok"
		if !c.OK {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  [%-4s] %-22s %s\n", status, c.Name, c.Detail)
	}
}
