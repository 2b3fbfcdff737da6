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

package rolesource

import "context"

// Role is the cluster manager's designation of whether this host should run
// the workload-monitoring exporters.
type Role int

const (
	// RoleAbsent means the workload role is not assigned to this host.
	RoleAbsent Role = iota
	// RolePresent means the workload role is assigned to this host.
	RolePresent
)

// String returns the lowercase name of the role for logs and labels.
func (r Role) String() string {
	if r == RolePresent {
		return "present"
	}
	return "absent"
}

// MarshalJSON encodes the role by name so persisted state stays readable.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON decodes a role name. Anything other than "present" decodes
// as RoleAbsent, which is the safe default for unknown persisted values.
func (r *Role) UnmarshalJSON(data []byte) error {
	if string(data) == `"present"` {
		*r = RolePresent
	} else {
		*r = RoleAbsent
	}
	return nil
}

// Source yields the current role assignment for a host.
type Source interface {
	// FetchRole returns the role currently assigned to hostname. Callers
	// must treat any error as "unknown" and make no state changes.
	FetchRole(ctx context.Context, hostname string) (Role, error)
}
