// Package checkup performs a one-shot diagnosis of the role monitor
// deployment on this host: credential files, cluster manager reachability,
// the current role assignment, exporter unit states, and the discovery file
// on shared storage.
//
// It is the `check` subcommand's engine, intended for operators validating a
// fresh deployment or debugging a node that stopped reporting.
package checkup
