// Package monitor runs the reconciliation loop that keeps this host's
// exporter services and discovery file consistent with its assigned role.
//
// Each cycle moves through four phases: idle, fetching (role lookup against
// the cluster manager), reconciling (services, then discovery file, then
// state persistence), and sleeping. The loop's central property is failure
// isolation: any error or panic inside a cycle is caught at the cycle
// boundary, logged, and followed by the normal sleep. A single bad cycle
// never terminates the agent; unattended operation survives partial outages
// of the network, the process supervisor, and shared storage.
package monitor
