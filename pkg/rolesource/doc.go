// Package rolesource answers the single question the reconciler needs from
// the outside world: does this host currently hold the monitored workload
// role?
//
// The answer comes from the cluster manager's REST API, queried over mutual
// TLS against an ordered list of head nodes. The first head node to return a
// parseable device listing wins; the rest exist only to tolerate one head
// node being down. The role is never inferred locally and never cached
// between cycles.
package rolesource
